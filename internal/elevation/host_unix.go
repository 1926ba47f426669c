//go:build linux || darwin || freebsd

package elevation

import "os"

func defaultHostPrivileged() bool {
	return os.Geteuid() == 0
}
