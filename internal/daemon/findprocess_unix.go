//go:build linux || darwin || freebsd

package daemon

import "syscall"

// findProcess returns nil if pid is still alive, an error otherwise.
// Used by tests to confirm orphan cleanup.
func findProcess(pid int) error {
	return syscall.Kill(pid, 0)
}
