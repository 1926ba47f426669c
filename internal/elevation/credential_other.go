//go:build !linux && !darwin && !freebsd

package elevation

import (
	"github.com/forkerproj/forker/internal/descriptor"
	"github.com/forkerproj/forker/internal/forkerr"
)

// Credential is unsupported on non-POSIX platforms: on the elevation
// path Select already refuses any identity other than
// Administrator/Current with UnsupportedPlatform; the pty path calls
// this directly and gets the same error kind here.
func Credential(id descriptor.Identity) (any, error) {
	if id.Kind == descriptor.Current || id.Kind == descriptor.Administrator {
		return nil, nil
	}
	return nil, forkerr.New(forkerr.UnsupportedPlatform, "setuid/setgid identity switch is POSIX-only")
}
