//go:build darwin || freebsd

package ptybackend

import (
	"os"

	"github.com/forkerproj/forker/internal/forkerr"
)

// openPty is Linux-only today: Darwin and FreeBSD name their pty
// devices through different ioctls (PTSNAME-style vs. TIOCGPTN), and
// no pack example exercises either. Open therefore always fails on
// these platforms with UnsupportedPlatform; other io_modes never go
// through this package.
func openPty() (*os.File, string, error) {
	return nil, "", forkerr.New(forkerr.UnsupportedPlatform, "pty allocation is not implemented on darwin/freebsd")
}
