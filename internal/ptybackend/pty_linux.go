//go:build linux

package ptybackend

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// openPty opens /dev/ptmx, unlocks and names the paired slave (the
// Linux unix98 pty protocol: TIOCSPTLCK then TIOCGPTN).
func openPty() (*os.File, string, error) {
	master, err := os.OpenFile("/dev/ptmx", os.O_RDWR|os.O_NOCTTY, 0)
	if err != nil {
		return nil, "", err
	}

	if err := unix.IoctlSetPointerInt(int(master.Fd()), unix.TIOCSPTLCK, 0); err != nil {
		master.Close()
		return nil, "", err
	}

	n, err := unix.IoctlGetInt(int(master.Fd()), unix.TIOCGPTN)
	if err != nil {
		master.Close()
		return nil, "", err
	}

	return master, fmt.Sprintf("/dev/pts/%d", n), nil
}
