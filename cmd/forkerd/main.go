//go:build linux || darwin || freebsd

// forkerd is the privilege-mediation daemon. It exists only on POSIX
// platforms: the identity switch it mediates is a setuid/setgid
// exec, which has no equivalent to mediate on Windows.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}
