//go:build linux || darwin || freebsd

package main

import (
	"os"

	"github.com/spf13/cobra"
)

// cmdGlobal holds the flags every forkerd subcommand shares: the
// listener endpoint and the state directory holding the cookie file.
// Flags fall back to environment variables the way a Descriptor's env
// overlay falls back to the inherited environment.
type cmdGlobal struct {
	flagSocket   string
	flagTCP      string
	flagStateDir string
	flagGrace    string
}

func newRootCmd() *cobra.Command {
	g := &cmdGlobal{}

	root := &cobra.Command{
		Use:   "forkerd",
		Short: "Privilege-mediation daemon for launching OS processes on a client's behalf",
	}

	root.PersistentFlags().StringVar(&g.flagSocket, "socket", envOr("FORKERD_SOCKET", defaultSocketPath()), "unix socket path to listen on")
	root.PersistentFlags().StringVar(&g.flagTCP, "tcp", envOr("FORKERD_TCP", ""), "loopback TCP address to listen on instead of a unix socket")
	root.PersistentFlags().StringVar(&g.flagStateDir, "state-dir", envOr("FORKERD_STATE_DIR", defaultStateDir()), "directory holding the daemon's cookie file")
	root.PersistentFlags().StringVar(&g.flagGrace, "grace", envOr("FORKERD_GRACE", "5s"), "delay between SIGTERM and SIGKILL on connection drop")

	root.AddCommand((&cmdServe{global: g}).Command())
	root.AddCommand((&cmdSessions{global: g}).Command())
	root.AddCommand(newVersionCmd())

	return root
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func defaultStateDir() string {
	return "/var/lib/forkerd"
}

func defaultSocketPath() string {
	return defaultStateDir() + "/forkerd.sock"
}
