//go:build linux || darwin || freebsd

package main

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/forkerproj/forker/internal/daemon"
	"github.com/forkerproj/forker/internal/logging"
)

type cmdServe struct {
	global *cmdGlobal

	flagVerbose bool
}

func (c *cmdServe) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the daemon in the foreground",
		RunE:  c.Run,
	}
	cmd.Flags().BoolVarP(&c.flagVerbose, "verbose", "v", false, "enable debug logging")
	return cmd
}

func (c *cmdServe) Run(cmd *cobra.Command, args []string) error {
	level := logrus.InfoLevel
	if c.flagVerbose {
		level = logrus.DebugLevel
	}
	log := logging.NewConsole(level)

	if err := os.MkdirAll(c.global.flagStateDir, 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	network, addr := c.endpoint()
	cookiePath := filepath.Join(c.global.flagStateDir, "cookie")

	if err := refuseIfAlreadyRunning(network, addr, cookiePath); err != nil {
		return err
	}

	cookie, err := freshCookie(cookiePath)
	if err != nil {
		return fmt.Errorf("generate cookie: %w", err)
	}

	if network == "unix" {
		_ = os.Remove(addr) // stale socket from an unclean shutdown
	}
	l, err := net.Listen(network, addr)
	if err != nil {
		return fmt.Errorf("listen on %s %s: %w", network, addr, err)
	}
	defer l.Close()

	grace, err := time.ParseDuration(c.global.flagGrace)
	if err != nil {
		return fmt.Errorf("invalid --grace: %w", err)
	}

	srv := daemon.New(l, cookie, log)
	srv.Grace = grace

	log.Infof("forkerd listening on %s %s", network, addr)
	return srv.Serve()
}

func (c *cmdServe) endpoint() (network, addr string) {
	if c.global.flagTCP != "" {
		return "tcp", c.global.flagTCP
	}
	return "unix", c.global.flagSocket
}

// refuseIfAlreadyRunning probes the endpoint with the cookie on disk
// (if any) and refuses to start a second daemon instance over the
// same listener.
func refuseIfAlreadyRunning(network, addr, cookiePath string) error {
	cookie, err := daemon.ReadCookieFile(cookiePath)
	if err != nil {
		return nil // no existing cookie means no existing daemon to probe
	}
	if err := daemon.Probe(network, addr, cookie, 500*time.Millisecond); err == nil {
		return fmt.Errorf("a forkerd instance already appears to be listening on %s %s", network, addr)
	}
	return nil
}

// freshCookie generates a new cookie for this daemon process and
// overwrites whatever cookie file a prior instance left behind: the
// cookie's lifetime is the daemon process's lifetime (§3), not the
// lifetime of the state directory.
func freshCookie(path string) ([]byte, error) {
	cookie, err := daemon.GenerateCookie()
	if err != nil {
		return nil, err
	}
	if err := daemon.WriteCookieFile(path, cookie); err != nil {
		return nil, err
	}
	return cookie, nil
}
