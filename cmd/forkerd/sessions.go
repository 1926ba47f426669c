//go:build linux || darwin || freebsd

package main

import (
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/forkerproj/forker/internal/daemon"
)

// cmdSessions is the daemon self-liveness probe command (SPEC_FULL.md
// Supplemented Features): the wire protocol has no session-listing
// frame, so this renders what a HELLO round trip can tell an operator
// rather than per-child detail.
type cmdSessions struct {
	global *cmdGlobal
}

func (c *cmdSessions) Command() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "Report whether the daemon is reachable on its configured endpoint",
		RunE:  c.Run,
	}
}

func (c *cmdSessions) Run(cmd *cobra.Command, args []string) error {
	network, addr := "unix", c.global.flagSocket
	if c.global.flagTCP != "" {
		network, addr = "tcp", c.global.flagTCP
	}

	cookiePath := c.global.flagStateDir + "/cookie"
	cookie, cookieErr := daemon.ReadCookieFile(cookiePath)

	status := "unreachable"
	if cookieErr == nil {
		if err := daemon.Probe(network, addr, cookie, time.Second); err == nil {
			status = "reachable"
		}
	} else {
		status = "no cookie on disk"
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Endpoint", "Address", "Status"})
	table.Append([]string{network, addr, status})
	table.Render()

	return nil
}
