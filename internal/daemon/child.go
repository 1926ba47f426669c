//go:build linux || darwin || freebsd

package daemon

import (
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/forkerproj/forker/internal/descriptor"
	"github.com/forkerproj/forker/internal/elevation"
	"github.com/forkerproj/forker/internal/forkerr"
	"github.com/forkerproj/forker/internal/wire"
)

// child is one spawned process owned by a session. Its I/O pumps run
// under one errgroup, giving the "coroutine-style I/O" of SPEC_FULL.md
// §9 a concrete shape (teacher: lxd-agent/exec.go's per-stream
// goroutines + sync.WaitGroup, generalized to errgroup).
type child struct {
	id  wire.ChildID
	cmd *exec.Cmd

	stdinW io.WriteCloser

	mu       sync.Mutex
	exited   bool
	exitCode int32
}

// spawnChild starts a process per msg and wires its stdio so that
// outgoing data is delivered through emit. It returns once the
// process has successfully started (or failed to start); I/O pumping
// and wait continue in the background under grp.
func spawnChild(id wire.ChildID, msg wire.LaunchMessage, grp *errgroup.Group, emit func(kind wire.Kind, payload []byte), onExit func(status int32)) (*child, error) {
	if len(msg.Argv) == 0 {
		return nil, forkerr.New(forkerr.InvalidDescriptor, "argv must not be empty")
	}

	ioMode := descriptor.IOMode(msg.IOMode)
	idKind := descriptor.IdentityKind(msg.IdentityKind)

	argv := msg.Argv
	sysAttr := &syscall.SysProcAttr{Setpgid: true}

	if idKind != descriptor.Current {
		arg := ""
		if msg.IdentityArg != nil {
			arg = *msg.IdentityArg
		}
		identity := descriptor.Identity{Kind: idKind, Arg: arg}

		if elevation.HostIsPrivileged() {
			cred, err := elevation.Credential(identity)
			if err != nil {
				return nil, err
			}
			sysAttr.Credential = cred
		} else if helper := elevation.FindHelper(); helper != "" {
			// §4.3 step 2: daemon reachable but unprivileged — shell
			// the launch out to whatever helper is on PATH.
			argv = elevation.HelperArgv(helper, identity, msg.Argv)
		} else {
			return nil, forkerr.New(forkerr.ElevationUnavailable, "daemon is not privileged and no elevation helper is available on PATH")
		}
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Env = append(os.Environ(), envPairs(msg.Env)...)
	if msg.Cwd != nil {
		cmd.Dir = *msg.Cwd
	}
	cmd.SysProcAttr = sysAttr

	stdinR, stdinW, stdoutR, stdoutW, stderrR, stderrW, err := makePipes(ioMode, msg.RedirErr)
	if err != nil {
		return nil, forkerr.Wrap(forkerr.ExecFailed, err)
	}

	cmd.Stdin = stdinR
	cmd.Stdout = stdoutW
	if msg.RedirErr {
		cmd.Stderr = stdoutW
	} else {
		cmd.Stderr = stderrW
	}

	if err := cmd.Start(); err != nil {
		closeAll(stdinR, stdinW, stdoutR, stdoutW, stderrR, stderrW)
		return nil, forkerr.Wrap(forkerr.ExecFailed, err)
	}

	// The parent's copies of the child-side fds must close so EOF
	// propagates once the child exits.
	_ = stdinR.Close()
	_ = stdoutW.Close()
	if stderrW != nil {
		_ = stderrW.Close()
	}

	c := &child{id: id, cmd: cmd, stdinW: stdinW}

	if stdoutR != nil {
		grp.Go(func() error {
			pumpOut(stdoutR, wire.KindStdout, emit)
			return nil
		})
	}
	if stderrR != nil && !msg.RedirErr {
		grp.Go(func() error {
			pumpOut(stderrR, wire.KindStderr, emit)
			return nil
		})
	}

	grp.Go(func() error {
		err := cmd.Wait()
		status := exitStatus(err)
		c.mu.Lock()
		c.exited = true
		c.exitCode = status
		c.mu.Unlock()
		if stdinW != nil {
			_ = stdinW.Close()
		}
		onExit(status)
		return nil
	})

	return c, nil
}

func envPairs(overlay map[string]string) []string {
	out := make([]string, 0, len(overlay))
	for k, v := range overlay {
		out = append(out, k+"="+v)
	}
	return out
}

func pumpOut(r io.ReadCloser, kind wire.Kind, emit func(wire.Kind, []byte)) {
	defer r.Close()
	buf := make([]byte, 32*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			emit(kind, chunk)
		}
		if err != nil {
			return
		}
	}
}

// writeStdin forwards bytes from a STDIN frame to the child.
func (c *child) writeStdin(p []byte) error {
	if c.stdinW == nil {
		return nil
	}
	_, err := c.stdinW.Write(p)
	return err
}

// closeStdin handles STDIN_CLOSE.
func (c *child) closeStdin() error {
	if c.stdinW == nil {
		return nil
	}
	return c.stdinW.Close()
}

// signal delivers sig to the child's process group (KILL frame).
func (c *child) signal(sig syscall.Signal) error {
	pgid, err := syscall.Getpgid(c.cmd.Process.Pid)
	if err != nil {
		pgid = c.cmd.Process.Pid
	}
	return syscall.Kill(-pgid, sig)
}

func (c *child) pid() int {
	if c.cmd.Process == nil {
		return 0
	}
	return c.cmd.Process.Pid
}
