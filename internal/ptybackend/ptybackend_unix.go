//go:build linux || darwin || freebsd

// Package ptybackend implements the PTY Launch Backend: running a
// descriptor with a real controlling terminal, so full-screen and
// line-discipline-sensitive programs behave as they would in an
// interactive shell (SPEC_FULL.md §4.5 io_mode=pty). Grounded on
// lxd-agent/exec.go's pty/tty pair plus Setctty wiring, built on
// golang.org/x/sys/unix rather than a pty helper library: no pack
// example depends on one.
package ptybackend

import (
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/forkerproj/forker/internal/descriptor"
	"github.com/forkerproj/forker/internal/forkerr"
)

// Process is the PTY-backed handle returned to the dispatcher. It
// satisfies the dispatch.Process shape structurally (Stdin/Stdout
// share one fd, as a real terminal does) without importing dispatch,
// keeping ptybackend a leaf package.
type Process struct {
	cmd *exec.Cmd
	pty *os.File

	mu      sync.Mutex
	waited  bool
	status  int
	waitErr error
}

// Open allocates a pty/tty pair, starts argv with the tty as its
// controlling terminal, and returns a Process whose Stdin/Stdout are
// both the pty master end.
func Open(d descriptor.Descriptor, cred *syscall.Credential) (*Process, error) {
	ptyFile, ttyPath, err := openPty()
	if err != nil {
		if _, ok := err.(*forkerr.Error); ok {
			return nil, err // already classified, e.g. UnsupportedPlatform
		}
		return nil, forkerr.Wrap(forkerr.ExecFailed, err)
	}

	tty, err := os.OpenFile(ttyPath, os.O_RDWR, 0)
	if err != nil {
		ptyFile.Close()
		return nil, forkerr.Wrap(forkerr.ExecFailed, err)
	}
	defer tty.Close()

	argv := d.Argv()
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = tty
	cmd.Stdout = tty
	cmd.Stderr = tty
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid:     true,
		Setctty:    true,
		Credential: cred,
	}

	if cwd, ok := d.Cwd(); ok {
		cmd.Dir = cwd
	}
	env := os.Environ()
	for k, v := range d.Env() {
		env = append(env, k+"="+v)
	}
	if hints, ok := d.PtyHints(); ok && hints.TermName != "" {
		env = append(env, "TERM="+hints.TermName)
	}
	cmd.Env = env

	if hints, ok := d.PtyHints(); ok {
		_ = setWinsize(ptyFile, hints.Rows, hints.Cols)
	}

	if err := cmd.Start(); err != nil {
		ptyFile.Close()
		return nil, forkerr.Wrap(forkerr.ExecFailed, err)
	}

	return &Process{cmd: cmd, pty: ptyFile}, nil
}

func (p *Process) Stdin() io.WriteCloser { return p.pty }
func (p *Process) Stdout() io.Reader     { return p.pty }
func (p *Process) Stderr() io.Reader     { return nil }

func (p *Process) Pid() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// Resize applies new terminal geometry (WINCH, SPEC_FULL.md
// Supplemented Features).
func (p *Process) Resize(rows, cols uint16) error {
	return setWinsize(p.pty, rows, cols)
}

func (p *Process) Wait() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.waited {
		return p.status, p.waitErr
	}
	p.waited = true

	err := p.cmd.Wait()
	p.pty.Close()
	p.status, p.waitErr = exitStatus(err)
	return p.status, p.waitErr
}

func (p *Process) Kill(sig int) error {
	if p.cmd.Process == nil {
		return nil
	}
	err := p.cmd.Process.Signal(syscall.Signal(sig))
	if err != nil && p.cmd.ProcessState != nil {
		return nil
	}
	return err
}

func exitStatus(waitErr error) (int, error) {
	if waitErr == nil {
		return 0, nil
	}
	if ee, ok := waitErr.(*exec.ExitError); ok {
		if ws, ok := ee.Sys().(syscall.WaitStatus); ok {
			if ws.Signaled() {
				return 128 + int(ws.Signal()), nil
			}
			return ws.ExitStatus(), nil
		}
		return ee.ExitCode(), nil
	}
	return -1, forkerr.Wrap(forkerr.ExecFailed, waitErr)
}

func setWinsize(f *os.File, rows, cols uint16) error {
	if f == nil {
		return nil
	}
	ws := &unix.Winsize{Row: rows, Col: cols}
	return unix.IoctlSetWinsize(int(f.Fd()), unix.TIOCSWINSZ, ws)
}
