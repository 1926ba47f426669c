package dispatch

import (
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"github.com/forkerproj/forker/internal/descriptor"
	"github.com/forkerproj/forker/internal/elevation"
	"github.com/forkerproj/forker/internal/forkerr"
)

// directProcess runs a command in-process via os/exec, used when no
// daemon is involved: identity=Current, or a local elevation helper /
// privilege downgrade (§4.3 steps 3-4).
type directProcess struct {
	cmd     *exec.Cmd
	cleanup func() // removes the askpass script once the process has exited, if any

	stdin  io.WriteCloser
	stdout io.Reader
	stderr io.Reader

	mu      sync.Mutex
	waited  bool
	status  int
	waitErr error
}

func (p *directProcess) Stdin() io.WriteCloser { return p.stdin }
func (p *directProcess) Stdout() io.Reader     { return p.stdout }
func (p *directProcess) Stderr() io.Reader     { return p.stderr }

func (p *directProcess) Pid() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

func (p *directProcess) Wait() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.waited {
		return p.status, p.waitErr
	}
	p.waited = true

	err := p.cmd.Wait()
	if p.cleanup != nil {
		p.cleanup()
	}
	p.status = directExitStatus(err)
	if err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			p.waitErr = forkerr.Wrap(forkerr.Interrupted, err)
		}
	}
	return p.status, p.waitErr
}

func (p *directProcess) Kill(sig int) error {
	if p.cmd.Process == nil {
		return nil
	}
	err := p.cmd.Process.Signal(syscall.Signal(sig))
	if err != nil && p.cmd.ProcessState != nil {
		return nil // already exited: idempotent after exit (§4.5)
	}
	return err
}

// directLaunch builds and starts a process for a Current-identity
// descriptor, or for a downgrade/local-helper elevation Plan.
func directLaunch(d descriptor.Descriptor, plan elevation.Plan) (Process, error) {
	argv := d.Argv()
	var cmd *exec.Cmd

	switch plan.Mechanism {
	case elevation.ViaLocalHelper:
		if d.Identity().Kind == descriptor.FixedPasswordSudo {
			// The askpass mechanism (-A, SUDO_ASKPASS) is sudo's own,
			// whichever helper Select preferred.
			sudo, err := exec.LookPath("sudo")
			if err != nil {
				return nil, forkerr.Wrap(forkerr.ElevationUnavailable, err)
			}
			var p *directProcess
			var pipeErr error
			c, cl, err := elevation.RunWithFixedPassword(sudo, d.Identity().Arg, argv, func(c *exec.Cmd) {
				configureCmd(c, d)
				p, pipeErr = wirePipes(c, d.IOMode(), d.RedirectErrToOut())
			})
			if err != nil {
				return nil, err
			}
			if pipeErr != nil {
				_ = c.Process.Kill()
				_ = c.Wait()
				cl()
				return nil, forkerr.Wrap(forkerr.ExecFailed, pipeErr)
			}
			p.cleanup = cl
			if d.IOMode() == descriptor.System {
				_, _ = p.Wait()
			}
			return p, nil
		}
		full := elevation.HelperArgv(plan.HelperPath, d.Identity(), argv)
		cmd = exec.Command(full[0], full[1:]...)
	default:
		cmd = exec.Command(argv[0], argv[1:]...)
	}

	configureCmd(cmd, d)

	if plan.Mechanism == elevation.ViaDowngrade {
		cred, err := elevation.Credential(d.Identity())
		if err != nil {
			return nil, err
		}
		setCredential(cmd, cred)
	}

	p, err := wirePipes(cmd, d.IOMode(), d.RedirectErrToOut())
	if err != nil {
		return nil, forkerr.Wrap(forkerr.ExecFailed, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, forkerr.Wrap(forkerr.ExecFailed, err)
	}

	if d.IOMode() == descriptor.System {
		// System blocks until the child exits; Wait caches the result
		// for the caller's own Wait.
		_, _ = p.Wait()
	}

	return p, nil
}

func configureCmd(cmd *exec.Cmd, d descriptor.Descriptor) {
	if cwd, ok := d.Cwd(); ok {
		cmd.Dir = cwd
	}
	env := os.Environ()
	for k, v := range d.Env() {
		env = append(env, k+"="+v)
	}
	cmd.Env = env
}
