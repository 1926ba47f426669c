package dispatch

import (
	"os"
	"os/exec"

	"github.com/forkerproj/forker/internal/descriptor"
)

// wirePipes configures cmd's stdio according to io_mode and returns
// the Process the caller gets back once cmd.Start succeeds.
func wirePipes(cmd *exec.Cmd, mode descriptor.IOMode, redirErr bool) (*directProcess, error) {
	p := &directProcess{cmd: cmd}

	switch mode {
	case descriptor.System:
		// Synchronous blocking exec, no captured streams (§4.5).
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		return p, nil

	case descriptor.Sink:
		cmd.Stdin = nil
		cmd.Stdout = nil
		cmd.Stderr = nil
		return p, nil
	}

	if mode != descriptor.Input {
		w, err := cmd.StdinPipe()
		if err != nil {
			return nil, err
		}
		p.stdin = w
	}

	if mode != descriptor.Output {
		r, err := cmd.StdoutPipe()
		if err != nil {
			return nil, err
		}
		p.stdout = r

		if redirErr {
			cmd.Stderr = cmd.Stdout
		} else {
			er, err := cmd.StderrPipe()
			if err != nil {
				return nil, err
			}
			p.stderr = er
		}
	}

	return p, nil
}
