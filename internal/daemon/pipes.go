package daemon

import (
	"os"

	"github.com/forkerproj/forker/internal/descriptor"
)

func needStdin(mode descriptor.IOMode) bool {
	switch mode {
	case descriptor.Input, descriptor.Sink:
		return false
	default:
		return true
	}
}

func needStdoutStderr(mode descriptor.IOMode) bool {
	switch mode {
	case descriptor.Output, descriptor.Sink:
		return false
	default:
		return true
	}
}

// makePipes builds the stdio plumbing for one child according to its
// io_mode (§4.5). Pipe ends destined for the child are returned so the
// caller can close its copy after Start; ends destined for the daemon
// are returned for pumping.
func makePipes(mode descriptor.IOMode, redirErr bool) (stdinR, stdinW, stdoutR, stdoutW, stderrR, stderrW *os.File, err error) {
	if needStdin(mode) {
		stdinR, stdinW, err = os.Pipe()
		if err != nil {
			return
		}
	}

	wantOut := needStdoutStderr(mode)
	if wantOut {
		stdoutR, stdoutW, err = os.Pipe()
		if err != nil {
			return
		}
		if !redirErr {
			stderrR, stderrW, err = os.Pipe()
			if err != nil {
				return
			}
		}
	}

	return
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		if f != nil {
			_ = f.Close()
		}
	}
}
