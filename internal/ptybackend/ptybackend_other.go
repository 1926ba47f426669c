//go:build !linux && !darwin && !freebsd

package ptybackend

import (
	"io"

	"github.com/forkerproj/forker/internal/descriptor"
	"github.com/forkerproj/forker/internal/forkerr"
)

// Process is an empty placeholder on platforms with no pty support at
// all: Open always fails before one is ever constructed.
type Process struct{}

func (p *Process) Stdin() io.WriteCloser  { return nil }
func (p *Process) Stdout() io.Reader      { return nil }
func (p *Process) Stderr() io.Reader      { return nil }
func (p *Process) Pid() int               { return 0 }
func (p *Process) Wait() (int, error)     { return -1, errUnsupported }
func (p *Process) Kill(sig int) error     { return errUnsupported }
func (p *Process) Resize(r, c uint16) error { return errUnsupported }

var errUnsupported = forkerr.New(forkerr.UnsupportedPlatform, "pty allocation is not supported on this platform")

// Open always fails here; cred is typed any to match
// elevation.Credential's non-POSIX return type.
func Open(d descriptor.Descriptor, cred any) (*Process, error) {
	return nil, errUnsupported
}
