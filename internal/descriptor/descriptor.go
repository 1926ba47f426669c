// Package descriptor implements the Command Descriptor (C2): an
// immutable value describing a command to run.
package descriptor

import (
	"strings"

	"github.com/pkg/errors"
)

// IOMode selects the stdio wiring contract for a launch (§4.5).
type IOMode uint8

const (
	Default IOMode = iota
	Input
	Output
	IO
	Sink
	PTY
	System
)

func (m IOMode) String() string {
	switch m {
	case Default:
		return "default"
	case Input:
		return "input"
	case Output:
		return "output"
	case IO:
		return "io"
	case Sink:
		return "sink"
	case PTY:
		return "pty"
	case System:
		return "system"
	default:
		return "unknown"
	}
}

// IdentityKind selects which identity a launched process should run
// under (§4.3).
type IdentityKind uint8

const (
	Current IdentityKind = iota
	Administrator
	UID
	Username
	FixedPasswordSudo
)

// Identity names the effective identity requested for a launch.
// Arg holds the UID (as a decimal string), the username, or the fixed
// password, depending on Kind. Current and Administrator ignore Arg.
type Identity struct {
	Kind IdentityKind
	Arg  string
}

// CurrentIdentity runs the child as whatever identity the launcher
// already has.
var CurrentIdentity = Identity{Kind: Current}

// PtyHints carries the optional terminal geometry used only when
// IOMode is PTY.
type PtyHints struct {
	Rows     uint16
	Cols     uint16
	TermName string
}

// Descriptor is an immutable command-launch request. Construct one
// with New; the zero value is not valid.
type Descriptor struct {
	argv             []string
	cwd              string
	hasCwd           bool
	env              map[string]string
	ioMode           IOMode
	identity         Identity
	redirectErrToOut bool
	ptyHints         PtyHints
	hasPtyHints      bool
}

// Option configures a Descriptor at construction time.
type Option func(*Descriptor)

// WithCwd sets the working directory for the launched process.
func WithCwd(dir string) Option {
	return func(d *Descriptor) {
		d.cwd = dir
		d.hasCwd = true
	}
}

// WithEnv overlays additional environment variables on top of the
// inherited environment.
func WithEnv(env map[string]string) Option {
	return func(d *Descriptor) {
		d.env = make(map[string]string, len(env))
		for k, v := range env {
			d.env[k] = v
		}
	}
}

// WithIOMode selects the stdio wiring strategy.
func WithIOMode(m IOMode) Option {
	return func(d *Descriptor) { d.ioMode = m }
}

// WithIdentity requests that the process run under a non-default
// identity.
func WithIdentity(id Identity) Option {
	return func(d *Descriptor) { d.identity = id }
}

// WithRedirectErrToOut merges the child's stderr into its stdout
// stream; no STDERR frames are produced.
func WithRedirectErrToOut() Option {
	return func(d *Descriptor) { d.redirectErrToOut = true }
}

// WithPtyHints sets the terminal geometry used when IOMode is PTY.
func WithPtyHints(h PtyHints) Option {
	return func(d *Descriptor) {
		d.ptyHints = h
		d.hasPtyHints = true
	}
}

// New validates and builds a Descriptor. argv[0] is the executable
// path or a PATH-resolved name; argv must be non-empty.
func New(argv []string, opts ...Option) (Descriptor, error) {
	if len(argv) == 0 {
		return Descriptor{}, ErrInvalidArgv
	}

	d := Descriptor{
		argv: append([]string(nil), argv...),
		env:  map[string]string{},
	}
	for _, opt := range opts {
		opt(&d)
	}

	for name := range d.env {
		if strings.ContainsAny(name, "=\x00") {
			return Descriptor{}, errors.Wrapf(ErrInvalidEnv, "name %q", name)
		}
	}

	if d.identity.Kind == FixedPasswordSudo && d.identity.Arg == "" {
		return Descriptor{}, errors.Wrap(ErrInvalidIdentity, "fixed-password identity needs a password")
	}

	return d, nil
}

// Argv returns the command and its arguments. The returned slice must
// not be mutated.
func (d Descriptor) Argv() []string { return d.argv }

// Cwd returns the configured working directory and whether one was set.
func (d Descriptor) Cwd() (string, bool) { return d.cwd, d.hasCwd }

// Env returns the environment overlay. The returned map must not be
// mutated.
func (d Descriptor) Env() map[string]string { return d.env }

// IOMode returns the configured stdio wiring strategy.
func (d Descriptor) IOMode() IOMode { return d.ioMode }

// Identity returns the requested effective identity.
func (d Descriptor) Identity() Identity { return d.identity }

// RedirectErrToOut reports whether stderr is merged into stdout.
func (d Descriptor) RedirectErrToOut() bool { return d.redirectErrToOut }

// PtyHints returns the configured terminal geometry and whether one
// was set.
func (d Descriptor) PtyHints() (PtyHints, bool) { return d.ptyHints, d.hasPtyHints }
