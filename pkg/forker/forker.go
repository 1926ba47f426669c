// Package forker is the public API surface a host Go program imports
// to launch OS commands through the Command Descriptor / Client
// Dispatcher pair, optionally routed through a privileged forkerd for
// identity switching. It re-exports the Command Descriptor (C2) and
// Client Dispatcher (C5) components so host code never imports
// internal/ packages directly.
package forker

import (
	"github.com/pkg/errors"

	"github.com/forkerproj/forker/internal/descriptor"
	"github.com/forkerproj/forker/internal/dispatch"
	"github.com/forkerproj/forker/internal/forkerr"
)

// Descriptor re-exports the Command Descriptor (C2).
type Descriptor = descriptor.Descriptor

// Option configures a Descriptor at construction time.
type Option = descriptor.Option

// IOMode selects the stdio wiring contract for a launch.
type IOMode = descriptor.IOMode

// Stdio wiring strategies, see the Dispatcher's decision table.
const (
	Default = descriptor.Default
	Input   = descriptor.Input
	Output  = descriptor.Output
	IO      = descriptor.IO
	Sink    = descriptor.Sink
	PTY     = descriptor.PTY
	System  = descriptor.System
)

// IdentityKind selects which identity a launched process should run under.
type IdentityKind = descriptor.IdentityKind

const (
	Current           = descriptor.Current
	Administrator     = descriptor.Administrator
	UID               = descriptor.UID
	Username          = descriptor.Username
	FixedPasswordSudo = descriptor.FixedPasswordSudo
)

// Identity names the effective identity requested for a launch.
type Identity = descriptor.Identity

// CurrentIdentity runs the child as whatever identity the launcher already has.
var CurrentIdentity = descriptor.CurrentIdentity

// PtyHints carries optional terminal geometry, meaningful only when
// IOMode is PTY.
type PtyHints = descriptor.PtyHints

// NewDescriptor validates and builds a Descriptor.
func NewDescriptor(argv []string, opts ...Option) (Descriptor, error) {
	return descriptor.New(argv, opts...)
}

// WithCwd sets the working directory for the launched process.
func WithCwd(dir string) Option { return descriptor.WithCwd(dir) }

// WithEnv overlays additional environment variables.
func WithEnv(env map[string]string) Option { return descriptor.WithEnv(env) }

// WithIOMode selects the stdio wiring strategy.
func WithIOMode(m IOMode) Option { return descriptor.WithIOMode(m) }

// WithIdentity requests that the process run under a non-default identity.
func WithIdentity(id Identity) Option { return descriptor.WithIdentity(id) }

// WithRedirectErrToOut merges stderr into stdout.
func WithRedirectErrToOut() Option { return descriptor.WithRedirectErrToOut() }

// WithPtyHints sets the terminal geometry used when IOMode is PTY.
func WithPtyHints(h PtyHints) Option { return descriptor.WithPtyHints(h) }

// Process is the opaque handle returned by a launch; see the Dispatcher.
type Process = dispatch.Process

// Resizable is implemented by Process handles that support live
// terminal resize — today, only pty-backed direct launches (the WINCH
// frame exists on the wire for a future daemon-routed pty; see
// DESIGN.md).
type Resizable interface {
	Resize(rows, cols uint16) error
}

// Resize applies new terminal geometry to p, if p supports it.
func Resize(p Process, rows, cols uint16) error {
	r, ok := p.(Resizable)
	if !ok {
		return forkerr.New(forkerr.UnsupportedPlatform, "process handle does not support resize")
	}
	return r.Resize(rows, cols)
}

// ErrorKind is the closed error taxonomy, carried inside Error.
type ErrorKind = forkerr.Kind

const (
	InvalidDescriptor    = forkerr.InvalidDescriptor
	DaemonUnreachable    = forkerr.DaemonUnreachable
	ProtocolError        = forkerr.ProtocolError
	ExecFailed           = forkerr.ExecFailed
	ElevationDenied      = forkerr.ElevationDenied
	ElevationUnavailable = forkerr.ElevationUnavailable
	ChildKilledBySignal  = forkerr.ChildKilledBySignal
	Interrupted          = forkerr.Interrupted
	UnsupportedPlatform  = forkerr.UnsupportedPlatform
)

// Error wraps a forker failure with its Kind; compare with errors.As,
// never by matching its message.
type Error = forkerr.Error

// IsKind reports whether err (or something it wraps) carries kind.
func IsKind(err error, kind ErrorKind) bool { return forkerr.Is(err, kind) }

// withStack adds a stack trace the way the teacher's startup code
// wraps errors crossing a package boundary, without losing the
// forkerr.Error for errors.As callers (errors.WithStack preserves Unwrap).
func withStack(err error) error {
	if err == nil {
		return nil
	}
	return errors.WithStack(err)
}

// ExitProtocolError is the process exit status a host CLI should use
// when a launch failed because of the forker protocol itself (a
// malformed frame, a daemon handshake failure) rather than because the
// launched command returned a nonzero status. Distinct from 127, the
// shell's "command not found" status; a command that cannot be started
// surfaces as an ExecFailed error, not as an exit status.
const ExitProtocolError = 126
