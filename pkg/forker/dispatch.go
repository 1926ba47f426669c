package forker

import (
	"github.com/forkerproj/forker/internal/dispatch"
)

// Endpoint names forkerd's listen address. A zero value means "no
// daemon configured": every Dispatcher built from it only ever runs
// direct or local-helper launches.
type Endpoint = dispatch.Endpoint

// Scope is the Dispatcher's ambient configuration overlay (§4.5):
// force-daemon, an io_mode override, and an env overlay applied to
// every Descriptor dispatched within it. Release it on every exit
// path, the way a context.CancelFunc is deferred.
type Scope = dispatch.Scope

// ScopeOption configures a Scope at construction time.
type ScopeOption = dispatch.ScopeOption

// NewScope creates a root scope, or a child of parent when non-nil.
func NewScope(parent *Scope, opts ...ScopeOption) *Scope { return dispatch.NewScope(parent, opts...) }

// WithForceDaemon routes every Descriptor built in this scope to the
// daemon even when identity is Current.
func WithForceDaemon(force bool) ScopeOption { return dispatch.WithForceDaemon(force) }

// WithIOModeOverride forces a specific io_mode for this scope.
func WithIOModeOverride(mode IOMode) ScopeOption { return dispatch.WithIOModeOverride(mode) }

// WithScopeEnv overlays environment variables for this scope.
func WithScopeEnv(env map[string]string) ScopeOption { return dispatch.WithScopeEnv(env) }

// Dispatcher is the host-facing entry point: an Endpoint plus the
// reachability Prober the Client Dispatcher needs to decide whether a
// non-Current-identity launch can actually reach forkerd. Construct
// one per process (or per daemon endpoint) and reuse it, the way the
// teacher's own client holds one long-lived connection config rather
// than re-resolving it per call.
type Dispatcher struct {
	endpoint Endpoint
	prober   *dispatch.Prober
}

// NewDispatcher builds a Dispatcher for ep. An Endpoint with an empty
// Network means no daemon is configured at all.
func NewDispatcher(ep Endpoint) *Dispatcher {
	d := &Dispatcher{endpoint: ep}
	if ep.Network != "" {
		d.prober = &dispatch.Prober{Network: ep.Network, Addr: ep.Addr, Cookie: ep.Cookie}
	}
	return d
}

// Run dispatches d, picking a backend per §4.5 and the Dispatcher's
// configured Endpoint, under the given Scope (nil is the root scope).
func (disp *Dispatcher) Run(d Descriptor, scope *Scope) (Process, error) {
	p, err := dispatch.Dispatch(d, disp.endpoint, disp.prober, scope)
	if err != nil {
		return nil, withStack(err)
	}
	return p, nil
}

// defaultDispatcher is used by the package-level Run convenience,
// which never routes to a daemon (no Endpoint); a host program that
// needs daemon routing builds its own Dispatcher via NewDispatcher
// instead.
var defaultDispatcher = NewDispatcher(Endpoint{})

// Run is the simplest possible entry point: build a Descriptor for
// argv with opts and launch it with no daemon involved. The identity
// is Current unless opts set another, which then runs through a local
// helper or a downgrade.
func Run(argv []string, opts ...Option) (Process, error) {
	d, err := NewDescriptor(argv, opts...)
	if err != nil {
		return nil, withStack(err)
	}
	return defaultDispatcher.Run(d, nil)
}
