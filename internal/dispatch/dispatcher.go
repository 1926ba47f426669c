package dispatch

import (
	"runtime"

	"github.com/forkerproj/forker/internal/descriptor"
	"github.com/forkerproj/forker/internal/elevation"
	"github.com/forkerproj/forker/internal/forkerr"
	"github.com/forkerproj/forker/internal/ptybackend"
)

// Endpoint names the daemon's listen address, if any. A zero value
// (empty Network) means "no daemon configured"; Dispatch then only
// ever runs direct or local-helper launches.
type Endpoint struct {
	Network string // "unix" or "tcp"
	Addr    string
	Cookie  []byte
}

func (e Endpoint) configured() bool { return e.Network != "" }

// Dispatch picks a Launch Backend for d and starts it, implementing
// the ordered rule of SPEC_FULL.md §4.5:
//
//  1. io_mode=pty always runs through the local pty collaborator,
//     regardless of identity or scope.
//  2. Otherwise, a non-Current identity or scope.ForceDaemon() routes
//     to the daemon when one is configured and reachable.
//  3. Everything else runs in-process via os/exec, applying whatever
//     elevation.Select decided (local helper or downgrade).
func Dispatch(d descriptor.Descriptor, ep Endpoint, prober *Prober, scope *Scope) (Process, error) {
	if d.IOMode() == descriptor.PTY {
		cred, err := elevation.Credential(d.Identity())
		if err != nil {
			return nil, err
		}
		return ptybackend.Open(d, cred)
	}

	wantsDaemon := d.Identity().Kind != descriptor.Current || scope.ForceDaemon()
	daemonReachable := ep.configured() && prober != nil && prober.Reachable()

	if wantsDaemon && daemonReachable {
		return daemonLaunch(ep.Network, ep.Addr, ep.Cookie, withScope(d, scope))
	}

	if d.Identity().Kind == descriptor.Current {
		return directLaunch(withScope(d, scope), elevation.Plan{})
	}

	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" && runtime.GOOS != "freebsd" &&
		d.Identity().Kind != descriptor.Administrator {
		return nil, forkerr.New(forkerr.UnsupportedPlatform,
			"identity switching is not supported on this platform without a daemon")
	}

	plan, err := elevation.Select(d.Identity(), daemonReachable, false, elevation.HostIsPrivileged())
	if err != nil {
		return nil, err
	}

	if plan.Mechanism == elevation.ViaDaemonSetuid || plan.Mechanism == elevation.ViaDaemonHelper {
		if !daemonReachable {
			return nil, forkerr.New(forkerr.DaemonUnreachable, "elevation plan requires the daemon but it is unreachable")
		}
		return daemonLaunch(ep.Network, ep.Addr, ep.Cookie, withScope(d, scope))
	}

	return directLaunch(withScope(d, scope), plan)
}

// withScope applies a Scope's overlay (forced io_mode, extra env) on
// top of d without mutating the caller's Descriptor.
func withScope(d descriptor.Descriptor, scope *Scope) descriptor.Descriptor {
	if scope == nil {
		return d
	}

	opts := []descriptor.Option{}
	if mode, ok := scope.IOModeOverride(); ok {
		opts = append(opts, descriptor.WithIOMode(mode))
	}
	overlay := scope.EnvOverlay()
	if len(overlay) > 0 {
		merged := make(map[string]string, len(d.Env())+len(overlay))
		for k, v := range overlay {
			merged[k] = v
		}
		for k, v := range d.Env() {
			merged[k] = v
		}
		opts = append(opts, descriptor.WithEnv(merged))
	}
	if len(opts) == 0 {
		return d
	}

	rebuilt, err := descriptor.New(d.Argv(), append(baseOptions(d), opts...)...)
	if err != nil {
		// Scope overlays never invalidate an already-valid Descriptor;
		// fall back to the unscoped value rather than propagate an
		// error from a pure convenience path.
		return d
	}
	return rebuilt
}

func baseOptions(d descriptor.Descriptor) []descriptor.Option {
	opts := []descriptor.Option{
		descriptor.WithIOMode(d.IOMode()),
		descriptor.WithIdentity(d.Identity()),
		descriptor.WithEnv(d.Env()),
	}
	if cwd, ok := d.Cwd(); ok {
		opts = append(opts, descriptor.WithCwd(cwd))
	}
	if d.RedirectErrToOut() {
		opts = append(opts, descriptor.WithRedirectErrToOut())
	}
	if hints, ok := d.PtyHints(); ok {
		opts = append(opts, descriptor.WithPtyHints(hints))
	}
	return opts
}
