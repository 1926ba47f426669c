package dispatch

import "github.com/forkerproj/forker/internal/descriptor"

// Scope is the "ambient configuration overlay" of SPEC_FULL.md §4.5 /
// §9, redesigned per the spec's own Design Notes: instead of
// thread-local global state, a Scope is an explicit, caller-held
// value. Nested scopes compose by overwrite of set fields; a Scope
// must be released on every exit path (Release is a no-op today but
// documents the lifetime contract for a future resource-backed
// overlay, e.g. a pinned daemon connection).
type Scope struct {
	parent *Scope

	forceDaemon  bool
	hasForce     bool
	ioModeOver   descriptor.IOMode
	hasIOMode    bool
	envOverlay   map[string]string
	released     bool
}

// NewScope creates a root scope (or a child of parent when non-nil)
// with the given options applied on top of whatever parent defines.
func NewScope(parent *Scope, opts ...ScopeOption) *Scope {
	s := &Scope{parent: parent}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScopeOption configures a Scope at construction time.
type ScopeOption func(*Scope)

// WithForceDaemon makes every Descriptor built in this scope route to
// the daemon even when identity is Current.
func WithForceDaemon(force bool) ScopeOption {
	return func(s *Scope) { s.forceDaemon = force; s.hasForce = true }
}

// WithIOModeOverride forces a specific io_mode for every Descriptor
// built in this scope.
func WithIOModeOverride(mode descriptor.IOMode) ScopeOption {
	return func(s *Scope) { s.ioModeOver = mode; s.hasIOMode = true }
}

// WithScopeEnv overlays additional environment on every Descriptor
// built in this scope, merged under the Descriptor's own overlay.
func WithScopeEnv(env map[string]string) ScopeOption {
	return func(s *Scope) {
		s.envOverlay = make(map[string]string, len(env))
		for k, v := range env {
			s.envOverlay[k] = v
		}
	}
}

// ForceDaemon resolves the force-daemon setting, walking up to parent
// scopes when this scope didn't set one.
func (s *Scope) ForceDaemon() bool {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.hasForce {
			return cur.forceDaemon
		}
	}
	return false
}

// IOModeOverride resolves the io_mode override, if any scope in the
// chain set one.
func (s *Scope) IOModeOverride() (descriptor.IOMode, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.hasIOMode {
			return cur.ioModeOver, true
		}
	}
	return 0, false
}

// EnvOverlay merges every scope's env overlay from root to leaf, so a
// child scope's values win over its parent's.
func (s *Scope) EnvOverlay() map[string]string {
	var chain []*Scope
	for cur := s; cur != nil; cur = cur.parent {
		chain = append(chain, cur)
	}

	out := map[string]string{}
	for i := len(chain) - 1; i >= 0; i-- {
		for k, v := range chain[i].envOverlay {
			out[k] = v
		}
	}
	return out
}

// Release marks the scope released. Safe to call more than once.
func (s *Scope) Release() {
	if s == nil {
		return
	}
	s.released = true
}
