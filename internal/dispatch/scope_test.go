package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/forkerproj/forker/internal/descriptor"
)

func TestScopeNilIsSafe(t *testing.T) {
	var s *Scope
	assert.False(t, s.ForceDaemon())
	_, ok := s.IOModeOverride()
	assert.False(t, ok)
	assert.Empty(t, s.EnvOverlay())
	s.Release() // must not panic
}

func TestScopeChildOverridesParent(t *testing.T) {
	parent := NewScope(nil, WithForceDaemon(true), WithIOModeOverride(descriptor.Output))
	child := NewScope(parent, WithIOModeOverride(descriptor.IO))

	assert.True(t, child.ForceDaemon())
	mode, ok := child.IOModeOverride()
	assert.True(t, ok)
	assert.Equal(t, descriptor.IO, mode)
}

func TestScopeEnvOverlayMergesRootToLeaf(t *testing.T) {
	parent := NewScope(nil, WithScopeEnv(map[string]string{"A": "1", "B": "1"}))
	child := NewScope(parent, WithScopeEnv(map[string]string{"B": "2"}))

	got := child.EnvOverlay()
	assert.Equal(t, map[string]string{"A": "1", "B": "2"}, got)
}

func TestScopeWithoutForceDefaultsFalse(t *testing.T) {
	s := NewScope(nil, WithScopeEnv(map[string]string{"X": "1"}))
	assert.False(t, s.ForceDaemon())
}
