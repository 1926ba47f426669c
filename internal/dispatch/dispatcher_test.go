package dispatch

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forkerproj/forker/internal/descriptor"
	"github.com/forkerproj/forker/internal/elevation"
)

func TestDispatchRunsCurrentIdentityDirectWithNoDaemon(t *testing.T) {
	d, err := descriptor.New([]string{"echo", "ok"}, descriptor.WithIOMode(descriptor.Output))
	require.NoError(t, err)

	p, err := Dispatch(d, Endpoint{}, nil, nil)
	require.NoError(t, err)

	status, err := p.Wait()
	require.NoError(t, err)
	require.Equal(t, 0, status)
}

func TestDispatchAppliesScopeIOModeOverride(t *testing.T) {
	d, err := descriptor.New([]string{"cat"}, descriptor.WithIOMode(descriptor.Default))
	require.NoError(t, err)

	scope := NewScope(nil, WithIOModeOverride(descriptor.Output))
	p, err := Dispatch(d, Endpoint{}, nil, scope)
	require.NoError(t, err)

	// io_mode=output: caller writes stdin, stdout is not captured (§4.5).
	require.NotNil(t, p.Stdin())
	require.Nil(t, p.Stdout())

	require.NoError(t, p.Stdin().Close())
	_, err = p.Wait()
	require.NoError(t, err)
}

func TestDispatchNonCurrentIdentityWithoutDaemonOrHelperFails(t *testing.T) {
	t.Setenv("PATH", t.TempDir()) // no pkexec/sudo/doas resolvable

	origHostPrivileged := elevation.HostPrivileged
	elevation.HostPrivileged = func() bool { return false }
	t.Cleanup(func() { elevation.HostPrivileged = origHostPrivileged })

	d, err := descriptor.New([]string{"echo", "ok"}, descriptor.WithIdentity(descriptor.Identity{Kind: descriptor.UID, Arg: "0"}))
	require.NoError(t, err)

	_, err = Dispatch(d, Endpoint{}, nil, nil)
	require.Error(t, err)
}
