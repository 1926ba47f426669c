package forker

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunCapturesStdout(t *testing.T) {
	p, err := Run([]string{"echo", "hello"}, WithIOMode(IO))
	require.NoError(t, err)

	out, err := io.ReadAll(p.Stdout())
	require.NoError(t, err)
	require.Equal(t, "hello\n", string(out))

	status, err := p.Wait()
	require.NoError(t, err)
	require.Equal(t, 0, status)
}

func TestNewDispatcherWithoutEndpointHasNoProber(t *testing.T) {
	d := NewDispatcher(Endpoint{})
	require.Nil(t, d.prober)
	p, err := d.Run(mustDescriptor(t, []string{"true"}, WithIOMode(Sink)), nil)
	require.NoError(t, err)
	_, err = p.Wait()
	require.NoError(t, err)
}

func TestIsKindMatchesForkerrTaxonomy(t *testing.T) {
	_, err := NewDescriptor(nil)
	require.Error(t, err)
	require.True(t, IsKind(err, InvalidDescriptor))
	require.False(t, IsKind(err, ExecFailed))
}

func mustDescriptor(t *testing.T, argv []string, opts ...Option) Descriptor {
	t.Helper()
	d, err := NewDescriptor(argv, opts...)
	require.NoError(t, err)
	return d
}
