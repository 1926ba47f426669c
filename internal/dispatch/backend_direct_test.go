package dispatch

import (
	"bufio"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forkerproj/forker/internal/descriptor"
	"github.com/forkerproj/forker/internal/elevation"
)

func TestDirectLaunchCapturesOutput(t *testing.T) {
	d, err := descriptor.New([]string{"echo", "hello"}, descriptor.WithIOMode(descriptor.IO))
	require.NoError(t, err)

	p, err := directLaunch(d, elevation.Plan{})
	require.NoError(t, err)
	require.NotZero(t, p.Pid())

	out, err := io.ReadAll(p.Stdout())
	require.NoError(t, err)
	require.Equal(t, "hello\n", string(out))

	status, err := p.Wait()
	require.NoError(t, err)
	require.Equal(t, 0, status)
}

func TestDirectLaunchStdinRoundTrips(t *testing.T) {
	d, err := descriptor.New([]string{"cat"}, descriptor.WithIOMode(descriptor.IO))
	require.NoError(t, err)

	p, err := directLaunch(d, elevation.Plan{})
	require.NoError(t, err)

	_, err = p.Stdin().Write([]byte("ping\n"))
	require.NoError(t, err)
	require.NoError(t, p.Stdin().Close())

	line, err := bufio.NewReader(p.Stdout()).ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "ping\n", line)

	status, err := p.Wait()
	require.NoError(t, err)
	require.Equal(t, 0, status)
}

func TestDirectLaunchKillIsIdempotentAfterExit(t *testing.T) {
	d, err := descriptor.New([]string{"true"}, descriptor.WithIOMode(descriptor.Sink))
	require.NoError(t, err)

	p, err := directLaunch(d, elevation.Plan{})
	require.NoError(t, err)

	_, err = p.Wait()
	require.NoError(t, err)

	require.NoError(t, p.Kill(1))
}
