//go:build linux || darwin || freebsd

package dispatch

import (
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forkerproj/forker/internal/daemon"
	"github.com/forkerproj/forker/internal/logging"
)

func TestProberReachableAgainstRealDaemon(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "forkerd.sock")
	l, err := net.Listen("unix", sockPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	cookie, err := daemon.GenerateCookie()
	require.NoError(t, err)

	srv := daemon.New(l, cookie, logging.New(testWriter{t}, logrus.DebugLevel))
	go func() { _ = srv.Serve() }()

	p := &Prober{Network: "unix", Addr: sockPath, Cookie: cookie}
	assert.True(t, p.Reachable())
}

func TestProberCachesNegativeResult(t *testing.T) {
	// White-box: drive the cache fields directly rather than relying on
	// dial-timing, which varies too much across sandboxes to assert on.
	p := &Prober{Network: "unix", Addr: filepath.Join(t.TempDir(), "nothing.sock"), Cookie: []byte("x")}
	p.hasFailed = true
	p.lastFailedAt = time.Now()

	assert.False(t, p.Reachable(), "a recent failure must short-circuit without redialing")

	p.lastFailedAt = time.Now().Add(-(negativeCacheTTL + time.Second))
	assert.False(t, p.Reachable(), "dialing a missing socket still fails once the cache expires")
}

func TestProberRejectsWrongCookie(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "forkerd.sock")
	l, err := net.Listen("unix", sockPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	cookie, err := daemon.GenerateCookie()
	require.NoError(t, err)

	srv := daemon.New(l, cookie, logging.New(testWriter{t}, logrus.DebugLevel))
	go func() { _ = srv.Serve() }()

	p := &Prober{Network: "unix", Addr: sockPath, Cookie: []byte("wrong-cookie-wrong-cookie-wrong")}
	assert.False(t, p.Reachable())
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}
