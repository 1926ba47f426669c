//go:build linux || darwin || freebsd

package daemon

import (
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/forkerproj/forker/internal/logging"
	"github.com/forkerproj/forker/internal/wire"
)

func startTestServer(t *testing.T) (addr string, cookie []byte) {
	t.Helper()

	sockPath := filepath.Join(t.TempDir(), "forkerd.sock")
	l, err := net.Listen("unix", sockPath)
	require.NoError(t, err)

	cookie, err = GenerateCookie()
	require.NoError(t, err)

	log := logging.New(testWriter{t}, logrus.DebugLevel)
	srv := New(l, cookie, log)
	srv.Grace = 200 * time.Millisecond

	go func() { _ = srv.Serve() }()
	t.Cleanup(func() { _ = l.Close() })

	return sockPath, cookie
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func dialHello(t *testing.T, addr string, cookie []byte) (net.Conn, *wire.Reader, *wire.Writer) {
	t.Helper()
	conn, err := net.Dial("unix", addr)
	require.NoError(t, err)

	wr := wire.NewWriter(conn)
	rd := wire.NewReader(conn)

	require.NoError(t, wr.WriteFrame(wire.KindHello, 0, wire.HelloMessage{Cookie: cookie}.Encode()))
	f, err := rd.ReadFrame()
	require.NoError(t, err)
	require.Equal(t, wire.KindHelloOK, f.Kind)

	return conn, rd, wr
}

func TestDaemonRejectsBadCookie(t *testing.T) {
	addr, _ := startTestServer(t)

	conn, err := net.Dial("unix", addr)
	require.NoError(t, err)
	defer conn.Close()

	wr := wire.NewWriter(conn)
	rd := wire.NewReader(conn)

	require.NoError(t, wr.WriteFrame(wire.KindHello, 0, wire.HelloMessage{Cookie: []byte("wrong")}.Encode()))

	f, err := rd.ReadFrame()
	require.NoError(t, err)
	require.Equal(t, wire.KindHelloReject, f.Kind)

	// connection must be closed; a further read returns EOF/error.
	_, err = rd.ReadFrame()
	require.Error(t, err)
}

func TestDaemonLaunchAndCapture(t *testing.T) {
	addr, cookie := startTestServer(t)
	conn, rd, wr := dialHello(t, addr, cookie)
	defer conn.Close()

	cwd := "/"
	msg := wire.LaunchMessage{
		Argv:   []string{"echo", "hello"},
		Cwd:    &cwd,
		Env:    map[string]string{},
		IOMode: 1, // descriptor.Input
	}
	require.NoError(t, wr.WriteFrame(wire.KindLaunch, 0, msg.Encode()))

	var gotLaunched, gotExit bool
	var stdout []byte

	deadline := time.After(5 * time.Second)
	for !gotExit {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for EXIT")
		default:
		}

		f, err := rd.ReadFrame()
		require.NoError(t, err)

		switch f.Kind {
		case wire.KindLaunched:
			gotLaunched = true
		case wire.KindStdout:
			stdout = append(stdout, f.Payload...)
		case wire.KindExit:
			em, err := wire.DecodeExitMessage(f.Payload)
			require.NoError(t, err)
			require.Equal(t, int32(0), em.Status)
			gotExit = true
		case wire.KindFailed:
			t.Fatalf("unexpected FAILED: %+v", f)
		}
	}

	require.True(t, gotLaunched)
	require.Equal(t, "hello\n", string(stdout))
}

func TestDaemonOrphanCleanup(t *testing.T) {
	addr, cookie := startTestServer(t)
	conn, rd, wr := dialHello(t, addr, cookie)

	msg := wire.LaunchMessage{Argv: []string{"sleep", "60"}, Env: map[string]string{}, IOMode: 3}
	require.NoError(t, wr.WriteFrame(wire.KindLaunch, 0, msg.Encode()))

	f, err := rd.ReadFrame()
	require.NoError(t, err)
	require.Equal(t, wire.KindLaunched, f.Kind)
	lm, err := wire.DecodeLaunchedMessage(f.Payload)
	require.NoError(t, err)
	require.NotZero(t, lm.Pid)

	require.NoError(t, conn.Close())

	// After grace (200ms in this test), the process should be gone.
	time.Sleep(500 * time.Millisecond)
	err = findProcess(int(lm.Pid))
	require.Error(t, err, "expected process to be gone after orphan cleanup")
}
