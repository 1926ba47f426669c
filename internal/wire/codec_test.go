package wire

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringRoundTrip(t *testing.T) {
	for _, s := range []string{"", "hello", "utf-8: héllo 世界"} {
		got, rest, err := GetString(PutString(nil, s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
		assert.Empty(t, rest)
	}
}

func TestStringListRoundTrip(t *testing.T) {
	in := []string{"echo", "hello", "world"}
	got, _, err := GetStringList(PutStringList(nil, in))
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestStringMapRoundTrip(t *testing.T) {
	in := map[string]string{"PATH": "/usr/bin", "HOME": "/root"}
	got, _, err := GetStringMap(PutStringMap(nil, in))
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestOptStringRoundTrip(t *testing.T) {
	got, _, err := GetOptString(PutOptString(nil, nil))
	require.NoError(t, err)
	assert.Nil(t, got)

	s := "/tmp"
	got, _, err = GetOptString(PutOptString(nil, &s))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, s, *got)
}

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	r := NewReader(&buf)

	require.NoError(t, w.WriteFrame(KindStdout, ChildID(7), []byte("hello\n")))

	f, err := r.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, KindStdout, f.Kind)
	assert.Equal(t, ChildID(7), f.ChildID)
	assert.Equal(t, []byte("hello\n"), f.Payload)
}

func TestFrameRoundTripConnectionLevel(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	r := NewReader(&buf)

	cookie := []byte{1, 2, 3, 4}
	require.NoError(t, w.WriteFrame(KindHello, 0, HelloMessage{Cookie: cookie}.Encode()))

	f, err := r.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, KindHello, f.Kind)
	assert.Equal(t, ChildID(0), f.ChildID)

	hello, err := DecodeHelloMessage(f.Payload)
	require.NoError(t, err)
	assert.Equal(t, cookie, hello.Cookie)
}

func TestPartialReadsAreBuffered(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteFrame(KindStdin, 1, []byte("partial")))

	full := buf.Bytes()
	pr, pw := io.Pipe()
	go func() {
		for _, b := range full {
			_, _ = pw.Write([]byte{b})
		}
		_ = pw.Close()
	}()

	r := NewReader(pr)
	f, err := r.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, []byte("partial"), f.Payload)
}

func TestOversizedFrameIsProtocolError(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	err := w.WriteFrame(KindStdin, 1, make([]byte, MaxPayload+1))
	require.Error(t, err)
}

func TestLaunchMessageRoundTrip(t *testing.T) {
	cwd := "/home/user"
	idArg := "0"
	term := "xterm-256color"
	in := LaunchMessage{
		Argv:         []string{"id", "-u"},
		Cwd:          &cwd,
		Env:          map[string]string{"LANG": "C.UTF-8"},
		IOMode:       1,
		IdentityKind: 2,
		IdentityArg:  &idArg,
		RedirErr:     true,
		PtyRows:      24,
		PtyCols:      80,
		Term:         &term,
	}

	out, err := DecodeLaunchMessage(in.Encode())
	require.NoError(t, err)
	assert.Equal(t, in.Argv, out.Argv)
	assert.Equal(t, *in.Cwd, *out.Cwd)
	assert.Equal(t, in.Env, out.Env)
	assert.Equal(t, in.IOMode, out.IOMode)
	assert.Equal(t, in.IdentityKind, out.IdentityKind)
	assert.Equal(t, *in.IdentityArg, *out.IdentityArg)
	assert.Equal(t, in.RedirErr, out.RedirErr)
	assert.Equal(t, in.PtyRows, out.PtyRows)
	assert.Equal(t, in.PtyCols, out.PtyCols)
	assert.Equal(t, *in.Term, *out.Term)
}
