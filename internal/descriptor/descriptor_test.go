package descriptor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsEmptyArgv(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrInvalidArgv)
}

func TestNewRejectsBadEnvName(t *testing.T) {
	_, err := New([]string{"true"}, WithEnv(map[string]string{"BAD=NAME": "x"}))
	assert.ErrorIs(t, err, ErrInvalidEnv)
}

func TestNewRejectsFixedPasswordWithoutPassword(t *testing.T) {
	_, err := New([]string{"true"}, WithIdentity(Identity{Kind: FixedPasswordSudo}))
	assert.ErrorIs(t, err, ErrInvalidIdentity)
}

func TestNewDefaults(t *testing.T) {
	d, err := New([]string{"echo", "hi"})
	require.NoError(t, err)
	assert.Equal(t, []string{"echo", "hi"}, d.Argv())
	assert.Equal(t, Default, d.IOMode())
	assert.Equal(t, CurrentIdentity, d.Identity())
	assert.False(t, d.RedirectErrToOut())

	_, hasCwd := d.Cwd()
	assert.False(t, hasCwd)
}

func TestNewAppliesOptions(t *testing.T) {
	d, err := New(
		[]string{"id", "-u"},
		WithCwd("/tmp"),
		WithEnv(map[string]string{"LANG": "C"}),
		WithIOMode(Input),
		WithIdentity(Identity{Kind: UID, Arg: "0"}),
		WithRedirectErrToOut(),
		WithPtyHints(PtyHints{Rows: 24, Cols: 80, TermName: "xterm"}),
	)
	require.NoError(t, err)

	cwd, hasCwd := d.Cwd()
	assert.True(t, hasCwd)
	assert.Equal(t, "/tmp", cwd)
	assert.Equal(t, "C", d.Env()["LANG"])
	assert.Equal(t, Input, d.IOMode())
	assert.Equal(t, Identity{Kind: UID, Arg: "0"}, d.Identity())
	assert.True(t, d.RedirectErrToOut())

	hints, has := d.PtyHints()
	assert.True(t, has)
	assert.Equal(t, uint16(24), hints.Rows)
}

func TestArgvIsCopiedNotAliased(t *testing.T) {
	argv := []string{"echo", "hi"}
	d, err := New(argv)
	require.NoError(t, err)

	argv[0] = "mutated"
	assert.Equal(t, "echo", d.Argv()[0])
}
