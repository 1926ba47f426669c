package elevation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forkerproj/forker/internal/descriptor"
	"github.com/forkerproj/forker/internal/forkerr"
)

func TestSelectCurrentIdentityNeedsNoPlan(t *testing.T) {
	plan, err := Select(descriptor.CurrentIdentity, false, false, false)
	require.NoError(t, err)
	assert.Equal(t, Plan{}, plan)
}

func TestSelectPrefersDaemonSetuidWhenPrivileged(t *testing.T) {
	plan, err := Select(descriptor.Identity{Kind: descriptor.UID, Arg: "0"}, true, true, false)
	require.NoError(t, err)
	assert.Equal(t, ViaDaemonSetuid, plan.Mechanism)
}

func TestSelectDowngradeWhenHostAlreadyPrivileged(t *testing.T) {
	plan, err := Select(descriptor.Identity{Kind: descriptor.UID, Arg: "1000"}, false, false, true)
	require.NoError(t, err)
	assert.Equal(t, ViaDowngrade, plan.Mechanism)
}

func TestSelectNoDaemonNoHelperIsUnavailable(t *testing.T) {
	orig := lookPathFunc
	lookPathFunc = func(string) (string, error) { return "", assert.AnError }
	defer func() { lookPathFunc = orig }()

	_, err := Select(descriptor.Identity{Kind: descriptor.UID, Arg: "0"}, false, false, false)
	var fe *forkerr.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, forkerr.ElevationUnavailable, fe.Kind)
}

func TestSelectDaemonUnprivilegedNoHelperIsUnavailable(t *testing.T) {
	orig := lookPathFunc
	lookPathFunc = func(string) (string, error) { return "", assert.AnError }
	defer func() { lookPathFunc = orig }()

	_, err := Select(descriptor.Identity{Kind: descriptor.UID, Arg: "0"}, true, false, false)
	var fe *forkerr.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, forkerr.ElevationUnavailable, fe.Kind)
}

func TestSelectLocalHelperWhenNoDaemon(t *testing.T) {
	orig := lookPathFunc
	lookPathFunc = func(name string) (string, error) {
		if name == "sudo" {
			return "/usr/bin/sudo", nil
		}
		return "", assert.AnError
	}
	defer func() { lookPathFunc = orig }()

	plan, err := Select(descriptor.Identity{Kind: descriptor.UID, Arg: "0"}, false, false, false)
	require.NoError(t, err)
	assert.Equal(t, ViaLocalHelper, plan.Mechanism)
	assert.Equal(t, "/usr/bin/sudo", plan.HelperPath)
}
