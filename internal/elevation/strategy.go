// Package elevation implements the Elevation Strategy (C3): selecting
// and executing the mechanism that runs a process under a requested
// identity, per the four-step ladder in SPEC_FULL.md §4.3.
package elevation

import (
	"os/exec"
	"runtime"

	"github.com/forkerproj/forker/internal/descriptor"
	"github.com/forkerproj/forker/internal/forkerr"
)

// Mechanism names how a Plan will produce the requested identity.
type Mechanism int

const (
	// ViaDaemonSetuid forwards the launch to a privileged daemon,
	// which switches identity after fork and before exec.
	ViaDaemonSetuid Mechanism = iota
	// ViaDaemonHelper asks an unprivileged daemon to shell out to an
	// OS privilege-prompting helper on the caller's behalf.
	ViaDaemonHelper
	// ViaLocalHelper invokes an OS privilege-prompting helper from
	// the client process directly (no daemon involved).
	ViaLocalHelper
	// ViaDowngrade applies setuid/setgid after fork, before exec, to
	// drop privilege rather than gain it.
	ViaDowngrade
)

// Plan is the decided mechanism plus the helper binary to use, when
// applicable.
type Plan struct {
	Mechanism Mechanism
	// HelperPath is the resolved path to an external privilege tool
	// (e.g. sudo, pkexec). Empty for ViaDaemonSetuid and ViaDowngrade.
	HelperPath string
}

// helperPreference is the fixed search order for external
// privilege-prompting helpers (§4.3 "Tie-breaks"). The same order is
// used on every platform.
var helperPreference = []string{"pkexec", "sudo", "doas"}

// lookPathFunc is exec.LookPath, overridable in tests.
var lookPathFunc = exec.LookPath

// findHelper returns the first available helper on PATH, or "" if none.
func findHelper() string {
	for _, name := range helperPreference {
		if path, err := lookPathFunc(name); err == nil {
			return path
		}
	}
	return ""
}

// FindHelper is findHelper, exported for internal/daemon's own
// privileged-vs-helper decision (the daemon makes this call locally
// rather than through Select, which models the client's view).
func FindHelper() string { return findHelper() }

// HostIsPrivileged reports whether the calling process is effectively
// root, i.e. can setuid/setgid without an external helper.
func HostIsPrivileged() bool { return HostPrivileged() }

// HostPrivileged reports whether the current process can switch to an
// arbitrary uid without external help (i.e. it is effectively root).
// Overridable in tests.
var HostPrivileged = defaultHostPrivileged

// Select runs the elevation ladder and returns a Plan, or an error
// from forkerr's taxonomy (ElevationUnavailable, UnsupportedPlatform).
//
//   - daemonReachable/daemonPrivileged describe the daemon the client
//     would otherwise route this launch to; both are false when there
//     is no daemon at all.
func Select(id descriptor.Identity, daemonReachable, daemonPrivileged, hostPrivileged bool) (Plan, error) {
	if id.Kind == descriptor.Current {
		return Plan{}, nil
	}

	if isDowngrade(id, hostPrivileged) {
		return Plan{Mechanism: ViaDowngrade}, nil
	}

	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" && runtime.GOOS != "freebsd" {
		if id.Kind != descriptor.Administrator {
			return Plan{}, forkerr.New(forkerr.UnsupportedPlatform,
				"elevation to a distinct identity other than Administrator is not supported on this platform")
		}
	}

	// Step 1: daemon reachable and already privileged.
	if daemonReachable && daemonPrivileged {
		return Plan{Mechanism: ViaDaemonSetuid}, nil
	}

	// Step 2: daemon reachable but unprivileged — it may shell out to
	// a helper itself, if one exists (checked daemon-side too; this
	// client-side check lets Select fail fast).
	if daemonReachable {
		if helper := findHelper(); helper != "" {
			return Plan{Mechanism: ViaDaemonHelper, HelperPath: helper}, nil
		}
		return Plan{}, forkerr.New(forkerr.ElevationUnavailable,
			"daemon is unprivileged and no elevation helper is available on PATH")
	}

	// Step 3: no daemon — use a local helper.
	helper := findHelper()
	if helper == "" {
		return Plan{}, forkerr.New(forkerr.ElevationUnavailable,
			"no daemon and no elevation helper available on PATH")
	}

	return Plan{Mechanism: ViaLocalHelper, HelperPath: helper}, nil
}

// isDowngrade reports whether id asks for a less-privileged identity
// than the host already has (§4.3 step 4, e.g. the wrapper collaborator
// dropping from root to an unprivileged user).
func isDowngrade(id descriptor.Identity, hostPrivileged bool) bool {
	if !hostPrivileged {
		return false
	}
	return id.Kind == descriptor.UID || id.Kind == descriptor.Username
}
