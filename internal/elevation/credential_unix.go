//go:build linux || darwin || freebsd

package elevation

import (
	"os/user"
	"strconv"
	"syscall"

	"github.com/forkerproj/forker/internal/descriptor"
	"github.com/forkerproj/forker/internal/forkerr"
)

// Credential resolves an Identity to a syscall.Credential, suitable
// for exec.Cmd.SysProcAttr. It is used both for ViaDaemonSetuid (the
// daemon switches identity after fork, before exec) and for
// ViaDowngrade (the client does the same when already privileged).
func Credential(id descriptor.Identity) (*syscall.Credential, error) {
	switch id.Kind {
	case descriptor.Current, descriptor.Administrator:
		return nil, nil
	case descriptor.UID:
		uid, err := strconv.ParseUint(id.Arg, 10, 32)
		if err != nil {
			return nil, forkerr.Wrap(forkerr.InvalidDescriptor, err)
		}
		return &syscall.Credential{Uid: uint32(uid), Gid: uint32(uid)}, nil
	case descriptor.Username:
		u, err := user.Lookup(id.Arg)
		if err != nil {
			return nil, forkerr.Wrap(forkerr.ElevationDenied, err)
		}
		uid, err := strconv.ParseUint(u.Uid, 10, 32)
		if err != nil {
			return nil, forkerr.Wrap(forkerr.ElevationDenied, err)
		}
		gid, err := strconv.ParseUint(u.Gid, 10, 32)
		if err != nil {
			return nil, forkerr.Wrap(forkerr.ElevationDenied, err)
		}
		return &syscall.Credential{Uid: uint32(uid), Gid: uint32(gid)}, nil
	case descriptor.FixedPasswordSudo:
		// Handled by the askpass helper path, not a direct setuid.
		return nil, nil
	default:
		return nil, forkerr.New(forkerr.InvalidDescriptor, "unknown identity kind")
	}
}
