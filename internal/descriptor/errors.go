package descriptor

import "github.com/forkerproj/forker/internal/forkerr"

// Validation errors, surfaced verbatim to the caller of New (§4.2).
// Each carries forkerr.InvalidDescriptor.
var (
	ErrInvalidArgv     = forkerr.New(forkerr.InvalidDescriptor, "descriptor: argv must not be empty")
	ErrInvalidEnv      = forkerr.New(forkerr.InvalidDescriptor, "descriptor: env_overlay name must not contain '=' or NUL")
	ErrInvalidIdentity = forkerr.New(forkerr.InvalidDescriptor, "descriptor: identity requires a password in a non-daemon context")
)
