// Package forkerr defines forker's closed error taxonomy (§7) as a Go
// type so callers compare kinds with errors.As instead of matching on
// error strings. It is a leaf package: every other forker package may
// import it without creating a cycle, and pkg/forker re-exports it for
// host applications.
package forkerr

import "fmt"

// Kind is one of the error kinds named in SPEC_FULL.md §7.
type Kind int

const (
	InvalidDescriptor Kind = iota
	DaemonUnreachable
	ProtocolError
	ExecFailed
	ElevationDenied
	ElevationUnavailable
	ChildKilledBySignal
	Interrupted
	UnsupportedPlatform
)

func (k Kind) String() string {
	switch k {
	case InvalidDescriptor:
		return "InvalidDescriptor"
	case DaemonUnreachable:
		return "DaemonUnreachable"
	case ProtocolError:
		return "ProtocolError"
	case ExecFailed:
		return "ExecFailed"
	case ElevationDenied:
		return "ElevationDenied"
	case ElevationUnavailable:
		return "ElevationUnavailable"
	case ChildKilledBySignal:
		return "ChildKilledBySignal"
	case Interrupted:
		return "Interrupted"
	case UnsupportedPlatform:
		return "UnsupportedPlatform"
	default:
		return "Unknown"
	}
}

// Error wraps an underlying cause with its forker error kind, plus the
// extra fields a few kinds carry (errno, signal).
type Error struct {
	Kind   Kind
	Err    error
	Errno  int32
	Signal int32
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error with no wrapped cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf("%s", msg)}
}

// Wrap builds an *Error wrapping an existing error.
func Wrap(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// Is reports whether err carries the given Kind, looking through
// wrapped errors the way errors.Is does.
func Is(err error, kind Kind) bool {
	var fe *Error
	for err != nil {
		if e, ok := err.(*Error); ok {
			fe = e
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return fe != nil && fe.Kind == kind
}
