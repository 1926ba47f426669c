// Package wire implements the length-prefixed binary frame protocol
// spoken between a forker client and forkerd.
//
// Every frame on the connection has the shape:
//
//	u32 length | u8 kind | payload                  (HELLO, HELLO_OK, HELLO_REJECT, PING, PONG)
//	u32 length | u8 kind | u32 child id | payload   (every other kind)
//
// length counts the bytes of kind, child id (when present) and payload.
// Integers are big-endian. Partial reads are buffered
// by Reader; a single Frame is always delivered atomically to the
// caller.
package wire

import "fmt"

// Kind identifies the purpose of a frame. Values are fixed for wire
// compatibility; never renumber an existing kind.
type Kind uint8

const (
	KindHello Kind = iota + 1
	KindHelloOK
	KindHelloReject
	KindLaunch
	KindLaunched
	KindFailed
	KindStdin
	KindStdout
	KindStderr
	KindStdinClose
	KindKill
	KindExit
	KindPing
	KindPong
	// KindWinch resizes the pty of a running child. Additive to the
	// base protocol (see SPEC_FULL.md Supplemented Features).
	KindWinch
)

func (k Kind) String() string {
	switch k {
	case KindHello:
		return "HELLO"
	case KindHelloOK:
		return "HELLO_OK"
	case KindHelloReject:
		return "HELLO_REJECT"
	case KindLaunch:
		return "LAUNCH"
	case KindLaunched:
		return "LAUNCHED"
	case KindFailed:
		return "FAILED"
	case KindStdin:
		return "STDIN"
	case KindStdout:
		return "STDOUT"
	case KindStderr:
		return "STDERR"
	case KindStdinClose:
		return "STDIN_CLOSE"
	case KindKill:
		return "KILL"
	case KindExit:
		return "EXIT"
	case KindPing:
		return "PING"
	case KindPong:
		return "PONG"
	case KindWinch:
		return "WINCH"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// MaxPayload bounds a single frame's payload. Oversized frames are a
// ProtocolError and close the connection.
const MaxPayload = 1 << 20 // 1 MiB

// ChildID multiplexes concurrent children's data frames within one
// session. Zero is reserved and never assigned to a real child.
type ChildID uint32

// Frame is a fully decoded wire message.
type Frame struct {
	Kind    Kind
	ChildID ChildID
	Payload []byte
}
