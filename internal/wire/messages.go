package wire

// LaunchMessage is the decoded LAUNCH frame payload. IOMode and
// IdentityKind are carried as raw wire codes; internal/descriptor maps
// them to its own enums so this package stays independent of the
// descriptor's validation rules.
type LaunchMessage struct {
	Argv         []string
	Cwd          *string
	Env          map[string]string
	IOMode       uint8
	IdentityKind uint8
	IdentityArg  *string
	RedirErr     bool
	PtyRows      uint16
	PtyCols      uint16
	Term         *string
}

// Encode serializes the message body (kind byte and child id are
// added by the caller via Writer.WriteFrame).
func (m LaunchMessage) Encode() []byte {
	buf := make([]byte, 0, 128)
	buf = PutStringList(buf, m.Argv)
	buf = PutOptString(buf, m.Cwd)
	buf = PutStringMap(buf, m.Env)
	buf = append(buf, m.IOMode, m.IdentityKind)
	buf = PutOptString(buf, m.IdentityArg)

	redir := byte(0)
	if m.RedirErr {
		redir = 1
	}
	buf = append(buf, redir)

	var rows, cols [2]byte
	rows[0], rows[1] = byte(m.PtyRows>>8), byte(m.PtyRows)
	cols[0], cols[1] = byte(m.PtyCols>>8), byte(m.PtyCols)
	buf = append(buf, rows[:]...)
	buf = append(buf, cols[:]...)
	buf = PutOptString(buf, m.Term)
	return buf
}

// DecodeLaunchMessage decodes a LAUNCH frame payload.
func DecodeLaunchMessage(b []byte) (LaunchMessage, error) {
	var m LaunchMessage
	var err error

	m.Argv, b, err = GetStringList(b)
	if err != nil {
		return m, err
	}
	m.Cwd, b, err = GetOptString(b)
	if err != nil {
		return m, err
	}
	m.Env, b, err = GetStringMap(b)
	if err != nil {
		return m, err
	}
	if len(b) < 2 {
		return m, ErrProtocol
	}
	m.IOMode, m.IdentityKind = b[0], b[1]
	b = b[2:]

	m.IdentityArg, b, err = GetOptString(b)
	if err != nil {
		return m, err
	}
	if len(b) < 1 {
		return m, ErrProtocol
	}
	m.RedirErr = b[0] != 0
	b = b[1:]

	if len(b) < 4 {
		return m, ErrProtocol
	}
	m.PtyRows = uint16(b[0])<<8 | uint16(b[1])
	m.PtyCols = uint16(b[2])<<8 | uint16(b[3])
	b = b[4:]

	m.Term, _, err = GetOptString(b)
	if err != nil {
		return m, err
	}
	return m, nil
}

// LaunchedMessage is the LAUNCHED frame payload.
type LaunchedMessage struct {
	Pid uint32
}

func (m LaunchedMessage) Encode() []byte {
	buf := make([]byte, 4)
	buf[0] = byte(m.Pid >> 24)
	buf[1] = byte(m.Pid >> 16)
	buf[2] = byte(m.Pid >> 8)
	buf[3] = byte(m.Pid)
	return buf
}

func DecodeLaunchedMessage(b []byte) (LaunchedMessage, error) {
	if len(b) < 4 {
		return LaunchedMessage{}, ErrProtocol
	}
	pid := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	return LaunchedMessage{Pid: pid}, nil
}

// FailedMessage is the FAILED frame payload.
type FailedMessage struct {
	Reason string
	Errno  int32
}

func (m FailedMessage) Encode() []byte {
	buf := PutString(nil, m.Reason)
	e := uint32(m.Errno)
	buf = append(buf, byte(e>>24), byte(e>>16), byte(e>>8), byte(e))
	return buf
}

func DecodeFailedMessage(b []byte) (FailedMessage, error) {
	reason, b, err := GetString(b)
	if err != nil {
		return FailedMessage{}, err
	}
	if len(b) < 4 {
		return FailedMessage{}, ErrProtocol
	}
	errno := int32(uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]))
	return FailedMessage{Reason: reason, Errno: errno}, nil
}

// ExitMessage is the EXIT frame payload.
type ExitMessage struct {
	Status int32
}

func (m ExitMessage) Encode() []byte {
	s := uint32(m.Status)
	return []byte{byte(s >> 24), byte(s >> 16), byte(s >> 8), byte(s)}
}

func DecodeExitMessage(b []byte) (ExitMessage, error) {
	if len(b) < 4 {
		return ExitMessage{}, ErrProtocol
	}
	status := int32(uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]))
	return ExitMessage{Status: status}, nil
}

// KillMessage is the KILL frame payload.
type KillMessage struct {
	Signal int32
}

func (m KillMessage) Encode() []byte {
	s := uint32(m.Signal)
	return []byte{byte(s >> 24), byte(s >> 16), byte(s >> 8), byte(s)}
}

func DecodeKillMessage(b []byte) (KillMessage, error) {
	if len(b) < 4 {
		return KillMessage{}, ErrProtocol
	}
	sig := int32(uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]))
	return KillMessage{Signal: sig}, nil
}

// WinchMessage resizes a running child's pty. Additive to the base
// protocol (SPEC_FULL.md Supplemented Features).
type WinchMessage struct {
	Rows uint16
	Cols uint16
}

func (m WinchMessage) Encode() []byte {
	return []byte{byte(m.Rows >> 8), byte(m.Rows), byte(m.Cols >> 8), byte(m.Cols)}
}

func DecodeWinchMessage(b []byte) (WinchMessage, error) {
	if len(b) < 4 {
		return WinchMessage{}, ErrProtocol
	}
	return WinchMessage{
		Rows: uint16(b[0])<<8 | uint16(b[1]),
		Cols: uint16(b[2])<<8 | uint16(b[3]),
	}, nil
}

// HelloMessage is the HELLO frame payload: the client's cookie.
type HelloMessage struct {
	Cookie []byte
}

func (m HelloMessage) Encode() []byte {
	return PutBytes(nil, m.Cookie)
}

func DecodeHelloMessage(b []byte) (HelloMessage, error) {
	cookie, _, err := GetBytes(b)
	if err != nil {
		return HelloMessage{}, err
	}
	return HelloMessage{Cookie: cookie}, nil
}

// HelloRejectMessage carries the rejection reason.
type HelloRejectMessage struct {
	Reason string
}

func (m HelloRejectMessage) Encode() []byte {
	return PutString(nil, m.Reason)
}

func DecodeHelloRejectMessage(b []byte) (HelloRejectMessage, error) {
	reason, _, err := GetString(b)
	if err != nil {
		return HelloRejectMessage{}, err
	}
	return HelloRejectMessage{Reason: reason}, nil
}
