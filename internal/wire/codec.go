package wire

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// ErrProtocol is returned for malformed or oversized frames. The
// connection must be closed on receipt; it is never retried.
var ErrProtocol = errors.New("wire: protocol error")

// perChild reports whether frames of this kind carry a ChildID header
// ahead of their payload. Connection-level frames (HELLO, PING, ...)
// do not; every frame about a spawned process does, so that one
// session can multiplex many concurrent children (see SPEC_FULL.md
// §4.1 / §9 Open Questions).
func perChild(k Kind) bool {
	switch k {
	case KindHello, KindHelloOK, KindHelloReject, KindPing, KindPong:
		return false
	default:
		return true
	}
}

// Reader decodes frames from a duplex byte stream.
type Reader struct {
	r *bufio.Reader
}

// NewReader wraps r for frame decoding.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReaderSize(r, 32*1024)}
}

// ReadFrame blocks until one full frame has been read. A partial
// frame never escapes this call; the next call resumes where the
// previous one left off.
func (rd *Reader) ReadFrame() (Frame, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(rd.r, lenBuf[:]); err != nil {
		return Frame{}, err
	}

	length := binary.BigEndian.Uint32(lenBuf[:])
	if length == 0 || length > MaxPayload+5 {
		return Frame{}, errors.Wrapf(ErrProtocol, "frame length %d out of bounds", length)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(rd.r, body); err != nil {
		return Frame{}, err
	}

	kind := Kind(body[0])
	rest := body[1:]

	f := Frame{Kind: kind}
	if perChild(kind) {
		if len(rest) < 4 {
			return Frame{}, errors.Wrapf(ErrProtocol, "frame %s missing child id", kind)
		}
		f.ChildID = ChildID(binary.BigEndian.Uint32(rest[:4]))
		f.Payload = rest[4:]
	} else {
		f.Payload = rest
	}

	return f, nil
}

// Writer encodes frames onto a duplex byte stream. Writer is not safe
// for concurrent use; callers serialize writes with their own mutex,
// the way internal/daemon and internal/dispatch both do.
type Writer struct {
	w io.Writer
}

// NewWriter wraps w for frame encoding.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteFrame encodes and flushes a single frame. childID is ignored
// for connection-level kinds.
func (wr *Writer) WriteFrame(kind Kind, childID ChildID, payload []byte) error {
	var header []byte
	if perChild(kind) {
		header = make([]byte, 5)
		header[0] = byte(kind)
		binary.BigEndian.PutUint32(header[1:], uint32(childID))
	} else {
		header = []byte{byte(kind)}
	}

	total := len(header) + len(payload)
	if total > MaxPayload+5 {
		return errors.Wrapf(ErrProtocol, "outgoing frame %s too large (%d bytes)", kind, total)
	}

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(total))

	buf := make([]byte, 0, 4+total)
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, header...)
	buf = append(buf, payload...)

	_, err := wr.w.Write(buf)
	return err
}

// --- payload encoding helpers ---

// PutString appends a length-prefixed UTF-8 string.
func PutString(buf []byte, s string) []byte {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(s)))
	buf = append(buf, n[:]...)
	return append(buf, s...)
}

// GetString reads a length-prefixed string from the front of b,
// returning the remainder.
func GetString(b []byte) (string, []byte, error) {
	if len(b) < 4 {
		return "", nil, errors.Wrap(ErrProtocol, "truncated string length")
	}
	n := binary.BigEndian.Uint32(b[:4])
	b = b[4:]
	if uint64(n) > uint64(len(b)) {
		return "", nil, errors.Wrap(ErrProtocol, "truncated string body")
	}
	return string(b[:n]), b[n:], nil
}

// PutStringList appends a count-prefixed sequence of strings.
func PutStringList(buf []byte, ss []string) []byte {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(ss)))
	buf = append(buf, n[:]...)
	for _, s := range ss {
		buf = PutString(buf, s)
	}
	return buf
}

// GetStringList reads a count-prefixed string sequence.
func GetStringList(b []byte) ([]string, []byte, error) {
	if len(b) < 4 {
		return nil, nil, errors.Wrap(ErrProtocol, "truncated string_list count")
	}
	count := binary.BigEndian.Uint32(b[:4])
	b = b[4:]

	out := make([]string, 0, count)
	for i := uint32(0); i < count; i++ {
		var s string
		var err error
		s, b, err = GetString(b)
		if err != nil {
			return nil, nil, err
		}
		out = append(out, s)
	}
	return out, b, nil
}

// PutStringMap appends a count-prefixed sequence of (key, value) pairs.
func PutStringMap(buf []byte, m map[string]string) []byte {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(m)))
	buf = append(buf, n[:]...)
	for k, v := range m {
		buf = PutString(buf, k)
		buf = PutString(buf, v)
	}
	return buf
}

// GetStringMap reads a count-prefixed (key, value) sequence.
func GetStringMap(b []byte) (map[string]string, []byte, error) {
	if len(b) < 4 {
		return nil, nil, errors.Wrap(ErrProtocol, "truncated string_map count")
	}
	count := binary.BigEndian.Uint32(b[:4])
	b = b[4:]

	out := make(map[string]string, count)
	for i := uint32(0); i < count; i++ {
		var k, v string
		var err error
		k, b, err = GetString(b)
		if err != nil {
			return nil, nil, err
		}
		v, b, err = GetString(b)
		if err != nil {
			return nil, nil, err
		}
		out[k] = v
	}
	return out, b, nil
}

// PutBytes appends a length-prefixed raw byte chunk.
func PutBytes(buf []byte, p []byte) []byte {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(p)))
	buf = append(buf, n[:]...)
	return append(buf, p...)
}

// GetBytes reads a length-prefixed raw byte chunk.
func GetBytes(b []byte) ([]byte, []byte, error) {
	if len(b) < 4 {
		return nil, nil, errors.Wrap(ErrProtocol, "truncated bytes length")
	}
	n := binary.BigEndian.Uint32(b[:4])
	b = b[4:]
	if uint64(n) > uint64(len(b)) {
		return nil, nil, errors.Wrap(ErrProtocol, "truncated bytes body")
	}
	return b[:n], b[n:], nil
}

// PutOptString appends an optional string as a presence byte followed
// by the string when present.
func PutOptString(buf []byte, s *string) []byte {
	if s == nil {
		return append(buf, 0)
	}
	buf = append(buf, 1)
	return PutString(buf, *s)
}

// GetOptString reads an optional string.
func GetOptString(b []byte) (*string, []byte, error) {
	if len(b) < 1 {
		return nil, nil, errors.Wrap(ErrProtocol, "truncated optional string flag")
	}
	present := b[0]
	b = b[1:]
	if present == 0 {
		return nil, b, nil
	}
	s, b, err := GetString(b)
	if err != nil {
		return nil, nil, err
	}
	return &s, b, nil
}
