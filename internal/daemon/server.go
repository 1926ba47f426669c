//go:build linux || darwin || freebsd

package daemon

import (
	"net"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"github.com/forkerproj/forker/internal/logging"
	"github.com/forkerproj/forker/internal/wire"
)

// DefaultGrace is the delay between SIGTERM and SIGKILL on connection
// drop (§5, default 5s).
const DefaultGrace = 5 * time.Second

// Server accepts client connections, authenticates them with the
// cookie, and runs one session state machine per connection.
type Server struct {
	Listener net.Listener
	Cookie   []byte
	Log      *logging.Logger
	Grace    time.Duration

	rejectCount atomic.Int64
}

// New builds a Server bound to an already-created listener. Listen on
// a unix socket or loopback TCP port before calling New (§6 External
// Interfaces): the choice of transport is the caller's, not the
// daemon's concern.
func New(l net.Listener, cookie []byte, log *logging.Logger) *Server {
	return &Server{Listener: l, Cookie: cookie, Log: log, Grace: DefaultGrace}
}

// Serve runs the accept loop until the listener is closed.
func (s *Server) Serve() error {
	for {
		conn, err := s.Listener.Accept()
		if err != nil {
			return err
		}
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	rd := wire.NewReader(conn)
	wr := wire.NewWriter(conn)

	first, err := rd.ReadFrame()
	if err != nil {
		s.Log.Debugf("hello read failed: %v", err)
		return
	}
	if first.Kind != wire.KindHello {
		s.Log.Warnf("first frame was %s, not HELLO", first.Kind)
		return
	}

	hello, err := wire.DecodeHelloMessage(first.Payload)
	if err != nil {
		s.Log.Debugf("malformed HELLO: %v", err)
		return
	}

	if !CookiesEqual(hello.Cookie, s.Cookie) {
		n := s.rejectCount.Add(1)
		s.Log.Warnf("rejected connection with bad cookie (total rejects: %d)", n)
		if n > 1 {
			time.Sleep(time.Duration(n) * 50 * time.Millisecond) // crude backoff, see DESIGN.md
		}
		_ = wr.WriteFrame(wire.KindHelloReject, 0, wire.HelloRejectMessage{Reason: "bad cookie"}.Encode())
		return
	}

	if err := wr.WriteFrame(wire.KindHelloOK, 0, nil); err != nil {
		return
	}

	grace := s.Grace
	if grace == 0 {
		grace = DefaultGrace
	}

	sess := newSession(wr, s.Log, grace)
	defer sess.close()

	for {
		f, err := rd.ReadFrame()
		if err != nil {
			return
		}

		switch f.Kind {
		case wire.KindLaunch:
			msg, err := wire.DecodeLaunchMessage(f.Payload)
			if err != nil {
				continue
			}
			sess.handleLaunch(msg)

		case wire.KindStdin:
			sess.handleStdin(f.ChildID, f.Payload)

		case wire.KindStdinClose:
			sess.handleStdinClose(f.ChildID)

		case wire.KindKill:
			km, err := wire.DecodeKillMessage(f.Payload)
			if err != nil {
				continue
			}
			sess.handleKill(f.ChildID, syscall.Signal(km.Signal))

		case wire.KindPing:
			sess.emit(f.ChildID, wire.KindPong, nil)

		default:
			// Unknown-to-us but well-framed kinds are ignored rather
			// than closing the connection, so additive kinds (WINCH,
			// which this server does not act on) don't break it.
		}
	}
}

// Probe dials addr and completes a HELLO/HELLO_OK round trip within
// timeout, the reachability check the dispatcher uses (§4.5).
func Probe(network, addr string, cookie []byte, timeout time.Duration) error {
	conn, err := net.DialTimeout(network, addr, timeout)
	if err != nil {
		return errors.Wrap(err, "daemon: probe dial")
	}
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(timeout))

	wr := wire.NewWriter(conn)
	if err := wr.WriteFrame(wire.KindHello, 0, wire.HelloMessage{Cookie: cookie}.Encode()); err != nil {
		return errors.Wrap(err, "daemon: probe hello")
	}

	rd := wire.NewReader(conn)
	f, err := rd.ReadFrame()
	if err != nil {
		return errors.Wrap(err, "daemon: probe read")
	}
	if f.Kind != wire.KindHelloOK {
		return errors.New("daemon: probe rejected")
	}
	return nil
}
