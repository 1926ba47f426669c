package dispatch

import (
	"io"
	"net"
	"sync"

	"github.com/forkerproj/forker/internal/descriptor"
	"github.com/forkerproj/forker/internal/forkerr"
	"github.com/forkerproj/forker/internal/wire"
)

// daemonProcess is a Process backed by a single forkerd connection.
// One connection carries exactly one child here; the wire protocol's
// ChildID header exists for a future multiplexed client (see
// SPEC_FULL.md §9 Open Questions) but this dispatcher keeps the
// simpler one-connection-per-launch shape.
type daemonProcess struct {
	conn net.Conn
	wr   *wire.Writer
	id   wire.ChildID
	pid  int

	stdin *daemonStdin

	stdoutR *io.PipeReader
	stdoutW *io.PipeWriter
	stderrR *io.PipeReader
	stderrW *io.PipeWriter

	exitCh chan exitOutcome
	once   sync.Once
}

type exitOutcome struct {
	status int
	err    error
}

// daemonStdin serializes STDIN frames onto the shared connection
// writer and sends STDIN_CLOSE on Close.
type daemonStdin struct {
	p      *daemonProcess
	mu     sync.Mutex
	closed bool
}

func (s *daemonStdin) Write(b []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, io.ErrClosedPipe
	}
	if err := s.p.wr.WriteFrame(wire.KindStdin, s.p.id, b); err != nil {
		return 0, err
	}
	return len(b), nil
}

func (s *daemonStdin) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.p.wr.WriteFrame(wire.KindStdinClose, s.p.id, nil)
}

func (p *daemonProcess) Stdin() io.WriteCloser {
	if p.stdin == nil {
		return nil
	}
	return p.stdin
}

func (p *daemonProcess) Stdout() io.Reader {
	if p.stdoutR == nil {
		return nil
	}
	return p.stdoutR
}

func (p *daemonProcess) Stderr() io.Reader {
	if p.stderrR == nil {
		return nil
	}
	return p.stderrR
}

func (p *daemonProcess) Pid() int { return p.pid }

func (p *daemonProcess) Wait() (int, error) {
	out := <-p.exitCh
	p.exitCh <- out // allow repeat calls to Wait, matching directProcess
	return out.status, out.err
}

func (p *daemonProcess) Kill(sig int) error {
	if p.stdin != nil {
		// STDIN frames share the connection writer; serialize with them.
		p.stdin.mu.Lock()
		defer p.stdin.mu.Unlock()
	}
	err := p.wr.WriteFrame(wire.KindKill, p.id, wire.KillMessage{Signal: int32(sig)}.Encode())
	if err != nil {
		select {
		case out := <-p.exitCh:
			p.exitCh <- out
			return nil // already exited: idempotent after exit (§4.5)
		default:
		}
	}
	return err
}

// demux reads frames for this connection until EXIT or a connection
// error, feeding stdout/stderr pipes and resolving exitCh exactly once.
func (p *daemonProcess) demux(rd *wire.Reader) {
	finish := func(status int, err error) {
		p.once.Do(func() {
			if p.stdoutW != nil {
				p.stdoutW.CloseWithError(io.EOF)
			}
			if p.stderrW != nil {
				p.stderrW.CloseWithError(io.EOF)
			}
			p.exitCh <- exitOutcome{status: status, err: err}
			_ = p.conn.Close()
		})
	}

	for {
		f, err := rd.ReadFrame()
		if err != nil {
			finish(-1, forkerr.Wrap(forkerr.DaemonUnreachable, err))
			return
		}

		switch f.Kind {
		case wire.KindStdout:
			if p.stdoutW != nil {
				_, _ = p.stdoutW.Write(f.Payload)
			}
		case wire.KindStderr:
			if p.stderrW != nil {
				_, _ = p.stderrW.Write(f.Payload)
			}
		case wire.KindExit:
			em, err := wire.DecodeExitMessage(f.Payload)
			if err != nil {
				finish(-1, forkerr.Wrap(forkerr.ProtocolError, err))
				return
			}
			finish(int(em.Status), nil)
			return
		default:
			// Connection-level frames (PONG, ...) are not expected once a
			// child is running; ignore rather than abort the session.
		}
	}
}

// daemonLaunch dials the daemon, authenticates with cookie, and sends
// a LAUNCH built from d (§4.2 / §6 wire protocol).
func daemonLaunch(network, addr string, cookie []byte, d descriptor.Descriptor) (Process, error) {
	conn, err := net.Dial(network, addr)
	if err != nil {
		return nil, forkerr.Wrap(forkerr.DaemonUnreachable, err)
	}

	rd := wire.NewReader(conn)
	wr := wire.NewWriter(conn)

	if err := wr.WriteFrame(wire.KindHello, 0, wire.HelloMessage{Cookie: cookie}.Encode()); err != nil {
		conn.Close()
		return nil, forkerr.Wrap(forkerr.DaemonUnreachable, err)
	}

	hf, err := rd.ReadFrame()
	if err != nil {
		conn.Close()
		return nil, forkerr.Wrap(forkerr.DaemonUnreachable, err)
	}
	switch hf.Kind {
	case wire.KindHelloOK:
	case wire.KindHelloReject:
		conn.Close()
		rm, _ := wire.DecodeHelloRejectMessage(hf.Payload)
		return nil, forkerr.New(forkerr.DaemonUnreachable, "daemon rejected hello: "+rm.Reason)
	default:
		conn.Close()
		return nil, forkerr.New(forkerr.ProtocolError, "unexpected frame during handshake: "+hf.Kind.String())
	}

	launch := buildLaunchMessage(d)
	if err := wr.WriteFrame(wire.KindLaunch, 0, launch.Encode()); err != nil {
		conn.Close()
		return nil, forkerr.Wrap(forkerr.DaemonUnreachable, err)
	}

	rf, err := rd.ReadFrame()
	if err != nil {
		conn.Close()
		return nil, forkerr.Wrap(forkerr.DaemonUnreachable, err)
	}

	switch rf.Kind {
	case wire.KindFailed:
		conn.Close()
		fm, _ := wire.DecodeFailedMessage(rf.Payload)
		return nil, forkerr.New(forkerr.ExecFailed, fm.Reason)

	case wire.KindLaunched:
		lm, err := wire.DecodeLaunchedMessage(rf.Payload)
		if err != nil {
			conn.Close()
			return nil, forkerr.Wrap(forkerr.ProtocolError, err)
		}

		p := &daemonProcess{
			conn:   conn,
			wr:     wr,
			id:     rf.ChildID,
			pid:    int(lm.Pid),
			exitCh: make(chan exitOutcome, 1),
		}

		mode := d.IOMode()
		if mode != descriptor.Input && mode != descriptor.Sink && mode != descriptor.System {
			p.stdin = &daemonStdin{p: p}
		}
		if mode != descriptor.Output && mode != descriptor.Sink && mode != descriptor.System {
			p.stdoutR, p.stdoutW = io.Pipe()
			if !d.RedirectErrToOut() {
				p.stderrR, p.stderrW = io.Pipe()
			}
		}

		go p.demux(rd)
		return p, nil

	default:
		conn.Close()
		return nil, forkerr.New(forkerr.ProtocolError, "unexpected frame after LAUNCH: "+rf.Kind.String())
	}
}

func buildLaunchMessage(d descriptor.Descriptor) wire.LaunchMessage {
	m := wire.LaunchMessage{
		Argv:         d.Argv(),
		Env:          d.Env(),
		IOMode:       uint8(d.IOMode()),
		IdentityKind: uint8(d.Identity().Kind),
		RedirErr:     d.RedirectErrToOut(),
	}
	if cwd, ok := d.Cwd(); ok {
		m.Cwd = &cwd
	}
	if id := d.Identity(); id.Arg != "" {
		arg := id.Arg
		m.IdentityArg = &arg
	}
	if hints, ok := d.PtyHints(); ok {
		m.PtyRows = hints.Rows
		m.PtyCols = hints.Cols
		if hints.TermName != "" {
			term := hints.TermName
			m.Term = &term
		}
	}
	return m
}
