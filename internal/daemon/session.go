//go:build linux || darwin || freebsd

package daemon

import (
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	shellquote "github.com/kballard/go-shellquote"
	"golang.org/x/sync/errgroup"

	"github.com/forkerproj/forker/internal/logging"
	"github.com/forkerproj/forker/internal/wire"
)

// session is the per-connection state machine described in
// SPEC_FULL.md §4.4: NEW -> READY -> RUNNING(child) per child, with
// each RUNNING child independently supervised.
type session struct {
	id  uuid.UUID
	log *logging.Logger

	wr      *wire.Writer
	writeMu sync.Mutex

	grace time.Duration

	mu          sync.Mutex
	children    map[wire.ChildID]*child
	nextChildID wire.ChildID
	grp         *errgroup.Group
}

func newSession(wr *wire.Writer, log *logging.Logger, grace time.Duration) *session {
	id := uuid.New()
	return &session{
		id:       id,
		log:      log.With(map[string]any{"session": id.String()}),
		wr:       wr,
		grace:    grace,
		children: make(map[wire.ChildID]*child),
		grp:      &errgroup.Group{},
	}
}

func (s *session) emit(childID wire.ChildID, kind wire.Kind, payload []byte) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.wr.WriteFrame(kind, childID, payload); err != nil {
		s.log.Debugf("write frame %s failed: %v", kind, err)
	}
}

// handleLaunch spawns a child for the LAUNCH frame and replies with
// LAUNCHED or FAILED.
func (s *session) handleLaunch(msg wire.LaunchMessage) {
	s.mu.Lock()
	s.nextChildID++
	id := s.nextChildID
	s.mu.Unlock()

	l := s.log.With(map[string]any{"child": id})
	l.Infof("launching %s", shellquote.Join(msg.Argv...))

	// Hold the writer until the child is registered and LAUNCHED is
	// sent, so no STDOUT/STDERR/EXIT frame for it can go out first.
	s.writeMu.Lock()
	c, err := spawnChild(id, msg, s.grp,
		func(kind wire.Kind, payload []byte) { s.emit(id, kind, payload) },
		func(status int32) {
			s.emit(id, wire.KindExit, wire.ExitMessage{Status: status}.Encode())
			s.mu.Lock()
			delete(s.children, id)
			s.mu.Unlock()
			l.Infof("exited with status %d", status)
		},
	)
	if err != nil {
		s.writeMu.Unlock()
		l.Warnf("launch failed: %v", err)
		s.emit(id, wire.KindFailed, wire.FailedMessage{Reason: err.Error()}.Encode())
		return
	}

	s.mu.Lock()
	s.children[id] = c
	s.mu.Unlock()

	if err := s.wr.WriteFrame(wire.KindLaunched, id, wire.LaunchedMessage{Pid: uint32(c.pid())}.Encode()); err != nil {
		s.log.Debugf("write frame %s failed: %v", wire.KindLaunched, err)
	}
	s.writeMu.Unlock()
}

func (s *session) lookup(id wire.ChildID) *child {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.children[id]
}

func (s *session) handleStdin(id wire.ChildID, data []byte) {
	if c := s.lookup(id); c != nil {
		_ = c.writeStdin(data)
	}
}

func (s *session) handleStdinClose(id wire.ChildID) {
	if c := s.lookup(id); c != nil {
		_ = c.closeStdin()
	}
}

func (s *session) handleKill(id wire.ChildID, sig syscall.Signal) {
	if c := s.lookup(id); c != nil {
		if err := c.signal(sig); err != nil {
			s.log.Debugf("signal child %d: %v", id, err)
		}
	}
}

// close is invoked on connection drop: every surviving child gets
// SIGTERM, then SIGKILL after the grace period (§5 Cancellation).
func (s *session) close() {
	s.mu.Lock()
	children := make([]*child, 0, len(s.children))
	for _, c := range s.children {
		children = append(children, c)
	}
	s.mu.Unlock()

	if len(children) == 0 {
		return
	}

	for _, c := range children {
		_ = c.signal(syscall.SIGTERM)
	}

	time.AfterFunc(s.grace, func() {
		for _, c := range children {
			c.mu.Lock()
			exited := c.exited
			c.mu.Unlock()
			if !exited {
				_ = c.signal(syscall.SIGKILL)
			}
		}
	})
}
