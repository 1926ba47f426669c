// Package logging wraps logrus the way the teacher's SafeLogger does:
// a small, explicit type instead of logrus's package-level globals, so
// forkerd and the dispatcher never fight over shared logger state.
package logging

import (
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/sirupsen/logrus"
)

// Logger is a thread-safe structured logger. logrus.Logger is already
// safe for concurrent use; this type keeps forker's structured fields
// (the daemon's session and child) on a derived entry via With.
type Logger struct {
	entry *logrus.Entry
}

// New builds a Logger writing to w (colorized when w is a terminal and
// colorable can detect it) at the given level.
func New(w io.Writer, level logrus.Level) *Logger {
	base := logrus.New()
	base.SetOutput(w)
	base.SetLevel(level)
	base.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return &Logger{entry: logrus.NewEntry(base)}
}

// NewConsole builds a Logger writing to stderr with color support
// negotiated the way the teacher's CLI binaries do for Windows-class
// terminals.
func NewConsole(level logrus.Level) *Logger {
	return New(colorable.NewColorable(os.Stderr), level)
}

// With returns a derived Logger carrying additional structured fields.
func (l *Logger) With(fields logrus.Fields) *Logger {
	return &Logger{entry: l.entry.WithFields(fields)}
}

func (l *Logger) Debug(msg string) { l.entry.Debug(msg) }
func (l *Logger) Info(msg string)  { l.entry.Info(msg) }
func (l *Logger) Warn(msg string)  { l.entry.Warn(msg) }
func (l *Logger) Error(msg string) { l.entry.Error(msg) }

func (l *Logger) Debugf(format string, args ...any) { l.entry.Debugf(format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.entry.Infof(format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.entry.Warnf(format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.entry.Errorf(format, args...) }
