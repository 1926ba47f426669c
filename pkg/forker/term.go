package forker

import (
	"os"

	"golang.org/x/term"
)

// TerminalSize reports the current process's controlling terminal
// geometry, for defaulting PtyHints when the host doesn't have an
// opinion of its own.
func TerminalSize() (rows, cols uint16, ok bool) {
	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0, 0, false
	}
	return uint16(h), uint16(w), true
}

// IsInteractive reports whether stdin is attached to a terminal, the
// signal the Dispatcher's caller uses to decide whether io_mode=System
// (inherited stdio) or io_mode=PTY makes more sense for an interactive
// sub-command.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// DefaultPtyHints builds PtyHints from the current terminal's size,
// falling back to a conventional 80x24 when none is attached (piped
// stdout, CI runners, ...).
func DefaultPtyHints(termName string) PtyHints {
	rows, cols, ok := TerminalSize()
	if !ok {
		rows, cols = 24, 80
	}
	return PtyHints{Rows: rows, Cols: cols, TermName: termName}
}
