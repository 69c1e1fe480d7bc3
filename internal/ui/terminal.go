package ui

import (
	"os"

	"golang.org/x/term"

	"github.com/Dicklesworthstone/pipemon/internal/logger"
)

// MinRows is the terminal height the chart layout needs.
const MinRows = 40

// CheckHeight warns when f is a terminal shorter than MinRows.
func CheckHeight(f *os.File, log logger.Logger) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return
	}
	_, rows, err := term.GetSize(fd)
	if err != nil {
		log.Debug("cannot read terminal size: %v", err)
		return
	}
	if rows < MinRows {
		log.Warn("terminal is %d rows tall; charts need at least %d", rows, MinRows)
	}
}
