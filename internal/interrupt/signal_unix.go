//go:build unix

package interrupt

import (
	"os/signal"
	"syscall"
)

// ignoreStop keeps Ctrl+Z from suspending the dashboard with pipes half drained.
func ignoreStop() {
	signal.Ignore(syscall.SIGTSTP)
}
