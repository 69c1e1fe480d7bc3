// Package supervisor starts workers that write fixed-size records to a pipe
// and provides the cleanup helpers every exit path relies on: idempotent
// closing, group termination, and reaping.
package supervisor

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/Dicklesworthstone/pipemon/internal/errors"
	"github.com/Dicklesworthstone/pipemon/internal/logger"
)

// Close closes c, treating a nil closer and an already-closed file as success.
func Close(c io.Closer) error {
	if c == nil {
		return nil
	}
	if f, ok := c.(*os.File); ok && f == nil {
		return nil
	}
	err := c.Close()
	if stderrors.Is(err, os.ErrClosed) {
		return nil
	}
	return err
}

// CloseAll closes every closer and returns the first error.
func CloseAll(closers ...io.Closer) error {
	var first error
	for _, c := range closers {
		if err := Close(c); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// ClosePair closes both ends of a pipe.
func ClosePair(r, w *os.File) error {
	return CloseAll(r, w)
}

// KillGroups terminates the group of every non-nil handle. Groups that have
// already exited are not an error; other failures are logged and skipped.
func KillGroups(log logger.Logger, handles ...Handle) {
	for _, h := range handles {
		if h == nil {
			continue
		}
		if err := h.Kill(); err != nil {
			log.Warn("failed to terminate %s group: %v", h.Role(), err)
		}
	}
}

// Reap waits for h and converts any abnormal exit into a CHILD error.
// A nil handle was never started and reaps cleanly.
func Reap(h Handle) error {
	if h == nil {
		return nil
	}
	if err := h.Wait(); err != nil {
		return errors.WrapWithCode(err, errors.ErrChild,
			fmt.Sprintf("%s worker exited abnormally", h.Role()), "")
	}
	return nil
}

// ReapAll waits for every handle in order and returns the first failure.
func ReapAll(handles ...Handle) error {
	var first error
	for _, h := range handles {
		if err := Reap(h); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Abort is the failure path shared by every tier: close the read ends so
// blocked writers fail, terminate every group, then reap them all without
// looking at their status.
func Abort(log logger.Logger, closers []io.Closer, handles ...Handle) {
	_ = CloseAll(closers...)
	KillGroups(log, handles...)
	for _, h := range handles {
		if err := Reap(h); err != nil {
			log.Debug("reaped %s after abort: %v", h.Role(), err)
		}
	}
}
