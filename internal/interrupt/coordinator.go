// Package interrupt turns asynchronous interrupt signals into a flag that the
// pipeline polls at its suspension points, and resolves a pending interrupt
// by asking the user whether to quit.
//
// States are Idle and Pending. A signal moves Idle to Pending; only Reset,
// called after a declined prompt, moves Pending back to Idle.
package interrupt

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/muesli/termenv"
)

// Question is the confirm-exit prompt.
const Question = "Do you want to quit the program? (y/n): "

// Asker shows a question and returns the raw answer line.
type Asker interface {
	Ask(question string) (string, error)
}

// Coordinator owns the process-wide interrupt flag.
type Coordinator struct {
	pending atomic.Bool
	edges   chan struct{}
	asker   Asker
	out     *termenv.Output

	sigs     chan os.Signal
	stopOnce sync.Once
}

// New returns an Idle coordinator. Prompt output (acknowledgments, line
// clearing) goes to out.
func New(asker Asker, out io.Writer) *Coordinator {
	return &Coordinator{
		edges: make(chan struct{}, 1),
		asker: asker,
		out:   termenv.NewOutput(out),
	}
}

// Install routes SIGINT to the coordinator and ignores the terminal stop
// signal for the rest of the process lifetime.
func (c *Coordinator) Install() {
	c.sigs = make(chan os.Signal, 1)
	signal.Notify(c.sigs, os.Interrupt)
	ignoreStop()
	go func() {
		for range c.sigs {
			c.Trigger()
		}
	}()
}

// Stop detaches the coordinator from signal delivery.
func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() {
		if c.sigs != nil {
			signal.Stop(c.sigs)
			close(c.sigs)
		}
	})
}

// Trigger marks an interrupt as pending and wakes one blocked reader.
func (c *Coordinator) Trigger() {
	c.pending.Store(true)
	select {
	case c.edges <- struct{}{}:
	default:
	}
}

// Pending reports whether an interrupt is waiting to be resolved.
func (c *Coordinator) Pending() bool { return c.pending.Load() }

// Reset returns the coordinator to Idle and drops any undelivered wakeup.
func (c *Coordinator) Reset() {
	c.pending.Store(false)
	select {
	case <-c.edges:
	default:
	}
}

// Interrupts fires once per interrupt so a blocked read can give up waiting.
func (c *Coordinator) Interrupts() <-chan struct{} { return c.edges }

// Prompt resolves a pending interrupt. It returns true when the user
// confirmed quitting (answer starting with 'y'); any other answer, including
// a failed read, resumes the run and resets the coordinator.
// Without a pending interrupt it returns false immediately.
func (c *Coordinator) Prompt() (bool, error) {
	if !c.Pending() {
		return false, nil
	}
	answer, err := c.asker.Ask(Question)
	if err == nil && strings.HasPrefix(answer, "y") {
		fmt.Fprintln(c.out, "Exiting...")
		return true, nil
	}

	fmt.Fprintln(c.out, "Continue...")
	c.out.CursorUp(2)
	c.out.ClearLine()
	c.out.CursorDown(1)
	c.out.ClearLine()
	c.Reset()
	return false, nil
}
