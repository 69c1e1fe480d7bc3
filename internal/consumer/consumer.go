// Package consumer reads combined utilization records and core topology
// records, validates them against the enabled charts, keeps the rolling
// sample buffers, and hands every accepted state to a Renderer.
package consumer

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"

	"github.com/Dicklesworthstone/pipemon/internal/errors"
	"github.com/Dicklesworthstone/pipemon/internal/logger"
	"github.com/Dicklesworthstone/pipemon/internal/model"
	"github.com/Dicklesworthstone/pipemon/internal/record"
)

// Interrupter is the view of the cancellation coordinator the consumer needs.
type Interrupter interface {
	Pending() bool
	Prompt() (bool, error)
	Interrupts() <-chan struct{}
}

// Renderer draws the dashboard.
type Renderer interface {
	Utilization(memory, cpu []float64, totalGB float64)
	Topology(t model.CoreTopology)
}

// Options sizes a Consumer.
type Options struct {
	Charts        model.ChartSet
	Samples       int
	MaxSoftMisses int
}

// Consumer owns the rolling buffers for one run.
type Consumer struct {
	opts   Options
	intr   Interrupter
	render Renderer
	log    logger.Logger

	memory     *Buffer
	cpu        *Buffer
	totalGB    float64
	softMisses int
	accepted   int
}

// New allocates the rolling buffers. Each holds Samples plus MaxSoftMisses
// values, so a run that tolerates soft misses never reallocates.
func New(opts Options, intr Interrupter, render Renderer, log logger.Logger) (*Consumer, error) {
	if opts.Samples <= 0 || opts.MaxSoftMisses < 0 {
		return nil, errors.New(errors.ErrBuffer,
			fmt.Sprintf("Cannot allocate rolling buffers for %d samples (+%d)", opts.Samples, opts.MaxSoftMisses),
			"Use a positive sample count")
	}
	if log == nil {
		log = logger.Noop()
	}
	capacity := opts.Samples + opts.MaxSoftMisses
	return &Consumer{
		opts:   opts,
		intr:   intr,
		render: render,
		log:    log,
		memory: NewBuffer(capacity),
		cpu:    NewBuffer(capacity),
	}, nil
}

// Memory returns the accepted memory samples (used GB).
func (c *Consumer) Memory() []float64 { return c.memory.Values() }

// CPU returns the accepted CPU utilization samples.
func (c *Consumer) CPU() []float64 { return c.cpu.Values() }

// SoftMisses is the number of reads abandoned because of an interrupt.
func (c *Consumer) SoftMisses() int { return c.softMisses }

// limit is the number of records the run may accept so far.
func (c *Consumer) limit() int {
	return c.opts.Samples + min(c.softMisses, c.opts.MaxSoftMisses)
}

// resolve runs the confirm-exit prompt when an interrupt is pending. It
// returns a CANCELLED error when the user confirmed, and reports whether a
// prompt was shown.
func (c *Consumer) resolve() (bool, error) {
	if !c.intr.Pending() {
		return false, nil
	}
	quit, err := c.intr.Prompt()
	if err != nil {
		c.log.Warn("prompt failed, continuing: %v", err)
	}
	if quit {
		return true, errors.New(errors.ErrCancelled, "Cancelled by user", "")
	}
	return true, nil
}

// Checkpoint resolves an interrupt that is pending between streams. It
// returns a CANCELLED error when the user confirmed quitting.
func (c *Consumer) Checkpoint() error {
	_, err := c.resolve()
	return err
}

// next waits for one frame. ok is false when the wait was abandoned for an
// interrupt and the caller should loop.
func (c *Consumer) next(ctx context.Context, s *record.Stream, what string) (frame []byte, ok bool, err error) {
	frame, err = s.Next(ctx, c.intr.Interrupts())
	switch {
	case err == nil:
		return frame, true, nil
	case stderrors.Is(err, io.EOF):
		return nil, true, io.EOF
	case stderrors.Is(err, record.ErrInterrupted):
		if c.intr.Pending() {
			c.softMisses++
			c.log.Debug("%s read interrupted (soft miss %d)", what, c.softMisses)
		}
		return nil, false, nil
	case ctx.Err() != nil:
		return nil, true, errors.WrapWithCode(err, errors.ErrCancelled,
			fmt.Sprintf("Stopped reading %s records", what), "")
	default:
		return nil, true, errors.WrapWithCode(err, errors.ErrRead,
			fmt.Sprintf("Failed to read %s record", what), "")
	}
}

// Utilization consumes the combined utilization stream until it ends.
// Every accepted record triggers exactly one render.
func (c *Consumer) Utilization(ctx context.Context, r io.Reader) error {
	s := record.NewStream(r, record.UtilizationSize)
	defer s.Close()

	for {
		if prompted, err := c.resolve(); err != nil {
			return err
		} else if prompted {
			continue
		}

		frame, ok, err := c.next(ctx, s, "utilization")
		if err == io.EOF {
			c.log.Debug("utilization stream ended after %d records", c.accepted)
			return nil
		}
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		rec, err := record.DecodeUtilization(frame)
		if err != nil {
			return errors.Wrap(err, "Malformed utilization record")
		}
		if err := c.validate(rec); err != nil {
			return err
		}
		if err := c.accept(rec); err != nil {
			return err
		}
		c.render.Utilization(c.memory.Values(), c.cpu.Values(), c.totalGB)
	}
}

// validate checks the fields of enabled charts only; disabled fields carry
// the sentinel legitimately.
func (c *Consumer) validate(rec model.UtilizationRecord) error {
	if c.opts.Charts.CPU && !(rec.CPUPercent >= 0) {
		return errors.New(errors.ErrValidation,
			fmt.Sprintf("Invalid CPU utilization in record %d: %v", c.accepted+1, rec.CPUPercent), "")
	}
	if c.opts.Charts.Memory && !rec.Memory.Valid() {
		return errors.New(errors.ErrValidation,
			fmt.Sprintf("Invalid memory sample in record %d: total=%v used=%v",
				c.accepted+1, rec.Memory.TotalGB, rec.Memory.UsedGB), "")
	}
	return nil
}

func (c *Consumer) accept(rec model.UtilizationRecord) error {
	if c.accepted >= c.limit() {
		return errors.WrapWithCode(ErrBufferExhausted, errors.ErrBuffer,
			fmt.Sprintf("Received more than %d samples", c.limit()), "")
	}
	if c.opts.Charts.Memory {
		if err := c.memory.Append(rec.Memory.UsedGB); err != nil {
			return errors.WrapWithCode(err, errors.ErrBuffer, "Memory buffer is full", "")
		}
		c.totalGB = rec.Memory.TotalGB
	}
	if c.opts.Charts.CPU {
		if err := c.cpu.Append(rec.CPUPercent); err != nil {
			return errors.WrapWithCode(err, errors.ErrBuffer, "CPU buffer is full", "")
		}
	}
	c.accepted++
	return nil
}

// Topology reads the single core topology record and renders it. A stream
// that ends before any record renders nothing and is not an error.
func (c *Consumer) Topology(ctx context.Context, r io.Reader) error {
	s := record.NewStream(r, record.TopologySize)
	defer s.Close()

	for {
		if prompted, err := c.resolve(); err != nil {
			return err
		} else if prompted {
			continue
		}

		frame, ok, err := c.next(ctx, s, "core topology")
		if err == io.EOF {
			c.log.Debug("core topology stream ended without a record")
			return nil
		}
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		topo, err := record.DecodeTopology(frame)
		if err != nil {
			return errors.Wrap(err, "Malformed core topology record")
		}
		if !topo.Valid() {
			return errors.New(errors.ErrValidation,
				fmt.Sprintf("Invalid core topology: cores=%d freq=%v", topo.Cores, topo.MaxFreqGHz), "")
		}
		c.render.Topology(topo)
		return nil
	}
}
