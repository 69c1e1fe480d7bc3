// Package aggregator combines producer streams into the records the
// consumer reads: one utilization record per tick from the memory and CPU
// producers, and a single core topology record from the one-shot producers.
package aggregator

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"

	"github.com/Dicklesworthstone/pipemon/internal/errors"
	"github.com/Dicklesworthstone/pipemon/internal/logger"
	"github.com/Dicklesworthstone/pipemon/internal/model"
	"github.com/Dicklesworthstone/pipemon/internal/record"
	"github.com/Dicklesworthstone/pipemon/internal/supervisor"
)

// Periodic runs the memory and CPU producers and merges their frames tick
// by tick. A nil spec disables that producer; its fields stay at the sentinel.
type Periodic struct {
	Spawner supervisor.Spawner
	Memory  *supervisor.Spec
	CPU     *supervisor.Spec
	// Interrupts abandons a blocked read; nil never fires.
	Interrupts <-chan struct{}
	Log        logger.Logger
}

type input struct {
	role   string
	handle supervisor.Handle
	stream *record.Stream
	apply  func(frame []byte, rec *model.UtilizationRecord) error
}

func applyMemory(frame []byte, rec *model.UtilizationRecord) error {
	m, err := record.DecodeMemory(frame)
	rec.Memory = m
	return err
}

func applyCPU(frame []byte, rec *model.UtilizationRecord) error {
	v, err := record.DecodeFloat(frame)
	rec.CPUPercent = v
	return err
}

// Run spawns the enabled producers and writes one combined record to out
// per tick until every producer stream has ended. On failure every producer
// group is terminated and reaped before Run returns.
func (p *Periodic) Run(ctx context.Context, out io.Writer) error {
	log := p.Log
	if log == nil {
		log = logger.Noop()
	}

	var inputs []*input
	abort := func() {
		closers := make([]io.Closer, 0, len(inputs))
		handles := make([]supervisor.Handle, 0, len(inputs))
		for _, in := range inputs {
			closers = append(closers, in.stream)
			handles = append(handles, in.handle)
		}
		supervisor.Abort(log, closers, handles...)
	}

	for _, want := range []struct {
		spec  *supervisor.Spec
		size  int
		apply func([]byte, *model.UtilizationRecord) error
	}{
		{p.Memory, record.MemorySize, applyMemory},
		{p.CPU, record.CPUSize, applyCPU},
	} {
		if want.spec == nil {
			continue
		}
		r, h, err := p.Spawner.Spawn(ctx, *want.spec)
		if err != nil {
			abort()
			return err
		}
		inputs = append(inputs, &input{
			role:   want.spec.Role,
			handle: h,
			stream: record.NewStream(r, want.size),
			apply:  want.apply,
		})
	}

	for tick := 0; ; tick++ {
		rec, ended, err := p.collect(ctx, inputs, log)
		if err != nil {
			abort()
			return err
		}
		if ended == len(inputs) {
			log.Debug("producers finished after %d ticks", tick)
			break
		}
		if ended > 0 {
			abort()
			return errors.New(errors.ErrRead,
				fmt.Sprintf("Producer streams ended unevenly on tick %d", tick),
				"A producer exited early; run with PIPEMON_DEBUG=1 for details")
		}
		if err := record.Write(out, record.EncodeUtilization(rec)); err != nil {
			abort()
			return errors.WrapWithCode(err, errors.ErrPipe, "Failed to forward utilization record", "")
		}
	}

	handles := make([]supervisor.Handle, 0, len(inputs))
	for _, in := range inputs {
		_ = in.stream.Close()
		handles = append(handles, in.handle)
	}
	return supervisor.ReapAll(handles...)
}

// collect gathers one frame from every input. Frames received before an
// interrupt are kept; only the inputs still missing are read again.
func (p *Periodic) collect(ctx context.Context, inputs []*input, log logger.Logger) (model.UtilizationRecord, int, error) {
	rec := model.PendingUtilization()
	ended := 0
	for i := 0; i < len(inputs); {
		in := inputs[i]
		frame, err := in.stream.Next(ctx, p.Interrupts)
		switch {
		case err == nil:
			if err := in.apply(frame, &rec); err != nil {
				return rec, ended, errors.WrapWithCode(err, errors.ErrRead,
					fmt.Sprintf("Malformed %s frame", in.role), "")
			}
		case stderrors.Is(err, io.EOF):
			ended++
		case stderrors.Is(err, record.ErrInterrupted):
			log.Debug("read from %s interrupted, retrying", in.role)
			continue
		case ctx.Err() != nil:
			return rec, ended, errors.WrapWithCode(err, errors.ErrCancelled,
				fmt.Sprintf("Stopped reading from %s producer", in.role), "")
		default:
			return rec, ended, errors.WrapWithCode(err, errors.ErrRead,
				fmt.Sprintf("Failed to read from %s producer", in.role), "")
		}
		i++
	}
	return rec, ended, nil
}
