package sampler

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Dicklesworthstone/pipemon/internal/errors"
	"github.com/Dicklesworthstone/pipemon/internal/model"
	"github.com/Dicklesworthstone/pipemon/internal/record"
)

// Schedule is the cadence of a periodic producer.
type Schedule struct {
	Samples  int
	Interval time.Duration
}

// RunMemory writes Samples memory frames to out, one per tick. The first
// failing read or write ends the run; frames already written stay written.
func RunMemory(ctx context.Context, src Source, sch Schedule, out io.Writer) error {
	for i := 0; i < sch.Samples; i++ {
		if err := idle(ctx, sch.Interval); err != nil {
			return err
		}
		total, free, err := src.Memory()
		if err != nil {
			return tickError(err, "memory", i)
		}
		sample := model.MemorySample{TotalGB: total, UsedGB: total - free}
		if err := record.Write(out, record.EncodeMemory(sample)); err != nil {
			return writeError(err, "memory")
		}
	}
	return nil
}

// RunCPU writes Samples CPU utilization frames to out. The snapshot taken
// before the first tick seeds the delta window.
func RunCPU(ctx context.Context, src Source, sch Schedule, out io.Writer) error {
	initial, err := src.CPUSnapshot()
	if err != nil {
		return tickError(err, "cpu", -1)
	}

	var delta *UtilizationDelta
	for i := 0; i < sch.Samples; i++ {
		if err := idle(ctx, sch.Interval); err != nil {
			return err
		}
		snap, err := src.CPUSnapshot()
		if err != nil {
			return tickError(err, "cpu", i)
		}
		if delta == nil {
			delta = NewUtilizationDelta(initial, snap)
		} else {
			delta.Slide(snap)
		}
		if err := record.Write(out, record.EncodeFloat(delta.Percent())); err != nil {
			return writeError(err, "cpu")
		}
	}
	return nil
}

// RunMaxFrequency writes a single max-frequency frame.
func RunMaxFrequency(ctx context.Context, src Source, out io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ghz, err := src.MaxFrequencyGHz()
	if err != nil {
		return tickError(err, "max frequency", -1)
	}
	if err := record.Write(out, record.EncodeFloat(ghz)); err != nil {
		return writeError(err, "max frequency")
	}
	return nil
}

// RunCoreCount writes a single core-count frame.
func RunCoreCount(ctx context.Context, src Source, out io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n, err := src.CoreCount()
	if err != nil {
		return tickError(err, "core count", -1)
	}
	if err := record.Write(out, record.EncodeCoreCount(n)); err != nil {
		return writeError(err, "core count")
	}
	return nil
}

func idle(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func tickError(err error, metric string, tick int) error {
	msg := fmt.Sprintf("Failed to read %s", metric)
	if tick >= 0 {
		msg = fmt.Sprintf("%s on tick %d", msg, tick)
	}
	return errors.WrapWithCode(err, errors.ErrSample, msg, "")
}

func writeError(err error, metric string) error {
	return errors.WrapWithCode(err, errors.ErrPipe,
		fmt.Sprintf("Failed to write %s frame to pipe", metric), "")
}
