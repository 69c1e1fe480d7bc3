package aggregator

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/Dicklesworthstone/pipemon/internal/errors"
	"github.com/Dicklesworthstone/pipemon/internal/logger"
	"github.com/Dicklesworthstone/pipemon/internal/model"
	"github.com/Dicklesworthstone/pipemon/internal/record"
	"github.com/Dicklesworthstone/pipemon/internal/supervisor"
)

// OneShot runs the max-frequency and core-count producers and forwards a
// single CoreTopology built from their one record each.
type OneShot struct {
	Spawner   supervisor.Spawner
	Frequency supervisor.Spec
	Cores     supervisor.Spec
	Log       logger.Logger
}

// readOne waits for exactly one frame. A stream that ends first is an error.
func readOne(ctx context.Context, s *record.Stream, role string) ([]byte, error) {
	frame, err := s.Next(ctx, nil)
	if stderrors.Is(err, io.EOF) {
		return nil, errors.New(errors.ErrRead,
			fmt.Sprintf("%s producer ended without a record", role), "")
	}
	if err != nil && ctx.Err() != nil {
		return nil, errors.WrapWithCode(err, errors.ErrCancelled,
			fmt.Sprintf("Stopped reading from %s producer", role), "")
	}
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrRead,
			fmt.Sprintf("Failed to read from %s producer", role), "")
	}
	return frame, nil
}

// Run waits for both producers in either order, writes the topology to out,
// then reaps them.
func (o *OneShot) Run(ctx context.Context, out io.Writer) error {
	log := o.Log
	if log == nil {
		log = logger.Noop()
	}

	freqR, freqH, err := o.Spawner.Spawn(ctx, o.Frequency)
	if err != nil {
		return err
	}
	coresR, coresH, err := o.Spawner.Spawn(ctx, o.Cores)
	if err != nil {
		supervisor.Abort(log, []io.Closer{freqR}, freqH)
		return err
	}
	abort := func() {
		supervisor.Abort(log, []io.Closer{freqR, coresR}, freqH, coresH)
	}

	freqS := record.NewStream(freqR, record.FrequencySize)
	coresS := record.NewStream(coresR, record.CoreCountSize)
	defer freqS.Close()
	defer coresS.Close()

	topo := model.PendingTopology()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		frame, err := readOne(gctx, freqS, o.Frequency.Role)
		if err != nil {
			return err
		}
		topo.MaxFreqGHz, err = record.DecodeFloat(frame)
		return err
	})
	g.Go(func() error {
		frame, err := readOne(gctx, coresS, o.Cores.Role)
		if err != nil {
			return err
		}
		topo.Cores, err = record.DecodeCoreCount(frame)
		return err
	})
	if err := g.Wait(); err != nil {
		abort()
		return err
	}

	if err := record.Write(out, record.EncodeTopology(topo)); err != nil {
		abort()
		return errors.WrapWithCode(err, errors.ErrPipe, "Failed to forward core topology", "")
	}
	log.Debug("forwarded topology: %d cores @ %.2f GHz", topo.Cores, topo.MaxFreqGHz)
	return supervisor.ReapAll(freqH, coresH)
}
