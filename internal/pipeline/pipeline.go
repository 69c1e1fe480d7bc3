// Package pipeline wires the worker tree together: it knows what each
// worker role runs and drives a whole dashboard run from the top.
package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/Dicklesworthstone/pipemon/internal/consumer"
	"github.com/Dicklesworthstone/pipemon/internal/errors"
	"github.com/Dicklesworthstone/pipemon/internal/supervisor"
)

// Renderer draws the run header and the consumer's updates.
type Renderer interface {
	consumer.Renderer
	Begin(samples int, tick time.Duration)
}

// Run starts the utilization and core-info aggregators for the enabled
// charts, consumes the utilization stream and then the core topology, and
// reaps core-info before utilization. Any failure terminates and reaps both
// aggregators before Run returns it.
func Run(ctx context.Context, env Env, intr consumer.Interrupter, render Renderer) error {
	cfg := env.Config
	log := env.logger()
	if err := cfg.Validate(); err != nil {
		return err
	}

	c, err := consumer.New(consumer.Options{
		Charts:        cfg.Charts,
		Samples:       cfg.Samples,
		MaxSoftMisses: cfg.MaxSoftMisses,
	}, intr, render, log)
	if err != nil {
		return err
	}

	var (
		utilR, coreR io.ReadCloser
		utilH, coreH supervisor.Handle
	)
	fail := func(err error) error {
		supervisor.Abort(log, []io.Closer{utilR, coreR}, utilH, coreH)
		return err
	}

	if cfg.Charts.Utilization() {
		utilR, utilH, err = env.Spawner.Spawn(ctx, env.mustSpec(RoleUtilization))
		if err != nil {
			return fail(err)
		}
	}
	if cfg.Charts.Cores {
		coreR, coreH, err = env.Spawner.Spawn(ctx, env.mustSpec(RoleCoreInfo))
		if err != nil {
			return fail(err)
		}
	}

	render.Begin(cfg.Samples, cfg.Interval())

	if utilR != nil {
		if err := c.Utilization(ctx, utilR); err != nil {
			return fail(err)
		}
	}
	// An interrupt that arrived after the last utilization record is
	// resolved before the topology read, whether or not there is one.
	if err := c.Checkpoint(); err != nil {
		return fail(err)
	}
	if coreR != nil {
		if err := c.Topology(ctx, coreR); err != nil {
			return fail(err)
		}
	}

	if err := supervisor.CloseAll(utilR, coreR); err != nil {
		log.Debug("closing read ends: %v", err)
	}
	if err := supervisor.ReapAll(coreH, utilH); err != nil {
		return fail(err)
	}
	log.Debug("run finished with %d soft misses", c.SoftMisses())
	return nil
}

// IsCancelled reports whether err is a confirmed interactive cancellation.
func IsCancelled(err error) bool {
	return errors.IsCode(err, errors.ErrCancelled)
}
