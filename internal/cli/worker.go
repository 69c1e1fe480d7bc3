package cli

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/pipemon/internal/config"
	"github.com/Dicklesworthstone/pipemon/internal/errors"
	"github.com/Dicklesworthstone/pipemon/internal/interrupt"
	"github.com/Dicklesworthstone/pipemon/internal/logger"
	"github.com/Dicklesworthstone/pipemon/internal/pipeline"
	"github.com/Dicklesworthstone/pipemon/internal/sampler"
	"github.com/Dicklesworthstone/pipemon/internal/supervisor"
)

// workerCmd is what a re-executed child runs. Its records go to the
// outbound descriptor its parent passed in; SIGTERM stops it and, for an
// aggregator, its producers.
var workerCmd = &cobra.Command{
	Use:                supervisor.WorkerCommand + " ROLE [flags]",
	Short:              "Run one sampling worker (internal)",
	Hidden:             true,
	Args:               cobra.MinimumNArgs(1),
	DisableFlagParsing: true,
	SilenceUsage:       true,
	SilenceErrors:      true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorker(cmd.Context(), args[0], args[1:], cmd.ErrOrStderr())
	},
}

func runWorker(ctx context.Context, role string, args []string, stderr io.Writer) error {
	cfg := config.FromFlags(args, stderr)
	log := logger.NewEnvLogger(fmt.Sprintf("[worker %s]", role))
	logger.SetDefault(log)

	out := supervisor.Outbound()
	defer supervisor.Close(out)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM)
	defer stop()

	// A worker never prompts; an interrupt only abandons the read in flight.
	intr := interrupt.New(nil, io.Discard)
	intr.Install()
	defer intr.Stop()

	spawner, err := newSpawner(cfg, log)
	if err != nil {
		return err
	}
	env := pipeline.Env{
		Config:     cfg,
		Source:     sampler.NewHost(),
		Spawner:    spawner,
		Interrupts: intr.Interrupts(),
		Log:        log,
	}
	task, err := env.Task(role)
	if err != nil {
		return err
	}
	log.Debug("running with %v", args)
	return stopped(ctx, role, task(ctx, out))
}

// stopped marks an error that follows a termination request as a
// cancellation, so a worker torn down by its parent exits quietly.
func stopped(ctx context.Context, role string, err error) error {
	if err == nil || ctx.Err() == nil {
		return err
	}
	return errors.WrapWithCode(err, errors.ErrCancelled,
		fmt.Sprintf("%s worker stopped", role), "")
}
