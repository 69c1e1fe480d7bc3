// Package cli holds the pipemon commands: the dashboard itself, the hidden
// worker command re-executed children run, and a config dump.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
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
	"github.com/Dicklesworthstone/pipemon/internal/ui"
)

// rootCmd draws the dashboard. Flags are parsed by the config package so
// that bad input is reported and skipped instead of aborting the run.
var rootCmd = &cobra.Command{
	Use:   "pipemon [samples] [tdelay]",
	Short: "Live memory, CPU and core charts in the terminal",
	Long: `Sample memory and CPU utilization on a fixed tick and draw rolling charts,
followed by the number of cores and their maximum frequency.

Every metric is sampled by its own worker process and streamed back over a pipe.
Press Ctrl+C to be asked whether to quit.

Flags:
  --samples=N          number of samples to draw (default 20)
  --tdelay=MICROS      tick interval in microseconds (default 500000)
  --memory --cpu --cores
                       charts to draw (default: all)
  --max-soft-misses=N  interrupted reads tolerated per run (default 3)
  --in-process         run workers as goroutines instead of processes
  --config=FILE        YAML file with the same settings

Examples:
  pipemon
  pipemon 30 250000
  pipemon --cpu --samples=10 --tdelay=100000`,
	Args:               cobra.ArbitraryArgs,
	DisableFlagParsing: true,
	SilenceUsage:       true,
	SilenceErrors:      true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if wantsHelp(args) {
			return cmd.Help()
		}
		cfg := config.FromFlags(args, cmd.ErrOrStderr())
		return runDashboard(cmd.Context(), cfg, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command and exits 1 on any failure. A confirmed
// cancellation has already been acknowledged on screen and is not repeated.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Default().Debug("exiting on %s error", errors.Code(err))
		if !pipeline.IsCancelled(err) {
			fmt.Fprint(os.Stderr, err)
			if _, ok := err.(*errors.Error); !ok {
				fmt.Fprintln(os.Stderr)
			}
		}
		os.Exit(1)
	}
}

func wantsHelp(args []string) bool {
	for _, a := range args {
		if a == "-h" || a == "--help" {
			return true
		}
	}
	return false
}

// newSpawner picks how workers run: re-executed copies of this binary, or
// goroutines when the run is in-process.
func newSpawner(cfg config.Config, log logger.Logger) (supervisor.Spawner, error) {
	if cfg.InProcess {
		return supervisor.NewGoroutineSpawner(log), nil
	}
	exe, err := os.Executable()
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrSpawn,
			"Cannot locate the pipemon binary", "Run with --in-process")
	}
	return supervisor.NewProcessSpawner(exe, log), nil
}

func runDashboard(ctx context.Context, cfg config.Config, stdout io.Writer) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	log := logger.NewEnvLogger("[pipeline]")
	logger.SetDefault(log)
	ui.CheckHeight(os.Stdout, log)

	spawner, err := newSpawner(cfg, log)
	if err != nil {
		return err
	}

	coord := interrupt.New(interrupt.NewAsker(os.Stdin, stdout), stdout)
	coord.Install()
	defer coord.Stop()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM)
	defer stop()

	env := pipeline.Env{
		Config:  cfg,
		Source:  sampler.NewHost(),
		Spawner: spawner,
		Log:     log,
	}
	return pipeline.Run(ctx, env, coord, ui.NewDashboard(stdout, cfg.Charts, cfg.Samples))
}
