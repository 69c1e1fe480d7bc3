package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dicklesworthstone/pipemon/internal/config"
	"github.com/Dicklesworthstone/pipemon/internal/errors"
	"github.com/Dicklesworthstone/pipemon/internal/logger"
	"github.com/Dicklesworthstone/pipemon/internal/model"
	"github.com/Dicklesworthstone/pipemon/internal/sampler"
	"github.com/Dicklesworthstone/pipemon/internal/supervisor"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestWantsHelp(t *testing.T) {
	assert.True(t, wantsHelp([]string{"--cpu", "--help"}))
	assert.True(t, wantsHelp([]string{"-h"}))
	assert.False(t, wantsHelp([]string{"--cpu", "10"}))
}

func TestFormatVersion(t *testing.T) {
	assert.Equal(t, "dev", formatVersion("dev"))
	assert.Equal(t, "v1.2.0", formatVersion("1.2.0"))
	assert.Equal(t, "v1.2.0", formatVersion("v1.2.0"))
}

func TestConfigCommand(t *testing.T) {
	stdout, stderr, err := execute(t, "config", "--samples=5", "--cpu", "--bogus")

	require.NoError(t, err)
	assert.Contains(t, stdout, "samples: 5")
	assert.Contains(t, stdout, "cpu: true")
	assert.Contains(t, stdout, "memory: false")
	assert.Equal(t, "Invalid argument: --bogus\n", stderr)
}

func TestRootHelp(t *testing.T) {
	stdout, _, err := execute(t, "--help")

	require.NoError(t, err)
	assert.Contains(t, stdout, "--tdelay=MICROS")
	assert.NotContains(t, stdout, supervisor.WorkerCommand+" ROLE")
}

func TestNewSpawner(t *testing.T) {
	cfg := config.Default()
	cfg.InProcess = true
	s, err := newSpawner(cfg, logger.Noop())
	require.NoError(t, err)
	assert.IsType(t, &supervisor.GoroutineSpawner{}, s)

	cfg.InProcess = false
	s, err = newSpawner(cfg, logger.Noop())
	require.NoError(t, err)
	assert.IsType(t, &supervisor.ProcessSpawner{}, s)
}

func TestRunDashboardValidatesFirst(t *testing.T) {
	cfg := config.Default()
	cfg.Charts = model.ChartSet{}

	err := runDashboard(context.Background(), cfg, &bytes.Buffer{})

	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestRootInProcessRun(t *testing.T) {
	if _, err := sampler.NewHost().CPUSnapshot(); err != nil {
		t.Skipf("host metrics unavailable: %v", err)
	}

	before := logger.Default()
	t.Cleanup(func() { logger.SetDefault(before) })

	stdout, _, err := execute(t, "--in-process", "--cpu", "--memory", "--samples=2", "--tdelay=1000")

	require.NoError(t, err)
	assert.NotSame(t, before, logger.Default())
	assert.Contains(t, stdout, "Number of samples: 2, --every 1000 microSecs")
	assert.Contains(t, stdout, "v CPU")
	assert.Contains(t, stdout, "v Memory")
	assert.NotContains(t, stdout, "Number of Cores")
}

func TestStoppedWorkerIsCancelled(t *testing.T) {
	failed := errors.New(errors.ErrPipe, "Failed to write cpu record", "")
	assert.NoError(t, stopped(context.Background(), "cpu", nil))
	assert.Same(t, failed, stopped(context.Background(), "cpu", failed))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := stopped(ctx, "cpu", failed)
	assert.True(t, errors.IsCode(err, errors.ErrCancelled))
	assert.NoError(t, stopped(ctx, "cpu", nil))
}

func TestVersionCommand(t *testing.T) {
	SetVersionInfo("1.0.0", "abc123", "2026-01-01")
	t.Cleanup(func() { SetVersionInfo("dev", "none", "unknown") })

	stdout, _, err := execute(t, "version")

	require.NoError(t, err)
	assert.Contains(t, stdout, "pipemon v1.0.0")
	assert.Contains(t, stdout, "commit: abc123")
}
