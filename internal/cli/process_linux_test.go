//go:build linux

package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dicklesworthstone/pipemon/internal/config"
	"github.com/Dicklesworthstone/pipemon/internal/errors"
	"github.com/Dicklesworthstone/pipemon/internal/logger"
	"github.com/Dicklesworthstone/pipemon/internal/model"
	"github.com/Dicklesworthstone/pipemon/internal/sampler"
	"github.com/Dicklesworthstone/pipemon/internal/supervisor"
)

const workerEnv = "PIPEMON_CLI_WORKER"

// TestMain lets the test binary stand in for the pipemon binary when a
// process spawner re-executes it as "<test binary> worker <role> ...".
func TestMain(m *testing.M) {
	if os.Getenv(workerEnv) == "1" && len(os.Args) >= 2 && os.Args[1] == supervisor.WorkerCommand {
		Execute()
		os.Exit(0)
	}
	os.Exit(m.Run())
}

func requireHost(t *testing.T) {
	t.Helper()
	if _, err := sampler.NewHost().CPUSnapshot(); err != nil {
		t.Skipf("host metrics unavailable: %v", err)
	}
}

// procState returns the state letter of pid, or "" once it is gone.
func procState(pid int) (state string, ppid int) {
	data, err := os.ReadFile(filepath.Join("/proc", strconv.Itoa(pid), "stat"))
	if err != nil {
		return "", 0
	}
	// The command name may contain spaces; fields resume after its ')'.
	fields := strings.Fields(string(data[bytes.LastIndexByte(data, ')')+1:]))
	if len(fields) < 2 {
		return "", 0
	}
	ppid, _ = strconv.Atoi(fields[1])
	return fields[0], ppid
}

func childrenOf(parent int) []int {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil
	}
	var pids []int
	for _, e := range entries {
		pid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		if state, ppid := procState(pid); state != "" && ppid == parent {
			pids = append(pids, pid)
		}
	}
	return pids
}

func alive(pid int) bool {
	state, _ := procState(pid)
	return state != "" && state != "Z"
}

func TestRunDashboardProcessMode(t *testing.T) {
	requireHost(t)
	t.Setenv(workerEnv, "1")
	before := logger.Default()
	t.Cleanup(func() { logger.SetDefault(before) })

	cfg := config.Default()
	cfg.Charts = model.ChartSet{CPU: true}
	cfg.Samples = 2
	cfg.TickMicros = 1000
	cfg.InProcess = false
	var stdout bytes.Buffer

	require.NoError(t, runDashboard(context.Background(), cfg, &stdout))
	assert.Contains(t, stdout.String(), "Number of samples: 2, --every 1000 microSecs")
	assert.Contains(t, stdout.String(), "v CPU")
	assert.NotContains(t, stdout.String(), "v Memory")
}

func TestTerminatedAggregatorTakesProducersDown(t *testing.T) {
	requireHost(t)
	t.Setenv(workerEnv, "1")
	t.Setenv(logger.DebugEnv, "")
	exe, err := os.Executable()
	require.NoError(t, err)

	stderr, err := os.CreateTemp(t.TempDir(), "stderr")
	require.NoError(t, err)
	defer stderr.Close()
	s := supervisor.NewProcessSpawner(exe, logger.Noop())
	s.Stderr = stderr

	cfg := config.Default()
	cfg.Charts = model.ChartSet{Memory: true, CPU: true}
	cfg.Samples = 5
	cfg.TickMicros = 60_000_000
	rd, h, err := s.Spawn(context.Background(), supervisor.Spec{Role: "utilization", Args: cfg.Args()})
	require.NoError(t, err)
	defer rd.Close()

	var producers []int
	require.Eventually(t, func() bool {
		producers = childrenOf(h.Pid())
		return len(producers) == 2
	}, 10*time.Second, 20*time.Millisecond, "producers never started")

	require.NoError(t, h.Kill())
	err = supervisor.Reap(h)
	assert.True(t, errors.IsCode(err, errors.ErrChild), "got %v", err)

	for _, pid := range producers {
		pid := pid
		assert.Eventually(t, func() bool { return !alive(pid) }, 5*time.Second, 20*time.Millisecond,
			"producer %d outlived its aggregator", pid)
	}

	out, err := os.ReadFile(stderr.Name())
	require.NoError(t, err)
	assert.Empty(t, string(out), "a terminated worker should exit quietly")
}
