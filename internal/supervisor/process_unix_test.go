//go:build unix

package supervisor

import (
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dicklesworthstone/pipemon/internal/errors"
	"github.com/Dicklesworthstone/pipemon/internal/logger"
)

const helperEnv = "PIPEMON_SUPERVISOR_HELPER"

// TestMain lets the test binary stand in for a re-executed worker:
// "<test binary> worker <role>".
func TestMain(m *testing.M) {
	if os.Getenv(helperEnv) == "1" && len(os.Args) >= 3 && os.Args[1] == WorkerCommand {
		os.Exit(runHelper(os.Args[2]))
	}
	os.Exit(m.Run())
}

func runHelper(role string) int {
	out := Outbound()
	defer out.Close()
	switch role {
	case "ok":
		if _, err := out.Write([]byte("frame")); err != nil {
			return 1
		}
		return 0
	case "fail":
		return 3
	case "hang":
		time.Sleep(time.Minute)
		return 0
	}
	return 2
}

func newHelperSpawner(t *testing.T) *ProcessSpawner {
	t.Helper()
	t.Setenv(helperEnv, "1")
	exe, err := os.Executable()
	require.NoError(t, err)
	return NewProcessSpawner(exe, logger.Noop())
}

func TestProcessSpawnerPassesOutboundPipe(t *testing.T) {
	s := newHelperSpawner(t)

	rd, h, err := s.Spawn(context.Background(), Spec{Role: "ok"})
	require.NoError(t, err)
	defer rd.Close()

	data, err := io.ReadAll(rd)
	require.NoError(t, err)
	assert.Equal(t, "frame", string(data))
	assert.NoError(t, Reap(h))
	assert.Greater(t, h.Pid(), 0)
}

func TestProcessSpawnerReportsExitStatus(t *testing.T) {
	s := newHelperSpawner(t)

	rd, h, err := s.Spawn(context.Background(), Spec{Role: "fail"})
	require.NoError(t, err)
	defer rd.Close()

	err = Reap(h)
	assert.True(t, errors.IsCode(err, errors.ErrChild))
}

func TestProcessSpawnerKillsGroup(t *testing.T) {
	s := newHelperSpawner(t)

	rd, h, err := s.Spawn(context.Background(), Spec{Role: "hang"})
	require.NoError(t, err)
	defer rd.Close()

	require.NoError(t, h.Kill())
	assert.Error(t, h.Wait(), "terminated worker is not a clean exit")
	assert.NoError(t, h.Kill(), "killing an exited group is not an error")
}

func TestProcessSpawnerKillsOnContextDone(t *testing.T) {
	s := newHelperSpawner(t)
	ctx, cancel := context.WithCancel(context.Background())

	rd, h, err := s.Spawn(ctx, Spec{Role: "hang"})
	require.NoError(t, err)
	defer rd.Close()

	cancel()
	done := make(chan error, 1)
	go func() { done <- h.Wait() }()
	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("worker outlived its context")
	}
}

func TestProcessSpawnerMissingBinary(t *testing.T) {
	s := NewProcessSpawner("/nonexistent/pipemon", logger.Noop())
	_, _, err := s.Spawn(context.Background(), Spec{Role: "ok"})
	assert.True(t, errors.IsCode(err, errors.ErrSpawn))
}
