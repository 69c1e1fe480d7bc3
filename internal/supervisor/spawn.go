package supervisor

import (
	"context"
	"io"
)

// Task is the body of a worker. It writes its records to out and returns
// nil on success. The spawner owns out and closes it when Task returns.
type Task func(ctx context.Context, out io.Writer) error

// Spec describes one worker.
type Spec struct {
	// Role names the worker, e.g. "cpu" or "utilization".
	Role string
	// Args are the configuration flags a re-executed worker needs.
	Args []string
	// Run is the in-process body.
	Run Task
}

// Handle is a started worker. Each worker is its own group: Kill terminates
// the worker and whatever it started, without touching siblings.
type Handle interface {
	Role() string
	Pid() int
	Kill() error
	Wait() error
}

// Spawner starts a worker and returns the read end of its outbound pipe.
// The caller owns the reader; the spawner never keeps a copy of the write end.
type Spawner interface {
	Spawn(ctx context.Context, spec Spec) (io.ReadCloser, Handle, error)
}
