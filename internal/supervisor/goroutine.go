package supervisor

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/Dicklesworthstone/pipemon/internal/errors"
	"github.com/Dicklesworthstone/pipemon/internal/logger"
)

// GoroutineSpawner runs each worker on its own goroutine writing to the
// write end of a real OS pipe. The worker's group is its context: Kill
// cancels it, which also reaches anything the worker spawned with it.
type GoroutineSpawner struct {
	log  logger.Logger
	next atomic.Int64
}

// NewGoroutineSpawner returns an in-process spawner.
func NewGoroutineSpawner(log logger.Logger) *GoroutineSpawner {
	return &GoroutineSpawner{log: log}
}

func (s *GoroutineSpawner) Spawn(ctx context.Context, spec Spec) (io.ReadCloser, Handle, error) {
	if spec.Run == nil {
		return nil, nil, errors.New(errors.ErrSpawn,
			fmt.Sprintf("No in-process body for %s worker", spec.Role), "")
	}
	r, w, err := os.Pipe()
	if err != nil {
		return nil, nil, errors.WrapWithCode(err, errors.ErrPipe,
			fmt.Sprintf("Cannot create pipe for %s worker", spec.Role), "")
	}

	wctx, cancel := context.WithCancel(ctx)
	h := &goroutineHandle{
		role:   spec.Role,
		id:     int(s.next.Add(1)),
		cancel: cancel,
		out:    w,
		done:   make(chan struct{}),
	}
	s.log.Debug("starting %s worker #%d in-process", spec.Role, h.id)
	go h.run(wctx, spec.Run)
	return r, h, nil
}

type goroutineHandle struct {
	role   string
	id     int
	cancel context.CancelFunc
	out    *os.File

	closeOnce sync.Once
	done      chan struct{}
	err       error
}

func (h *goroutineHandle) run(ctx context.Context, task Task) {
	defer close(h.done)
	defer h.closeOut()
	defer func() {
		if p := recover(); p != nil {
			h.err = fmt.Errorf("%s worker panicked: %v", h.role, p)
		}
	}()
	h.err = task(ctx, h.out)
}

func (h *goroutineHandle) closeOut() {
	h.closeOnce.Do(func() { _ = h.out.Close() })
}

func (h *goroutineHandle) Role() string { return h.role }
func (h *goroutineHandle) Pid() int     { return h.id }

// Kill cancels the worker's context and closes its write end so a blocked
// write returns immediately.
func (h *goroutineHandle) Kill() error {
	h.cancel()
	h.closeOut()
	return nil
}

func (h *goroutineHandle) Wait() error {
	<-h.done
	h.cancel()
	return h.err
}
