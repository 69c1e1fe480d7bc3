package supervisor

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/Dicklesworthstone/pipemon/internal/errors"
	"github.com/Dicklesworthstone/pipemon/internal/logger"
)

// WorkerCommand is the hidden subcommand a re-executed worker runs.
const WorkerCommand = "worker"

// OutboundFD is the descriptor a re-executed worker writes its records to.
const OutboundFD = 3

// Outbound returns the write end handed to a re-executed worker.
func Outbound() *os.File {
	return os.NewFile(OutboundFD, "pipemon-outbound")
}

// ProcessSpawner re-executes the binary at Path as
// "<Path> worker <role> <args...>" in a new process group, with the write
// end of its pipe as descriptor 3.
type ProcessSpawner struct {
	Path   string
	Stderr io.Writer
	log    logger.Logger
}

// NewProcessSpawner returns a spawner that re-executes path.
func NewProcessSpawner(path string, log logger.Logger) *ProcessSpawner {
	return &ProcessSpawner{Path: path, Stderr: os.Stderr, log: log}
}

func (s *ProcessSpawner) Spawn(ctx context.Context, spec Spec) (io.ReadCloser, Handle, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, nil, errors.WrapWithCode(err, errors.ErrPipe,
			fmt.Sprintf("Cannot create pipe for %s worker", spec.Role), "")
	}

	args := append([]string{WorkerCommand, spec.Role}, spec.Args...)
	cmd := exec.Command(s.Path, args...)
	cmd.ExtraFiles = []*os.File{w}
	cmd.Stderr = s.Stderr
	isolate(cmd)

	if err := cmd.Start(); err != nil {
		_ = ClosePair(r, w)
		return nil, nil, errors.WrapWithCode(err, errors.ErrSpawn,
			fmt.Sprintf("Cannot start %s worker", spec.Role),
			"Check that the pipemon binary is still present at "+s.Path)
	}
	// The child owns the write end now.
	_ = w.Close()

	h := &processHandle{role: spec.Role, cmd: cmd, exited: make(chan struct{})}
	s.log.Debug("started %s worker pid=%d", spec.Role, cmd.Process.Pid)

	go func() {
		select {
		case <-ctx.Done():
			_ = h.Kill()
		case <-h.exited:
		}
	}()
	return r, h, nil
}

type processHandle struct {
	role string
	cmd  *exec.Cmd

	once   sync.Once
	exited chan struct{}
	err    error
}

func (h *processHandle) Role() string { return h.role }
func (h *processHandle) Pid() int     { return h.cmd.Process.Pid }

// Kill sends SIGTERM to the worker's whole process group.
func (h *processHandle) Kill() error {
	return killGroup(h.cmd.Process)
}

func (h *processHandle) Wait() error {
	h.once.Do(func() {
		h.err = h.cmd.Wait()
		close(h.exited)
	})
	return h.err
}
