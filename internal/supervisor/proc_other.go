//go:build !unix

package supervisor

import (
	stderrors "errors"
	"os"
	"os/exec"
)

func isolate(cmd *exec.Cmd) {}

// killGroup falls back to killing the single process where process groups
// are unavailable.
func killGroup(p *os.Process) error {
	err := p.Kill()
	if stderrors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}
