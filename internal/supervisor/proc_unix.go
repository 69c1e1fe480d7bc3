//go:build unix

package supervisor

import (
	stderrors "errors"
	"os"
	"os/exec"
	"syscall"
)

// isolate puts the child in a new process group led by itself, so terminal
// signals aimed at the foreground group never reach it.
func isolate(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func killGroup(p *os.Process) error {
	err := syscall.Kill(-p.Pid, syscall.SIGTERM)
	if stderrors.Is(err, syscall.ESRCH) {
		return nil
	}
	return err
}
