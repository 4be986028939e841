//go:build unix

package executor

import (
	"os/exec"
	"syscall"
)

// setProcessGroup runs the command in its own process group so the
// whole script process tree can be killed at once.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// setProcessGroupKill makes context cancellation kill the entire
// process group, not just the direct child. Must run before cmd.Start.
func setProcessGroupKill(cmd *exec.Cmd) {
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
