//go:build windows

package executor

import (
	"os"
	"os/exec"
)

// setProcessGroup is a no-op on Windows; foreground processes have no
// Unix-style process groups.
func setProcessGroup(_ *exec.Cmd) {}

// setProcessGroupKill makes context cancellation terminate the direct
// child. Descendants may outlive it on Windows.
func setProcessGroupKill(cmd *exec.Cmd) {
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Kill)
	}
}
