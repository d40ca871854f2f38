//go:build !windows

package infrastructure

import (
	"os/exec"
	"syscall"
)

// setProcessGroup starts the tool in its own process group. Cancellation
// kills the whole group, including helpers such as ffmpeg.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
