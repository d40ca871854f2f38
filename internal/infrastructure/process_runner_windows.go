//go:build windows

package infrastructure

import "os/exec"

// setProcessGroup keeps the default cancel, which kills the direct child.
// WaitDelay bounds the wait on pipes still held by its helpers.
func setProcessGroup(cmd *exec.Cmd) {}
