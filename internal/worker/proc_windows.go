//go:build windows

package worker

import "os/exec"

func setProcessGroup(cmd *exec.Cmd) {}

// Windows has no graceful console signal that works reliably for detached
// workers, so both stop paths kill the process outright.
func signalProcess(cmd *exec.Cmd, _ bool) {
	if cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
}
