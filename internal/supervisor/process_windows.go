//go:build windows

package supervisor

import (
	"os/exec"
)

func configureProcAttr(cmd *exec.Cmd) {}

// Windows has no SIGTERM for console children; both steps kill.
func terminateProcess(cmd *exec.Cmd) error {
	return cmd.Process.Kill()
}

func killProcess(cmd *exec.Cmd) error {
	return cmd.Process.Kill()
}
