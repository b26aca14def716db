//go:build windows

package process

import (
	"os/exec"
	"syscall"
)

// configureSysProcAttr detaches the child from the console's Ctrl+C group so
// interrupts are handled by the monitor alone. An interactive child keeps
// the console group.
func configureSysProcAttr(cmd *exec.Cmd, group bool) {
	if group {
		cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP}
	}
}
