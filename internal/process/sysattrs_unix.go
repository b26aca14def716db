//go:build !windows

package process

import (
	"os/exec"
	"syscall"
)

// configureSysProcAttr puts the child in its own process group when group is
// set, so a kill reaches everything it forked (e.g. "sh -c" pipelines). A
// child reading the monitor's terminal must stay in the foreground group or
// the kernel stops it with SIGTTIN.
func configureSysProcAttr(cmd *exec.Cmd, group bool) {
	if group {
		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	}
}
