//go:build linux

package process

import (
	"os"

	"golang.org/x/sys/unix"
)

// killProcess sends SIGKILL to the child, or to its whole process group when
// it leads one. The caller holds the handle slot, and the wait path does not
// reap before taking it, so the group id still belongs to the child.
func killProcess(p *os.Process, group bool) error {
	if !group {
		return p.Kill()
	}
	if err := unix.Kill(-p.Pid, unix.SIGKILL); err != nil {
		// Group gone; fall back to the leader alone.
		return p.Kill()
	}
	return nil
}
