//go:build linux

package process

import (
	"errors"

	"golang.org/x/sys/unix"
)

// blockUntilExited waits for pid to become waitable without reaping it.
func blockUntilExited(pid int) error {
	var info unix.Siginfo
	for {
		err := unix.Waitid(unix.P_PID, pid, &info, unix.WEXITED|unix.WNOWAIT, nil)
		if !errors.Is(err, unix.EINTR) {
			return err
		}
	}
}
