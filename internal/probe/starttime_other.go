//go:build !linux

package probe

import (
	"math"
	"time"

	gopsproc "github.com/shirou/gopsutil/v4/process"
)

// StartTime returns when the OS started the process, or the zero time when it
// cannot be determined.
func StartTime(pid PID) time.Time {
	id := pid.Resolve()
	if id <= 0 || id > math.MaxInt32 {
		return time.Time{}
	}
	p, err := gopsproc.NewProcess(int32(id))
	if err != nil {
		return time.Time{}
	}
	ms, err := p.CreateTime()
	if err != nil || ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
