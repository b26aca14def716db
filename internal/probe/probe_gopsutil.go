//go:build darwin || windows || freebsd

package probe

import (
	"math"
	"slices"

	gopsproc "github.com/shirou/gopsutil/v4/process"
)

const platformSupported = true

// gopsutilProbe uses sysctl/libproc (darwin, freebsd) or the process APIs
// (windows) through gopsutil.
type gopsutilProbe struct{}

func newPlatformProbe() Probe { return gopsutilProbe{} }

func (gopsutilProbe) Query(pid PID) (Snapshot, bool) {
	id := pid.Resolve()
	if id <= 0 || id > math.MaxInt32 {
		return Snapshot{}, false
	}
	p, err := gopsproc.NewProcess(int32(id))
	if err != nil {
		return Snapshot{}, false
	}
	// Status is not implemented everywhere; only a positive answer counts.
	if st, err := p.Status(); err == nil && slices.Contains(st, gopsproc.Zombie) {
		return Snapshot{}, false
	}
	mi, err := p.MemoryInfo()
	if err != nil || mi == nil {
		return Snapshot{}, false
	}
	return Snapshot{Physical: mi.RSS, Virtual: mi.VMS}, true
}
