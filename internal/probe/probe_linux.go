//go:build linux

package probe

import (
	"github.com/prometheus/procfs"
)

const platformSupported = true

// procfsProbe reads /proc/<pid>/stat. A zombie (exited but not yet reaped)
// reports zero RSS, so it is treated as unavailable rather than sampled.
type procfsProbe struct {
	fs  procfs.FS
	err error
}

func newPlatformProbe() Probe {
	fs, err := procfs.NewDefaultFS()
	return &procfsProbe{fs: fs, err: err}
}

func (p *procfsProbe) Query(pid PID) (Snapshot, bool) {
	if p.err != nil {
		return Snapshot{}, false
	}
	id := pid.Resolve()
	if id <= 0 {
		return Snapshot{}, false
	}
	proc, err := p.fs.Proc(id)
	if err != nil {
		return Snapshot{}, false
	}
	st, err := proc.Stat()
	if err != nil {
		return Snapshot{}, false
	}
	switch st.State {
	case "Z", "X", "x":
		return Snapshot{}, false
	}
	rss := st.ResidentMemory()
	if rss < 0 {
		rss = 0
	}
	return Snapshot{Physical: uint64(rss), Virtual: uint64(st.VirtualMemory())}, true
}
