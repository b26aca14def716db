//go:build linux

package probe

import (
	"time"

	"github.com/prometheus/procfs"
	sysconf "github.com/tklauser/go-sysconf"
)

// StartTime returns when the OS started the process, or the zero time when it
// cannot be determined. Resolution is one clock tick.
func StartTime(pid PID) time.Time {
	id := pid.Resolve()
	if id <= 0 {
		return time.Time{}
	}
	fs, err := procfs.NewDefaultFS()
	if err != nil {
		return time.Time{}
	}
	proc, err := fs.Proc(id)
	if err != nil {
		return time.Time{}
	}
	st, err := proc.Stat()
	if err != nil || st.Starttime == 0 {
		return time.Time{}
	}
	// starttime is in clock ticks since boot; btime anchors boot in Unix seconds.
	ks, err := fs.Stat()
	if err != nil || ks.BootTime == 0 {
		return time.Time{}
	}
	clk, err := sysconf.Sysconf(sysconf.SC_CLK_TCK)
	if err != nil || clk <= 0 {
		clk = 100
	}
	return time.Unix(int64(ks.BootTime), 0).Add(ticksToDuration(st.Starttime, uint64(clk)))
}

// ticksToDuration converts clock ticks to a duration without overflowing
// the intermediate product on long uptimes.
func ticksToDuration(ticks, hz uint64) time.Duration {
	secs := ticks / hz
	rem := ticks % hz
	return time.Duration(secs)*time.Second + time.Duration(rem)*time.Second/time.Duration(hz)
}
