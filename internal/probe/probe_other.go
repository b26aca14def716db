//go:build !linux && !darwin && !windows && !freebsd

package probe

const platformSupported = false

type unsupportedProbe struct{}

func newPlatformProbe() Probe { return unsupportedProbe{} }

func (unsupportedProbe) Query(PID) (Snapshot, bool) { return Snapshot{}, false }
