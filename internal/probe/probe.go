// Package probe reads instantaneous memory usage of a process from the OS.
//
// A query never fails loudly: a process that is gone, a platform without
// accounting, or any OS error all yield "no snapshot". Callers treat that as
// a normal outcome and simply skip the sample.
package probe

import (
	"errors"
	"os"
	"strconv"
)

// ErrUnsupportedPlatform is returned by callers that need a working probe on
// an operating system this package has no implementation for.
var ErrUnsupportedPlatform = errors.New("memory accounting is not supported on this platform")

// PID identifies the process to query. The zero value, Self, refers to the
// calling process.
type PID int

// Self is the sentinel for "the current process".
const Self PID = 0

// ParsePID converts a decimal string to a PID. Anything that is not a
// non-negative integer maps to Self.
func ParsePID(s string) PID {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return Self
	}
	return PID(n)
}

// Resolve returns the OS process id, substituting os.Getpid() for Self.
func (p PID) Resolve() int {
	if p == Self {
		return os.Getpid()
	}
	return int(p)
}

// Snapshot is memory usage at one instant, in bytes.
type Snapshot struct {
	Physical uint64 `json:"physical_bytes"` // resident set size
	Virtual  uint64 `json:"virtual_bytes"`  // reserved address space
}

// PhysicalMiB is the resident size in whole mebibytes.
func (s Snapshot) PhysicalMiB() uint64 { return ToMiB(s.Physical) }

// ToMiB converts bytes to mebibytes with floor division at each step
// (bytes -> KiB -> MiB).
func ToMiB(b uint64) uint64 {
	return b / 1024 / 1024
}

// Probe queries the memory usage of a process.
// Implementations must be safe for concurrent use, including with the
// target process exiting mid-query.
type Probe interface {
	Query(pid PID) (Snapshot, bool)
}

// Func adapts a plain function to the Probe interface.
type Func func(pid PID) (Snapshot, bool)

func (f Func) Query(pid PID) (Snapshot, bool) { return f(pid) }

var defaultProbe = newPlatformProbe()

// Default returns the probe for the running platform. On unsupported
// platforms it returns a probe that never produces a snapshot.
func Default() Probe { return defaultProbe }

// Supported reports whether the running platform exposes per-process memory
// accounting.
func Supported() bool { return platformSupported }

// Query is shorthand for Default().Query(pid).
func Query(pid PID) (Snapshot, bool) { return defaultProbe.Query(pid) }
