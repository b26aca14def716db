// Package sampler periodically records the memory usage of a process.
package sampler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/loykin/dumbmem/internal/history"
	"github.com/loykin/dumbmem/internal/metrics"
	"github.com/loykin/dumbmem/internal/probe"
)

// DefaultWake is how often the loop wakes to check for cancellation and for
// a due sample. It bounds how long a stop request can go unnoticed.
const DefaultWake = 100 * time.Millisecond

// Target publishes the pid to sample. ok is false until a pid exists.
type Target interface {
	PID() (pid int, ok bool)
}

// Stopper is closed when sampling must end.
type Stopper interface {
	Done() <-chan struct{}
}

// Config controls sampling cadence.
type Config struct {
	Interval time.Duration // time between samples
	Wake     time.Duration // poll period; defaults to DefaultWake, capped at Interval
}

// Sample is the most recent successful sample.
type Sample struct {
	Time     time.Time      `json:"time"`
	Snapshot probe.Snapshot `json:"snapshot"`
	MiB      uint64         `json:"memory_mib"`
}

// Loop samples Target through a Probe and appends to a Sink. The sink is
// written only from the goroutine running Run.
type Loop struct {
	cfg    Config
	target Target
	probe  probe.Probe
	sink   history.Sink
	stop   Stopper
	log    *slog.Logger

	mu      sync.Mutex
	last    Sample
	hasLast bool
	count   int
}

// New validates cfg and builds a loop. log may be nil.
func New(cfg Config, target Target, p probe.Probe, sink history.Sink, stop Stopper, log *slog.Logger) (*Loop, error) {
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("sampling interval must be positive, got %v", cfg.Interval)
	}
	if cfg.Wake <= 0 {
		cfg.Wake = DefaultWake
	}
	if cfg.Wake > cfg.Interval {
		cfg.Wake = cfg.Interval
	}
	if target == nil || p == nil || sink == nil || stop == nil {
		return nil, errors.New("sampler requires a target, probe, sink and stop signal")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Loop{cfg: cfg, target: target, probe: p, sink: sink, stop: stop, log: log}, nil
}

// Run samples until the stop signal fires or ctx is done. The first sample is
// taken one interval after Run starts. It returns a sink error, if any;
// stopping is not an error.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.cfg.Wake)
	defer ticker.Stop()

	next := time.Now().Add(l.cfg.Interval)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-l.stop.Done():
			return nil
		case <-ticker.C:
		}
		// The ticker and the stop signal can be ready together.
		if l.stopped() {
			return nil
		}
		pid, ok := l.target.PID()
		if !ok {
			continue
		}
		now := time.Now()
		if now.Before(next) {
			continue
		}
		next = next.Add(l.cfg.Interval)
		if !next.After(now) {
			// Fell behind (suspended host, slow sink): skip rather than burst.
			next = now.Add(l.cfg.Interval)
		}
		if err := l.sample(pid, now); err != nil {
			return err
		}
	}
}

func (l *Loop) sample(pid int, now time.Time) error {
	snap, ok := l.probe.Query(probe.PID(pid))
	if !ok {
		metrics.IncProbeMiss()
		l.log.Debug("memory snapshot unavailable", "pid", pid)
		return nil
	}
	if l.stopped() {
		return nil
	}
	rec := history.NewRecord(now, snap)
	if err := l.sink.Append(rec); err != nil {
		return err
	}
	metrics.ObserveSample(snap)
	l.mu.Lock()
	l.last = Sample{Time: now, Snapshot: snap, MiB: rec.MemoryMiB}
	l.hasLast = true
	l.count++
	l.mu.Unlock()
	l.log.Debug("sample recorded", "pid", pid, "rss_bytes", snap.Physical, "vms_bytes", snap.Virtual, "mib", rec.MemoryMiB)
	return nil
}

func (l *Loop) stopped() bool {
	select {
	case <-l.stop.Done():
		return true
	default:
		return false
	}
}

// Last returns the most recent sample, if any.
func (l *Loop) Last() (Sample, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last, l.hasLast
}

// Count is the number of samples written.
func (l *Loop) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}
