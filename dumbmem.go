// Package dumbmem runs a command and records its memory usage over time.
// The same building blocks used by the dumbmem binary are exposed here for
// embedding.
package dumbmem

import (
	"context"

	cfg "github.com/loykin/dumbmem/internal/config"
	"github.com/loykin/dumbmem/internal/manager"
	"github.com/loykin/dumbmem/internal/metrics"
	"github.com/loykin/dumbmem/internal/probe"
	"github.com/loykin/dumbmem/internal/process"
	"github.com/prometheus/client_golang/prometheus"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type PID = probe.PID

type Snapshot = probe.Snapshot

type Config = manager.Config

type Result = manager.Result

type Status = manager.Status

type Option = manager.Option

type Monitor = manager.Monitor

type StopReason = process.StopReason

// Self refers to the calling process.
const Self = probe.Self

const (
	StopChildExited = process.StopChildExited
	StopInterrupted = process.StopInterrupted
	StopAborted     = process.StopAborted
)

var (
	ErrEmptyCommand        = process.ErrEmptyCommand
	ErrUnsupportedPlatform = probe.ErrUnsupportedPlatform
	ErrTaskPanicked        = manager.ErrTaskPanicked
)

// MemoryStats reports the physical and virtual memory of pid. ok is false
// when the process is gone, is a zombie, or the platform has no accounting.
func MemoryStats(pid PID) (Snapshot, bool) { return probe.Query(pid) }

// ParsePID parses a numeric pid; anything else means Self.
func ParsePID(s string) PID { return probe.ParsePID(s) }

// ToMiB converts bytes to whole mebibytes, rounding down.
func ToMiB(b uint64) uint64 { return probe.ToMiB(b) }

// Supported reports whether memory accounting is available on this platform.
func Supported() bool { return probe.Supported() }

func New(c Config, opts ...Option) (*Monitor, error) { return manager.New(c, opts...) }

func Run(ctx context.Context, c Config, opts ...Option) (Result, error) {
	return manager.Run(ctx, c, opts...)
}

// LoadConfig reads a TOML config file with DUMBMEM_* environment overrides.
func LoadConfig(path string) (*cfg.Config, error) { return cfg.Load(path, nil) }

// Metrics helpers (public facade)

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
func RegisterMetricsDefault() error                 { return metrics.Register(prometheus.DefaultRegisterer) }

var (
	WithLogger         = manager.WithLogger
	WithProbe          = manager.WithProbe
	WithoutSignals     = manager.WithoutSignals
	WithStdio          = manager.WithStdio
	WithMetricsHandler = manager.WithMetricsHandler
)
