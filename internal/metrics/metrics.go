package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/loykin/dumbmem/internal/probe"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	samplesWritten = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dumbmem",
			Subsystem: "sampler",
			Name:      "samples_total",
			Help:      "Number of samples appended to the output file.",
		},
	)
	probeMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dumbmem",
			Subsystem: "sampler",
			Name:      "probe_misses_total",
			Help:      "Number of due samples skipped because no memory snapshot was available.",
		},
	)
	residentBytes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "dumbmem",
			Subsystem: "child",
			Name:      "resident_memory_bytes",
			Help:      "Resident memory of the supervised process at the last sample.",
		},
	)
	virtualBytes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "dumbmem",
			Subsystem: "child",
			Name:      "virtual_memory_bytes",
			Help:      "Virtual memory of the supervised process at the last sample.",
		},
	)
	interrupts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dumbmem",
			Name:      "interrupts_total",
			Help:      "Number of interrupt signals received.",
		},
	)
	childState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "dumbmem",
			Subsystem: "child",
			Name:      "state",
			Help:      "Lifecycle state of the supervised process (1 = current state).",
		}, []string{"state"},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{samplesWritten, probeMisses, residentBytes, virtualBytes, interrupts, childState}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler serves the default gatherer.
func Handler() http.Handler { return promhttp.Handler() }

// HandlerFor serves a specific gatherer.
func HandlerFor(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Helpers below no-op until Register has succeeded.

func ObserveSample(s probe.Snapshot) {
	if regOK.Load() {
		samplesWritten.Inc()
		residentBytes.Set(float64(s.Physical))
		virtualBytes.Set(float64(s.Virtual))
	}
}

func IncProbeMiss() {
	if regOK.Load() {
		probeMisses.Inc()
	}
}

func IncInterrupt() {
	if regOK.Load() {
		interrupts.Inc()
	}
}

// SetChildState marks state as current and clears the previous one.
func SetChildState(prev, current string) {
	if !regOK.Load() {
		return
	}
	if prev != "" && prev != current {
		childState.WithLabelValues(prev).Set(0)
	}
	childState.WithLabelValues(current).Set(1)
}
