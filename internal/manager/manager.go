// Package manager runs one monitored child: it spawns the command, samples
// its memory into the output file and tears everything down on exit or
// interrupt.
package manager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/loykin/dumbmem/internal/history"
	"github.com/loykin/dumbmem/internal/metrics"
	"github.com/loykin/dumbmem/internal/probe"
	"github.com/loykin/dumbmem/internal/process"
	"github.com/loykin/dumbmem/internal/sampler"
	"github.com/loykin/dumbmem/internal/server"
	"golang.org/x/sync/errgroup"
)

// ErrTaskPanicked is returned when a background task panics.
var ErrTaskPanicked = errors.New("background task panicked")

// ErrAlreadyRun is returned by a second call to Monitor.Run.
var ErrAlreadyRun = errors.New("monitor already run")

// Config describes one monitoring run.
type Config struct {
	Command  string
	Interval time.Duration
	Wake     time.Duration
	Output   string
	// MetricsListen enables the status/metrics endpoint when non-empty.
	MetricsListen string
	// MetricsBasePath prefixes the endpoint routes, e.g. "/dumbmem".
	MetricsBasePath string
}

// Result summarizes a finished run.
type Result struct {
	Outcome process.ExitOutcome
	Samples int
	Reason  process.StopReason
}

// Status is the live view served on /status.
type Status struct {
	Command    string             `json:"command"`
	Output     string             `json:"output"`
	Interval   float64            `json:"interval_seconds"`
	Child      *process.Status    `json:"child,omitempty"`
	Samples    int                `json:"samples"`
	LastSample *sampler.Sample    `json:"last_sample,omitempty"`
	Stopped    bool               `json:"stopped"`
	StopReason process.StopReason `json:"stop_reason,omitempty"`
	Interrupts int                `json:"interrupts"`
}

type options struct {
	log     *slog.Logger
	probe   probe.Probe
	signals bool
	metrics http.Handler
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

// Option customizes a Monitor.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.log = l } }

// WithProbe replaces the platform memory probe.
func WithProbe(p probe.Probe) Option { return func(o *options) { o.probe = p } }

// WithoutSignals skips installing OS signal handlers; use Monitor.Interrupt.
func WithoutSignals() Option { return func(o *options) { o.signals = false } }

// WithStdio connects the child's standard streams. Nil streams go to the
// null device. By default the child inherits the monitor's stdio.
func WithStdio(in io.Reader, out, errw io.Writer) Option {
	return func(o *options) { o.stdin, o.stdout, o.stderr = in, out, errw }
}

// WithMetricsHandler sets the handler mounted at /metrics.
func WithMetricsHandler(h http.Handler) Option { return func(o *options) { o.metrics = h } }

// Monitor supervises a single run.
type Monitor struct {
	cfg   Config
	opts  options
	log   *slog.Logger
	stop  *process.StopSignal
	coord *Coordinator

	mu    sync.Mutex
	child *process.Child
	loop  *sampler.Loop

	ran atomic.Bool
}

// New validates cfg and prepares a monitor.
func New(cfg Config, opts ...Option) (*Monitor, error) {
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("invalid interval %v: must be positive", cfg.Interval)
	}
	if cfg.Output == "" {
		return nil, errors.New("output path is required")
	}
	o := options{
		signals: true,
		metrics: metrics.Handler(),
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = slog.Default()
	}
	stop := process.NewStopSignal()
	return &Monitor{
		cfg:   cfg,
		opts:  o,
		log:   o.log,
		stop:  stop,
		coord: NewCoordinator(stop, nil, o.log),
	}, nil
}

// Run is shorthand for New followed by Monitor.Run.
func Run(ctx context.Context, cfg Config, opts ...Option) (Result, error) {
	m, err := New(cfg, opts...)
	if err != nil {
		return Result{}, err
	}
	return m.Run(ctx)
}

// Interrupt behaves like an operator interrupt.
func (m *Monitor) Interrupt() { m.coord.Interrupt() }

// Stop returns the run's stop signal.
func (m *Monitor) Stop() *process.StopSignal { return m.stop }

// Status returns a snapshot of the run.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	child, loop := m.child, m.loop
	m.mu.Unlock()
	st := Status{
		Command:    m.cfg.Command,
		Output:     m.cfg.Output,
		Interval:   m.cfg.Interval.Seconds(),
		Stopped:    m.stop.Fired(),
		StopReason: m.stop.Reason(),
		Interrupts: m.coord.Interrupts(),
	}
	if child != nil {
		cs := child.Status()
		st.Child = &cs
	}
	if loop != nil {
		st.Samples = loop.Count()
		if last, ok := loop.Last(); ok {
			st.LastSample = &last
		}
	}
	return st
}

// Run spawns the command and samples it until it exits, an interrupt
// arrives or ctx is cancelled. Configuration problems are reported before
// anything is spawned or the output file is created. A clean stop returns a
// nil error whatever the child's own exit code.
func (m *Monitor) Run(ctx context.Context) (res Result, err error) {
	if !m.ran.CompareAndSwap(false, true) {
		return Result{}, ErrAlreadyRun
	}
	program, args, err := process.Tokenize(m.cfg.Command)
	if err != nil {
		return Result{}, err
	}
	p := m.opts.probe
	if p == nil {
		if !probe.Supported() {
			return Result{}, probe.ErrUnsupportedPlatform
		}
		p = probe.Default()
	}

	var srv *server.Server
	if m.cfg.MetricsListen != "" {
		h := server.NewRouter(func() any { return m.Status() }, m.opts.metrics, m.cfg.MetricsBasePath).Handler()
		if srv, err = server.Listen(m.cfg.MetricsListen, h, m.log); err != nil {
			return Result{}, err
		}
		defer func() { _ = srv.Close() }()
	}

	sink, err := history.OpenFile(m.cfg.Output)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if m.opts.signals {
		m.coord.Install()
	}
	defer m.coord.Close()
	if m.stop.Fired() {
		m.log.Info("interrupted before spawn", "command", m.cfg.Command)
		return Result{Reason: m.stop.Reason()}, nil
	}

	child := process.New(process.Spec{
		Program: program,
		Args:    args,
		Stdin:   m.opts.stdin,
		Stdout:  m.opts.stdout,
		Stderr:  m.opts.stderr,
	}, m.stop, m.log)
	if err := child.Start(); err != nil {
		return Result{}, err
	}
	metrics.SetChildState("", string(process.StateSpawned))
	m.coord.Attach(child)

	loop, err := sampler.New(sampler.Config{Interval: m.cfg.Interval, Wake: m.cfg.Wake}, child, p, sink, m.stop, m.log)
	if err != nil {
		child.Kill()
		child.Wait()
		return Result{}, err
	}
	m.mu.Lock()
	m.child, m.loop = child, loop
	m.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(m.guard("wait", func() error {
		if o := child.Wait(); o.Err != nil {
			return fmt.Errorf("wait for child: %w", o.Err)
		}
		return nil
	}))
	g.Go(m.guard("sampler", func() error { return loop.Run(gctx) }))
	g.Go(m.guard("watcher", func() error {
		select {
		case <-m.stop.Done():
		case <-gctx.Done():
			reason := process.StopAborted
			if ctx.Err() != nil {
				reason = process.StopInterrupted
			}
			if m.stop.Fire(reason) {
				m.log.Warn("stopping run", "reason", reason)
			}
			child.Kill()
		}
		return nil
	}))
	if srv != nil {
		g.Go(m.guard("server", func() error { return srv.Serve(gctx, m.stop.Done()) }))
	}

	err = g.Wait()
	outcome := child.Wait()
	metrics.SetChildState(string(process.StateSpawned), string(outcome.State))
	res = Result{Outcome: outcome, Samples: loop.Count(), Reason: m.stop.Reason()}
	m.log.Info("monitoring finished",
		"reason", res.Reason, "child_state", outcome.State, "exit_code", outcome.ExitCode,
		"samples", res.Samples, "output", m.cfg.Output)
	return res, err
}

// guard converts a panic in fn into ErrTaskPanicked.
func (m *Monitor) guard(name string, fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				m.log.Error("task panicked", "task", name, "panic", r)
				err = fmt.Errorf("%w: %s: %v", ErrTaskPanicked, name, r)
			}
		}()
		return fn()
	}
}
