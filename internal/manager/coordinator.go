package manager

import (
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/loykin/dumbmem/internal/metrics"
	"github.com/loykin/dumbmem/internal/process"
)

// Killer is the part of a child the coordinator needs.
type Killer interface {
	Kill() bool
}

// Coordinator turns operator interrupts into a fired stop signal and a kill
// of the child. It never waits for the child or the sampler.
type Coordinator struct {
	stop *process.StopSignal
	log  *slog.Logger

	mu    sync.Mutex
	child Killer
	count int

	sigCh     chan os.Signal
	quit      chan struct{}
	wg        sync.WaitGroup
	installed bool
	closeOnce sync.Once
}

// NewCoordinator builds a coordinator. child may be nil and attached later.
func NewCoordinator(stop *process.StopSignal, child Killer, log *slog.Logger) *Coordinator {
	if log == nil {
		log = slog.Default()
	}
	return &Coordinator{
		stop:  stop,
		child: child,
		log:   log,
		sigCh: make(chan os.Signal, 2),
		quit:  make(chan struct{}),
	}
}

// Install registers for SIGINT and SIGTERM. Deliveries are handled on one
// goroutine until Close.
func (c *Coordinator) Install() {
	c.mu.Lock()
	if c.installed {
		c.mu.Unlock()
		return
	}
	c.installed = true
	c.mu.Unlock()

	signal.Notify(c.sigCh, os.Interrupt, syscall.SIGTERM)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			select {
			case <-c.quit:
				return
			case sig := <-c.sigCh:
				c.log.Debug("signal received", "signal", sig.String())
				c.Interrupt()
			}
		}
	}()
}

// Attach sets the child to kill. If an interrupt already arrived, the child
// is killed right away.
func (c *Coordinator) Attach(child Killer) {
	c.mu.Lock()
	c.child = child
	pending := c.count > 0
	c.mu.Unlock()
	if pending && child != nil {
		if child.Kill() {
			c.log.Info("child killed on attach after interrupt")
		}
	}
}

// Interrupt fires the stop signal and kills the child. Only the first call
// has an effect; later ones are logged.
func (c *Coordinator) Interrupt() {
	c.mu.Lock()
	c.count++
	n := c.count
	child := c.child
	c.mu.Unlock()
	metrics.IncInterrupt()

	first := c.stop.Fire(process.StopInterrupted)
	killed := false
	if child != nil {
		killed = child.Kill()
	}
	if n > 1 {
		c.log.Info("interrupt already handled", "count", n)
		return
	}
	c.log.Info("interrupt received, stopping", "stop_fired", first, "kill_issued", killed)
}

// Interrupts is the number of interrupts handled.
func (c *Coordinator) Interrupts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// Close unregisters the signal handler.
func (c *Coordinator) Close() {
	c.closeOnce.Do(func() {
		signal.Stop(c.sigCh)
		close(c.quit)
	})
	c.wg.Wait()
}
