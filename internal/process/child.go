package process

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/loykin/dumbmem/internal/probe"
)

// ErrNotStarted is reported by Wait on a child that was never spawned.
var ErrNotStarted = errors.New("child process not started")

// ErrAlreadyStarted is returned by Start when called more than once.
var ErrAlreadyStarted = errors.New("child process already started")

// SpawnError reports that the program could not be located or executed.
type SpawnError struct {
	Program string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %s: %v", e.Program, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// State is the lifecycle state of the supervised child.
type State string

const (
	StateNotStarted State = "not_started"
	StateSpawned    State = "spawned"
	StateExited     State = "exited"
	StateKilled     State = "killed"
)

// Spec describes the program to launch. Nil stdio fields are connected to
// the null device, as with os/exec.
type Spec struct {
	Program string
	Args    []string
	Dir     string
	Env     []string
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
}

// ExitOutcome is what Wait observed. ExitCode is -1 when the child was
// terminated by a signal.
type ExitOutcome struct {
	State    State
	ExitCode int
	Err      error
}

// Status is a point-in-time copy of the child's bookkeeping.
type Status struct {
	State     State     `json:"state"`
	Running   bool      `json:"running"`
	PID       int       `json:"pid"`
	Program   string    `json:"program"`
	Args      []string  `json:"args"`
	StartedAt time.Time `json:"started_at"`
	StoppedAt time.Time `json:"stopped_at"`
	// ExitCode is -1 until Wait has recorded the outcome.
	ExitCode int `json:"exit_code"`
	// ProcessGroup reports whether the child leads its own process group.
	ProcessGroup bool `json:"process_group"`
}

// Child owns one spawned process.
//
// The *os.Process handle lives in a mutex-guarded slot. Whichever of Wait
// (after the child exits on its own) or Kill takes it first decides the
// terminal state; the other finds the slot empty and does nothing to the
// process. On Linux, Wait blocks in waitid(WNOWAIT) and takes the handle
// before reaping, so Kill can never signal a reaped (and possibly reused)
// pid.
type Child struct {
	spec Spec
	stop *StopSignal
	log  *slog.Logger

	mu        sync.Mutex
	cmd       *exec.Cmd
	handle    *os.Process
	pid       int
	group     bool
	state     State
	startedAt time.Time
	stoppedAt time.Time
	outcome   ExitOutcome

	waitOnce sync.Once
}

// New prepares a child without starting it. stop is fired when the child
// exits; log may be nil.
func New(spec Spec, stop *StopSignal, log *slog.Logger) *Child {
	if log == nil {
		log = slog.Default()
	}
	if stop == nil {
		stop = NewStopSignal()
	}
	return &Child{spec: spec, stop: stop, log: log, state: StateNotStarted}
}

// Spawn creates and starts a child in one step.
func Spawn(spec Spec, stop *StopSignal, log *slog.Logger) (*Child, error) {
	c := New(spec, stop, log)
	if err := c.Start(); err != nil {
		return nil, err
	}
	return c, nil
}

// Start launches the process and publishes its pid before returning.
func (c *Child) Start() error {
	c.mu.Lock()
	if c.state != StateNotStarted {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	// #nosec G204 -- running the operator's command is the purpose of this tool
	cmd := exec.Command(c.spec.Program, c.spec.Args...)
	cmd.Dir = c.spec.Dir
	if len(c.spec.Env) > 0 {
		cmd.Env = c.spec.Env
	}
	cmd.Stdin = c.spec.Stdin
	cmd.Stdout = c.spec.Stdout
	cmd.Stderr = c.spec.Stderr
	// A child sharing the monitor's terminal stays in the foreground group.
	group := !onTerminal(c.spec.Stdin)
	configureSysProcAttr(cmd, group)
	if err := cmd.Start(); err != nil {
		c.mu.Unlock()
		return &SpawnError{Program: c.spec.Program, Err: err}
	}
	c.cmd = cmd
	c.handle = cmd.Process
	c.pid = cmd.Process.Pid
	c.group = group
	c.state = StateSpawned
	c.startedAt = time.Now()
	c.mu.Unlock()

	if st := probe.StartTime(probe.PID(c.pid)); !st.IsZero() {
		c.mu.Lock()
		c.startedAt = st
		c.mu.Unlock()
	}
	c.log.Info("child started", "pid", c.pid, "program", c.spec.Program, "args", c.spec.Args, "process_group", group)
	return nil
}

// PID returns the child's process id once it has been published.
func (c *Child) PID() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pid, c.state != StateNotStarted
}

// Wait blocks until the child exits, records the outcome and fires the stop
// signal. Concurrent and repeated calls return the same outcome.
func (c *Child) Wait() ExitOutcome {
	c.waitOnce.Do(c.wait)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcome
}

func (c *Child) wait() {
	c.mu.Lock()
	cmd := c.cmd
	c.mu.Unlock()
	if cmd == nil {
		c.mu.Lock()
		c.outcome = ExitOutcome{State: StateNotStarted, ExitCode: -1, Err: ErrNotStarted}
		c.mu.Unlock()
		return
	}

	exited := blockUntilExited(cmd.Process.Pid) == nil
	var ours bool
	if exited {
		ours = c.take()
	}
	err := cmd.Wait()
	if !exited {
		ours = c.take()
	}

	code := -1
	if cmd.ProcessState != nil {
		code = cmd.ProcessState.ExitCode()
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// A non-zero exit or a signal is an outcome, not a failure to wait.
		err = nil
	}

	c.mu.Lock()
	state := StateKilled
	if ours {
		state = StateExited
	}
	c.state = state
	c.stoppedAt = time.Now()
	c.outcome = ExitOutcome{State: state, ExitCode: code, Err: err}
	c.mu.Unlock()

	c.log.Info("child finished", "pid", cmd.Process.Pid, "state", state, "exit_code", code)
	c.stop.Fire(StopChildExited)
}

// take empties the handle slot on behalf of the wait path.
func (c *Child) take() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handle == nil {
		return false
	}
	c.handle = nil
	return true
}

// Kill terminates the child if it has not already exited. It reports whether
// a kill was issued. Delivery errors are ignored: the process may already be
// on its way out.
func (c *Child) Kill() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	h := c.handle
	if h == nil {
		return false
	}
	c.handle = nil
	c.state = StateKilled
	if err := killProcess(h, c.group); err != nil {
		c.log.Debug("kill delivery failed", "pid", h.Pid, "error", err)
	}
	c.log.Info("child kill requested", "pid", h.Pid)
	return true
}

// Status returns a snapshot of the child's state.
func (c *Child) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	code := -1
	if !c.stoppedAt.IsZero() {
		code = c.outcome.ExitCode
	}
	return Status{
		State:        c.state,
		Running:      c.state == StateSpawned,
		PID:          c.pid,
		Program:      c.spec.Program,
		Args:         append([]string(nil), c.spec.Args...),
		StartedAt:    c.startedAt,
		StoppedAt:    c.stoppedAt,
		ExitCode:     code,
		ProcessGroup: c.group,
	}
}
