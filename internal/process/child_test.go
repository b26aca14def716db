package process

import (
	"errors"
	"math/rand"
	"runtime"
	"sync"
	"testing"
	"time"
)

func requireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("tests require sh/sleep on Unix-like systems")
	}
}

func spawnT(t *testing.T, stop *StopSignal, program string, args ...string) *Child {
	t.Helper()
	c, err := Spawn(Spec{Program: program, Args: args}, stop, nil)
	if err != nil {
		t.Fatalf("spawn %s: %v", program, err)
	}
	return c
}

func waitWithin(t *testing.T, c *Child, d time.Duration) ExitOutcome {
	t.Helper()
	ch := make(chan ExitOutcome, 1)
	go func() { ch <- c.Wait() }()
	select {
	case o := <-ch:
		return o
	case <-time.After(d):
		c.Kill()
		t.Fatalf("child did not finish within %v", d)
		return ExitOutcome{}
	}
}

func TestSpawnNonexistentProgram(t *testing.T) {
	for _, prog := range []string{"/nonexistent/dumbmem-no-such-binary", "dumbmem-no-such-binary-on-path"} {
		stop := NewStopSignal()
		c, err := Spawn(Spec{Program: prog}, stop, nil)
		if c != nil {
			t.Fatalf("expected nil child for %s", prog)
		}
		var se *SpawnError
		if !errors.As(err, &se) {
			t.Fatalf("expected *SpawnError for %s, got %T: %v", prog, err, err)
		}
		if se.Program != prog || se.Unwrap() == nil {
			t.Fatalf("unexpected spawn error: %+v", se)
		}
		if stop.Fired() {
			t.Fatalf("stop signal must not fire when nothing was spawned")
		}
	}
}

func TestPIDPublishedOnStart(t *testing.T) {
	requireUnix(t)
	c := New(Spec{Program: "sleep", Args: []string{"5"}}, nil, nil)
	if _, ok := c.PID(); ok {
		t.Fatalf("pid must not be published before Start")
	}
	if err := c.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer c.Wait()
	defer c.Kill()
	pid, ok := c.PID()
	if !ok || pid <= 0 {
		t.Fatalf("pid not published: %d %v", pid, ok)
	}
	if err := c.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("second Start: %v", err)
	}
	st := c.Status()
	if st.State != StateSpawned || !st.Running || st.PID != pid || st.Program != "sleep" {
		t.Fatalf("unexpected status: %+v", st)
	}
	if st.StartedAt.IsZero() {
		t.Fatalf("start time not recorded")
	}
	if st.ExitCode != -1 {
		t.Fatalf("running child reports exit code %d", st.ExitCode)
	}
}

func TestWaitNaturalExit(t *testing.T) {
	requireUnix(t)
	stop := NewStopSignal()
	c := spawnT(t, stop, "sh", "-c", "exit 3")
	o := waitWithin(t, c, 5*time.Second)
	if o.State != StateExited || o.ExitCode != 3 || o.Err != nil {
		t.Fatalf("unexpected outcome: %+v", o)
	}
	if !stop.Fired() || stop.Reason() != StopChildExited {
		t.Fatalf("stop signal: fired=%v reason=%q", stop.Fired(), stop.Reason())
	}
	// Repeated Wait returns the recorded outcome.
	if again := c.Wait(); again != o {
		t.Fatalf("second Wait = %+v, want %+v", again, o)
	}
}

func TestKillAfterNaturalExitIsNoop(t *testing.T) {
	requireUnix(t)
	c := spawnT(t, nil, "sleep", "0.1")
	o := waitWithin(t, c, 5*time.Second)
	if o.State != StateExited || o.ExitCode != 0 {
		t.Fatalf("child should exit cleanly, got %+v", o)
	}
	if c.Kill() {
		t.Fatalf("Kill after natural exit must not issue a kill")
	}
	if st := c.Status(); st.State != StateExited || st.Running || st.StoppedAt.IsZero() || st.ExitCode != 0 {
		t.Fatalf("unexpected status after exit: %+v", st)
	}
}

func TestKillRunningChild(t *testing.T) {
	requireUnix(t)
	stop := NewStopSignal()
	c := spawnT(t, stop, "sleep", "30")
	if !c.Kill() {
		t.Fatalf("first Kill should issue a kill")
	}
	if c.Kill() {
		t.Fatalf("second Kill must be a no-op")
	}
	// Killed but not yet reaped: no exit code may be reported.
	if st := c.Status(); st.State != StateKilled || st.Running || st.ExitCode != -1 {
		t.Fatalf("unexpected status before reaping: %+v", st)
	}
	o := waitWithin(t, c, 5*time.Second)
	if o.State != StateKilled || o.ExitCode != -1 {
		t.Fatalf("unexpected outcome after kill: %+v", o)
	}
	if st := c.Status(); st.ExitCode != -1 || st.StoppedAt.IsZero() {
		t.Fatalf("unexpected status after reaping: %+v", st)
	}
	if !stop.Fired() {
		t.Fatalf("stop signal should fire when the killed child is reaped")
	}
}

func TestWaitWithoutStart(t *testing.T) {
	c := New(Spec{Program: "sleep"}, nil, nil)
	o := c.Wait()
	if !errors.Is(o.Err, ErrNotStarted) || o.State != StateNotStarted {
		t.Fatalf("unexpected outcome: %+v", o)
	}
	if c.Kill() {
		t.Fatalf("Kill on unstarted child must be a no-op")
	}
}

// Kill and natural exit race; the handle must be consumed exactly once and
// the outcome must agree with whoever consumed it.
func TestKillWaitRace(t *testing.T) {
	requireUnix(t)
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		c := spawnT(t, nil, "sleep", "0.02")
		delay := time.Duration(rng.Intn(40)) * time.Millisecond
		var killed bool
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			time.Sleep(delay)
			killed = c.Kill()
		}()
		o := waitWithin(t, c, 5*time.Second)
		wg.Wait()
		if killed && o.State != StateKilled {
			t.Fatalf("iteration %d: kill issued but outcome %+v", i, o)
		}
		if !killed && o.State != StateExited {
			t.Fatalf("iteration %d: no kill issued but outcome %+v", i, o)
		}
	}
}
