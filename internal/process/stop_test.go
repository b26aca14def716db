package process

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStopSignalFiresOnce(t *testing.T) {
	s := NewStopSignal()
	if s.Fired() {
		t.Fatalf("new signal should not be fired")
	}
	if s.Reason() != StopNone {
		t.Fatalf("unexpected reason %q", s.Reason())
	}
	if !s.Fire(StopInterrupted) {
		t.Fatalf("first Fire should report true")
	}
	if s.Fire(StopChildExited) {
		t.Fatalf("second Fire should report false")
	}
	if !s.Fired() || s.Reason() != StopInterrupted {
		t.Fatalf("fired=%v reason=%q", s.Fired(), s.Reason())
	}
	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatalf("Done channel not closed")
	}
}

func TestStopSignalConcurrentFire(t *testing.T) {
	s := NewStopSignal()
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r := StopChildExited
			if i%2 == 0 {
				r = StopInterrupted
			}
			if s.Fire(r) {
				wins.Add(1)
			}
			_ = s.Fired()
		}(i)
	}
	wg.Wait()
	if wins.Load() != 1 {
		t.Fatalf("expected exactly one winning Fire, got %d", wins.Load())
	}
	if s.Reason() == StopNone {
		t.Fatalf("reason not recorded")
	}
}
