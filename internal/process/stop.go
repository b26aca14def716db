package process

import "sync"

// StopReason records which producer fired a StopSignal first.
type StopReason string

const (
	StopNone        StopReason = ""
	StopChildExited StopReason = "child_exited"
	StopInterrupted StopReason = "interrupted"
	StopAborted     StopReason = "aborted"
)

// StopSignal is a single-fire flag observed by any number of goroutines.
// Once fired it stays fired; later Fire calls are no-ops.
type StopSignal struct {
	once   sync.Once
	done   chan struct{}
	mu     sync.Mutex
	reason StopReason
}

func NewStopSignal() *StopSignal {
	return &StopSignal{done: make(chan struct{})}
}

// Fire sets the signal. It reports whether this call was the one that set it.
func (s *StopSignal) Fire(reason StopReason) bool {
	fired := false
	s.once.Do(func() {
		s.mu.Lock()
		s.reason = reason
		s.mu.Unlock()
		close(s.done)
		fired = true
	})
	return fired
}

// Fired reports whether the signal has been set.
func (s *StopSignal) Fired() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Done returns a channel closed when the signal fires.
func (s *StopSignal) Done() <-chan struct{} { return s.done }

// Reason returns the reason passed to the first Fire, or StopNone.
func (s *StopSignal) Reason() StopReason {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}
