package registry

import (
	"sync"
	"time"
)

// Stats accumulates per-handler invocation counters. Handlers run on
// concurrent goroutines, so the calls/errors/average updates are guarded as a
// unit by the mutex; the calls >= errors invariant holds at every snapshot.
type Stats struct {
	mu          sync.Mutex
	calls       int64
	errors      int64
	lastCalled  time.Time
	avgResponse time.Duration
}

// Snapshot is an immutable copy of the counters at one point in time.
type Snapshot struct {
	Calls           int64
	Errors          int64
	LastCalled      time.Time
	AvgResponseTime time.Duration
}

// Snapshot returns a consistent copy of the current counters.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Calls:           s.calls,
		Errors:          s.errors,
		LastCalled:      s.lastCalled,
		AvgResponseTime: s.avgResponse,
	}
}

func (s *Stats) begin(at time.Time) {
	s.mu.Lock()
	s.calls++
	s.lastCalled = at
	s.mu.Unlock()
}

func (s *Stats) succeed(elapsed time.Duration) {
	s.mu.Lock()
	// Incremental running mean; no history is kept.
	s.avgResponse += (elapsed - s.avgResponse) / time.Duration(s.calls)
	s.mu.Unlock()
}

func (s *Stats) fail() {
	s.mu.Lock()
	s.errors++
	s.mu.Unlock()
}
