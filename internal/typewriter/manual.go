package typewriter

import (
	"sync"
	"time"
)

// ManualScheduler is a virtual clock. Callbacks only run from Step or
// Advance, on the calling goroutine, in due-time order (ties in scheduling
// order). Hosts that render on their own frame loop and tests both use it.
type ManualScheduler struct {
	mu      sync.Mutex
	now     time.Duration
	seq     uint64
	pending []*manualTimer
}

type manualTimer struct {
	s       *ManualScheduler
	at      time.Duration
	seq     uint64
	f       func()
	stopped bool
	fired   bool
}

// NewManualScheduler returns a scheduler whose clock starts at zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

func (s *ManualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	if d < 0 {
		d = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t := &manualTimer{s: s, at: s.now + d, seq: s.seq, f: f}
	s.pending = append(s.pending, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	t.s.remove(t)
	return true
}

// Now reports virtual time elapsed since the scheduler was created.
func (s *ManualScheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Pending reports how many callbacks are waiting to fire.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Step moves the clock to the earliest pending callback and runs it.
// It reports false when nothing is pending.
func (s *ManualScheduler) Step() bool {
	s.mu.Lock()
	t := s.next(-1)
	if t == nil {
		s.mu.Unlock()
		return false
	}
	s.fire(t)
	return true
}

// Advance moves the clock forward by d, running every callback that falls
// due on the way, including ones scheduled by callbacks during the advance.
// It returns the number of callbacks run.
func (s *ManualScheduler) Advance(d time.Duration) int {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	fired := 0
	for {
		s.mu.Lock()
		t := s.next(target)
		if t == nil {
			if s.now < target {
				s.now = target
			}
			s.mu.Unlock()
			return fired
		}
		s.fire(t)
		fired++
	}
}

// next returns the earliest pending timer due at or before limit, or the
// earliest overall when limit is negative. Callers hold s.mu.
func (s *ManualScheduler) next(limit time.Duration) *manualTimer {
	var best *manualTimer
	for _, t := range s.pending {
		if limit >= 0 && t.at > limit {
			continue
		}
		if best == nil || t.at < best.at || (t.at == best.at && t.seq < best.seq) {
			best = t
		}
	}
	return best
}

// fire runs t with s.mu held on entry; the lock is released before the
// callback so that it can schedule again.
func (s *ManualScheduler) fire(t *manualTimer) {
	if t.at > s.now {
		s.now = t.at
	}
	t.fired = true
	s.remove(t)
	s.mu.Unlock()
	t.f()
}

func (s *ManualScheduler) remove(t *manualTimer) {
	for i, p := range s.pending {
		if p == t {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return
		}
	}
}
