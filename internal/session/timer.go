package session

import (
	"sync"
	"time"

	"github.com/roach88/aionic/internal/clock"
)

// Timer measures elapsed session time from a clock.
//
// Thread-safety: Timer is safe for concurrent use via internal mutex.
type Timer struct {
	clock clock.Clock

	mu    sync.Mutex
	start time.Time
}

// StartTimer starts a timer at the clock's current time.
func StartTimer(c clock.Clock) *Timer {
	c = clock.Or(c)
	return &Timer{clock: c, start: c.Now()}
}

// Elapsed returns the time since the timer started.
func (t *Timer) Elapsed() time.Duration {
	t.mu.Lock()
	start := t.start
	t.mu.Unlock()
	d := t.clock.Now().Sub(start)
	if d < 0 {
		return 0
	}
	return d
}

// Restart moves the timer's start to now.
func (t *Timer) Restart() {
	now := t.clock.Now()
	t.mu.Lock()
	t.start = now
	t.mu.Unlock()
}

// Started returns the time the timer was (re)started.
func (t *Timer) Started() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.start
}
