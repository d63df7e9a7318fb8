package testutil

import (
	"sort"
	"sync"
	"time"

	"github.com/roach88/aionic/internal/clock"
)

// Epoch is the default start time of a ManualClock.
var Epoch = time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC)

// ManualClock is a clock.Clock that only moves when told to.
//
// Timers registered with AfterFunc fire synchronously, in deadline order,
// inside Advance. Tickers receive at most one pending tick, the same
// drop-if-full behaviour as time.Ticker.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type ManualClock struct {
	mu      sync.Mutex
	now     time.Time
	nextID  int
	timers  map[int]*manualTimer
	tickers []*manualTicker
}

// NewManualClock creates a clock stopped at start. A zero start uses Epoch.
func NewManualClock(start time.Time) *ManualClock {
	if start.IsZero() {
		start = Epoch
	}
	return &ManualClock{now: start, timers: make(map[int]*manualTimer)}
}

var _ clock.Clock = (*ManualClock)(nil)

// Now returns the current manual time.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc registers f to run once the clock has advanced by d.
func (c *ManualClock) AfterFunc(d time.Duration, f func()) clock.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	t := &manualTimer{clock: c, id: c.nextID, at: c.now.Add(d), f: f}
	c.timers[t.id] = t
	return t
}

// NewTicker creates a ticker that ticks every d of manual time.
func (c *ManualClock) NewTicker(d time.Duration) clock.Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTicker{clock: c, every: d, next: c.now.Add(d), ch: make(chan time.Time, 1)}
	c.tickers = append(c.tickers, t)
	return t
}

// Pending returns the number of timers that have not fired or been stopped.
func (c *ManualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

// Tickers returns the number of tickers that have not been stopped.
func (c *ManualClock) Tickers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.tickers {
		if !t.stopped {
			n++
		}
	}
	return n
}

// Advance moves the clock forward by d, firing due timers and tickers.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		due := c.dueTimersLocked(target)
		if len(due) == 0 {
			c.now = target
			c.tickLocked()
			c.mu.Unlock()
			return
		}
		t := due[0]
		delete(c.timers, t.id)
		if t.at.After(c.now) {
			c.now = t.at
		}
		c.tickLocked()
		c.mu.Unlock()

		// Callbacks run without the lock so they may schedule new timers.
		t.f()
	}
}

// Set jumps the clock to t without firing anything in between.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *ManualClock) dueTimersLocked(target time.Time) []*manualTimer {
	var due []*manualTimer
	for _, t := range c.timers {
		if !t.at.After(target) {
			due = append(due, t)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].at.Equal(due[j].at) {
			return due[i].id < due[j].id
		}
		return due[i].at.Before(due[j].at)
	})
	return due
}

func (c *ManualClock) tickLocked() {
	for _, t := range c.tickers {
		if t.stopped || t.every <= 0 {
			continue
		}
		fired := false
		for !t.next.After(c.now) {
			t.next = t.next.Add(t.every)
			fired = true
		}
		if fired {
			select {
			case t.ch <- c.now:
			default:
			}
		}
	}
}

type manualTimer struct {
	clock *ManualClock
	id    int
	at    time.Time
	f     func()
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if _, ok := t.clock.timers[t.id]; !ok {
		return false
	}
	delete(t.clock.timers, t.id)
	return true
}

type manualTicker struct {
	clock   *ManualClock
	every   time.Duration
	next    time.Time
	ch      chan time.Time
	stopped bool
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }

func (t *manualTicker) Stop() {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	t.stopped = true
}
