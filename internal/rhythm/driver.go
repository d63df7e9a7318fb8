package rhythm

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/aionic/internal/clock"
)

// DefaultInterval is the default tick cadence, roughly one display frame.
const DefaultInterval = 50 * time.Millisecond

// Driver ticks a Generator from a clock ticker.
//
// Elapsed time is measured from the start of each Run and added to the
// generator's elapsed time at that moment, so stopping and re-running the
// driver resumes where it left off instead of starting a new cycle.
type Driver struct {
	gen      *Generator
	clock    clock.Clock
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	onTick  []func(State)
	running bool
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithClock sets the clock used for ticks and elapsed time.
func WithClock(c clock.Clock) DriverOption {
	return func(d *Driver) { d.clock = c }
}

// WithInterval sets the tick cadence.
func WithInterval(interval time.Duration) DriverOption {
	return func(d *Driver) { d.interval = interval }
}

// WithLogger sets the driver logger.
func WithLogger(l *slog.Logger) DriverOption {
	return func(d *Driver) { d.logger = l }
}

// NewDriver creates a driver for gen.
func NewDriver(gen *Generator, opts ...DriverOption) *Driver {
	d := &Driver{gen: gen, interval: DefaultInterval}
	for _, opt := range opts {
		opt(d)
	}
	d.clock = clock.Or(d.clock)
	if d.interval <= 0 {
		d.interval = DefaultInterval
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// Subscribe registers fn to receive the state after every tick.
// The returned function removes the subscription.
func (d *Driver) Subscribe(fn func(State)) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onTick = append(d.onTick, fn)
	idx := len(d.onTick) - 1
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if idx < len(d.onTick) {
			d.onTick[idx] = nil
		}
	}
}

// Running reports whether Run is active.
func (d *Driver) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// Run ticks the generator until ctx is cancelled. It returns ctx.Err().
// Calling Run while another Run is active returns immediately with nil.
func (d *Driver) Run(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = true
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.running = false
		d.mu.Unlock()
	}()

	base := d.gen.Elapsed()
	start := d.clock.Now()
	ticker := d.clock.NewTicker(d.interval)
	defer ticker.Stop()

	d.logger.Debug("rhythm driver starting", "resume_at", base, "interval", d.interval)
	for {
		select {
		case <-ctx.Done():
			d.logger.Debug("rhythm driver stopping", "elapsed", d.gen.Elapsed())
			return ctx.Err()
		case now := <-ticker.C():
			elapsed := base + now.Sub(start)
			d.gen.Tick(elapsed)
			d.publish(d.gen.State())
		}
	}
}

func (d *Driver) publish(s State) {
	d.mu.Lock()
	subs := make([]func(State), 0, len(d.onTick))
	for _, fn := range d.onTick {
		if fn != nil {
			subs = append(subs, fn)
		}
	}
	d.mu.Unlock()
	for _, fn := range subs {
		fn(s)
	}
}
