package rhythm

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/aionic/internal/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startDriver runs d in the background and waits until its ticker exists.
func startDriver(t *testing.T, d *Driver, clk *testutil.ManualClock) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	require.Eventually(t, func() bool { return clk.Tickers() == 1 }, time.Second, time.Millisecond)
	return cancel, done
}

func TestDriver_TicksGenerator(t *testing.T) {
	clk := testutil.NewManualClock(time.Time{})
	g := newPairGenerator()
	d := NewDriver(g, WithClock(clk), WithInterval(time.Second), WithLogger(quietLogger()))

	cancel, done := startDriver(t, d, clk)
	defer cancel()

	clk.Advance(4 * time.Second)
	require.Eventually(t, func() bool { return g.Elapsed() == 4*time.Second }, time.Second, time.Millisecond)
	assert.InDelta(t, 0.54, g.Coherence(), 1e-9)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.False(t, d.Running())
}

func TestDriver_StopHaltsGrowthAndResumes(t *testing.T) {
	clk := testutil.NewManualClock(time.Time{})
	g := newPairGenerator()
	d := NewDriver(g, WithClock(clk), WithInterval(time.Second), WithLogger(quietLogger()))

	cancel, done := startDriver(t, d, clk)
	clk.Advance(3 * time.Second)
	require.Eventually(t, func() bool { return g.Elapsed() == 3*time.Second }, time.Second, time.Millisecond)
	cancel()
	<-done

	// Time passes while stopped: no growth.
	clk.Advance(time.Minute)
	assert.Equal(t, CoherenceFloor, g.Coherence())
	assert.Equal(t, 3*time.Second, g.Elapsed())

	// Restart resumes from 3s, so one more second completes the first cycle.
	cancel, done = startDriver(t, d, clk)
	defer cancel()
	clk.Advance(time.Second)
	require.Eventually(t, func() bool { return g.Elapsed() == 4*time.Second }, time.Second, time.Millisecond)
	assert.InDelta(t, 0.54, g.Coherence(), 1e-9)

	cancel()
	<-done
}

func TestDriver_Subscribe(t *testing.T) {
	clk := testutil.NewManualClock(time.Time{})
	g := newPairGenerator()
	d := NewDriver(g, WithClock(clk), WithInterval(500*time.Millisecond), WithLogger(quietLogger()))

	var mu sync.Mutex
	var got []State
	unsubscribe := d.Subscribe(func(s State) {
		mu.Lock()
		got = append(got, s)
		mu.Unlock()
	})

	cancel, done := startDriver(t, d, clk)
	defer cancel()

	clk.Advance(500 * time.Millisecond)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, time.Millisecond)

	mu.Lock()
	assert.Equal(t, PhaseInhale, got[0].Phase.Name)
	assert.InDelta(t, 0.25, got[0].Phase.Progress, 1e-9)
	mu.Unlock()

	unsubscribe()
	clk.Advance(500 * time.Millisecond)
	require.Eventually(t, func() bool { return g.Elapsed() == time.Second }, time.Second, time.Millisecond)

	mu.Lock()
	assert.Len(t, got, 1)
	mu.Unlock()

	cancel()
	<-done
}

func TestDriver_SecondRunIsNoop(t *testing.T) {
	clk := testutil.NewManualClock(time.Time{})
	d := NewDriver(newPairGenerator(), WithClock(clk), WithLogger(quietLogger()))

	cancel, done := startDriver(t, d, clk)
	defer cancel()

	assert.NoError(t, d.Run(context.Background()))

	cancel()
	<-done
}
