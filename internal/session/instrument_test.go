package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/aionic/internal/model"
	"github.com/roach88/aionic/internal/testutil"
)

func TestKeyClassification(t *testing.T) {
	assert.True(t, IsDeletion("Backspace"))
	assert.True(t, IsDeletion("Delete"))
	assert.False(t, IsDeletion("a"))

	assert.True(t, IsEditKey("Enter"))
	assert.True(t, IsEditKey("ArrowLeft"))
	assert.False(t, IsEditKey("a"))
	assert.False(t, IsEditKey("é"))
	assert.False(t, IsEditKey("Backspace"))
}

func TestOnKeyEvent_Counts(t *testing.T) {
	in := NewInstrument()
	at := testutil.Epoch
	for _, k := range []string{"h", "i", "Backspace", "Enter", "Delete", "Shift", "!"} {
		in.OnKeyEvent(k, at)
		at = at.Add(100 * time.Millisecond)
	}

	c := in.Counters()
	assert.Equal(t, 7, c.Keystrokes)
	assert.Equal(t, 2, c.Backspaces)
	assert.Equal(t, 2, c.EditKeys)
	assert.Equal(t, 7, c.Recent)
}

func TestOnKeyEvent_SlidingWindow(t *testing.T) {
	in := NewInstrument()
	start := testutil.Epoch

	in.OnKeyEvent("a", start)
	in.OnKeyEvent("b", start.Add(30*time.Second))
	assert.Equal(t, 2, in.Counters().Recent)

	// Exactly 60s after the first stamp: the first one falls out.
	in.OnKeyEvent("c", start.Add(60*time.Second))
	assert.Equal(t, 2, in.Counters().Recent)

	in.OnKeyEvent("d", start.Add(200*time.Second))
	c := in.Counters()
	assert.Equal(t, 1, c.Recent)
	assert.Equal(t, 4, c.Keystrokes, "window trimming never touches totals")
}

func TestOnKeyEvent_CustomWindow(t *testing.T) {
	in := NewInstrument(WithWindow(time.Second))
	in.OnKeyEvent("a", testutil.Epoch)
	in.OnKeyEvent("b", testutil.Epoch.Add(2*time.Second))
	assert.Equal(t, 1, in.Counters().Recent)
}

func TestSnapshot_ZeroGuards(t *testing.T) {
	in := NewInstrument()
	meta := in.Snapshot(SnapshotInput{})
	assert.Equal(t, 0, meta.WPMAvg)
	assert.Equal(t, 0.0, meta.BackspaceRatio)
	assert.Equal(t, 0, meta.DurationSeconds)
	assert.False(t, meta.DraftRecovered)
	assert.Nil(t, meta.RecoveryChoice)
}

func TestSnapshot_KeysWithoutDuration(t *testing.T) {
	in := NewInstrument()
	in.OnKeyEvent("a", testutil.Epoch)
	meta := in.Snapshot(SnapshotInput{})
	assert.Equal(t, 0, meta.WPMAvg)
	assert.Equal(t, 0.0, meta.BackspaceRatio)
}

func TestSnapshot_Metrics(t *testing.T) {
	in := NewInstrument()
	at := testutil.Epoch
	// 300 keys, 30 of them backspaces.
	for i := 0; i < 300; i++ {
		key := "x"
		if i%10 == 0 {
			key = "Backspace"
		}
		in.OnKeyEvent(key, at)
	}
	in.OnToneChange()
	in.OnToneChange()

	meta := in.Snapshot(SnapshotInput{
		Duration:        2 * time.Minute,
		WordCount:       42,
		CoherenceAtSave: 0.66,
		TitleFilled:     true,
		DraftRecovered:  true,
		RecoveryChoice:  model.Choice(model.RecoveryReview),
	})

	assert.Equal(t, 120, meta.DurationSeconds)
	assert.Equal(t, 30, meta.WPMAvg) // (300/5) / 2
	assert.Equal(t, 0.1, meta.BackspaceRatio)
	assert.Equal(t, 0, meta.EditCount)
	assert.Equal(t, 2, meta.ToneChanges)
	assert.Equal(t, 42, meta.WordCountFinal)
	assert.Equal(t, 0.66, meta.CoherenceAtSave)
	assert.True(t, meta.TitleFilled)
	assert.True(t, meta.DraftRecovered)
	if assert.NotNil(t, meta.RecoveryChoice) {
		assert.Equal(t, model.RecoveryReview, *meta.RecoveryChoice)
	}
}

func TestSnapshot_DoesNotMutate(t *testing.T) {
	in := NewInstrument()
	in.OnKeyEvent("a", testutil.Epoch)
	in.Snapshot(SnapshotInput{Duration: time.Minute})
	in.Snapshot(SnapshotInput{Duration: time.Minute})
	assert.Equal(t, 1, in.Counters().Keystrokes)
}

func TestReset(t *testing.T) {
	in := NewInstrument()
	in.OnKeyEvent("Backspace", testutil.Epoch)
	in.OnToneChange()
	in.Reset()
	assert.Equal(t, Counters{}, in.Counters())
}

func TestWPM(t *testing.T) {
	assert.Equal(t, 0, WPM(0, 0))
	assert.Equal(t, 0, WPM(10, 0))
	assert.Equal(t, 0, WPM(0, 10))
	assert.Equal(t, 12, WPM(60, 60))
	assert.Equal(t, 7, WPM(50, 90)) // 10 / 1.5 = 6.67
}

func TestBackspaceRatio(t *testing.T) {
	assert.Equal(t, 0.0, BackspaceRatio(0, 0))
	assert.Equal(t, 0.33, BackspaceRatio(1, 3))
	assert.Equal(t, 0.67, BackspaceRatio(2, 3))
	assert.Equal(t, 1.0, BackspaceRatio(4, 4))
}

func TestTimer(t *testing.T) {
	clk := testutil.NewManualClock(time.Time{})
	tm := StartTimer(clk)
	assert.Equal(t, time.Duration(0), tm.Elapsed())

	clk.Advance(90 * time.Second)
	assert.Equal(t, 90*time.Second, tm.Elapsed())

	tm.Restart()
	assert.Equal(t, time.Duration(0), tm.Elapsed())
	assert.Equal(t, clk.Now(), tm.Started())
}
