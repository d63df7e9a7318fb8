// Package session instruments one editing session: keystroke counts, a
// sliding keystroke window, tone changes and the elapsed session timer.
package session

import (
	"math"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/roach88/aionic/internal/model"
)

// DefaultWindow is the length of the sliding keystroke log.
const DefaultWindow = 60 * time.Second

// Deletion key names.
const (
	KeyBackspace = "Backspace"
	KeyDelete    = "Delete"
)

// IsDeletion reports whether key removes text.
func IsDeletion(key string) bool {
	return key == KeyBackspace || key == KeyDelete
}

// IsEditKey reports whether key is a named, non-deleting key such as
// "Enter" or "ArrowLeft". Single printable characters are not edit keys.
func IsEditKey(key string) bool {
	return utf8.RuneCountInString(key) > 1 && !IsDeletion(key)
}

// Counters is a copy of the raw instrument counters.
type Counters struct {
	Keystrokes  int `json:"keystrokes"`
	Backspaces  int `json:"backspaces"`
	EditKeys    int `json:"edit_keys"`
	ToneChanges int `json:"tone_changes"`
	Recent      int `json:"recent"`
}

// SnapshotInput carries the values the instrument does not observe itself.
type SnapshotInput struct {
	Duration        time.Duration
	WordCount       int
	CoherenceAtSave float64
	TitleFilled     bool
	DraftRecovered  bool
	RecoveryChoice  *model.RecoveryChoice
}

// Instrument accumulates keystroke metrics for one editing session.
//
// Thread-safety: Instrument is safe for concurrent use via internal mutex.
type Instrument struct {
	window time.Duration

	mu          sync.Mutex
	keystrokes  int
	backspaces  int
	editKeys    int
	toneChanges int
	stamps      []time.Time
}

// Option configures an Instrument.
type Option func(*Instrument)

// WithWindow sets the sliding keystroke window.
func WithWindow(d time.Duration) Option {
	return func(i *Instrument) {
		if d > 0 {
			i.window = d
		}
	}
}

// NewInstrument creates an instrument with empty counters.
func NewInstrument(opts ...Option) *Instrument {
	i := &Instrument{window: DefaultWindow}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// OnKeyEvent records one key press at time at. Stamps older than the window
// relative to at are evicted on every call.
func (i *Instrument) OnKeyEvent(key string, at time.Time) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.keystrokes++
	i.stamps = append(i.stamps, at)
	i.trimLocked(at)

	if IsDeletion(key) {
		i.backspaces++
	} else if IsEditKey(key) {
		i.editKeys++
	}
}

// OnToneChange records a switch of the entry's declared tone.
func (i *Instrument) OnToneChange() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.toneChanges++
}

// trimLocked drops stamps at or before now-window.
func (i *Instrument) trimLocked(now time.Time) {
	cutoff := now.Add(-i.window)
	keep := 0
	for keep < len(i.stamps) && !i.stamps[keep].After(cutoff) {
		keep++
	}
	if keep > 0 {
		i.stamps = append(i.stamps[:0], i.stamps[keep:]...)
	}
}

// Counters returns a copy of the raw counters.
func (i *Instrument) Counters() Counters {
	i.mu.Lock()
	defer i.mu.Unlock()
	return Counters{
		Keystrokes:  i.keystrokes,
		Backspaces:  i.backspaces,
		EditKeys:    i.editKeys,
		ToneChanges: i.toneChanges,
		Recent:      len(i.stamps),
	}
}

// Snapshot derives the session metrics. It does not mutate the counters.
func (i *Instrument) Snapshot(in SnapshotInput) model.SessionMeta {
	i.mu.Lock()
	total, backspaces, edits, tones := i.keystrokes, i.backspaces, i.editKeys, i.toneChanges
	i.mu.Unlock()

	seconds := int(math.Round(in.Duration.Seconds()))
	if seconds < 0 {
		seconds = 0
	}

	return model.SessionMeta{
		DurationSeconds: seconds,
		WordCountFinal:  in.WordCount,
		WPMAvg:          WPM(total, seconds),
		EditCount:       edits,
		BackspaceRatio:  BackspaceRatio(backspaces, total),
		CoherenceAtSave: in.CoherenceAtSave,
		TitleFilled:     in.TitleFilled,
		ToneChanges:     tones,
		DraftRecovered:  in.DraftRecovered,
		RecoveryChoice:  in.RecoveryChoice,
	}
}

// Reset clears every counter for a new session.
func (i *Instrument) Reset() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.keystrokes = 0
	i.backspaces = 0
	i.editKeys = 0
	i.toneChanges = 0
	i.stamps = nil
}

// WPM returns round((keystrokes/5) / (seconds/60)), or 0 when either input
// is zero.
func WPM(keystrokes, seconds int) int {
	if keystrokes <= 0 || seconds <= 0 {
		return 0
	}
	return int(math.Round((float64(keystrokes) / 5) / (float64(seconds) / 60)))
}

// BackspaceRatio returns backspaces/keystrokes rounded to two decimals, or 0
// when no keys were recorded.
func BackspaceRatio(backspaces, keystrokes int) float64 {
	if keystrokes <= 0 {
		return 0
	}
	return math.Round(float64(backspaces)/float64(keystrokes)*100) / 100
}
