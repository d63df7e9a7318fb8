package draft

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/aionic/internal/clock"
	"github.com/roach88/aionic/internal/model"
	"github.com/roach88/aionic/internal/store"
)

// DefaultDebounce is the quiet period before an autosave is written.
const DefaultDebounce = 500 * time.Millisecond

// Values stamped on an entry created by Resolve(save). The recovered text
// was never scored, so it lands calm with low confidence.
const (
	RecoveredDeltaE     = -0.25
	RecoveredTone       = model.ToneRaw
	RecoveredConfidence = model.ConfidenceLow
	RecoveredCoherence  = 0.5
)

// ErrInvalidChoice is returned by Resolve for an unknown recovery choice.
var ErrInvalidChoice = errors.New("draft: invalid recovery choice")

// State is the lifecycle state of the draft.
type State int

const (
	Empty State = iota
	Drafting
	Recoverable
	Reviewing
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Drafting:
		return "drafting"
	case Recoverable:
		return "recoverable"
	case Reviewing:
		return "reviewing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Resolution is the outcome of Resolve.
type Resolution struct {
	Choice model.RecoveryChoice `json:"choice"`
	// Text is the recovered text to load into the editor (review only).
	Text string `json:"text,omitempty"`
	// Entry is the entry written from the draft (save only).
	Entry *model.Entry `json:"entry,omitempty"`
}

// Manager owns the draft lifecycle for one writing session.
//
// Thread-safety: All methods are safe for concurrent use. mu guards state;
// ioMu serializes buffer I/O and is always acquired before mu.
type Manager struct {
	buf      store.DraftBuffer
	entries  store.EntryStore
	clock    clock.Clock
	debounce time.Duration
	session  string
	logger   *slog.Logger

	ioMu sync.Mutex

	mu        sync.Mutex
	state     State
	recovered string // buffer text found by Start
	timer     clock.Timer
	gen       uint64
	pending   string
	held      *string
	choice    *model.RecoveryChoice
	closed    bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock sets the clock driving the debounce timer.
func WithClock(c clock.Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// WithDebounce sets the autosave quiet period. Non-positive values are ignored.
func WithDebounce(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.debounce = d
		}
	}
}

// WithCaptureSession sets the capture session id stamped on recovered entries.
func WithCaptureSession(id string) Option {
	return func(m *Manager) { m.session = id }
}

// WithLogger sets the logger used for degraded writes.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a manager over buf. entries receives the entry written
// when a recovered draft is saved.
func NewManager(buf store.DraftBuffer, entries store.EntryStore, opts ...Option) *Manager {
	m := &Manager{
		buf:      buf,
		entries:  entries,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.clock = clock.Or(m.clock)
	return m
}

// Start reads the buffer. A non-empty buffer makes the draft Recoverable;
// nothing else happens until Resolve. An unreadable buffer is logged and
// treated as empty.
func (m *Manager) Start(ctx context.Context) State {
	m.ioMu.Lock()
	defer m.ioMu.Unlock()

	text, err := m.buf.LoadDraft(ctx)
	if err != nil {
		m.logger.Warn("draft buffer unreadable, starting empty", "error", err)
		text = ""
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if text != "" {
		m.state = Recoverable
		m.recovered = text
	} else {
		m.state = Empty
		m.recovered = ""
	}
	return m.state
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// HasDraft reports whether a recovery decision is pending.
func (m *Manager) HasDraft() bool {
	return m.State() == Recoverable
}

// Draft returns the text found in the buffer at Start, or "" once resolved
// by save or discard.
func (m *Manager) Draft() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recovered
}

// Pending reports whether a debounced write is scheduled.
func (m *Manager) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timer != nil
}

// Recovery returns the recovery flags for a normal save: recovered is true
// and choice is "review" only while a reviewed draft is being edited.
func (m *Manager) Recovery() (recovered bool, choice *model.RecoveryChoice) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.choice == nil {
		return false, nil
	}
	return true, model.Choice(*m.choice)
}

// ScheduleAutosave schedules text to overwrite the buffer after the debounce
// interval, replacing any write still pending.
func (m *Manager) ScheduleAutosave(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	if m.state == Recoverable {
		m.held = &text
		return
	}
	if m.state == Empty {
		m.state = Drafting
	}
	m.scheduleLocked(text)
}

func (m *Manager) scheduleLocked(text string) {
	m.cancelLocked()
	gen := m.gen
	m.pending = text
	m.timer = m.clock.AfterFunc(m.debounce, func() {
		m.fire(gen)
	})
}

// cancelLocked stops the pending write and invalidates any timer callback
// that has already started.
func (m *Manager) cancelLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.gen++
	m.pending = ""
}

// fire writes the pending text if gen is still current.
func (m *Manager) fire(gen uint64) {
	m.ioMu.Lock()
	defer m.ioMu.Unlock()

	m.mu.Lock()
	if m.closed || gen != m.gen {
		m.mu.Unlock()
		return
	}
	text := m.pending
	m.timer = nil
	m.pending = ""
	m.mu.Unlock()

	m.write(context.Background(), text)
}

// write saves text, logging failures. Caller must hold ioMu.
func (m *Manager) write(ctx context.Context, text string) {
	if err := m.buf.SaveDraft(ctx, text); err != nil {
		m.logger.Warn("draft autosave failed", "bytes", len(text), "error", err)
	}
}

// Flush writes a pending autosave immediately.
func (m *Manager) Flush(ctx context.Context) {
	m.ioMu.Lock()
	defer m.ioMu.Unlock()

	m.mu.Lock()
	if m.timer == nil || m.closed {
		m.mu.Unlock()
		return
	}
	text := m.pending
	m.cancelLocked()
	m.mu.Unlock()

	m.write(ctx, text)
}

// Resolve applies the user's decision about a recoverable draft. With no
// recoverable draft it does nothing and returns a zero Resolution.
func (m *Manager) Resolve(ctx context.Context, choice model.RecoveryChoice) (Resolution, error) {
	if !choice.Valid() {
		return Resolution{}, fmt.Errorf("%w: %q", ErrInvalidChoice, choice)
	}

	m.ioMu.Lock()
	defer m.ioMu.Unlock()

	m.mu.Lock()
	if m.closed || (m.state != Recoverable && m.state != Reviewing) {
		m.mu.Unlock()
		return Resolution{}, nil
	}
	if m.state == Reviewing && choice == model.RecoveryReview {
		text := m.recovered
		m.mu.Unlock()
		return Resolution{Choice: choice, Text: text}, nil
	}
	text := m.recovered
	m.mu.Unlock()

	res := Resolution{Choice: choice}
	switch choice {
	case model.RecoveryReview:
		m.mu.Lock()
		m.state = Reviewing
		m.choice = model.Choice(model.RecoveryReview)
		m.held = nil
		m.mu.Unlock()
		res.Text = text
		return res, nil

	case model.RecoverySave:
		e, err := m.entries.Store(ctx, recoveredEntry(text, m.session))
		if err != nil {
			return Resolution{}, fmt.Errorf("resolve draft: %w", err)
		}
		res.Entry = &e
	}

	if err := m.buf.ClearDraft(ctx); err != nil {
		m.logger.Warn("draft clear failed", "error", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelLocked()
	m.state = Empty
	m.recovered = ""
	m.choice = nil
	if m.held != nil {
		held := *m.held
		m.held = nil
		m.state = Drafting
		m.scheduleLocked(held)
	}
	return res, nil
}

// recoveredEntry builds the entry written by Resolve(save).
func recoveredEntry(text, session string) model.Entry {
	return model.Entry{
		Title:            "",
		Content:          text,
		Tone:             RecoveredTone,
		DeltaE:           RecoveredDeltaE,
		Confidence:       RecoveredConfidence,
		CaptureSessionID: session,
		SessionMeta: &model.SessionMeta{
			WordCountFinal:  model.WordCount(text),
			CoherenceAtSave: RecoveredCoherence,
			DraftRecovered:  true,
			RecoveryChoice:  model.Choice(model.RecoverySave),
		},
	}
}

// Committed is called after the live text was saved as an entry. It cancels
// any pending autosave and clears the buffer.
func (m *Manager) Committed(ctx context.Context) {
	m.reset(ctx)
}

// Clear cancels any pending autosave, empties the buffer and forgets any
// recoverable draft.
func (m *Manager) Clear(ctx context.Context) {
	m.reset(ctx)
}

func (m *Manager) reset(ctx context.Context) {
	m.mu.Lock()
	m.cancelLocked()
	m.state = Empty
	m.recovered = ""
	m.choice = nil
	m.held = nil
	m.mu.Unlock()

	m.ioMu.Lock()
	defer m.ioMu.Unlock()
	if err := m.buf.ClearDraft(ctx); err != nil {
		m.logger.Warn("draft clear failed", "error", err)
	}
}

// Close cancels any pending autosave and waits for an in-flight write to
// finish. No write happens after Close returns. The buffer keeps its last
// written text for the next session.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	m.cancelLocked()
	m.mu.Unlock()

	m.ioMu.Lock()
	defer m.ioMu.Unlock()
}
