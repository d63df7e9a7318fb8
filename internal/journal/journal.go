package journal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/roach88/aionic/internal/clock"
	"github.com/roach88/aionic/internal/draft"
	"github.com/roach88/aionic/internal/ident"
	"github.com/roach88/aionic/internal/model"
	"github.com/roach88/aionic/internal/rhythm"
	"github.com/roach88/aionic/internal/score"
	"github.com/roach88/aionic/internal/session"
	"github.com/roach88/aionic/internal/store"
)

var (
	// ErrEmptyBody is returned by Save when the body is blank.
	ErrEmptyBody = errors.New("journal: body is empty")

	// ErrInvalidTone is returned by SetTone for a tone outside the vocabulary.
	ErrInvalidTone = errors.New("journal: invalid tone")
)

// View is a snapshot of the session for observers.
type View struct {
	SessionID string           `json:"session_id"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	Tone      model.Tone       `json:"tone"`
	Rhythm    rhythm.State     `json:"rhythm"`
	Reading   score.Reading    `json:"reading"`
	Draft     string           `json:"draft"`
	Counters  session.Counters `json:"counters"`
	Elapsed   time.Duration    `json:"elapsed"`
}

// Journal is one writing session.
//
// Thread-safety: All methods are safe for concurrent use. Run may tick the
// rhythm from its own goroutine while the caller edits and saves.
type Journal struct {
	entries    store.EntryStore
	drafts     *draft.Manager
	generator  *rhythm.Generator
	driver     *rhythm.Driver
	scorer     *score.Scorer
	instrument *session.Instrument
	timer      *session.Timer
	clock      clock.Clock
	logger     *slog.Logger
	sessionID  string

	mu    sync.Mutex
	title string
	body  string
	tone  model.Tone

	subMu  sync.Mutex
	subs   map[int]func(View)
	nextID int
}

// Option configures a Journal.
type Option func(*settings)

type settings struct {
	clock         clock.Clock
	cycle         rhythm.Cycle
	genOpts       []rhythm.Option
	tickInterval  time.Duration
	strategy      score.Strategy
	debounce      time.Duration
	window        time.Duration
	sessionPrefix string
	sessionID     string
	logger        *slog.Logger
}

// WithClock sets the clock shared by every component.
func WithClock(c clock.Clock) Option {
	return func(s *settings) { s.clock = c }
}

// WithCycle sets the breathing cycle. The default is the pair preset.
func WithCycle(c rhythm.Cycle) Option {
	return func(s *settings) { s.cycle = c }
}

// WithGeneratorOptions passes options to the rhythm generator.
func WithGeneratorOptions(opts ...rhythm.Option) Option {
	return func(s *settings) { s.genOpts = append(s.genOpts, opts...) }
}

// WithTickInterval sets how often Run ticks the rhythm.
func WithTickInterval(d time.Duration) Option {
	return func(s *settings) { s.tickInterval = d }
}

// WithStrategy sets the scoring strategy.
func WithStrategy(st score.Strategy) Option {
	return func(s *settings) { s.strategy = st }
}

// WithDebounce sets the draft autosave quiet period.
func WithDebounce(d time.Duration) Option {
	return func(s *settings) { s.debounce = d }
}

// WithWindow sets the keystroke sliding window.
func WithWindow(d time.Duration) Option {
	return func(s *settings) { s.window = d }
}

// WithSessionPrefix sets the capture session id prefix.
func WithSessionPrefix(p string) Option {
	return func(s *settings) { s.sessionPrefix = p }
}

// WithSessionID fixes the capture session id.
func WithSessionID(id string) Option {
	return func(s *settings) { s.sessionID = id }
}

// WithLogger sets the logger shared by every component.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// New creates a journal writing entries to entries and drafts to drafts.
func New(entries store.EntryStore, drafts store.DraftBuffer, opts ...Option) *Journal {
	s := settings{
		sessionPrefix: ident.DefaultSessionPrefix,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	s.clock = clock.Or(s.clock)
	if len(s.cycle.Phases()) == 0 {
		s.cycle = rhythm.MustCycle(rhythm.PairPhases...)
	}
	if s.sessionID == "" {
		s.sessionID = ident.NewSessionID(s.sessionPrefix, s.clock.Now())
	}

	gen := rhythm.NewGenerator(s.cycle, s.genOpts...)
	driverOpts := []rhythm.DriverOption{rhythm.WithClock(s.clock), rhythm.WithLogger(s.logger)}
	if s.tickInterval > 0 {
		driverOpts = append(driverOpts, rhythm.WithInterval(s.tickInterval))
	}
	var instOpts []session.Option
	if s.window > 0 {
		instOpts = append(instOpts, session.WithWindow(s.window))
	}

	j := &Journal{
		entries:    entries,
		generator:  gen,
		driver:     rhythm.NewDriver(gen, driverOpts...),
		scorer:     score.NewScorer(s.strategy),
		instrument: session.NewInstrument(instOpts...),
		timer:      session.StartTimer(s.clock),
		clock:      s.clock,
		logger:     s.logger,
		sessionID:  s.sessionID,
		tone:       model.DefaultTone,
		subs:       make(map[int]func(View)),
	}
	j.drafts = draft.NewManager(drafts, entries,
		draft.WithClock(s.clock),
		draft.WithDebounce(s.debounce),
		draft.WithCaptureSession(s.sessionID),
		draft.WithLogger(s.logger),
	)
	j.driver.Subscribe(func(rhythm.State) { j.notify() })
	return j
}

// SessionID returns the capture session id.
func (j *Journal) SessionID() string { return j.sessionID }

// Begin starts the session: the timer restarts and the draft buffer is
// checked. A Recoverable result means ResolveDraft should be offered.
func (j *Journal) Begin(ctx context.Context) draft.State {
	j.timer.Restart()
	j.instrument.Reset()
	state := j.drafts.Start(ctx)
	j.logger.Debug("session started", "session", j.sessionID, "draft", state.String())
	j.notify()
	return state
}

// Run ticks the rhythm until ctx is done.
func (j *Journal) Run(ctx context.Context) error {
	return j.driver.Run(ctx)
}

// Tick advances the rhythm to elapsed directly, for callers without Run.
func (j *Journal) Tick(elapsed time.Duration) rhythm.PhaseState {
	p := j.generator.Tick(elapsed)
	j.notify()
	return p
}

// Coherence returns the current coherence level.
func (j *Journal) Coherence() float64 { return j.generator.Coherence() }

// SetBody replaces the live text and schedules an autosave.
func (j *Journal) SetBody(text string) {
	j.mu.Lock()
	j.body = text
	j.mu.Unlock()
	j.drafts.ScheduleAutosave(text)
	j.notify()
}

// SetTitle replaces the title.
func (j *Journal) SetTitle(title string) {
	j.mu.Lock()
	j.title = title
	j.mu.Unlock()
	j.notify()
}

// SetTone selects a tone. Only an actual change is counted.
func (j *Journal) SetTone(t model.Tone) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTone, t)
	}
	j.mu.Lock()
	changed := j.tone != t
	j.tone = t
	j.mu.Unlock()
	if changed {
		j.instrument.OnToneChange()
		j.notify()
	}
	return nil
}

// KeyEvent records a key press at the current time.
func (j *Journal) KeyEvent(key string) {
	j.instrument.OnKeyEvent(key, j.clock.Now())
}

// Reading scores the live text at the current coherence.
func (j *Journal) Reading() score.Reading {
	j.mu.Lock()
	body := j.body
	j.mu.Unlock()
	return j.scorer.Score(body, j.generator.Coherence())
}

// DraftState returns the draft lifecycle state.
func (j *Journal) DraftState() draft.State { return j.drafts.State() }

// View returns a snapshot of the session.
func (j *Journal) View() View {
	j.mu.Lock()
	title, body, tone := j.title, j.body, j.tone
	j.mu.Unlock()

	rs := j.generator.State()
	return View{
		SessionID: j.sessionID,
		Title:     title,
		Body:      body,
		Tone:      tone,
		Rhythm:    rs,
		Reading:   j.scorer.Score(body, rs.Coherence),
		Draft:     j.drafts.State().String(),
		Counters:  j.instrument.Counters(),
		Elapsed:   j.timer.Elapsed(),
	}
}

// Subscribe registers fn to receive a View after every change. The
// returned function unsubscribes.
func (j *Journal) Subscribe(fn func(View)) func() {
	j.subMu.Lock()
	defer j.subMu.Unlock()
	id := j.nextID
	j.nextID++
	j.subs[id] = fn
	return func() {
		j.subMu.Lock()
		defer j.subMu.Unlock()
		delete(j.subs, id)
	}
}

func (j *Journal) notify() {
	j.subMu.Lock()
	if len(j.subs) == 0 {
		j.subMu.Unlock()
		return
	}
	fns := make([]func(View), 0, len(j.subs))
	for _, fn := range j.subs {
		fns = append(fns, fn)
	}
	j.subMu.Unlock()

	v := j.View()
	for _, fn := range fns {
		fn(v)
	}
}

// Save stores the live text as an entry with its score and session
// metrics. After the write completes the draft is cleared, the metrics
// reset and the title and body emptied. The tone carries over.
func (j *Journal) Save(ctx context.Context) (model.Entry, error) {
	j.mu.Lock()
	title, body, tone := j.title, j.body, j.tone
	j.mu.Unlock()

	if strings.TrimSpace(body) == "" {
		return model.Entry{}, ErrEmptyBody
	}

	coherence := j.generator.Coherence()
	reading := j.scorer.Score(body, coherence)
	recovered, choice := j.drafts.Recovery()
	meta := j.instrument.Snapshot(session.SnapshotInput{
		Duration:        j.timer.Elapsed(),
		WordCount:       model.WordCount(body),
		CoherenceAtSave: coherence,
		TitleFilled:     strings.TrimSpace(title) != "",
		DraftRecovered:  recovered,
		RecoveryChoice:  choice,
	})

	e, err := j.entries.Store(ctx, model.Entry{
		Title:            title,
		Content:          body,
		Tone:             tone,
		DeltaE:           reading.DeltaE,
		Confidence:       reading.Confidence,
		CaptureSessionID: j.sessionID,
		SessionMeta:      &meta,
	})
	if err != nil {
		return model.Entry{}, fmt.Errorf("save entry: %w", err)
	}

	j.drafts.Committed(ctx)
	j.instrument.Reset()
	j.timer.Restart()

	j.mu.Lock()
	if j.body == body {
		j.body = ""
	}
	if j.title == title {
		j.title = ""
	}
	live := j.body
	j.mu.Unlock()

	// Text typed while the write was in flight lost its autosave to Committed.
	if live != "" {
		j.drafts.ScheduleAutosave(live)
	}

	j.logger.Debug("entry saved", "id", e.ID, "delta_e", e.DeltaE, "confidence", e.Confidence)
	j.notify()
	return e, nil
}

// List returns the active entries, newest first.
func (j *Journal) List(ctx context.Context) ([]model.Entry, error) {
	return j.entries.ListActive(ctx)
}

// Get reads one entry, tombstoned or not.
func (j *Journal) Get(ctx context.Context, id string) (model.Entry, error) {
	return j.entries.Get(ctx, id)
}

// Delete tombstones an entry and returns the refreshed listing.
func (j *Journal) Delete(ctx context.Context, id string) ([]model.Entry, error) {
	if err := j.entries.SoftDelete(ctx, id); err != nil {
		return nil, fmt.Errorf("delete entry: %w", err)
	}
	j.notify()
	return j.entries.ListActive(ctx)
}

// ClearAll removes every entry and the draft.
func (j *Journal) ClearAll(ctx context.Context) error {
	if err := j.entries.ClearAll(ctx); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}
	j.drafts.Clear(ctx)
	j.notify()
	return nil
}

// HasDraft reports whether a recovery decision is pending.
func (j *Journal) HasDraft() bool { return j.drafts.HasDraft() }

// Draft returns the recoverable draft text.
func (j *Journal) Draft() string { return j.drafts.Draft() }

// ResolveDraft applies the recovery decision. Review loads the draft as the
// live text. Save while reviewing saves the live text, edits included, as
// a normal entry marked as recovered by review.
func (j *Journal) ResolveDraft(ctx context.Context, choice model.RecoveryChoice) (draft.Resolution, error) {
	if choice == model.RecoverySave && j.drafts.State() == draft.Reviewing {
		e, err := j.Save(ctx)
		if err != nil {
			return draft.Resolution{}, err
		}
		return draft.Resolution{Choice: choice, Entry: &e}, nil
	}
	res, err := j.drafts.Resolve(ctx, choice)
	if err != nil {
		return res, err
	}
	if res.Choice == model.RecoveryReview {
		j.mu.Lock()
		j.body = res.Text
		j.mu.Unlock()
	}
	j.notify()
	return res, nil
}

// ClearDraft drops the draft without saving.
func (j *Journal) ClearDraft(ctx context.Context) {
	j.drafts.Clear(ctx)
	j.notify()
}

// End flushes any pending autosave and stops the draft manager. The rhythm
// stops when the context passed to Run is cancelled.
func (j *Journal) End(ctx context.Context) {
	j.drafts.Flush(ctx)
	j.drafts.Close()
	j.logger.Debug("session ended", "session", j.sessionID, "elapsed", j.timer.Elapsed())
}
