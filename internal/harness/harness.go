package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/roach88/aionic/internal/clock"
	"github.com/roach88/aionic/internal/draft"
	"github.com/roach88/aionic/internal/journal"
	"github.com/roach88/aionic/internal/model"
	"github.com/roach88/aionic/internal/rhythm"
	"github.com/roach88/aionic/internal/score"
	"github.com/roach88/aionic/internal/store"
	"github.com/roach88/aionic/internal/testutil"
)

// DefaultSessionID is the capture session id used when a scenario sets none.
const DefaultSessionID = "jane-2025-11-03-scenario"

// Error codes reported in the result of an "error" outcome.
const (
	ErrCodeEmptyBody     = "empty_body"
	ErrCodeInvalidTone   = "invalid_tone"
	ErrCodeInvalidChoice = "invalid_choice"
	ErrCodeNotFound      = "not_found"
)

// Harness is the test execution engine.
// It runs one scenario against a fresh journal with a manual clock and
// sequential entry ids so that traces are reproducible.
type Harness struct {
	journal *journal.Journal
	drafts  store.DraftBuffer
	clock   *testutil.ManualClock
	seq     *clock.Sequence
	logger  *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Execution flow:
// 1. Open a fresh in-memory database (or the local-only store)
// 2. Seed the draft buffer when the scenario carries one
// 3. Apply each flow step to the journal, checking expect clauses
// 4. Evaluate assertions against the trace and final state
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clk := testutil.NewManualClock(testutil.Epoch)
	storeOpts := []store.Option{
		store.WithClock(clk),
		store.WithIDGenerator(testutil.NewSequentialIDs("entry")),
		store.WithLogger(logger),
	}

	var storage journal.Storage
	switch scenario.Storage {
	case StorageMemory:
		storage = journal.SelectStore(false, nil, storeOpts...)
	default:
		st, err := store.Open(store.MemoryPath, storeOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory store: %w", err)
		}
		defer st.Close()
		storage = journal.SelectStore(true, st, storeOpts...)
	}

	if scenario.Draft != "" {
		if err := storage.Drafts.SaveDraft(ctx, scenario.Draft); err != nil {
			return nil, fmt.Errorf("failed to seed draft: %w", err)
		}
	}

	preset := scenario.Preset
	if preset == "" {
		preset = rhythm.PresetPair
	}
	cycle, err := rhythm.Preset(preset)
	if err != nil {
		return nil, err
	}
	strategy, err := score.Lookup(scenario.Strategy, score.LengthSaturation)
	if err != nil {
		return nil, err
	}
	sessionID := scenario.SessionID
	if sessionID == "" {
		sessionID = DefaultSessionID
	}

	h := &Harness{
		journal: journal.New(storage.Entries, storage.Drafts,
			journal.WithClock(clk),
			journal.WithCycle(cycle),
			journal.WithStrategy(strategy),
			journal.WithSessionID(sessionID),
			journal.WithLogger(logger),
		),
		drafts: storage.Drafts,
		clock:  clk,
		seq:    clock.NewSequence(),
		logger: logger,
	}
	defer h.journal.End(ctx)

	result := NewResult()
	for i, step := range scenario.Flow {
		h.executeStep(ctx, i, step, result)
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions, &AssertionContext{
		Journal: h.journal,
		Drafts:  h.drafts,
		Ctx:     ctx,
	}) {
		result.AddError(msg)
	}

	return result, nil
}

// executeStep applies one flow step, records it in the trace and checks
// its expect clause.
func (h *Harness) executeStep(ctx context.Context, index int, step FlowStep, result *Result) {
	result.AddActionTrace(step.Action, step.Args, h.seq.Next())

	outcome, err := h.apply(ctx, step)
	outcomeCase := CaseOK
	if err != nil {
		outcomeCase = CaseError
		outcome = map[string]any{"error": errorCode(err)}
	}
	result.AddOutcomeTrace(step.Action, outcomeCase, outcome, h.seq.Next())

	if step.Expect == nil {
		if err != nil {
			h.logger.Debug("unexpected error outcome", "step", index, "action", step.Action, "error", err)
		}
		return
	}
	if step.Expect.Case != outcomeCase {
		result.AddError(fmt.Sprintf("flow[%d] %s: expected case %q, got %q (%v)",
			index, step.Action, step.Expect.Case, outcomeCase, outcome))
		return
	}
	if !matchArgs(outcome, step.Expect.Result) {
		result.AddError(fmt.Sprintf("flow[%d] %s: expected result %v, got %v",
			index, step.Action, step.Expect.Result, outcome))
	}
}

// apply runs the action against the journal and returns its result.
func (h *Harness) apply(ctx context.Context, step FlowStep) (map[string]any, error) {
	j := h.journal
	switch step.Action {
	case ActionBegin:
		return map[string]any{"draft": j.Begin(ctx).String()}, nil

	case ActionKey:
		keys, err := stringList(step.Args["keys"])
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			j.KeyEvent(k)
		}
		c := j.View().Counters
		return map[string]any{
			"keystrokes": c.Keystrokes,
			"backspaces": c.Backspaces,
			"edit_keys":  c.EditKeys,
			"recent":     c.Recent,
		}, nil

	case ActionSetBody:
		j.SetBody(fmt.Sprint(step.Args["text"]))
		return readingResult(j.Reading()), nil

	case ActionSetTitle:
		j.SetTitle(fmt.Sprint(step.Args["text"]))
		return nil, nil

	case ActionSetTone:
		if err := j.SetTone(model.Tone(fmt.Sprint(step.Args["tone"]))); err != nil {
			return nil, err
		}
		return map[string]any{"tone_changes": j.View().Counters.ToneChanges}, nil

	case ActionAdvance:
		ms, err := intArg(step.Args["ms"])
		if err != nil {
			return nil, err
		}
		h.clock.Advance(time.Duration(ms) * time.Millisecond)
		return h.bufferResult(ctx)

	case ActionTick:
		ms, err := intArg(step.Args["at_ms"])
		if err != nil {
			return nil, err
		}
		ps := j.Tick(time.Duration(ms) * time.Millisecond)
		return map[string]any{
			"phase":     ps.Name,
			"progress":  round4(ps.Progress),
			"coherence": round4(j.Coherence()),
		}, nil

	case ActionReading:
		return readingResult(j.Reading()), nil

	case ActionSave:
		e, err := j.Save(ctx)
		if err != nil {
			return nil, err
		}
		return entryResult(e), nil

	case ActionResolve:
		res, err := j.ResolveDraft(ctx, model.RecoveryChoice(fmt.Sprint(step.Args["choice"])))
		if err != nil {
			return nil, err
		}
		out := map[string]any{"draft": j.DraftState().String()}
		if res.Choice != "" {
			out["choice"] = string(res.Choice)
		}
		if res.Text != "" {
			out["text"] = res.Text
		}
		if res.Entry != nil {
			out["entry_id"] = res.Entry.ID
		}
		return out, nil

	case ActionDelete:
		active, err := j.Delete(ctx, fmt.Sprint(step.Args["id"]))
		if err != nil {
			return nil, err
		}
		return map[string]any{"active": len(active)}, nil

	case ActionList:
		entries, err := j.List(ctx)
		if err != nil {
			return nil, err
		}
		ids := make([]any, len(entries))
		for i, e := range entries {
			ids[i] = e.ID
		}
		return map[string]any{"ids": ids}, nil

	case ActionClearDraft:
		j.ClearDraft(ctx)
		return map[string]any{"draft": j.DraftState().String()}, nil

	case ActionClearAll:
		if err := j.ClearAll(ctx); err != nil {
			return nil, err
		}
		return map[string]any{"draft": j.DraftState().String()}, nil

	case ActionEnd:
		j.End(ctx)
		return h.bufferResult(ctx)

	default:
		return nil, fmt.Errorf("unknown action %q", step.Action)
	}
}

// bufferResult reports the persisted draft text.
func (h *Harness) bufferResult(ctx context.Context) (map[string]any, error) {
	text, err := h.drafts.LoadDraft(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"buffer": text}, nil
}

func readingResult(r score.Reading) map[string]any {
	return map[string]any{
		"delta_e":    round4(r.DeltaE),
		"mode":       string(r.Mode),
		"confidence": string(r.Confidence),
	}
}

func entryResult(e model.Entry) map[string]any {
	out := map[string]any{
		"id":         e.ID,
		"tone":       string(e.Tone),
		"delta_e":    round4(e.DeltaE),
		"confidence": string(e.Confidence),
	}
	if m := e.SessionMeta; m != nil {
		out["duration_s"] = m.DurationSeconds
		out["word_count"] = m.WordCountFinal
		out["wpm_avg"] = m.WPMAvg
		out["edit_count"] = m.EditCount
		out["backspace_ratio"] = round4(m.BackspaceRatio)
		out["tone_changes"] = m.ToneChanges
		out["draft_recovered"] = m.DraftRecovered
		if m.RecoveryChoice != nil {
			out["recovery_choice"] = string(*m.RecoveryChoice)
		}
	}
	return out
}

// errorCode maps journal errors to stable trace codes.
func errorCode(err error) string {
	switch {
	case errors.Is(err, journal.ErrEmptyBody):
		return ErrCodeEmptyBody
	case errors.Is(err, journal.ErrInvalidTone):
		return ErrCodeInvalidTone
	case errors.Is(err, draft.ErrInvalidChoice):
		return ErrCodeInvalidChoice
	case errors.Is(err, store.ErrNotFound):
		return ErrCodeNotFound
	default:
		return err.Error()
	}
}

func stringList(v any) ([]string, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a list, got %T", v)
	}
	out := make([]string, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("expected a string at index %d, got %T", i, item)
		}
		out[i] = s
	}
	return out, nil
}

func intArg(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		if n == math.Trunc(n) {
			return int64(n), nil
		}
	}
	return 0, fmt.Errorf("expected an integer, got %v", v)
}

// round4 rounds to four decimals so traces are stable across float noise.
func round4(f float64) float64 {
	return math.Round(f*1e4) / 1e4
}
