package harness

// Trace event types.
const (
	EventAction  = "action"
	EventOutcome = "outcome"
)

// Outcome cases.
const (
	CaseOK    = "ok"
	CaseError = "error"
)

// TraceEvent is one line of a scenario trace: either the action that was
// applied to the journal or the outcome it produced.
type TraceEvent struct {
	Type   string         `json:"type"`
	Action string         `json:"action,omitempty"`
	Args   map[string]any `json:"args,omitempty"`
	Case   string         `json:"case,omitempty"`
	Result map[string]any `json:"result,omitempty"`
	Seq    int64          `json:"seq"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion matched.
	Pass bool `json:"pass"`

	// Trace holds every action and outcome in order.
	Trace []TraceEvent `json:"trace"`

	// Errors holds the expectation and assertion failures.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddActionTrace appends an action event.
func (r *Result) AddActionTrace(action string, args map[string]any, seq int64) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:   EventAction,
		Action: action,
		Args:   args,
		Seq:    seq,
	})
}

// AddOutcomeTrace appends the outcome of the preceding action.
func (r *Result) AddOutcomeTrace(action, outcomeCase string, result map[string]any, seq int64) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:   EventOutcome,
		Action: action,
		Case:   outcomeCase,
		Result: result,
		Seq:    seq,
	})
}
