package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is a scripted writing session.
// The flow is applied to a fresh journal and the resulting trace and final
// state are checked against the expectations and assertions.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Storage selects the backend: "sqlite" (in-memory database, the
	// default) or "memory" (the local-only store).
	Storage string `yaml:"storage,omitempty"`

	// Preset names the breath cycle. Defaults to "pair".
	Preset string `yaml:"preset,omitempty"`

	// Strategy names the scoring strategy. Defaults to "breath".
	Strategy string `yaml:"strategy,omitempty"`

	// Draft seeds the draft buffer before the flow starts, as if a
	// previous session had been interrupted.
	Draft string `yaml:"draft,omitempty"`

	// SessionID fixes the capture session id. Defaults to DefaultSessionID.
	SessionID string `yaml:"session_id,omitempty"`

	// Flow is the ordered list of actions.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final trace and state.
	// Supported types: trace_contains, trace_order, trace_count, final_state
	Assertions []Assertion `yaml:"assertions"`
}

// FlowStep applies one action to the journal.
type FlowStep struct {
	// Action is one of the Action* constants.
	Action string `yaml:"action"`

	// Args contains the action arguments.
	Args map[string]any `yaml:"args,omitempty"`

	// Expect specifies the expected outcome.
	// If nil, the outcome is recorded but not checked.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies an expected outcome.
type ExpectClause struct {
	// Case is "ok" or "error".
	Case string `yaml:"case"`

	// Result is a subset match against the outcome result.
	Result map[string]any `yaml:"result,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": Check action appears in trace with args
	// - "trace_order": Check actions appear in order
	// - "trace_count": Check action appears exactly N times
	// - "final_state": Read an entry or the draft and verify expected values
	Type string `yaml:"type"`

	// Action is the action name (trace_contains, trace_count).
	Action string `yaml:"action,omitempty"`

	// Args are the expected action arguments (trace_contains, subset match).
	Args map[string]any `yaml:"args,omitempty"`

	// Table is "entries" or "draft" (final_state).
	Table string `yaml:"table,omitempty"`

	// Where selects the entry by id (final_state on entries).
	Where map[string]any `yaml:"where,omitempty"`

	// Expect contains expected field values (final_state, subset match).
	// Nested entry fields use dotted keys such as "session_meta.wpm_avg".
	Expect map[string]any `yaml:"expect,omitempty"`

	// Count is the expected number of occurrences (trace_count).
	Count int `yaml:"count,omitempty"`

	// Actions is the expected action order (trace_order).
	Actions []string `yaml:"actions,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

// Final state tables.
const (
	TableEntries = "entries"
	TableDraft   = "draft"
)

// Storage backends.
const (
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// Action names.
const (
	ActionBegin      = "begin"
	ActionKey        = "key"
	ActionSetBody    = "set_body"
	ActionSetTitle   = "set_title"
	ActionSetTone    = "set_tone"
	ActionAdvance    = "advance"
	ActionTick       = "tick"
	ActionReading    = "reading"
	ActionSave       = "save"
	ActionResolve    = "resolve"
	ActionDelete     = "delete"
	ActionList       = "list"
	ActionClearDraft = "clear_draft"
	ActionClearAll   = "clear_all"
	ActionEnd        = "end"
)

// requiredArgs lists the arguments each action needs.
var requiredArgs = map[string][]string{
	ActionBegin:      nil,
	ActionKey:        {"keys"},
	ActionSetBody:    {"text"},
	ActionSetTitle:   {"text"},
	ActionSetTone:    {"tone"},
	ActionAdvance:    {"ms"},
	ActionTick:       {"at_ms"},
	ActionReading:    nil,
	ActionSave:       nil,
	ActionResolve:    {"choice"},
	ActionDelete:     {"id"},
	ActionList:       nil,
	ActionClearDraft: nil,
	ActionClearAll:   nil,
	ActionEnd:        nil,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch s.Storage {
	case "", StorageSQLite, StorageMemory:
	default:
		return fmt.Errorf("unknown storage %q", s.Storage)
	}

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	for i, step := range s.Flow {
		if step.Action == "" {
			return fmt.Errorf("flow[%d]: action is required", i)
		}
		required, known := requiredArgs[step.Action]
		if !known {
			return fmt.Errorf("flow[%d]: unknown action %q", i, step.Action)
		}
		for _, arg := range required {
			if _, ok := step.Args[arg]; !ok {
				return fmt.Errorf("flow[%d]: %s requires arg %q", i, step.Action, arg)
			}
		}
		if step.Expect != nil {
			switch step.Expect.Case {
			case CaseOK, CaseError:
			case "":
				return fmt.Errorf("flow[%d].expect: case is required", i)
			default:
				return fmt.Errorf("flow[%d].expect: unknown case %q", i, step.Expect.Case)
			}
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Actions) == 0 {
			return fmt.Errorf("assertions[%d]: actions list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		switch a.Table {
		case TableEntries:
			if _, ok := a.Where["id"]; !ok {
				return fmt.Errorf("assertions[%d]: where.id is required for final_state on entries", index)
			}
		case TableDraft:
		case "":
			return fmt.Errorf("assertions[%d]: table is required for final_state", index)
		default:
			return fmt.Errorf("assertions[%d]: unknown table %q", index, a.Table)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
