// Package harness runs scripted writing sessions against a real journal
// and checks the resulting trace.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	storage: sqlite          # or memory
//	preset: pair             # or box
//	strategy: breath         # or length
//	draft: "left over text"  # seeds the draft buffer
//	flow:
//	  - action: set_body
//	    args: { text: "hello" }
//	    expect:
//	      case: ok
//	      result: { mode: neutral }
//	assertions:
//	  - type: trace_contains
//	    action: save
//	  - type: final_state
//	    table: entries
//	    where: { id: entry-1 }
//	    expect: { tone: reflective, session_meta.wpm_avg: 2 }
//
// # Actions
//
//   - begin: start the session; result carries the draft state
//   - key {keys}: record key presses at the current time
//   - set_body {text}, set_title {text}, set_tone {tone}
//   - advance {ms}: move the clock, firing any due autosave
//   - tick {at_ms}: advance the rhythm to an elapsed time
//   - reading: score the live text
//   - save, resolve {choice}, delete {id}, list
//   - clear_draft, clear_all, end
//
// A failed action produces an "error" outcome whose result holds a stable
// code (empty_body, invalid_tone, invalid_choice, not_found).
//
// # Assertion Types
//
//   - trace_contains: Verifies an action appears in the trace with matching args
//   - trace_order: Verifies actions appear in specified order
//   - trace_count: Verifies an action appears exactly N times
//   - final_state: Reads an entry (by id) or the draft buffer and verifies values
//
// # Deterministic Testing
//
// Every run uses a manual clock starting at testutil.Epoch, sequential
// entry ids (entry-1, entry-2, ...) and a fixed capture session id, so
// traces are identical across runs and can be compared with golden files.
package harness
