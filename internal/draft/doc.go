// Package draft manages the single-slot draft buffer that lets an
// interrupted writing session be recovered.
//
// # States
//
//	Empty ──ScheduleAutosave──▶ Drafting ──Committed/Clear──▶ Empty
//	Start (buffer non-empty) ──▶ Recoverable
//	Recoverable ──Resolve(review)──▶ Reviewing ──Committed/Clear──▶ Empty
//	Recoverable ──Resolve(save)──▶ Empty   (buffer folded into a new entry)
//	Recoverable ──Resolve(discard)──▶ Empty
//
// # Autosave
//
// ScheduleAutosave debounces writes: each call cancels the pending write and
// schedules a full overwrite of the buffer after the debounce interval, so
// the last text wins. A write that was cancelled or superseded never reaches
// the buffer, even if its timer already fired. Failed writes are logged and
// otherwise ignored; the next autosave tries again.
//
// While a draft is Recoverable the buffer belongs to the recovery decision.
// Autosaves arriving in that state are held in memory and scheduled once the
// draft is resolved by save or discard.
package draft
