// Package rhythm turns elapsed time into a repeating breath phase signal and
// a bounded coherence level that grows as cycles complete.
//
// A Cycle is an ordered list of named phases. Cycle.PhaseAt is pure: the
// same elapsed time always yields the same PhaseState, and PhaseAt(t) equals
// PhaseAt(t + Total()). A Generator wraps a Cycle and owns the coherence
// level, which starts at the floor (0.5), rises by a fixed step (0.04) for
// every completed cycle and never exceeds the ceiling (0.9).
//
// Generators are pull-based: callers invoke Tick with a non-decreasing
// elapsed time and read State or Coherence whenever they need the current
// value. A Driver supplies the periodic ticks from a clock.Ticker.
package rhythm
