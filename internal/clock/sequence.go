package clock

import "sync/atomic"

// Sequence is a monotonic logical counter.
//
// Entries created within the same wall-clock instant are ordered by the
// sequence number they were assigned on insert, which keeps listings
// deterministic regardless of timer resolution.
//
// Thread-safety: Sequence is safe for concurrent use (atomic operations).
type Sequence struct {
	seq atomic.Int64
}

// NewSequence creates a sequence starting at 0.
func NewSequence() *Sequence {
	return &Sequence{}
}

// Next returns the next sequence number.
func (s *Sequence) Next() int64 {
	return s.seq.Add(1)
}

// Current returns the last issued sequence number without incrementing.
func (s *Sequence) Current() int64 {
	return s.seq.Load()
}
