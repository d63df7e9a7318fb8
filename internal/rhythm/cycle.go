package rhythm

import (
	"errors"
	"fmt"
	"time"
)

// Phase is one named segment of a breath cycle.
type Phase struct {
	Name     string
	Duration time.Duration
}

// PhaseState is the position inside the current phase.
// Progress is in [0,1].
type PhaseState struct {
	Name     string  `json:"name"`
	Progress float64 `json:"progress"`
}

// Phase names used by the presets.
const (
	PhaseInhale  = "inhale"
	PhaseHold    = "hold"
	PhaseExhale  = "exhale"
	PhaseHoldOut = "hold_out"
	PhaseRest    = "rest"
)

// Preset names.
const (
	PresetPair = "pair"
	PresetBox  = "box"
)

// PairPhases is a 4 s cycle: 2 s inhale, 2 s exhale.
var PairPhases = []Phase{
	{Name: PhaseInhale, Duration: 2 * time.Second},
	{Name: PhaseExhale, Duration: 2 * time.Second},
}

// BoxPhases is the 17 s five-phase cycle.
var BoxPhases = []Phase{
	{Name: PhaseInhale, Duration: 3 * time.Second},
	{Name: PhaseHold, Duration: 3 * time.Second},
	{Name: PhaseExhale, Duration: 4 * time.Second},
	{Name: PhaseHoldOut, Duration: 4 * time.Second},
	{Name: PhaseRest, Duration: 3 * time.Second},
}

// ErrEmptyCycle is returned when a cycle has no phases.
var ErrEmptyCycle = errors.New("rhythm: cycle has no phases")

// Cycle is an immutable, validated phase sequence.
type Cycle struct {
	phases []Phase
	total  time.Duration
}

// NewCycle validates phases and returns a Cycle.
// Every phase needs a name and a positive duration.
func NewCycle(phases ...Phase) (Cycle, error) {
	if len(phases) == 0 {
		return Cycle{}, ErrEmptyCycle
	}
	var total time.Duration
	for i, p := range phases {
		if p.Name == "" {
			return Cycle{}, fmt.Errorf("rhythm: phase %d has no name", i)
		}
		if p.Duration <= 0 {
			return Cycle{}, fmt.Errorf("rhythm: phase %q has non-positive duration %v", p.Name, p.Duration)
		}
		total += p.Duration
	}
	return Cycle{phases: append([]Phase(nil), phases...), total: total}, nil
}

// MustCycle is NewCycle that panics on error. For package-level presets.
func MustCycle(phases ...Phase) Cycle {
	c, err := NewCycle(phases...)
	if err != nil {
		panic(err)
	}
	return c
}

// Preset returns the cycle for a named preset.
func Preset(name string) (Cycle, error) {
	switch name {
	case PresetPair:
		return MustCycle(PairPhases...), nil
	case PresetBox:
		return MustCycle(BoxPhases...), nil
	}
	return Cycle{}, fmt.Errorf("rhythm: unknown preset %q", name)
}

// Total returns the full cycle length.
func (c Cycle) Total() time.Duration { return c.total }

// Phases returns a copy of the phase list.
func (c Cycle) Phases() []Phase { return append([]Phase(nil), c.phases...) }

// Completed returns how many whole cycles fit in elapsed.
func (c Cycle) Completed(elapsed time.Duration) int64 {
	if c.total <= 0 || elapsed <= 0 {
		return 0
	}
	return int64(elapsed / c.total)
}

// PhaseAt returns the phase state at elapsed. Negative elapsed is treated
// as zero. The last phase absorbs any remainder.
func (c Cycle) PhaseAt(elapsed time.Duration) PhaseState {
	if len(c.phases) == 0 {
		return PhaseState{}
	}
	if elapsed < 0 {
		elapsed = 0
	}
	pos := elapsed % c.total

	var acc time.Duration
	for _, p := range c.phases {
		if pos < acc+p.Duration {
			return PhaseState{Name: p.Name, Progress: float64(pos-acc) / float64(p.Duration)}
		}
		acc += p.Duration
	}
	last := c.phases[len(c.phases)-1]
	return PhaseState{Name: last.Name, Progress: 1}
}
