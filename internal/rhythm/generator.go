package rhythm

import (
	"math"
	"sync"
	"time"
)

// Coherence bounds and step.
const (
	CoherenceFloor   = 0.5
	CoherenceCeiling = 0.9
	CoherenceStep    = 0.04
)

// State is the pull-based view of a generator.
type State struct {
	Phase     PhaseState    `json:"phase"`
	Coherence float64       `json:"coherence"`
	Cycles    int64         `json:"cycles"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Generator tracks phase and accumulates coherence.
//
// Thread-safety: Generator is safe for concurrent use; the driver ticks it
// while other goroutines read State or Coherence.
type Generator struct {
	cycle   Cycle
	step    float64
	floor   float64
	ceiling float64

	mu        sync.Mutex
	coherence float64
	cycles    int64
	elapsed   time.Duration
	phase     PhaseState
}

// Option configures a Generator.
type Option func(*Generator)

// WithStep sets the coherence increment per completed cycle.
func WithStep(step float64) Option {
	return func(g *Generator) { g.step = step }
}

// WithBounds sets the coherence floor and ceiling.
func WithBounds(floor, ceiling float64) Option {
	return func(g *Generator) {
		g.floor = floor
		g.ceiling = ceiling
	}
}

// NewGenerator creates a generator at the coherence floor.
func NewGenerator(cycle Cycle, opts ...Option) *Generator {
	g := &Generator{
		cycle:   cycle,
		step:    CoherenceStep,
		floor:   CoherenceFloor,
		ceiling: CoherenceCeiling,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.ceiling < g.floor {
		g.ceiling = g.floor
	}
	g.coherence = g.floor
	g.phase = cycle.PhaseAt(0)
	return g
}

// Tick advances the generator to elapsed and returns the phase state.
//
// Each newly completed cycle raises coherence by one step, clamped at the
// ceiling. An elapsed value lower than one already seen still returns the
// phase for that time but never lowers the cycle count or coherence.
func (g *Generator) Tick(elapsed time.Duration) PhaseState {
	ps := g.cycle.PhaseAt(elapsed)
	completed := g.cycle.Completed(elapsed)

	g.mu.Lock()
	defer g.mu.Unlock()
	if completed > g.cycles {
		advanced := completed - g.cycles
		g.cycles = completed
		g.coherence = math.Min(g.ceiling, g.coherence+float64(advanced)*g.step)
	}
	if elapsed > g.elapsed {
		g.elapsed = elapsed
	}
	g.phase = ps
	return ps
}

// Coherence returns the current coherence level.
func (g *Generator) Coherence() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.coherence
}

// Elapsed returns the highest elapsed time seen so far.
func (g *Generator) Elapsed() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.elapsed
}

// State returns the last computed phase together with coherence.
func (g *Generator) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return State{Phase: g.phase, Coherence: g.coherence, Cycles: g.cycles, Elapsed: g.elapsed}
}

// Cycle returns the generator's cycle definition.
func (g *Generator) Cycle() Cycle { return g.cycle }
