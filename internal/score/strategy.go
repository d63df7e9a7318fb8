package score

import (
	"fmt"
	"sort"
)

// Strategy computes ΔE from text and coherence.
type Strategy interface {
	Name() string
	Delta(text string, coherence float64) float64
}

// Strategy names.
const (
	StrategyBreath = "breath"
	StrategyLength = "length"
)

// NeutralCoherence is the coherence assumed when breath data is absent.
const NeutralCoherence = 0.5

// Breath is the canonical strategy: text length and live coherence.
type Breath struct {
	Saturation int
}

func (b Breath) Name() string { return StrategyBreath }

func (b Breath) Delta(text string, coherence float64) float64 {
	return (LengthFactor(text, b.Saturation)+coherence)/2 - 0.5
}

// Length ignores coherence and scores as if it were pinned at 0.5. It
// reproduces records written before breath coherence was tracked.
type Length struct {
	Saturation int
}

func (l Length) Name() string { return StrategyLength }

func (l Length) Delta(text string, _ float64) float64 {
	return (LengthFactor(text, l.Saturation)+NeutralCoherence)/2 - 0.5
}

// Lookup returns the strategy registered under name with the given length
// saturation. An empty name selects the breath strategy.
func Lookup(name string, saturation int) (Strategy, error) {
	switch name {
	case "", StrategyBreath:
		return Breath{Saturation: saturation}, nil
	case StrategyLength:
		return Length{Saturation: saturation}, nil
	}
	return nil, fmt.Errorf("score: unknown strategy %q (known: %v)", name, Names())
}

// Names lists the registered strategy names.
func Names() []string {
	names := []string{StrategyBreath, StrategyLength}
	sort.Strings(names)
	return names
}
