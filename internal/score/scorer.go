package score

import "github.com/roach88/aionic/internal/model"

// Reading is the full classification of one score.
type Reading struct {
	DeltaE     float64          `json:"delta_e"`
	Mode       Mode             `json:"mode"`
	Confidence model.Confidence `json:"confidence"`
	Guidance   string           `json:"guidance"`
}

// Classify builds a Reading for deltaE.
func Classify(deltaE float64) Reading {
	mode := ClassifyMode(deltaE)
	return Reading{
		DeltaE:     deltaE,
		Mode:       mode,
		Confidence: ClassifyConfidence(deltaE),
		Guidance:   mode.Guidance(),
	}
}

// Scorer applies a Strategy and classifies the result.
type Scorer struct {
	strategy Strategy
}

// NewScorer creates a scorer. A nil strategy uses Breath.
func NewScorer(s Strategy) *Scorer {
	if s == nil {
		s = Breath{Saturation: LengthSaturation}
	}
	return &Scorer{strategy: s}
}

// Strategy returns the scorer's strategy.
func (s *Scorer) Strategy() Strategy { return s.strategy }

// Score computes and classifies ΔE for text at coherence.
func (s *Scorer) Score(text string, coherence float64) Reading {
	return Classify(s.strategy.Delta(text, coherence))
}
