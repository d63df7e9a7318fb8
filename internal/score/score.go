// Package score derives the delta score (ΔE) from live text and breath
// coherence, and classifies it into a UI mode and a confidence tier.
//
// All functions here are pure. Mode and confidence thresholds are
// deliberately asymmetric: a score of exactly -0.3 is neutral but has low
// confidence.
package score

import (
	"math"

	"github.com/roach88/aionic/internal/model"
)

// LengthSaturation is the character count at which text length stops
// contributing to ΔE.
const LengthSaturation = 500

// Thresholds shared by mode and confidence classification.
const (
	LowThreshold  = -0.3
	HighThreshold = 0.3
)

// Mode is the adaptive UI mode selected by ΔE.
type Mode string

const (
	ModeCalm    Mode = "calm"
	ModeNeutral Mode = "neutral"
	ModeUplift  Mode = "uplift"
)

var guidance = map[Mode]string{
	ModeCalm:    "Breathe...",
	ModeNeutral: "Write what emerges...",
	ModeUplift:  "You're flowing...",
}

// Guidance returns the display message for m.
func (m Mode) Guidance() string {
	return guidance[m]
}

// LengthFactor returns min(chars/saturation, 1). A non-positive saturation
// uses LengthSaturation.
func LengthFactor(text string, saturation int) float64 {
	if saturation <= 0 {
		saturation = LengthSaturation
	}
	return math.Min(float64(model.CharCount(text))/float64(saturation), 1)
}

// ComputeDelta returns (lengthFactor + coherence)/2 - 0.5.
//
// Empty text at the 0.5 coherence floor yields -0.25; saturated text at the
// 0.9 ceiling yields 0.45.
func ComputeDelta(text string, coherence float64) float64 {
	return (LengthFactor(text, LengthSaturation)+coherence)/2 - 0.5
}

// ClassifyMode maps ΔE to a mode. Both thresholds are exclusive.
func ClassifyMode(deltaE float64) Mode {
	switch {
	case deltaE < LowThreshold:
		return ModeCalm
	case deltaE > HighThreshold:
		return ModeUplift
	default:
		return ModeNeutral
	}
}

// ClassifyConfidence maps ΔE to a confidence tier.
func ClassifyConfidence(deltaE float64) model.Confidence {
	switch {
	case deltaE > HighThreshold:
		return model.ConfidenceHigh
	case deltaE > LowThreshold:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}
