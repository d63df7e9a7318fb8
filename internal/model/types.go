package model

import "time"

// Tone is the declared emotional tag of an entry.
type Tone string

const (
	ToneReflective Tone = "reflective"
	ToneGrateful   Tone = "grateful"
	ToneProcessing Tone = "processing"
	ToneRaw        Tone = "raw"
)

// DefaultTone is applied by the store when an entry carries no tone.
const DefaultTone = ToneReflective

// Tones lists the tone vocabulary in display order.
var Tones = []Tone{ToneReflective, ToneGrateful, ToneProcessing, ToneRaw}

// Valid reports whether t is part of the tone vocabulary.
func (t Tone) Valid() bool {
	for _, known := range Tones {
		if t == known {
			return true
		}
	}
	return false
}

// Confidence is the tiered confidence level derived from a delta score.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// DefaultConfidence is applied by the store when an entry carries none.
const DefaultConfidence = ConfidenceMedium

// RecoveryChoice records how a recovered draft was resolved.
type RecoveryChoice string

const (
	RecoveryReview  RecoveryChoice = "review"
	RecoverySave    RecoveryChoice = "save"
	RecoveryDiscard RecoveryChoice = "discard"
)

// Valid reports whether c is one of the three recovery choices.
func (c RecoveryChoice) Valid() bool {
	switch c {
	case RecoveryReview, RecoverySave, RecoveryDiscard:
		return true
	}
	return false
}

// SessionMeta is the behavioural snapshot of one editing session.
// RecoveryChoice is nil unless the saved text came through draft recovery.
type SessionMeta struct {
	DurationSeconds int             `json:"session_duration_s"`
	WordCountFinal  int             `json:"word_count_final"`
	WPMAvg          int             `json:"wpm_avg"`
	EditCount       int             `json:"edit_count"`
	BackspaceRatio  float64         `json:"backspace_ratio"`
	CoherenceAtSave float64         `json:"coherence_at_save"`
	TitleFilled     bool            `json:"title_filled"`
	ToneChanges     int             `json:"tone_changes"`
	DraftRecovered  bool            `json:"draft_recovered"`
	RecoveryChoice  *RecoveryChoice `json:"recovery_choice"`
}

// Entry is a finished journal entry.
//
// Entries are never physically removed by the session flow: deletion sets
// Deleted and stamps DeletedAt. Seq is the store-assigned insertion sequence
// used to break CreatedAt ties; it is not part of the serialized record.
type Entry struct {
	ID               string       `json:"id"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
	Title            string       `json:"title"`
	Content          string       `json:"content"`
	Tone             Tone         `json:"tone"`
	DeltaE           float64      `json:"delta_e"`
	Confidence       Confidence   `json:"confidence"`
	CaptureSessionID string       `json:"capture_session_id"`
	SessionMeta      *SessionMeta `json:"session_meta"`
	Deleted          bool         `json:"deleted"`
	DeletedAt        *time.Time   `json:"deleted_at"`

	Seq int64 `json:"-"`
}

// ApplyDefaults fills unset optional fields with their store defaults.
func (e *Entry) ApplyDefaults() {
	if e.Tone == "" {
		e.Tone = DefaultTone
	}
	if e.Confidence == "" {
		e.Confidence = DefaultConfidence
	}
}

// Choice returns a pointer to c, for use in SessionMeta.
func Choice(c RecoveryChoice) *RecoveryChoice {
	return &c
}
