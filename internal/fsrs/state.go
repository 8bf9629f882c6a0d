package fsrs

import (
	"math"
	"time"
)

// MemoryState is the FSRS memory model for one (learner, item) pair.
// Stability and difficulty are clamped on every write; retrievability is
// recomputed from elapsed time on each review, never trusted from storage.
type MemoryState struct {
	Difficulty       float64   `json:"difficulty"`
	Stability        float64   `json:"stability"`
	Retrievability   float64   `json:"retrievability"`
	LastReviewed     time.Time `json:"lastReviewed"`
	Due              time.Time `json:"due"`
	Lapses           int       `json:"lapses"`
	DesiredRetention float64   `json:"desiredRetention"`
	Decay            float64   `json:"decay"`
}

// ReviewOutcome is the result of applying one rating.
type ReviewOutcome struct {
	State        MemoryState
	NextReview   time.Time
	IntervalDays int
	Repetitions  int
	// Easiness is 11 - difficulty, kept for backward-compatible reporting.
	Easiness float64
}

// valid reports whether the state carries usable numeric history.
// A state failing this check is treated as "never reviewed".
func (m *MemoryState) valid() bool {
	if m == nil {
		return false
	}
	if math.IsNaN(m.Stability) || math.IsInf(m.Stability, 0) || m.Stability <= 0 {
		return false
	}
	if math.IsNaN(m.Difficulty) || math.IsInf(m.Difficulty, 0) || m.Difficulty <= 0 {
		return false
	}
	return !m.LastReviewed.IsZero()
}

// ParseState builds a MemoryState from values read back from storage.
// Malformed rows (missing stability, difficulty, or last-review time) yield
// nil rather than an error: the caller falls back to the first-review path.
func ParseState(difficulty, stability *float64, lastReviewed, due *time.Time, lapses int, desiredRetention, decay float64) *MemoryState {
	if difficulty == nil || stability == nil || lastReviewed == nil {
		return nil
	}
	m := &MemoryState{
		Difficulty:       *difficulty,
		Stability:        *stability,
		LastReviewed:     *lastReviewed,
		Lapses:           lapses,
		DesiredRetention: desiredRetention,
		Decay:            decay,
	}
	if due != nil {
		m.Due = *due
	}
	if !m.valid() {
		return nil
	}
	return m
}
