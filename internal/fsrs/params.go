package fsrs

import "math"

// Weights are the 21 FSRS-6 calibration constants (standard parameterization).
// They are process-wide compile-time constants, not learner-configurable.
var Weights = [21]float64{
	0.212, 1.2931, 2.3065, 8.2956, // w0..w3  initial stability per rating
	6.4133, 0.8334, 3.0194, 0.001, // w4..w7  difficulty
	1.8722, 0.1666, 0.796, 1.4835, // w8..w11 recall stability
	0.0614, 0.2629, 1.6483, 0.6014, // w12..w15 forget stability, hard penalty
	1.8729, 0.5425, 0.0912, 0.0658, // w16..w19 easy bonus, short-term
	0.1542, // w20 decay exponent
}

// Bounds for the pieces of MemoryState that are clamped on every write.
const (
	StabilityMin  = 0.1
	StabilityMax  = 36500
	DifficultyMin = 1.0
	DifficultyMax = 10.0

	RetentionMin     = 0.70
	RetentionMax     = 0.97
	DefaultRetention = 0.90

	DecayMin = 0.05
	DecayMax = 2.0
)

// DefaultDecay is the forgetting-curve shape parameter, w20.
var DefaultDecay = Weights[20]

// intervalMultiplier scales the retention-derived interval per rating.
// Fixed constants, not fitted per learner.
var intervalMultiplier = [5]float64{0, 0, 0.8, 1.0, 1.3}

// relapseCapDays bounds the relearning interval after a Forgot rating.
const relapseCapDays = 1.5

func clampStability(s float64) float64 {
	return math.Min(math.Max(s, StabilityMin), StabilityMax)
}

func clampDifficulty(d float64) float64 {
	return math.Min(math.Max(d, DifficultyMin), DifficultyMax)
}

func clampRetention(r float64) float64 {
	return math.Min(math.Max(r, RetentionMin), RetentionMax)
}

func clampDecay(d float64) float64 {
	return math.Min(math.Max(d, DecayMin), DecayMax)
}
