package fsrs

import (
	"fmt"
	"math"
	"time"
)

// Review applies one rating to an item's memory state and returns the updated
// state with the next due date. It is a pure function: no I/O, no shared
// state, deterministic given its arguments.
//
// prev may be nil (item never reviewed); a prev that fails validation is
// treated as nil rather than propagated. previousRepetitions feeds only the
// new repetition count. desiredRetention overrides the target recall
// probability when non-zero, otherwise the previous state's stored value is
// used, falling back to 0.90; either way it is clamped to [0.70, 0.97].
func Review(rating Rating, prev *MemoryState, previousRepetitions int, now time.Time, desiredRetention float64) (ReviewOutcome, error) {
	if !rating.IsValid() {
		return ReviewOutcome{}, fmt.Errorf("%w: %d", ErrInvalidRating, int(rating))
	}
	if !prev.valid() {
		prev = nil
	}
	if previousRepetitions < 0 {
		previousRepetitions = 0
	}

	retention := desiredRetention
	if retention == 0 && prev != nil {
		retention = prev.DesiredRetention
	}
	if retention == 0 {
		retention = DefaultRetention
	}
	retention = clampRetention(retention)

	decay := DefaultDecay
	if prev != nil && prev.Decay != 0 {
		decay = clampDecay(prev.Decay)
	}

	if prev == nil {
		return firstReview(rating, now, retention, decay), nil
	}
	return nextReview(rating, prev, previousRepetitions, now, retention, decay), nil
}

// firstReview initializes memory state from the calibration tables alone.
func firstReview(rating Rating, now time.Time, retention, decay float64) ReviewOutcome {
	stability := initStability(rating)
	difficulty := initDifficulty(rating, true)

	// No history to measure decay from: fixed retrievability fallback.
	retrievability := 1.0
	if rating == Forgot {
		retrievability = 0.35
	}

	days := 0
	if rating != Forgot {
		base := intervalDays(stability, retention, decay)
		days = roundDays(base*intervalMultiplier[rating], 1)
	}

	repetitions := 0
	lapses := 0
	if rating == Forgot {
		lapses = 1
	} else {
		repetitions = 1
	}

	return outcome(stability, difficulty, retrievability, now, days, repetitions, lapses, retention, decay)
}

// nextReview updates existing memory state from elapsed time and the rating.
func nextReview(rating Rating, prev *MemoryState, previousRepetitions int, now time.Time, retention, decay float64) ReviewOutcome {
	elapsedDays := now.Sub(prev.LastReviewed).Hours() / 24
	if elapsedDays < 0 {
		elapsedDays = 0
	}

	stability := clampStability(prev.Stability)
	difficulty := clampDifficulty(prev.Difficulty)
	retrievability := Retrievability(elapsedDays, stability, decay)

	var newStability float64
	if elapsedDays < 1 {
		// Same-day re-review: the forgetting curve assumes at least a day
		// has elapsed, so use the short-term formula instead.
		newStability = shortTermStability(stability, rating)
	} else if rating == Forgot {
		newStability = nextForgetStability(difficulty, stability, retrievability)
	} else {
		newStability = nextRecallStability(difficulty, stability, retrievability, rating)
	}
	newDifficulty := nextDifficulty(difficulty, rating)

	var days int
	if rating == Forgot {
		// Fast relearning pass: cap the interval before rounding.
		days = roundDays(math.Min(intervalDays(newStability, retention, decay), relapseCapDays), 1)
	} else {
		days = roundDays(intervalDays(newStability, retention, decay)*intervalMultiplier[rating], 1)
	}

	repetitions := 0
	lapses := prev.Lapses
	if rating == Forgot {
		lapses++
	} else {
		repetitions = previousRepetitions + 1
	}

	return outcome(newStability, newDifficulty, retrievability, now, days, repetitions, lapses, retention, decay)
}

func outcome(stability, difficulty, retrievability float64, now time.Time, days, repetitions, lapses int, retention, decay float64) ReviewOutcome {
	due := now.Add(time.Duration(days) * 24 * time.Hour)
	return ReviewOutcome{
		State: MemoryState{
			Difficulty:       difficulty,
			Stability:        stability,
			Retrievability:   retrievability,
			LastReviewed:     now,
			Due:              due,
			Lapses:           lapses,
			DesiredRetention: retention,
			Decay:            decay,
		},
		NextReview:   due,
		IntervalDays: days,
		Repetitions:  repetitions,
		Easiness:     11 - difficulty,
	}
}

// roundDays rounds an interval to whole days with a floor.
func roundDays(days float64, min int) int {
	d := int(math.Round(days))
	if d < min {
		d = min
	}
	return d
}
