package fsrs

import (
	"errors"
	"fmt"
)

// Rating is the learner's assessment of a review, ordered worst to best.
type Rating int

const (
	Forgot Rating = iota + 1 // failed to recall
	Hard                     // recalled with significant difficulty
	Good                     // recalled with some effort
	Easy                     // recalled effortlessly
)

// ErrInvalidRating is returned for ratings outside {1, 2, 3, 4}.
var ErrInvalidRating = errors.New("fsrs: invalid rating")

var ratingNames = [...]string{Forgot: "Forgot", Hard: "Hard", Good: "Good", Easy: "Easy"}

// IsValid reports whether r is one of the four defined ratings.
func (r Rating) IsValid() bool {
	return r >= Forgot && r <= Easy
}

// String returns the rating name, or "Rating(n)" for invalid values.
func (r Rating) String() string {
	if r.IsValid() {
		return ratingNames[r]
	}
	return fmt.Sprintf("Rating(%d)", int(r))
}
