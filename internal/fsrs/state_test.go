package fsrs

import (
	"math"
	"testing"
	"time"
)

func TestParseState(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	s, d := 10.0, 5.0
	nan := math.NaN()

	if got := ParseState(&d, &s, &now, &now, 2, 0.9, DefaultDecay); got == nil {
		t.Fatal("complete row should parse")
	} else if got.Lapses != 2 || got.Stability != 10 {
		t.Errorf("parsed state wrong: %+v", got)
	}

	cases := []struct {
		name       string
		difficulty *float64
		stability  *float64
		reviewed   *time.Time
	}{
		{"missing difficulty", nil, &s, &now},
		{"missing stability", &d, nil, &now},
		{"missing last reviewed", &d, &s, nil},
		{"nan stability", &d, &nan, &now},
	}
	for _, c := range cases {
		if got := ParseState(c.difficulty, c.stability, c.reviewed, nil, 0, 0, 0); got != nil {
			t.Errorf("%s: expected nil, got %+v", c.name, got)
		}
	}
}

func TestRowWithoutDueStillParses(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	s, d := 10.0, 5.0
	got := ParseState(&d, &s, &now, nil, 0, 0.9, DefaultDecay)
	if got == nil {
		t.Fatal("row missing only due should parse")
	}
	if !got.Due.IsZero() {
		t.Errorf("due = %v, want zero", got.Due)
	}
}
