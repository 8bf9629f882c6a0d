package review

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jktrolbot/opositaplus-sub000/internal/fsrs"
	"go.uber.org/zap"
)

type fakeSink struct {
	events []ReviewEvent
	err    error
}

func (f *fakeSink) PublishReview(_ context.Context, e ReviewEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, e)
	return nil
}

func newTestService(store *fakeStore, catalogs *fakeCatalogs, sink EventSink) *Service {
	return NewService(store, catalogs, catalogs, sink, 0, zap.NewNop())
}

func TestSubmitRatingValidation(t *testing.T) {
	svc := newTestService(&fakeStore{}, &fakeCatalogs{}, nil)

	if _, err := svc.SubmitRating(context.Background(), SubmitRequest{ItemID: "x", Rating: fsrs.Good}); !errors.Is(err, ErrMissingField) {
		t.Errorf("missing learner: got %v, want ErrMissingField", err)
	}
	if _, err := svc.SubmitRating(context.Background(), SubmitRequest{LearnerID: "l1", Rating: fsrs.Good}); !errors.Is(err, ErrMissingField) {
		t.Errorf("missing item: got %v, want ErrMissingField", err)
	}
	for _, bad := range []int{0, 5, -2} {
		_, err := svc.SubmitRating(context.Background(), SubmitRequest{LearnerID: "l1", ItemID: "x", Rating: fsrs.Rating(bad)})
		if !errors.Is(err, fsrs.ErrInvalidRating) {
			t.Errorf("rating %d: got %v, want ErrInvalidRating", bad, err)
		}
	}
}

func TestSubmitRatingUnknownItem(t *testing.T) {
	svc := newTestService(&fakeStore{}, &fakeCatalogs{questions: map[string]Question{}, flashcards: map[string]Flashcard{}}, nil)
	_, err := svc.SubmitRating(context.Background(), SubmitRequest{LearnerID: "l1", ItemID: "ghost", Rating: fsrs.Good})
	if !errors.Is(err, ErrItemNotFound) {
		t.Errorf("got %v, want ErrItemNotFound", err)
	}
}

func TestSubmitRatingFirstReview(t *testing.T) {
	store := &fakeStore{}
	catalogs := &fakeCatalogs{
		questions:  map[string]Question{"q1": question("q1")},
		flashcards: map[string]Flashcard{},
	}
	sink := &fakeSink{}
	svc := newTestService(store, catalogs, sink)

	res, err := svc.SubmitRating(context.Background(), SubmitRequest{LearnerID: "l1", ItemID: "q1", Rating: fsrs.Easy})
	if err != nil {
		t.Fatal(err)
	}
	if res.Kind != KindQuestion {
		t.Errorf("kind = %s, want question", res.Kind)
	}
	if res.Outcome.Repetitions != 1 {
		t.Errorf("repetitions = %d, want 1", res.Outcome.Repetitions)
	}
	if len(store.upserted) != 1 {
		t.Fatalf("got %d upserts, want 1", len(store.upserted))
	}
	up := store.upserted[0]
	if up.learnerID != "l1" || up.itemID != "q1" || up.kind != KindQuestion {
		t.Errorf("upsert key = %s/%s/%s", up.learnerID, up.itemID, up.kind)
	}
	if len(sink.events) != 1 || sink.events[0].Rating != 4 {
		t.Errorf("events = %+v, want one Easy event", sink.events)
	}
}

func TestSubmitRatingUsesPriorState(t *testing.T) {
	last := time.Now().UTC().AddDate(0, 0, -5)
	due := time.Now().UTC().Add(-time.Hour)
	s, d := 10.0, 5.0
	store := &fakeStore{rows: []ProgressRow{{
		LearnerID:    "l1",
		ItemID:       "q1",
		Kind:         KindQuestion,
		SubjectID:    "subj",
		Stability:    &s,
		Difficulty:   &d,
		LastReviewed: &last,
		Due:          &due,
		Lapses:       1,
		Repetitions:  3,
	}}}
	catalogs := &fakeCatalogs{
		questions:  map[string]Question{"q1": question("q1")},
		flashcards: map[string]Flashcard{},
	}
	svc := newTestService(store, catalogs, nil)

	res, err := svc.SubmitRating(context.Background(), SubmitRequest{LearnerID: "l1", ItemID: "q1", Rating: fsrs.Good})
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome.Repetitions != 4 {
		t.Errorf("repetitions = %d, want 4", res.Outcome.Repetitions)
	}
	if res.Outcome.State.Stability <= 10 {
		t.Errorf("stability = %f, want growth past 10", res.Outcome.State.Stability)
	}
	if res.Outcome.State.Lapses != 1 {
		t.Errorf("lapses = %d, want carried over 1", res.Outcome.State.Lapses)
	}
}

func TestSubmitRatingResolvesFlashcardFallback(t *testing.T) {
	store := &fakeStore{}
	catalogs := &fakeCatalogs{
		questions:  map[string]Question{},
		flashcards: map[string]Flashcard{"f1": flashcard("f1")},
	}
	svc := newTestService(store, catalogs, nil)

	res, err := svc.SubmitRating(context.Background(), SubmitRequest{LearnerID: "l1", ItemID: "f1", Rating: fsrs.Good})
	if err != nil {
		t.Fatal(err)
	}
	if res.Kind != KindFlashcard {
		t.Errorf("kind = %s, want flashcard", res.Kind)
	}

	// Explicit kind restricts the probe to that catalog.
	_, err = svc.SubmitRating(context.Background(), SubmitRequest{LearnerID: "l1", ItemID: "f1", Rating: fsrs.Good, Kind: KindQuestion})
	if !errors.Is(err, ErrItemNotFound) {
		t.Errorf("explicit wrong kind: got %v, want ErrItemNotFound", err)
	}
}

func TestSubmitRatingSurvivesEventFailure(t *testing.T) {
	store := &fakeStore{}
	catalogs := &fakeCatalogs{
		questions:  map[string]Question{"q1": question("q1")},
		flashcards: map[string]Flashcard{},
	}
	sink := &fakeSink{err: errors.New("stream down")}
	svc := newTestService(store, catalogs, sink)

	if _, err := svc.SubmitRating(context.Background(), SubmitRequest{LearnerID: "l1", ItemID: "q1", Rating: fsrs.Good}); err != nil {
		t.Fatalf("submission failed on event error: %v", err)
	}
	if len(store.upserted) != 1 {
		t.Errorf("got %d upserts, want 1", len(store.upserted))
	}
}

func TestSubmitRatingMalformedStoredState(t *testing.T) {
	// Row exists but is missing stability: degrade to first-review path.
	d := 5.0
	last := time.Now().UTC().AddDate(0, 0, -5)
	store := &fakeStore{rows: []ProgressRow{{
		LearnerID:    "l1",
		ItemID:       "q1",
		Kind:         KindQuestion,
		Difficulty:   &d,
		LastReviewed: &last,
		Repetitions:  3,
	}}}
	catalogs := &fakeCatalogs{
		questions:  map[string]Question{"q1": question("q1")},
		flashcards: map[string]Flashcard{},
	}
	svc := newTestService(store, catalogs, nil)

	res, err := svc.SubmitRating(context.Background(), SubmitRequest{LearnerID: "l1", ItemID: "q1", Rating: fsrs.Good})
	if err != nil {
		t.Fatal(err)
	}
	// First-review semantics: repetitions restart at 1, not 4.
	if res.Outcome.Repetitions != 1 {
		t.Errorf("repetitions = %d, want 1 (first-review path)", res.Outcome.Repetitions)
	}
}
