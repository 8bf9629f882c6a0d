package review

import (
	"context"
	"fmt"
	"time"

	"github.com/jktrolbot/opositaplus-sub000/internal/fsrs"
	"go.uber.org/zap"
)

// ReviewEvent describes one accepted rating, for the analytics feed.
type ReviewEvent struct {
	LearnerID    string    `json:"learner_id"`
	ItemID       string    `json:"item_id"`
	Kind         ItemKind  `json:"item_kind"`
	Rating       int       `json:"rating"`
	IntervalDays int       `json:"interval_days"`
	NextReview   time.Time `json:"next_review"`
	ReviewedAt   time.Time `json:"reviewed_at"`
}

// EventSink receives review events. Publishing is best effort: failures are
// logged, never surfaced to the learner.
type EventSink interface {
	PublishReview(ctx context.Context, e ReviewEvent) error
}

// SubmitRequest is one rating submission.
type SubmitRequest struct {
	LearnerID string
	ItemID    string
	Rating    fsrs.Rating
	// Kind is optional; when empty the item is resolved by probing the
	// question bank first, then the flashcard bank.
	Kind ItemKind
}

// SubmitResult is the outcome of an accepted rating.
type SubmitResult struct {
	Outcome fsrs.ReviewOutcome
	Kind    ItemKind
}

// Service applies ratings: it resolves the rated item, loads prior memory
// state, runs the scheduler, and persists the outcome with last-write-wins
// upsert semantics on the (learner, item, kind) key.
type Service struct {
	progress   ProgressStore
	questions  QuestionCatalog
	flashcards FlashcardCatalog
	events     EventSink
	retention  float64
	logger     *zap.Logger
}

// NewService creates a Service. events may be nil (no feed). retention is the
// deployment-wide desired retention; zero falls back to the engine default.
func NewService(progress ProgressStore, questions QuestionCatalog, flashcards FlashcardCatalog, events EventSink, retention float64, logger *zap.Logger) *Service {
	return &Service{
		progress:   progress,
		questions:  questions,
		flashcards: flashcards,
		events:     events,
		retention:  retention,
		logger:     logger,
	}
}

// SubmitRating validates and applies one rating.
func (s *Service) SubmitRating(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	if req.LearnerID == "" || req.ItemID == "" {
		return SubmitResult{}, fmt.Errorf("%w: learner_id and item_id", ErrMissingField)
	}
	if !req.Rating.IsValid() {
		return SubmitResult{}, fmt.Errorf("%w: %d", fsrs.ErrInvalidRating, int(req.Rating))
	}

	kind, err := s.resolveKind(ctx, req.ItemID, req.Kind)
	if err != nil {
		return SubmitResult{}, err
	}

	row, err := s.progress.GetProgress(ctx, req.LearnerID, req.ItemID, kind)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("get progress: %w", err)
	}

	var prev *fsrs.MemoryState
	previousRepetitions := 0
	if row != nil {
		prev = row.State() // nil on malformed rows: first-review path
		previousRepetitions = row.Repetitions
	}

	now := time.Now().UTC()
	outcome, err := fsrs.Review(req.Rating, prev, previousRepetitions, now, s.retention)
	if err != nil {
		return SubmitResult{}, err
	}

	if err := s.progress.UpsertProgress(ctx, req.LearnerID, req.ItemID, kind, outcome); err != nil {
		return SubmitResult{}, fmt.Errorf("upsert progress: %w", err)
	}

	if s.events != nil {
		e := ReviewEvent{
			LearnerID:    req.LearnerID,
			ItemID:       req.ItemID,
			Kind:         kind,
			Rating:       int(req.Rating),
			IntervalDays: outcome.IntervalDays,
			NextReview:   outcome.NextReview,
			ReviewedAt:   now,
		}
		if err := s.events.PublishReview(ctx, e); err != nil {
			s.logger.Warn("review event publish failed", zap.String("item_id", req.ItemID), zap.Error(err))
		}
	}

	return SubmitResult{Outcome: outcome, Kind: kind}, nil
}

// resolveKind confirms the rated item exists in its catalog. An explicit kind
// is checked against that catalog only; otherwise questions are probed first.
func (s *Service) resolveKind(ctx context.Context, itemID string, kind ItemKind) (ItemKind, error) {
	tryQuestion := kind == "" || kind == KindQuestion
	tryFlashcard := kind == "" || kind == KindFlashcard
	if !tryQuestion && !tryFlashcard {
		return "", fmt.Errorf("%w: unknown item kind %q", ErrItemNotFound, kind)
	}

	if tryQuestion {
		qs, err := s.questions.QuestionsByIDs(ctx, []string{itemID})
		if err != nil {
			return "", fmt.Errorf("resolve question: %w", err)
		}
		if len(qs) > 0 {
			return KindQuestion, nil
		}
	}
	if tryFlashcard {
		fcs, err := s.flashcards.FlashcardsByIDs(ctx, []string{itemID})
		if err != nil {
			return "", fmt.Errorf("resolve flashcard: %w", err)
		}
		if len(fcs) > 0 {
			return KindFlashcard, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
}
