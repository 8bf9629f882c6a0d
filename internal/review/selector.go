package review

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Selector assembles review working sets: overdue items first (soonest due
// first), padded with unseen items when the backlog is smaller than capacity.
// It never mutates state; memory state changes only through Service.
type Selector struct {
	progress   ProgressStore
	questions  QuestionCatalog
	flashcards FlashcardCatalog
	logger     *zap.Logger
}

// NewSelector creates a Selector.
func NewSelector(progress ProgressStore, questions QuestionCatalog, flashcards FlashcardCatalog, logger *zap.Logger) *Selector {
	return &Selector{
		progress:   progress,
		questions:  questions,
		flashcards: flashcards,
		logger:     logger,
	}
}

// SelectDueItems returns up to capacity items for (learner, subject): all due
// items ordered by ascending due timestamp, then new items, questions before
// flashcards. The caller clamps capacity to its configured range.
func (s *Selector) SelectDueItems(ctx context.Context, learnerID, subjectID string, capacity int, now time.Time) (Selection, error) {
	rows, err := s.progress.GetDueProgress(ctx, learnerID, subjectID, now, capacity)
	if err != nil {
		return Selection{}, fmt.Errorf("get due progress: %w", err)
	}

	var questionIDs, flashcardIDs []string
	for _, r := range rows {
		switch r.Kind {
		case KindFlashcard:
			flashcardIDs = append(flashcardIDs, r.ItemID)
		default:
			questionIDs = append(questionIDs, r.ItemID)
		}
	}

	questionByID := map[string]Question{}
	if len(questionIDs) > 0 {
		qs, err := s.questions.QuestionsByIDs(ctx, questionIDs)
		if err != nil {
			return Selection{}, fmt.Errorf("fetch due questions: %w", err)
		}
		for _, q := range qs {
			questionByID[q.ID] = q
		}
	}
	flashcardByID := map[string]Flashcard{}
	if len(flashcardIDs) > 0 {
		fcs, err := s.flashcards.FlashcardsByIDs(ctx, flashcardIDs)
		if err != nil {
			return Selection{}, fmt.Errorf("fetch due flashcards: %w", err)
		}
		for _, f := range fcs {
			flashcardByID[f.ID] = f
		}
	}

	// Due set, preserving store ordering. Rows whose content was deleted
	// are dropped silently.
	items := make([]DueItem, 0, capacity)
	seen := make(map[string]bool, capacity)
	for _, r := range rows {
		var content interface{}
		switch r.Kind {
		case KindFlashcard:
			f, ok := flashcardByID[r.ItemID]
			if !ok {
				s.logger.Debug("due flashcard no longer exists", zap.String("item_id", r.ItemID))
				continue
			}
			content = f
		default:
			q, ok := questionByID[r.ItemID]
			if !ok {
				s.logger.Debug("due question no longer exists", zap.String("item_id", r.ItemID))
				continue
			}
			content = q
		}
		items = append(items, dueItemFromRow(r, content))
		seen[r.ItemID] = true
	}
	dueCount := len(items)

	remaining := capacity - dueCount
	if remaining < 0 {
		remaining = 0
	}
	if remaining > 0 {
		fresh, err := s.newItems(ctx, subjectID, seen, remaining)
		if err != nil {
			return Selection{}, err
		}
		items = append(items, fresh...)
	}

	return Selection{
		Items:    items,
		DueCount: dueCount,
		NewCount: len(items) - dueCount,
	}, nil
}

// newItems fetches unseen candidates, questions first up to remaining, then
// flashcards to fill the leftover slots. Over-fetching 2x covers candidates
// lost to the exclusion filter on the catalog side.
func (s *Selector) newItems(ctx context.Context, subjectID string, seen map[string]bool, remaining int) ([]DueItem, error) {
	exclude := make([]string, 0, len(seen))
	for id := range seen {
		exclude = append(exclude, id)
	}

	items := make([]DueItem, 0, remaining)

	qs, err := s.questions.ValidatedCandidates(ctx, subjectID, exclude, 2*remaining)
	if err != nil {
		return nil, fmt.Errorf("question candidates: %w", err)
	}
	for _, q := range qs {
		if len(items) >= remaining {
			break
		}
		if seen[q.ID] {
			continue
		}
		seen[q.ID] = true
		items = append(items, newItem(q.ID, KindQuestion, q))
	}

	if len(items) < remaining {
		fcs, err := s.flashcards.RecentCandidates(ctx, subjectID, exclude, 2*remaining)
		if err != nil {
			return nil, fmt.Errorf("flashcard candidates: %w", err)
		}
		for _, f := range fcs {
			if len(items) >= remaining {
				break
			}
			if seen[f.ID] {
				continue
			}
			seen[f.ID] = true
			items = append(items, newItem(f.ID, KindFlashcard, f))
		}
	}

	return items, nil
}

func dueItemFromRow(r ProgressRow, content interface{}) DueItem {
	item := DueItem{
		ItemID:      r.ItemID,
		Kind:        r.Kind,
		Due:         r.Due,
		Difficulty:  r.Difficulty,
		Repetitions: r.Repetitions,
		Easiness:    easinessNew,
		Content:     content,
	}
	if r.Stability != nil {
		item.Stability = *r.Stability
	}
	if r.Difficulty != nil {
		item.Easiness = 11 - *r.Difficulty
	}
	return item
}

func newItem(id string, kind ItemKind, content interface{}) DueItem {
	return DueItem{
		ItemID:   id,
		Kind:     kind,
		IsNew:    true,
		Easiness: easinessNew,
		Content:  content,
	}
}
