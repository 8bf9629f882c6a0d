package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jktrolbot/opositaplus-sub000/internal/review"
)

// QuestionsByIDs batch-fetches questions. Missing IDs are simply absent from
// the result; the selector drops orphaned progress rows itself.
func (s *Store) QuestionsByIDs(ctx context.Context, ids []string) ([]review.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, subject_id, prompt, options, answer, validated, quality_score, created_at
		FROM questions WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("questions by ids: %w", err)
	}
	defer rows.Close()
	return scanQuestions(rows)
}

// ValidatedCandidates returns validated questions the learner has not seen,
// best quality first, newest as the tie break.
func (s *Store) ValidatedCandidates(ctx context.Context, subjectID string, excludeIDs []string, limit int) ([]review.Question, error) {
	if excludeIDs == nil {
		excludeIDs = []string{}
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, subject_id, prompt, options, answer, validated, quality_score, created_at
		FROM questions
		WHERE subject_id = $1 AND validated AND NOT (id = ANY($2))
		ORDER BY quality_score DESC, created_at DESC
		LIMIT $3`, subjectID, excludeIDs, limit)
	if err != nil {
		return nil, fmt.Errorf("question candidates: %w", err)
	}
	defer rows.Close()
	return scanQuestions(rows)
}

// FlashcardsByIDs batch-fetches flashcards.
func (s *Store) FlashcardsByIDs(ctx context.Context, ids []string) ([]review.Flashcard, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, subject_id, front, back, created_at
		FROM flashcards WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("flashcards by ids: %w", err)
	}
	defer rows.Close()
	return scanFlashcards(rows)
}

// RecentCandidates returns unseen flashcards, newest first.
func (s *Store) RecentCandidates(ctx context.Context, subjectID string, excludeIDs []string, limit int) ([]review.Flashcard, error) {
	if excludeIDs == nil {
		excludeIDs = []string{}
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, subject_id, front, back, created_at
		FROM flashcards
		WHERE subject_id = $1 AND NOT (id = ANY($2))
		ORDER BY created_at DESC
		LIMIT $3`, subjectID, excludeIDs, limit)
	if err != nil {
		return nil, fmt.Errorf("flashcard candidates: %w", err)
	}
	defer rows.Close()
	return scanFlashcards(rows)
}

func scanQuestions(rows pgx.Rows) ([]review.Question, error) {
	var out []review.Question
	for rows.Next() {
		var q review.Question
		if err := rows.Scan(&q.ID, &q.SubjectID, &q.Prompt, &q.Options, &q.Answer, &q.Validated, &q.Quality, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func scanFlashcards(rows pgx.Rows) ([]review.Flashcard, error) {
	var out []review.Flashcard
	for rows.Next() {
		var f review.Flashcard
		if err := rows.Scan(&f.ID, &f.SubjectID, &f.Front, &f.Back, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan flashcard: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
