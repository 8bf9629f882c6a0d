package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jktrolbot/opositaplus-sub000/internal/fsrs"
	"github.com/jktrolbot/opositaplus-sub000/internal/review"
)

const progressColumns = `
	learner_id, item_id, item_kind, subject_id,
	difficulty, stability, retrievability, last_reviewed, due,
	lapses, repetitions, desired_retention, decay`

// GetDueProgress returns memory-state rows for (learner, subject) whose due
// timestamp has passed, soonest first. NULLS FIRST is a defensive default;
// rows written by this service always carry a due timestamp. item_id breaks
// ties deterministically.
func (s *Store) GetDueProgress(ctx context.Context, learnerID, subjectID string, now time.Time, limit int) ([]review.ProgressRow, error) {
	rows, err := s.db.Query(ctx, `
		SELECT`+progressColumns+`
		FROM review_progress
		WHERE learner_id = $1 AND subject_id = $2 AND due <= $3
		ORDER BY due ASC NULLS FIRST, item_id ASC
		LIMIT $4`,
		learnerID, subjectID, now, limit)
	if err != nil {
		return nil, fmt.Errorf("query due progress: %w", err)
	}
	defer rows.Close()

	var out []review.ProgressRow
	for rows.Next() {
		r, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetProgress returns the row for one (learner, item, kind), nil when absent.
func (s *Store) GetProgress(ctx context.Context, learnerID, itemID string, kind review.ItemKind) (*review.ProgressRow, error) {
	rows, err := s.db.Query(ctx, `
		SELECT`+progressColumns+`
		FROM review_progress
		WHERE learner_id = $1 AND item_id = $2 AND item_kind = $3`,
		learnerID, itemID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("query progress: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("query progress: %w", err)
		}
		return nil, nil
	}
	r, err := scanProgress(rows)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// UpsertProgress persists a review outcome keyed by (learner, item, kind).
// Concurrent ratings for the same key resolve last-write-wins through the
// conflict target.
func (s *Store) UpsertProgress(ctx context.Context, learnerID, itemID string, kind review.ItemKind, outcome fsrs.ReviewOutcome) error {
	st := outcome.State
	_, err := s.db.Exec(ctx, `
		INSERT INTO review_progress (
			learner_id, item_id, item_kind, subject_id,
			difficulty, stability, retrievability, last_reviewed, due,
			lapses, repetitions, desired_retention, decay, easiness, interval_days, updated_at
		)
		VALUES (
			$1, $2, $3,
			(SELECT subject_id FROM questions WHERE id = $2
			 UNION ALL
			 SELECT subject_id FROM flashcards WHERE id = $2
			 LIMIT 1),
			$4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW()
		)
		ON CONFLICT (learner_id, item_id, item_kind) DO UPDATE SET
			difficulty = EXCLUDED.difficulty,
			stability = EXCLUDED.stability,
			retrievability = EXCLUDED.retrievability,
			last_reviewed = EXCLUDED.last_reviewed,
			due = EXCLUDED.due,
			lapses = EXCLUDED.lapses,
			repetitions = EXCLUDED.repetitions,
			desired_retention = EXCLUDED.desired_retention,
			decay = EXCLUDED.decay,
			easiness = EXCLUDED.easiness,
			interval_days = EXCLUDED.interval_days,
			updated_at = NOW()`,
		learnerID, itemID, string(kind),
		st.Difficulty, st.Stability, st.Retrievability, st.LastReviewed, st.Due,
		st.Lapses, outcome.Repetitions, st.DesiredRetention, st.Decay,
		outcome.Easiness, outcome.IntervalDays,
	)
	if err != nil {
		return fmt.Errorf("upsert progress %s/%s: %w", learnerID, itemID, err)
	}
	return nil
}

func scanProgress(rows pgx.Rows) (review.ProgressRow, error) {
	var r review.ProgressRow
	var kind string
	var subjectID *string
	var desiredRetention, decay *float64
	if err := rows.Scan(
		&r.LearnerID, &r.ItemID, &kind, &subjectID,
		&r.Difficulty, &r.Stability, &r.Retrievability, &r.LastReviewed, &r.Due,
		&r.Lapses, &r.Repetitions, &desiredRetention, &decay,
	); err != nil {
		return review.ProgressRow{}, fmt.Errorf("scan progress: %w", err)
	}
	r.Kind = review.ItemKind(kind)
	if subjectID != nil {
		r.SubjectID = *subjectID
	}
	if desiredRetention != nil {
		r.DesiredRetention = *desiredRetention
	}
	if decay != nil {
		r.Decay = *decay
	}
	return r, nil
}
