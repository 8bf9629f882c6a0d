package review

import (
	"context"
	"errors"
	"time"

	"github.com/jktrolbot/opositaplus-sub000/internal/fsrs"
)

// ItemKind distinguishes the two study-item catalogs.
type ItemKind string

const (
	KindQuestion  ItemKind = "question"
	KindFlashcard ItemKind = "flashcard"
)

// Sentinel errors checked with errors.Is by the HTTP layer.
var (
	ErrItemNotFound = errors.New("review: item not found")
	ErrMissingField = errors.New("review: missing required field")
)

// easinessNew is the display default reported for items with no memory state.
const easinessNew = 2.5

// Question is a bank question payload.
type Question struct {
	ID        string    `json:"id"`
	SubjectID string    `json:"subject_id"`
	Prompt    string    `json:"prompt"`
	Options   []string  `json:"options,omitempty"`
	Answer    string    `json:"answer"`
	Validated bool      `json:"validated"`
	Quality   float64   `json:"quality"`
	CreatedAt time.Time `json:"created_at"`
}

// Flashcard is a flashcard payload.
type Flashcard struct {
	ID        string    `json:"id"`
	SubjectID string    `json:"subject_id"`
	Front     string    `json:"front"`
	Back      string    `json:"back"`
	CreatedAt time.Time `json:"created_at"`
}

// ProgressRow is one persisted (learner, item, kind) memory record.
// Nullable columns stay pointers so malformed rows degrade via fsrs.ParseState.
type ProgressRow struct {
	LearnerID        string
	ItemID           string
	Kind             ItemKind
	SubjectID        string
	Difficulty       *float64
	Stability        *float64
	Retrievability   *float64
	LastReviewed     *time.Time
	Due              *time.Time
	Lapses           int
	Repetitions      int
	DesiredRetention float64
	Decay            float64
}

// State parses the row into a memory state, nil when the row is malformed.
func (r ProgressRow) State() *fsrs.MemoryState {
	return fsrs.ParseState(r.Difficulty, r.Stability, r.LastReviewed, r.Due, r.Lapses, r.DesiredRetention, r.Decay)
}

// DueItem is one unit of a review session working set.
type DueItem struct {
	ItemID      string      `json:"item_id"`
	Kind        ItemKind    `json:"item_kind"`
	IsNew       bool        `json:"is_new"`
	Due         *time.Time  `json:"due"`
	Stability   float64     `json:"stability"`
	Difficulty  *float64    `json:"difficulty"`
	Repetitions int         `json:"repetitions"`
	Easiness    float64     `json:"easiness"`
	Content     interface{} `json:"content"`
}

// Selection is the assembled working set for one session.
type Selection struct {
	Items    []DueItem `json:"items"`
	DueCount int       `json:"due_count"`
	NewCount int       `json:"new_count"`
}

// ProgressStore reads and writes per-(learner, item, kind) memory state.
type ProgressStore interface {
	// GetDueProgress returns rows with due <= now ordered by due ascending,
	// nulls first, item_id as the tie break.
	GetDueProgress(ctx context.Context, learnerID, subjectID string, now time.Time, limit int) ([]ProgressRow, error)
	// GetProgress returns the row for one item, or nil when absent.
	GetProgress(ctx context.Context, learnerID, itemID string, kind ItemKind) (*ProgressRow, error)
	// UpsertProgress persists a review outcome, last write wins on the
	// (learner, item, kind) key.
	UpsertProgress(ctx context.Context, learnerID, itemID string, kind ItemKind, outcome fsrs.ReviewOutcome) error
}

// QuestionCatalog is the read-only question bank.
type QuestionCatalog interface {
	QuestionsByIDs(ctx context.Context, ids []string) ([]Question, error)
	// ValidatedCandidates returns unseen validated questions, best quality first.
	ValidatedCandidates(ctx context.Context, subjectID string, excludeIDs []string, limit int) ([]Question, error)
}

// FlashcardCatalog is the read-only flashcard bank.
type FlashcardCatalog interface {
	FlashcardsByIDs(ctx context.Context, ids []string) ([]Flashcard, error)
	// RecentCandidates returns unseen flashcards, newest first.
	RecentCandidates(ctx context.Context, subjectID string, excludeIDs []string, limit int) ([]Flashcard, error)
}
