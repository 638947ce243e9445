package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/domain"
)

// ModifyFn computes the replacement for a stored review state.
// current is nil when the card has never been reviewed.
type ModifyFn func(current *domain.ReviewState) (domain.ReviewState, error)

// ReviewStateStore defines the interface for per-card scheduling state persistence.
// Rows are keyed by (learner, deck, card index); there is never more than one row per key.
type ReviewStateStore interface {
	// Get retrieves the review state of one card.
	// Returns ErrReviewStateNotFound if the card has never been reviewed.
	Get(ctx context.Context, key domain.ReviewKey) (domain.ReviewState, error)

	// Upsert stores state under key, replacing any existing row.
	// The write is all-or-nothing and last-write-wins.
	// Returns ErrInvalidEntity if the key or state fail validation.
	Upsert(ctx context.Context, key domain.ReviewKey, state domain.ReviewState) error

	// Modify atomically reads the row for key, passes it to fn and stores the result.
	// Concurrent modifications of the same key are serialized.
	// An error from fn aborts the write and is returned unchanged.
	Modify(ctx context.Context, key domain.ReviewKey, fn ModifyFn) (domain.ReviewState, error)

	// CountDue returns how many of the learner's cards, across all decks,
	// have a next review date on or before the date of asOf.
	// Cards that have never been reviewed have no row and are not counted.
	CountDue(ctx context.Context, learnerID uuid.UUID, asOf time.Time) (int, error)

	// ListDue returns up to limit of the learner's due cards, most overdue first.
	ListDue(ctx context.Context, learnerID uuid.UUID, asOf time.Time, limit int) ([]domain.DueCard, error)
}
