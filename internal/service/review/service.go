// Package review answers questions about a learner's review schedule and
// records the outcome of individual card reviews.
package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/domain"
)

// Limits applied to ListDue.
const (
	MinListLimit     = 1
	MaxListLimit     = 500
	DefaultListLimit = 50
)

// DueQuery provides read access to due cards, plus postponement.
type DueQuery interface {
	// CountDue returns how many of the learner's previously reviewed cards are
	// due on or before the date of asOf, across all decks.
	CountDue(ctx context.Context, learnerID uuid.UUID, asOf time.Time) (int, error)

	// ListDue returns up to limit due cards, most overdue first.
	// Returns ErrInvalidLimit when limit is outside [MinListLimit, MaxListLimit].
	ListDue(ctx context.Context, learnerID uuid.UUID, asOf time.Time, limit int) ([]domain.DueCard, error)

	// Postpone moves the next review of a card days into the future.
	// Returns store.ErrReviewStateNotFound if the card has never been reviewed.
	Postpone(ctx context.Context, key domain.ReviewKey, days int) (domain.ReviewState, error)
}

// Scheduler records card reviews.
type Scheduler interface {
	// RecordReview applies rating to the card's current review state and
	// persists the result atomically. A card without a stored state starts
	// from the initial state.
	RecordReview(
		ctx context.Context,
		key domain.ReviewKey,
		rating domain.Rating,
		now time.Time,
	) (domain.ReviewState, error)
}

// Common error types for the review service
var (
	// ErrInvalidLimit indicates a ListDue limit outside the accepted range.
	ErrInvalidLimit = errors.New("limit out of range")

	// ErrInvalidDays indicates a postponement of less than one day.
	ErrInvalidDays = errors.New("postpone days must be at least 1")
)

// ServiceError wraps errors from the review service with additional context.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "count_due", "record_review")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError returns a new ServiceError.
func NewServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
