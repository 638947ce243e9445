package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Scheduling constants shared by the domain model and the scheduler.
const (
	// InitialEaseFactor is the ease factor of a card that has never been reviewed.
	InitialEaseFactor = 2.5

	// MinEaseFactor is the floor below which the ease factor is never allowed to fall.
	MinEaseFactor = 1.3
)

// Common validation errors for review states
var (
	ErrEmptyLearnerID     = errors.New("learner ID cannot be empty")
	ErrEmptyDeckID        = errors.New("deck ID cannot be empty")
	ErrInvalidInterval    = errors.New("interval must be greater than or equal to 0")
	ErrInvalidRepetitions = errors.New("repetitions must be greater than or equal to 0")
	ErrInvalidEaseFactor  = errors.New("ease factor must be greater than or equal to 1.3")
)

// ReviewKey identifies one card of one deck for one learner.
type ReviewKey struct {
	LearnerID uuid.UUID `json:"learner_id"`
	DeckID    uuid.UUID `json:"deck_id"`
	CardIndex int       `json:"card_index"`
}

// Validate checks that every component of the key is set.
func (k ReviewKey) Validate() error {
	if k.LearnerID == uuid.Nil {
		return ErrEmptyLearnerID
	}
	if k.DeckID == uuid.Nil {
		return ErrEmptyDeckID
	}
	if k.CardIndex < 0 {
		return ErrInvalidCardIndex
	}
	return nil
}

// ReviewState is the scheduling state of a single card for a single learner.
// A card with no stored state has never been reviewed and is treated as
// InitialReviewState by the scheduler.
//
// ReviewState is a value type: the scheduler returns a new value rather than
// mutating its input.
type ReviewState struct {
	IntervalDays   int        `json:"interval_days"`
	Repetitions    int        `json:"repetitions"`
	EaseFactor     float64    `json:"ease_factor"`
	NextReview     time.Time  `json:"next_review"` // civil date, midnight UTC
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`
}

// InitialReviewState returns the state of a card that has never been reviewed.
func InitialReviewState() ReviewState {
	return ReviewState{
		IntervalDays: 0,
		Repetitions:  0,
		EaseFactor:   InitialEaseFactor,
	}
}

// IsDue reports whether the card should be shown on the date of asOf.
func (s ReviewState) IsDue(asOf time.Time) bool {
	return !DateOf(s.NextReview).After(DateOf(asOf))
}

// Validate checks the numeric invariants of the state.
func (s ReviewState) Validate() error {
	if s.IntervalDays < 0 {
		return ErrInvalidInterval
	}
	if s.Repetitions < 0 {
		return ErrInvalidRepetitions
	}
	if s.EaseFactor < MinEaseFactor {
		return ErrInvalidEaseFactor
	}
	return nil
}

// DueCard is one entry of a due-review listing.
type DueCard struct {
	DeckID     uuid.UUID `json:"deck_id"`
	CardIndex  int       `json:"card_index"`
	NextReview time.Time `json:"next_review"`
}
