package study

import (
	"errors"
	"fmt"

	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/store"
)

// Outcome is the correctness judgment for a graded card.
type Outcome string

const (
	// OutcomeNone marks a card with no right or wrong answer. Such cards are
	// graded through the rating only.
	OutcomeNone      Outcome = ""
	OutcomeCorrect   Outcome = "correct"
	OutcomeIncorrect Outcome = "incorrect"
)

// IsValid reports whether o is a known outcome.
func (o Outcome) IsValid() bool {
	switch o {
	case OutcomeNone, OutcomeCorrect, OutcomeIncorrect:
		return true
	default:
		return false
	}
}

// Grade is one learner answer for one card.
type Grade struct {
	CardIndex int
	Outcome   Outcome

	// HintUsed counts at most one hint for this grade, however many times the
	// learner asked.
	HintUsed bool

	// Rating, when set, reschedules the card.
	Rating *domain.Rating
}

func (g Grade) hasSignal() bool {
	return g.Outcome != OutcomeNone || g.HintUsed || g.Rating != nil
}

func (g Grade) stats() []domain.SessionStat {
	var stats []domain.SessionStat
	switch g.Outcome {
	case OutcomeCorrect:
		stats = append(stats, domain.SessionStatCorrect)
	case OutcomeIncorrect:
		stats = append(stats, domain.SessionStatIncorrect)
	}
	if g.HintUsed {
		stats = append(stats, domain.SessionStatHint)
	}
	return stats
}

// GradeResult describes the writes made by GradeCard.
type GradeResult struct {
	// ReviewState is the card's new schedule; nil when the grade carried no rating.
	ReviewState *domain.ReviewState

	// StatErr reports counter increments that failed after the schedule was
	// written. It wraps ErrStatRecording.
	StatErr error
}

// Pass is a snapshot of one learner's study pass over a deck.
type Pass struct {
	Session domain.Session
	Deck    domain.Deck

	sessions  store.SessionStore
	ephemeral bool
}

// IsCompleted reports whether the pass has reached its terminal state.
func (p Pass) IsCompleted() bool {
	return p.Session.IsCompleted()
}

// Ephemeral reports whether the pass is backed by a throwaway session store.
func (p Pass) Ephemeral() bool {
	return p.ephemeral
}

func (p Pass) key(cardIndex int) domain.ReviewKey {
	return domain.ReviewKey{
		LearnerID: p.Session.LearnerID,
		DeckID:    p.Deck.ID,
		CardIndex: cardIndex,
	}
}

// Common error types for the study service
var (
	// ErrInvalidDeckState indicates an empty deck or a card index outside the deck.
	ErrInvalidDeckState = errors.New("invalid deck state")

	// ErrInvalidGrade indicates a grade with no signal or an unknown outcome or rating.
	ErrInvalidGrade = errors.New("invalid grade")

	// ErrSessionCompleted indicates a grade submitted to a completed session.
	ErrSessionCompleted = errors.New("session is completed")

	// ErrGradeInFlight indicates the session is still processing a grade.
	ErrGradeInFlight = errors.New("a grade is already in progress for this session")

	// ErrStatRecording indicates that session counters could not be updated.
	ErrStatRecording = errors.New("failed to record session statistics")

	// ErrInvalidPass indicates a Pass that was not produced by Begin.
	ErrInvalidPass = errors.New("pass was not started")
)

// ServiceError wraps errors from the study service with additional context.
// This allows consumers to differentiate between different types of service errors
// using errors.As instead of string matching.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "begin", "grade_card")
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

// NewBeginError returns a new ServiceError for the begin operation.
func NewBeginError(message string, err error) *ServiceError {
	return &ServiceError{Operation: "begin", Message: message, Err: err}
}

// NewGradeCardError returns a new ServiceError for the grade_card operation.
func NewGradeCardError(message string, err error) *ServiceError {
	return &ServiceError{Operation: "grade_card", Message: message, Err: err}
}

// NewAdvanceError returns a new ServiceError for the advance operation.
func NewAdvanceError(message string, err error) *ServiceError {
	return &ServiceError{Operation: "advance", Message: message, Err: err}
}

// NewRetreatError returns a new ServiceError for the retreat operation.
func NewRetreatError(message string, err error) *ServiceError {
	return &ServiceError{Operation: "retreat", Message: message, Err: err}
}

// NewRestartError returns a new ServiceError for the restart operation.
func NewRestartError(message string, err error) *ServiceError {
	return &ServiceError{Operation: "restart", Message: message, Err: err}
}
