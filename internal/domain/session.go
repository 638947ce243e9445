package domain

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus represents the lifecycle state of a study session
type SessionStatus string

// Possible session status values
const (
	SessionStatusInProgress SessionStatus = "in_progress"
	SessionStatusCompleted  SessionStatus = "completed"
)

// IsValid reports whether the status is a known value.
func (s SessionStatus) IsValid() bool {
	return s == SessionStatusInProgress || s == SessionStatusCompleted
}

// SessionStat names one of the engagement counters of a session.
type SessionStat string

// Possible session stats
const (
	SessionStatCorrect   SessionStat = "correct"
	SessionStatIncorrect SessionStat = "incorrect"
	SessionStatHint      SessionStat = "hint"
)

// IsValid reports whether the stat is a known value.
func (s SessionStat) IsValid() bool {
	switch s {
	case SessionStatCorrect, SessionStatIncorrect, SessionStatHint:
		return true
	default:
		return false
	}
}

// Session is one learner's progress through a study pass over a deck.
//
// At most one session exists per (learner, deck). Restarting a session zeroes
// its position and counters but keeps its ID.
type Session struct {
	ID             uuid.UUID     `json:"id"`
	LearnerID      uuid.UUID     `json:"learner_id"`
	DeckID         uuid.UUID     `json:"deck_id"`
	CurrentIndex   int           `json:"current_index"`
	Status         SessionStatus `json:"status"`
	CorrectCount   int           `json:"correct_count"`
	IncorrectCount int           `json:"incorrect_count"`
	HintCount      int           `json:"hint_count"`
	CreatedAt      time.Time     `json:"created_at"`
	CompletedAt    *time.Time    `json:"completed_at,omitempty"`
}

// NewSession returns a fresh in-progress session for the learner and deck.
func NewSession(learnerID, deckID uuid.UUID, now time.Time) Session {
	return Session{
		ID:        uuid.New(),
		LearnerID: learnerID,
		DeckID:    deckID,
		Status:    SessionStatusInProgress,
		CreatedAt: now.UTC(),
	}
}

// IsCompleted reports whether the session has reached its terminal state.
func (s Session) IsCompleted() bool {
	return s.Status == SessionStatusCompleted
}

// Count returns the current value of the given counter.
func (s Session) Count(stat SessionStat) int {
	switch stat {
	case SessionStatCorrect:
		return s.CorrectCount
	case SessionStatIncorrect:
		return s.IncorrectCount
	case SessionStatHint:
		return s.HintCount
	default:
		return 0
	}
}

// WithIncrement returns a copy of the session with the given counter
// increased by one.
func (s Session) WithIncrement(stat SessionStat) Session {
	switch stat {
	case SessionStatCorrect:
		s.CorrectCount++
	case SessionStatIncorrect:
		s.IncorrectCount++
	case SessionStatHint:
		s.HintCount++
	}
	return s
}

// Reset returns a copy of the session returned to its initial in-progress state.
// The session's identity and creation time are preserved.
func (s Session) Reset() Session {
	s.CurrentIndex = 0
	s.Status = SessionStatusInProgress
	s.CorrectCount = 0
	s.IncorrectCount = 0
	s.HintCount = 0
	s.CompletedAt = nil
	return s
}

// Validate checks the session's identity and counters.
func (s Session) Validate() error {
	if s.ID == uuid.Nil {
		return ErrInvalidID
	}
	if s.LearnerID == uuid.Nil {
		return ErrEmptyLearnerID
	}
	if s.DeckID == uuid.Nil {
		return ErrEmptyDeckID
	}
	if s.CurrentIndex < 0 {
		return ErrInvalidCardIndex
	}
	if !s.Status.IsValid() {
		return ErrInvalidSessionStatus
	}
	if s.CorrectCount < 0 || s.IncorrectCount < 0 || s.HintCount < 0 {
		return ErrValidation
	}
	return nil
}
