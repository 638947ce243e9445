package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/domain"
)

// SessionStore defines the interface for study session persistence.
//
// A store keeps at most one session per (learner, deck). Counter updates are
// applied by the store itself, never computed from a caller's copy.
type SessionStore interface {
	// GetActive retrieves the in-progress session for the learner and deck.
	// Returns ErrSessionNotFound if there is none, including when the
	// learner's session for the deck has been completed.
	GetActive(ctx context.Context, learnerID, deckID uuid.UUID) (domain.Session, error)

	// Create starts a new session at index 0 with zeroed counters.
	// Returns ErrSessionExists if the learner already has a session for the deck.
	Create(ctx context.Context, learnerID, deckID uuid.UUID) (domain.Session, error)

	// GetLatest retrieves the learner's session for the deck whatever its status.
	// Returns ErrSessionNotFound if the learner has no session for the deck.
	GetLatest(ctx context.Context, learnerID, deckID uuid.UUID) (domain.Session, error)

	// GetOrCreate returns the learner's session for the deck, creating it if absent.
	// It is a single atomic operation: concurrent callers observe the same session,
	// and created is true for exactly one of them.
	// An existing session is returned whatever its status.
	GetOrCreate(ctx context.Context, learnerID, deckID uuid.UUID) (session domain.Session, created bool, err error)

	// UpdateProgress moves the session to newIndex.
	// Returns ErrSessionNotFound if the session does not exist.
	UpdateProgress(ctx context.Context, sessionID uuid.UUID, newIndex int) error

	// IncrementStat atomically adds one to the named counter and returns its new value.
	// Returns ErrSessionNotFound if the session does not exist.
	IncrementStat(ctx context.Context, sessionID uuid.UUID, stat domain.SessionStat) (int, error)

	// Complete marks the session completed. Completing an already completed
	// session is a no-op that keeps the original completion time.
	Complete(ctx context.Context, sessionID uuid.UUID) (domain.Session, error)

	// Restart zeroes the session's index and counters and returns it to
	// in_progress, keeping its ID.
	Restart(ctx context.Context, sessionID uuid.UUID) (domain.Session, error)
}
