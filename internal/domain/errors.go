package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidRating is returned when a rating is not one of again, hard, good or easy.
	ErrInvalidRating = errors.New("invalid rating")

	// ErrInvalidCardIndex is returned when a card index is negative.
	ErrInvalidCardIndex = errors.New("card index must be greater than or equal to 0")

	// ErrInvalidSessionStatus is returned when a session status is not valid.
	ErrInvalidSessionStatus = errors.New("invalid session status")

	// ErrInvalidSessionStat is returned when a stat is not correct, incorrect or hint.
	ErrInvalidSessionStat = errors.New("invalid session stat")
)
