package srs

import (
	"errors"
	"time"

	"github.com/phrazzld/scry-study/internal/domain"
)

// Common errors
var (
	ErrInvalidRating = errors.New("invalid rating")
	ErrInvalidDays   = errors.New("postpone days must be at least 1")
)

// Service defines the interface for SRS algorithm operations
type Service interface {
	// Next computes the state that follows a review of a card.
	// A nil prev means the card has never been reviewed.
	Next(prev *domain.ReviewState, rating domain.Rating, now time.Time) (domain.ReviewState, error)

	// Postpone pushes the next review date forward by days without touching
	// the interval, repetitions or ease factor.
	Postpone(state domain.ReviewState, days int) (domain.ReviewState, error)
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new SRS service with default parameters
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new SRS service with custom parameters
func NewServiceWithParams(params *Params) Service {
	return &defaultService{
		params: params,
	}
}

// Next implements the Service interface
func (s *defaultService) Next(
	prev *domain.ReviewState,
	rating domain.Rating,
	now time.Time,
) (domain.ReviewState, error) {
	if !rating.IsValid() {
		return domain.ReviewState{}, ErrInvalidRating
	}

	current := domain.ReviewState{
		EaseFactor: s.params.InitialEaseFactor,
	}
	if prev != nil {
		current = *prev
	}

	return calculateNextState(current, rating.Quality(), now, s.params), nil
}

// Postpone implements the Service interface
func (s *defaultService) Postpone(state domain.ReviewState, days int) (domain.ReviewState, error) {
	if days < 1 {
		return domain.ReviewState{}, ErrInvalidDays
	}

	state.NextReview = domain.AddDays(state.NextReview, days)
	return state, nil
}
