package api

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/service/study"
)

// DeckRequest identifies the deck size for session navigation endpoints.
// The deck itself is named by the URL.
type DeckRequest struct {
	CardCount  int  `json:"card_count" validate:"gte=0"`
	Disposable bool `json:"disposable"`
}

// GradeRequest defines the payload for grading the current card.
type GradeRequest struct {
	CardCount  int     `json:"card_count" validate:"gte=0"`
	Disposable bool    `json:"disposable"`
	CardIndex  int     `json:"card_index" validate:"gte=0"`
	Outcome    string  `json:"outcome"    validate:"omitempty,oneof=correct incorrect"`
	HintUsed   bool    `json:"hint_used"`
	Rating     *string `json:"rating,omitempty"`
}

// PostponeRequest defines the payload for pushing a card's next review out.
type PostponeRequest struct {
	Days int `json:"days" validate:"gte=1"`
}

// SessionResponse is the client view of a study pass.
type SessionResponse struct {
	ID             uuid.UUID  `json:"id"`
	DeckID         uuid.UUID  `json:"deck_id"`
	CardCount      int        `json:"card_count"`
	CurrentIndex   int        `json:"current_index"`
	Status         string     `json:"status"`
	CorrectCount   int        `json:"correct_count"`
	IncorrectCount int        `json:"incorrect_count"`
	HintCount      int        `json:"hint_count"`
	Ephemeral      bool       `json:"ephemeral"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// GradeResponse is returned after a grade has been recorded.
type GradeResponse struct {
	Session SessionResponse `json:"session"`

	// Review is the card's new schedule; omitted when the grade carried no rating.
	Review *ReviewStateResponse `json:"review,omitempty"`

	// StatsRecorded is false when the schedule was saved but a counter was not.
	StatsRecorded bool `json:"stats_recorded"`
}

// ReviewStateResponse is the client view of a card's schedule.
type ReviewStateResponse struct {
	DeckID         uuid.UUID  `json:"deck_id"`
	CardIndex      int        `json:"card_index"`
	IntervalDays   int        `json:"interval_days"`
	Repetitions    int        `json:"repetitions"`
	EaseFactor     float64    `json:"ease_factor"`
	NextReview     string     `json:"next_review"`
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`
}

// DueCountResponse reports how many cards are due.
type DueCountResponse struct {
	AsOf  string `json:"as_of"`
	Count int    `json:"count"`
}

// DueCardResponse is one entry of a due listing.
type DueCardResponse struct {
	DeckID     uuid.UUID `json:"deck_id"`
	CardIndex  int       `json:"card_index"`
	NextReview string    `json:"next_review"`
}

// DueListResponse lists due cards, most overdue first.
type DueListResponse struct {
	AsOf  string            `json:"as_of"`
	Cards []DueCardResponse `json:"cards"`
}

func (r DeckRequest) deck(id uuid.UUID) domain.Deck {
	return domain.Deck{ID: id, CardCount: r.CardCount, Disposable: r.Disposable}
}

func (r GradeRequest) deck(id uuid.UUID) domain.Deck {
	return domain.Deck{ID: id, CardCount: r.CardCount, Disposable: r.Disposable}
}

// grade converts the request into a study.Grade. An unknown rating is an
// invalid grade.
func (r GradeRequest) grade() (study.Grade, error) {
	g := study.Grade{
		CardIndex: r.CardIndex,
		Outcome:   study.Outcome(r.Outcome),
		HintUsed:  r.HintUsed,
	}
	if r.Rating != nil {
		rating, err := domain.ParseRating(*r.Rating)
		if err != nil {
			return study.Grade{}, fmt.Errorf("%w: %w", study.ErrInvalidGrade, err)
		}
		g.Rating = &rating
	}
	return g, nil
}

func toSessionResponse(pass study.Pass) SessionResponse {
	return SessionResponse{
		ID:             pass.Session.ID,
		DeckID:         pass.Deck.ID,
		CardCount:      pass.Deck.CardCount,
		CurrentIndex:   pass.Session.CurrentIndex,
		Status:         string(pass.Session.Status),
		CorrectCount:   pass.Session.CorrectCount,
		IncorrectCount: pass.Session.IncorrectCount,
		HintCount:      pass.Session.HintCount,
		Ephemeral:      pass.Ephemeral(),
		CompletedAt:    pass.Session.CompletedAt,
	}
}

func toReviewStateResponse(key domain.ReviewKey, state domain.ReviewState) ReviewStateResponse {
	return ReviewStateResponse{
		DeckID:         key.DeckID,
		CardIndex:      key.CardIndex,
		IntervalDays:   state.IntervalDays,
		Repetitions:    state.Repetitions,
		EaseFactor:     state.EaseFactor,
		NextReview:     state.NextReview.Format(time.DateOnly),
		LastReviewedAt: state.LastReviewedAt,
	}
}
