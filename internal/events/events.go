package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Event types published by the study service.
const (
	TypeSessionStarted   = "session.started"
	TypeCardGraded       = "card.graded"
	TypeSessionCompleted = "session.completed"
	TypeSessionRestarted = "session.restarted"
)

// ErrQueueFull is returned when an AsyncEmitter cannot accept another event.
var ErrQueueFull = errors.New("event queue is full")

// StudyEvent describes something that happened during a study session.
type StudyEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// LearnerID identifies the learner the event belongs to
	LearnerID uuid.UUID `json:"learner_id"`

	// DeckID identifies the deck being studied
	DeckID uuid.UUID `json:"deck_id"`

	// Type is one of the Type* constants
	Type string `json:"type"`

	// Timestamp is when the event occurred
	Timestamp time.Time `json:"timestamp"`

	// Payload contains event-specific data serialized as JSON
	Payload json.RawMessage `json:"payload,omitempty"`
}

// CardGradedPayload is the payload of a card.graded event.
type CardGradedPayload struct {
	SessionID    uuid.UUID  `json:"session_id"`
	CardIndex    int        `json:"card_index"`
	Outcome      string     `json:"outcome,omitempty"`
	HintUsed     bool       `json:"hint_used"`
	Rating       string     `json:"rating,omitempty"`
	IntervalDays int        `json:"interval_days,omitempty"`
	NextReview   *time.Time `json:"next_review,omitempty"`
}

// SessionPayload is the payload of the session lifecycle events.
type SessionPayload struct {
	SessionID      uuid.UUID `json:"session_id"`
	CorrectCount   int       `json:"correct_count"`
	IncorrectCount int       `json:"incorrect_count"`
	HintCount      int       `json:"hint_count"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *StudyEvent) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewStudyEvent creates a StudyEvent with the given type and payload.
// A nil payload leaves Payload empty.
func NewStudyEvent(
	eventType string,
	learnerID, deckID uuid.UUID,
	at time.Time,
	payload interface{},
) (*StudyEvent, error) {
	event := &StudyEvent{
		ID:        uuid.New(),
		LearnerID: learnerID,
		DeckID:    deckID,
		Type:      eventType,
		Timestamp: at.UTC(),
	}
	if payload == nil {
		return event, nil
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	event.Payload = payloadBytes
	return event, nil
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *StudyEvent) error
}

// EventEmitter defines an interface for components that can emit events.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *StudyEvent) error
}

// NopEmitter discards every event.
type NopEmitter struct{}

// EmitEvent implements EventEmitter.
func (NopEmitter) EmitEvent(context.Context, *StudyEvent) error { return nil }
