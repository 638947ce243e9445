package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStudyEvent(t *testing.T) {
	learnerID, deckID := uuid.New(), uuid.New()
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.FixedZone("CEST", 2*60*60))
	payload := CardGradedPayload{
		SessionID: uuid.New(),
		CardIndex: 2,
		Rating:    "good",
	}

	event, err := NewStudyEvent(TypeCardGraded, learnerID, deckID, at, payload)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, TypeCardGraded, event.Type)
	assert.Equal(t, learnerID, event.LearnerID)
	assert.Equal(t, deckID, event.DeckID)
	assert.Equal(t, time.UTC, event.Timestamp.Location())
	assert.True(t, at.Equal(event.Timestamp))

	var decoded CardGradedPayload
	require.NoError(t, event.UnmarshalPayload(&decoded))
	assert.Equal(t, payload, decoded)
}

func TestNewStudyEventWithoutPayload(t *testing.T) {
	event, err := NewStudyEvent(TypeSessionRestarted, uuid.New(), uuid.New(), time.Now(), nil)

	require.NoError(t, err)
	assert.Empty(t, event.Payload)
}

func TestNewStudyEventUnencodablePayload(t *testing.T) {
	_, err := NewStudyEvent(TypeCardGraded, uuid.New(), uuid.New(), time.Now(), make(chan int))
	assert.Error(t, err)
}

// MockEventHandler implements the EventHandler interface for testing
type MockEventHandler struct {
	mu sync.Mutex
	// The last event received by this handler
	LastEvent *StudyEvent
	// Error to return from HandleEvent
	HandlerError error
	// Count of events handled
	HandledCount int
	// Block, when set, is waited on before the handler returns
	Block chan struct{}
}

// HandleEvent implements the EventHandler interface
func (h *MockEventHandler) HandleEvent(ctx context.Context, event *StudyEvent) error {
	if h.Block != nil {
		<-h.Block
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.LastEvent = event
	h.HandledCount++
	return h.HandlerError
}

func (h *MockEventHandler) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.HandledCount
}
