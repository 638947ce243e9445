package redis_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/scry-study/internal/events"
	"github.com/phrazzld/scry-study/internal/platform/logger"
	"github.com/phrazzld/scry-study/internal/platform/redis"
)

type published struct {
	channel string
	message []byte
}

type fakePublisher struct {
	messages []published
	err      error
}

func (f *fakePublisher) Publish(ctx context.Context, channel string, message interface{}) *goredis.IntCmd {
	cmd := goredis.NewIntCmd(ctx, "publish", channel, message)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	raw, _ := message.([]byte)
	f.messages = append(f.messages, published{channel: channel, message: raw})
	cmd.SetVal(1)
	return cmd
}

func TestEventPublisherPublishesJSON(t *testing.T) {
	log, _ := logger.NewTestLogger()
	client := &fakePublisher{}
	publisher := redis.NewEventPublisherWithClient(client, "scry:study-events", log)

	event, err := events.NewStudyEvent(events.TypeCardGraded, uuid.New(), uuid.New(), time.Now(),
		events.CardGradedPayload{CardIndex: 3, Rating: "easy"})
	require.NoError(t, err)

	require.NoError(t, publisher.HandleEvent(context.Background(), event))

	require.Len(t, client.messages, 1)
	assert.Equal(t, "scry:study-events", client.messages[0].channel)

	var decoded events.StudyEvent
	require.NoError(t, json.Unmarshal(client.messages[0].message, &decoded))
	assert.Equal(t, event.ID, decoded.ID)
	assert.Equal(t, events.TypeCardGraded, decoded.Type)

	var payload events.CardGradedPayload
	require.NoError(t, decoded.UnmarshalPayload(&payload))
	assert.Equal(t, 3, payload.CardIndex)
}

func TestEventPublisherPropagatesErrors(t *testing.T) {
	log, _ := logger.NewTestLogger()
	publisher := redis.NewEventPublisherWithClient(&fakePublisher{err: errors.New("connection refused")}, "c", log)

	event, err := events.NewStudyEvent(events.TypeSessionStarted, uuid.New(), uuid.New(), time.Now(), nil)
	require.NoError(t, err)

	err = publisher.HandleEvent(context.Background(), event)
	assert.ErrorContains(t, err, "connection refused")
}

func TestEventPublisherClose(t *testing.T) {
	publisher := redis.NewEventPublisherWithClient(&fakePublisher{}, "c", nil)

	assert.NoError(t, publisher.Close(), "closing a publisher without an owned client is a no-op")
}
