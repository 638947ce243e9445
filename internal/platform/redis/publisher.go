// Package redis publishes study events to a Redis pub/sub channel.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/phrazzld/scry-study/internal/config"
	"github.com/phrazzld/scry-study/internal/events"
)

var (
	// ErrPublisherClosed is returned when publishing through a closed publisher.
	ErrPublisherClosed = errors.New("redis: publisher is closed")

	// ErrSerialization is returned when an event cannot be encoded.
	ErrSerialization = errors.New("redis: event serialization failed")
)

const pingTimeout = 5 * time.Second

// Publisher is the subset of the go-redis client used to publish messages.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *goredis.IntCmd
}

// EventPublisher is an events.EventHandler that publishes each event as a
// JSON message on a Redis channel.
type EventPublisher struct {
	client  Publisher
	closer  func() error
	channel string
	logger  *slog.Logger
}

var _ events.EventHandler = (*EventPublisher)(nil)

// NewEventPublisher connects to Redis and verifies the connection with PING.
func NewEventPublisher(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (*EventPublisher, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: pingTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	p := NewEventPublisherWithClient(rdb, cfg.Channel, logger)
	p.closer = rdb.Close
	return p, nil
}

// NewEventPublisherWithClient creates an EventPublisher around an existing client.
func NewEventPublisherWithClient(client Publisher, channel string, logger *slog.Logger) *EventPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventPublisher{
		client:  client,
		channel: channel,
		logger: logger.With(
			slog.String("component", "redis_event_publisher"),
			slog.String("channel", channel),
		),
	}
}

// HandleEvent implements events.EventHandler.
func (p *EventPublisher) HandleEvent(ctx context.Context, event *events.StudyEvent) error {
	if p.client == nil {
		return ErrPublisherClosed
	}

	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSerialization, err)
	}

	receivers, err := p.client.Publish(ctx, p.channel, raw).Result()
	if err != nil {
		return fmt.Errorf("redis publish %s: %w", event.Type, err)
	}

	p.logger.Debug("event published",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.Type),
		slog.Int64("receivers", receivers))
	return nil
}

// Close releases the underlying connection pool, if the publisher owns one.
func (p *EventPublisher) Close() error {
	if p.closer == nil {
		return nil
	}
	closer := p.closer
	p.closer = nil
	p.client = nil
	return closer()
}
