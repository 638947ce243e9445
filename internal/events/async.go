package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ErrEmitterStopped is returned when an event is emitted after Stop.
var ErrEmitterStopped = errors.New("event emitter is stopped")

// AsyncEmitterConfig holds configuration options for an AsyncEmitter
type AsyncEmitterConfig struct {
	// QueueSize is the number of events buffered before new events are dropped.
	// If zero or negative, defaults to 256
	QueueSize int

	// WorkerCount determines how many goroutines deliver events.
	// If zero or negative, defaults to 2
	WorkerCount int

	// HandlerTimeout bounds the delivery of a single event
	HandlerTimeout time.Duration
}

// DefaultAsyncEmitterConfig returns an AsyncEmitterConfig with reasonable defaults
func DefaultAsyncEmitterConfig() AsyncEmitterConfig {
	return AsyncEmitterConfig{
		QueueSize:      256,
		WorkerCount:    2,
		HandlerTimeout: 5 * time.Second,
	}
}

// AsyncEmitter delivers events to a downstream EventEmitter on a pool of
// worker goroutines. EmitEvent never blocks; when the queue is full the
// event is dropped.
type AsyncEmitter struct {
	next    EventEmitter
	queue   chan *StudyEvent
	config  AsyncEmitterConfig
	logger  *slog.Logger
	wg      sync.WaitGroup
	mu      sync.RWMutex
	stopped bool
	dropped atomic.Int64
}

var _ EventEmitter = (*AsyncEmitter)(nil)

// NewAsyncEmitter creates an AsyncEmitter. Start must be called before
// queued events are delivered.
func NewAsyncEmitter(next EventEmitter, config AsyncEmitterConfig, logger *slog.Logger) *AsyncEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "async_event_emitter")

	defaults := DefaultAsyncEmitterConfig()
	if config.QueueSize <= 0 {
		config.QueueSize = defaults.QueueSize
	}
	if config.WorkerCount <= 0 {
		logger.Warn("invalid worker count specified, using default",
			"specified_count", config.WorkerCount,
			"default_count", defaults.WorkerCount)
		config.WorkerCount = defaults.WorkerCount
	}
	if config.HandlerTimeout <= 0 {
		config.HandlerTimeout = defaults.HandlerTimeout
	}

	return &AsyncEmitter{
		next:   next,
		queue:  make(chan *StudyEvent, config.QueueSize),
		config: config,
		logger: logger,
	}
}

// Start launches the worker goroutines.
func (e *AsyncEmitter) Start() {
	for i := 0; i < e.config.WorkerCount; i++ {
		e.wg.Add(1)
		go e.worker(i)
	}
	e.logger.Info("async event emitter started",
		"worker_count", e.config.WorkerCount,
		"queue_size", e.config.QueueSize)
}

// EmitEvent queues the event for delivery.
func (e *AsyncEmitter) EmitEvent(_ context.Context, event *StudyEvent) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.stopped {
		return ErrEmitterStopped
	}

	select {
	case e.queue <- event:
		return nil
	default:
		e.dropped.Add(1)
		e.logger.Warn("event queue full, dropping event",
			"event_id", event.ID,
			"event_type", event.Type,
			"queue_cap", cap(e.queue))
		return fmt.Errorf("%w: queue capacity %d reached", ErrQueueFull, cap(e.queue))
	}
}

// Dropped returns the number of events discarded because the queue was full.
func (e *AsyncEmitter) Dropped() int64 {
	return e.dropped.Load()
}

// Stop rejects new events, delivers the ones already queued and waits for
// the workers to exit.
func (e *AsyncEmitter) Stop() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	close(e.queue)
	e.mu.Unlock()

	e.wg.Wait()
	e.logger.Info("async event emitter stopped", "dropped_events", e.dropped.Load())
}

func (e *AsyncEmitter) worker(id int) {
	defer e.wg.Done()

	e.logger.Debug("starting worker", "worker_id", id)
	for event := range e.queue {
		e.deliver(event, id)
	}
	e.logger.Debug("event queue closed, stopping worker", "worker_id", id)
}

func (e *AsyncEmitter) deliver(event *StudyEvent, workerID int) {
	ctx, cancel := context.WithTimeout(context.Background(), e.config.HandlerTimeout)
	defer cancel()

	if err := e.next.EmitEvent(ctx, event); err != nil {
		e.logger.Error("event delivery failed",
			"error", err,
			"event_id", event.ID,
			"event_type", event.Type,
			"worker_id", workerID)
	}
}
