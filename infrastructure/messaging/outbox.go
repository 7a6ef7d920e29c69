// Package messaging holds the publishers that fan store changes out to
// downstream consumers.
package messaging

import (
	"context"
	"sync"
	"time"

	"tripgraph/application/ports"
	"tripgraph/domain/events"

	"go.uber.org/zap"
)

type outboxEntry struct {
	event    events.DomainEvent
	attempts int
}

// OutboxPublisher publishes through an inner publisher and keeps events that
// failed to go out in memory, retrying them in the background until they
// succeed or run out of attempts.
type OutboxPublisher struct {
	inner  ports.EventPublisher
	logger *zap.Logger

	// Configuration
	batchSize          int
	processingInterval time.Duration
	maxRetries         int

	mu      sync.Mutex
	pending []outboxEntry

	// Control channels
	stopChan    chan struct{}
	stoppedChan chan struct{}
	startOnce   sync.Once
	stopOnce    sync.Once
}

// NewOutboxPublisher creates a new outbox publisher around inner
func NewOutboxPublisher(inner ports.EventPublisher, logger *zap.Logger) *OutboxPublisher {
	return &OutboxPublisher{
		inner:              inner,
		logger:             logger,
		batchSize:          50,
		processingInterval: 5 * time.Second,
		maxRetries:         3,
		stopChan:           make(chan struct{}),
		stoppedChan:        make(chan struct{}),
	}
}

// WithInterval overrides the retry interval
func (op *OutboxPublisher) WithInterval(d time.Duration) *OutboxPublisher {
	op.processingInterval = d
	return op
}

// Publish sends the event now, or queues it for retry when that fails
func (op *OutboxPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	if err := op.inner.Publish(ctx, event); err != nil {
		op.enqueue(event, err)
	}
	return nil
}

// PublishBatch sends the events now, or queues them for retry
func (op *OutboxPublisher) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	if len(batch) == 0 {
		return nil
	}
	if err := op.inner.PublishBatch(ctx, batch); err != nil {
		for _, event := range batch {
			op.enqueue(event, err)
		}
	}
	return nil
}

// Pending returns the number of events waiting for a retry
func (op *OutboxPublisher) Pending() int {
	op.mu.Lock()
	defer op.mu.Unlock()
	return len(op.pending)
}

func (op *OutboxPublisher) enqueue(event events.DomainEvent, err error) {
	op.logger.Warn("Publish failed, queued for retry",
		zap.String("eventType", event.GetEventType()),
		zap.String("aggregateID", event.GetAggregateID()),
		zap.Error(err),
	)
	op.mu.Lock()
	op.pending = append(op.pending, outboxEntry{event: event, attempts: 1})
	op.mu.Unlock()
}

// Start begins the background retry loop
func (op *OutboxPublisher) Start(ctx context.Context) {
	op.startOnce.Do(func() {
		op.logger.Info("Starting outbox publisher",
			zap.Int("batchSize", op.batchSize),
			zap.Duration("interval", op.processingInterval),
		)
		go op.processLoop(ctx)
	})
}

// Stop makes one last delivery attempt and stops the retry loop
func (op *OutboxPublisher) Stop() {
	op.stopOnce.Do(func() {
		close(op.stopChan)
		// Never started: nothing to wait for
		op.startOnce.Do(func() { close(op.stoppedChan) })
		<-op.stoppedChan
		op.processBatch(context.Background())
		if n := op.Pending(); n > 0 {
			op.logger.Warn("Outbox stopped with undelivered events", zap.Int("count", n))
		}
	})
}

func (op *OutboxPublisher) processLoop(ctx context.Context) {
	defer close(op.stoppedChan)

	ticker := time.NewTicker(op.processingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-op.stopChan:
			return
		case <-ticker.C:
			op.processBatch(ctx)
		}
	}
}

// processBatch retries up to batchSize queued events
func (op *OutboxPublisher) processBatch(ctx context.Context) {
	op.mu.Lock()
	n := len(op.pending)
	if n > op.batchSize {
		n = op.batchSize
	}
	batch := make([]outboxEntry, n)
	copy(batch, op.pending[:n])
	op.pending = op.pending[n:]
	op.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	var retry []outboxEntry
	for _, entry := range batch {
		err := op.inner.Publish(ctx, entry.event)
		if err == nil {
			op.logger.Debug("Queued event published",
				zap.String("eventType", entry.event.GetEventType()),
				zap.Int("attempts", entry.attempts+1),
			)
			continue
		}

		entry.attempts++
		if entry.attempts >= op.maxRetries {
			op.logger.Error("Event permanently failed after max retries",
				zap.String("eventType", entry.event.GetEventType()),
				zap.String("aggregateID", entry.event.GetAggregateID()),
				zap.Int("attempts", entry.attempts),
				zap.Error(err),
			)
			continue
		}
		retry = append(retry, entry)
	}

	if len(retry) > 0 {
		op.mu.Lock()
		op.pending = append(retry, op.pending...)
		op.mu.Unlock()
	}
}

// LogPublisher records events in the log instead of sending them anywhere.
// It stands in when no event bus is configured.
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher creates a LogPublisher
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs the event
func (p *LogPublisher) Publish(_ context.Context, event events.DomainEvent) error {
	p.logger.Debug("Domain event",
		zap.String("eventType", event.GetEventType()),
		zap.String("aggregateID", event.GetAggregateID()),
		zap.Time("timestamp", event.GetTimestamp()),
	)
	return nil
}

// PublishBatch logs each event
func (p *LogPublisher) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	for _, event := range batch {
		_ = p.Publish(ctx, event)
	}
	return nil
}
