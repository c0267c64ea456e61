package infra

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/turfease/platform/internal/repository"
)

// Publisher sends one message to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// OutboxPoller relays event_outbox rows to Kafka and deletes them once published.
type OutboxPoller struct {
	outbox    repository.OutboxRepository
	publisher Publisher
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

// NewOutboxPoller creates a new outbox poller.
func NewOutboxPoller(outbox repository.OutboxRepository, publisher Publisher, logger *slog.Logger) *OutboxPoller {
	return &OutboxPoller{
		outbox:    outbox,
		publisher: publisher,
		logger:    logger,
		interval:  500 * time.Millisecond,
		batchSize: 100,
	}
}

// WithInterval overrides the poll interval.
func (p *OutboxPoller) WithInterval(d time.Duration) *OutboxPoller {
	if d > 0 {
		p.interval = d
	}
	return p
}

// Start runs the poller in a goroutine until ctx is cancelled.
func (p *OutboxPoller) Start(ctx context.Context) {
	go p.Run(ctx)
}

// Run polls until ctx is cancelled.
func (p *OutboxPoller) Run(ctx context.Context) {
	p.logger.Info("outbox poller started", "interval", p.interval, "batch_size", p.batchSize)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("outbox poller stopped")
			return
		case <-ticker.C:
			if _, err := p.PollOnce(ctx); err != nil {
				p.logger.Error("outbox poll error", "error", err)
			}
		}
	}
}

// PollOnce publishes one batch and returns how many events were relayed.
// Events that fail to publish stay in the outbox for the next poll.
func (p *OutboxPoller) PollOnce(ctx context.Context) (int, error) {
	events, err := p.outbox.FetchUnpublished(ctx, p.batchSize)
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}

	published := make([]int64, 0, len(events))
	for _, e := range events {
		msg, err := json.Marshal(e)
		if err != nil {
			p.logger.Error("encode outbox event failed", "event_id", e.EventID, "error", err)
			continue
		}

		if err := p.publisher.Publish(ctx, e.Topic(), []byte(e.AggregateID), msg); err != nil {
			p.logger.Error("kafka publish failed", "event_id", e.EventID, "topic", e.Topic(), "error", err)
			continue
		}
		published = append(published, e.ID)
	}

	if len(published) == 0 {
		return 0, nil
	}
	if err := p.outbox.MarkPublished(ctx, published); err != nil {
		return 0, err
	}

	p.logger.Debug("outbox poll complete", "published", len(published))
	return len(published), nil
}
