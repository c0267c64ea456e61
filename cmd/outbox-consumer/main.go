package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/turfease/platform/internal/domain"
	"github.com/turfease/platform/internal/infra"
)

// topics lists every event stream the api relays from the outbox.
var topics = []string{
	domain.OutboxDraft{AggregateType: domain.AggregateAccount, EventType: domain.EventAccountRegistered}.Topic(),
	domain.OutboxDraft{AggregateType: domain.AggregateAccount, EventType: domain.EventAccountVerified}.Topic(),
	domain.OutboxDraft{AggregateType: domain.AggregateAccount, EventType: domain.EventOwnerApproved}.Topic(),
	domain.OutboxDraft{AggregateType: domain.AggregateAccount, EventType: domain.EventOwnerRejected}.Topic(),
	domain.OutboxDraft{AggregateType: domain.AggregateTurf, EventType: domain.EventTurfApproved}.Topic(),
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("outbox consumer failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	groupID := os.Getenv("OUTBOX_CONSUMER_GROUP")
	if groupID == "" {
		groupID = "turfease-audit"
	}

	consumer := infra.NewKafkaConsumer(cfg.KafkaBrokers, topics, groupID)
	defer consumer.Close()
	logger.Info("outbox-consumer starting", "brokers", cfg.KafkaBrokers, "group", groupID, "topics", len(topics))

	for {
		msg, err := consumer.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				logger.Info("outbox-consumer shutting down")
				return nil
			}
			return fmt.Errorf("read message: %w", err)
		}
		logger.Info("event received",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"aggregate_id", string(msg.Key),
			"payload", string(msg.Value),
		)
	}
}
