package events

import (
	"context"
	"encoding/json"

	"github.com/mashdotdev/taskflow/pkg/broker"
	"github.com/mashdotdev/taskflow/pkg/logger"
	"go.uber.org/zap"
)

// Sweeper retries outbox rows whose broker delivery failed. It completes the
// outbox pattern: a publish that lost its race with a broker outage is
// re-attempted here until the flag flips.
type Sweeper struct {
	events    EventRepository
	broker    broker.Client
	topic     string
	batchSize int
	logger    *logger.Logger
}

// NewSweeper creates a sweep worker over the outbox table
func NewSweeper(events EventRepository, brokerClient broker.Client, topic string, batchSize int, log *logger.Logger) *Sweeper {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Sweeper{
		events:    events,
		broker:    brokerClient,
		topic:     topic,
		batchSize: batchSize,
		logger:    log,
	}
}

// Sweep republishes one batch of unpublished events, oldest first. Failures
// are isolated per event; the row stays unpublished and is retried on the
// next sweep.
func (s *Sweeper) Sweep(ctx context.Context) error {
	pending, err := s.events.ListUnpublished(ctx, s.batchSize)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	published := 0
	for i := range pending {
		event := &pending[i]

		body, err := json.Marshal(event.Envelope())
		if err != nil {
			s.logger.Error("Failed to encode outbox event",
				zap.String("event_id", event.EventID.String()),
				zap.Error(err))
			continue
		}

		if err := s.broker.Publish(ctx, s.topic, event.TaskID, body); err != nil {
			s.logger.Warn("Outbox retry delivery failed",
				zap.String("event_id", event.EventID.String()),
				zap.Error(err))
			continue
		}

		if err := s.events.MarkPublished(ctx, event.EventID); err != nil {
			s.logger.Warn("Failed to mark swept event as published",
				zap.String("event_id", event.EventID.String()),
				zap.Error(err))
			continue
		}
		published++
	}

	s.logger.Info("Outbox sweep completed",
		zap.Int("pending", len(pending)),
		zap.Int("published", published))

	return nil
}
