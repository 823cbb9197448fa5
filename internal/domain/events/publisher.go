package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mashdotdev/taskflow/pkg/broker"
	"github.com/mashdotdev/taskflow/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// Publisher converts task mutations into durable, eventually-delivered
// events. The outbox row is committed before any network call: if the broker
// is unreachable the row stays with published_to_kafka=false and the sweep
// worker retries it later. Delivery failures are never surfaced to the
// caller of a task operation.
type Publisher struct {
	events EventRepository
	broker broker.Client
	topic  string
	logger *logger.Logger
}

// NewPublisher creates an outbox publisher for one topic
func NewPublisher(events EventRepository, brokerClient broker.Client, topic string, log *logger.Logger) *Publisher {
	return &Publisher{
		events: events,
		broker: brokerClient,
		topic:  topic,
		logger: log,
	}
}

// PublishCreated publishes a task-created event
func (p *Publisher) PublishCreated(ctx context.Context, taskID, userID string, payload map[string]interface{}) (*TaskEvent, error) {
	return p.publish(ctx, EventTaskCreated, taskID, userID, payload)
}

// PublishUpdated publishes a task-updated event
func (p *Publisher) PublishUpdated(ctx context.Context, taskID, userID string, payload map[string]interface{}) (*TaskEvent, error) {
	return p.publish(ctx, EventTaskUpdated, taskID, userID, payload)
}

// PublishCompleted publishes a task-completed event
func (p *Publisher) PublishCompleted(ctx context.Context, taskID, userID string, payload map[string]interface{}) (*TaskEvent, error) {
	return p.publish(ctx, EventTaskCompleted, taskID, userID, payload)
}

// PublishDeleted publishes a task-deleted event with the last known snapshot
func (p *Publisher) PublishDeleted(ctx context.Context, taskID, userID string, payload map[string]interface{}) (*TaskEvent, error) {
	return p.publish(ctx, EventTaskDeleted, taskID, userID, payload)
}

func (p *Publisher) publish(ctx context.Context, eventType EventType, taskID, userID string, payload map[string]interface{}) (*TaskEvent, error) {
	now := time.Now().UTC()
	event := &TaskEvent{
		EventID:          uuid.New(),
		EventType:        eventType,
		TaskID:           taskID,
		UserID:           userID,
		Timestamp:        now,
		Payload:          datatypes.JSONMap(payload),
		PublishedToKafka: false,
		CreatedAt:        now,
	}

	// Durability boundary: the outbox row must commit before any network call
	if err := p.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to persist outbox event: %w", err)
	}

	if err := p.deliver(ctx, event); err != nil {
		p.logger.Warn("Broker delivery failed, event left unpublished",
			zap.String("event_id", event.EventID.String()),
			zap.String("event_type", string(eventType)),
			zap.String("task_id", taskID),
			zap.Error(err))
		return event, nil
	}

	if err := p.events.MarkPublished(ctx, event.EventID); err != nil {
		p.logger.Warn("Failed to mark event as published",
			zap.String("event_id", event.EventID.String()),
			zap.Error(err))
		return event, nil
	}
	event.PublishedToKafka = true

	p.logger.Info("Published task event",
		zap.String("event_id", event.EventID.String()),
		zap.String("event_type", string(eventType)),
		zap.String("task_id", taskID))

	return event, nil
}

// deliver sends the event through the broker, partitioned by task id so all
// events for one task land on the same ordered partition
func (p *Publisher) deliver(ctx context.Context, event *TaskEvent) error {
	body, err := json.Marshal(event.Envelope())
	if err != nil {
		return fmt.Errorf("failed to encode event envelope: %w", err)
	}
	return p.broker.Publish(ctx, p.topic, event.TaskID, body)
}
