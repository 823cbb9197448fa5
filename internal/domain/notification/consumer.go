package notification

import (
	"context"
	"fmt"

	"github.com/mashdotdev/taskflow/internal/domain/events"
	"github.com/mashdotdev/taskflow/pkg/logger"
	"go.uber.org/zap"
)

// Skip reasons surfaced in the consumer response body
const (
	ReasonAlreadyProcessed    = "already_processed"
	ReasonEventTypeNotTracked = "event_type_not_tracked"
)

// Result is the consumer's response body for a delivered event. Skips are
// normal outcomes, not errors, and stay observable for testing.
type Result struct {
	Success        bool   `json:"success"`
	Skipped        bool   `json:"skipped,omitempty"`
	Reason         string `json:"reason,omitempty"`
	NotificationID string `json:"notification_id,omitempty"`
	Message        string `json:"message,omitempty"`
}

// Consumer turns delivered task events into notification rows. The broker
// delivers at-least-once; the idempotency ledger collapses redeliveries into
// exactly one notification per event.
type Consumer struct {
	ledger events.LedgerRepository
	repo   Repository
	cache  UnreadCountCache
	logger *logger.Logger
}

// NewConsumer creates a notification event consumer. The cache may be nil.
func NewConsumer(ledger events.LedgerRepository, repo Repository, unreadCache UnreadCountCache, log *logger.Logger) *Consumer {
	return &Consumer{
		ledger: ledger,
		repo:   repo,
		cache:  unreadCache,
		logger: log,
	}
}

// ProcessEvent handles one delivered event envelope
func (c *Consumer) ProcessEvent(ctx context.Context, env *events.Envelope) (*Result, error) {
	c.logger.Info("Processing task event",
		zap.String("event_id", env.EventID),
		zap.String("event_type", string(env.EventType)))

	processed, err := c.ledger.IsProcessed(ctx, env.EventID)
	if err != nil {
		return nil, fmt.Errorf("idempotency check failed: %w", err)
	}
	if processed {
		c.logger.Info("Event already processed, skipping",
			zap.String("event_id", env.EventID))
		return &Result{Success: true, Skipped: true, Reason: ReasonAlreadyProcessed}, nil
	}

	// Only creations and completions produce a notification; everything else
	// is acknowledged and skipped
	if env.EventType != events.EventTaskCreated && env.EventType != events.EventTaskCompleted {
		return &Result{Success: true, Skipped: true, Reason: ReasonEventTypeNotTracked}, nil
	}

	n := c.buildNotification(env)
	if err := c.repo.CreateFromEvent(ctx, n, env.EventID, string(env.EventType)); err != nil {
		// Not marked processed: redelivery will retry
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	// A new notification changes the unread count; the cached value must not
	// outlive it
	if c.cache != nil {
		c.cache.InvalidateUnreadCount(ctx, n.UserID)
	}

	c.logger.Info("Created notification",
		zap.String("notification_id", n.ID.String()),
		zap.String("user_id", n.UserID))

	return &Result{
		Success:        true,
		NotificationID: n.ID.String(),
		Message:        n.Message,
	}, nil
}

func (c *Consumer) buildNotification(env *events.Envelope) *Notification {
	var taskID *string
	if env.TaskID != "" {
		id := env.TaskID
		taskID = &id
	}
	return &Notification{
		UserID:         env.UserID,
		TaskID:         taskID,
		Type:           typeFor(env.EventType),
		Message:        MessageFor(env.EventType, env.TaskTitle()),
		DeliveryStatus: StatusSent,
	}
}

func typeFor(eventType events.EventType) Type {
	switch eventType {
	case events.EventTaskCreated:
		return TypeCreated
	case events.EventTaskCompleted:
		return TypeCompletion
	default:
		return TypeUpdated
	}
}

// MessageFor renders the fixed notification message template for an event
func MessageFor(eventType events.EventType, title string) string {
	switch eventType {
	case events.EventTaskCreated:
		return fmt.Sprintf("New task created: %s", title)
	case events.EventTaskUpdated:
		return fmt.Sprintf("Task updated: %s", title)
	case events.EventTaskCompleted:
		return fmt.Sprintf("Task completed: %s", title)
	case events.EventTaskDeleted:
		return fmt.Sprintf("Task deleted: %s", title)
	default:
		return fmt.Sprintf("Task event: %s", title)
	}
}
