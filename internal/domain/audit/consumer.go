package audit

import (
	"context"
	"fmt"

	"github.com/mashdotdev/taskflow/internal/domain/events"
	"github.com/mashdotdev/taskflow/pkg/logger"
	"go.uber.org/zap"
)

// Result is the consumer's response body for a delivered event
type Result struct {
	Success    bool   `json:"success"`
	Skipped    bool   `json:"skipped,omitempty"`
	Reason     string `json:"reason,omitempty"`
	AuditID    string `json:"audit_id,omitempty"`
	ActionType string `json:"action_type,omitempty"`
}

// Consumer records an audit entry for every delivered event. Unlike the
// notification consumer it has no relevance filter: every category it
// subscribes to is logged.
type Consumer struct {
	ledger events.LedgerRepository
	repo   Repository
	logger *logger.Logger
}

// NewConsumer creates an audit event consumer
func NewConsumer(ledger events.LedgerRepository, repo Repository, log *logger.Logger) *Consumer {
	return &Consumer{
		ledger: ledger,
		repo:   repo,
		logger: log,
	}
}

// ProcessEvent handles one delivered event envelope from the given category
func (c *Consumer) ProcessEvent(ctx context.Context, env *events.Envelope, category Category) (*Result, error) {
	processed, err := c.ledger.IsProcessed(ctx, env.EventID)
	if err != nil {
		return nil, fmt.Errorf("idempotency check failed: %w", err)
	}
	if processed {
		c.logger.Info("Event already processed, skipping",
			zap.String("event_id", env.EventID))
		return &Result{Success: true, Skipped: true, Reason: "already_processed"}, nil
	}

	entry := &AuditLog{
		UserID:       env.UserID,
		ActionType:   ActionFor(env.EventType),
		ResourceType: "task",
		ResourceID:   env.TaskID,
		EventData: map[string]interface{}{
			"event_id":   env.EventID,
			"event_type": string(env.EventType),
			"category":   string(category),
			"payload":    env.Payload,
		},
		CorrelationID: env.EventID,
		Timestamp:     env.OccurredAt(),
	}

	if err := c.repo.CreateFromEvent(ctx, entry, env.EventID, string(env.EventType)); err != nil {
		// Not marked processed: redelivery will retry
		return nil, fmt.Errorf("failed to create audit log: %w", err)
	}

	c.logger.Info("Audit log created",
		zap.String("audit_id", entry.AuditID.String()),
		zap.String("action_type", entry.ActionType),
		zap.String("resource_id", entry.ResourceID))

	return &Result{
		Success:    true,
		AuditID:    entry.AuditID.String(),
		ActionType: entry.ActionType,
	}, nil
}
