package audit

import (
	"context"
	"time"

	"github.com/mashdotdev/taskflow/internal/domain/events"
	"github.com/mashdotdev/taskflow/internal/infrastructure/persistence/postgres/connection"
	"gorm.io/gorm"
)

// Repository persists audit log entries. CreateFromEvent writes the entry and
// the idempotency ledger row in one transaction.
type Repository interface {
	CreateFromEvent(ctx context.Context, entry *AuditLog, eventID, eventType string) error
	ListByCorrelation(ctx context.Context, correlationID string) ([]AuditLog, error)
}

type postgresRepository struct {
	db *connection.Database
}

// NewRepository creates a new PostgreSQL audit repository
func NewRepository(db *connection.Database) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateFromEvent(ctx context.Context, entry *AuditLog, eventID, eventType string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		return tx.Create(&events.ProcessedEvent{
			EventID:     eventID,
			EventType:   eventType,
			ProcessedAt: time.Now().UTC(),
		}).Error
	})
}

func (r *postgresRepository) ListByCorrelation(ctx context.Context, correlationID string) ([]AuditLog, error) {
	var entries []AuditLog
	err := r.db.WithContext(ctx).
		Where("correlation_id = ?", correlationID).
		Order("timestamp ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
