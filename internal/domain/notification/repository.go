package notification

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mashdotdev/taskflow/internal/domain/events"
	"github.com/mashdotdev/taskflow/internal/infrastructure/persistence/postgres/connection"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Repository defines persistence for notifications. CreateFromEvent writes
// the notification and the idempotency ledger row in one transaction, so the
// side effect and the "do not reprocess" mark commit together or not at all.
type Repository interface {
	CreateFromEvent(ctx context.Context, n *Notification, eventID, eventType string) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Notification, int64, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, id uuid.UUID) (*Notification, error)
}

type postgresRepository struct {
	db     *connection.Database
	logger *logrus.Logger
}

// NewRepository creates a new PostgreSQL notification repository
func NewRepository(db *connection.Database, logger *logrus.Logger) Repository {
	return &postgresRepository{
		db:     db,
		logger: logger,
	}
}

func (r *postgresRepository) CreateFromEvent(ctx context.Context, n *Notification, eventID, eventType string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(n).Error; err != nil {
			return err
		}
		return tx.Create(&events.ProcessedEvent{
			EventID:     eventID,
			EventType:   eventType,
			ProcessedAt: time.Now().UTC(),
		}).Error
	})
	if err != nil {
		r.logger.WithError(err).WithField("event_id", eventID).Error("Failed to persist notification")
		return err
	}
	return nil
}

func (r *postgresRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Notification, int64, error) {
	var notifications []Notification
	var total int64

	query := r.db.WithContext(ctx).Model(&Notification{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&notifications).Error
	if err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}

func (r *postgresRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Notification{}).
		Where("user_id = ?", userID).
		Where("delivery_status = ?", StatusSent).
		Count(&count).Error
	return count, err
}

func (r *postgresRepository) MarkRead(ctx context.Context, id uuid.UUID) (*Notification, error) {
	var n Notification
	result := r.db.WithContext(ctx).First(&n, "notification_id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, result.Error
	}

	n.DeliveryStatus = StatusRead
	if err := r.db.WithContext(ctx).Save(&n).Error; err != nil {
		return nil, err
	}
	return &n, nil
}
