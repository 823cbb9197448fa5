package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mashdotdev/taskflow/internal/infrastructure/persistence/postgres/connection"
	"gorm.io/gorm"
)

var ErrEventNotFound = errors.New("event not found")

// EventRepository persists outbox records. ListUnpublished exists so a sweep
// worker can retry deliveries the broker missed.
type EventRepository interface {
	Create(ctx context.Context, event *TaskEvent) error
	FindByID(ctx context.Context, eventID uuid.UUID) (*TaskEvent, error)
	MarkPublished(ctx context.Context, eventID uuid.UUID) error
	ListUnpublished(ctx context.Context, limit int) ([]TaskEvent, error)
}

// LedgerRepository is the per-consumer idempotency ledger
type LedgerRepository interface {
	IsProcessed(ctx context.Context, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, eventID, eventType string) error
}

type eventRepository struct {
	db *connection.Database
}

func NewEventRepository(db *connection.Database) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Create(ctx context.Context, event *TaskEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *eventRepository) FindByID(ctx context.Context, eventID uuid.UUID) (*TaskEvent, error) {
	var event TaskEvent
	result := r.db.WithContext(ctx).First(&event, "event_id = ?", eventID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, result.Error
	}
	return &event, nil
}

func (r *eventRepository) MarkPublished(ctx context.Context, eventID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&TaskEvent{}).
		Where("event_id = ?", eventID).
		Update("published_to_kafka", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (r *eventRepository) ListUnpublished(ctx context.Context, limit int) ([]TaskEvent, error) {
	var pending []TaskEvent
	query := r.db.WithContext(ctx).
		Where("published_to_kafka = ?", false).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&pending).Error; err != nil {
		return nil, err
	}
	return pending, nil
}

type ledgerRepository struct {
	db *connection.Database
}

func NewLedgerRepository(db *connection.Database) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&ProcessedEvent{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ledgerRepository) MarkProcessed(ctx context.Context, eventID, eventType string) error {
	return r.db.WithContext(ctx).Create(&ProcessedEvent{
		EventID:     eventID,
		EventType:   eventType,
		ProcessedAt: time.Now().UTC(),
	}).Error
}
