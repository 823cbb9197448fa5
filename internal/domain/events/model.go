package events

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EventType identifies a task lifecycle event
type EventType string

const (
	EventTaskCreated   EventType = "task-created"
	EventTaskUpdated   EventType = "task-updated"
	EventTaskCompleted EventType = "task-completed"
	EventTaskDeleted   EventType = "task-deleted"

	EventReminderScheduled EventType = "reminder-scheduled"
	EventReminderTriggered EventType = "reminder-triggered"
)

// TaskEvent is the durable outbox record for a task mutation. Rows are
// append-only: once written, only PublishedToKafka may change.
type TaskEvent struct {
	EventID          uuid.UUID         `json:"event_id" gorm:"column:event_id;type:uuid;primaryKey"`
	EventType        EventType         `json:"event_type" gorm:"column:event_type;not null;index:idx_task_events_type"`
	TaskID           string            `json:"task_id" gorm:"column:task_id;not null;index:idx_task_events_task"`
	UserID           string            `json:"user_id" gorm:"column:user_id;not null;index:idx_task_events_user"`
	Timestamp        time.Time         `json:"timestamp" gorm:"column:timestamp;not null;index:idx_task_events_ts"`
	Payload          datatypes.JSONMap `json:"payload" gorm:"column:payload;type:jsonb"`
	PublishedToKafka bool              `json:"published_to_kafka" gorm:"column:published_to_kafka;not null;default:false;index:idx_task_events_published"`
	CreatedAt        time.Time         `json:"created_at" gorm:"column:created_at;not null"`
}

// TableName specifies the table name for the TaskEvent model
func (TaskEvent) TableName() string {
	return "task_events"
}

// BeforeCreate is called before inserting a new event record
func (e *TaskEvent) BeforeCreate(tx *gorm.DB) error {
	if e.EventID == uuid.Nil {
		e.EventID = uuid.New()
	}
	now := time.Now().UTC()
	if e.Timestamp.IsZero() {
		e.Timestamp = now
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	return nil
}

// ProcessedEvent is the idempotency ledger row for one consumer. Existence of
// a row means the event's side effect has been committed and must not be
// repeated. Rows are never updated or deleted.
type ProcessedEvent struct {
	EventID     string    `json:"event_id" gorm:"column:event_id;primaryKey"`
	EventType   string    `json:"event_type" gorm:"column:event_type;not null"`
	ProcessedAt time.Time `json:"processed_at" gorm:"column:processed_at;not null"`
}

// TableName specifies the table name for the ProcessedEvent model
func (ProcessedEvent) TableName() string {
	return "processed_events"
}
