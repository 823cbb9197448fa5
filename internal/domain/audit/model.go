package audit

import (
	"time"

	"github.com/google/uuid"
	"github.com/mashdotdev/taskflow/internal/domain/events"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Category identifies which topic an event arrived on
type Category string

const (
	CategoryTask     Category = "task"
	CategoryReminder Category = "reminder"
	CategoryUpdate   Category = "update"
)

// AuditLog is the append-only compliance record for one consumed event.
// CorrelationID carries the originating event id so one causal event can be
// traced across services. Rows are never mutated or deleted.
type AuditLog struct {
	AuditID       uuid.UUID         `json:"audit_id" gorm:"column:audit_id;type:uuid;primaryKey"`
	UserID        string            `json:"user_id" gorm:"column:user_id;not null;index:idx_audit_user"`
	ActionType    string            `json:"action_type" gorm:"column:action_type;not null;size:50;index:idx_audit_action"`
	ResourceType  string            `json:"resource_type" gorm:"column:resource_type;not null;default:'task';size:50"`
	ResourceID    string            `json:"resource_id" gorm:"column:resource_id;not null;index:idx_audit_resource"`
	EventData     datatypes.JSONMap `json:"event_data" gorm:"column:event_data;type:jsonb"`
	CorrelationID string            `json:"correlation_id" gorm:"column:correlation_id;not null;index:idx_audit_correlation"`
	Timestamp     time.Time         `json:"timestamp" gorm:"column:timestamp;not null;index:idx_audit_ts"`
}

// TableName specifies the table name for the AuditLog model
func (AuditLog) TableName() string {
	return "audit_logs"
}

// BeforeCreate is called before inserting a new audit record
func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.AuditID == uuid.Nil {
		a.AuditID = uuid.New()
	}
	if a.ResourceType == "" {
		a.ResourceType = "task"
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now().UTC()
	}
	return nil
}

// ActionFor maps an event type to the audit action recorded for it
func ActionFor(eventType events.EventType) string {
	switch eventType {
	case events.EventTaskCreated:
		return "create"
	case events.EventTaskUpdated:
		return "update"
	case events.EventTaskCompleted:
		return "complete"
	case events.EventTaskDeleted:
		return "delete"
	case events.EventReminderScheduled:
		return "schedule"
	case events.EventReminderTriggered:
		return "trigger"
	default:
		return "unknown"
	}
}
