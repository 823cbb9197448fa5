package notification

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Type represents the type of notification
type Type string

const (
	TypeCreated    Type = "created"
	TypeCompletion Type = "completion"
	TypeUpdated    Type = "updated"
	TypeReminder   Type = "reminder"
)

// DeliveryStatus represents the delivery state of a notification
type DeliveryStatus string

const (
	StatusSent   DeliveryStatus = "sent"
	StatusRead   DeliveryStatus = "read"
	StatusFailed DeliveryStatus = "failed"
)

// Common errors
var (
	ErrNotificationNotFound = errors.New("notification not found")
)

// Notification is an in-app notification created from a consumed task event.
// TaskID is a weak reference: the notification outlives task deletion and the
// reference may dangle.
type Notification struct {
	ID             uuid.UUID      `json:"notification_id" gorm:"column:notification_id;type:uuid;primaryKey"`
	UserID         string         `json:"user_id" gorm:"column:user_id;not null;index:idx_notification_user"`
	TaskID         *string        `json:"task_id,omitempty" gorm:"column:task_id"`
	Type           Type           `json:"notification_type" gorm:"column:notification_type;not null;size:50"`
	Message        string         `json:"message" gorm:"column:message;not null"`
	SentAt         time.Time      `json:"sent_at" gorm:"column:sent_at;not null"`
	DeliveryStatus DeliveryStatus `json:"delivery_status" gorm:"column:delivery_status;not null;default:'sent';size:20"`
	CreatedAt      time.Time      `json:"created_at" gorm:"column:created_at;not null"`
}

// TableName specifies the table name for the Notification model
func (Notification) TableName() string {
	return "notifications"
}

// BeforeCreate is called before inserting a new notification record
func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	now := time.Now().UTC()
	if n.SentAt.IsZero() {
		n.SentAt = now
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	if n.DeliveryStatus == "" {
		n.DeliveryStatus = StatusSent
	}
	return nil
}
