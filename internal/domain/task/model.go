package task

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// RecurrencePatternNone marks a task that does not recur. Recurring patterns
// themselves live in the schedule domain; the task row only carries the
// string so instances can be stamped non-recurring.
const RecurrencePatternNone = "none"

// Common errors
var (
	ErrTaskNotFound  = errors.New("task not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidStatus = errors.New("invalid task status")
	ErrInvalidUserID = errors.New("invalid user ID")
)

// Task represents a task in the system
type Task struct {
	ID                uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Title             string         `json:"title" gorm:"not null;size:200"`
	Description       string         `json:"description" gorm:"size:1000"`
	Status            Status         `json:"status" gorm:"not null;default:'pending';index:idx_task_status"`
	UserID            string         `json:"user_id" gorm:"not null;index:idx_task_user"`
	Priority          Priority       `json:"priority" gorm:"not null;default:'Medium'"`
	Tags              pq.StringArray `json:"tags" gorm:"type:text[]"`
	DueDate           *time.Time     `json:"due_date,omitempty" gorm:"index:idx_task_due"`
	RecurrencePattern string         `json:"recurrence_pattern" gorm:"not null;default:'none';size:20"`
	ReminderLeadTime  *int           `json:"reminder_lead_time,omitempty"`
	CreatedAt         time.Time      `json:"created_at" gorm:"not null"`
	UpdatedAt         time.Time      `json:"updated_at" gorm:"not null"`
}

// TableName specifies the table name for the Task model
func (Task) TableName() string {
	return "tasks"
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Validate checks if the task data is valid
func (t *Task) Validate() error {
	if t.Title == "" {
		return ErrInvalidInput
	}
	if !t.Status.IsValid() {
		return ErrInvalidStatus
	}
	if t.UserID == "" {
		return ErrInvalidUserID
	}
	if !t.Priority.IsValid() {
		return ErrInvalidInput
	}
	return nil
}

// BeforeCreate is called before creating a new task record
func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = StatusPending
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.RecurrencePattern == "" {
		t.RecurrencePattern = RecurrencePatternNone
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	return t.Validate()
}

// BeforeUpdate is called before updating a task record
func (t *Task) BeforeUpdate(tx *gorm.DB) error {
	t.UpdatedAt = time.Now().UTC()
	return t.Validate()
}

// Snapshot returns the full task state as an event payload
func (t *Task) Snapshot() map[string]interface{} {
	var dueDate interface{}
	if t.DueDate != nil {
		dueDate = t.DueDate.UTC().Format(time.RFC3339)
	}
	var leadTime interface{}
	if t.ReminderLeadTime != nil {
		leadTime = *t.ReminderLeadTime
	}
	return map[string]interface{}{
		"id":                 t.ID.String(),
		"title":              t.Title,
		"description":        t.Description,
		"status":             string(t.Status),
		"priority":           string(t.Priority),
		"tags":               []string(t.Tags),
		"due_date":           dueDate,
		"recurrence_pattern": t.RecurrencePattern,
		"reminder_lead_time": leadTime,
		"created_at":         t.CreatedAt.UTC().Format(time.RFC3339),
	}
}
