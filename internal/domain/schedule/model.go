package schedule

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrScheduleNotFound = errors.New("schedule not found")
	ErrInvalidPattern   = errors.New("invalid recurrence pattern")
)

// Pattern is a recurrence pattern. "none" is a valid task pattern but never a
// valid schedule pattern: a schedule row exists only for recurring tasks.
type Pattern string

const (
	PatternNone    Pattern = "none"
	PatternDaily   Pattern = "daily"
	PatternWeekly  Pattern = "weekly"
	PatternMonthly Pattern = "monthly"
)

// IsValid reports whether the pattern can drive a schedule
func (p Pattern) IsValid() bool {
	switch p {
	case PatternDaily, PatternWeekly, PatternMonthly:
		return true
	}
	return false
}

// RecurringTaskSchedule points at a template task and the next time a new
// instance of it should be materialized. At most one schedule exists per
// parent task. Deactivation is terminal: a schedule whose parent disappears
// never fires again.
type RecurringTaskSchedule struct {
	ScheduleID        uuid.UUID  `json:"schedule_id" gorm:"column:schedule_id;type:uuid;primaryKey"`
	ParentTaskID      uuid.UUID  `json:"parent_task_id" gorm:"column:parent_task_id;type:uuid;not null;uniqueIndex:idx_schedule_parent"`
	UserID            string     `json:"user_id" gorm:"column:user_id;not null;index:idx_schedule_user"`
	RecurrencePattern Pattern    `json:"recurrence_pattern" gorm:"column:recurrence_pattern;not null;size:20"`
	NextExecutionTime time.Time  `json:"next_execution_time" gorm:"column:next_execution_time;not null;index:idx_schedule_next_exec"`
	IsActive          bool       `json:"is_active" gorm:"column:is_active;not null;default:true"`
	CreatedAt         time.Time  `json:"created_at" gorm:"column:created_at;not null"`
	LastExecutedAt    *time.Time `json:"last_executed_at,omitempty" gorm:"column:last_executed_at"`
}

// TableName specifies the table name for the RecurringTaskSchedule model
func (RecurringTaskSchedule) TableName() string {
	return "recurring_task_schedules"
}

// BeforeCreate is called before inserting a new schedule record
func (s *RecurringTaskSchedule) BeforeCreate(tx *gorm.DB) error {
	if s.ScheduleID == uuid.Nil {
		s.ScheduleID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	if !s.RecurrencePattern.IsValid() {
		return ErrInvalidPattern
	}
	return nil
}
