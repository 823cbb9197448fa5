package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mashdotdev/taskflow/internal/domain/task"
	"github.com/mashdotdev/taskflow/pkg/logger"
	"go.uber.org/zap"
)

// Manager maintains schedule rows alongside task mutations. It implements
// task.ScheduleManager.
type Manager struct {
	repo   Repository
	logger *logger.Logger
}

func NewManager(repo Repository, log *logger.Logger) *Manager {
	return &Manager{repo: repo, logger: log}
}

// CreateForTask creates the schedule for a newly created recurring task. The
// first firing is the task's due date when set, otherwise one recurrence
// unit from now.
func (m *Manager) CreateForTask(ctx context.Context, t *task.Task) error {
	pattern := Pattern(t.RecurrencePattern)
	if !pattern.IsValid() {
		return ErrInvalidPattern
	}

	next, err := InitialExecution(t.DueDate, pattern, time.Now().UTC())
	if err != nil {
		return err
	}

	sched := &RecurringTaskSchedule{
		ScheduleID:        uuid.New(),
		ParentTaskID:      t.ID,
		UserID:            t.UserID,
		RecurrencePattern: pattern,
		NextExecutionTime: next,
		IsActive:          true,
	}
	if err := m.repo.Create(ctx, sched); err != nil {
		return err
	}

	m.logger.Info("Created recurring schedule",
		zap.String("schedule_id", sched.ScheduleID.String()),
		zap.String("parent_task_id", t.ID.String()),
		zap.String("pattern", string(pattern)),
		zap.Time("next_execution_time", next))

	return nil
}

// RemoveForTask removes the schedule when its parent task is deleted
func (m *Manager) RemoveForTask(ctx context.Context, taskID uuid.UUID) error {
	return m.repo.RemoveByParentTask(ctx, taskID)
}
