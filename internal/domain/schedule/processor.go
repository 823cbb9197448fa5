package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mashdotdev/taskflow/internal/domain/events"
	"github.com/mashdotdev/taskflow/internal/domain/task"
	"github.com/mashdotdev/taskflow/pkg/logger"
	"go.uber.org/zap"
)

// EventPublisher is the slice of the outbox publisher the processor needs
type EventPublisher interface {
	PublishCreated(ctx context.Context, taskID, userID string, payload map[string]interface{}) (*events.TaskEvent, error)
}

// Summary reports one processing pass over the due schedules
type Summary struct {
	Processed int       `json:"processed"`
	Errors    int       `json:"errors"`
	Timestamp time.Time `json:"timestamp"`
}

// Processor materializes new task instances from due recurring schedules.
// Each schedule is processed independently: one bad row cannot abort the
// batch.
type Processor struct {
	schedules Repository
	tasks     task.TaskRepository
	publisher EventPublisher
	logger    *logger.Logger
}

func NewProcessor(schedules Repository, tasks task.TaskRepository, publisher EventPublisher, log *logger.Logger) *Processor {
	return &Processor{
		schedules: schedules,
		tasks:     tasks,
		publisher: publisher,
		logger:    log,
	}
}

// ProcessDueSchedules runs one pass: query due schedules, create an instance
// per schedule, publish its creation event, advance the schedule
func (p *Processor) ProcessDueSchedules(ctx context.Context) (*Summary, error) {
	now := time.Now().UTC()

	due, err := p.schedules.FindDue(ctx, now)
	if err != nil {
		return nil, err
	}

	p.logger.Info("Processing due schedules",
		zap.Int("due_count", len(due)),
		zap.Time("now", now))

	summary := &Summary{Timestamp: now}
	for i := range due {
		if err := p.processSchedule(ctx, &due[i], now); err != nil {
			p.logger.Error("Error processing schedule",
				zap.String("schedule_id", due[i].ScheduleID.String()),
				zap.Error(err))
			summary.Errors++
			continue
		}
		summary.Processed++
	}

	return summary, nil
}

func (p *Processor) processSchedule(ctx context.Context, sched *RecurringTaskSchedule, now time.Time) error {
	parent, err := p.tasks.FindByID(ctx, sched.ParentTaskID)
	if err != nil {
		if errors.Is(err, task.ErrTaskNotFound) {
			// Orphaned schedule: deactivate permanently, generate nothing.
			// This is self-healing, not an error.
			p.logger.Warn("Parent task not found, deactivating schedule",
				zap.String("schedule_id", sched.ScheduleID.String()),
				zap.String("parent_task_id", sched.ParentTaskID.String()))
			sched.IsActive = false
			return p.schedules.Update(ctx, sched)
		}
		return err
	}

	instance := p.newInstance(parent, sched)
	if err := p.tasks.Create(ctx, instance); err != nil {
		return err
	}

	// Best effort: a failed publish does not roll back the instance or the
	// schedule advance
	if _, err := p.publisher.PublishCreated(ctx, instance.ID.String(), instance.UserID, instance.Snapshot()); err != nil {
		p.logger.Warn("Failed to publish creation event for task instance",
			zap.String("task_id", instance.ID.String()),
			zap.Error(err))
	}

	next, err := NextExecution(now, sched.RecurrencePattern)
	if err != nil {
		return err
	}
	// Advance from the processing instant, not the previous slot. Processing
	// delay therefore drifts the schedule; kept deliberately to match the
	// established behavior.
	sched.LastExecutedAt = &now
	sched.NextExecutionTime = next
	if err := p.schedules.Update(ctx, sched); err != nil {
		return err
	}

	p.logger.Info("Created task instance from schedule",
		zap.String("task_id", instance.ID.String()),
		zap.String("schedule_id", sched.ScheduleID.String()),
		zap.Time("next_execution_time", next))

	return nil
}

// newInstance copies the template task into a fresh pending, non-recurring
// instance. The due date advances one recurrence unit from the parent's due
// date, falling back to the schedule's slot when the parent has none.
func (p *Processor) newInstance(parent *task.Task, sched *RecurringTaskSchedule) *task.Task {
	dueDate := sched.NextExecutionTime
	if parent.DueDate != nil {
		if next, err := NextExecution(*parent.DueDate, sched.RecurrencePattern); err == nil {
			dueDate = next
		}
	}

	var leadTime *int
	if parent.ReminderLeadTime != nil {
		v := *parent.ReminderLeadTime
		leadTime = &v
	}

	return &task.Task{
		ID:                uuid.New(),
		Title:             parent.Title,
		Description:       parent.Description,
		Status:            task.StatusPending,
		UserID:            parent.UserID,
		Priority:          parent.Priority,
		Tags:              append([]string(nil), parent.Tags...),
		DueDate:           &dueDate,
		RecurrencePattern: task.RecurrencePatternNone,
		ReminderLeadTime:  leadTime,
	}
}

// DueCount returns the number of schedules currently due, for monitoring
func (p *Processor) DueCount(ctx context.Context) (int64, error) {
	return p.schedules.CountDue(ctx, time.Now().UTC())
}
