package task

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mashdotdev/taskflow/internal/domain/events"
	"github.com/mashdotdev/taskflow/pkg/logger"
	"go.uber.org/zap"
)

// EventPublisher is the slice of the outbox publisher the task service needs.
// Event publication is decoupled from the task mutation: a failed publish is
// logged and swallowed, the mutation itself still succeeds.
type EventPublisher interface {
	PublishCreated(ctx context.Context, taskID, userID string, payload map[string]interface{}) (*events.TaskEvent, error)
	PublishUpdated(ctx context.Context, taskID, userID string, payload map[string]interface{}) (*events.TaskEvent, error)
	PublishCompleted(ctx context.Context, taskID, userID string, payload map[string]interface{}) (*events.TaskEvent, error)
	PublishDeleted(ctx context.Context, taskID, userID string, payload map[string]interface{}) (*events.TaskEvent, error)
}

// ScheduleManager maintains recurring schedules alongside task mutations.
// Schedules are exclusively owned by their parent task: they are created with
// it and removed with it (the cascade contract the scheduler relies on).
type ScheduleManager interface {
	CreateForTask(ctx context.Context, t *Task) error
	RemoveForTask(ctx context.Context, taskID uuid.UUID) error
}

type CreateTaskInput struct {
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	UserID            string     `json:"user_id"`
	Priority          Priority   `json:"priority"`
	Tags              []string   `json:"tags,omitempty"`
	DueDate           *time.Time `json:"due_date,omitempty"`
	RecurrencePattern string     `json:"recurrence_pattern"`
	ReminderLeadTime  *int       `json:"reminder_lead_time,omitempty"`
}

type UpdateTaskInput struct {
	Title            *string    `json:"title,omitempty"`
	Description      *string    `json:"description,omitempty"`
	Status           *Status    `json:"status,omitempty"`
	Priority         *Priority  `json:"priority,omitempty"`
	Tags             []string   `json:"tags,omitempty"`
	DueDate          *time.Time `json:"due_date,omitempty"`
	ReminderLeadTime *int       `json:"reminder_lead_time,omitempty"`
}

type Service interface {
	CreateTask(ctx context.Context, input CreateTaskInput) (*Task, error)
	GetTask(ctx context.Context, id uuid.UUID) (*Task, error)
	UpdateTask(ctx context.Context, id uuid.UUID, input UpdateTaskInput) (*Task, error)
	CompleteTask(ctx context.Context, id uuid.UUID) (*Task, error)
	DeleteTask(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo      TaskRepository
	publisher EventPublisher
	schedules ScheduleManager
	logger    *logger.Logger
}

func NewService(repo TaskRepository, publisher EventPublisher, schedules ScheduleManager, log *logger.Logger) Service {
	return &service{
		repo:      repo,
		publisher: publisher,
		schedules: schedules,
		logger:    log,
	}
}

func (s *service) CreateTask(ctx context.Context, input CreateTaskInput) (*Task, error) {
	if input.Title == "" {
		return nil, ErrInvalidInput
	}
	if input.UserID == "" {
		return nil, ErrInvalidUserID
	}

	pattern := input.RecurrencePattern
	if pattern == "" {
		pattern = RecurrencePatternNone
	}

	t := &Task{
		ID:                uuid.New(),
		Title:             input.Title,
		Description:       input.Description,
		Status:            StatusPending,
		UserID:            input.UserID,
		Priority:          input.Priority,
		Tags:              input.Tags,
		DueDate:           input.DueDate,
		RecurrencePattern: pattern,
		ReminderLeadTime:  input.ReminderLeadTime,
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}

	if t.RecurrencePattern != RecurrencePatternNone {
		if err := s.schedules.CreateForTask(ctx, t); err != nil {
			return nil, err
		}
	}

	s.publishEvent(ctx, events.EventTaskCreated, t)
	return t, nil
}

func (s *service) GetTask(ctx context.Context, id uuid.UUID) (*Task, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) UpdateTask(ctx context.Context, id uuid.UUID, input UpdateTaskInput) (*Task, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	wasCompleted := t.Status == StatusCompleted

	if input.Title != nil {
		t.Title = *input.Title
	}
	if input.Description != nil {
		t.Description = *input.Description
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, ErrInvalidStatus
		}
		t.Status = *input.Status
	}
	if input.Priority != nil {
		t.Priority = *input.Priority
	}
	if input.Tags != nil {
		t.Tags = input.Tags
	}
	if input.DueDate != nil {
		t.DueDate = input.DueDate
	}
	if input.ReminderLeadTime != nil {
		t.ReminderLeadTime = input.ReminderLeadTime
	}

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}

	// A status change into completed is a completion, not a plain update
	if !wasCompleted && t.Status == StatusCompleted {
		s.publishEvent(ctx, events.EventTaskCompleted, t)
	} else {
		s.publishEvent(ctx, events.EventTaskUpdated, t)
	}
	return t, nil
}

func (s *service) CompleteTask(ctx context.Context, id uuid.UUID) (*Task, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	t.Status = StatusCompleted
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.EventTaskCompleted, t)
	return t, nil
}

func (s *service) DeleteTask(ctx context.Context, id uuid.UUID) error {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	// Cascade: the recurring schedule must not outlive its parent task
	if err := s.schedules.RemoveForTask(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.publishEvent(ctx, events.EventTaskDeleted, t)
	return nil
}

func (s *service) publishEvent(ctx context.Context, eventType events.EventType, t *Task) {
	var err error
	switch eventType {
	case events.EventTaskCreated:
		_, err = s.publisher.PublishCreated(ctx, t.ID.String(), t.UserID, t.Snapshot())
	case events.EventTaskUpdated:
		_, err = s.publisher.PublishUpdated(ctx, t.ID.String(), t.UserID, t.Snapshot())
	case events.EventTaskCompleted:
		_, err = s.publisher.PublishCompleted(ctx, t.ID.String(), t.UserID, t.Snapshot())
	case events.EventTaskDeleted:
		_, err = s.publisher.PublishDeleted(ctx, t.ID.String(), t.UserID, t.Snapshot())
	}
	if err != nil {
		s.logger.Error("Failed to publish task event",
			zap.String("event_type", string(eventType)),
			zap.String("task_id", t.ID.String()),
			zap.Error(err))
	}
}
