package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mashdotdev/taskflow/internal/domain/events"
	"github.com/mashdotdev/taskflow/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

type memTaskStore struct {
	tasks map[uuid.UUID]*Task
}

func newMemTaskStore() *memTaskStore {
	return &memTaskStore{tasks: make(map[uuid.UUID]*Task)}
}

func (s *memTaskStore) Create(ctx context.Context, t *Task) error {
	copied := *t
	s.tasks[t.ID] = &copied
	return nil
}

func (s *memTaskStore) FindByID(ctx context.Context, id uuid.UUID) (*Task, error) {
	t, ok := s.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	copied := *t
	return &copied, nil
}

func (s *memTaskStore) Update(ctx context.Context, t *Task) error {
	if _, ok := s.tasks[t.ID]; !ok {
		return ErrTaskNotFound
	}
	copied := *t
	s.tasks[t.ID] = &copied
	return nil
}

func (s *memTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := s.tasks[id]; !ok {
		return ErrTaskNotFound
	}
	delete(s.tasks, id)
	return nil
}

type publishedCall struct {
	eventType events.EventType
	taskID    string
	payload   map[string]interface{}
}

type recordingPublisher struct {
	calls []publishedCall
	err   error
}

func (p *recordingPublisher) record(eventType events.EventType, taskID, userID string, payload map[string]interface{}) (*events.TaskEvent, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.calls = append(p.calls, publishedCall{eventType: eventType, taskID: taskID, payload: payload})
	return &events.TaskEvent{EventID: uuid.New(), EventType: eventType, TaskID: taskID, UserID: userID}, nil
}

func (p *recordingPublisher) PublishCreated(ctx context.Context, taskID, userID string, payload map[string]interface{}) (*events.TaskEvent, error) {
	return p.record(events.EventTaskCreated, taskID, userID, payload)
}

func (p *recordingPublisher) PublishUpdated(ctx context.Context, taskID, userID string, payload map[string]interface{}) (*events.TaskEvent, error) {
	return p.record(events.EventTaskUpdated, taskID, userID, payload)
}

func (p *recordingPublisher) PublishCompleted(ctx context.Context, taskID, userID string, payload map[string]interface{}) (*events.TaskEvent, error) {
	return p.record(events.EventTaskCompleted, taskID, userID, payload)
}

func (p *recordingPublisher) PublishDeleted(ctx context.Context, taskID, userID string, payload map[string]interface{}) (*events.TaskEvent, error) {
	return p.record(events.EventTaskDeleted, taskID, userID, payload)
}

type recordingScheduleManager struct {
	created   []uuid.UUID
	removed   []uuid.UUID
	createErr error
}

func (m *recordingScheduleManager) CreateForTask(ctx context.Context, t *Task) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, t.ID)
	return nil
}

func (m *recordingScheduleManager) RemoveForTask(ctx context.Context, taskID uuid.UUID) error {
	m.removed = append(m.removed, taskID)
	return nil
}

func newTestService() (Service, *memTaskStore, *recordingPublisher, *recordingScheduleManager) {
	store := newMemTaskStore()
	publisher := &recordingPublisher{}
	schedules := &recordingScheduleManager{}
	return NewService(store, publisher, schedules, testLogger()), store, publisher, schedules
}

func TestCreateTaskPublishesCreatedEvent(t *testing.T) {
	svc, store, publisher, schedules := newTestService()

	created, err := svc.CreateTask(context.Background(), CreateTaskInput{
		Title:    "Buy milk",
		UserID:   "user-1",
		Priority: PriorityMedium,
	})
	require.NoError(t, err)

	assert.Equal(t, StatusPending, created.Status)
	assert.Equal(t, RecurrencePatternNone, created.RecurrencePattern)
	assert.Contains(t, store.tasks, created.ID)
	assert.Empty(t, schedules.created, "non-recurring tasks get no schedule")

	require.Len(t, publisher.calls, 1)
	call := publisher.calls[0]
	assert.Equal(t, events.EventTaskCreated, call.eventType)
	assert.Equal(t, created.ID.String(), call.taskID)
	assert.Equal(t, "Buy milk", call.payload["title"])
}

func TestCreateTaskValidation(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.CreateTask(context.Background(), CreateTaskInput{UserID: "user-1"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreateTask(context.Background(), CreateTaskInput{Title: "x"})
	assert.ErrorIs(t, err, ErrInvalidUserID)
}

func TestCreateRecurringTaskCreatesSchedule(t *testing.T) {
	svc, _, publisher, schedules := newTestService()

	due := time.Now().UTC().Add(24 * time.Hour)
	created, err := svc.CreateTask(context.Background(), CreateTaskInput{
		Title:             "Water plants",
		UserID:            "user-1",
		Priority:          PriorityLow,
		DueDate:           &due,
		RecurrencePattern: "daily",
	})
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{created.ID}, schedules.created)
	require.Len(t, publisher.calls, 1)
	assert.Equal(t, events.EventTaskCreated, publisher.calls[0].eventType)
}

func TestCreateTaskFailsWhenScheduleCreationFails(t *testing.T) {
	store := newMemTaskStore()
	publisher := &recordingPublisher{}
	schedules := &recordingScheduleManager{createErr: errors.New("bad pattern")}
	svc := NewService(store, publisher, schedules, testLogger())

	_, err := svc.CreateTask(context.Background(), CreateTaskInput{
		Title:             "Water plants",
		UserID:            "user-1",
		RecurrencePattern: "daily",
	})
	assert.Error(t, err)
	assert.Empty(t, publisher.calls, "no created event for a half-created recurring task")
}

func TestCreateTaskSurvivesPublishFailure(t *testing.T) {
	store := newMemTaskStore()
	publisher := &recordingPublisher{err: errors.New("outbox write failed")}
	schedules := &recordingScheduleManager{}
	svc := NewService(store, publisher, schedules, testLogger())

	created, err := svc.CreateTask(context.Background(), CreateTaskInput{
		Title:  "Buy milk",
		UserID: "user-1",
	})
	require.NoError(t, err, "event publication must not fail the mutation")
	assert.Contains(t, store.tasks, created.ID)
}

func TestUpdateTaskPublishesUpdatedEvent(t *testing.T) {
	svc, _, publisher, _ := newTestService()

	created, err := svc.CreateTask(context.Background(), CreateTaskInput{Title: "Buy milk", UserID: "user-1"})
	require.NoError(t, err)

	title := "Buy oat milk"
	updated, err := svc.UpdateTask(context.Background(), created.ID, UpdateTaskInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)

	require.Len(t, publisher.calls, 2)
	assert.Equal(t, events.EventTaskUpdated, publisher.calls[1].eventType)
}

func TestUpdateTaskCompletionTransitionPublishesCompleted(t *testing.T) {
	svc, _, publisher, _ := newTestService()

	created, err := svc.CreateTask(context.Background(), CreateTaskInput{Title: "Buy milk", UserID: "user-1"})
	require.NoError(t, err)

	completed := StatusCompleted
	_, err = svc.UpdateTask(context.Background(), created.ID, UpdateTaskInput{Status: &completed})
	require.NoError(t, err)

	require.Len(t, publisher.calls, 2)
	assert.Equal(t, events.EventTaskCompleted, publisher.calls[1].eventType,
		"a transition into completed is a completion, not an update")

	// Updating an already completed task is a plain update again
	title := "Bought milk"
	_, err = svc.UpdateTask(context.Background(), created.ID, UpdateTaskInput{Title: &title})
	require.NoError(t, err)
	require.Len(t, publisher.calls, 3)
	assert.Equal(t, events.EventTaskUpdated, publisher.calls[2].eventType)
}

func TestCompleteTaskPublishesCompleted(t *testing.T) {
	svc, store, publisher, _ := newTestService()

	created, err := svc.CreateTask(context.Background(), CreateTaskInput{Title: "Buy milk", UserID: "user-1"})
	require.NoError(t, err)

	completed, err := svc.CompleteTask(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, completed.Status)
	assert.Equal(t, StatusCompleted, store.tasks[created.ID].Status)

	require.Len(t, publisher.calls, 2)
	assert.Equal(t, events.EventTaskCompleted, publisher.calls[1].eventType)
}

func TestDeleteTaskCascadesAndPublishes(t *testing.T) {
	svc, store, publisher, schedules := newTestService()

	created, err := svc.CreateTask(context.Background(), CreateTaskInput{
		Title:             "Water plants",
		UserID:            "user-1",
		RecurrencePattern: "weekly",
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTask(context.Background(), created.ID))

	assert.NotContains(t, store.tasks, created.ID)
	assert.Equal(t, []uuid.UUID{created.ID}, schedules.removed,
		"the schedule must not outlive its parent")

	require.Len(t, publisher.calls, 2)
	last := publisher.calls[1]
	assert.Equal(t, events.EventTaskDeleted, last.eventType)
	assert.Equal(t, "Water plants", last.payload["title"],
		"the deleted event carries the last known snapshot")
}

func TestDeleteMissingTask(t *testing.T) {
	svc, _, publisher, schedules := newTestService()

	err := svc.DeleteTask(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrTaskNotFound)
	assert.Empty(t, publisher.calls)
	assert.Empty(t, schedules.removed)
}
