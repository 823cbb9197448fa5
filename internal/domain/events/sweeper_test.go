package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

// flakyBroker fails deliveries for the configured partition keys
type flakyBroker struct {
	mu        sync.Mutex
	failKeys  map[string]bool
	published []publishedMessage
}

func (b *flakyBroker) Publish(ctx context.Context, topic, partitionKey string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failKeys[partitionKey] {
		return errors.New("delivery failed")
	}
	b.published = append(b.published, publishedMessage{topic: topic, partitionKey: partitionKey, payload: payload})
	return nil
}

func pendingEvent(taskID string, createdAt time.Time) TaskEvent {
	return TaskEvent{
		EventID:   uuid.New(),
		EventType: EventTaskCreated,
		TaskID:    taskID,
		UserID:    "user-1",
		Timestamp: createdAt,
		Payload:   datatypes.JSONMap{"title": "t"},
		CreatedAt: createdAt,
	}
}

func TestSweepPublishesPendingEvents(t *testing.T) {
	now := time.Now().UTC()
	store := &memEventStore{rows: []TaskEvent{
		pendingEvent("task-1", now.Add(-2*time.Minute)),
		pendingEvent("task-2", now.Add(-1*time.Minute)),
	}}
	brokerStub := &stubBroker{}
	sweeper := NewSweeper(store, brokerStub, "task-events", 100, testLogger())

	require.NoError(t, sweeper.Sweep(context.Background()))

	assert.Len(t, brokerStub.published, 2)
	for _, row := range store.rows {
		assert.True(t, row.PublishedToKafka)
	}
}

func TestSweepIsolatesFailures(t *testing.T) {
	now := time.Now().UTC()
	store := &memEventStore{rows: []TaskEvent{
		pendingEvent("task-1", now.Add(-3*time.Minute)),
		pendingEvent("task-2", now.Add(-2*time.Minute)),
		pendingEvent("task-3", now.Add(-1*time.Minute)),
	}}
	brokerStub := &flakyBroker{failKeys: map[string]bool{"task-2": true}}
	sweeper := NewSweeper(store, brokerStub, "task-events", 100, testLogger())

	require.NoError(t, sweeper.Sweep(context.Background()))

	assert.Len(t, brokerStub.published, 2)
	assert.True(t, store.rows[0].PublishedToKafka)
	assert.False(t, store.rows[1].PublishedToKafka, "failed delivery stays pending for the next sweep")
	assert.True(t, store.rows[2].PublishedToKafka)

	// Next sweep picks up only the leftover once the broker recovers
	brokerStub.failKeys = nil
	require.NoError(t, sweeper.Sweep(context.Background()))
	assert.True(t, store.rows[1].PublishedToKafka)
}

func TestSweepHonorsBatchLimit(t *testing.T) {
	now := time.Now().UTC()
	store := &memEventStore{}
	for i := 0; i < 5; i++ {
		store.rows = append(store.rows, pendingEvent("task-1", now.Add(time.Duration(i)*time.Second)))
	}
	brokerStub := &stubBroker{}
	sweeper := NewSweeper(store, brokerStub, "task-events", 2, testLogger())

	require.NoError(t, sweeper.Sweep(context.Background()))
	assert.Len(t, brokerStub.published, 2)
}

func TestSweepSkipsPublishedEvents(t *testing.T) {
	now := time.Now().UTC()
	done := pendingEvent("task-1", now)
	done.PublishedToKafka = true
	store := &memEventStore{rows: []TaskEvent{done}}
	brokerStub := &stubBroker{}
	sweeper := NewSweeper(store, brokerStub, "task-events", 100, testLogger())

	require.NoError(t, sweeper.Sweep(context.Background()))
	assert.Empty(t, brokerStub.published)
}
