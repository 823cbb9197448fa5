package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEnvelope(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
		wantID  string
	}{
		{
			name:   "flat envelope",
			body:   `{"event_id":"e1","event_type":"task-created","task_id":"t1","user_id":"u1"}`,
			wantID: "e1",
		},
		{
			name:   "envelope nested under data",
			body:   `{"data":{"event_id":"e2","event_type":"task-completed","task_id":"t1","user_id":"u1"}}`,
			wantID: "e2",
		},
		{
			name:    "missing event id",
			body:    `{"event_type":"task-created"}`,
			wantErr: ErrMissingEventID,
		},
		{
			name:    "missing event type",
			body:    `{"event_id":"e3"}`,
			wantErr: ErrMissingEventType,
		},
		{
			name:    "not json",
			body:    `<xml/>`,
			wantErr: ErrMalformedEnvelope,
		},
		{
			name:    "null data with nothing else",
			body:    `{"data":null}`,
			wantErr: ErrMissingEventID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := DecodeEnvelope([]byte(tt.body))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, env.EventID)
		})
	}
}

func TestOccurredAt(t *testing.T) {
	tests := []struct {
		name      string
		timestamp string
		want      time.Time
	}{
		{
			name:      "rfc3339",
			timestamp: "2025-03-04T10:30:00Z",
			want:      time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC),
		},
		{
			name:      "rfc3339 with offset",
			timestamp: "2025-03-04T10:30:00+00:00",
			want:      time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC),
		},
		{
			name:      "iso8601 without offset",
			timestamp: "2025-03-04T10:30:00.123456",
			want:      time.Date(2025, 3, 4, 10, 30, 0, 123456000, time.UTC),
		},
		{
			name:      "seconds precision without offset",
			timestamp: "2025-03-04T10:30:00",
			want:      time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := &Envelope{Timestamp: tt.timestamp}
			assert.True(t, tt.want.Equal(env.OccurredAt()))
		})
	}
}

func TestOccurredAtFallsBackToNow(t *testing.T) {
	for _, timestamp := range []string{"", "not-a-timestamp", "2025-13-99"} {
		env := &Envelope{Timestamp: timestamp}
		got := env.OccurredAt()
		assert.WithinDuration(t, time.Now().UTC(), got, 5*time.Second,
			"timestamp %q should fall back to now", timestamp)
	}
}

func TestTaskTitle(t *testing.T) {
	env := &Envelope{Payload: map[string]interface{}{"title": "Buy milk"}}
	assert.Equal(t, "Buy milk", env.TaskTitle())

	assert.Equal(t, "Unknown task", (&Envelope{}).TaskTitle())
	assert.Equal(t, "Unknown task", (&Envelope{Payload: map[string]interface{}{"title": ""}}).TaskTitle())
	assert.Equal(t, "Unknown task", (&Envelope{Payload: map[string]interface{}{"title": 42}}).TaskTitle())
}

func TestTaskEventEnvelopeRoundTrip(t *testing.T) {
	store := &memEventStore{}
	brokerStub := &stubBroker{}
	publisher := NewPublisher(store, brokerStub, "task-events", testLogger())

	original, err := publisher.PublishCreated(context.Background(), "task-9", "user-9",
		map[string]interface{}{"title": "Water plants"})
	require.NoError(t, err)

	env := original.Envelope()
	assert.Equal(t, original.EventID.String(), env.EventID)
	assert.Equal(t, "task-9", env.TaskID)
	assert.Equal(t, "user-9", env.UserID)
	assert.Equal(t, "Water plants", env.TaskTitle())
	assert.WithinDuration(t, original.Timestamp, env.OccurredAt(), time.Second)
}
