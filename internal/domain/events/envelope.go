package events

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	ErrMalformedEnvelope = errors.New("malformed event envelope")
	ErrMissingEventID    = errors.New("envelope missing event_id")
	ErrMissingEventType  = errors.New("envelope missing event_type")
)

// Envelope is the wire shape of a task event as delivered by the broker.
// The Dapr sidecar may wrap the payload one level under a "data" key; both
// shapes are accepted by Decode.
type Envelope struct {
	EventID   string                 `json:"event_id"`
	EventType EventType              `json:"event_type"`
	TaskID    string                 `json:"task_id"`
	UserID    string                 `json:"user_id"`
	Timestamp string                 `json:"timestamp"`
	Payload   map[string]interface{} `json:"payload"`
}

// DecodeEnvelope parses a delivered event body, unwrapping a nested "data"
// key if present. Envelopes without an event id or type are rejected at this
// boundary rather than probed defensively downstream.
func DecodeEnvelope(body []byte) (*Envelope, error) {
	var probe struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, ErrMalformedEnvelope
	}

	raw := body
	if len(probe.Data) > 0 && string(probe.Data) != "null" {
		raw = probe.Data
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, ErrMalformedEnvelope
	}
	if env.EventID == "" {
		return nil, ErrMissingEventID
	}
	if env.EventType == "" {
		return nil, ErrMissingEventType
	}
	return &env, nil
}

// OccurredAt parses the envelope timestamp, tolerating a trailing "Z" and a
// missing offset. An unparseable timestamp falls back to now instead of
// failing the event.
func (e *Envelope) OccurredAt() time.Time {
	if e.Timestamp == "" {
		return time.Now().UTC()
	}

	candidates := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.999999", // ISO-8601 without offset
		"2006-01-02T15:04:05",
	}
	ts := strings.TrimSuffix(e.Timestamp, "Z")
	for _, layout := range candidates {
		if t, err := time.Parse(layout, e.Timestamp); err == nil {
			return t
		}
		if t, err := time.Parse(layout, ts); err == nil {
			return t.UTC()
		}
	}
	return time.Now().UTC()
}

// TaskTitle extracts the task title from the payload snapshot
func (e *Envelope) TaskTitle() string {
	if title, ok := e.Payload["title"].(string); ok && title != "" {
		return title
	}
	return "Unknown task"
}

// Envelope builds the wire representation of an outbox record
func (e *TaskEvent) Envelope() *Envelope {
	return &Envelope{
		EventID:   e.EventID.String(),
		EventType: e.EventType,
		TaskID:    e.TaskID,
		UserID:    e.UserID,
		Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
		Payload:   map[string]interface{}(e.Payload),
	}
}
