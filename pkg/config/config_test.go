package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 3500, cfg.Broker.DaprHTTPPort)
	assert.Equal(t, "pubsub", cfg.Broker.PubsubName)
	assert.Equal(t, "task-events", cfg.Broker.TaskEventsTopic)
	assert.Equal(t, "reminders", cfg.Broker.ReminderTopic)
	assert.Equal(t, "task-updates", cfg.Broker.UpdatesTopic)
	assert.Equal(t, time.Minute, cfg.Scheduler.Interval)
	assert.Equal(t, 30*time.Second, cfg.Outbox.SweepInterval)
	assert.Equal(t, 100, cfg.Outbox.SweepBatch)
}

func TestLoadConfigBrokerEnvOverrides(t *testing.T) {
	t.Setenv("PUBSUB_NAME", "kafka-pubsub")
	t.Setenv("TOPIC_NAME", "task-events-v2")
	t.Setenv("REMINDER_TOPIC", "reminders-v2")
	t.Setenv("UPDATES_TOPIC", "task-updates-v2")
	t.Setenv("DAPR_HTTP_PORT", "3501")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "kafka-pubsub", cfg.Broker.PubsubName)
	assert.Equal(t, "task-events-v2", cfg.Broker.TaskEventsTopic)
	assert.Equal(t, "reminders-v2", cfg.Broker.ReminderTopic)
	assert.Equal(t, "task-updates-v2", cfg.Broker.UpdatesTopic)
	assert.Equal(t, 3501, cfg.Broker.DaprHTTPPort)
}

func TestLoadConfigDurationEnvOverrides(t *testing.T) {
	t.Setenv("SCHEDULER_INTERVAL", "2m")
	t.Setenv("OUTBOX_SWEEP_INTERVAL", "10s")
	t.Setenv("OUTBOX_SWEEP_BATCH", "50")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 2*time.Minute, cfg.Scheduler.Interval)
	assert.Equal(t, 10*time.Second, cfg.Outbox.SweepInterval)
	assert.Equal(t, 50, cfg.Outbox.SweepBatch)
}
