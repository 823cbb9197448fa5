package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mashdotdev/taskflow/pkg/logger"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func testLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

func TestRunnerRunsImmediatelyAndOnInterval(t *testing.T) {
	var runs atomic.Int32
	r := NewRunner("test", 20*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}, testLogger())

	r.Start()
	defer r.Stop()

	assert.Eventually(t, func() bool {
		return runs.Load() >= 3
	}, time.Second, 5*time.Millisecond, "one immediate run plus ticker runs")
}

func TestRunnerStopDrainsInFlightTick(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool

	r := NewRunner("test", time.Hour, func(ctx context.Context) error {
		close(started)
		<-release
		finished.Store(true)
		return nil
	}, testLogger())

	r.Start()
	<-started

	go func() {
		time.Sleep(10 * time.Millisecond)
		close(release)
	}()

	r.Stop()
	assert.True(t, finished.Load(), "Stop must wait for the in-flight tick")
	assert.False(t, r.Running())
}

func TestRunnerSurvivesJobErrors(t *testing.T) {
	var runs atomic.Int32
	r := NewRunner("test", 10*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return errors.New("tick failed")
	}, testLogger())

	r.Start()
	defer r.Stop()

	assert.Eventually(t, func() bool {
		return runs.Load() >= 2
	}, time.Second, 5*time.Millisecond, "a failing tick must not stop the loop")
}

func TestRunnerStartIsIdempotent(t *testing.T) {
	r := NewRunner("test", time.Hour, func(ctx context.Context) error { return nil }, testLogger())

	r.Start()
	r.Start()
	assert.True(t, r.Running())

	r.Stop()
	r.Stop()
	assert.False(t, r.Running())
}
