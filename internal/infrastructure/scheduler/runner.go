package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/mashdotdev/taskflow/pkg/logger"
	"go.uber.org/zap"
)

// Job is one periodic unit of work. Errors are logged, not fatal: a failing
// tick must not stop future ticks.
type Job func(ctx context.Context) error

// Runner invokes a job on a fixed interval. Ticks are serialized: the next
// tick waits for the previous one to finish. Stop drains the in-flight tick
// before returning.
type Runner struct {
	name     string
	interval time.Duration
	job      Job
	logger   *logger.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewRunner creates a runner; Start must be called to begin ticking
func NewRunner(name string, interval time.Duration, job Job, log *logger.Logger) *Runner {
	return &Runner{
		name:     name,
		interval: interval,
		job:      job,
		logger:   log,
	}
}

// Start launches the periodic loop. The job runs once immediately at startup.
func (r *Runner) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})
	r.running = true

	r.logger.Info("Scheduler started",
		zap.String("job", r.name),
		zap.Duration("interval", r.interval))

	go r.loop(ctx)
}

func (r *Runner) loop(ctx context.Context) {
	defer close(r.done)

	r.runOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}

func (r *Runner) runOnce(ctx context.Context) {
	start := time.Now()
	if err := r.job(ctx); err != nil {
		r.logger.Error("Scheduled job failed",
			zap.String("job", r.name),
			zap.Error(err))
		return
	}
	r.logger.Info("Scheduled job completed",
		zap.String("job", r.name),
		zap.Duration("duration", time.Since(start)))
}

// Stop cancels the loop and waits for an in-flight tick to drain
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	cancel := r.cancel
	done := r.done
	r.mu.Unlock()

	cancel()
	<-done

	r.logger.Info("Scheduler stopped", zap.String("job", r.name))
}

// Running reports whether the loop is active, used by readiness checks
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}
