package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mashdotdev/taskflow/internal/api/handlers"
	"github.com/mashdotdev/taskflow/internal/api/routes"
	"github.com/mashdotdev/taskflow/internal/domain/events"
	"github.com/mashdotdev/taskflow/internal/domain/schedule"
	"github.com/mashdotdev/taskflow/internal/domain/task"
	"github.com/mashdotdev/taskflow/internal/infrastructure/persistence/postgres/connection"
	"github.com/mashdotdev/taskflow/internal/infrastructure/scheduler"
	"github.com/mashdotdev/taskflow/pkg/broker"
	"github.com/mashdotdev/taskflow/pkg/config"
	"github.com/mashdotdev/taskflow/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	log := logger.NewServiceLogger("api")
	defer log.Sync()

	cfg, err := config.LoadConfig(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	db, err := connection.NewDatabase(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&task.Task{},
		&events.TaskEvent{},
		&schedule.RecurringTaskSchedule{},
	); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}

	daprClient := broker.NewDaprClient(cfg.Broker.DaprHTTPPort, cfg.Broker.PubsubName, log)

	eventRepo := events.NewEventRepository(db)
	publisher := events.NewPublisher(eventRepo, daprClient, cfg.Broker.TaskEventsTopic, log)

	scheduleRepo := schedule.NewRepository(db)
	scheduleManager := schedule.NewManager(scheduleRepo, log)

	taskRepo := task.NewRepository(db)
	taskService := task.NewService(taskRepo, publisher, scheduleManager, log)

	// The sweep worker retries outbox rows the synchronous path failed to
	// deliver
	sweeper := events.NewSweeper(eventRepo, daprClient, cfg.Broker.TaskEventsTopic, cfg.Outbox.SweepBatch, log)
	sweepRunner := scheduler.NewRunner("outbox-sweep", cfg.Outbox.SweepInterval, sweeper.Sweep, log)
	sweepRunner.Start()
	defer sweepRunner.Stop()

	health := handlers.NewHealthHandler("api",
		handlers.ReadinessCheck{Name: "database", Check: db.Ping},
		handlers.ReadinessCheck{Name: "outbox_sweeper", Check: runnerCheck(sweepRunner)},
	)

	router := routes.NewRouter(cfg, log, health)
	routes.SetupTaskRoutes(router, handlers.NewTaskHandler(taskService, log))

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	go func() {
		log.Info("Starting API server", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down API server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
}

func runnerCheck(r *scheduler.Runner) func() error {
	return func() error {
		if !r.Running() {
			return fmt.Errorf("runner stopped")
		}
		return nil
	}
}
