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
	log := logger.NewServiceLogger("recurring-tasks-service")
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

	taskRepo := task.NewRepository(db)
	scheduleRepo := schedule.NewRepository(db)
	processor := schedule.NewProcessor(scheduleRepo, taskRepo, publisher, log)

	runner := scheduler.NewRunner("recurring-tasks", cfg.Scheduler.Interval,
		func(ctx context.Context) error {
			_, err := processor.ProcessDueSchedules(ctx)
			return err
		}, log)
	runner.Start()
	defer runner.Stop()

	health := handlers.NewHealthHandler("recurring-tasks-service",
		handlers.ReadinessCheck{Name: "database", Check: db.Ping},
		handlers.ReadinessCheck{Name: "scheduler", Check: func() error {
			if !runner.Running() {
				return fmt.Errorf("runner stopped")
			}
			return nil
		}},
	)

	router := routes.NewRouter(cfg, log, health)
	routes.SetupSchedulerRoutes(router, handlers.NewSchedulerHandler(processor, log))

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	go func() {
		log.Info("Starting recurring tasks service", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down recurring tasks service")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
}
