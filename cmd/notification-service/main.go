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
	"github.com/mashdotdev/taskflow/internal/domain/notification"
	"github.com/mashdotdev/taskflow/internal/infrastructure/cache"
	"github.com/mashdotdev/taskflow/internal/infrastructure/persistence/postgres/connection"
	"github.com/mashdotdev/taskflow/pkg/config"
	"github.com/mashdotdev/taskflow/pkg/logger"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
)

func main() {
	log := logger.NewServiceLogger("notification-service")
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
		&notification.Notification{},
		&events.ProcessedEvent{},
	); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}

	// Redis is an optimization, not a dependency: counts fall back to the
	// database when it is unavailable
	redisClient, err := cache.NewRedisClient(cfg, log)
	if err != nil {
		log.Warn("Redis unavailable, unread counts will not be cached", zap.Error(err))
		redisClient = nil
	}

	repoLog := logrus.New()
	repoLog.SetFormatter(&logrus.JSONFormatter{})

	// A typed nil must not reach the interface, or the nil checks downstream
	// pass and the calls panic
	var unreadCache notification.UnreadCountCache
	if redisClient != nil {
		unreadCache = redisClient
	}

	ledger := events.NewLedgerRepository(db)
	repo := notification.NewRepository(db, repoLog)
	consumer := notification.NewConsumer(ledger, repo, unreadCache, log)
	service := notification.NewService(repo, unreadCache, log)

	checks := []handlers.ReadinessCheck{
		{Name: "database", Check: db.Ping},
	}
	if redisClient != nil {
		checks = append(checks, handlers.ReadinessCheck{
			Name: "redis",
			Check: func() error {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				return redisClient.Ping(ctx)
			},
		})
	}
	health := handlers.NewHealthHandler("notification-service", checks...)

	router := routes.NewRouter(cfg, log, health)
	routes.SetupNotificationRoutes(router, handlers.NewNotificationHandler(consumer, service, log), cfg)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	go func() {
		log.Info("Starting notification service", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down notification service")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
	if redisClient != nil {
		redisClient.Close()
	}
}
