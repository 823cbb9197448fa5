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
	"github.com/mashdotdev/taskflow/internal/domain/audit"
	"github.com/mashdotdev/taskflow/internal/domain/events"
	"github.com/mashdotdev/taskflow/internal/infrastructure/persistence/postgres/connection"
	"github.com/mashdotdev/taskflow/pkg/config"
	"github.com/mashdotdev/taskflow/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	log := logger.NewServiceLogger("audit-service")
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
		&audit.AuditLog{},
		&events.ProcessedEvent{},
	); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}

	ledger := events.NewLedgerRepository(db)
	repo := audit.NewRepository(db)
	consumer := audit.NewConsumer(ledger, repo, log)

	health := handlers.NewHealthHandler("audit-service",
		handlers.ReadinessCheck{Name: "database", Check: db.Ping},
	)

	router := routes.NewRouter(cfg, log, health)
	routes.SetupAuditRoutes(router, handlers.NewAuditHandler(consumer, repo, log), cfg)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	go func() {
		log.Info("Starting audit service", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down audit service")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
}
