package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/mashdotdev/taskflow/internal/api/handlers"
	"github.com/mashdotdev/taskflow/pkg/config"
)

// SetupAuditRoutes registers the audit service surface. The audit service
// subscribes to all three topics, each delivered to its own webhook so the
// recorded category reflects the originating stream.
func SetupAuditRoutes(router *gin.Engine, handler *handlers.AuditHandler, cfg *config.Config) {
	subscriptions := []handlers.Subscription{
		{
			PubsubName: cfg.Broker.PubsubName,
			Topic:      cfg.Broker.TaskEventsTopic,
			Route:      "/events/task",
		},
		{
			PubsubName: cfg.Broker.PubsubName,
			Topic:      cfg.Broker.ReminderTopic,
			Route:      "/events/reminder",
		},
		{
			PubsubName: cfg.Broker.PubsubName,
			Topic:      cfg.Broker.UpdatesTopic,
			Route:      "/events/update",
		},
	}

	router.GET("/dapr/subscribe", handlers.SubscribeHandler(subscriptions))
	router.POST("/events/task", handler.HandleTaskEvent)
	router.POST("/events/reminder", handler.HandleReminderEvent)
	router.POST("/events/update", handler.HandleUpdateEvent)

	router.GET("/api/audit/correlation/:id", handler.ListByCorrelation)
}
