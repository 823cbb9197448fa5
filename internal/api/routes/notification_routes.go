package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/mashdotdev/taskflow/internal/api/handlers"
	"github.com/mashdotdev/taskflow/pkg/config"
)

// SetupNotificationRoutes registers the notification service surface: the
// sidecar subscription discovery route, the event delivery webhook, and the
// client-facing read endpoints.
func SetupNotificationRoutes(router *gin.Engine, handler *handlers.NotificationHandler, cfg *config.Config) {
	subscriptions := []handlers.Subscription{
		{
			PubsubName: cfg.Broker.PubsubName,
			Topic:      cfg.Broker.TaskEventsTopic,
			Route:      "/events/task",
		},
	}

	router.GET("/dapr/subscribe", handlers.SubscribeHandler(subscriptions))
	router.POST("/events/task", handler.HandleTaskEvent)

	notifications := router.Group("/api/notifications")
	{
		notifications.GET("", handler.ListNotifications)
		notifications.GET("/unread-count", handler.UnreadCount)
		notifications.POST("/:id/read", handler.MarkRead)
	}
}
