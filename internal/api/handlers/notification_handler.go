package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mashdotdev/taskflow/internal/domain/events"
	"github.com/mashdotdev/taskflow/internal/domain/notification"
	"github.com/mashdotdev/taskflow/pkg/logger"
	"go.uber.org/zap"
)

// NotificationHandler serves the notification service: the broker-facing
// event webhook plus the read surface for clients
type NotificationHandler struct {
	consumer *notification.Consumer
	service  notification.Service
	logger   *logger.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(consumer *notification.Consumer, service notification.Service, log *logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		consumer: consumer,
		service:  service,
		logger:   log,
	}
}

// HandleTaskEvent handles POST /events/task, the route the sidecar delivers
// task lifecycle events to. Skips return 200 so the broker does not redeliver;
// processing failures return 500 so it does.
func (h *NotificationHandler) HandleTaskEvent(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "failed to read request body"})
		return
	}

	env, err := events.DecodeEnvelope(body)
	if err != nil {
		h.logger.Warn("Rejected malformed event", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	result, err := h.consumer.ProcessEvent(c.Request.Context(), env)
	if err != nil {
		h.logger.Error("Failed to process event",
			zap.String("event_id", env.EventID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListNotifications handles GET /api/notifications?user_id=...
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	notifications, total, err := h.service.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list notifications", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"total":         total,
		"limit":         limit,
		"offset":        offset,
	})
}

// UnreadCount handles GET /api/notifications/unread-count?user_id=...
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	count, err := h.service.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to count unread notifications", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count unread notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user_id": userID, "unread_count": count})
}

// MarkRead handles POST /api/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification ID"})
		return
	}

	n, err := h.service.MarkRead(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, notification.ErrNotificationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
			return
		}
		h.logger.Error("Failed to mark notification read", zap.String("notification_id", id.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark notification read"})
		return
	}

	c.JSON(http.StatusOK, n)
}
