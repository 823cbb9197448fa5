package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mashdotdev/taskflow/internal/domain/audit"
	"github.com/mashdotdev/taskflow/internal/domain/events"
	"github.com/mashdotdev/taskflow/pkg/logger"
	"go.uber.org/zap"
)

// AuditHandler serves the audit service webhooks, one route per consumed topic
type AuditHandler struct {
	consumer *audit.Consumer
	repo     audit.Repository
	logger   *logger.Logger
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(consumer *audit.Consumer, repo audit.Repository, log *logger.Logger) *AuditHandler {
	return &AuditHandler{
		consumer: consumer,
		repo:     repo,
		logger:   log,
	}
}

// HandleTaskEvent handles POST /events/task
func (h *AuditHandler) HandleTaskEvent(c *gin.Context) {
	h.handleEvent(c, audit.CategoryTask)
}

// HandleReminderEvent handles POST /events/reminder
func (h *AuditHandler) HandleReminderEvent(c *gin.Context) {
	h.handleEvent(c, audit.CategoryReminder)
}

// HandleUpdateEvent handles POST /events/update
func (h *AuditHandler) HandleUpdateEvent(c *gin.Context) {
	h.handleEvent(c, audit.CategoryUpdate)
}

func (h *AuditHandler) handleEvent(c *gin.Context, category audit.Category) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "failed to read request body"})
		return
	}

	env, err := events.DecodeEnvelope(body)
	if err != nil {
		h.logger.Warn("Rejected malformed event",
			zap.String("category", string(category)),
			zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	result, err := h.consumer.ProcessEvent(c.Request.Context(), env, category)
	if err != nil {
		h.logger.Error("Failed to process event",
			zap.String("event_id", env.EventID),
			zap.String("category", string(category)),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListByCorrelation handles GET /api/audit/correlation/:id, returning the
// causal chain recorded for one originating event
func (h *AuditHandler) ListByCorrelation(c *gin.Context) {
	correlationID := c.Param("id")
	if correlationID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "correlation ID is required"})
		return
	}

	entries, err := h.repo.ListByCorrelation(c.Request.Context(), correlationID)
	if err != nil {
		h.logger.Error("Failed to list audit logs", zap.String("correlation_id", correlationID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list audit logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"correlation_id": correlationID, "entries": entries})
}
