package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mashdotdev/taskflow/internal/domain/schedule"
	"github.com/mashdotdev/taskflow/pkg/logger"
	"go.uber.org/zap"
)

// SchedulerHandler exposes manual controls over the recurring task processor
type SchedulerHandler struct {
	processor *schedule.Processor
	logger    *logger.Logger
}

// NewSchedulerHandler creates a new scheduler handler
func NewSchedulerHandler(processor *schedule.Processor, log *logger.Logger) *SchedulerHandler {
	return &SchedulerHandler{
		processor: processor,
		logger:    log,
	}
}

// Trigger handles POST /schedules/trigger, running one processing pass
// outside the timer for operations and testing
func (h *SchedulerHandler) Trigger(c *gin.Context) {
	summary, err := h.processor.ProcessDueSchedules(c.Request.Context())
	if err != nil {
		h.logger.Error("Manual scheduler pass failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process schedules"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"triggered": true,
		"processed": summary.Processed,
		"errors":    summary.Errors,
		"timestamp": summary.Timestamp.Format(time.RFC3339),
	})
}

// Due handles GET /schedules/due, reporting how many schedules are currently
// past their execution time
func (h *SchedulerHandler) Due(c *gin.Context) {
	count, err := h.processor.DueCount(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to count due schedules", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count due schedules"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"current_time": time.Now().UTC().Format(time.RFC3339),
		"due_count":    count,
	})
}
