package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ReadinessCheck probes one dependency for the readiness endpoint
type ReadinessCheck struct {
	Name  string
	Check func() error
}

// HealthHandler serves liveness and readiness for one service. Liveness is
// static; readiness reflects the actual state of the service's dependencies.
type HealthHandler struct {
	service string
	checks  []ReadinessCheck
}

// NewHealthHandler creates a health handler for the named service
func NewHealthHandler(service string, checks ...ReadinessCheck) *HealthHandler {
	return &HealthHandler{
		service: service,
		checks:  checks,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   h.service,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready handles GET /ready. Any failing dependency makes the whole service
// not ready and the response carries the per-dependency detail.
func (h *HealthHandler) Ready(c *gin.Context) {
	ready := true
	details := gin.H{}
	for _, check := range h.checks {
		if err := check.Check(); err != nil {
			ready = false
			details[check.Name] = err.Error()
		} else {
			details[check.Name] = "ok"
		}
	}

	status := http.StatusOK
	state := "ready"
	if !ready {
		status = http.StatusServiceUnavailable
		state = "not_ready"
	}

	c.JSON(status, gin.H{
		"status":  state,
		"service": h.service,
		"checks":  details,
	})
}
