package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/mashdotdev/taskflow/internal/api/handlers"
)

// SetupSchedulerRoutes registers the manual controls of the recurring task
// service
func SetupSchedulerRoutes(router *gin.Engine, handler *handlers.SchedulerHandler) {
	schedules := router.Group("/schedules")
	{
		schedules.POST("/trigger", handler.Trigger)
		schedules.GET("/due", handler.Due)
	}
}
