package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/mashdotdev/taskflow/internal/api/handlers"
)

// SetupTaskRoutes registers the task mutation surface on the primary API
func SetupTaskRoutes(router *gin.Engine, handler *handlers.TaskHandler) {
	tasks := router.Group("/api/tasks")
	{
		tasks.POST("", handler.CreateTask)
		tasks.GET("/:id", handler.GetTask)
		tasks.PUT("/:id", handler.UpdateTask)
		tasks.POST("/:id/complete", handler.CompleteTask)
		tasks.DELETE("/:id", handler.DeleteTask)
	}
}
