package api

import (
	"net/http"

	messagingDelivery "pushconsole-backend/internal/messaging/delivery"
	taskDelivery "pushconsole-backend/internal/task/delivery"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, taskHandler *taskDelivery.TaskHandler, messagingHandler *messagingDelivery.MessagingHandler) {
	api := r.Group("/api")
	{
		// Health check
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Dispatch tasks
		tasks := api.Group("/tasks")
		{
			tasks.GET("", taskHandler.GetTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("/:id", taskHandler.GetTaskByID)
			tasks.DELETE("/:id", taskHandler.DeleteTask)
			tasks.POST("/:id/execute", taskHandler.ExecuteTask)
		}

		// Notification templates
		templates := api.Group("/templates")
		{
			templates.GET("", messagingHandler.GetTemplates)
			templates.POST("", messagingHandler.CreateTemplate)
		}

		// Provider configs
		configs := api.Group("/configs")
		{
			configs.GET("", messagingHandler.GetConfigs)
			configs.POST("", messagingHandler.CreateConfig)
		}

		// Recipient groups
		groups := api.Group("/groups")
		{
			groups.GET("", messagingHandler.GetGroups)
			groups.POST("", messagingHandler.CreateGroup)
		}

		// Device token registration
		tokens := api.Group("/tokens")
		{
			tokens.POST("", messagingHandler.RegisterToken)
			tokens.DELETE("/:token", messagingHandler.RevokeToken)
		}
	}
}
