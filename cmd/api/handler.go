package api

import (
	messagingDelivery "pushconsole-backend/internal/messaging/delivery"
	taskDelivery "pushconsole-backend/internal/task/delivery"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	taskHandler      *taskDelivery.TaskHandler
	messagingHandler *messagingDelivery.MessagingHandler
}

func NewHandler(taskHandler *taskDelivery.TaskHandler, messagingHandler *messagingDelivery.MessagingHandler) *Handler {
	return &Handler{
		taskHandler:      taskHandler,
		messagingHandler: messagingHandler,
	}
}

func (h *Handler) Start(addr string) error {
	r := gin.Default()
	gin.SetMode(gin.ReleaseMode)

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Setup routes
	SetupRoutes(r, h.taskHandler, h.messagingHandler)

	return r.Run(addr)
}
