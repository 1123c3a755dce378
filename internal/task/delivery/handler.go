package delivery

import (
	"errors"
	"net/http"
	"strconv"

	"pushconsole-backend/internal/task/usecase"
	"pushconsole-backend/pkg/fcm"

	"github.com/gin-gonic/gin"
)

// TaskHandler handles dispatch-task HTTP requests
type TaskHandler struct {
	taskUsecase usecase.TaskUsecase
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(taskUsecase usecase.TaskUsecase) *TaskHandler {
	return &TaskHandler{
		taskUsecase: taskUsecase,
	}
}

// CreateTaskRequest represents the request body for creating a task
type CreateTaskRequest struct {
	Name       string `json:"name" binding:"required"`
	TemplateID string `json:"template_id" binding:"required"`
	ConfigID   string `json:"config_id" binding:"required"`
	GroupID    string `json:"group_id" binding:"required"`
}

// CreateTask creates a new dispatch task in draft state
// POST /api/tasks
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	task, err := h.taskUsecase.CreateTask(req.Name, req.TemplateID, req.ConfigID, req.GroupID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, task)
}

// GetTasks lists dispatch tasks
// GET /api/tasks?status=draft&limit=50&offset=0
func (h *TaskHandler) GetTasks(c *gin.Context) {
	status := c.Query("status")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	var statusPtr *string
	if status != "" {
		statusPtr = &status
	}

	tasks, total, err := h.taskUsecase.GetTasks(statusPtr, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": tasks,
		"total": total,
	})
}

// GetTaskByID returns a specific task
// GET /api/tasks/:id
func (h *TaskHandler) GetTaskByID(c *gin.Context) {
	task, err := h.taskUsecase.GetTaskByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, usecase.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, task)
}

// DeleteTask deletes a task
// DELETE /api/tasks/:id
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	if err := h.taskUsecase.DeleteTask(c.Param("id")); err != nil {
		if errors.Is(err, usecase.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "task deleted"})
}

// ExecuteTask runs one dispatch attempt for the task. Precondition failures
// come back as 4xx validation errors without touching the task; an executed
// attempt (including "no eligible tokens") returns the updated task record.
// POST /api/tasks/:id/execute
func (h *TaskHandler) ExecuteTask(c *gin.Context) {
	task, err := h.taskUsecase.ExecuteTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrTaskNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "task not found"})
		case errors.Is(err, usecase.ErrTaskTerminal):
			c.JSON(http.StatusConflict, gin.H{"message": "task already executed"})
		case errors.Is(err, usecase.ErrTemplateNotFound),
			errors.Is(err, usecase.ErrConfigNotFound),
			errors.Is(err, fcm.ErrNoUsableCredential):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, task)
}
