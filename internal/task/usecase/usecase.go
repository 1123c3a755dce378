package usecase

import (
	"context"
	"errors"

	"pushconsole-backend/internal/task/domain"
	"pushconsole-backend/pkg/fcm"
)

// TaskUsecase defines the interface for dispatch task business logic
type TaskUsecase interface {
	// CreateTask creates a new dispatch task in draft state
	CreateTask(name, templateID, configID, groupID string) (*domain.Task, error)

	// GetTaskByID retrieves a task by ID
	GetTaskByID(taskID string) (*domain.Task, error)

	// GetTasks retrieves tasks with an optional status filter
	GetTasks(status *string, limit, offset int) ([]*domain.Task, int64, error)

	// DeleteTask deletes a task
	DeleteTask(taskID string) error

	// ExecuteTask runs one dispatch attempt for the task and persists the
	// resulting status and counters
	ExecuteTask(ctx context.Context, taskID string) (*domain.Task, error)
}

// Dispatcher is the outbound delivery port the orchestrator sends through
type Dispatcher interface {
	Dispatch(ctx context.Context, cred fcm.Credential, tokens []string, notification fcm.Notification) (fcm.Result, error)
}

// Validation errors surfaced to the caller before any state change or
// network activity
var (
	ErrTaskNotFound     = errors.New("task not found")
	ErrTaskTerminal     = errors.New("task already executed")
	ErrTemplateNotFound = errors.New("template not found")
	ErrConfigNotFound   = errors.New("provider config not found")
)
