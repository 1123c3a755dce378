package repository

import "pushconsole-backend/internal/task/domain"

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *domain.Task) error

	// FindByID finds a task by its ID
	FindByID(id string) (*domain.Task, error)

	// FindAll finds tasks with an optional status filter
	FindAll(status *domain.TaskStatus, limit, offset int) ([]*domain.Task, int64, error)

	// Update updates an existing task
	Update(task *domain.Task) error

	// Delete deletes a task by ID
	Delete(id string) error

	// MarkProcessing atomically transitions a draft or scheduled task to
	// processing. Returns false when the task was not in an executable state,
	// which guards against two execute requests racing on the same task.
	MarkProcessing(id string) (bool, error)
}
