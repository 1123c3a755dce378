package domain

import "time"

// TaskStatus represents the current state of a dispatch task
type TaskStatus string

const (
	TaskStatusDraft      TaskStatus = "draft"
	TaskStatusScheduled  TaskStatus = "scheduled" // reserved, not reachable by the current execution path
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// IsTerminal reports whether the task has finished an execution attempt.
// Terminal tasks must not be re-executed.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// Task represents one delivery attempt of a template to a recipient group
// through a provider config. The counters are only meaningful once the task
// has entered processing.
type Task struct {
	ID           string     `json:"id" gorm:"primaryKey"`
	Name         string     `json:"name" gorm:"not null"`
	TemplateID   string     `json:"template_id" gorm:"index;not null"`
	ConfigID     string     `json:"config_id" gorm:"index;not null"`
	GroupID      string     `json:"group_id" gorm:"index;not null"`
	Status       TaskStatus `json:"status" gorm:"default:draft"`
	TotalTokens  int        `json:"total_tokens"`
	SuccessCount int        `json:"success_count"`
	FailureCount int        `json:"failure_count"`
	LastError    *string    `json:"last_error,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
