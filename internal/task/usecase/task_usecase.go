package usecase

import (
	"context"
	"log"
	"strings"

	messagingdomain "pushconsole-backend/internal/messaging/domain"
	messagingrepo "pushconsole-backend/internal/messaging/repository"
	"pushconsole-backend/internal/task/domain"
	"pushconsole-backend/internal/task/repository"

	"github.com/google/uuid"
)

// maxErrorLines caps how many diagnostic lines survive into the task record
const maxErrorLines = 5

// taskUsecase implements TaskUsecase. ExecuteTask is the orchestrator for a
// dispatch attempt: it validates the task, resolves the template, config and
// recipient tokens, runs exactly one dispatch and persists the outcome. It is
// also the outermost error boundary for an execution.
type taskUsecase struct {
	taskRepo     repository.TaskRepository
	templateRepo messagingrepo.TemplateRepository
	configRepo   messagingrepo.ProviderConfigRepository
	tokenRepo    messagingrepo.DeviceTokenRepository
	dispatcher   Dispatcher
}

// NewTaskUsecase creates a new instance of taskUsecase
func NewTaskUsecase(
	taskRepo repository.TaskRepository,
	templateRepo messagingrepo.TemplateRepository,
	configRepo messagingrepo.ProviderConfigRepository,
	tokenRepo messagingrepo.DeviceTokenRepository,
	dispatcher Dispatcher,
) TaskUsecase {
	return &taskUsecase{
		taskRepo:     taskRepo,
		templateRepo: templateRepo,
		configRepo:   configRepo,
		tokenRepo:    tokenRepo,
		dispatcher:   dispatcher,
	}
}

func (u *taskUsecase) CreateTask(name, templateID, configID, groupID string) (*domain.Task, error) {
	task := &domain.Task{
		ID:         uuid.New().String(),
		Name:       name,
		TemplateID: templateID,
		ConfigID:   configID,
		GroupID:    groupID,
		Status:     domain.TaskStatusDraft,
	}

	if err := u.taskRepo.Create(task); err != nil {
		return nil, err
	}
	return task, nil
}

func (u *taskUsecase) GetTaskByID(taskID string) (*domain.Task, error) {
	task, err := u.taskRepo.FindByID(taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

func (u *taskUsecase) GetTasks(status *string, limit, offset int) ([]*domain.Task, int64, error) {
	var statusFilter *domain.TaskStatus
	if status != nil && *status != "" {
		s := domain.TaskStatus(*status)
		statusFilter = &s
	}
	return u.taskRepo.FindAll(statusFilter, limit, offset)
}

func (u *taskUsecase) DeleteTask(taskID string) error {
	task, err := u.GetTaskByID(taskID)
	if err != nil {
		return err
	}
	return u.taskRepo.Delete(task.ID)
}

func (u *taskUsecase) ExecuteTask(ctx context.Context, taskID string) (*domain.Task, error) {
	task, err := u.taskRepo.FindByID(taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}
	if task.Status.IsTerminal() {
		return nil, ErrTaskTerminal
	}

	template, err := u.templateRepo.FindByID(task.TemplateID)
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, ErrTemplateNotFound
	}

	config, err := u.configRepo.FindByID(task.ConfigID)
	if err != nil {
		return nil, err
	}
	if config == nil {
		return nil, ErrConfigNotFound
	}

	// Applies the service-account-over-legacy precedence; a config with
	// neither credential is a validation error before any network call
	credential, err := config.DispatchCredential()
	if err != nil {
		return nil, err
	}

	notification, err := template.Notification()
	if err != nil {
		return nil, err
	}

	deviceTokens, err := u.tokenRepo.FindActiveByGroupID(task.GroupID)
	if err != nil {
		return nil, err
	}

	tokens := dedupeTokens(deviceTokens)

	// "Nothing to send" is an executed attempt, not a validation error: the
	// task goes straight to failed with zero counters and no outbound HTTP
	if len(tokens) == 0 {
		log.Printf("[TaskUsecase] Task %s has no eligible tokens, marking failed", task.ID)
		message := "no eligible device tokens"
		task.Status = domain.TaskStatusFailed
		task.TotalTokens = 0
		task.SuccessCount = 0
		task.FailureCount = 0
		task.LastError = &message
		if err := u.taskRepo.Update(task); err != nil {
			return nil, err
		}
		return task, nil
	}

	ok, err := u.taskRepo.MarkProcessing(task.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost the race to another execute request
		return nil, ErrTaskTerminal
	}
	task.Status = domain.TaskStatusProcessing
	task.TotalTokens = len(tokens)

	log.Printf("[TaskUsecase] Executing task %s: %d unique tokens", task.ID, len(tokens))

	result, dispatchErr := u.dispatcher.Dispatch(ctx, credential, tokens, notification)

	task.SuccessCount = result.SuccessCount
	task.FailureCount = result.FailureCount

	switch {
	case dispatchErr != nil:
		// Credential exchange errors and unexpected transport failures land
		// here; counters keep whatever was tallied before the failure
		task.Status = domain.TaskStatusFailed
		message := dispatchErr.Error()
		task.LastError = &message
		log.Printf("[TaskUsecase] Task %s dispatch failed: %v", task.ID, dispatchErr)
	case result.FailureCount > 0:
		task.Status = domain.TaskStatusFailed
		task.LastError = joinLastErrors(result.Errors)
	default:
		task.Status = domain.TaskStatusCompleted
		task.LastError = nil
	}

	if err := u.taskRepo.Update(task); err != nil {
		return nil, err
	}

	log.Printf("[TaskUsecase] Task %s finished %s: %d success, %d failures", task.ID, task.Status, task.SuccessCount, task.FailureCount)
	return task, nil
}

// dedupeTokens extracts token values preserving first-seen order. Duplicates
// must not inflate totals; matching is case-sensitive and exact.
func dedupeTokens(deviceTokens []messagingdomain.DeviceToken) []string {
	seen := make(map[string]struct{}, len(deviceTokens))
	tokens := make([]string, 0, len(deviceTokens))
	for _, t := range deviceTokens {
		if _, ok := seen[t.Token]; ok {
			continue
		}
		seen[t.Token] = struct{}{}
		tokens = append(tokens, t.Token)
	}
	return tokens
}

// joinLastErrors keeps at most the last 5 diagnostic lines for the task record
func joinLastErrors(errors []string) *string {
	if len(errors) == 0 {
		return nil
	}
	if len(errors) > maxErrorLines {
		errors = errors[len(errors)-maxErrorLines:]
	}
	joined := strings.Join(errors, "; ")
	return &joined
}
