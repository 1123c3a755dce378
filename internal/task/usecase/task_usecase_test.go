package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	messagingdomain "pushconsole-backend/internal/messaging/domain"
	"pushconsole-backend/internal/task/domain"
	"pushconsole-backend/pkg/fcm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTaskRepo struct {
	tasks map[string]*domain.Task
}

func (r *fakeTaskRepo) Create(task *domain.Task) error {
	r.tasks[task.ID] = task
	return nil
}

func (r *fakeTaskRepo) FindByID(id string) (*domain.Task, error) {
	task, ok := r.tasks[id]
	if !ok {
		return nil, nil
	}
	copied := *task
	return &copied, nil
}

func (r *fakeTaskRepo) FindAll(status *domain.TaskStatus, limit, offset int) ([]*domain.Task, int64, error) {
	var tasks []*domain.Task
	for _, task := range r.tasks {
		if status == nil || task.Status == *status {
			tasks = append(tasks, task)
		}
	}
	return tasks, int64(len(tasks)), nil
}

func (r *fakeTaskRepo) Update(task *domain.Task) error {
	copied := *task
	r.tasks[task.ID] = &copied
	return nil
}

func (r *fakeTaskRepo) Delete(id string) error {
	delete(r.tasks, id)
	return nil
}

func (r *fakeTaskRepo) MarkProcessing(id string) (bool, error) {
	task, ok := r.tasks[id]
	if !ok {
		return false, nil
	}
	if task.Status != domain.TaskStatusDraft && task.Status != domain.TaskStatusScheduled {
		return false, nil
	}
	task.Status = domain.TaskStatusProcessing
	return true, nil
}

type fakeTemplateRepo struct {
	templates map[string]*messagingdomain.Template
}

func (r *fakeTemplateRepo) Create(template *messagingdomain.Template) error {
	r.templates[template.ID] = template
	return nil
}

func (r *fakeTemplateRepo) FindByID(id string) (*messagingdomain.Template, error) {
	return r.templates[id], nil
}

func (r *fakeTemplateRepo) FindAll(limit, offset int) ([]*messagingdomain.Template, int64, error) {
	return nil, 0, nil
}

func (r *fakeTemplateRepo) Delete(id string) error { return nil }

type fakeConfigRepo struct {
	configs map[string]*messagingdomain.ProviderConfig
}

func (r *fakeConfigRepo) Create(config *messagingdomain.ProviderConfig) error {
	r.configs[config.ID] = config
	return nil
}

func (r *fakeConfigRepo) FindByID(id string) (*messagingdomain.ProviderConfig, error) {
	return r.configs[id], nil
}

func (r *fakeConfigRepo) FindAll(limit, offset int) ([]*messagingdomain.ProviderConfig, int64, error) {
	return nil, 0, nil
}

func (r *fakeConfigRepo) Delete(id string) error { return nil }

type fakeTokenRepo struct {
	byGroup map[string][]messagingdomain.DeviceToken
}

func (r *fakeTokenRepo) SaveToken(token, deviceInfo string, groupIDs []string) error { return nil }

func (r *fakeTokenRepo) FindActiveByGroupID(groupID string) ([]messagingdomain.DeviceToken, error) {
	return r.byGroup[groupID], nil
}

func (r *fakeTokenRepo) RevokeToken(token string) error { return nil }
func (r *fakeTokenRepo) DeleteToken(token string) error { return nil }

type fakeDispatcher struct {
	result fcm.Result
	err    error

	calls      int
	gotCred    fcm.Credential
	gotTokens  []string
	gotContent fcm.Notification
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, cred fcm.Credential, tokens []string, notification fcm.Notification) (fcm.Result, error) {
	d.calls++
	d.gotCred = cred
	d.gotTokens = tokens
	d.gotContent = notification
	return d.result, d.err
}

type fixture struct {
	taskRepo   *fakeTaskRepo
	dispatcher *fakeDispatcher
	usecase    TaskUsecase
}

func newFixture(t *testing.T, tokens []string) *fixture {
	t.Helper()

	taskRepo := &fakeTaskRepo{tasks: map[string]*domain.Task{
		"task-1": {
			ID:         "task-1",
			Name:       "spring campaign",
			TemplateID: "tmpl-1",
			ConfigID:   "cfg-1",
			GroupID:    "grp-1",
			Status:     domain.TaskStatusDraft,
		},
	}}

	templateRepo := &fakeTemplateRepo{templates: map[string]*messagingdomain.Template{
		"tmpl-1": {ID: "tmpl-1", Title: "Hi", Body: "There"},
	}}

	configRepo := &fakeConfigRepo{configs: map[string]*messagingdomain.ProviderConfig{
		"cfg-1": {ID: "cfg-1", LegacyKey: "K"},
	}}

	var deviceTokens []messagingdomain.DeviceToken
	for i, token := range tokens {
		deviceTokens = append(deviceTokens, messagingdomain.DeviceToken{
			ID:     fmt.Sprintf("dev-%d", i),
			Token:  token,
			Status: messagingdomain.TokenStatusActive,
		})
	}
	tokenRepo := &fakeTokenRepo{byGroup: map[string][]messagingdomain.DeviceToken{"grp-1": deviceTokens}}

	dispatcher := &fakeDispatcher{}

	return &fixture{
		taskRepo:   taskRepo,
		dispatcher: dispatcher,
		usecase:    NewTaskUsecase(taskRepo, templateRepo, configRepo, tokenRepo, dispatcher),
	}
}

func TestExecuteTask_AllTokensDelivered(t *testing.T) {
	f := newFixture(t, []string{"tok-1", "tok-2", "tok-3"})
	f.dispatcher.result = fcm.Result{SuccessCount: 3, FailureCount: 0}

	task, err := f.usecase.ExecuteTask(context.Background(), "task-1")
	require.NoError(t, err)

	assert.Equal(t, domain.TaskStatusCompleted, task.Status)
	assert.Equal(t, 3, task.TotalTokens)
	assert.Equal(t, 3, task.SuccessCount)
	assert.Equal(t, 0, task.FailureCount)
	assert.Nil(t, task.LastError)

	assert.Equal(t, fcm.APIKey{Key: "K"}, f.dispatcher.gotCred)
	assert.Equal(t, "Hi", f.dispatcher.gotContent.Title)

	persisted := f.taskRepo.tasks["task-1"]
	assert.Equal(t, domain.TaskStatusCompleted, persisted.Status)
}

func TestExecuteTask_AnyFailureMarksTaskFailed(t *testing.T) {
	f := newFixture(t, []string{"tok-1", "tok-2", "tok-3"})
	f.dispatcher.result = fcm.Result{
		SuccessCount: 2,
		FailureCount: 1,
		Errors:       []string{"NotRegistered (token ...k-3)"},
	}

	task, err := f.usecase.ExecuteTask(context.Background(), "task-1")
	require.NoError(t, err)

	assert.Equal(t, domain.TaskStatusFailed, task.Status)
	assert.Equal(t, 2, task.SuccessCount)
	assert.Equal(t, 1, task.FailureCount)
	require.NotNil(t, task.LastError)
	assert.Contains(t, *task.LastError, "NotRegistered")
}

func TestExecuteTask_NoEligibleTokens(t *testing.T) {
	f := newFixture(t, nil)

	task, err := f.usecase.ExecuteTask(context.Background(), "task-1")
	require.NoError(t, err)

	// an executed attempt with nothing to send, not a validation error
	assert.Equal(t, domain.TaskStatusFailed, task.Status)
	assert.Equal(t, 0, task.TotalTokens)
	assert.Equal(t, 0, task.SuccessCount)
	assert.Equal(t, 0, task.FailureCount)
	require.NotNil(t, task.LastError)
	assert.Equal(t, "no eligible device tokens", *task.LastError)

	assert.Equal(t, 0, f.dispatcher.calls, "no outbound dispatch may happen")
}

func TestExecuteTask_DeduplicatesTokens(t *testing.T) {
	f := newFixture(t, []string{"tok-A", "tok-A", "tok-B"})
	f.dispatcher.result = fcm.Result{SuccessCount: 2}

	task, err := f.usecase.ExecuteTask(context.Background(), "task-1")
	require.NoError(t, err)

	assert.Equal(t, 2, task.TotalTokens)
	assert.Equal(t, []string{"tok-A", "tok-B"}, f.dispatcher.gotTokens)
}

func TestExecuteTask_TerminalTaskRejected(t *testing.T) {
	f := newFixture(t, []string{"tok-1"})
	f.taskRepo.tasks["task-1"].Status = domain.TaskStatusCompleted
	f.taskRepo.tasks["task-1"].SuccessCount = 7

	_, err := f.usecase.ExecuteTask(context.Background(), "task-1")
	require.ErrorIs(t, err, ErrTaskTerminal)

	// counters untouched, no dispatch
	assert.Equal(t, 7, f.taskRepo.tasks["task-1"].SuccessCount)
	assert.Equal(t, 0, f.dispatcher.calls)
}

func TestExecuteTask_NotFound(t *testing.T) {
	f := newFixture(t, []string{"tok-1"})

	_, err := f.usecase.ExecuteTask(context.Background(), "missing")
	require.ErrorIs(t, err, ErrTaskNotFound)
}

func TestExecuteTask_MissingTemplate(t *testing.T) {
	f := newFixture(t, []string{"tok-1"})
	f.taskRepo.tasks["task-1"].TemplateID = "missing"

	_, err := f.usecase.ExecuteTask(context.Background(), "task-1")
	require.ErrorIs(t, err, ErrTemplateNotFound)

	// precondition failures leave the task untouched
	assert.Equal(t, domain.TaskStatusDraft, f.taskRepo.tasks["task-1"].Status)
}

func TestExecuteTask_MissingConfig(t *testing.T) {
	f := newFixture(t, []string{"tok-1"})
	f.taskRepo.tasks["task-1"].ConfigID = "missing"

	_, err := f.usecase.ExecuteTask(context.Background(), "task-1")
	require.ErrorIs(t, err, ErrConfigNotFound)
	assert.Equal(t, domain.TaskStatusDraft, f.taskRepo.tasks["task-1"].Status)
}

func TestExecuteTask_ConfigWithoutCredential(t *testing.T) {
	f := newFixture(t, []string{"tok-1"})
	f.usecase = NewTaskUsecase(
		f.taskRepo,
		&fakeTemplateRepo{templates: map[string]*messagingdomain.Template{"tmpl-1": {ID: "tmpl-1", Title: "Hi", Body: "There"}}},
		&fakeConfigRepo{configs: map[string]*messagingdomain.ProviderConfig{"cfg-1": {ID: "cfg-1"}}},
		&fakeTokenRepo{byGroup: map[string][]messagingdomain.DeviceToken{}},
		f.dispatcher,
	)

	_, err := f.usecase.ExecuteTask(context.Background(), "task-1")
	require.ErrorIs(t, err, fcm.ErrNoUsableCredential)
	assert.Equal(t, domain.TaskStatusDraft, f.taskRepo.tasks["task-1"].Status)
	assert.Equal(t, 0, f.dispatcher.calls)
}

func TestExecuteTask_DispatchErrorMarksFailed(t *testing.T) {
	f := newFixture(t, []string{"tok-1"})
	f.dispatcher.err = &fcm.ExchangeError{StatusCode: 403, Body: "invalid_grant"}

	task, err := f.usecase.ExecuteTask(context.Background(), "task-1")
	require.NoError(t, err)

	assert.Equal(t, domain.TaskStatusFailed, task.Status)
	require.NotNil(t, task.LastError)
	assert.Contains(t, *task.LastError, "invalid_grant")
}

func TestExecuteTask_KeepsOnlyLastFiveDiagnostics(t *testing.T) {
	f := newFixture(t, []string{"tok-1", "tok-2", "tok-3", "tok-4", "tok-5", "tok-6", "tok-7"})
	f.dispatcher.result = fcm.Result{
		FailureCount: 7,
		Errors:       []string{"e1", "e2", "e3", "e4", "e5", "e6", "e7"},
	}

	task, err := f.usecase.ExecuteTask(context.Background(), "task-1")
	require.NoError(t, err)

	require.NotNil(t, task.LastError)
	assert.Equal(t, "e3; e4; e5; e6; e7", *task.LastError)
}

func TestExecuteTask_LostProcessingRace(t *testing.T) {
	f := newFixture(t, []string{"tok-1"})
	// another request already moved the task into processing
	f.taskRepo.tasks["task-1"].Status = domain.TaskStatusProcessing

	_, err := f.usecase.ExecuteTask(context.Background(), "task-1")
	require.ErrorIs(t, err, ErrTaskTerminal)
	assert.Equal(t, 0, f.dispatcher.calls)
}

func TestJoinLastErrors(t *testing.T) {
	assert.Nil(t, joinLastErrors(nil))

	joined := joinLastErrors([]string{"a", "b"})
	require.NotNil(t, joined)
	assert.Equal(t, "a; b", *joined)
}

func TestDedupeTokens_CaseSensitive(t *testing.T) {
	tokens := dedupeTokens([]messagingdomain.DeviceToken{
		{Token: "abc"},
		{Token: "ABC"},
		{Token: "abc"},
	})
	assert.Equal(t, []string{"abc", "ABC"}, tokens)
}

func TestExecuteTask_RepositoryErrorSurfaces(t *testing.T) {
	f := newFixture(t, []string{"tok-1"})
	f.dispatcher.err = errors.New("connection reset")

	task, err := f.usecase.ExecuteTask(context.Background(), "task-1")
	require.NoError(t, err)

	// unexpected transport errors are absorbed at the orchestrator boundary
	assert.Equal(t, domain.TaskStatusFailed, task.Status)
	require.NotNil(t, task.LastError)
	assert.Equal(t, "connection reset", *task.LastError)
}
