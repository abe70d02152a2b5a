package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/campus-planner/internal/domain"
	"github.com/example/campus-planner/internal/persistence"
	"github.com/example/campus-planner/internal/tasksync"
)

// TaskSyncer reconciles generated tasks with the personal schedule.
type TaskSyncer interface {
	Sync(ctx context.Context, ownerID string, date domain.Date, weekday domain.Weekday) (tasksync.Result, error)
}

// TaskService manages daily tasks, both manual and generated.
type TaskService struct {
	tasks       persistence.TaskRepository
	syncer      TaskSyncer
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewTaskService wires dependencies for task operations.
func NewTaskService(tasks persistence.TaskRepository, syncer TaskSyncer, idGenerator func() string, now func() time.Time, logger *slog.Logger) *TaskService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &TaskService{
		tasks:       tasks,
		syncer:      syncer,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *TaskService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "TaskService", operation, attrs...)
}

// ListTasks returns the principal's tasks ordered by date, then creation time.
func (s *TaskService) ListTasks(ctx context.Context, params ListTasksParams) ([]domain.Task, error) {
	if s == nil {
		return nil, fmt.Errorf("TaskService is nil")
	}
	if params.Status != nil && !params.Status.Valid() {
		return nil, newValidationError("status", "status must be todo, inprogress or done")
	}
	tasks, err := s.tasks.ListTasks(ctx, persistence.TaskFilter{
		OwnerID: params.Principal.OwnerID,
		Date:    params.Date,
		Status:  params.Status,
	})
	if err != nil {
		return nil, mapRepoError(err)
	}
	return tasks, nil
}

// GetTask returns a task owned by the principal.
func (s *TaskService) GetTask(ctx context.Context, principal Principal, taskID string) (domain.Task, error) {
	if s == nil {
		return domain.Task{}, fmt.Errorf("TaskService is nil")
	}
	return s.ownedTask(ctx, principal, taskID)
}

// CreateTask stores a manual task.
func (s *TaskService) CreateTask(ctx context.Context, principal Principal, input TaskInput) (task domain.Task, err error) {
	if s == nil {
		return domain.Task{}, fmt.Errorf("TaskService is nil")
	}
	logger := s.loggerWith(ctx, "CreateTask", "owner_id", principal.OwnerID)
	defer func() { logOutcome(ctx, logger, err, "task creation", "task_id", task.ID) }()

	input = normalizeTaskInput(input)
	if vErr := validateTaskInput(input); vErr.HasErrors() {
		return domain.Task{}, vErr
	}

	now := s.now()
	task = domain.Task{
		ID:          s.idGenerator(),
		OwnerID:     principal.OwnerID,
		Title:       input.Title,
		Description: input.Description,
		Date:        input.Date,
		Status:      input.Status,
		Priority:    input.Priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err = s.tasks.CreateTask(ctx, task); err != nil {
		return domain.Task{}, mapRepoError(err)
	}
	return task, nil
}

// UpdateTask edits a task owned by the principal. The origin slot and the
// date of a generated task cannot be changed; sync owns both.
func (s *TaskService) UpdateTask(ctx context.Context, principal Principal, taskID string, input TaskInput) (task domain.Task, err error) {
	if s == nil {
		return domain.Task{}, fmt.Errorf("TaskService is nil")
	}
	logger := s.loggerWith(ctx, "UpdateTask", "owner_id", principal.OwnerID, "task_id", taskID)
	defer func() { logOutcome(ctx, logger, err, "task update") }()

	task, err = s.ownedTask(ctx, principal, taskID)
	if err != nil {
		return domain.Task{}, err
	}

	input = normalizeTaskInput(input)
	vErr := validateTaskInput(input)
	if task.Generated() && !input.Date.IsZero() && input.Date != task.Date {
		vErr.add("date", "date of a task generated from the schedule cannot be changed")
	}
	if vErr.HasErrors() {
		return domain.Task{}, vErr
	}

	task.Title = input.Title
	task.Description = input.Description
	task.Date = input.Date
	task.Status = input.Status
	task.Priority = input.Priority
	task.UpdatedAt = s.now()

	if err = s.tasks.UpdateTask(ctx, task); err != nil {
		return domain.Task{}, mapRepoError(err)
	}
	return task, nil
}

// DeleteTask removes a task owned by the principal.
func (s *TaskService) DeleteTask(ctx context.Context, principal Principal, taskID string) (err error) {
	if s == nil {
		return fmt.Errorf("TaskService is nil")
	}
	logger := s.loggerWith(ctx, "DeleteTask", "owner_id", principal.OwnerID, "task_id", taskID)
	defer func() { logOutcome(ctx, logger, err, "task deletion") }()

	if _, err = s.ownedTask(ctx, principal, taskID); err != nil {
		return err
	}
	return mapRepoError(s.tasks.DeleteTask(ctx, taskID))
}

// Sync reconciles the generated tasks of a day with the personal schedule.
// Only the principal's own list may be synced.
func (s *TaskService) Sync(ctx context.Context, params SyncTasksParams) (result SyncTasksResult, err error) {
	if s == nil {
		return SyncTasksResult{}, fmt.Errorf("TaskService is nil")
	}
	if s.syncer == nil {
		return SyncTasksResult{}, fmt.Errorf("task syncer not configured")
	}

	ownerID := strings.TrimSpace(params.OwnerID)
	if ownerID == "" {
		ownerID = params.Principal.OwnerID
	}
	logger := s.loggerWith(ctx, "Sync", "owner_id", ownerID, "date", params.Date.String())
	defer func() { logOutcome(ctx, logger, err, "task sync", "created", result.Created, "deleted", result.Deleted) }()

	if ownerID != params.Principal.OwnerID {
		return SyncTasksResult{}, ErrUnauthorized
	}
	if params.Date.IsZero() {
		return SyncTasksResult{}, newValidationError("date", "date is required")
	}

	weekday := params.Date.Weekday()
	if params.Weekday != nil {
		if !params.Weekday.Valid() {
			return SyncTasksResult{}, newValidationError("weekday", "weekday must be one of Monday..Sunday")
		}
		weekday = *params.Weekday
	}

	synced, err := s.syncer.Sync(ctx, ownerID, params.Date, weekday)
	if err != nil {
		return SyncTasksResult{}, mapRepoError(err)
	}
	return SyncTasksResult{Created: synced.Created, Deleted: synced.Deleted}, nil
}

func (s *TaskService) ownedTask(ctx context.Context, principal Principal, taskID string) (domain.Task, error) {
	task, err := s.tasks.GetTask(ctx, taskID)
	if err != nil {
		return domain.Task{}, mapRepoError(err)
	}
	if task.OwnerID != principal.OwnerID {
		return domain.Task{}, ErrNotFound
	}
	return task, nil
}

func normalizeTaskInput(input TaskInput) TaskInput {
	input.Title = strings.TrimSpace(input.Title)
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if description == "" {
			input.Description = nil
		} else {
			input.Description = &description
		}
	}
	if input.Status == "" {
		input.Status = domain.TaskTodo
	}
	if input.Priority == "" {
		input.Priority = domain.PriorityMedium
	}
	return input
}

func validateTaskInput(input TaskInput) *ValidationError {
	vErr := &ValidationError{}
	if input.Title == "" {
		vErr.add("title", "title is required")
	} else if len(input.Title) > MaxTitleLength {
		vErr.add("title", fmt.Sprintf("title must be at most %d characters", MaxTitleLength))
	}
	if input.Date.IsZero() {
		vErr.add("date", "date is required")
	}
	if !input.Status.Valid() {
		vErr.add("status", "status must be todo, inprogress or done")
	}
	if !input.Priority.Valid() {
		vErr.add("priority", "priority must be low, medium or high")
	}
	return vErr
}
