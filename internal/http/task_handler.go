package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/example/campus-planner/internal/application"
	"github.com/example/campus-planner/internal/domain"
)

type taskService interface {
	ListTasks(ctx context.Context, params application.ListTasksParams) ([]domain.Task, error)
	GetTask(ctx context.Context, principal application.Principal, taskID string) (domain.Task, error)
	CreateTask(ctx context.Context, principal application.Principal, input application.TaskInput) (domain.Task, error)
	UpdateTask(ctx context.Context, principal application.Principal, taskID string, input application.TaskInput) (domain.Task, error)
	DeleteTask(ctx context.Context, principal application.Principal, taskID string) error
	Sync(ctx context.Context, params application.SyncTasksParams) (application.SyncTasksResult, error)
}

// TaskHandler serves the daily task board.
type TaskHandler struct {
	service taskService
	logger  *slog.Logger
}

// NewTaskHandler builds a TaskHandler.
func NewTaskHandler(service taskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{service: service, logger: defaultLogger(logger)}
}

type taskDTO struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  *string   `json:"description,omitempty"`
	Date         string    `json:"date"`
	Status       string    `json:"status"`
	Priority     string    `json:"priority"`
	OriginSlotID *string   `json:"originSlotId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func toTaskDTO(task domain.Task) taskDTO {
	return taskDTO{
		ID:           task.ID,
		Title:        task.Title,
		Description:  task.Description,
		Date:         task.Date.String(),
		Status:       string(task.Status),
		Priority:     string(task.Priority),
		OriginSlotID: task.OriginSlotID,
		CreatedAt:    task.CreatedAt,
		UpdatedAt:    task.UpdatedAt,
	}
}

// taskRequest has no originSlotId field; only sync may set it.
type taskRequest struct {
	Title       string  `json:"title" validate:"notblank,max=200"`
	Description *string `json:"description"`
	Date        string  `json:"date" validate:"required,date"`
	Status      string  `json:"status" validate:"omitempty,oneof=todo inprogress done"`
	Priority    string  `json:"priority" validate:"omitempty,oneof=low medium high"`
}

func (r taskRequest) toInput() application.TaskInput {
	date, _ := domain.ParseDate(r.Date)
	return application.TaskInput{
		Title:       r.Title,
		Description: r.Description,
		Date:        date,
		Status:      domain.TaskStatus(r.Status),
		Priority:    domain.TaskPriority(r.Priority),
	}
}

type listTasksQuery struct {
	Date   string `query:"date" validate:"omitempty,date"`
	Status string `query:"status" validate:"omitempty,oneof=todo inprogress done"`
}

type syncTasksRequest struct {
	Owner   string `json:"owner"`
	Date    string `json:"date" validate:"required,date"`
	Weekday string `json:"weekday" validate:"omitempty,weekday"`
}

type syncTasksResponse struct {
	Created int `json:"created"`
	Deleted int `json:"deleted"`
}

// List handles GET /v1/tasks.
func (h *TaskHandler) List(c echo.Context) error {
	var query listTasksQuery
	if err := bindAndValidate(c, &query); err != nil {
		return err
	}

	params := application.ListTasksParams{Principal: principalOf(c)}
	if query.Date != "" {
		date, _ := domain.ParseDate(query.Date)
		params.Date = &date
	}
	if query.Status != "" {
		status := domain.TaskStatus(query.Status)
		params.Status = &status
	}

	tasks, err := h.service.ListTasks(c.Request().Context(), params)
	if err != nil {
		return err
	}
	out := make([]taskDTO, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, toTaskDTO(task))
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/tasks/:id.
func (h *TaskHandler) Get(c echo.Context) error {
	task, err := h.service.GetTask(c.Request().Context(), principalOf(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTaskDTO(task))
}

// Create handles POST /v1/tasks.
func (h *TaskHandler) Create(c echo.Context) error {
	var req taskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.service.CreateTask(c.Request().Context(), principalOf(c), req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toTaskDTO(task))
}

// Update handles PUT /v1/tasks/:id.
func (h *TaskHandler) Update(c echo.Context) error {
	var req taskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.service.UpdateTask(c.Request().Context(), principalOf(c), c.Param("id"), req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTaskDTO(task))
}

// Delete handles DELETE /v1/tasks/:id.
func (h *TaskHandler) Delete(c echo.Context) error {
	if err := h.service.DeleteTask(c.Request().Context(), principalOf(c), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Sync handles POST /v1/tasks/sync.
func (h *TaskHandler) Sync(c echo.Context) error {
	var req syncTasksRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	params := application.SyncTasksParams{Principal: principalOf(c), OwnerID: req.Owner}
	params.Date, _ = domain.ParseDate(req.Date)
	if req.Weekday != "" {
		day, _ := domain.ParseWeekday(req.Weekday)
		params.Weekday = &day
	}

	result, err := h.service.Sync(c.Request().Context(), params)
	if err != nil {
		return err
	}
	handlerLogger(c.Request().Context(), h.logger, "TaskHandler", "Sync").
		DebugContext(c.Request().Context(), "tasks synced", "created", result.Created, "deleted", result.Deleted)
	return c.JSON(http.StatusOK, syncTasksResponse{Created: result.Created, Deleted: result.Deleted})
}
