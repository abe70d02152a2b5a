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

type focusService interface {
	RecordSession(ctx context.Context, principal application.Principal, input application.FocusSessionInput) (domain.FocusSession, error)
	Today(ctx context.Context, principal application.Principal) (application.FocusToday, error)
	ListSessions(ctx context.Context, principal application.Principal, date domain.Date) ([]domain.FocusSession, error)
}

// FocusHandler records timer sessions and reports daily focus totals.
type FocusHandler struct {
	service focusService
	logger  *slog.Logger
}

// NewFocusHandler builds a FocusHandler.
func NewFocusHandler(service focusService, logger *slog.Logger) *FocusHandler {
	return &FocusHandler{service: service, logger: defaultLogger(logger)}
}

type focusSessionDTO struct {
	ID        string    `json:"id"`
	TaskID    *string   `json:"taskId,omitempty"`
	Duration  int       `json:"duration"`
	Type      string    `json:"type"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	CreatedAt time.Time `json:"createdAt"`
}

func toFocusSessionDTO(session domain.FocusSession) focusSessionDTO {
	return focusSessionDTO{
		ID:        session.ID,
		TaskID:    session.TaskID,
		Duration:  session.DurationMinutes,
		Type:      string(session.Kind),
		StartTime: session.StartTime,
		EndTime:   session.EndTime,
		CreatedAt: session.CreatedAt,
	}
}

type recordSessionRequest struct {
	TaskID    *string    `json:"taskId"`
	Duration  int        `json:"duration" validate:"gt=0"`
	Type      string     `json:"type" validate:"required,oneof=focus break"`
	StartTime *time.Time `json:"startTime" validate:"required"`
	EndTime   *time.Time `json:"endTime" validate:"required"`
}

type focusTodayResponse struct {
	Date         string `json:"date"`
	TotalMinutes int    `json:"totalMinutes"`
	DailyGoal    int    `json:"dailyGoal"`
}

type listSessionsQuery struct {
	Date string `query:"date" validate:"omitempty,date"`
}

// Record handles POST /v1/focus/sessions.
func (h *FocusHandler) Record(c echo.Context) error {
	var req recordSessionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	session, err := h.service.RecordSession(c.Request().Context(), principalOf(c), application.FocusSessionInput{
		TaskID:          req.TaskID,
		DurationMinutes: req.Duration,
		Kind:            domain.SessionKind(req.Type),
		StartTime:       *req.StartTime,
		EndTime:         *req.EndTime,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toFocusSessionDTO(session))
}

// Today handles GET /v1/focus/today.
func (h *FocusHandler) Today(c echo.Context) error {
	today, err := h.service.Today(c.Request().Context(), principalOf(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, focusTodayResponse{
		Date:         today.Date.String(),
		TotalMinutes: today.TotalMinutes,
		DailyGoal:    today.DailyGoal,
	})
}

// List handles GET /v1/focus/sessions. Without a date it lists today.
func (h *FocusHandler) List(c echo.Context) error {
	var query listSessionsQuery
	if err := bindAndValidate(c, &query); err != nil {
		return err
	}

	var date domain.Date
	if query.Date != "" {
		date, _ = domain.ParseDate(query.Date)
	}

	sessions, err := h.service.ListSessions(c.Request().Context(), principalOf(c), date)
	if err != nil {
		return err
	}
	out := make([]focusSessionDTO, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, toFocusSessionDTO(session))
	}
	return c.JSON(http.StatusOK, out)
}
