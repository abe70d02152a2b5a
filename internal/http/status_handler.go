package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/example/campus-planner/internal/domain"
)

type liveStatusService interface {
	Status(ctx context.Context, ownerID string) domain.LiveStatus
}

// StatusHandler exposes an owner's live availability.
type StatusHandler struct {
	service liveStatusService
	logger  *slog.Logger
}

// NewStatusHandler builds a StatusHandler.
func NewStatusHandler(service liveStatusService, logger *slog.Logger) *StatusHandler {
	return &StatusHandler{service: service, logger: defaultLogger(logger)}
}

type liveStatusResponse struct {
	State       string  `json:"state"`
	Description string  `json:"description"`
	Until       *string `json:"until,omitempty"`
	SlotID      string  `json:"slotId,omitempty"`
}

// Get handles GET /v1/live-status. Any authenticated caller may look up any
// owner; the principal is used when no owner is given.
func (h *StatusHandler) Get(c echo.Context) error {
	ownerID := strings.TrimSpace(c.QueryParam("owner"))
	if ownerID == "" {
		ownerID = principalOf(c).OwnerID
	}

	status := h.service.Status(c.Request().Context(), ownerID)
	resp := liveStatusResponse{
		State:       string(status.State),
		Description: status.Description,
		SlotID:      status.SlotID,
	}
	if status.Until != nil {
		until := status.Until.String()
		resp.Until = &until
	}
	return c.JSON(http.StatusOK, resp)
}
