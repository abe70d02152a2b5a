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

type scheduleService interface {
	ListSlots(ctx context.Context, params application.ListSlotsParams) ([]domain.Slot, error)
	GetSlot(ctx context.Context, principal application.Principal, slotID string) (domain.Slot, error)
	CreateSlot(ctx context.Context, principal application.Principal, input application.SlotInput) (application.SlotResult, error)
	UpdateSlot(ctx context.Context, principal application.Principal, slotID string, input application.SlotInput) (application.SlotResult, error)
	DeleteSlot(ctx context.Context, principal application.Principal, slotID string) error
	ImportSlots(ctx context.Context, principal application.Principal, inputs []application.SlotInput) (application.ImportResult, error)
}

// ScheduleHandler serves the weekly timetable.
type ScheduleHandler struct {
	service scheduleService
	logger  *slog.Logger
}

// NewScheduleHandler builds a ScheduleHandler.
func NewScheduleHandler(service scheduleService, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{service: service, logger: defaultLogger(logger)}
}

type slotDTO struct {
	ID               string    `json:"id"`
	Weekday          string    `json:"weekday"`
	StartTime        string    `json:"startTime"`
	EndTime          string    `json:"endTime"`
	Title            string    `json:"title"`
	Location         *string   `json:"location,omitempty"`
	Type             string    `json:"type"`
	AcademicType     string    `json:"academicType"`
	AttendanceWeight int       `json:"attendanceWeight"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func toSlotDTO(slot domain.Slot) slotDTO {
	return slotDTO{
		ID:               slot.ID,
		Weekday:          string(slot.Weekday),
		StartTime:        slot.Start.String(),
		EndTime:          slot.End.String(),
		Title:            slot.Title,
		Location:         slot.Location,
		Type:             string(slot.Kind),
		AcademicType:     string(slot.AcademicKind),
		AttendanceWeight: slot.Weight(),
		CreatedAt:        slot.CreatedAt,
		UpdatedAt:        slot.UpdatedAt,
	}
}

type overlapDTO struct {
	SlotID    string `json:"slotId"`
	Title     string `json:"title"`
	Weekday   string `json:"weekday"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type slotResponse struct {
	Slot     slotDTO      `json:"slot"`
	Warnings []overlapDTO `json:"warnings"`
}

func toSlotResponse(result application.SlotResult) slotResponse {
	warnings := make([]overlapDTO, 0, len(result.Warnings))
	for _, w := range result.Warnings {
		warnings = append(warnings, overlapDTO{
			SlotID:    w.SlotID,
			Title:     w.Title,
			Weekday:   string(w.Weekday),
			StartTime: w.Start.String(),
			EndTime:   w.End.String(),
		})
	}
	return slotResponse{Slot: toSlotDTO(result.Slot), Warnings: warnings}
}

type slotRequest struct {
	Weekday          string  `json:"weekday" validate:"required,weekday"`
	StartTime        string  `json:"startTime" validate:"required,hhmm"`
	EndTime          string  `json:"endTime" validate:"required,hhmm"`
	Title            string  `json:"title" validate:"notblank,max=200"`
	Location         *string `json:"location"`
	Type             string  `json:"type" validate:"omitempty,oneof=academic personal"`
	AcademicType     string  `json:"academicType" validate:"omitempty,oneof=lecture lab"`
	AttendanceWeight int     `json:"attendanceWeight" validate:"min=0"`
}

// toInput converts an already validated request. Import items skip struct
// validation, so unparsable values are left zero for the service to reject.
func (r slotRequest) toInput() application.SlotInput {
	input := application.SlotInput{
		Title:            r.Title,
		Location:         r.Location,
		Kind:             domain.SlotKind(r.Type),
		AcademicKind:     domain.AcademicKind(r.AcademicType),
		AttendanceWeight: r.AttendanceWeight,
	}
	if day, err := domain.ParseWeekday(r.Weekday); err == nil {
		input.Weekday = day
	} else {
		input.Weekday = domain.Weekday(r.Weekday)
	}
	if start, err := domain.ParseTimeOfDay(r.StartTime); err == nil {
		input.Start = start
	} else {
		input.Start = -1
	}
	if end, err := domain.ParseTimeOfDay(r.EndTime); err == nil {
		input.End = end
	} else {
		input.End = -1
	}
	return input
}

type listSlotsQuery struct {
	Weekday string `query:"weekday" validate:"omitempty,weekday"`
	Type    string `query:"type" validate:"omitempty,oneof=academic personal"`
}

// List handles GET /v1/schedule.
func (h *ScheduleHandler) List(c echo.Context) error {
	var query listSlotsQuery
	if err := bindAndValidate(c, &query); err != nil {
		return err
	}

	params := application.ListSlotsParams{Principal: principalOf(c)}
	if query.Weekday != "" {
		day, _ := domain.ParseWeekday(query.Weekday)
		params.Weekday = &day
	}
	if query.Type != "" {
		kind := domain.SlotKind(query.Type)
		params.Kind = &kind
	}

	slots, err := h.service.ListSlots(c.Request().Context(), params)
	if err != nil {
		return err
	}
	out := make([]slotDTO, 0, len(slots))
	for _, slot := range slots {
		out = append(out, toSlotDTO(slot))
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/schedule/:id.
func (h *ScheduleHandler) Get(c echo.Context) error {
	slot, err := h.service.GetSlot(c.Request().Context(), principalOf(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSlotDTO(slot))
}

// Create handles POST /v1/schedule.
func (h *ScheduleHandler) Create(c echo.Context) error {
	var req slotRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.service.CreateSlot(c.Request().Context(), principalOf(c), req.toInput())
	if err != nil {
		return err
	}
	h.logWarnings(c, "Create", result)
	return c.JSON(http.StatusCreated, toSlotResponse(result))
}

// Update handles PUT /v1/schedule/:id.
func (h *ScheduleHandler) Update(c echo.Context) error {
	var req slotRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.service.UpdateSlot(c.Request().Context(), principalOf(c), c.Param("id"), req.toInput())
	if err != nil {
		return err
	}
	h.logWarnings(c, "Update", result)
	return c.JSON(http.StatusOK, toSlotResponse(result))
}

// Delete handles DELETE /v1/schedule/:id.
func (h *ScheduleHandler) Delete(c echo.Context) error {
	if err := h.service.DeleteSlot(c.Request().Context(), principalOf(c), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type importItemDTO struct {
	Index        int               `json:"index"`
	Result       string            `json:"result"`
	Slot         *slotDTO          `json:"slot,omitempty"`
	Errors       map[string]string `json:"errors,omitempty"`
	ConflictWith string            `json:"conflictWith,omitempty"`
}

type importResponse struct {
	Created   int             `json:"created"`
	Invalid   int             `json:"invalid"`
	Conflicts int             `json:"conflicts"`
	Items     []importItemDTO `json:"items"`
}

// Import handles POST /v1/schedule/import. Items are validated one by one so a
// bad item never rejects the batch.
func (h *ScheduleHandler) Import(c echo.Context) error {
	var reqs []slotRequest
	if err := c.Bind(&reqs); err != nil {
		return errBadRequest.WithInternal(err)
	}
	if len(reqs) == 0 {
		return fieldErrors{"items": "at least one slot is required"}
	}

	inputs := make([]application.SlotInput, 0, len(reqs))
	for _, req := range reqs {
		inputs = append(inputs, req.toInput())
	}

	result, err := h.service.ImportSlots(c.Request().Context(), principalOf(c), inputs)
	if err != nil {
		return err
	}

	handlerLogger(c.Request().Context(), h.logger, "ScheduleHandler", "Import").
		InfoContext(c.Request().Context(), "schedule imported",
			"created", result.Created,
			"invalid", result.Invalid,
			"conflicts", result.Conflicts,
		)
	return c.JSON(http.StatusOK, toImportResponse(result))
}

func toImportResponse(result application.ImportResult) importResponse {
	resp := importResponse{
		Created:   result.Created,
		Invalid:   result.Invalid,
		Conflicts: result.Conflicts,
		Items:     make([]importItemDTO, 0, len(result.Items)),
	}
	for _, item := range result.Items {
		dto := importItemDTO{
			Index:        item.Index,
			Result:       string(item.Outcome),
			Errors:       item.FieldErrors,
			ConflictWith: item.ConflictWith,
		}
		if item.Slot != nil {
			slot := toSlotDTO(*item.Slot)
			dto.Slot = &slot
		}
		resp.Items = append(resp.Items, dto)
	}
	return resp
}

func (h *ScheduleHandler) logWarnings(c echo.Context, operation string, result application.SlotResult) {
	if len(result.Warnings) == 0 {
		return
	}
	handlerLogger(c.Request().Context(), h.logger, "ScheduleHandler", operation, "slot_id", result.Slot.ID).
		InfoContext(c.Request().Context(), "slot overlaps existing slots", "overlaps", len(result.Warnings))
}
