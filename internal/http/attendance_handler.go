package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/example/campus-planner/internal/application"
	"github.com/example/campus-planner/internal/attendance"
	"github.com/example/campus-planner/internal/domain"
)

type attendanceService interface {
	Mark(ctx context.Context, params application.MarkAttendanceParams) (domain.AttendanceRecord, error)
	History(ctx context.Context, principal application.Principal, date *domain.Date) ([]domain.AttendanceRecord, error)
	Summary(ctx context.Context, principal application.Principal) ([]attendance.SubjectSummary, error)
	Sheet(ctx context.Context, principal application.Principal, from, to domain.Date) (application.AttendanceSheet, error)
}

// AttendanceHandler serves attendance marks and their aggregates.
type AttendanceHandler struct {
	service attendanceService
	logger  *slog.Logger
}

// NewAttendanceHandler builds an AttendanceHandler.
func NewAttendanceHandler(service attendanceService, logger *slog.Logger) *AttendanceHandler {
	return &AttendanceHandler{service: service, logger: defaultLogger(logger)}
}

type attendanceRecordDTO struct {
	ID        string    `json:"id"`
	SlotID    string    `json:"slotId"`
	Date      string    `json:"date"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toAttendanceRecordDTO(record domain.AttendanceRecord) attendanceRecordDTO {
	return attendanceRecordDTO{
		ID:        record.ID,
		SlotID:    record.SlotID,
		Date:      record.Date.String(),
		Status:    string(record.Status),
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}

type subjectSummaryDTO struct {
	Subject       string   `json:"subject"`
	Percentage    int      `json:"percentage"`
	PresentWeight int      `json:"presentWeight"`
	CountedWeight int      `json:"countedWeight"`
	SlotIDs       []string `json:"slotIds"`
}

type sheetEntryDTO struct {
	SlotID    string  `json:"slotId"`
	Title     string  `json:"title"`
	Location  *string `json:"location,omitempty"`
	Date      string  `json:"date"`
	StartTime string  `json:"startTime"`
	EndTime   string  `json:"endTime"`
	Status    string  `json:"status"`
	RecordID  string  `json:"recordId,omitempty"`
}

type sheetResponse struct {
	From    string          `json:"from"`
	To      string          `json:"to"`
	Entries []sheetEntryDTO `json:"entries"`
}

type markAttendanceRequest struct {
	SlotID string `json:"slotId" validate:"required"`
	Date   string `json:"date" validate:"required,date"`
	Status string `json:"status" validate:"required,oneof=present absent cancelled"`
}

type historyQuery struct {
	Date string `query:"date" validate:"omitempty,date"`
}

type sheetQuery struct {
	From string `query:"from" validate:"required,date"`
	To   string `query:"to" validate:"required,date"`
}

// Mark handles POST /v1/attendance. Marking the same slot and date twice
// overwrites the earlier status.
func (h *AttendanceHandler) Mark(c echo.Context) error {
	var req markAttendanceRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	date, _ := domain.ParseDate(req.Date)

	record, err := h.service.Mark(c.Request().Context(), application.MarkAttendanceParams{
		Principal: principalOf(c),
		SlotID:    req.SlotID,
		Date:      date,
		Status:    domain.AttendanceStatus(req.Status),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAttendanceRecordDTO(record))
}

// History handles GET /v1/attendance.
func (h *AttendanceHandler) History(c echo.Context) error {
	var query historyQuery
	if err := bindAndValidate(c, &query); err != nil {
		return err
	}

	var date *domain.Date
	if query.Date != "" {
		parsed, _ := domain.ParseDate(query.Date)
		date = &parsed
	}

	records, err := h.service.History(c.Request().Context(), principalOf(c), date)
	if err != nil {
		return err
	}
	out := make([]attendanceRecordDTO, 0, len(records))
	for _, record := range records {
		out = append(out, toAttendanceRecordDTO(record))
	}
	return c.JSON(http.StatusOK, out)
}

// Summary handles GET /v1/attendance/summary.
func (h *AttendanceHandler) Summary(c echo.Context) error {
	summaries, err := h.service.Summary(c.Request().Context(), principalOf(c))
	if err != nil {
		return err
	}
	out := make([]subjectSummaryDTO, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, subjectSummaryDTO{
			Subject:       s.SubjectTitle,
			Percentage:    s.Percentage,
			PresentWeight: s.PresentWeight,
			CountedWeight: s.CountedWeight,
			SlotIDs:       s.SlotIDs,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// Sheet handles GET /v1/attendance/sheet.
func (h *AttendanceHandler) Sheet(c echo.Context) error {
	var query sheetQuery
	if err := bindAndValidate(c, &query); err != nil {
		return err
	}
	from, _ := domain.ParseDate(query.From)
	to, _ := domain.ParseDate(query.To)

	sheet, err := h.service.Sheet(c.Request().Context(), principalOf(c), from, to)
	if err != nil {
		return err
	}

	resp := sheetResponse{
		From:    sheet.From.String(),
		To:      sheet.To.String(),
		Entries: make([]sheetEntryDTO, 0, len(sheet.Entries)),
	}
	for _, entry := range sheet.Entries {
		resp.Entries = append(resp.Entries, sheetEntryDTO{
			SlotID:    entry.SlotID,
			Title:     entry.Title,
			Location:  entry.Location,
			Date:      entry.Date.String(),
			StartTime: entry.Start.String(),
			EndTime:   entry.End.String(),
			Status:    entry.Status,
			RecordID:  entry.RecordID,
		})
	}
	return c.JSON(http.StatusOK, resp)
}
