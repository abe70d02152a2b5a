package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/campus-planner/internal/attendance"
	"github.com/example/campus-planner/internal/domain"
	"github.com/example/campus-planner/internal/persistence"
	"github.com/example/campus-planner/internal/recurrence"
)

// AttendanceService records attendance marks and summarizes them per subject.
type AttendanceService struct {
	slots       persistence.SlotRepository
	records     persistence.AttendanceRepository
	expander    *recurrence.Engine
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewAttendanceService wires dependencies for attendance operations. loc is
// the location in which attendance sheet occurrences are placed.
func NewAttendanceService(slots persistence.SlotRepository, records persistence.AttendanceRepository, loc *time.Location, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AttendanceService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &AttendanceService{
		slots:       slots,
		records:     records,
		expander:    recurrence.NewEngine(loc),
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *AttendanceService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AttendanceService", operation, attrs...)
}

// Mark upserts the status of a slot on a date. The last write wins. A slot
// that does not exist or belongs to another owner yields ErrNotFound.
func (s *AttendanceService) Mark(ctx context.Context, params MarkAttendanceParams) (record domain.AttendanceRecord, err error) {
	if s == nil {
		return domain.AttendanceRecord{}, fmt.Errorf("AttendanceService is nil")
	}
	logger := s.loggerWith(ctx, "Mark",
		"owner_id", params.Principal.OwnerID,
		"slot_id", params.SlotID,
		"date", params.Date.String(),
	)
	defer func() { logOutcome(ctx, logger, err, "attendance mark", "status", string(record.Status)) }()

	vErr := &ValidationError{}
	if params.SlotID == "" {
		vErr.add("slotId", "slot id is required")
	}
	if params.Date.IsZero() {
		vErr.add("date", "date is required")
	}
	if !params.Status.Valid() {
		vErr.add("status", "status must be present, absent or cancelled")
	}
	if vErr.HasErrors() {
		return domain.AttendanceRecord{}, vErr
	}

	slot, err := s.slots.GetSlot(ctx, params.SlotID)
	if err != nil {
		return domain.AttendanceRecord{}, mapRepoError(err)
	}
	if slot.OwnerID != params.Principal.OwnerID {
		return domain.AttendanceRecord{}, ErrNotFound
	}

	now := s.now()
	record, err = s.records.UpsertAttendance(ctx, domain.AttendanceRecord{
		ID:        s.idGenerator(),
		OwnerID:   params.Principal.OwnerID,
		SlotID:    slot.ID,
		Date:      params.Date,
		Status:    params.Status,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return domain.AttendanceRecord{}, mapRepoError(err)
	}
	return record, nil
}

// History returns the principal's records ordered by date, then slot id.
// A nil date returns every record.
func (s *AttendanceService) History(ctx context.Context, principal Principal, date *domain.Date) ([]domain.AttendanceRecord, error) {
	if s == nil {
		return nil, fmt.Errorf("AttendanceService is nil")
	}
	records, err := s.records.ListAttendance(ctx, persistence.AttendanceFilter{OwnerID: principal.OwnerID, Date: date})
	if err != nil {
		return nil, mapRepoError(err)
	}
	return records, nil
}

// Summary aggregates the principal's whole history per subject title.
func (s *AttendanceService) Summary(ctx context.Context, principal Principal) ([]attendance.SubjectSummary, error) {
	if s == nil {
		return nil, fmt.Errorf("AttendanceService is nil")
	}
	slots, err := s.slots.ListSlots(ctx, persistence.SlotFilter{OwnerID: principal.OwnerID})
	if err != nil {
		return nil, mapRepoError(err)
	}
	history, err := s.records.ListAttendance(ctx, persistence.AttendanceFilter{OwnerID: principal.OwnerID})
	if err != nil {
		return nil, mapRepoError(err)
	}
	return attendance.Aggregate(slots, history), nil
}

// Sheet expands the principal's academic slots over [from, to] and pairs each
// occurrence with its recorded status, or SheetStatusPending.
func (s *AttendanceService) Sheet(ctx context.Context, principal Principal, from, to domain.Date) (AttendanceSheet, error) {
	if s == nil {
		return AttendanceSheet{}, fmt.Errorf("AttendanceService is nil")
	}

	academic := domain.SlotKindAcademic
	slots, err := s.slots.ListSlots(ctx, persistence.SlotFilter{OwnerID: principal.OwnerID, Kind: &academic})
	if err != nil {
		return AttendanceSheet{}, mapRepoError(err)
	}

	occurrences, err := s.expander.Expand(slots, from, to)
	if err != nil {
		switch {
		case errors.Is(err, recurrence.ErrInvalidWindow):
			return AttendanceSheet{}, newValidationError("to", "to must not precede from")
		case errors.Is(err, recurrence.ErrWindowTooLarge):
			return AttendanceSheet{}, newValidationError("to", fmt.Sprintf("range must not exceed %d days", recurrence.MaxWindowDays))
		}
		return AttendanceSheet{}, err
	}

	records, err := s.records.ListAttendance(ctx, persistence.AttendanceFilter{OwnerID: principal.OwnerID, From: &from, To: &to})
	if err != nil {
		return AttendanceSheet{}, mapRepoError(err)
	}
	type key struct {
		slotID string
		date   domain.Date
	}
	marked := make(map[key]domain.AttendanceRecord, len(records))
	for _, record := range records {
		marked[key{slotID: record.SlotID, date: record.Date}] = record
	}

	bySlot := make(map[string]domain.Slot, len(slots))
	for _, slot := range slots {
		bySlot[slot.ID] = slot
	}

	sheet := AttendanceSheet{From: from, To: to, Entries: make([]SheetEntry, 0, len(occurrences))}
	for _, occ := range occurrences {
		slot := bySlot[occ.SlotID]
		entry := SheetEntry{
			SlotID:   slot.ID,
			Title:    slot.Title,
			Location: slot.Location,
			Date:     occ.Date,
			Start:    slot.Start,
			End:      slot.End,
			Status:   SheetStatusPending,
		}
		if record, ok := marked[key{slotID: slot.ID, date: occ.Date}]; ok {
			entry.Status = string(record.Status)
			entry.RecordID = record.ID
		}
		sheet.Entries = append(sheet.Entries, entry)
	}
	return sheet, nil
}
