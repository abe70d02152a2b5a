package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/campus-planner/internal/domain"
	"github.com/example/campus-planner/internal/persistence"
	"github.com/example/campus-planner/internal/scheduler"
)

// MaxTitleLength bounds slot and task titles.
const MaxTitleLength = 200

// ScheduleService manages an owner's recurring weekly slots.
type ScheduleService struct {
	slots       persistence.SlotRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewScheduleService wires dependencies for schedule operations.
func NewScheduleService(slots persistence.SlotRepository, idGenerator func() string, now func() time.Time) *ScheduleService {
	return NewScheduleServiceWithLogger(slots, idGenerator, now, nil)
}

// NewScheduleServiceWithLogger wires dependencies and a base logger.
func NewScheduleServiceWithLogger(slots persistence.SlotRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ScheduleService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ScheduleService{
		slots:       slots,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *ScheduleService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ScheduleService", operation, attrs...)
}

// ListSlots returns the principal's slots Monday first, then by start time.
func (s *ScheduleService) ListSlots(ctx context.Context, params ListSlotsParams) ([]domain.Slot, error) {
	if s == nil {
		return nil, fmt.Errorf("ScheduleService is nil")
	}
	slots, err := s.slots.ListSlots(ctx, persistence.SlotFilter{
		OwnerID: params.Principal.OwnerID,
		Weekday: params.Weekday,
		Kind:    params.Kind,
	})
	if err != nil {
		return nil, mapRepoError(err)
	}
	return slots, nil
}

// GetSlot returns a slot owned by the principal.
func (s *ScheduleService) GetSlot(ctx context.Context, principal Principal, slotID string) (domain.Slot, error) {
	if s == nil {
		return domain.Slot{}, fmt.Errorf("ScheduleService is nil")
	}
	return s.ownedSlot(ctx, principal, slotID)
}

// CreateSlot validates and stores a new slot, returning overlap warnings.
func (s *ScheduleService) CreateSlot(ctx context.Context, principal Principal, input SlotInput) (result SlotResult, err error) {
	if s == nil {
		return SlotResult{}, fmt.Errorf("ScheduleService is nil")
	}
	logger := s.loggerWith(ctx, "CreateSlot", "owner_id", principal.OwnerID)
	defer func() {
		logOutcome(ctx, logger, err, "slot creation", "slot_id", result.Slot.ID, "warnings", len(result.Warnings))
	}()

	input = normalizeSlotInput(input)
	if vErr := validateSlotInput(input); vErr.HasErrors() {
		return SlotResult{}, vErr
	}

	now := s.now()
	slot := applySlotInput(domain.Slot{
		ID:        s.idGenerator(),
		OwnerID:   principal.OwnerID,
		CreatedAt: now,
	}, input)
	slot.UpdatedAt = now

	warnings, err := s.overlaps(ctx, slot)
	if err != nil {
		return SlotResult{}, err
	}
	if err = s.slots.CreateSlot(ctx, slot); err != nil {
		return SlotResult{}, mapRepoError(err)
	}
	return SlotResult{Slot: slot, Warnings: warnings}, nil
}

// UpdateSlot replaces the fields of a slot owned by the principal.
func (s *ScheduleService) UpdateSlot(ctx context.Context, principal Principal, slotID string, input SlotInput) (result SlotResult, err error) {
	if s == nil {
		return SlotResult{}, fmt.Errorf("ScheduleService is nil")
	}
	logger := s.loggerWith(ctx, "UpdateSlot", "owner_id", principal.OwnerID, "slot_id", slotID)
	defer func() {
		logOutcome(ctx, logger, err, "slot update", "warnings", len(result.Warnings))
	}()

	existing, err := s.ownedSlot(ctx, principal, slotID)
	if err != nil {
		return SlotResult{}, err
	}

	input = normalizeSlotInput(input)
	if vErr := validateSlotInput(input); vErr.HasErrors() {
		return SlotResult{}, vErr
	}

	slot := applySlotInput(existing, input)
	slot.UpdatedAt = s.now()

	warnings, err := s.overlaps(ctx, slot)
	if err != nil {
		return SlotResult{}, err
	}
	if err = s.slots.UpdateSlot(ctx, slot); err != nil {
		return SlotResult{}, mapRepoError(err)
	}
	return SlotResult{Slot: slot, Warnings: warnings}, nil
}

// DeleteSlot removes a slot owned by the principal. Attendance history and
// generated tasks referencing it are kept.
func (s *ScheduleService) DeleteSlot(ctx context.Context, principal Principal, slotID string) (err error) {
	if s == nil {
		return fmt.Errorf("ScheduleService is nil")
	}
	logger := s.loggerWith(ctx, "DeleteSlot", "owner_id", principal.OwnerID, "slot_id", slotID)
	defer func() { logOutcome(ctx, logger, err, "slot deletion") }()

	if _, err = s.ownedSlot(ctx, principal, slotID); err != nil {
		return err
	}
	return mapRepoError(s.slots.DeleteSlot(ctx, slotID))
}

// ImportSlots creates every valid, non duplicate item of a batch. Failures
// are reported per item and never abort the batch.
func (s *ScheduleService) ImportSlots(ctx context.Context, principal Principal, inputs []SlotInput) (result ImportResult, err error) {
	if s == nil {
		return ImportResult{}, fmt.Errorf("ScheduleService is nil")
	}
	logger := s.loggerWith(ctx, "ImportSlots", "owner_id", principal.OwnerID, "items", len(inputs))
	defer func() {
		logOutcome(ctx, logger, err, "slot import",
			"created", result.Created, "invalid", result.Invalid, "conflicts", result.Conflicts)
	}()

	existing, err := s.slots.ListSlots(ctx, persistence.SlotFilter{OwnerID: principal.OwnerID})
	if err != nil {
		return ImportResult{}, mapRepoError(err)
	}
	seen := make(map[slotIdentity]string, len(existing)+len(inputs))
	for _, slot := range existing {
		seen[identityOf(slot)] = slot.ID
	}

	result.Items = make([]ImportItemResult, 0, len(inputs))
	for index, input := range inputs {
		item := ImportItemResult{Index: index}

		input = normalizeSlotInput(input)
		if vErr := validateSlotInput(input); vErr.HasErrors() {
			item.Outcome = ImportInvalid
			item.FieldErrors = vErr.FieldErrors
			result.Invalid++
			result.Items = append(result.Items, item)
			continue
		}

		now := s.now()
		slot := applySlotInput(domain.Slot{ID: s.idGenerator(), OwnerID: principal.OwnerID, CreatedAt: now}, input)
		slot.UpdatedAt = now

		key := identityOf(slot)
		if conflictID, ok := seen[key]; ok {
			item.Outcome = ImportConflict
			item.ConflictWith = conflictID
			result.Conflicts++
			result.Items = append(result.Items, item)
			continue
		}

		if createErr := s.slots.CreateSlot(ctx, slot); createErr != nil {
			mapped := mapRepoError(createErr)
			var vErr *ValidationError
			switch {
			case errors.Is(mapped, ErrConflict):
				item.Outcome = ImportConflict
				result.Conflicts++
			case errors.As(mapped, &vErr):
				item.Outcome = ImportInvalid
				item.FieldErrors = vErr.FieldErrors
				result.Invalid++
			default:
				// Storage failures are fatal for the remaining items.
				return result, mapped
			}
			result.Items = append(result.Items, item)
			continue
		}

		seen[key] = slot.ID
		created := slot
		item.Outcome = ImportCreated
		item.Slot = &created
		result.Created++
		result.Items = append(result.Items, item)
	}
	return result, nil
}

func (s *ScheduleService) ownedSlot(ctx context.Context, principal Principal, slotID string) (domain.Slot, error) {
	slot, err := s.slots.GetSlot(ctx, slotID)
	if err != nil {
		return domain.Slot{}, mapRepoError(err)
	}
	if slot.OwnerID != principal.OwnerID {
		return domain.Slot{}, ErrNotFound
	}
	return slot, nil
}

func (s *ScheduleService) overlaps(ctx context.Context, candidate domain.Slot) ([]OverlapWarning, error) {
	weekday := candidate.Weekday
	sameDay, err := s.slots.ListSlots(ctx, persistence.SlotFilter{OwnerID: candidate.OwnerID, Weekday: &weekday})
	if err != nil {
		return nil, mapRepoError(err)
	}

	windows := make([]scheduler.Window, 0, len(sameDay))
	for _, slot := range sameDay {
		windows = append(windows, scheduler.WindowOf(slot))
	}
	return toOverlapWarnings(scheduler.DetectConflicts(windows, scheduler.WindowOf(candidate))), nil
}

func toOverlapWarnings(conflicts []scheduler.Conflict) []OverlapWarning {
	if len(conflicts) == 0 {
		return nil
	}
	warnings := make([]OverlapWarning, 0, len(conflicts))
	for _, conflict := range conflicts {
		warnings = append(warnings, OverlapWarning{
			SlotID:  conflict.WithSlotID,
			Title:   conflict.Title,
			Weekday: conflict.Weekday,
			Start:   conflict.Start,
			End:     conflict.End,
		})
	}
	return warnings
}

// slotIdentity is what makes two slots duplicates during an import.
type slotIdentity struct {
	weekday domain.Weekday
	start   domain.TimeOfDay
	end     domain.TimeOfDay
	title   string
	kind    domain.SlotKind
}

func identityOf(slot domain.Slot) slotIdentity {
	return slotIdentity{
		weekday: slot.Weekday,
		start:   slot.Start,
		end:     slot.End,
		title:   slot.Title,
		kind:    slot.Kind,
	}
}

func normalizeSlotInput(input SlotInput) SlotInput {
	input.Title = strings.TrimSpace(input.Title)
	if input.Location != nil {
		location := strings.TrimSpace(*input.Location)
		if location == "" {
			input.Location = nil
		} else {
			input.Location = &location
		}
	}
	if input.Kind == "" {
		input.Kind = domain.SlotKindAcademic
	}
	if input.AcademicKind == "" {
		input.AcademicKind = domain.AcademicKindLecture
	}
	if input.AttendanceWeight == 0 {
		input.AttendanceWeight = 1
	}
	return input
}

func validateSlotInput(input SlotInput) *ValidationError {
	vErr := &ValidationError{}

	if !input.Weekday.Valid() {
		vErr.add("weekday", "weekday must be one of Monday..Sunday")
	}
	if !input.Start.Valid() {
		vErr.add("startTime", "start time must be HH:MM")
	}
	if !input.End.Valid() {
		vErr.add("endTime", "end time must be HH:MM")
	}
	if input.Start.Valid() && input.End.Valid() && input.End <= input.Start {
		vErr.add("endTime", "end time must be after start time")
	}
	if input.Title == "" {
		vErr.add("title", "title is required")
	} else if len(input.Title) > MaxTitleLength {
		vErr.add("title", fmt.Sprintf("title must be at most %d characters", MaxTitleLength))
	}
	if !input.Kind.Valid() {
		vErr.add("type", "type must be academic or personal")
	}
	if !input.AcademicKind.Valid() {
		vErr.add("academicType", "academic type must be lecture or lab")
	}
	if input.AttendanceWeight < 1 {
		vErr.add("attendanceWeight", "attendance weight must be a positive integer")
	}

	return vErr
}

func applySlotInput(slot domain.Slot, input SlotInput) domain.Slot {
	slot.Weekday = input.Weekday
	slot.Start = input.Start
	slot.End = input.End
	slot.Title = input.Title
	slot.Location = input.Location
	slot.Kind = input.Kind
	slot.AcademicKind = input.AcademicKind
	slot.AttendanceWeight = input.AttendanceWeight
	return slot
}
