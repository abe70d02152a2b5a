package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/campus-planner/internal/domain"
	"github.com/example/campus-planner/internal/persistence/memory"
)

type attendanceFixture struct {
	svc       *AttendanceService
	schedule  *ScheduleService
	store     *memory.Store
	principal Principal
}

func newAttendanceFixture(t *testing.T) *attendanceFixture {
	t.Helper()
	store := memory.New()
	seedOwner(t, store, "owner-1")
	seedOwner(t, store, "owner-2")
	return &attendanceFixture{
		svc:       NewAttendanceService(store, store, time.UTC, newSequence("att").next, fixedNow, testLogger),
		schedule:  NewScheduleServiceWithLogger(store, newSequence("slot").next, fixedNow, testLogger),
		store:     store,
		principal: Principal{OwnerID: "owner-1"},
	}
}

func (f *attendanceFixture) slot(t *testing.T, input SlotInput) domain.Slot {
	t.Helper()
	result, err := f.schedule.CreateSlot(context.Background(), f.principal, input)
	if err != nil {
		t.Fatalf("CreateSlot failed: %v", err)
	}
	return result.Slot
}

func TestAttendanceService_Mark(t *testing.T) {
	t.Parallel()

	f := newAttendanceFixture(t)
	ctx := context.Background()
	physics := f.slot(t, slotInput(domain.Monday, "09:00", "10:00", "Physics"))
	day := mustDate(t, "2024-09-02")

	first, err := f.svc.Mark(ctx, MarkAttendanceParams{Principal: f.principal, SlotID: physics.ID, Date: day, Status: domain.AttendancePresent})
	if err != nil {
		t.Fatalf("Mark failed: %v", err)
	}
	second, err := f.svc.Mark(ctx, MarkAttendanceParams{Principal: f.principal, SlotID: physics.ID, Date: day, Status: domain.AttendanceAbsent})
	if err != nil {
		t.Fatalf("Mark failed: %v", err)
	}
	if second.ID != first.ID || second.Status != domain.AttendanceAbsent {
		t.Fatalf("expected upsert to overwrite the status in place, got %#v", second)
	}

	third, err := f.svc.Mark(ctx, MarkAttendanceParams{Principal: f.principal, SlotID: physics.ID, Date: day, Status: domain.AttendancePresent})
	if err != nil {
		t.Fatalf("Mark failed: %v", err)
	}
	if third.ID != first.ID {
		t.Fatalf("expected the same record after three marks, got %q and %q", first.ID, third.ID)
	}

	history, err := f.svc.History(ctx, f.principal, nil)
	if err != nil || len(history) != 1 {
		t.Fatalf("expected a single record, got %d (%v)", len(history), err)
	}
	if history[0].Status != domain.AttendancePresent {
		t.Fatalf("expected the final status to be present, got %q", history[0].Status)
	}

	if _, err := f.svc.Mark(ctx, MarkAttendanceParams{Principal: Principal{OwnerID: "owner-2"}, SlotID: physics.ID, Date: day, Status: domain.AttendancePresent}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a foreign slot, got %v", err)
	}
	if _, err := f.svc.Mark(ctx, MarkAttendanceParams{Principal: f.principal, SlotID: "missing", Date: day, Status: domain.AttendancePresent}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a missing slot, got %v", err)
	}

	_, err = f.svc.Mark(ctx, MarkAttendanceParams{Principal: f.principal, SlotID: physics.ID, Date: day, Status: "late"})
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.FieldErrors["status"] == "" {
		t.Fatalf("expected status validation error, got %v", err)
	}
}

func TestAttendanceService_HistoryAndSummary(t *testing.T) {
	t.Parallel()

	f := newAttendanceFixture(t)
	ctx := context.Background()

	lecture := f.slot(t, slotInput(domain.Monday, "09:00", "10:00", "Physics"))
	labInput := slotInput(domain.Wednesday, "13:00", "16:00", "Physics")
	labInput.AcademicKind = domain.AcademicKindLab
	labInput.AttendanceWeight = 3
	lab := f.slot(t, labInput)
	gymInput := slotInput(domain.Monday, "18:00", "19:00", "Gym")
	gymInput.Kind = domain.SlotKindPersonal
	gym := f.slot(t, gymInput)

	marks := []struct {
		slot   domain.Slot
		date   string
		status domain.AttendanceStatus
	}{
		{lecture, "2024-09-09", domain.AttendancePresent},
		{lecture, "2024-09-02", domain.AttendanceAbsent},
		{lab, "2024-09-04", domain.AttendancePresent},
		{lecture, "2024-09-16", domain.AttendanceCancelled},
		{gym, "2024-09-02", domain.AttendancePresent},
	}
	for _, m := range marks {
		if _, err := f.svc.Mark(ctx, MarkAttendanceParams{Principal: f.principal, SlotID: m.slot.ID, Date: mustDate(t, m.date), Status: m.status}); err != nil {
			t.Fatalf("Mark failed: %v", err)
		}
	}

	history, err := f.svc.History(ctx, f.principal, nil)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 5 || history[0].Date.String() != "2024-09-02" || history[4].Date.String() != "2024-09-16" {
		t.Fatalf("expected history ordered by date, got %#v", history)
	}

	day := mustDate(t, "2024-09-02")
	daily, err := f.svc.History(ctx, f.principal, &day)
	if err != nil || len(daily) != 2 {
		t.Fatalf("expected two records on 2024-09-02, got %d (%v)", len(daily), err)
	}

	summary, err := f.svc.Summary(ctx, f.principal)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if len(summary) != 1 {
		t.Fatalf("expected one academic subject, got %#v", summary)
	}
	// present 1 + 3, counted 1 + 1 + 3: 80%.
	if summary[0].SubjectTitle != "Physics" || summary[0].PresentWeight != 4 || summary[0].CountedWeight != 5 || summary[0].Percentage != 80 {
		t.Fatalf("unexpected summary: %#v", summary[0])
	}
}

func TestAttendanceService_Sheet(t *testing.T) {
	t.Parallel()

	f := newAttendanceFixture(t)
	ctx := context.Background()

	physics := f.slot(t, slotInput(domain.Monday, "09:00", "10:00", "Physics"))
	chem := f.slot(t, slotInput(domain.Wednesday, "13:00", "14:00", "Chemistry"))
	gymInput := slotInput(domain.Monday, "07:00", "08:00", "Gym")
	gymInput.Kind = domain.SlotKindPersonal
	f.slot(t, gymInput)

	if _, err := f.svc.Mark(ctx, MarkAttendanceParams{Principal: f.principal, SlotID: physics.ID, Date: mustDate(t, "2024-09-02"), Status: domain.AttendancePresent}); err != nil {
		t.Fatalf("Mark failed: %v", err)
	}

	sheet, err := f.svc.Sheet(ctx, f.principal, mustDate(t, "2024-09-02"), mustDate(t, "2024-09-09"))
	if err != nil {
		t.Fatalf("Sheet failed: %v", err)
	}
	if len(sheet.Entries) != 3 {
		t.Fatalf("expected three academic occurrences, got %#v", sheet.Entries)
	}
	expect := []struct {
		slotID string
		date   string
		status string
	}{
		{physics.ID, "2024-09-02", string(domain.AttendancePresent)},
		{chem.ID, "2024-09-04", SheetStatusPending},
		{physics.ID, "2024-09-09", SheetStatusPending},
	}
	for i, e := range expect {
		got := sheet.Entries[i]
		if got.SlotID != e.slotID || got.Date.String() != e.date || got.Status != e.status {
			t.Fatalf("entry %d: expected %+v, got %+v", i, e, got)
		}
	}

	_, err = f.svc.Sheet(ctx, f.principal, mustDate(t, "2024-09-01"), mustDate(t, "2024-10-15"))
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected oversized range to be a validation error, got %v", err)
	}
	_, err = f.svc.Sheet(ctx, f.principal, mustDate(t, "2024-09-09"), mustDate(t, "2024-09-02"))
	if !errors.As(err, &vErr) {
		t.Fatalf("expected inverted range to be a validation error, got %v", err)
	}
}
