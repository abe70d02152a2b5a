package testfixtures

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/campus-planner/internal/domain"
	"github.com/example/campus-planner/internal/persistence"
)

var (
	ownerCounter uint64
	slotCounter  uint64
	taskCounter  uint64
)

// 2024-09-02 is a Monday.
var referenceTime = time.Date(2024, time.September, 2, 8, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ReferenceDate is the calendar date of ReferenceTime.
func ReferenceDate() domain.Date {
	return domain.DateOf(referenceTime)
}

// ----------------------------- Owner fixtures -----------------------------

// OwnerOption configures a generated owner.
type OwnerOption func(*domain.Owner)

// NewOwner returns a deterministic owner with optional overrides.
func NewOwner(opts ...OwnerOption) domain.Owner {
	idx := atomic.AddUint64(&ownerCounter, 1)
	id := fmt.Sprintf("owner-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	owner := domain.Owner{
		ID:                    id,
		Email:                 id + "@example.com",
		DisplayName:           fmt.Sprintf("Student %03d", idx),
		PasswordHash:          fmt.Sprintf("hash-%03d", idx),
		DailyFocusGoalMinutes: 120,
		CreatedAt:             created,
		UpdatedAt:             created,
	}
	for _, opt := range opts {
		opt(&owner)
	}
	return owner
}

// WithOwnerID overrides the generated owner id.
func WithOwnerID(id string) OwnerOption {
	return func(o *domain.Owner) { o.ID = id }
}

// WithOwnerEmail overrides the generated email.
func WithOwnerEmail(email string) OwnerOption {
	return func(o *domain.Owner) { o.Email = email }
}

// WithPasswordHash sets the stored password hash.
func WithPasswordHash(hash string) OwnerOption {
	return func(o *domain.Owner) { o.PasswordHash = hash }
}

// WithDailyGoal sets the daily focus goal.
func WithDailyGoal(minutes int) OwnerOption {
	return func(o *domain.Owner) { o.DailyFocusGoalMinutes = minutes }
}

// ----------------------------- Slot fixtures -----------------------------

// SlotOption configures a generated slot.
type SlotOption func(*domain.Slot)

// NewSlot returns a Monday 09:00-10:00 academic lecture owned by ownerID.
func NewSlot(ownerID string, opts ...SlotOption) domain.Slot {
	idx := atomic.AddUint64(&slotCounter, 1)
	id := fmt.Sprintf("slot-%03d", idx)
	slot := domain.Slot{
		ID:               id,
		OwnerID:          ownerID,
		Weekday:          domain.Monday,
		Start:            domain.MustTimeOfDay("09:00"),
		End:              domain.MustTimeOfDay("10:00"),
		Title:            fmt.Sprintf("Lecture %03d", idx),
		Kind:             domain.SlotKindAcademic,
		AcademicKind:     domain.AcademicKindLecture,
		AttendanceWeight: 1,
		CreatedAt:        referenceTime,
		UpdatedAt:        referenceTime,
	}
	for _, opt := range opts {
		opt(&slot)
	}
	return slot
}

// WithSlotID overrides the generated slot id.
func WithSlotID(id string) SlotOption {
	return func(s *domain.Slot) { s.ID = id }
}

// WithTitle sets the slot title.
func WithTitle(title string) SlotOption {
	return func(s *domain.Slot) { s.Title = title }
}

// OnWeekday moves the slot to day.
func OnWeekday(day domain.Weekday) SlotOption {
	return func(s *domain.Slot) { s.Weekday = day }
}

// Between sets the slot window from "HH:MM" values.
func Between(start, end string) SlotOption {
	return func(s *domain.Slot) {
		s.Start = domain.MustTimeOfDay(start)
		s.End = domain.MustTimeOfDay(end)
	}
}

// At sets the slot location.
func At(location string) SlotOption {
	return func(s *domain.Slot) { s.Location = &location }
}

// Personal turns the slot into a personal commitment.
func Personal() SlotOption {
	return func(s *domain.Slot) { s.Kind = domain.SlotKindPersonal }
}

// Lab marks the slot as a lab with the given attendance weight.
func Lab(weight int) SlotOption {
	return func(s *domain.Slot) {
		s.AcademicKind = domain.AcademicKindLab
		s.AttendanceWeight = weight
	}
}

// ----------------------------- Task fixtures -----------------------------

// TaskOption configures a generated task.
type TaskOption func(*domain.Task)

// NewTask returns a manual medium priority task for date.
func NewTask(ownerID string, date domain.Date, opts ...TaskOption) domain.Task {
	idx := atomic.AddUint64(&taskCounter, 1)
	task := domain.Task{
		ID:        fmt.Sprintf("task-%03d", idx),
		OwnerID:   ownerID,
		Title:     fmt.Sprintf("Task %03d", idx),
		Date:      date,
		Status:    domain.TaskTodo,
		Priority:  domain.PriorityMedium,
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&task)
	}
	return task
}

// GeneratedFrom marks the task as materialized from slotID.
func GeneratedFrom(slotID string) TaskOption {
	return func(t *domain.Task) { t.OriginSlotID = &slotID }
}

// WithTaskStatus sets the task status.
func WithTaskStatus(status domain.TaskStatus) TaskOption {
	return func(t *domain.Task) { t.Status = status }
}

// ----------------------------- Seeding -----------------------------

// Seed stores owner, then every slot and task, failing the test on error.
func Seed(tb testing.TB, store persistence.Store, owner domain.Owner, slots []domain.Slot, tasks []domain.Task) {
	tb.Helper()
	ctx := context.Background()
	if err := store.CreateOwner(ctx, owner); err != nil {
		tb.Fatalf("seed owner %s: %v", owner.ID, err)
	}
	for _, slot := range slots {
		if err := store.CreateSlot(ctx, slot); err != nil {
			tb.Fatalf("seed slot %s: %v", slot.ID, err)
		}
	}
	for _, task := range tasks {
		if err := store.CreateTask(ctx, task); err != nil {
			tb.Fatalf("seed task %s: %v", task.ID, err)
		}
	}
}
