package persistence

import (
	"context"

	"github.com/example/campus-planner/internal/domain"
)

// OwnerRepository stores accounts.
type OwnerRepository interface {
	CreateOwner(ctx context.Context, owner domain.Owner) error
	UpdateOwner(ctx context.Context, owner domain.Owner) error
	GetOwner(ctx context.Context, id string) (domain.Owner, error)
	GetOwnerByEmail(ctx context.Context, email string) (domain.Owner, error)
}

// SlotRepository stores recurring weekly schedule slots.
type SlotRepository interface {
	CreateSlot(ctx context.Context, slot domain.Slot) error
	UpdateSlot(ctx context.Context, slot domain.Slot) error
	GetSlot(ctx context.Context, id string) (domain.Slot, error)
	ListSlots(ctx context.Context, filter SlotFilter) ([]domain.Slot, error)
	DeleteSlot(ctx context.Context, id string) error
}

// AttendanceRepository stores one record per (slot, date).
type AttendanceRepository interface {
	// UpsertAttendance inserts the record or overwrites the status of the
	// existing record for the same slot and date, returning the stored row.
	UpsertAttendance(ctx context.Context, record domain.AttendanceRecord) (domain.AttendanceRecord, error)
	ListAttendance(ctx context.Context, filter AttendanceFilter) ([]domain.AttendanceRecord, error)
}

// TaskRepository stores daily tasks. Generated tasks are unique per (owner, origin slot, date).
type TaskRepository interface {
	CreateTask(ctx context.Context, task domain.Task) error
	UpdateTask(ctx context.Context, task domain.Task) error
	GetTask(ctx context.Context, id string) (domain.Task, error)
	ListTasks(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// FocusSessionRepository appends focus timer sessions.
type FocusSessionRepository interface {
	CreateFocusSession(ctx context.Context, session domain.FocusSession) error
	ListFocusSessions(ctx context.Context, filter FocusSessionFilter) ([]domain.FocusSession, error)
}

// Store bundles every repository a single backend provides.
type Store interface {
	OwnerRepository
	SlotRepository
	AttendanceRepository
	TaskRepository
	FocusSessionRepository
	Close() error
}
