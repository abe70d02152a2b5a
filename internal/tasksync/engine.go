// Package tasksync reconciles an owner's personal schedule for one day with
// the generated entries of their daily task list.
package tasksync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/campus-planner/internal/domain"
	"github.com/example/campus-planner/internal/persistence"
)

// Result counts the tasks a sync pass created and deleted.
type Result struct {
	Created int
	Deleted int
}

// Engine materializes personal slots into daily tasks.
type Engine struct {
	owners      persistence.OwnerRepository
	slots       persistence.SlotRepository
	tasks       persistence.TaskRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewEngine wires the repositories used by Sync.
func NewEngine(owners persistence.OwnerRepository, slots persistence.SlotRepository, tasks persistence.TaskRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *Engine {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		owners:      owners,
		slots:       slots,
		tasks:       tasks,
		idGenerator: idGenerator,
		now:         now,
		logger:      logger,
	}
}

// Sync creates one task per personal slot on weekday that has no task for
// date yet, then deletes generated tasks for date whose slot is no longer a
// personal slot on weekday. It is safe to repeat: a second run with unchanged
// inputs returns a zero Result.
//
// Sync is best effort. A failure part way leaves earlier writes in place and
// the next run completes the work. A missing owner yields persistence.ErrNotFound.
func (e *Engine) Sync(ctx context.Context, ownerID string, date domain.Date, weekday domain.Weekday) (Result, error) {
	if e == nil {
		return Result{}, fmt.Errorf("tasksync engine is nil")
	}
	if !weekday.Valid() {
		return Result{}, domain.ErrInvalidWeekday
	}
	if _, err := e.owners.GetOwner(ctx, ownerID); err != nil {
		return Result{}, err
	}

	personal := domain.SlotKindPersonal
	slots, err := e.slots.ListSlots(ctx, persistence.SlotFilter{OwnerID: ownerID, Weekday: &weekday, Kind: &personal})
	if err != nil {
		return Result{}, err
	}

	existing, err := e.tasks.ListTasks(ctx, persistence.TaskFilter{OwnerID: ownerID, Date: &date, OnlyGenerated: true})
	if err != nil {
		return Result{}, err
	}
	covered := make(map[string]struct{}, len(existing))
	for _, task := range existing {
		covered[*task.OriginSlotID] = struct{}{}
	}

	var result Result
	wanted := make(map[string]struct{}, len(slots))
	for _, slot := range slots {
		wanted[slot.ID] = struct{}{}
		if _, ok := covered[slot.ID]; ok {
			continue
		}

		created, err := e.create(ctx, ownerID, date, slot)
		if err != nil {
			return result, err
		}
		if created {
			result.Created++
		}
	}

	for _, task := range existing {
		if _, ok := wanted[*task.OriginSlotID]; ok {
			continue
		}
		if err := e.tasks.DeleteTask(ctx, task.ID); err != nil {
			if errors.Is(err, persistence.ErrNotFound) {
				continue
			}
			return result, err
		}
		result.Deleted++
	}

	e.logger.DebugContext(ctx, "task sync completed",
		"owner_id", ownerID,
		"date", date.String(),
		"weekday", string(weekday),
		"created", result.Created,
		"deleted", result.Deleted,
	)
	return result, nil
}

// create reports false when a concurrent run already inserted the task.
func (e *Engine) create(ctx context.Context, ownerID string, date domain.Date, slot domain.Slot) (bool, error) {
	now := e.now()
	origin := slot.ID
	description := Describe(slot)
	task := domain.Task{
		ID:           e.idGenerator(),
		OwnerID:      ownerID,
		Title:        slot.Title,
		Description:  &description,
		Date:         date,
		Status:       domain.TaskTodo,
		Priority:     domain.PriorityMedium,
		OriginSlotID: &origin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := e.tasks.CreateTask(ctx, task); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Describe renders the slot window as "HH:MM - HH:MM", followed by
// " @ location" when the slot has one.
func Describe(slot domain.Slot) string {
	text := slot.Start.String() + " - " + slot.End.String()
	if slot.Location != nil && *slot.Location != "" {
		text += " @ " + *slot.Location
	}
	return text
}
