package tasksync

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/campus-planner/internal/domain"
	"github.com/example/campus-planner/internal/persistence"
	"github.com/example/campus-planner/internal/persistence/memory"
)

var syncTime = time.Date(2024, 9, 2, 6, 0, 0, 0, time.UTC)

type fixture struct {
	store  *memory.Store
	engine *Engine
	date   domain.Date
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	require.NoError(t, store.CreateOwner(context.Background(), domain.Owner{
		ID: "owner-1", Email: "ada@example.com", DisplayName: "Ada", PasswordHash: "x",
		CreatedAt: syncTime, UpdatedAt: syncTime,
	}))

	counter := 0
	ids := func() string {
		counter++
		return fmt.Sprintf("task-%d", counter)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	date, err := domain.ParseDate("2024-09-02")
	require.NoError(t, err)

	return &fixture{
		store:  store,
		engine: NewEngine(store, store, store, ids, func() time.Time { return syncTime }, logger),
		date:   date,
	}
}

func (f *fixture) addSlot(t *testing.T, id string, day domain.Weekday, start, end string, kind domain.SlotKind, location *string) {
	t.Helper()
	require.NoError(t, f.store.CreateSlot(context.Background(), domain.Slot{
		ID: id, OwnerID: "owner-1", Weekday: day,
		Start: domain.MustTimeOfDay(start), End: domain.MustTimeOfDay(end),
		Title: "Slot " + id, Location: location, Kind: kind,
		CreatedAt: syncTime, UpdatedAt: syncTime,
	}))
}

func (f *fixture) tasks(t *testing.T) []domain.Task {
	t.Helper()
	tasks, err := f.store.ListTasks(context.Background(), persistence.TaskFilter{OwnerID: "owner-1", Date: &f.date})
	require.NoError(t, err)
	return tasks
}

func TestEngine_SyncCreatesTasksForPersonalSlots(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	gym := "Campus gym"
	f.addSlot(t, "gym", domain.Monday, "07:00", "08:00", domain.SlotKindPersonal, &gym)
	f.addSlot(t, "reading", domain.Monday, "20:00", "21:30", domain.SlotKindPersonal, nil)
	f.addSlot(t, "physics", domain.Monday, "09:00", "10:00", domain.SlotKindAcademic, nil)
	f.addSlot(t, "swim", domain.Tuesday, "07:00", "08:00", domain.SlotKindPersonal, nil)

	result, err := f.engine.Sync(context.Background(), "owner-1", f.date, domain.Monday)
	require.NoError(t, err)
	assert.Equal(t, Result{Created: 2}, result)

	tasks := f.tasks(t)
	require.Len(t, tasks, 2)
	byOrigin := map[string]domain.Task{}
	for _, task := range tasks {
		byOrigin[*task.OriginSlotID] = task
	}
	assert.Equal(t, "Slot gym", byOrigin["gym"].Title)
	assert.Equal(t, "07:00 - 08:00 @ Campus gym", *byOrigin["gym"].Description)
	assert.Equal(t, "20:00 - 21:30", *byOrigin["reading"].Description)
	assert.Equal(t, domain.TaskTodo, byOrigin["gym"].Status)
	assert.Equal(t, domain.PriorityMedium, byOrigin["gym"].Priority)

	again, err := f.engine.Sync(context.Background(), "owner-1", f.date, domain.Monday)
	require.NoError(t, err)
	assert.Equal(t, Result{}, again)
	assert.Len(t, f.tasks(t), 2)
}

func TestEngine_SyncRemovesOrphansAndKeepsManualTasks(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.addSlot(t, "gym", domain.Monday, "07:00", "08:00", domain.SlotKindPersonal, nil)
	f.addSlot(t, "reading", domain.Monday, "20:00", "21:00", domain.SlotKindPersonal, nil)

	_, err := f.engine.Sync(ctx, "owner-1", f.date, domain.Monday)
	require.NoError(t, err)

	manual := domain.Task{
		ID: "manual", OwnerID: "owner-1", Title: "Buy groceries", Date: f.date,
		Status: domain.TaskTodo, Priority: domain.PriorityLow, CreatedAt: syncTime, UpdatedAt: syncTime,
	}
	require.NoError(t, f.store.CreateTask(ctx, manual))

	// A finished generated task keeps its status across syncs.
	for _, task := range f.tasks(t) {
		if task.Generated() && *task.OriginSlotID == "gym" {
			task.Status = domain.TaskDone
			task.Title = "Leg day"
			require.NoError(t, f.store.UpdateTask(ctx, task))
		}
	}

	require.NoError(t, f.store.DeleteSlot(ctx, "reading"))

	result, err := f.engine.Sync(ctx, "owner-1", f.date, domain.Monday)
	require.NoError(t, err)
	assert.Equal(t, Result{Deleted: 1}, result)

	tasks := f.tasks(t)
	require.Len(t, tasks, 2)
	titles := map[string]domain.TaskStatus{}
	for _, task := range tasks {
		titles[task.Title] = task.Status
	}
	assert.Equal(t, domain.TaskDone, titles["Leg day"])
	assert.Equal(t, domain.TaskTodo, titles["Buy groceries"])
}

func TestEngine_SyncWithAnotherWeekdayReplacesGeneratedTasks(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.addSlot(t, "gym", domain.Monday, "07:00", "08:00", domain.SlotKindPersonal, nil)
	f.addSlot(t, "swim", domain.Tuesday, "07:00", "08:00", domain.SlotKindPersonal, nil)

	_, err := f.engine.Sync(ctx, "owner-1", f.date, domain.Monday)
	require.NoError(t, err)

	// The caller's weekday is trusted even if it differs from the date.
	result, err := f.engine.Sync(ctx, "owner-1", f.date, domain.Tuesday)
	require.NoError(t, err)
	assert.Equal(t, Result{Created: 1, Deleted: 1}, result)

	tasks := f.tasks(t)
	require.Len(t, tasks, 1)
	assert.Equal(t, "swim", *tasks[0].OriginSlotID)
}

func TestEngine_SyncRecreatesDeletedGeneratedTask(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.addSlot(t, "gym", domain.Monday, "07:00", "08:00", domain.SlotKindPersonal, nil)

	_, err := f.engine.Sync(ctx, "owner-1", f.date, domain.Monday)
	require.NoError(t, err)
	require.NoError(t, f.store.DeleteTask(ctx, f.tasks(t)[0].ID))

	result, err := f.engine.Sync(ctx, "owner-1", f.date, domain.Monday)
	require.NoError(t, err)
	assert.Equal(t, Result{Created: 1}, result)
}

// racingTasks simulates another sync inserting the same task between the
// list and the insert.
type racingTasks struct {
	persistence.TaskRepository
	createCalls int
	deleteCalls int
}

func (r *racingTasks) CreateTask(ctx context.Context, task domain.Task) error {
	r.createCalls++
	return persistence.ErrDuplicate
}

func (r *racingTasks) DeleteTask(ctx context.Context, id string) error {
	r.deleteCalls++
	return persistence.ErrNotFound
}

func TestEngine_SyncToleratesConcurrentWriters(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.addSlot(t, "gym", domain.Monday, "07:00", "08:00", domain.SlotKindPersonal, nil)

	origin := "gone"
	require.NoError(t, f.store.CreateTask(ctx, domain.Task{
		ID: "stale", OwnerID: "owner-1", Title: "Old", Date: f.date, Status: domain.TaskTodo,
		Priority: domain.PriorityMedium, OriginSlotID: &origin, CreatedAt: syncTime, UpdatedAt: syncTime,
	}))

	racing := &racingTasks{TaskRepository: f.store}
	engine := NewEngine(f.store, f.store, racing, nil, nil, nil)

	result, err := engine.Sync(ctx, "owner-1", f.date, domain.Monday)
	require.NoError(t, err)
	assert.Equal(t, Result{}, result)
	assert.Equal(t, 1, racing.createCalls)
	assert.Equal(t, 1, racing.deleteCalls)
}

func TestEngine_SyncErrors(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, err := f.engine.Sync(context.Background(), "missing", f.date, domain.Monday)
	assert.ErrorIs(t, err, persistence.ErrNotFound)

	_, err = f.engine.Sync(context.Background(), "owner-1", f.date, domain.Weekday("Funday"))
	assert.ErrorIs(t, err, domain.ErrInvalidWeekday)
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	room := "Room 101"
	empty := ""
	tests := []struct {
		name     string
		location *string
		want     string
	}{
		{name: "without location", want: "09:05 - 10:00"},
		{name: "with location", location: &room, want: "09:05 - 10:00 @ Room 101"},
		{name: "blank location", location: &empty, want: "09:05 - 10:00"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			slot := domain.Slot{Start: domain.MustTimeOfDay("9:05"), End: domain.MustTimeOfDay("10:00"), Location: tt.location}
			assert.Equal(t, tt.want, Describe(slot))
		})
	}
}
