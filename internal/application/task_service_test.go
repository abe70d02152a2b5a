package application

import (
	"context"
	"errors"
	"testing"

	"github.com/example/campus-planner/internal/domain"
	"github.com/example/campus-planner/internal/persistence/memory"
	"github.com/example/campus-planner/internal/tasksync"
)

type syncerStub struct {
	calls   []domain.Weekday
	ownerID string
	result  tasksync.Result
	err     error
}

func (s *syncerStub) Sync(ctx context.Context, ownerID string, date domain.Date, weekday domain.Weekday) (tasksync.Result, error) {
	s.calls = append(s.calls, weekday)
	s.ownerID = ownerID
	return s.result, s.err
}

func newTaskFixture(t *testing.T, syncer TaskSyncer) (*TaskService, *memory.Store, Principal) {
	t.Helper()
	store := memory.New()
	seedOwner(t, store, "owner-1")
	seedOwner(t, store, "owner-2")
	return NewTaskService(store, syncer, newSequence("task").next, fixedNow, testLogger), store, Principal{OwnerID: "owner-1"}
}

func TestTaskService_CRUD(t *testing.T) {
	t.Parallel()

	svc, _, principal := newTaskFixture(t, nil)
	ctx := context.Background()
	day := mustDate(t, "2024-09-02")
	notes := "  chapter 3  "

	created, err := svc.CreateTask(ctx, principal, TaskInput{Title: " Read ", Description: &notes, Date: day})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if created.Title != "Read" || *created.Description != "chapter 3" || created.Status != domain.TaskTodo || created.Priority != domain.PriorityMedium {
		t.Fatalf("unexpected task: %#v", created)
	}
	if created.Generated() {
		t.Fatalf("manual tasks must not carry an origin slot")
	}

	updated, err := svc.UpdateTask(ctx, principal, created.ID, TaskInput{Title: "Read", Date: day, Status: domain.TaskDone, Priority: domain.PriorityHigh})
	if err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	if updated.Status != domain.TaskDone || updated.Priority != domain.PriorityHigh || updated.Description != nil {
		t.Fatalf("unexpected update: %#v", updated)
	}

	done := domain.TaskDone
	listed, err := svc.ListTasks(ctx, ListTasksParams{Principal: principal, Date: &day, Status: &done})
	if err != nil || len(listed) != 1 {
		t.Fatalf("expected one finished task, got %d (%v)", len(listed), err)
	}

	other := Principal{OwnerID: "owner-2"}
	if _, err := svc.GetTask(ctx, other, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign task, got %v", err)
	}
	if err := svc.DeleteTask(ctx, other, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign delete, got %v", err)
	}
	if err := svc.DeleteTask(ctx, principal, created.ID); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}
	if _, err := svc.GetTask(ctx, principal, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	_, err = svc.CreateTask(ctx, principal, TaskInput{Title: "", Priority: "urgent"})
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.FieldErrors["title"] == "" || vErr.FieldErrors["date"] == "" || vErr.FieldErrors["priority"] == "" {
		t.Fatalf("expected title, date and priority errors, got %v", err)
	}
}

func TestTaskService_Sync(t *testing.T) {
	t.Parallel()

	day := mustDate(t, "2024-09-02")

	t.Run("defaults owner and weekday", func(t *testing.T) {
		t.Parallel()
		syncer := &syncerStub{result: tasksync.Result{Created: 2, Deleted: 1}}
		svc, _, principal := newTaskFixture(t, syncer)

		result, err := svc.Sync(context.Background(), SyncTasksParams{Principal: principal, Date: day})
		if err != nil {
			t.Fatalf("Sync failed: %v", err)
		}
		if result != (SyncTasksResult{Created: 2, Deleted: 1}) {
			t.Fatalf("unexpected result: %+v", result)
		}
		if syncer.ownerID != "owner-1" || len(syncer.calls) != 1 || syncer.calls[0] != domain.Monday {
			t.Fatalf("expected a Monday sync for owner-1, got %q %v", syncer.ownerID, syncer.calls)
		}
	})

	t.Run("trusts the caller weekday", func(t *testing.T) {
		t.Parallel()
		syncer := &syncerStub{}
		svc, _, principal := newTaskFixture(t, syncer)
		sunday := domain.Sunday

		if _, err := svc.Sync(context.Background(), SyncTasksParams{Principal: principal, Date: day, Weekday: &sunday}); err != nil {
			t.Fatalf("Sync failed: %v", err)
		}
		if syncer.calls[0] != domain.Sunday {
			t.Fatalf("expected Sunday, got %v", syncer.calls)
		}
	})

	t.Run("rejects other owners", func(t *testing.T) {
		t.Parallel()
		syncer := &syncerStub{}
		svc, _, principal := newTaskFixture(t, syncer)

		_, err := svc.Sync(context.Background(), SyncTasksParams{Principal: principal, OwnerID: "owner-2", Date: day})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
		if len(syncer.calls) != 0 {
			t.Fatalf("syncer must not run for foreign owners")
		}
	})

	t.Run("maps a missing owner to not found", func(t *testing.T) {
		t.Parallel()
		store := memory.New()
		engine := tasksync.NewEngine(store, store, store, nil, fixedNow, testLogger)
		svc := NewTaskService(store, engine, nil, fixedNow, testLogger)

		_, err := svc.Sync(context.Background(), SyncTasksParams{Principal: Principal{OwnerID: "ghost"}, Date: day})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("validates date and weekday", func(t *testing.T) {
		t.Parallel()
		svc, _, principal := newTaskFixture(t, &syncerStub{})
		bogus := domain.Weekday("Caturday")

		var vErr *ValidationError
		if _, err := svc.Sync(context.Background(), SyncTasksParams{Principal: principal}); !errors.As(err, &vErr) {
			t.Fatalf("expected validation error for missing date, got %v", err)
		}
		if _, err := svc.Sync(context.Background(), SyncTasksParams{Principal: principal, Date: day, Weekday: &bogus}); !errors.As(err, &vErr) {
			t.Fatalf("expected validation error for bad weekday, got %v", err)
		}
	})
}

func TestTaskService_GeneratedTaskKeepsItsDate(t *testing.T) {
	t.Parallel()

	store := memory.New()
	seedOwner(t, store, "owner-1")
	ctx := context.Background()
	if err := store.CreateSlot(ctx, domain.Slot{
		ID:        "gym",
		OwnerID:   "owner-1",
		Weekday:   domain.Monday,
		Start:     domain.MustTimeOfDay("18:00"),
		End:       domain.MustTimeOfDay("19:00"),
		Title:     "Gym",
		Kind:      domain.SlotKindPersonal,
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}); err != nil {
		t.Fatalf("seed slot: %v", err)
	}
	engine := tasksync.NewEngine(store, store, store, newSequence("task").next, fixedNow, testLogger)
	svc := NewTaskService(store, engine, newSequence("manual").next, fixedNow, testLogger)
	principal := Principal{OwnerID: "owner-1"}
	monday := mustDate(t, "2024-09-02")
	tuesday := mustDate(t, "2024-09-03")

	if _, err := svc.Sync(ctx, SyncTasksParams{Principal: principal, Date: monday}); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	generated, err := svc.ListTasks(ctx, ListTasksParams{Principal: principal, Date: &monday})
	if err != nil || len(generated) != 1 || !generated[0].Generated() {
		t.Fatalf("expected one generated task, got %d (%v)", len(generated), err)
	}
	task := generated[0]

	_, err = svc.UpdateTask(ctx, principal, task.ID, TaskInput{Title: task.Title, Date: tuesday, Status: domain.TaskDone, Priority: task.Priority})
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.FieldErrors["date"] == "" {
		t.Fatalf("expected a date validation error, got %v", err)
	}

	done, err := svc.UpdateTask(ctx, principal, task.ID, TaskInput{Title: task.Title, Date: monday, Status: domain.TaskDone, Priority: task.Priority})
	if err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	if done.Status != domain.TaskDone || done.Date != monday {
		t.Fatalf("unexpected update: %#v", done)
	}

	for _, day := range []domain.Date{tuesday, monday} {
		result, err := svc.Sync(ctx, SyncTasksParams{Principal: principal, Date: day})
		if err != nil {
			t.Fatalf("Sync %s failed: %v", day, err)
		}
		if result != (SyncTasksResult{}) {
			t.Fatalf("sync %s changed tasks: %+v", day, result)
		}
	}
	kept, err := svc.GetTask(ctx, principal, task.ID)
	if err != nil || kept.Status != domain.TaskDone {
		t.Fatalf("expected the finished task to survive sync, got %#v (%v)", kept, err)
	}
}
