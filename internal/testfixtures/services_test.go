package testfixtures

import (
	"context"
	"testing"

	"github.com/example/campus-planner/internal/application"
	"github.com/example/campus-planner/internal/domain"
)

func TestServiceFactoryBuildsWorkingServices(t *testing.T) {
	store := NewSQLiteHarness(t)
	factory := NewServiceFactory(WithIDGenerator(NewIDGenerator("rec")))

	services, err := factory.Build(store)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	ctx := context.Background()

	owner, err := services.Owners.Register(ctx, application.RegisterOwnerInput{
		Email:       "ada@example.com",
		Password:    "correct horse",
		DisplayName: "Ada",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if owner.ID != "rec-1" {
		t.Fatalf("expected generated ID rec-1, got %q", owner.ID)
	}

	auth, err := services.Owners.Authenticate(ctx, application.AuthenticateParams{Email: "ada@example.com", Password: "correct horse"})
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	subject, err := services.Verifier.Verify(auth.Token)
	if err != nil || subject != owner.ID {
		t.Fatalf("expected token for %s, got %q (%v)", owner.ID, subject, err)
	}

	principal := application.Principal{OwnerID: owner.ID}
	gym := NewSlot(owner.ID, Personal(), WithTitle("Gym"), Between("18:00", "19:00"))
	if _, err := services.Schedule.CreateSlot(ctx, principal, application.SlotInput{
		Weekday: gym.Weekday,
		Start:   gym.Start,
		End:     gym.End,
		Title:   gym.Title,
		Kind:    gym.Kind,
	}); err != nil {
		t.Fatalf("CreateSlot returned error: %v", err)
	}

	result, err := services.Tasks.Sync(ctx, application.SyncTasksParams{Principal: principal, Date: ReferenceDate()})
	if err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	if result.Created != 1 {
		t.Fatalf("expected one generated task, got %+v", result)
	}

	tasks, err := services.Tasks.ListTasks(ctx, application.ListTasksParams{Principal: principal})
	if err != nil || len(tasks) != 1 || tasks[0].Title != "Gym" || !tasks[0].Generated() {
		t.Fatalf("unexpected tasks: %#v (%v)", tasks, err)
	}

	status := services.LiveStatus.Status(ctx, owner.ID)
	if status.State != domain.LiveFree {
		t.Fatalf("expected free at reference time, got %#v", status)
	}
}

func TestSeedStoresFixtures(t *testing.T) {
	store := NewSQLiteHarness(t)
	owner := NewOwner()
	slot := NewSlot(owner.ID, Lab(3), At("B-201"))
	task := NewTask(owner.ID, ReferenceDate(), GeneratedFrom(slot.ID))

	Seed(t, store, owner, []domain.Slot{slot}, []domain.Task{task})

	stored, err := store.GetSlot(context.Background(), slot.ID)
	if err != nil {
		t.Fatalf("GetSlot returned error: %v", err)
	}
	if stored.AttendanceWeight != 3 || stored.Location == nil || *stored.Location != "B-201" {
		t.Fatalf("unexpected slot: %#v", stored)
	}
}
