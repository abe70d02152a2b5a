package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/example/campus-planner/internal/domain"
	"github.com/example/campus-planner/internal/persistence/memory"
)

var (
	testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
	// 2024-09-02 is a Monday.
	testNow = time.Date(2024, time.September, 2, 9, 30, 0, 0, time.UTC)
)

type sequence struct {
	mu     sync.Mutex
	prefix string
	n      int
}

func newSequence(prefix string) *sequence {
	return &sequence{prefix: prefix}
}

func (s *sequence) next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s-%d", s.prefix, s.n)
}

func fixedNow() time.Time {
	return testNow
}

func seedOwner(t *testing.T, store *memory.Store, id string) domain.Owner {
	t.Helper()
	owner := domain.Owner{
		ID:                    id,
		Email:                 id + "@example.com",
		DisplayName:           "Owner " + id,
		PasswordHash:          "unused",
		DailyFocusGoalMinutes: 120,
		CreatedAt:             testNow,
		UpdatedAt:             testNow,
	}
	if err := store.CreateOwner(context.Background(), owner); err != nil {
		t.Fatalf("seed owner: %v", err)
	}
	return owner
}

func slotInput(day domain.Weekday, start, end, title string) SlotInput {
	return SlotInput{
		Weekday: day,
		Start:   domain.MustTimeOfDay(start),
		End:     domain.MustTimeOfDay(end),
		Title:   title,
	}
}

func mustDate(t *testing.T, value string) domain.Date {
	t.Helper()
	d, err := domain.ParseDate(value)
	if err != nil {
		t.Fatalf("parse date %q: %v", value, err)
	}
	return d
}
