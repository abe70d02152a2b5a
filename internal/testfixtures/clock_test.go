package testfixtures

import (
	"testing"
	"time"
)

func TestClockDefaultsToReferenceTime(t *testing.T) {
	clock := NewClock(time.Time{})
	if !clock.Now().Equal(ReferenceTime()) {
		t.Fatalf("expected ReferenceTime, got %v", clock.Now())
	}
}

func TestClockAdvanceAndSet(t *testing.T) {
	start := time.Date(2024, time.September, 2, 9, 0, 0, 0, time.UTC)
	clock := NewClock(start)

	updated := clock.Advance(90 * time.Minute)
	if !updated.Equal(start.Add(90 * time.Minute)) {
		t.Fatalf("advance returned %v", updated)
	}

	clock.Set(start.Add(2 * time.Hour))
	if got := clock.NowFunc()(); !got.Equal(start.Add(2 * time.Hour)) {
		t.Fatalf("expected %v, got %v", start.Add(2*time.Hour), got)
	}
}

func TestClockFiresTimersInDeadlineOrder(t *testing.T) {
	start := time.Date(2024, time.September, 2, 9, 0, 0, 0, time.UTC)
	clock := NewClock(start)

	var fired []string
	var firedAt []time.Time
	clock.AfterFunc(3*time.Second, func() {
		fired = append(fired, "three")
		firedAt = append(firedAt, clock.Now())
	})
	clock.AfterFunc(time.Second, func() {
		fired = append(fired, "one")
		firedAt = append(firedAt, clock.Now())
		clock.AfterFunc(time.Second, func() {
			fired = append(fired, "chained")
			firedAt = append(firedAt, clock.Now())
		})
	})
	cancel := clock.AfterFunc(2*time.Second, func() { fired = append(fired, "cancelled") })
	cancel()

	if clock.Pending() != 2 {
		t.Fatalf("expected two pending timers, got %d", clock.Pending())
	}

	clock.Advance(5 * time.Second)

	want := []string{"one", "chained", "three"}
	if len(fired) != len(want) {
		t.Fatalf("expected %v, got %v", want, fired)
	}
	for i := range want {
		if fired[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, fired)
		}
	}
	if !firedAt[1].Equal(start.Add(2 * time.Second)) {
		t.Fatalf("chained timer saw %v", firedAt[1])
	}
	if clock.Pending() != 0 || !clock.Now().Equal(start.Add(5*time.Second)) {
		t.Fatalf("unexpected clock state: pending=%d now=%v", clock.Pending(), clock.Now())
	}
}
