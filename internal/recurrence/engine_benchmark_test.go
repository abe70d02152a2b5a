package recurrence

import (
	"testing"
	"time"

	"github.com/example/campus-planner/internal/domain"
)

func BenchmarkEngineExpand(b *testing.B) {
	engine := NewEngine(time.UTC)
	slots := make([]domain.Slot, 0, 35)
	for _, day := range domain.Weekdays[:5] {
		for hour := 8; hour < 15; hour++ {
			slots = append(slots, domain.Slot{
				ID:      string(day) + "-" + domain.TimeOfDay(hour*60).String(),
				Weekday: day,
				Start:   domain.TimeOfDay(hour * 60),
				End:     domain.TimeOfDay(hour*60 + 50),
			})
		}
	}
	from := mustDate(b, "2024-09-01")
	to := from.AddDays(MaxWindowDays - 1)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		occurrences, err := engine.Expand(slots, from, to)
		if err != nil {
			b.Fatalf("unexpected error: %v", err)
		}
		if len(occurrences) == 0 {
			b.Fatal("expected occurrences to be generated")
		}
	}
}
