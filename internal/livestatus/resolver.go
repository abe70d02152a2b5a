// Package livestatus answers "is this person in class right now" from a weekly timetable.
package livestatus

import (
	"sort"
	"time"

	"github.com/example/campus-planner/internal/domain"
)

const (
	busyPrefix      = "In Class: "
	freeDescription = "Free"
)

// Resolve matches now against the slots for its weekday. Windows are inclusive
// on both ends at minute resolution. When several slots cover the same minute
// the earliest start wins, then the earliest end, then the smallest id.
//
// now is interpreted in its own location; callers convert it first.
func Resolve(slots []domain.Slot, now time.Time) domain.LiveStatus {
	if now.IsZero() {
		return domain.UnknownStatus()
	}

	weekday := domain.WeekdayOf(now)
	at := domain.TimeOfDayOf(now)

	matches := make([]domain.Slot, 0, 1)
	for _, slot := range slots {
		if slot.Weekday != weekday || !slot.Contains(at) {
			continue
		}
		matches = append(matches, slot)
	}
	if len(matches) == 0 {
		return domain.LiveStatus{State: domain.LiveFree, Description: freeDescription}
	}

	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.End != b.End {
			return a.End < b.End
		}
		return a.ID < b.ID
	})

	winner := matches[0]
	until := winner.End
	return domain.LiveStatus{
		State:       domain.LiveBusy,
		Description: busyPrefix + winner.Title,
		Until:       &until,
		SlotID:      winner.ID,
	}
}
