package scheduler

import (
	"sort"

	"github.com/example/campus-planner/internal/domain"
)

// Window is the part of a weekly slot that matters for overlap checks.
type Window struct {
	SlotID  string
	Title   string
	Weekday domain.Weekday
	Start   domain.TimeOfDay
	End     domain.TimeOfDay
}

// WindowOf extracts the window of a slot.
func WindowOf(slot domain.Slot) Window {
	return Window{
		SlotID:  slot.ID,
		Title:   slot.Title,
		Weekday: slot.Weekday,
		Start:   slot.Start,
		End:     slot.End,
	}
}

// Conflict details an overlapping slot that callers can present to users.
type Conflict struct {
	WithSlotID string
	Title      string
	Weekday    domain.Weekday
	Start      domain.TimeOfDay
	End        domain.TimeOfDay
}

// DetectConflicts returns the existing windows on the candidate's weekday that
// share at least one minute with it. Windows touching end to start, such as
// 09:00-10:00 and 10:00-11:00, do not conflict. The candidate itself is ignored
// when it already appears in existing.
func DetectConflicts(existing []Window, candidate Window) []Conflict {
	var conflicts []Conflict
	for _, other := range existing {
		if other.SlotID != "" && other.SlotID == candidate.SlotID {
			continue
		}
		if other.Weekday != candidate.Weekday {
			continue
		}
		if other.Start < candidate.End && candidate.Start < other.End {
			conflicts = append(conflicts, Conflict{
				WithSlotID: other.SlotID,
				Title:      other.Title,
				Weekday:    other.Weekday,
				Start:      other.Start,
				End:        other.End,
			})
		}
	}

	sort.Slice(conflicts, func(i, j int) bool {
		if conflicts[i].Start != conflicts[j].Start {
			return conflicts[i].Start < conflicts[j].Start
		}
		return conflicts[i].WithSlotID < conflicts[j].WithSlotID
	})
	return conflicts
}
