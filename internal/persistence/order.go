package persistence

import (
	"sort"

	"github.com/example/campus-planner/internal/domain"
)

// SortSlots orders slots Monday first, then by start, end and id.
func SortSlots(slots []domain.Slot) {
	sort.SliceStable(slots, func(i, j int) bool {
		a, b := slots[i], slots[j]
		if a.Weekday != b.Weekday {
			return a.Weekday.Index() < b.Weekday.Index()
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.End != b.End {
			return a.End < b.End
		}
		return a.ID < b.ID
	})
}

// SortAttendance orders records by date, then slot id.
func SortAttendance(records []domain.AttendanceRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Date != b.Date {
			return a.Date.Before(b.Date)
		}
		return a.SlotID < b.SlotID
	})
}

// SortTasks orders tasks by date, then creation time and id.
func SortTasks(tasks []domain.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if a.Date != b.Date {
			return a.Date.Before(b.Date)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// SortFocusSessions orders sessions by start time, then id.
func SortFocusSessions(sessions []domain.FocusSession) {
	sort.SliceStable(sessions, func(i, j int) bool {
		a, b := sessions[i], sessions[j]
		if !a.StartTime.Equal(b.StartTime) {
			return a.StartTime.Before(b.StartTime)
		}
		return a.ID < b.ID
	})
}
