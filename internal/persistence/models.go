package persistence

import (
	"time"

	"github.com/example/campus-planner/internal/domain"
)

// SlotFilter narrows schedule slot queries. OwnerID is required.
type SlotFilter struct {
	OwnerID string
	Weekday *domain.Weekday
	Kind    *domain.SlotKind
}

// AttendanceFilter narrows attendance queries. OwnerID is required.
type AttendanceFilter struct {
	OwnerID string
	Date    *domain.Date
	From    *domain.Date
	To      *domain.Date
	SlotIDs []string
}

// TaskFilter narrows daily task queries. OwnerID is required.
type TaskFilter struct {
	OwnerID       string
	Date          *domain.Date
	Status        *domain.TaskStatus
	OnlyGenerated bool
}

// FocusSessionFilter narrows focus session queries to a half-open start time range.
type FocusSessionFilter struct {
	OwnerID         string
	Kind            *domain.SessionKind
	StartsAtOrAfter *time.Time
	StartsBefore    *time.Time
}
