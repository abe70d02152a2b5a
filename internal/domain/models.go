package domain

import "time"

// SlotKind separates classes that count towards attendance from personal commitments.
type SlotKind string

const (
	SlotKindAcademic SlotKind = "academic"
	SlotKindPersonal SlotKind = "personal"
)

// Valid reports whether k is a known slot kind.
func (k SlotKind) Valid() bool {
	return k == SlotKindAcademic || k == SlotKindPersonal
}

// AcademicKind distinguishes lectures from labs. It only matters for academic slots.
type AcademicKind string

const (
	AcademicKindLecture AcademicKind = "lecture"
	AcademicKindLab     AcademicKind = "lab"
)

// Valid reports whether k is a known academic kind.
func (k AcademicKind) Valid() bool {
	return k == AcademicKindLecture || k == AcademicKindLab
}

// AttendanceStatus is the mark recorded for one slot on one date.
type AttendanceStatus string

const (
	AttendancePresent   AttendanceStatus = "present"
	AttendanceAbsent    AttendanceStatus = "absent"
	AttendanceCancelled AttendanceStatus = "cancelled"
)

// Valid reports whether s is one of the three recordable statuses.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceCancelled:
		return true
	}
	return false
}

// TaskStatus tracks a daily task across the board columns.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "inprogress"
	TaskDone       TaskStatus = "done"
)

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskTodo, TaskInProgress, TaskDone:
		return true
	}
	return false
}

// TaskPriority orders tasks within a day.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// Valid reports whether p is a known priority.
func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// SessionKind labels a focus timer session.
type SessionKind string

const (
	SessionFocus SessionKind = "focus"
	SessionBreak SessionKind = "break"
)

// Valid reports whether k is a known session kind.
func (k SessionKind) Valid() bool {
	return k == SessionFocus || k == SessionBreak
}

// Owner is the account every other record belongs to.
type Owner struct {
	ID                    string
	Email                 string
	DisplayName           string
	PasswordHash          string
	DailyFocusGoalMinutes int
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Slot is a recurring weekly schedule entry.
type Slot struct {
	ID               string
	OwnerID          string
	Weekday          Weekday
	Start            TimeOfDay
	End              TimeOfDay
	Title            string
	Location         *string
	Kind             SlotKind
	AcademicKind     AcademicKind
	AttendanceWeight int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Weight returns the attendance weight, treating unset or non-positive values as 1.
func (s Slot) Weight() int {
	if s.AttendanceWeight <= 0 {
		return 1
	}
	return s.AttendanceWeight
}

// Contains reports whether at falls inside the slot window, inclusive on both ends.
func (s Slot) Contains(at TimeOfDay) bool {
	return s.Start <= at && at <= s.End
}

// AttendanceRecord is the status of one slot on one date.
type AttendanceRecord struct {
	ID        string
	OwnerID   string
	SlotID    string
	Date      Date
	Status    AttendanceStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Task is a date specific to-do entry. OriginSlotID is set for tasks generated from a slot.
type Task struct {
	ID           string
	OwnerID      string
	Title        string
	Description  *string
	Date         Date
	Status       TaskStatus
	Priority     TaskPriority
	OriginSlotID *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Generated reports whether the task was materialized from a schedule slot.
func (t Task) Generated() bool {
	return t.OriginSlotID != nil && *t.OriginSlotID != ""
}

// FocusSession is an append-only record of a completed timer run.
type FocusSession struct {
	ID              string
	OwnerID         string
	TaskID          *string
	DurationMinutes int
	Kind            SessionKind
	StartTime       time.Time
	EndTime         time.Time
	CreatedAt       time.Time
}

// LiveState is the coarse availability derived from the schedule.
type LiveState string

const (
	LiveBusy    LiveState = "busy"
	LiveFree    LiveState = "free"
	LiveUnknown LiveState = "unknown"
)

// LiveStatus is recomputed on every query and never stored.
type LiveStatus struct {
	State       LiveState
	Description string
	Until       *TimeOfDay
	SlotID      string
}

// UnknownStatus is returned whenever the schedule cannot be read.
func UnknownStatus() LiveStatus {
	return LiveStatus{State: LiveUnknown, Description: "Unknown"}
}
