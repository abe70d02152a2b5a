package application

import (
	"time"

	"github.com/example/campus-planner/internal/domain"
)

// Principal represents the authenticated owner invoking a service method.
type Principal struct {
	OwnerID string
}

// SlotInput captures caller provided schedule slot fields.
type SlotInput struct {
	Weekday          domain.Weekday
	Start            domain.TimeOfDay
	End              domain.TimeOfDay
	Title            string
	Location         *string
	Kind             domain.SlotKind
	AcademicKind     domain.AcademicKind
	AttendanceWeight int
}

// OverlapWarning names another slot of the same owner whose window intersects
// the slot that was written. Warnings never block a write.
type OverlapWarning struct {
	SlotID  string
	Title   string
	Weekday domain.Weekday
	Start   domain.TimeOfDay
	End     domain.TimeOfDay
}

// SlotResult is returned by slot writes.
type SlotResult struct {
	Slot     domain.Slot
	Warnings []OverlapWarning
}

// ListSlotsParams narrows a slot listing.
type ListSlotsParams struct {
	Principal Principal
	Weekday   *domain.Weekday
	Kind      *domain.SlotKind
}

// ImportOutcome classifies a single item of a batch import.
type ImportOutcome string

const (
	ImportCreated  ImportOutcome = "created"
	ImportInvalid  ImportOutcome = "invalid"
	ImportConflict ImportOutcome = "conflict"
)

// ImportItemResult reports what happened to one item of a batch import.
type ImportItemResult struct {
	Index       int
	Outcome     ImportOutcome
	Slot        *domain.Slot
	FieldErrors map[string]string
	// ConflictWith is the id of the identical slot, or empty when the
	// duplicate appeared earlier in the same batch and was itself rejected.
	ConflictWith string
}

// ImportResult summarizes a batch import.
type ImportResult struct {
	Items     []ImportItemResult
	Created   int
	Invalid   int
	Conflicts int
}

// MarkAttendanceParams wraps the data required to mark attendance.
type MarkAttendanceParams struct {
	Principal Principal
	SlotID    string
	Date      domain.Date
	Status    domain.AttendanceStatus
}

// SheetStatusPending marks an occurrence that has no attendance record yet.
const SheetStatusPending = "pending"

// SheetEntry is one dated occurrence of an academic slot with its attendance.
type SheetEntry struct {
	SlotID   string
	Title    string
	Location *string
	Date     domain.Date
	Start    domain.TimeOfDay
	End      domain.TimeOfDay
	Status   string
	RecordID string
}

// AttendanceSheet lists the academic occurrences of a date range.
type AttendanceSheet struct {
	From    domain.Date
	To      domain.Date
	Entries []SheetEntry
}

// TaskInput captures caller provided daily task fields.
type TaskInput struct {
	Title       string
	Description *string
	Date        domain.Date
	Status      domain.TaskStatus
	Priority    domain.TaskPriority
}

// ListTasksParams narrows a task listing.
type ListTasksParams struct {
	Principal Principal
	Date      *domain.Date
	Status    *domain.TaskStatus
}

// SyncTasksParams wraps a task sync request. OwnerID defaults to the
// principal and Weekday defaults to the weekday of Date.
type SyncTasksParams struct {
	Principal Principal
	OwnerID   string
	Date      domain.Date
	Weekday   *domain.Weekday
}

// SyncTasksResult counts generated tasks created and removed.
type SyncTasksResult struct {
	Created int
	Deleted int
}

// FocusSessionInput captures a completed timer run.
type FocusSessionInput struct {
	TaskID          *string
	DurationMinutes int
	Kind            domain.SessionKind
	StartTime       time.Time
	EndTime         time.Time
}

// FocusToday reports today's focus minutes against the daily goal.
type FocusToday struct {
	Date         domain.Date
	TotalMinutes int
	DailyGoal    int
}

// RegisterOwnerInput captures sign up fields.
type RegisterOwnerInput struct {
	Email       string
	Password    string
	DisplayName string
}

// AuthenticateParams captures login credentials.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult carries the issued bearer token.
type AuthenticateResult struct {
	Owner     domain.Owner
	Token     string
	ExpiresAt time.Time
}

// ProfileInput captures editable owner fields. Nil fields are left unchanged.
type ProfileInput struct {
	DisplayName           *string
	DailyFocusGoalMinutes *int
}
