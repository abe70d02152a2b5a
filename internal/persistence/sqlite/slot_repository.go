package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/example/campus-planner/internal/domain"
	"github.com/example/campus-planner/internal/persistence"
)

type slotRow struct {
	ID               string         `db:"id"`
	OwnerID          string         `db:"owner_id"`
	Weekday          string         `db:"weekday"`
	StartTime        string         `db:"start_time"`
	EndTime          string         `db:"end_time"`
	Title            string         `db:"title"`
	Location         sql.NullString `db:"location"`
	Kind             string         `db:"kind"`
	AcademicKind     string         `db:"academic_kind"`
	AttendanceWeight int            `db:"attendance_weight"`
	CreatedAt        string         `db:"created_at"`
	UpdatedAt        string         `db:"updated_at"`
}

const slotColumns = `id, owner_id, weekday, start_time, end_time, title, location, kind, academic_kind, attendance_weight, created_at, updated_at`

func (r slotRow) toDomain() (domain.Slot, error) {
	weekday, err := domain.ParseWeekday(r.Weekday)
	if err != nil {
		return domain.Slot{}, err
	}
	start, err := domain.ParseTimeOfDay(r.StartTime)
	if err != nil {
		return domain.Slot{}, err
	}
	end, err := domain.ParseTimeOfDay(r.EndTime)
	if err != nil {
		return domain.Slot{}, err
	}
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return domain.Slot{}, err
	}
	updatedAt, err := parseTime(r.UpdatedAt)
	if err != nil {
		return domain.Slot{}, err
	}
	return domain.Slot{
		ID:               r.ID,
		OwnerID:          r.OwnerID,
		Weekday:          weekday,
		Start:            start,
		End:              end,
		Title:            r.Title,
		Location:         stringPtr(r.Location),
		Kind:             domain.SlotKind(r.Kind),
		AcademicKind:     domain.AcademicKind(r.AcademicKind),
		AttendanceWeight: r.AttendanceWeight,
		CreatedAt:        createdAt,
		UpdatedAt:        updatedAt,
	}, nil
}

func slotArgs(slot domain.Slot) []any {
	academicKind := slot.AcademicKind
	if academicKind == "" {
		academicKind = domain.AcademicKindLecture
	}
	return []any{
		string(slot.Weekday), slot.Start.String(), slot.End.String(), slot.Title, nullString(slot.Location),
		string(slot.Kind), string(academicKind), slot.Weight(),
	}
}

// CreateSlot inserts a new slot.
func (s *Store) CreateSlot(ctx context.Context, slot domain.Slot) error {
	args := append([]any{slot.ID, slot.OwnerID}, slotArgs(slot)...)
	args = append(args, formatTime(slot.CreatedAt), formatTime(slot.UpdatedAt))
	return s.exec(ctx, "create slot", false,
		`INSERT INTO schedule_slots (`+slotColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		args...,
	)
}

// UpdateSlot replaces every mutable field of a slot.
func (s *Store) UpdateSlot(ctx context.Context, slot domain.Slot) error {
	args := append(slotArgs(slot), formatTime(slot.UpdatedAt), slot.ID)
	return s.exec(ctx, "update slot", true,
		`UPDATE schedule_slots
		SET weekday = ?, start_time = ?, end_time = ?, title = ?, location = ?, kind = ?, academic_kind = ?, attendance_weight = ?, updated_at = ?
		WHERE id = ?`,
		args...,
	)
}

// GetSlot retrieves a slot by id.
func (s *Store) GetSlot(ctx context.Context, id string) (domain.Slot, error) {
	var row slotRow
	if err := s.db().GetContext(ctx, &row, `SELECT `+slotColumns+` FROM schedule_slots WHERE id = ?`, id); err != nil {
		return domain.Slot{}, s.mapper.MapError(err, "get slot")
	}
	return row.toDomain()
}

// ListSlots returns the owner's slots matching the filter.
func (s *Store) ListSlots(ctx context.Context, filter persistence.SlotFilter) ([]domain.Slot, error) {
	conditions := []string{"owner_id = ?"}
	args := []any{filter.OwnerID}
	if filter.Weekday != nil {
		conditions = append(conditions, "weekday = ?")
		args = append(args, string(*filter.Weekday))
	}
	if filter.Kind != nil {
		conditions = append(conditions, "kind = ?")
		args = append(args, string(*filter.Kind))
	}

	var rows []slotRow
	query := `SELECT ` + slotColumns + ` FROM schedule_slots WHERE ` + strings.Join(conditions, " AND ")
	if err := s.db().SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, s.mapper.MapError(err, "list slots")
	}

	slots := make([]domain.Slot, 0, len(rows))
	for _, row := range rows {
		slot, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	persistence.SortSlots(slots)
	return slots, nil
}

// DeleteSlot removes a slot. Attendance and tasks referencing it are kept.
func (s *Store) DeleteSlot(ctx context.Context, id string) error {
	return s.exec(ctx, "delete slot", true, `DELETE FROM schedule_slots WHERE id = ?`, id)
}
