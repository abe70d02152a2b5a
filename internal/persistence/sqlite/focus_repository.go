package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/example/campus-planner/internal/domain"
	"github.com/example/campus-planner/internal/persistence"
)

type focusSessionRow struct {
	ID              string         `db:"id"`
	OwnerID         string         `db:"owner_id"`
	TaskID          sql.NullString `db:"task_id"`
	DurationMinutes int            `db:"duration_minutes"`
	Kind            string         `db:"kind"`
	StartTime       string         `db:"start_time"`
	EndTime         string         `db:"end_time"`
	CreatedAt       string         `db:"created_at"`
}

const focusSessionColumns = `id, owner_id, task_id, duration_minutes, kind, start_time, end_time, created_at`

func (r focusSessionRow) toDomain() (domain.FocusSession, error) {
	start, err := parseTime(r.StartTime)
	if err != nil {
		return domain.FocusSession{}, err
	}
	end, err := parseTime(r.EndTime)
	if err != nil {
		return domain.FocusSession{}, err
	}
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return domain.FocusSession{}, err
	}
	return domain.FocusSession{
		ID:              r.ID,
		OwnerID:         r.OwnerID,
		TaskID:          stringPtr(r.TaskID),
		DurationMinutes: r.DurationMinutes,
		Kind:            domain.SessionKind(r.Kind),
		StartTime:       start,
		EndTime:         end,
		CreatedAt:       createdAt,
	}, nil
}

// CreateFocusSession appends a session.
func (s *Store) CreateFocusSession(ctx context.Context, session domain.FocusSession) error {
	return s.exec(ctx, "create focus session", false,
		`INSERT INTO focus_sessions (`+focusSessionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID, session.OwnerID, nullString(session.TaskID), session.DurationMinutes, string(session.Kind),
		formatTime(session.StartTime), formatTime(session.EndTime), formatTime(session.CreatedAt),
	)
}

// ListFocusSessions returns the owner's sessions whose start falls in the filter range.
func (s *Store) ListFocusSessions(ctx context.Context, filter persistence.FocusSessionFilter) ([]domain.FocusSession, error) {
	conditions := []string{"owner_id = ?"}
	args := []any{filter.OwnerID}
	if filter.Kind != nil {
		conditions = append(conditions, "kind = ?")
		args = append(args, string(*filter.Kind))
	}
	if filter.StartsAtOrAfter != nil {
		conditions = append(conditions, "start_time >= ?")
		args = append(args, formatTime(*filter.StartsAtOrAfter))
	}
	if filter.StartsBefore != nil {
		conditions = append(conditions, "start_time < ?")
		args = append(args, formatTime(*filter.StartsBefore))
	}

	var rows []focusSessionRow
	query := `SELECT ` + focusSessionColumns + ` FROM focus_sessions WHERE ` + strings.Join(conditions, " AND ")
	if err := s.db().SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, s.mapper.MapError(err, "list focus sessions")
	}

	sessions := make([]domain.FocusSession, 0, len(rows))
	for _, row := range rows {
		session, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	persistence.SortFocusSessions(sessions)
	return sessions, nil
}
