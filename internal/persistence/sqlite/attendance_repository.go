package sqlite

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/example/campus-planner/internal/domain"
	"github.com/example/campus-planner/internal/persistence"
)

type attendanceRow struct {
	ID        string `db:"id"`
	OwnerID   string `db:"owner_id"`
	SlotID    string `db:"slot_id"`
	Date      string `db:"date"`
	Status    string `db:"status"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

const attendanceColumns = `id, owner_id, slot_id, date, status, created_at, updated_at`

func (r attendanceRow) toDomain() (domain.AttendanceRecord, error) {
	date, err := domain.ParseDate(r.Date)
	if err != nil {
		return domain.AttendanceRecord{}, err
	}
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return domain.AttendanceRecord{}, err
	}
	updatedAt, err := parseTime(r.UpdatedAt)
	if err != nil {
		return domain.AttendanceRecord{}, err
	}
	return domain.AttendanceRecord{
		ID:        r.ID,
		OwnerID:   r.OwnerID,
		SlotID:    r.SlotID,
		Date:      date,
		Status:    domain.AttendanceStatus(r.Status),
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

// UpsertAttendance inserts the record or overwrites the status of the record
// already stored for the same slot and date.
func (s *Store) UpsertAttendance(ctx context.Context, record domain.AttendanceRecord) (domain.AttendanceRecord, error) {
	var stored attendanceRow
	err := s.retry.WithRetry(ctx, func() error {
		return s.pool.WithTransaction(ctx, func(tx *sqlx.Tx) error {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO attendance_records (`+attendanceColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT (slot_id, date) DO UPDATE SET status = excluded.status, updated_at = excluded.updated_at`,
				record.ID, record.OwnerID, record.SlotID, record.Date.String(), string(record.Status),
				formatTime(record.CreatedAt), formatTime(record.UpdatedAt),
			)
			if err != nil {
				return s.mapper.MapError(err, "upsert attendance")
			}
			if err := tx.GetContext(ctx, &stored,
				`SELECT `+attendanceColumns+` FROM attendance_records WHERE slot_id = ? AND date = ?`,
				record.SlotID, record.Date.String(),
			); err != nil {
				return s.mapper.MapError(err, "reload attendance")
			}
			return nil
		})
	})
	if err != nil {
		return domain.AttendanceRecord{}, err
	}
	return stored.toDomain()
}

// ListAttendance returns the owner's records matching the filter.
func (s *Store) ListAttendance(ctx context.Context, filter persistence.AttendanceFilter) ([]domain.AttendanceRecord, error) {
	conditions := []string{"owner_id = ?"}
	args := []any{filter.OwnerID}
	if filter.Date != nil {
		conditions = append(conditions, "date = ?")
		args = append(args, filter.Date.String())
	}
	if filter.From != nil {
		conditions = append(conditions, "date >= ?")
		args = append(args, filter.From.String())
	}
	if filter.To != nil {
		conditions = append(conditions, "date <= ?")
		args = append(args, filter.To.String())
	}
	if len(filter.SlotIDs) > 0 {
		conditions = append(conditions, "slot_id IN (?)")
		args = append(args, filter.SlotIDs)
	}

	query, expanded, err := sqlx.In(`SELECT `+attendanceColumns+` FROM attendance_records WHERE `+strings.Join(conditions, " AND "), args...)
	if err != nil {
		return nil, s.mapper.MapError(err, "build attendance query")
	}

	var rows []attendanceRow
	if err := s.db().SelectContext(ctx, &rows, s.db().Rebind(query), expanded...); err != nil {
		return nil, s.mapper.MapError(err, "list attendance")
	}

	records := make([]domain.AttendanceRecord, 0, len(rows))
	for _, row := range rows {
		record, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	persistence.SortAttendance(records)
	return records, nil
}
