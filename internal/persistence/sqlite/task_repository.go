package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/example/campus-planner/internal/domain"
	"github.com/example/campus-planner/internal/persistence"
)

type taskRow struct {
	ID           string         `db:"id"`
	OwnerID      string         `db:"owner_id"`
	Title        string         `db:"title"`
	Description  sql.NullString `db:"description"`
	Date         string         `db:"date"`
	Status       string         `db:"status"`
	Priority     string         `db:"priority"`
	OriginSlotID sql.NullString `db:"origin_slot_id"`
	CreatedAt    string         `db:"created_at"`
	UpdatedAt    string         `db:"updated_at"`
}

const taskColumns = `id, owner_id, title, description, date, status, priority, origin_slot_id, created_at, updated_at`

func (r taskRow) toDomain() (domain.Task, error) {
	date, err := domain.ParseDate(r.Date)
	if err != nil {
		return domain.Task{}, err
	}
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return domain.Task{}, err
	}
	updatedAt, err := parseTime(r.UpdatedAt)
	if err != nil {
		return domain.Task{}, err
	}
	return domain.Task{
		ID:           r.ID,
		OwnerID:      r.OwnerID,
		Title:        r.Title,
		Description:  stringPtr(r.Description),
		Date:         date,
		Status:       domain.TaskStatus(r.Status),
		Priority:     domain.TaskPriority(r.Priority),
		OriginSlotID: stringPtr(r.OriginSlotID),
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}, nil
}

// CreateTask inserts a task. A second generated task for the same owner,
// origin slot and date fails with persistence.ErrDuplicate.
func (s *Store) CreateTask(ctx context.Context, task domain.Task) error {
	priority := task.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	return s.exec(ctx, "create task", false,
		`INSERT INTO daily_tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.OwnerID, task.Title, nullString(task.Description), task.Date.String(),
		string(task.Status), string(priority), nullString(task.OriginSlotID),
		formatTime(task.CreatedAt), formatTime(task.UpdatedAt),
	)
}

// UpdateTask replaces the mutable fields of a task. The origin slot is immutable.
func (s *Store) UpdateTask(ctx context.Context, task domain.Task) error {
	return s.exec(ctx, "update task", true,
		`UPDATE daily_tasks SET title = ?, description = ?, date = ?, status = ?, priority = ?, updated_at = ? WHERE id = ?`,
		task.Title, nullString(task.Description), task.Date.String(), string(task.Status), string(task.Priority),
		formatTime(task.UpdatedAt), task.ID,
	)
}

// GetTask retrieves a task by id.
func (s *Store) GetTask(ctx context.Context, id string) (domain.Task, error) {
	var row taskRow
	if err := s.db().GetContext(ctx, &row, `SELECT `+taskColumns+` FROM daily_tasks WHERE id = ?`, id); err != nil {
		return domain.Task{}, s.mapper.MapError(err, "get task")
	}
	return row.toDomain()
}

// ListTasks returns the owner's tasks matching the filter.
func (s *Store) ListTasks(ctx context.Context, filter persistence.TaskFilter) ([]domain.Task, error) {
	conditions := []string{"owner_id = ?"}
	args := []any{filter.OwnerID}
	if filter.Date != nil {
		conditions = append(conditions, "date = ?")
		args = append(args, filter.Date.String())
	}
	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, string(*filter.Status))
	}
	if filter.OnlyGenerated {
		conditions = append(conditions, "origin_slot_id IS NOT NULL AND origin_slot_id <> ''")
	}

	var rows []taskRow
	query := `SELECT ` + taskColumns + ` FROM daily_tasks WHERE ` + strings.Join(conditions, " AND ")
	if err := s.db().SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, s.mapper.MapError(err, "list tasks")
	}

	tasks := make([]domain.Task, 0, len(rows))
	for _, row := range rows {
		task, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	persistence.SortTasks(tasks)
	return tasks, nil
}

// DeleteTask removes a task.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	return s.exec(ctx, "delete task", true, `DELETE FROM daily_tasks WHERE id = ?`, id)
}
