package sqlite

import (
	"context"

	"github.com/example/campus-planner/internal/domain"
)

type ownerRow struct {
	ID                    string `db:"id"`
	Email                 string `db:"email"`
	DisplayName           string `db:"display_name"`
	PasswordHash          string `db:"password_hash"`
	DailyFocusGoalMinutes int    `db:"daily_focus_goal_minutes"`
	CreatedAt             string `db:"created_at"`
	UpdatedAt             string `db:"updated_at"`
}

const ownerColumns = `id, email, display_name, password_hash, daily_focus_goal_minutes, created_at, updated_at`

func (r ownerRow) toDomain() (domain.Owner, error) {
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return domain.Owner{}, err
	}
	updatedAt, err := parseTime(r.UpdatedAt)
	if err != nil {
		return domain.Owner{}, err
	}
	return domain.Owner{
		ID:                    r.ID,
		Email:                 r.Email,
		DisplayName:           r.DisplayName,
		PasswordHash:          r.PasswordHash,
		DailyFocusGoalMinutes: r.DailyFocusGoalMinutes,
		CreatedAt:             createdAt,
		UpdatedAt:             updatedAt,
	}, nil
}

// CreateOwner inserts a new owner.
func (s *Store) CreateOwner(ctx context.Context, owner domain.Owner) error {
	return s.exec(ctx, "create owner", false,
		`INSERT INTO owners (`+ownerColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		owner.ID, owner.Email, owner.DisplayName, owner.PasswordHash, owner.DailyFocusGoalMinutes,
		formatTime(owner.CreatedAt), formatTime(owner.UpdatedAt),
	)
}

// UpdateOwner updates the mutable profile fields of an owner.
func (s *Store) UpdateOwner(ctx context.Context, owner domain.Owner) error {
	return s.exec(ctx, "update owner", true,
		`UPDATE owners SET email = ?, display_name = ?, password_hash = ?, daily_focus_goal_minutes = ?, updated_at = ? WHERE id = ?`,
		owner.Email, owner.DisplayName, owner.PasswordHash, owner.DailyFocusGoalMinutes, formatTime(owner.UpdatedAt), owner.ID,
	)
}

// GetOwner retrieves an owner by id.
func (s *Store) GetOwner(ctx context.Context, id string) (domain.Owner, error) {
	return s.getOwner(ctx, `SELECT `+ownerColumns+` FROM owners WHERE id = ?`, id)
}

// GetOwnerByEmail retrieves an owner by email, ignoring case.
func (s *Store) GetOwnerByEmail(ctx context.Context, email string) (domain.Owner, error) {
	return s.getOwner(ctx, `SELECT `+ownerColumns+` FROM owners WHERE email = ? COLLATE NOCASE`, email)
}

func (s *Store) getOwner(ctx context.Context, query string, arg string) (domain.Owner, error) {
	var row ownerRow
	if err := s.db().GetContext(ctx, &row, query, arg); err != nil {
		return domain.Owner{}, s.mapper.MapError(err, "get owner")
	}
	return row.toDomain()
}
