// Package sqlite implements the persistence repositories on SQLite through
// the pure Go modernc.org/sqlite driver and sqlx.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	pkgerrors "github.com/pkg/errors"

	"github.com/example/campus-planner/internal/persistence"
	"github.com/example/campus-planner/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Timestamps are stored as fixed width UTC text so that string comparison in
// SQL matches chronological order.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

func init() {
	sqlx.BindDriver(driverName, sqlx.QUESTION)
}

// Store implements persistence.Store.
type Store struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
	retry  *RetryHelper
}

var _ persistence.Store = (*Store)(nil)

// Open connects to the database described by config. Call Migrate before use.
func Open(ctx context.Context, config Config) (*Store, error) {
	pool, err := NewConnectionPool(ctx, config)
	if err != nil {
		return nil, err
	}
	return &Store{
		pool:   pool,
		mapper: NewErrorMapper(),
		retry:  NewRetryHelper(DefaultRetryConfig()),
	}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}

// Migrate applies every pending embedded migration.
func (s *Store) Migrate(ctx context.Context, logger *slog.Logger) error {
	return s.migrationManager(logger).RunMigrations(ctx)
}

// MigrationStatus reports applied and pending migrations.
func (s *Store) MigrationStatus(ctx context.Context, logger *slog.Logger) (migration.Status, error) {
	return s.migrationManager(logger).Status(ctx)
}

func (s *Store) migrationManager(logger *slog.Logger) *migration.Manager {
	scanner := migration.NewScanner(migrationFiles, "migrations")
	executor := migration.NewSQLiteExecutor(s.pool.DB().DB)
	return migration.NewManager(scanner, executor, logger)
}

func (s *Store) db() *sqlx.DB {
	return s.pool.DB()
}

// exec runs a write statement with retries on lock contention and reports
// persistence.ErrNotFound when requireRow is set and nothing was affected.
func (s *Store) exec(ctx context.Context, op string, requireRow bool, query string, args ...any) error {
	return s.retry.WithRetry(ctx, func() error {
		result, err := s.db().ExecContext(ctx, query, args...)
		if err != nil {
			return s.mapper.MapError(err, op)
		}
		if !requireRow {
			return nil
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return pkgerrors.Wrap(err, op)
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}
		return nil
	})
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, pkgerrors.Wrapf(err, "parse timestamp %q", value)
	}
	return t.UTC(), nil
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func stringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	s := value.String
	return &s
}
