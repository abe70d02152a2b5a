package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	pkgerrors "github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

// ConnectionPool manages SQLite database connections with transaction support.
type ConnectionPool struct {
	db     *sqlx.DB
	config Config
}

// NewConnectionPool opens and pings a configured pool.
func NewConnectionPool(ctx context.Context, config Config) (*ConnectionPool, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driverName, config.driverDSN())
	if err != nil {
		return nil, pkgerrors.Wrap(err, "open sqlite database")
	}
	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(config.MaxIdleConns)
	}
	if config.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(config.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, pkgerrors.Wrap(err, "ping sqlite database")
	}

	return &ConnectionPool{db: db, config: config}, nil
}

// DB returns the underlying sqlx handle.
func (cp *ConnectionPool) DB() *sqlx.DB {
	return cp.db
}

// Close closes the connection pool.
func (cp *ConnectionPool) Close() error {
	if cp == nil || cp.db == nil {
		return nil
	}
	return cp.db.Close()
}

// TransactionFunc represents a function that executes within a transaction.
type TransactionFunc func(tx *sqlx.Tx) error

// WithTransaction executes fn within a transaction. The transaction is rolled
// back when fn returns an error or panics, and committed otherwise.
func (cp *ConnectionPool) WithTransaction(ctx context.Context, fn TransactionFunc) error {
	tx, err := cp.db.BeginTxx(ctx, nil)
	if err != nil {
		return pkgerrors.Wrap(err, "begin transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return pkgerrors.Wrapf(err, "transaction failed (rollback error: %v)", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return pkgerrors.Wrap(err, "commit transaction")
	}
	return nil
}
