package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/example/campus-planner/internal/persistence"
)

// ErrDatabaseLocked marks transient locking failures that are worth retrying.
var ErrDatabaseLocked = errors.New("sqlite: database locked")

// ErrorMapper maps SQLite driver errors to persistence layer errors.
type ErrorMapper struct{}

// NewErrorMapper creates a new error mapper.
func NewErrorMapper() *ErrorMapper {
	return &ErrorMapper{}
}

// MapError translates err into a persistence sentinel while keeping the driver
// message in the chain. op names the failed operation.
func (em *ErrorMapper) MapError(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.ErrNotFound
	}

	message := err.Error()
	var sentinel error
	switch {
	case strings.Contains(message, "UNIQUE constraint failed"), strings.Contains(message, "PRIMARY KEY constraint failed"):
		sentinel = persistence.ErrDuplicate
	case strings.Contains(message, "FOREIGN KEY constraint failed"):
		sentinel = persistence.ErrForeignKeyViolation
	case strings.Contains(message, "CHECK constraint failed"), strings.Contains(message, "NOT NULL constraint failed"):
		sentinel = persistence.ErrConstraintViolation
	case strings.Contains(message, "database is locked"), strings.Contains(message, "SQLITE_BUSY"):
		sentinel = ErrDatabaseLocked
	default:
		return pkgerrors.Wrap(err, op)
	}
	return pkgerrors.Wrapf(sentinel, "%s: %v", op, err)
}

// RetryConfig configures retry behavior for database operations.
type RetryConfig struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig returns a retry configuration with sensible defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  50 * time.Millisecond,
		MaxDelay:      time.Second,
		BackoffFactor: 2.0,
	}
}

// RetryHelper retries operations that fail with ErrDatabaseLocked.
type RetryHelper struct {
	config RetryConfig
}

// NewRetryHelper creates a new retry helper.
func NewRetryHelper(config RetryConfig) *RetryHelper {
	return &RetryHelper{config: config}
}

// WithRetry runs fn until it succeeds, fails with a non-transient error, or
// the retry budget is spent. fn must return already mapped errors.
func (rh *RetryHelper) WithRetry(ctx context.Context, fn func() error) error {
	delay := rh.config.InitialDelay
	var lastErr error

	for attempt := 0; attempt <= rh.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * rh.config.BackoffFactor)
			if delay > rh.config.MaxDelay {
				delay = rh.config.MaxDelay
			}
		}

		lastErr = fn()
		if lastErr == nil || !errors.Is(lastErr, ErrDatabaseLocked) {
			return lastErr
		}
	}
	return pkgerrors.Wrapf(lastErr, "gave up after %d retries", rh.config.MaxRetries)
}
