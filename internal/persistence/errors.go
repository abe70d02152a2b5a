package persistence

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate indicates a uniqueness constraint rejected the write.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrConstraintViolation indicates a CHECK constraint rejected the write.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
	// ErrForeignKeyViolation indicates a referenced record is missing.
	ErrForeignKeyViolation = errors.New("persistence: foreign key violation")
)
