package storage

import (
	"errors"
	"fmt"
	"strings"

	"stockaudit/internal/logger"
	"stockaudit/internal/metrics"
)

var (
	// ErrSchemaMissing is wrapped by a StorageError when an operation needs an
	// initialized store and the audit_log table (or the database file) is absent.
	ErrSchemaMissing = errors.New("audit schema missing")

	// ErrInvalidShape is wrapped by a StorageError when a negative row or column count is recorded.
	ErrInvalidShape = errors.New("invalid dataset shape")
)

// StorageError is the single error kind returned by the audit store
type StorageError struct {
	Op       string
	Location string
	Err      error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("audit store %s (%s): %v", e.Op, e.Location, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsStorageError reports whether err is, or wraps, a *StorageError
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// fail wraps err into a StorageError, counting and logging it once
func fail(op string, loc Location, err error) error {
	if IsStorageError(err) {
		return err
	}
	if isMissingTable(err) {
		err = fmt.Errorf("%w: %v", ErrSchemaMissing, err)
	}

	metrics.StorageErrors.WithLabelValues(op).Inc()
	logger.Error("Audit store operation failed", "op", op, "path", loc.Path, "error", err)

	return &StorageError{Op: op, Location: loc.Path, Err: err}
}

func isMissingTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}
