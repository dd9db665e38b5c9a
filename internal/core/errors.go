package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a job id does not exist.
	ErrNotFound = errors.New("job not found")

	// ErrPoolSaturated is returned when every pickup slot is occupied by
	// an active job and a new submission cannot be admitted.
	ErrPoolSaturated = errors.New("all pickup slots are currently active")

	// ErrAllocationConflict is returned when the slot-counter transaction
	// could not commit; callers retry a bounded number of times.
	ErrAllocationConflict = errors.New("slot counter update conflict")

	// ErrAllocationFailed is returned once allocation retries are exhausted.
	ErrAllocationFailed = errors.New("failed to assign a pickup slot")

	// ErrInvalidTransition is returned for a status change that is not in
	// the transition table for the job's current status.
	ErrInvalidTransition = errors.New("status change not allowed from current state")

	// ErrForbidden is returned when the actor lacks the role or ownership
	// required for an operation.
	ErrForbidden = errors.New("operation not permitted for this account")
)

// ValidationError reports a user-correctable problem with a submission.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func validationf(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StorageError wraps a blob-store failure with the operation and path
// that failed.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsStorage reports whether err is a StorageError.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
