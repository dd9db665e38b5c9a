package db

import (
	"errors"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// IsConflict reports whether err is a transient lock failure, meaning the
// transaction can be retried.
func IsConflict(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
	}
	return false
}

// IsConstraint reports whether err is a uniqueness or other constraint
// violation.
func IsConstraint(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrConstraint
	}
	return false
}
