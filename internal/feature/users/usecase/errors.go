// Package usecase implements the business logic for the users feature.
package usecase

import (
	"errors"
	"fmt"
)

// Field names carried by UniquenessError.
const (
	FieldUsername = "username"
	FieldEmail    = "email"
)

var (
	// ErrUserNotFound is returned when no live user matches the given
	// ID, username or email. Soft-deleted records report not-found.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidCredentials is returned when authentication fails,
	// whether the user is missing, inactive or the password is wrong.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// UniquenessError indicates a username or email collision among live
// records, detected either by a pre-flight check or by the database
// unique constraint.
type UniquenessError struct {
	Field string
}

func (e *UniquenessError) Error() string {
	if e.Field == "" {
		return "duplicate value for a unique field"
	}
	return fmt.Sprintf("%s already exists", e.Field)
}

// VersionConflictError indicates a stale write: the caller presented a
// version that no longer matches the record. The record is unchanged.
type VersionConflictError struct {
	Expected int
	Actual   int
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("version conflict: expected %d, current version is %d", e.Expected, e.Actual)
}
