package services

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks a referential mismatch (unknown course/lecture, or a
	// lecture that does not belong to the course it was addressed through).
	// It is a data error, never silently swallowed.
	ErrNotFound = errors.New("record not found")
	// ErrStoreUnavailable wraps backend/storage failures. Callers may retry;
	// the in-memory player state machine is left intact.
	ErrStoreUnavailable = errors.New("store unavailable")

	ErrForbidden         = errors.New("forbidden")
	ErrAlreadyEnrolled   = errors.New("course already enrolled")
	ErrCourseNotComplete = errors.New("course not complete")
	ErrInvalidCredential = errors.New("invalid credentials")
)

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrStoreUnavailable, err)
}
