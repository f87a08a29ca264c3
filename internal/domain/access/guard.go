// Package access decides whether a user may view a lecture. The guard is a
// pure function over already-loaded state; it performs no I/O and must be
// consulted before every content-serving action, never cached across
// navigations (enrollment can change concurrently, e.g. a purchase completing
// in another tab).
package access

import (
	"errors"

	"github.com/skillstream/skillstream-backend/internal/types"
)

var (
	ErrNotPublished = errors.New("course is not published")
	ErrNotEnrolled  = errors.New("course is not enrolled")
)

type Decision int

const (
	Allow Decision = iota
	DenyNotPublished
	DenyNotEnrolled
)

func (d Decision) Allowed() bool { return d == Allow }

// Err maps a deny decision to its sentinel error; Allow maps to nil.
func (d Decision) Err() error {
	switch d {
	case DenyNotPublished:
		return ErrNotPublished
	case DenyNotEnrolled:
		return ErrNotEnrolled
	default:
		return nil
	}
}

// CanAccess evaluates the gating policy in order: unpublished courses deny
// everything, free-preview lectures are open to anyone, everything else
// requires an active enrollment.
func CanAccess(course *types.Course, lecture *types.Lecture, enrolled bool) Decision {
	if course == nil || !course.IsPublished {
		return DenyNotPublished
	}
	if lecture != nil && lecture.IsPreviewFree {
		return Allow
	}
	if enrolled {
		return Allow
	}
	return DenyNotEnrolled
}
