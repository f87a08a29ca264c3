// Package completion derives the course-complete flag from the authoritative
// lecture and progress sets. Nothing else in the codebase is allowed to decide
// completeness; callers recompute through Evaluate instead of trusting a
// stored boolean.
package completion

import (
	"github.com/google/uuid"

	"github.com/skillstream/skillstream-backend/internal/types"
)

// Evaluate reports whether every lecture id has a completed progress record.
// A course with zero lectures is never complete, so an empty course cannot
// mint certificates. The result does not depend on record order and duplicate
// or stray progress rows are ignored.
func Evaluate(lectureIDs []uuid.UUID, progress []*types.LectureProgress) bool {
	if len(lectureIDs) == 0 {
		return false
	}
	done := make(map[uuid.UUID]bool, len(progress))
	for _, p := range progress {
		if p != nil && p.Completed {
			done[p.LectureID] = true
		}
	}
	for _, id := range lectureIDs {
		if !done[id] {
			return false
		}
	}
	return true
}
