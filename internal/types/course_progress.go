package types

import "github.com/google/uuid"

// CourseProgress is the derived per-(user, course) view served to clients.
// It is never stored: Complete is recomputed from the full lecture and
// progress sets every time the underlying rows change, so a cached flag can
// never drift from the authoritative data.
type CourseProgress struct {
	UserID          uuid.UUID          `json:"user_id"`
	CourseID        uuid.UUID          `json:"course_id"`
	LectureProgress []*LectureProgress `json:"lecture_progress"`
	Complete        bool               `json:"complete"`
}
