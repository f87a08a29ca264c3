package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillstream/skillstream-backend/internal/domain/access"
	"github.com/skillstream/skillstream-backend/internal/repos"
	"github.com/skillstream/skillstream-backend/internal/types"
)

func newProgressService(t *testing.T, gdb *gorm.DB) ProgressService {
	t.Helper()
	log := newTestLogger(t)
	return NewProgressService(
		gdb,
		log,
		repos.NewCourseRepo(gdb, log),
		repos.NewEnrollmentRepo(gdb, log),
		repos.NewLectureProgressRepo(gdb, log),
	)
}

func TestMarkCompletedIdempotent(t *testing.T) {
	gdb := newTestDB(t)
	svc := newProgressService(t, gdb)
	ctx := context.Background()

	course := seedCourse(t, gdb, true, true, false)
	student := seedStudent(t, gdb)
	seedEnrollment(t, gdb, student.ID, course.ID, types.EnrollmentStatusActive)
	lectureID := course.Lectures[0].ID

	first, err := svc.MarkCompleted(ctx, nil, student.ID, course.ID, lectureID)
	if err != nil {
		t.Fatalf("first MarkCompleted: %v", err)
	}
	if len(first.LectureProgress) != 1 {
		t.Fatalf("expected 1 progress row, got %d", len(first.LectureProgress))
	}
	firstAt := first.LectureProgress[0].CompletedAt
	if firstAt == nil {
		t.Fatal("CompletedAt not set on first completion")
	}

	second, err := svc.MarkCompleted(ctx, nil, student.ID, course.ID, lectureID)
	if err != nil {
		t.Fatalf("repeat MarkCompleted: %v", err)
	}
	if len(second.LectureProgress) != 1 {
		t.Fatalf("repeat mark created extra rows: %d", len(second.LectureProgress))
	}
	if !second.LectureProgress[0].CompletedAt.Equal(*firstAt) {
		t.Fatalf("CompletedAt changed on repeat mark: %v -> %v", firstAt, second.LectureProgress[0].CompletedAt)
	}
	if second.LectureProgress[0].ID != first.LectureProgress[0].ID {
		t.Fatal("repeat mark replaced the original row")
	}
}

func TestMarkCompletedDrivesCompleteFlag(t *testing.T) {
	gdb := newTestDB(t)
	svc := newProgressService(t, gdb)
	ctx := context.Background()

	course := seedCourse(t, gdb, true, false, false)
	student := seedStudent(t, gdb)
	seedEnrollment(t, gdb, student.ID, course.ID, types.EnrollmentStatusActive)

	view, err := svc.MarkCompleted(ctx, nil, student.ID, course.ID, course.Lectures[0].ID)
	if err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	if view.Complete {
		t.Fatal("course reported complete with one of two lectures done")
	}

	view, err = svc.MarkCompleted(ctx, nil, student.ID, course.ID, course.Lectures[1].ID)
	if err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	if !view.Complete {
		t.Fatal("course not complete after all lectures done")
	}
}

func TestMarkCompletedRejectsForeignLecture(t *testing.T) {
	gdb := newTestDB(t)
	svc := newProgressService(t, gdb)
	ctx := context.Background()

	course := seedCourse(t, gdb, true, false)
	other := seedCourse(t, gdb, true, false)
	student := seedStudent(t, gdb)
	seedEnrollment(t, gdb, student.ID, course.ID, types.EnrollmentStatusActive)

	_, err := svc.MarkCompleted(ctx, nil, student.ID, course.ID, other.Lectures[0].ID)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for lecture from another course, got %v", err)
	}

	_, err = svc.MarkCompleted(ctx, nil, student.ID, uuid.New(), course.Lectures[0].ID)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown course, got %v", err)
	}
}

func TestGetProgressRequiresEnrollmentOrPreview(t *testing.T) {
	gdb := newTestDB(t)
	svc := newProgressService(t, gdb)
	ctx := context.Background()

	paidOnly := seedCourse(t, gdb, true, false, false)
	withPreview := seedCourse(t, gdb, true, true, false)
	student := seedStudent(t, gdb)

	if _, err := svc.GetProgress(ctx, nil, student.ID, paidOnly.ID); !errors.Is(err, access.ErrNotEnrolled) {
		t.Fatalf("expected ErrNotEnrolled for unenrolled paid course, got %v", err)
	}

	// A free preview makes the (empty) progress view readable without buying.
	view, err := svc.GetProgress(ctx, nil, student.ID, withPreview.ID)
	if err != nil {
		t.Fatalf("GetProgress on preview course: %v", err)
	}
	if view.Complete || len(view.LectureProgress) != 0 {
		t.Fatalf("expected empty incomplete view, got %+v", view)
	}

	// Pending enrollment is not enough.
	seedEnrollment(t, gdb, student.ID, paidOnly.ID, types.EnrollmentStatusPending)
	if _, err := svc.GetProgress(ctx, nil, student.ID, paidOnly.ID); !errors.Is(err, access.ErrNotEnrolled) {
		t.Fatalf("expected ErrNotEnrolled for pending enrollment, got %v", err)
	}
}

func TestGetProgressReflectsMarks(t *testing.T) {
	gdb := newTestDB(t)
	svc := newProgressService(t, gdb)
	ctx := context.Background()

	course := seedCourse(t, gdb, true, false)
	student := seedStudent(t, gdb)
	seedEnrollment(t, gdb, student.ID, course.ID, types.EnrollmentStatusActive)

	if _, err := svc.MarkCompleted(ctx, nil, student.ID, course.ID, course.Lectures[0].ID); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	view, err := svc.GetProgress(ctx, nil, student.ID, course.ID)
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	if !view.Complete {
		t.Fatal("single-lecture course should be complete after its lecture is done")
	}
	if len(view.LectureProgress) != 1 || view.LectureProgress[0].LectureID != course.Lectures[0].ID {
		t.Fatalf("unexpected progress rows: %+v", view.LectureProgress)
	}
}
