package services

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/skillstream/skillstream-backend/internal/repos"
	"github.com/skillstream/skillstream-backend/internal/types"
)

func newCourseService(t *testing.T, gdb *gorm.DB) CourseService {
	t.Helper()
	log := newTestLogger(t)
	return NewCourseService(gdb, log, repos.NewCourseRepo(gdb, log), repos.NewEnrollmentRepo(gdb, log))
}

func TestCreateCourseStartsUnpublished(t *testing.T) {
	gdb := newTestDB(t)
	svc := newCourseService(t, gdb)
	creator := seedStudent(t, gdb)

	course, err := svc.CreateCourse(userCtx(creator.ID), CreateCourseInput{Title: "  Intro to Go  ", PriceCents: 4900})
	if err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}
	if course.IsPublished {
		t.Fatal("new courses must start unpublished")
	}
	if course.Title != "Intro to Go" {
		t.Fatalf("title not trimmed: %q", course.Title)
	}
	if course.CreatorID != creator.ID {
		t.Fatalf("creator not taken from request identity: %v", course.CreatorID)
	}

	if _, err := svc.CreateCourse(userCtx(creator.ID), CreateCourseInput{Title: "   "}); err == nil {
		t.Fatal("blank title accepted")
	}
	if _, err := svc.CreateCourse(context.Background(), CreateCourseInput{Title: "x"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden without identity, got %v", err)
	}
}

func TestUpdateCoursePartialFields(t *testing.T) {
	gdb := newTestDB(t)
	svc := newCourseService(t, gdb)
	course := seedCourse(t, gdb, false, false)

	published := true
	title := "Renamed"
	updated, err := svc.UpdateCourse(context.Background(), course.ID, UpdateCourseInput{
		Title:       &title,
		IsPublished: &published,
	})
	if err != nil {
		t.Fatalf("UpdateCourse: %v", err)
	}
	if !updated.IsPublished || updated.Title != "Renamed" {
		t.Fatalf("update not applied: %+v", updated)
	}
	// Untouched fields survive a partial update.
	if updated.CreatorID != course.CreatorID {
		t.Fatal("partial update clobbered CreatorID")
	}
}

func TestGetCourseForUserBlanksLockedVideos(t *testing.T) {
	gdb := newTestDB(t)
	svc := newCourseService(t, gdb)

	course := seedCourse(t, gdb, true, true, false)
	student := seedStudent(t, gdb)

	detail, err := svc.GetCourseForUser(userCtx(student.ID), course.ID)
	if err != nil {
		t.Fatalf("GetCourseForUser: %v", err)
	}
	if detail.HasPurchased {
		t.Fatal("unenrolled caller reported as purchaser")
	}
	if len(detail.Course.Lectures) != 2 {
		t.Fatalf("expected both lectures in listing, got %d", len(detail.Course.Lectures))
	}
	if detail.Course.Lectures[0].VideoURL == "" {
		t.Fatal("free preview lost its video URL")
	}
	if detail.Course.Lectures[1].VideoURL != "" {
		t.Fatal("locked lecture leaked its video URL")
	}

	seedEnrollment(t, gdb, student.ID, course.ID, types.EnrollmentStatusActive)
	detail, err = svc.GetCourseForUser(userCtx(student.ID), course.ID)
	if err != nil {
		t.Fatalf("GetCourseForUser after enrollment: %v", err)
	}
	if !detail.HasPurchased || detail.Course.Lectures[1].VideoURL == "" {
		t.Fatal("enrollment did not unlock the paid lecture")
	}
}

func TestGetPublishedCoursesFiltersDrafts(t *testing.T) {
	gdb := newTestDB(t)
	svc := newCourseService(t, gdb)

	published := seedCourse(t, gdb, true)
	seedCourse(t, gdb, false)

	courses, err := svc.GetPublishedCourses(context.Background())
	if err != nil {
		t.Fatalf("GetPublishedCourses: %v", err)
	}
	if len(courses) != 1 || courses[0].ID != published.ID {
		t.Fatalf("expected only the published course, got %d rows", len(courses))
	}
}
