package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillstream/skillstream-backend/internal/domain/access"
	"github.com/skillstream/skillstream-backend/internal/repos"
	"github.com/skillstream/skillstream-backend/internal/requestdata"
	"github.com/skillstream/skillstream-backend/internal/sse"
	"github.com/skillstream/skillstream-backend/internal/types"
)

func newEnrollmentService(t *testing.T, gdb *gorm.DB, publisher sse.Publisher) EnrollmentService {
	t.Helper()
	log := newTestLogger(t)
	return NewEnrollmentService(gdb, log, repos.NewCourseRepo(gdb, log), repos.NewEnrollmentRepo(gdb, log), publisher)
}

func userCtx(userID uuid.UUID) context.Context {
	return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{
		UserID: userID,
		Role:   types.RoleStudent,
	})
}

func TestBeginCheckout(t *testing.T) {
	gdb := newTestDB(t)
	svc := newEnrollmentService(t, gdb, nil)

	course := seedCourse(t, gdb, true, false)
	student := seedStudent(t, gdb)
	ctx := userCtx(student.ID)

	session, err := svc.BeginCheckout(ctx, course.ID)
	if err != nil {
		t.Fatalf("BeginCheckout: %v", err)
	}
	if session.CheckoutRef == "" || session.CourseID != course.ID {
		t.Fatalf("unexpected session: %+v", session)
	}

	// Re-entering checkout reuses the pending row with a fresh ref.
	again, err := svc.BeginCheckout(ctx, course.ID)
	if err != nil {
		t.Fatalf("repeat BeginCheckout: %v", err)
	}
	if again.CheckoutRef == session.CheckoutRef {
		t.Fatal("repeat checkout should mint a fresh ref")
	}
	var count int64
	if err := gdb.Model(&types.Enrollment{}).Where("user_id = ? AND course_id = ?", student.ID, course.ID).Count(&count).Error; err != nil {
		t.Fatalf("count enrollments: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single enrollment row, found %d", count)
	}
}

func TestBeginCheckoutRejections(t *testing.T) {
	gdb := newTestDB(t)
	svc := newEnrollmentService(t, gdb, nil)

	unpublished := seedCourse(t, gdb, false, false)
	owned := seedCourse(t, gdb, true, false)
	student := seedStudent(t, gdb)
	seedEnrollment(t, gdb, student.ID, owned.ID, types.EnrollmentStatusActive)
	ctx := userCtx(student.ID)

	if _, err := svc.BeginCheckout(ctx, unpublished.ID); !errors.Is(err, access.ErrNotPublished) {
		t.Fatalf("expected ErrNotPublished, got %v", err)
	}
	if _, err := svc.BeginCheckout(ctx, owned.ID); !errors.Is(err, ErrAlreadyEnrolled) {
		t.Fatalf("expected ErrAlreadyEnrolled, got %v", err)
	}
	if _, err := svc.BeginCheckout(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.BeginCheckout(context.Background(), owned.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden without request identity, got %v", err)
	}
}

func TestCompleteCheckoutIdempotent(t *testing.T) {
	gdb := newTestDB(t)
	publisher := &capturePublisher{}
	svc := newEnrollmentService(t, gdb, publisher)

	course := seedCourse(t, gdb, true, false)
	student := seedStudent(t, gdb)
	ctx := userCtx(student.ID)

	session, err := svc.BeginCheckout(ctx, course.ID)
	if err != nil {
		t.Fatalf("BeginCheckout: %v", err)
	}

	enrollment, err := svc.CompleteCheckout(context.Background(), session.CheckoutRef)
	if err != nil {
		t.Fatalf("CompleteCheckout: %v", err)
	}
	if !enrollment.Active() || enrollment.ActivatedAt == nil {
		t.Fatalf("enrollment not activated: %+v", enrollment)
	}
	activatedAt := *enrollment.ActivatedAt

	// Webhook retry: already-active rows pass through untouched.
	retry, err := svc.CompleteCheckout(context.Background(), session.CheckoutRef)
	if err != nil {
		t.Fatalf("retry CompleteCheckout: %v", err)
	}
	if !retry.ActivatedAt.Equal(activatedAt) {
		t.Fatalf("retry moved ActivatedAt: %v -> %v", activatedAt, retry.ActivatedAt)
	}
	if publisher.count(sse.SSEEventEnrollmentActivated) != 1 {
		t.Fatal("expected exactly one EnrollmentActivated publish")
	}

	if _, err := svc.CompleteCheckout(context.Background(), "no-such-ref"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown ref, got %v", err)
	}
}

func TestGetUserEnrollments(t *testing.T) {
	gdb := newTestDB(t)
	svc := newEnrollmentService(t, gdb, nil)

	courseA := seedCourse(t, gdb, true, false)
	courseB := seedCourse(t, gdb, true, false)
	student := seedStudent(t, gdb)
	other := seedStudent(t, gdb)
	seedEnrollment(t, gdb, student.ID, courseA.ID, types.EnrollmentStatusActive)
	seedEnrollment(t, gdb, student.ID, courseB.ID, types.EnrollmentStatusPending)
	seedEnrollment(t, gdb, other.ID, courseA.ID, types.EnrollmentStatusActive)

	enrollments, err := svc.GetUserEnrollments(userCtx(student.ID))
	if err != nil {
		t.Fatalf("GetUserEnrollments: %v", err)
	}
	if len(enrollments) != 2 {
		t.Fatalf("expected 2 enrollments, got %d", len(enrollments))
	}
	for _, e := range enrollments {
		if e.UserID != student.ID {
			t.Fatalf("foreign enrollment leaked: %+v", e)
		}
	}
}
