package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillstream/skillstream-backend/internal/domain/access"
	"github.com/skillstream/skillstream-backend/internal/logger"
	"github.com/skillstream/skillstream-backend/internal/repos"
	"github.com/skillstream/skillstream-backend/internal/requestdata"
	"github.com/skillstream/skillstream-backend/internal/sse"
	"github.com/skillstream/skillstream-backend/internal/types"
)

// CheckoutSession is the reference handed to the payment collaborator. The
// provider integration itself lives outside this service; we only keep the
// enrollment record moving through pending -> active.
type CheckoutSession struct {
	CheckoutRef string    `json:"checkout_ref"`
	CourseID    uuid.UUID `json:"course_id"`
	AmountCents int64     `json:"amount_cents"`
}

type EnrollmentService interface {
	BeginCheckout(ctx context.Context, courseID uuid.UUID) (*CheckoutSession, error)
	// CompleteCheckout is the webhook side: idempotent activation by ref.
	CompleteCheckout(ctx context.Context, checkoutRef string) (*types.Enrollment, error)
	GetUserEnrollments(ctx context.Context) ([]*types.Enrollment, error)
}

type enrollmentService struct {
	db             *gorm.DB
	log            *logger.Logger
	courseRepo     repos.CourseRepo
	enrollmentRepo repos.EnrollmentRepo
	publisher      sse.Publisher
}

func NewEnrollmentService(
	db *gorm.DB,
	baseLog *logger.Logger,
	courseRepo repos.CourseRepo,
	enrollmentRepo repos.EnrollmentRepo,
	publisher sse.Publisher,
) EnrollmentService {
	return &enrollmentService{
		db:             db,
		log:            baseLog.With("service", "EnrollmentService"),
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		publisher:      publisher,
	}
}

func (es *enrollmentService) BeginCheckout(ctx context.Context, courseID uuid.UUID) (*CheckoutSession, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, ErrForbidden
	}
	var session *CheckoutSession
	err := es.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		courses, err := es.courseRepo.GetByIDs(ctx, tx, []uuid.UUID{courseID})
		if err != nil {
			return storeErr("load course", err)
		}
		if len(courses) == 0 || courses[0] == nil {
			return fmt.Errorf("course %s: %w", courseID, ErrNotFound)
		}
		course := courses[0]
		if !course.IsPublished {
			return access.ErrNotPublished
		}
		existing, err := es.enrollmentRepo.GetByUserAndCourseID(ctx, tx, rd.UserID, courseID)
		if err != nil {
			return storeErr("load enrollment", err)
		}
		if existing.Active() {
			return ErrAlreadyEnrolled
		}
		ref := uuid.New().String()
		if existing != nil {
			// Re-entering checkout reuses the pending row with a fresh ref.
			existing.CheckoutRef = ref
			if err := es.enrollmentRepo.Update(ctx, tx, existing); err != nil {
				return storeErr("refresh pending enrollment", err)
			}
		} else {
			row := &types.Enrollment{
				ID:          uuid.New(),
				UserID:      rd.UserID,
				CourseID:    courseID,
				Status:      types.EnrollmentStatusPending,
				CheckoutRef: ref,
			}
			if _, err := es.enrollmentRepo.Create(ctx, tx, []*types.Enrollment{row}); err != nil {
				return storeErr("create pending enrollment", err)
			}
		}
		session = &CheckoutSession{CheckoutRef: ref, CourseID: courseID, AmountCents: course.PriceCents}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (es *enrollmentService) CompleteCheckout(ctx context.Context, checkoutRef string) (*types.Enrollment, error) {
	enrollment, err := es.enrollmentRepo.GetByCheckoutRef(ctx, nil, checkoutRef)
	if err != nil {
		return nil, storeErr("load enrollment by ref", err)
	}
	if enrollment == nil {
		return nil, fmt.Errorf("checkout ref %q: %w", checkoutRef, ErrNotFound)
	}
	if enrollment.Active() {
		// Webhook retries are expected; activation happens once.
		return enrollment, nil
	}
	now := time.Now()
	enrollment.Status = types.EnrollmentStatusActive
	enrollment.ActivatedAt = &now
	if err := es.enrollmentRepo.Update(ctx, nil, enrollment); err != nil {
		return nil, storeErr("activate enrollment", err)
	}
	es.log.Info("Enrollment activated", "course_id", enrollment.CourseID, "user_id", enrollment.UserID)
	if es.publisher != nil {
		es.publisher.Publish(sse.SSEMessage{
			Channel: enrollment.UserID.String(),
			Event:   sse.SSEEventEnrollmentActivated,
			Data:    map[string]any{"course_id": enrollment.CourseID},
		})
	}
	return enrollment, nil
}

func (es *enrollmentService) GetUserEnrollments(ctx context.Context) ([]*types.Enrollment, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, ErrForbidden
	}
	enrollments, err := es.enrollmentRepo.GetByUserID(ctx, nil, rd.UserID)
	if err != nil {
		return nil, storeErr("load enrollments", err)
	}
	return enrollments, nil
}
