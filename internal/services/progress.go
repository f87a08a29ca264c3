package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillstream/skillstream-backend/internal/domain/access"
	"github.com/skillstream/skillstream-backend/internal/domain/completion"
	"github.com/skillstream/skillstream-backend/internal/logger"
	"github.com/skillstream/skillstream-backend/internal/repos"
	"github.com/skillstream/skillstream-backend/internal/types"
)

// ProgressService is the lecture progress store: it owns LectureProgress rows
// and the derived CourseProgress view. Writes and the complete-flag
// recomputation happen inside one transaction, so a caller always reads its
// own just-completed write.
type ProgressService interface {
	MarkCompleted(ctx context.Context, tx *gorm.DB, userID, courseID, lectureID uuid.UUID) (*types.CourseProgress, error)
	GetProgress(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*types.CourseProgress, error)
}

type progressService struct {
	db             *gorm.DB
	log            *logger.Logger
	courseRepo     repos.CourseRepo
	enrollmentRepo repos.EnrollmentRepo
	progressRepo   repos.LectureProgressRepo
}

func NewProgressService(
	db *gorm.DB,
	baseLog *logger.Logger,
	courseRepo repos.CourseRepo,
	enrollmentRepo repos.EnrollmentRepo,
	progressRepo repos.LectureProgressRepo,
) ProgressService {
	return &progressService{
		db:             db,
		log:            baseLog.With("service", "ProgressService"),
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		progressRepo:   progressRepo,
	}
}

// MarkCompleted is idempotent: the first call creates the row with
// CompletedAt=now, later calls are no-ops that leave CompletedAt untouched.
func (ps *progressService) MarkCompleted(ctx context.Context, tx *gorm.DB, userID, courseID, lectureID uuid.UUID) (*types.CourseProgress, error) {
	var view *types.CourseProgress
	transaction := tx
	if transaction == nil {
		transaction = ps.db
	}
	err := transaction.WithContext(ctx).Transaction(func(innerTx *gorm.DB) error {
		course, err := ps.loadCourse(ctx, innerTx, courseID)
		if err != nil {
			return err
		}
		if !lectureBelongs(course, lectureID) {
			return fmt.Errorf("lecture %s not in course %s: %w", lectureID, courseID, ErrNotFound)
		}
		now := time.Now()
		row := &types.LectureProgress{
			ID:          uuid.New(),
			UserID:      userID,
			CourseID:    courseID,
			LectureID:   lectureID,
			Completed:   true,
			CompletedAt: &now,
		}
		if err := ps.progressRepo.CreateIfAbsent(ctx, innerTx, row); err != nil {
			return storeErr("persist lecture progress", err)
		}
		view, err = ps.buildView(ctx, innerTx, userID, course)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (ps *progressService) GetProgress(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*types.CourseProgress, error) {
	transaction := tx
	if transaction == nil {
		transaction = ps.db
	}
	course, err := ps.loadCourse(ctx, transaction, courseID)
	if err != nil {
		return nil, err
	}
	enrollment, err := ps.enrollmentRepo.GetByUserAndCourseID(ctx, transaction, userID, courseID)
	if err != nil {
		return nil, storeErr("load enrollment", err)
	}
	if !enrollment.Active() && !course.HasFreePreview() {
		return nil, access.ErrNotEnrolled
	}
	return ps.buildView(ctx, transaction, userID, course)
}

func (ps *progressService) loadCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (*types.Course, error) {
	courses, err := ps.courseRepo.GetByIDsWithLectures(ctx, tx, []uuid.UUID{courseID})
	if err != nil {
		return nil, storeErr("load course", err)
	}
	if len(courses) == 0 || courses[0] == nil {
		return nil, fmt.Errorf("course %s: %w", courseID, ErrNotFound)
	}
	return courses[0], nil
}

func (ps *progressService) buildView(ctx context.Context, tx *gorm.DB, userID uuid.UUID, course *types.Course) (*types.CourseProgress, error) {
	rows, err := ps.progressRepo.GetByUserAndCourseID(ctx, tx, userID, course.ID)
	if err != nil {
		return nil, storeErr("load lecture progress", err)
	}
	return &types.CourseProgress{
		UserID:          userID,
		CourseID:        course.ID,
		LectureProgress: rows,
		Complete:        completion.Evaluate(course.LectureIDs(), rows),
	}, nil
}

func lectureBelongs(course *types.Course, lectureID uuid.UUID) bool {
	for _, l := range course.Lectures {
		if l != nil && l.ID == lectureID {
			return true
		}
	}
	return false
}
