package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillstream/skillstream-backend/internal/domain/access"
	"github.com/skillstream/skillstream-backend/internal/logger"
	"github.com/skillstream/skillstream-backend/internal/repos"
	"github.com/skillstream/skillstream-backend/internal/requestdata"
	"github.com/skillstream/skillstream-backend/internal/types"
)

type CreateCourseInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Level       string `json:"level"`
	PriceCents  int64  `json:"price_cents"`
	ImageURL    string `json:"image_url"`
}

type UpdateCourseInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Level       *string `json:"level"`
	PriceCents  *int64  `json:"price_cents"`
	ImageURL    *string `json:"image_url"`
	IsPublished *bool   `json:"is_published"`
}

// CourseDetail is the learner-facing course payload: the ordered lectures with
// playback capabilities stripped wherever the access guard denies the caller.
type CourseDetail struct {
	Course       *types.Course `json:"course"`
	HasPurchased bool          `json:"has_purchased"`
}

type CourseService interface {
	CreateCourse(ctx context.Context, input CreateCourseInput) (*types.Course, error)
	UpdateCourse(ctx context.Context, courseID uuid.UUID, input UpdateCourseInput) (*types.Course, error)
	GetPublishedCourses(ctx context.Context) ([]*types.Course, error)
	GetCourseForUser(ctx context.Context, courseID uuid.UUID) (*CourseDetail, error)
	GetCreatorCourses(ctx context.Context) ([]*types.Course, error)
}

type courseService struct {
	db             *gorm.DB
	log            *logger.Logger
	courseRepo     repos.CourseRepo
	enrollmentRepo repos.EnrollmentRepo
}

func NewCourseService(
	db *gorm.DB,
	baseLog *logger.Logger,
	courseRepo repos.CourseRepo,
	enrollmentRepo repos.EnrollmentRepo,
) CourseService {
	return &courseService{
		db:             db,
		log:            baseLog.With("service", "CourseService"),
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
	}
}

func (cs *courseService) CreateCourse(ctx context.Context, input CreateCourseInput) (*types.Course, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, ErrForbidden
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("a course title is required")
	}
	course := &types.Course{
		ID:          uuid.New(),
		CreatorID:   rd.UserID,
		Title:       title,
		Description: input.Description,
		Category:    input.Category,
		Level:       input.Level,
		PriceCents:  input.PriceCents,
		ImageURL:    input.ImageURL,
		// New courses start unpublished; publishing is an explicit update.
		IsPublished: false,
	}
	if _, err := cs.courseRepo.Create(ctx, nil, []*types.Course{course}); err != nil {
		cs.log.Error("CreateCourse failed", "error", err)
		return nil, storeErr("create course", err)
	}
	return course, nil
}

func (cs *courseService) UpdateCourse(ctx context.Context, courseID uuid.UUID, input UpdateCourseInput) (*types.Course, error) {
	courses, err := cs.courseRepo.GetByIDs(ctx, nil, []uuid.UUID{courseID})
	if err != nil {
		return nil, storeErr("load course", err)
	}
	if len(courses) == 0 || courses[0] == nil {
		return nil, fmt.Errorf("course %s: %w", courseID, ErrNotFound)
	}
	course := courses[0]
	if input.Title != nil {
		course.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		course.Description = *input.Description
	}
	if input.Category != nil {
		course.Category = *input.Category
	}
	if input.Level != nil {
		course.Level = *input.Level
	}
	if input.PriceCents != nil {
		course.PriceCents = *input.PriceCents
	}
	if input.ImageURL != nil {
		course.ImageURL = *input.ImageURL
	}
	if input.IsPublished != nil {
		course.IsPublished = *input.IsPublished
	}
	if err := cs.courseRepo.Update(ctx, nil, course); err != nil {
		cs.log.Error("UpdateCourse failed", "error", err, "course_id", courseID)
		return nil, storeErr("update course", err)
	}
	return course, nil
}

func (cs *courseService) GetPublishedCourses(ctx context.Context) ([]*types.Course, error) {
	courses, err := cs.courseRepo.GetPublished(ctx, nil)
	if err != nil {
		return nil, storeErr("load published courses", err)
	}
	return courses, nil
}

// GetCourseForUser returns the course with its ordered lectures plus the
// caller's purchase flag. The guard runs per lecture and the video capability
// is blanked on every deny, so locked content never leaves the server.
func (cs *courseService) GetCourseForUser(ctx context.Context, courseID uuid.UUID) (*CourseDetail, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, ErrForbidden
	}
	courses, err := cs.courseRepo.GetByIDsWithLectures(ctx, nil, []uuid.UUID{courseID})
	if err != nil {
		return nil, storeErr("load course", err)
	}
	if len(courses) == 0 || courses[0] == nil {
		return nil, fmt.Errorf("course %s: %w", courseID, ErrNotFound)
	}
	course := courses[0]
	enrollment, err := cs.enrollmentRepo.GetByUserAndCourseID(ctx, nil, rd.UserID, courseID)
	if err != nil {
		return nil, storeErr("load enrollment", err)
	}
	enrolled := enrollment.Active()
	for _, lecture := range course.Lectures {
		if !access.CanAccess(course, lecture, enrolled).Allowed() {
			lecture.VideoURL = ""
		}
	}
	return &CourseDetail{Course: course, HasPurchased: enrolled}, nil
}

func (cs *courseService) GetCreatorCourses(ctx context.Context) ([]*types.Course, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, ErrForbidden
	}
	courses, err := cs.courseRepo.GetByCreatorIDs(ctx, nil, []uuid.UUID{rd.UserID})
	if err != nil {
		return nil, storeErr("load creator courses", err)
	}
	return courses, nil
}
