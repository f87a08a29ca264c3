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

type CreateLectureInput struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	VideoURL      string `json:"video_url"`
	IsPreviewFree bool   `json:"is_preview_free"`
}

type UpdateLectureInput struct {
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	VideoURL      *string `json:"video_url"`
	IsPreviewFree *bool   `json:"is_preview_free"`
}

// LectureView is the learner-facing listing entry: locked lectures keep their
// metadata for the sidebar but lose the playback capability.
type LectureView struct {
	Lecture *types.Lecture `json:"lecture"`
	Locked  bool           `json:"locked"`
}

type LectureService interface {
	CreateLecture(ctx context.Context, courseID uuid.UUID, input CreateLectureInput) (*types.Lecture, error)
	UpdateLecture(ctx context.Context, lectureID uuid.UUID, input UpdateLectureInput) (*types.Lecture, error)
	GetCourseLectures(ctx context.Context, courseID uuid.UUID) ([]*LectureView, error)
}

type lectureService struct {
	db             *gorm.DB
	log            *logger.Logger
	courseRepo     repos.CourseRepo
	lectureRepo    repos.LectureRepo
	enrollmentRepo repos.EnrollmentRepo
}

func NewLectureService(
	db *gorm.DB,
	baseLog *logger.Logger,
	courseRepo repos.CourseRepo,
	lectureRepo repos.LectureRepo,
	enrollmentRepo repos.EnrollmentRepo,
) LectureService {
	return &lectureService{
		db:             db,
		log:            baseLog.With("service", "LectureService"),
		courseRepo:     courseRepo,
		lectureRepo:    lectureRepo,
		enrollmentRepo: enrollmentRepo,
	}
}

func (ls *lectureService) CreateLecture(ctx context.Context, courseID uuid.UUID, input CreateLectureInput) (*types.Lecture, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("a lecture title is required")
	}
	var lecture *types.Lecture
	err := ls.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		courses, err := ls.courseRepo.GetByIDs(ctx, tx, []uuid.UUID{courseID})
		if err != nil {
			return storeErr("load course", err)
		}
		if len(courses) == 0 || courses[0] == nil {
			return fmt.Errorf("course %s: %w", courseID, ErrNotFound)
		}
		maxPos, err := ls.lectureRepo.MaxPositionForCourse(ctx, tx, courseID)
		if err != nil {
			return storeErr("resolve lecture position", err)
		}
		lecture = &types.Lecture{
			ID:            uuid.New(),
			CourseID:      courseID,
			Title:         title,
			Description:   input.Description,
			Position:      maxPos + 1,
			VideoURL:      input.VideoURL,
			IsPreviewFree: input.IsPreviewFree,
		}
		if _, err := ls.lectureRepo.Create(ctx, tx, []*types.Lecture{lecture}); err != nil {
			return storeErr("create lecture", err)
		}
		return nil
	})
	if err != nil {
		ls.log.Error("CreateLecture failed", "error", err, "course_id", courseID)
		return nil, err
	}
	return lecture, nil
}

func (ls *lectureService) UpdateLecture(ctx context.Context, lectureID uuid.UUID, input UpdateLectureInput) (*types.Lecture, error) {
	lectures, err := ls.lectureRepo.GetByIDs(ctx, nil, []uuid.UUID{lectureID})
	if err != nil {
		return nil, storeErr("load lecture", err)
	}
	if len(lectures) == 0 || lectures[0] == nil {
		return nil, fmt.Errorf("lecture %s: %w", lectureID, ErrNotFound)
	}
	lecture := lectures[0]
	if input.Title != nil {
		lecture.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		lecture.Description = *input.Description
	}
	if input.VideoURL != nil {
		lecture.VideoURL = *input.VideoURL
	}
	if input.IsPreviewFree != nil {
		lecture.IsPreviewFree = *input.IsPreviewFree
	}
	if err := ls.lectureRepo.Update(ctx, nil, lecture); err != nil {
		ls.log.Error("UpdateLecture failed", "error", err, "lecture_id", lectureID)
		return nil, storeErr("update lecture", err)
	}
	return lecture, nil
}

func (ls *lectureService) GetCourseLectures(ctx context.Context, courseID uuid.UUID) ([]*LectureView, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, ErrForbidden
	}
	courses, err := ls.courseRepo.GetByIDsWithLectures(ctx, nil, []uuid.UUID{courseID})
	if err != nil {
		return nil, storeErr("load course", err)
	}
	if len(courses) == 0 || courses[0] == nil {
		return nil, fmt.Errorf("course %s: %w", courseID, ErrNotFound)
	}
	course := courses[0]
	enrollment, err := ls.enrollmentRepo.GetByUserAndCourseID(ctx, nil, rd.UserID, courseID)
	if err != nil {
		return nil, storeErr("load enrollment", err)
	}
	enrolled := enrollment.Active()

	views := make([]*LectureView, 0, len(course.Lectures))
	for _, lecture := range course.Lectures {
		locked := !access.CanAccess(course, lecture, enrolled).Allowed()
		if locked {
			lecture.VideoURL = ""
		}
		views = append(views, &LectureView{Lecture: lecture, Locked: locked})
	}
	return views, nil
}
