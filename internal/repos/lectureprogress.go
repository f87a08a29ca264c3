package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/skillstream/skillstream-backend/internal/logger"
	"github.com/skillstream/skillstream-backend/internal/types"
)

type LectureProgressRepo interface {
	// CreateIfAbsent inserts a completion row unless one already exists for the
	// (user, lecture) pair. First write wins: an existing row keeps its
	// CompletedAt untouched, which is what makes concurrent marks from two
	// sessions converge on a single record with a single timestamp.
	CreateIfAbsent(ctx context.Context, tx *gorm.DB, row *types.LectureProgress) error
	GetByUserAndCourseID(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) ([]*types.LectureProgress, error)
	GetByUserAndLectureID(ctx context.Context, tx *gorm.DB, userID, lectureID uuid.UUID) (*types.LectureProgress, error)
}

type lectureProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLectureProgressRepo(db *gorm.DB, baseLog *logger.Logger) LectureProgressRepo {
	return &lectureProgressRepo{db: db, log: baseLog.With("repo", "LectureProgressRepo")}
}

func (r *lectureProgressRepo) CreateIfAbsent(ctx context.Context, tx *gorm.DB, row *types.LectureProgress) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if row == nil {
		return nil
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "lecture_id"}},
			DoNothing: true,
		}).
		Create(row).Error
}

func (r *lectureProgressRepo) GetByUserAndCourseID(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) ([]*types.LectureProgress, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.LectureProgress
	if userID == uuid.Nil || courseID == uuid.Nil {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *lectureProgressRepo) GetByUserAndLectureID(ctx context.Context, tx *gorm.DB, userID, lectureID uuid.UUID) (*types.LectureProgress, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.LectureProgress
	if userID == uuid.Nil || lectureID == uuid.Nil {
		return nil, nil
	}
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND lecture_id = ?", userID, lectureID).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}
