package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillstream/skillstream-backend/internal/logger"
	"github.com/skillstream/skillstream-backend/internal/types"
)

type CertificateRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.Certificate) error
	GetByUserAndCourseID(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*types.Certificate, error)
}

type certificateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCertificateRepo(db *gorm.DB, baseLog *logger.Logger) CertificateRepo {
	return &certificateRepo{db: db, log: baseLog.With("repo", "CertificateRepo")}
}

func (r *certificateRepo) Create(ctx context.Context, tx *gorm.DB, row *types.Certificate) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if row == nil {
		return nil
	}
	return transaction.WithContext(ctx).Create(row).Error
}

func (r *certificateRepo) GetByUserAndCourseID(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*types.Certificate, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Certificate
	if userID == uuid.Nil || courseID == uuid.Nil {
		return nil, nil
	}
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}
