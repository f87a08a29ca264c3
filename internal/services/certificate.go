package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillstream/skillstream-backend/internal/logger"
	"github.com/skillstream/skillstream-backend/internal/repos"
	"github.com/skillstream/skillstream-backend/internal/requestdata"
	"github.com/skillstream/skillstream-backend/internal/types"
)

// CertificateService issues the completion certificate record. Issuance is
// gated on the recomputed progress view, never on a cached complete flag.
type CertificateService interface {
	GetOrIssue(ctx context.Context, courseID uuid.UUID) (*types.Certificate, error)
}

type certificateService struct {
	db              *gorm.DB
	log             *logger.Logger
	certificateRepo repos.CertificateRepo
	progress        ProgressService
}

func NewCertificateService(
	db *gorm.DB,
	baseLog *logger.Logger,
	certificateRepo repos.CertificateRepo,
	progress ProgressService,
) CertificateService {
	return &certificateService{
		db:              db,
		log:             baseLog.With("service", "CertificateService"),
		certificateRepo: certificateRepo,
		progress:        progress,
	}
}

func (cs *certificateService) GetOrIssue(ctx context.Context, courseID uuid.UUID) (*types.Certificate, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, ErrForbidden
	}
	existing, err := cs.certificateRepo.GetByUserAndCourseID(ctx, nil, rd.UserID, courseID)
	if err != nil {
		return nil, storeErr("load certificate", err)
	}
	if existing != nil {
		return existing, nil
	}
	view, err := cs.progress.GetProgress(ctx, nil, rd.UserID, courseID)
	if err != nil {
		return nil, err
	}
	if !view.Complete {
		return nil, fmt.Errorf("course %s: %w", courseID, ErrCourseNotComplete)
	}
	cert := &types.Certificate{
		ID:       uuid.New(),
		UserID:   rd.UserID,
		CourseID: courseID,
		Serial:   newSerial(),
		IssuedAt: time.Now(),
	}
	if err := cs.certificateRepo.Create(ctx, nil, cert); err != nil {
		return nil, storeErr("create certificate", err)
	}
	cs.log.Info("Certificate issued", "course_id", courseID, "user_id", rd.UserID, "serial", cert.Serial)
	return cert, nil
}

func newSerial() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "CERT-" + strings.ToUpper(raw[:12])
}
