package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/skillstream/skillstream-backend/internal/logger"
	"github.com/skillstream/skillstream-backend/internal/services"
)

type CertificateHandler struct {
	log                *logger.Logger
	certificateService services.CertificateService
}

func NewCertificateHandler(log *logger.Logger, certificateService services.CertificateService) *CertificateHandler {
	return &CertificateHandler{
		log:                log.With("handler", "CertificateHandler"),
		certificateService: certificateService,
	}
}

func (h *CertificateHandler) Get(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_course_id", err)
		return
	}
	certificate, err := h.certificateService.GetOrIssue(c.Request.Context(), courseID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"certificate": certificate})
}
