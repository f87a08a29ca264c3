package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/skillstream/skillstream-backend/internal/logger"
	"github.com/skillstream/skillstream-backend/internal/requestdata"
	"github.com/skillstream/skillstream-backend/internal/services"
)

type ProgressHandler struct {
	log             *logger.Logger
	progressService services.ProgressService
	playerSessions  *services.PlayerSessionService
}

func NewProgressHandler(log *logger.Logger, progressService services.ProgressService, playerSessions *services.PlayerSessionService) *ProgressHandler {
	return &ProgressHandler{
		log:             log.With("handler", "ProgressHandler"),
		progressService: progressService,
		playerSessions:  playerSessions,
	}
}

func (h *ProgressHandler) GetCourseProgress(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_course_id", err)
		return
	}
	view, err := h.progressService.GetProgress(c.Request.Context(), nil, rd.UserID, courseID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, view)
}

// MarkLectureCompleted drives the player session through select + play so the
// access guard and the completion latch both run on every call.
func (h *ProgressHandler) MarkLectureCompleted(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	lectureID, err := uuid.Parse(c.Param("lectureId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_lecture_id", err)
		return
	}
	result, err := h.playerSessions.MarkLectureCompleted(c.Request.Context(), rd.UserID, lectureID)
	if err != nil {
		h.log.Warn("MarkLectureCompleted failed", "error", err, "lecture_id", lectureID)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, result)
}

// AcknowledgeCompletion re-arms the one-shot completion latch for a course.
func (h *ProgressHandler) AcknowledgeCompletion(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_course_id", err)
		return
	}
	h.playerSessions.Session(rd.UserID, courseID).AcknowledgeCompletion()
	RespondOK(c, gin.H{"acknowledged": true})
}
