package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/skillstream/skillstream-backend/internal/services"
)

type LectureHandler struct {
	lectureService services.LectureService
}

func NewLectureHandler(lectureService services.LectureService) *LectureHandler {
	return &LectureHandler{lectureService: lectureService}
}

func (h *LectureHandler) Create(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_course_id", err)
		return
	}
	var input services.CreateLectureInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	lecture, err := h.lectureService.CreateLecture(c.Request.Context(), courseID, input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"lecture": lecture})
}

func (h *LectureHandler) Update(c *gin.Context) {
	lectureID, err := uuid.Parse(c.Param("lectureId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_lecture_id", err)
		return
	}
	var input services.UpdateLectureInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	lecture, err := h.lectureService.UpdateLecture(c.Request.Context(), lectureID, input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"lecture": lecture})
}

func (h *LectureHandler) ListByCourse(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_course_id", err)
		return
	}
	lectures, err := h.lectureService.GetCourseLectures(c.Request.Context(), courseID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"lectures": lectures})
}
