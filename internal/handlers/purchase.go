package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/skillstream/skillstream-backend/internal/logger"
	"github.com/skillstream/skillstream-backend/internal/services"
)

type PurchaseHandler struct {
	log               *logger.Logger
	enrollmentService services.EnrollmentService
}

func NewPurchaseHandler(log *logger.Logger, enrollmentService services.EnrollmentService) *PurchaseHandler {
	return &PurchaseHandler{
		log:               log.With("handler", "PurchaseHandler"),
		enrollmentService: enrollmentService,
	}
}

func (h *PurchaseHandler) Checkout(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_course_id", err)
		return
	}
	session, err := h.enrollmentService.BeginCheckout(c.Request.Context(), courseID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, session)
}

// Webhook is called by the payment collaborator once a checkout settles.
func (h *PurchaseHandler) Webhook(c *gin.Context) {
	var body struct {
		CheckoutRef string `json:"checkout_ref"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	enrollment, err := h.enrollmentService.CompleteCheckout(c.Request.Context(), body.CheckoutRef)
	if err != nil {
		h.log.Warn("Checkout completion failed", "error", err, "checkout_ref", body.CheckoutRef)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"enrollment": enrollment})
}

func (h *PurchaseHandler) ListEnrollments(c *gin.Context) {
	enrollments, err := h.enrollmentService.GetUserEnrollments(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"enrollments": enrollments})
}
