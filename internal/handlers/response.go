package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skillstream/skillstream-backend/internal/domain/access"
	"github.com/skillstream/skillstream-backend/internal/services"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondServiceError translates the service error taxonomy to HTTP. Access
// denials carry codes the UI routes on (purchase prompt vs. hard failure);
// store unavailability is the only retryable case.
func RespondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, access.ErrNotPublished):
		RespondError(c, http.StatusForbidden, "not_published", err)
	case errors.Is(err, access.ErrNotEnrolled):
		RespondError(c, http.StatusForbidden, "not_enrolled", err)
	case errors.Is(err, services.ErrNotFound):
		RespondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, services.ErrForbidden):
		RespondError(c, http.StatusForbidden, "forbidden", err)
	case errors.Is(err, services.ErrAlreadyEnrolled):
		RespondError(c, http.StatusConflict, "already_enrolled", err)
	case errors.Is(err, services.ErrCourseNotComplete):
		RespondError(c, http.StatusForbidden, "course_not_complete", err)
	case errors.Is(err, services.ErrInvalidCredential):
		RespondError(c, http.StatusUnauthorized, "invalid_credentials", err)
	case errors.Is(err, services.ErrStoreUnavailable):
		RespondError(c, http.StatusServiceUnavailable, "store_unavailable", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal_error", err)
	}
}
