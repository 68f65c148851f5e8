package response

import (
	"errors"
	"net/http"

	"reservio/internal/shared/apperrors"

	"github.com/gin-gonic/gin"
)

func RespondJSON(c *gin.Context, status string, code int, message string, data interface{}, errs interface{}) {
	c.JSON(code, StandardApiResponse{
		Status:     status,
		StatusCode: code,
		Message:    message,
		Data:       data,
		Errors:     errs,
	})
}

// RespondError maps a core error to the matching HTTP status and envelope.
func RespondError(c *gin.Context, message string, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		code = http.StatusBadRequest
	case errors.Is(err, apperrors.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, apperrors.ErrCapacityExceeded):
		code = http.StatusConflict
	case errors.Is(err, apperrors.ErrInvalidStateTransition):
		code = http.StatusUnprocessableEntity
	case errors.Is(err, apperrors.ErrConcurrencyConflict):
		code = http.StatusConflict
	case errors.Is(err, apperrors.ErrExternalService):
		code = http.StatusBadGateway
	}
	RespondJSON(c, "error", code, message, nil, err.Error())
}
