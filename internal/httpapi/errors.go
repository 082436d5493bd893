package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alexanderramin/timeledger/internal/domain"
)

// APIError is the error envelope every handler writes.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

func newAPIError(status int, code, message string) *APIError {
	return &APIError{Status: status, Code: code, Message: message}
}

func badRequest(code, message string) *APIError {
	return newAPIError(http.StatusBadRequest, code, message)
}

func unauthorized(message string) *APIError {
	if message == "" {
		message = "unauthorized"
	}
	return newAPIError(http.StatusUnauthorized, "unauthorized", message)
}

// fromError maps an engine error onto its HTTP shape.
func fromError(err error) *APIError {
	var ve *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrFutureDateNotAllowed):
		return badRequest("future_date_not_allowed", err.Error())
	case errors.As(err, &ve):
		e := badRequest("validation_failed", err.Error())
		e.Details = gin.H{"field": ve.Field}
		return e
	case domain.IsValidation(err):
		return badRequest("validation_failed", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return newAPIError(http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrForbidden):
		return newAPIError(http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, domain.ErrTrackingDisabled):
		return newAPIError(http.StatusConflict, "tracking_disabled", err.Error())
	case errors.Is(err, domain.ErrNoRunningLog):
		return newAPIError(http.StatusConflict, "no_running_log", err.Error())
	default:
		return newAPIError(http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeError(c *gin.Context, apiErr *APIError) {
	body := gin.H{
		"code":    apiErr.Code,
		"message": apiErr.Message,
	}
	if apiErr.Details != nil {
		body["details"] = apiErr.Details
	}
	c.AbortWithStatusJSON(apiErr.Status, gin.H{"error": body})
}
