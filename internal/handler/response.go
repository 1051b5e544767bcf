package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"dispatch/internal/repository"
	"dispatch/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidRiderID),
		errors.Is(err, service.ErrInvalidRideID),
		errors.Is(err, service.ErrInvalidDriverID),
		errors.Is(err, service.ErrInvalidWalletID),
		errors.Is(err, service.ErrInvalidCellIndex),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidSurgeWindow),
		errors.Is(err, service.ErrCancelActorRequired),
		errors.Is(err, service.ErrRegionNotServiceable):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, service.ErrRideAlreadyAssigned),
		errors.Is(err, service.ErrOTPAlreadyVerified),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrDispatchContention):
		return http.StatusConflict

	// Forbidden/Business rule errors
	case errors.Is(err, service.ErrInvalidOTP):
		return http.StatusForbidden

	// Payment required style business failures
	case errors.Is(err, service.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity

	// Service unavailable: reference data the operation cannot run without
	case errors.Is(err, service.ErrPricingNotFound):
		return http.StatusServiceUnavailable

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
