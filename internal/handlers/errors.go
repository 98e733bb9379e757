package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"influencer-hub-backend/internal/models"
)

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrUsernameTaken), errors.Is(err, models.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, models.ErrForbidden), errors.Is(err, models.ErrBlocked):
		return http.StatusForbidden
	case errors.Is(err, models.ErrInvalidInput), errors.Is(err, models.ErrReceiverUnresolved):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrUploadFailed), errors.Is(err, models.ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, models.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorLabel(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return "unauthenticated"
	case http.StatusNotFound:
		return "not found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusBadRequest:
		return "invalid request"
	case http.StatusBadGateway:
		return "upstream failed"
	case http.StatusServiceUnavailable:
		return "unavailable"
	default:
		return "internal error"
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	c.JSON(status, models.ErrorResponse{
		Error:   errorLabel(status),
		Message: err.Error(),
	})
}

func badRequest(c *gin.Context, msg string, err error) {
	resp := models.ErrorResponse{Error: msg}
	if err != nil {
		resp.Message = err.Error()
	}
	c.JSON(http.StatusBadRequest, resp)
}
