package handler

import (
	"errors"
	"net/http"

	"backend/internal/apperror"
	"backend/internal/workflow"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// statusFor maps error kinds to HTTP status codes.
func statusFor(err error) int {
	var transitionErr *workflow.InvalidTransitionError
	switch {
	case apperror.IsKind(err, apperror.ErrValidation):
		return http.StatusBadRequest
	case apperror.IsKind(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case apperror.IsKind(err, apperror.ErrPermissionDenied):
		return http.StatusForbidden
	case apperror.IsKind(err, apperror.ErrConflict):
		return http.StatusConflict
	case errors.As(err, &transitionErr):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the standard error envelope with the mapped status.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	c.JSON(status, response.Error(status, err.Error()))
}
