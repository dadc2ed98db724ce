package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/galactic-postbox/internal/application"
	"github.com/oksasatya/galactic-postbox/pkg/helpers"
	"github.com/oksasatya/galactic-postbox/pkg/response"
	"github.com/oksasatya/galactic-postbox/pkg/validation"
)

func statusFor(kind error) int {
	switch {
	case errors.Is(kind, application.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(kind, application.ErrConflict):
		return http.StatusConflict
	case errors.Is(kind, application.ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(kind, application.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(kind, application.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(kind, application.ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeError renders application errors with their message and hides
// everything else behind a 500.
func writeError(c *gin.Context, logger *logrus.Logger, err error) {
	var appErr *application.Error
	if errors.As(err, &appErr) {
		response.Error(c, statusFor(appErr.Kind), appErr.Message, appErr.Details)
		return
	}
	helpers.LogError(logger, "request failed", err, logrus.Fields{
		"request_id": c.GetString("request_id"),
		"method":     c.Request.Method,
		"path":       c.FullPath(),
	})
	response.Error(c, http.StatusInternalServerError, "internal server error", nil)
}

// bindJSON decodes and validates the body, writing a 400 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		details := validation.ToDetails(err)
		response.Error(c, http.StatusBadRequest, validation.Message(details), details)
		return false
	}
	return true
}
