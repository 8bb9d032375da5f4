package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"loginify/internal/app"
)

// statusFor maps a service error to the status code and client message. The
// message of unexpected errors is never exposed.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, app.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case app.IsConflict(err):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, app.ErrNotFound):
		return http.StatusNotFound, app.ErrNotFound.Error()
	case errors.Is(err, app.ErrInvalidCredential):
		return http.StatusUnauthorized, err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func logIfInternal(logger *zap.Logger, status int, op string, err error) {
	if status >= http.StatusInternalServerError {
		logger.Error(op+" failed", zap.Error(err))
	}
}
