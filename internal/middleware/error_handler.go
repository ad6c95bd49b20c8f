package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"carte_challenge_echo/internal/loyalty"
	"carte_challenge_echo/internal/store"
)

// CustomErrorHandler creates a JSON error handler for Echo. Domain errors
// map to stable codes so clients can branch without parsing messages.
func CustomErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	errCode := "internal_error"
	message := "something went wrong"

	var he *echo.HTTPError
	var remoteErr *store.RemoteUnavailableError
	var locationErr *loyalty.LocationUnavailableError

	switch {
	case errors.As(err, &he):
		code = he.Code
		if msg, ok := he.Message.(string); ok && msg != "" {
			message = msg
		} else {
			message = http.StatusText(code)
		}
		switch code {
		case http.StatusNotFound:
			errCode = "not_found"
		case http.StatusUnauthorized:
			errCode = "authentication_failed"
		case http.StatusBadRequest:
			errCode = "bad_request"
		case http.StatusForbidden:
			errCode = "forbidden"
		default:
			errCode = "http_error"
		}
	case errors.Is(err, store.ErrNotFound):
		code = http.StatusNotFound
		errCode = "not_found"
		message = "resource not found"
	case errors.Is(err, loyalty.ErrScanInFlight):
		code = http.StatusConflict
		errCode = "scan_in_flight"
		message = "a scan is already being validated for this member"
	case errors.Is(err, loyalty.ErrInvalidScanPayload):
		code = http.StatusUnprocessableEntity
		errCode = "invalid_scan_payload"
		message = "code invalide"
	case errors.As(err, &locationErr):
		code = http.StatusUnprocessableEntity
		errCode = "location_unavailable"
		message = "impossible de vérifier votre position"
	case errors.As(err, &remoteErr):
		// Mutations that fell back locally are reported as 200 by the
		// handlers; an error reaching this point means no fallback applied.
		code = http.StatusServiceUnavailable
		errCode = "remote_unavailable"
		message = "remote store unreachable"
	case errors.Is(err, context.Canceled):
		code = 499
		errCode = "request_canceled"
		message = "request canceled"
	}

	c.Logger().Error(err)

	_ = c.JSON(code, map[string]string{
		"error":   errCode,
		"message": message,
	})
}
