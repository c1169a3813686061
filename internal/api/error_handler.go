package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/demopark/parking-api/internal/api/handler"
	"github.com/demopark/parking-api/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error  string            `json:"error"`
	Status int               `json:"status"`
	Path   string            `json:"path"`
	Method string            `json:"method"`
	Fields map[string]string `json:"fields,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain error kinds to their HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		resp := resolveError(err, log, c)
		resp.Path = c.Request().URL.Path
		resp.Method = c.Request().Method

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(resp.Status)
			return
		}
		_ = c.JSON(resp.Status, resp)
	}
}

// kindStatus lists the domain error kinds in match order.
var kindStatus = []struct {
	kind   error
	status int
}{
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrUnavailable, http.StatusNotFound},
	{domain.ErrConflict, http.StatusConflict},
	{domain.ErrValidation, http.StatusUnprocessableEntity},
	{domain.ErrInvalidCredentials, http.StatusBadRequest},
	{domain.ErrForbidden, http.StatusForbidden},
}

func resolveError(err error, log zerolog.Logger, c echo.Context) errorResponse {
	// Echo's own errors (bind failures, 404 from router, auth middleware, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return errorResponse{Status: he.Code, Error: fmt.Sprintf("%v", he.Message)}
	}

	var ve *handler.ValidationError
	if errors.As(err, &ve) {
		return errorResponse{Status: http.StatusUnprocessableEntity, Error: "request validation failed", Fields: ve.Fields}
	}

	for _, ks := range kindStatus {
		if errors.Is(err, ks.kind) {
			return errorResponse{Status: ks.status, Error: domainMessage(err, ks.kind)}
		}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return errorResponse{Status: http.StatusInternalServerError, Error: "internal server error"}
}

// domainMessage returns the message of the concrete domain error, without the
// operation prefixes added while it was propagated.
func domainMessage(err, kind error) string {
	var de *domain.Error
	if errors.As(err, &de) {
		return de.Msg
	}
	return kind.Error()
}
