package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/demopark/parking-api/internal/api/handler"
	"github.com/demopark/parking-api/internal/core/domain"
)

func handle(t *testing.T, log zerolog.Logger, method string, err error) (*httptest.ResponseRecorder, errorResponse) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, "/api/v1/parkings/check-in", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	NewHTTPErrorHandler(log)(err, c)

	var body errorResponse
	if method != http.MethodHead {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
	}
	return rec, body
}

func TestHTTPErrorHandler_DomainKinds(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		message string
	}{
		{domain.ErrClientNotFound, http.StatusNotFound, "client not found"},
		{fmt.Errorf("check in: %w", domain.ErrNoFreeSpot), http.StatusNotFound, "no free parking spot available"},
		{fmt.Errorf("create spot: %w", domain.ErrSpotCodeExists), http.StatusConflict, "parking spot code already registered"},
		{domain.ErrInvalidDuration, http.StatusUnprocessableEntity, "exit time is before entry time"},
		{domain.ErrInvalidCredentials, http.StatusBadRequest, "invalid credentials"},
		{domain.ErrWrongPassword, http.StatusBadRequest, "current password is incorrect"},
		{domain.ErrForbidden, http.StatusForbidden, "access forbidden"},
		{echo.NewHTTPError(http.StatusTooManyRequests, "too many requests"), http.StatusTooManyRequests, "too many requests"},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			rec, body := handle(t, zerolog.Nop(), http.MethodPost, tt.err)
			if rec.Code != tt.status || body.Status != tt.status {
				t.Fatalf("expected %d, got %d (body %d)", tt.status, rec.Code, body.Status)
			}
			if body.Error != tt.message {
				t.Fatalf("expected message %q, got %q", tt.message, body.Error)
			}
			if body.Path != "/api/v1/parkings/check-in" || body.Method != http.MethodPost {
				t.Fatalf("unexpected request echo %+v", body)
			}
		})
	}
}

func TestHTTPErrorHandler_ValidationFields(t *testing.T) {
	err := &handler.ValidationError{Fields: map[string]string{"plate": "plate must match AAA-9999"}}

	rec, body := handle(t, zerolog.Nop(), http.MethodPost, err)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if body.Fields["plate"] != "plate must match AAA-9999" {
		t.Fatalf("expected field errors, got %+v", body.Fields)
	}
}

func TestHTTPErrorHandler_UnexpectedErrorIsLoggedNotLeaked(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	rec, body := handle(t, log, http.MethodPost, errors.New("dial tcp 10.0.0.5:5432: connection refused"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(body.Error, "connection refused") {
		t.Fatalf("internal error leaked to client: %q", body.Error)
	}
	if !strings.Contains(buf.String(), "connection refused") {
		t.Fatalf("expected cause to be logged, got %q", buf.String())
	}
}

func TestHTTPErrorHandler_Head(t *testing.T) {
	rec, _ := handle(t, zerolog.Nop(), http.MethodHead, domain.ErrSessionNotFound)
	if rec.Code != http.StatusNotFound || rec.Body.Len() != 0 {
		t.Fatalf("expected empty 404, got %d with %q", rec.Code, rec.Body.String())
	}
}
