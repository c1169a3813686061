package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/demopark/parking-api/internal/core/domain"
)

func signToken(t *testing.T, secret string, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func expectStatus(t *testing.T, err error, code int) {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected HTTPError %d, got %v", code, err)
	}
	if he.Code != code {
		t.Fatalf("expected %d, got %d", code, he.Code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	e := echo.New()
	signed := signToken(t, "secret", jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      "user-1",
		"username": "alice@park.com",
		"role":     "ADMIN",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	mw := Auth("secret")
	handler := mw(func(c echo.Context) error {
		called = true
		if c.Get(CtxUserID) != "user-1" {
			t.Fatalf("user id not set")
		}
		if c.Get(CtxUsername) != "alice@park.com" {
			t.Fatalf("username not set")
		}
		if c.Get(CtxRole) != domain.RoleAdmin {
			t.Fatalf("role not set")
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	valid := jwt.MapClaims{"sub": "user-1", "role": "CLIENT", "exp": time.Now().Add(time.Hour).Unix()}
	expired := jwt.MapClaims{"sub": "user-1", "role": "CLIENT", "exp": time.Now().Add(-time.Minute).Unix()}
	badRole := jwt.MapClaims{"sub": "user-1", "role": "guest", "exp": time.Now().Add(time.Hour).Unix()}
	noSubject := jwt.MapClaims{"role": "CLIENT", "exp": time.Now().Add(time.Hour).Unix()}

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"wrong secret", "Bearer " + signToken(t, "other", jwt.SigningMethodHS256, valid)},
		{"wrong algorithm", "Bearer " + signToken(t, "secret", jwt.SigningMethodHS384, valid)},
		{"expired", "Bearer " + signToken(t, "secret", jwt.SigningMethodHS256, expired)},
		{"unknown role", "Bearer " + signToken(t, "secret", jwt.SigningMethodHS256, badRole)},
		{"no subject", "Bearer " + signToken(t, "secret", jwt.SigningMethodHS256, noSubject)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			c := e.NewContext(req, httptest.NewRecorder())

			handler := Auth("secret")(func(c echo.Context) error {
				t.Fatalf("should not reach next handler")
				return nil
			})
			expectStatus(t, handler(c), http.StatusUnauthorized)
		})
	}
}
