package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestRateLimiter_PerIP(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	now := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.allow("10.0.0.1") || !rl.allow("10.0.0.1") {
		t.Fatal("burst should be allowed")
	}
	if rl.allow("10.0.0.1") {
		t.Fatal("third request within the same instant should be limited")
	}
	if !rl.allow("10.0.0.2") {
		t.Fatal("other IPs have their own bucket")
	}

	now = now.Add(time.Second)
	if !rl.allow("10.0.0.1") {
		t.Fatal("token should refill after one second")
	}
}

func TestRateLimiter_ForgetsIdleVisitors(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	now := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.allow("10.0.0.1")
	now = now.Add(visitorTTL + time.Second)
	rl.allow("10.0.0.2")

	if _, ok := rl.visitors["10.0.0.1"]; ok {
		t.Fatal("idle visitor was not evicted")
	}
}

func TestRateLimiter_Middleware(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiter(0.001, 1)
	handler := rl.Limit()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	newCtx := func() echo.Context {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth", nil)
		req.RemoteAddr = "192.0.2.10:5555"
		return e.NewContext(req, httptest.NewRecorder())
	}

	if err := handler(newCtx()); err != nil {
		t.Fatalf("first request rejected: %v", err)
	}
	expectStatus(t, handler(newCtx()), http.StatusTooManyRequests)
}
