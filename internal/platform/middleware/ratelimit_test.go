package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func serve(e *echo.Echo, h echo.HandlerFunc, ip string) (*httptest.ResponseRecorder, error) {
	req := httptest.NewRequest(http.MethodGet, "/api/results/", nil)
	if ip != "" {
		req.RemoteAddr = ip + ":1234"
	}
	rec := httptest.NewRecorder()
	return rec, h(e.NewContext(req, rec))
}

func TestRateLimit_RequestsWithinLimit(t *testing.T) {
	e := echo.New()
	handler := RateLimit(RateLimitConfig{RequestsPerSecond: 10, BurstSize: 5})(okHandler)

	for i := 0; i < 5; i++ {
		rec, err := serve(e, handler, "")
		if err != nil {
			t.Fatalf("request %d: expected no error, got %v", i+1, err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
		if got := rec.Header().Get("X-RateLimit-Limit"); got != "10" {
			t.Errorf("request %d: expected X-RateLimit-Limit '10', got %q", i+1, got)
		}
	}
}

func TestRateLimit_ExceedsLimit(t *testing.T) {
	e := echo.New()
	handler := RateLimit(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 2})(okHandler)

	for i := 0; i < 2; i++ {
		if _, err := serve(e, handler, ""); err != nil {
			t.Fatalf("request %d: expected no error, got %v", i+1, err)
		}
	}

	rec, err := serve(e, handler, "")
	if err == nil {
		t.Fatal("expected error for rate-limited request")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", httpErr.Code)
	}

	retry, convErr := strconv.Atoi(rec.Header().Get("Retry-After"))
	if convErr != nil || retry < 1 {
		t.Errorf("expected Retry-After >= 1, got %q", rec.Header().Get("Retry-After"))
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("expected X-RateLimit-Remaining '0', got %q", got)
	}
}

func TestRateLimit_PerKeyIsolation(t *testing.T) {
	e := echo.New()
	handler := RateLimit(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})(okHandler)

	if _, err := serve(e, handler, "10.0.0.1"); err != nil {
		t.Fatalf("first client first request: %v", err)
	}
	if _, err := serve(e, handler, "10.0.0.1"); err == nil {
		t.Fatal("first client second request: expected rate limit error")
	}
	if _, err := serve(e, handler, "10.0.0.2"); err != nil {
		t.Fatalf("second client first request: %v", err)
	}
}

func TestRateLimit_CustomKeyFunc(t *testing.T) {
	e := echo.New()
	handler := RateLimit(RateLimitConfig{
		RequestsPerSecond: 1,
		BurstSize:         1,
		KeyFunc:           func(echo.Context) string { return "shared" },
	})(okHandler)

	if _, err := serve(e, handler, "10.0.0.1"); err != nil {
		t.Fatalf("first request: %v", err)
	}
	if _, err := serve(e, handler, "10.0.0.2"); err == nil {
		t.Fatal("expected clients sharing a key to share a bucket")
	}
}

type failingStore struct{}

func (failingStore) Allow(context.Context, string) (Decision, error) {
	return Decision{}, errors.New("connection refused")
}

func TestRateLimit_FailsOpenOnStoreError(t *testing.T) {
	e := echo.New()
	handler := RateLimit(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1, Store: failingStore{}})(okHandler)

	for i := 0; i < 3; i++ {
		rec, err := serve(e, handler, "")
		if err != nil {
			t.Fatalf("request %d: expected store errors to let traffic through, got %v", i+1, err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}
}

func TestRateLimit_DefaultConfig(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	if cfg.RequestsPerSecond != 50 {
		t.Errorf("expected RequestsPerSecond 50, got %f", cfg.RequestsPerSecond)
	}
	if cfg.BurstSize != 100 {
		t.Errorf("expected BurstSize 100, got %d", cfg.BurstSize)
	}
}

func TestMemoryStore_Refill(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemoryStore(2, 1)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	if d, _ := s.Allow(ctx, "k"); !d.Allowed {
		t.Fatal("expected first request to be allowed")
	}
	d, _ := s.Allow(ctx, "k")
	if d.Allowed {
		t.Fatal("expected second request to be denied")
	}
	if d.RetryAfter != 500*time.Millisecond {
		t.Errorf("expected RetryAfter 500ms at 2 rps, got %s", d.RetryAfter)
	}

	now = now.Add(500 * time.Millisecond)
	if d, _ := s.Allow(ctx, "k"); !d.Allowed {
		t.Error("expected a token after refill")
	}
}

func TestMemoryStore_ZeroRate(t *testing.T) {
	s := NewMemoryStore(0, 1)
	ctx := context.Background()
	s.Allow(ctx, "k")

	d, _ := s.Allow(ctx, "k")
	if d.Allowed {
		t.Fatal("expected request to be denied")
	}
	if d.RetryAfter != time.Second {
		t.Errorf("expected 1s RetryAfter for zero rate, got %s", d.RetryAfter)
	}
}
