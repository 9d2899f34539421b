package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int

	// Store defaults to a per-process token bucket store.
	Store Store
	// KeyFunc defaults to the client IP.
	KeyFunc func(c echo.Context) string
	Logger  zerolog.Logger
}

// DefaultRateLimitConfig returns default rate limiting settings.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 50,
		BurstSize:         100,
	}
}

// Decision is the outcome of a single rate limit check.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Store decides whether a request identified by key may proceed.
type Store interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

type tokenBucket struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

func (b *tokenBucket) take(now time.Time) Decision {
	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens = math.Min(b.maxTokens, b.tokens+elapsed*b.refillRate)
	b.lastRefill = now

	if b.tokens >= 1 {
		b.tokens--
		return Decision{Allowed: true, Remaining: int(b.tokens)}
	}

	wait := time.Second
	if b.refillRate > 0 {
		wait = time.Duration((1 - b.tokens) / b.refillRate * float64(time.Second))
	}
	return Decision{RetryAfter: wait}
}

// MemoryStore keeps one token bucket per key in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*tokenBucket
	rate    float64
	burst   int
	now     func() time.Time
}

func NewMemoryStore(rate float64, burst int) *MemoryStore {
	return &MemoryStore{
		buckets: make(map[string]*tokenBucket),
		rate:    rate,
		burst:   burst,
		now:     time.Now,
	}
}

func (s *MemoryStore) Allow(_ context.Context, key string) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	b, ok := s.buckets[key]
	if !ok {
		b = &tokenBucket{
			tokens:     float64(s.burst),
			maxTokens:  float64(s.burst),
			refillRate: s.rate,
			lastRefill: now,
		}
		s.buckets[key] = b
	}
	return b.take(now), nil
}

// RateLimit rejects requests over the configured rate with 429. Store errors
// are logged and the request is let through.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	store := cfg.Store
	if store == nil {
		store = NewMemoryStore(cfg.RequestsPerSecond, cfg.BurstSize)
	}
	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = func(c echo.Context) string { return c.RealIP() }
	}
	limit := strconv.FormatFloat(cfg.RequestsPerSecond, 'f', -1, 64)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)

			d, err := store.Allow(c.Request().Context(), keyFunc(c))
			if err != nil {
				cfg.Logger.Warn().Err(err).Str("request_id", GetRequestID(c)).Msg("rate limit store unavailable")
				return next(c)
			}

			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			if !d.Allowed {
				secs := int(math.Ceil(d.RetryAfter.Seconds()))
				if secs < 1 {
					secs = 1
				}
				h.Set("Retry-After", strconv.Itoa(secs))
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
