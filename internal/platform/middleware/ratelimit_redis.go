package middleware

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore is a fixed-window limiter shared by every server instance.
// Each key may make burst requests per window, where the window is sized so
// the long-run average matches the configured rate.
type RedisStore struct {
	client *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

func NewRedisStore(client *redis.Client, rate float64, burst int) *RedisStore {
	window := time.Second
	if rate > 0 && burst > 0 {
		window = time.Duration(float64(burst) / rate * float64(time.Second))
	}
	if window < time.Millisecond {
		window = time.Millisecond
	}
	return &RedisStore{
		client: client,
		prefix: "numan:ratelimit:",
		limit:  int64(burst),
		window: window,
	}
}

func (s *RedisStore) Allow(ctx context.Context, key string) (Decision, error) {
	k := s.prefix + key

	count, err := s.client.Incr(ctx, k).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("incr %s: %w", k, err)
	}
	if count == 1 {
		if err := s.client.PExpire(ctx, k, s.window).Err(); err != nil {
			return Decision{}, fmt.Errorf("expire %s: %w", k, err)
		}
	}

	if count <= s.limit {
		return Decision{Allowed: true, Remaining: int(s.limit - count)}, nil
	}

	ttl, err := s.client.PTTL(ctx, k).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("pttl %s: %w", k, err)
	}
	if ttl < 0 {
		// Key lost its expiry; restore it so the window can close.
		_ = s.client.PExpire(ctx, k, s.window).Err()
		ttl = s.window
	}
	return Decision{RetryAfter: time.Duration(math.Max(float64(ttl), float64(time.Millisecond)))}, nil
}

// NewRedisClient parses a redis:// URL and verifies the server is reachable.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
