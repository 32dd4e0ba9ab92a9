package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/desk-reservation/internal/config"
)

// gcra is a generic cell rate limiter.  The key holds the theoretical
// arrival time (TAT) in milliseconds and expires once the client is back
// to a full burst.
//
// KEYS[1] key; ARGV now_ms, emission_ms, burst_ms.
// Returns {allowed, remaining, retry_after_ms}.
var gcra = redis.NewScript(`
local now = tonumber(ARGV[1])
local emission = tonumber(ARGV[2])
local burst = tonumber(ARGV[3])

local tat = tonumber(redis.call('GET', KEYS[1]))
if tat == nil or tat < now then
	tat = now
end
local next_tat = tat + emission
local wait = next_tat - now
if wait > burst then
	return {0, 0, wait - burst}
end
redis.call('SET', KEYS[1], next_tat, 'PX', wait)
return {1, math.floor((burst - wait) / emission), 0}
`)

type decision struct {
	allowed   bool
	remaining int64
	retry     time.Duration
}

type limiter struct {
	rdb      *redis.Client
	emission time.Duration
	burst    time.Duration
	now      func() time.Time
}

func (l *limiter) take(ctx context.Context, key string) (decision, error) {
	res, err := gcra.Run(ctx, l.rdb, []string{key},
		l.now().UnixMilli(), l.emission.Milliseconds(), l.burst.Milliseconds()).Int64Slice()
	if err != nil {
		return decision{}, err
	}
	if len(res) != 3 {
		return decision{}, fmt.Errorf("unexpected limiter reply %v", res)
	}
	return decision{
		allowed:   res[0] == 1,
		remaining: res[1],
		retry:     time.Duration(res[2]) * time.Millisecond,
	}, nil
}

// NewTokenBucket limits booking writes per key (see buildRateKey).
// Without Redis, or when disabled, it passes every request through; a
// Redis error also lets the request through rather than blocking
// bookings.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	emission := max(cfg.Emission(), time.Millisecond)
	l := &limiter{
		rdb:      rdb,
		emission: emission,
		burst:    emission * time.Duration(cfg.Capacity),
		now:      time.Now,
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := buildRateKey(cfg, c)
			d, err := l.take(c.Request().Context(), key)
			if err != nil {
				c.Logger().Warnf("ratelimit: %s: %v", key, err)
				return next(c)
			}
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(d.remaining, 10))
			if !d.allowed {
				secs := retryAfterSeconds(d.retry.Milliseconds())
				h.Set("Retry-After", strconv.Itoa(secs))
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error":       "too many requests",
					"retry_after": secs,
				})
			}
			return next(c)
		}
	}
}

// retryAfterSeconds rounds up to whole seconds for the Retry-After header.
func retryAfterSeconds(ms int64) int {
	if ms <= 0 {
		return 0
	}
	return int((ms + 999) / 1000)
}

// buildRateKey derives the limiter key.  Strategies: "user",
// "ip", "user_route"; anything else combines ip, user and route.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	user := userName(c)
	route := c.Request().Method + " " + c.Path()

	parts := []string{cfg.Prefix}
	switch strings.ToLower(cfg.KeyStrategy) {
	case "user":
		parts = append(parts, "user", user)
	case "ip":
		parts = append(parts, "ip", ip)
	case "user_route":
		parts = append(parts, "user", user, "route", route)
	default:
		parts = append(parts, "ip", ip, "user", user, "route", route)
	}
	return strings.Join(parts, ":")
}
