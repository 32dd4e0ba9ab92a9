package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// RateLimitConfig configures the Redis limiter applied to booking
// writes.  A client may burst Capacity requests and regains RefillTokens
// every RefillInterval.
type RateLimitConfig struct {
	Enabled        bool          `env:"RATE_LIMIT_ENABLED"         envDefault:"true"`
	Capacity       int           `env:"RATE_LIMIT_CAPACITY"        envDefault:"20"`
	RefillTokens   int           `env:"RATE_LIMIT_REFILL_TOKENS"   envDefault:"1"`
	RefillInterval time.Duration `env:"RATE_LIMIT_REFILL_INTERVAL" envDefault:"3s"`
	KeyStrategy    string        `env:"RATE_LIMIT_KEY_STRATEGY"    envDefault:"user_route"` // user, ip, user_route
	Prefix         string        `env:"RATE_LIMIT_PREFIX"          envDefault:"rl"`
}

// LoadRateLimitConfig reads RATE_LIMIT_* variables and clamps them to
// usable values.
func LoadRateLimitConfig() RateLimitConfig {
	var cfg RateLimitConfig
	if err := env.Parse(&cfg); err != nil {
		cfg = RateLimitConfig{Enabled: true, Capacity: 20, RefillTokens: 1, RefillInterval: 3 * time.Second,
			KeyStrategy: "user_route", Prefix: "rl"}
	}
	if cfg.Capacity < 1 {
		cfg.Capacity = 1
	}
	if cfg.RefillTokens < 1 {
		cfg.RefillTokens = 1
	}
	if cfg.RefillInterval <= 0 {
		cfg.RefillInterval = time.Second
	}
	return cfg
}

// Emission is the time it takes to regain one request.
func (c RateLimitConfig) Emission() time.Duration {
	if c.RefillTokens < 1 {
		return c.RefillInterval
	}
	return c.RefillInterval / time.Duration(c.RefillTokens)
}
