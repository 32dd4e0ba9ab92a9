package config

// Redis backs the desk catalog cache and the write rate limiter.  Both
// degrade to no-ops when the server is unreachable at startup.

import (
	"context"
	"crypto/tls"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/redis/go-redis/v9"
)

// RedisConfig holds connection settings.  REDIS_HOST and REDIS_PORT take
// precedence over REDIS_ADDR when both are set.
type RedisConfig struct {
	Host     string `env:"REDIS_HOST"`
	Port     string `env:"REDIS_PORT"`
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB"`
	TLS      bool   `env:"REDIS_TLS"`
}

// Address returns the host:port to dial.
func (c RedisConfig) Address() string {
	if c.Host != "" && c.Port != "" {
		return c.Host + ":" + c.Port
	}
	return c.Addr
}

// NewRedisClient connects using REDIS_* variables.  It returns nil when
// the variables are invalid or the server does not answer a ping, and
// callers disable caching and rate limiting.
func NewRedisClient() *redis.Client {
	var cfg RedisConfig
	if err := env.Parse(&cfg); err != nil {
		log.Printf("redis: %v", err)
		return nil
	}
	var tlsConf *tls.Config
	if cfg.TLS {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(&redis.Options{
		Addr:      cfg.Address(),
		Password:  cfg.Password,
		DB:        cfg.DB,
		TLSConfig: tlsConf,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("redis: ping %s: %v", cfg.Address(), err)
		_ = client.Close()
		return nil
	}
	return client
}
