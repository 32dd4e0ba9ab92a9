package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// CatalogCacheConfig controls the Redis cache in front of the desk
// catalog.  Reservations are never cached: occupancy is always resolved
// from a fresh ledger read.
type CatalogCacheConfig struct {
	Enabled bool          `env:"CATALOG_CACHE_ENABLED" envDefault:"true"`
	TTL     time.Duration `env:"CATALOG_CACHE_TTL"     envDefault:"5m"`
	Prefix  string        `env:"CATALOG_CACHE_PREFIX"  envDefault:"desks"`
}

// LoadCatalogCacheConfig reads CATALOG_CACHE_* variables.  Unparsable
// values fall back to the defaults.
func LoadCatalogCacheConfig() CatalogCacheConfig {
	var cfg CatalogCacheConfig
	if err := env.Parse(&cfg); err != nil {
		return CatalogCacheConfig{Enabled: true, TTL: 5 * time.Minute, Prefix: "desks"}
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "desks"
	}
	return cfg
}
