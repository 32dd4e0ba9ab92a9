// Package config loads application configuration from environment
// variables, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Supported values of DB_DRIVER.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// DBConfig selects and locates the database.  It is embedded in Config
// and loaded on its own by tools that only need the store.
type DBConfig struct {
	DBDriver   string `env:"DB_DRIVER"   envDefault:"mysql"`          // mysql or sqlite
	DBUser     string `env:"DB_USER"`                                 // database username
	DBPass     string `env:"DB_PASS"`                                 // database password (optional)
	DBHost     string `env:"DB_HOST"     envDefault:"127.0.0.1"`      // database host address
	DBPort     string `env:"DB_PORT"     envDefault:"3306"`           // database port number
	DBName     string `env:"DB_NAME"     envDefault:"desks"`          // database name
	SQLitePath string `env:"SQLITE_PATH" envDefault:"data/desks.db"` // file used when DB_DRIVER=sqlite
}

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.
type Config struct {
	Env  string `env:"APP_ENV"  envDefault:"dev"`  // application environment (dev/test/prod)
	Port string `env:"APP_PORT" envDefault:"8080"` // HTTP port to listen on

	DBConfig

	JWTSecret    string `env:"JWT_SECRET,required,notEmpty"`         // secret used to sign access tokens
	AccessTTLMin int    `env:"ACCESS_TOKEN_TTL_MIN" envDefault:"480"` // access token lifetime in minutes

	// Access codes are stored as bcrypt hashes.  The admin code, when
	// set, is only accepted for admin users.
	AccessCodeHash      string   `env:"ACCESS_CODE_HASH"`
	AdminAccessCodeHash string   `env:"ADMIN_ACCESS_CODE_HASH"`
	AdminUsers          []string `env:"ADMIN_USERS" envSeparator:","` // user names granted ADMIN besides users.is_admin

	HistoryDays int    `env:"HISTORY_DAYS" envDefault:"30"`               // personal-history window of suggestions
	BookingDays int    `env:"BOOKING_DAYS" envDefault:"6"`                // business days offered for booking
	Timezone    string `env:"APP_TIMEZONE" envDefault:"America/Sao_Paulo"` // calendar used for "today"
}

// Parse reads the configuration from the environment and validates it.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDBConfig reads an optional .env file and only the database
// variables.
func LoadDBConfig() (DBConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("config: .env not loaded: %v", err)
	}
	var cfg DBConfig
	if err := env.Parse(&cfg); err != nil {
		return DBConfig{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	if err := cfg.Validate(); err != nil {
		return DBConfig{}, err
	}
	return cfg, nil
}

// Validate checks the driver and its required settings.
func (c DBConfig) Validate() error {
	switch c.DBDriver {
	case DriverMySQL:
		if c.DBUser == "" {
			return errors.New("DB_USER is required for the mysql driver")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	return nil
}

func (c Config) validate() error {
	if err := c.DBConfig.Validate(); err != nil {
		return err
	}
	if c.AccessTTLMin <= 0 {
		return fmt.Errorf("invalid ACCESS_TOKEN_TTL_MIN %d", c.AccessTTLMin)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid APP_TIMEZONE %q: %w", c.Timezone, err)
	}
	return nil
}

// Load reads an optional .env file and the environment.  Invalid
// configuration stops the program, as nothing can run without it.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("config: .env not loaded: %v", err)
	}
	cfg, err := Parse()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

// Location returns the configured time zone, falling back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsAdminUser reports whether userName is listed in ADMIN_USERS.
func (c Config) IsAdminUser(userName string) bool {
	for _, u := range c.AdminUsers {
		if strings.EqualFold(strings.TrimSpace(u), userName) {
			return true
		}
	}
	return false
}

// AccessTTL is AccessTTLMin as a duration.
func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.AccessTTLMin) * time.Minute
}
