package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/punchamoorthee/spinledger/internal/domain"
)

const devJWTSecret = "development-secret"

type Config struct {
	// DBSource is a PostgreSQL connection string. Empty selects the
	// in-memory store.
	DBSource string `env:"DB_SOURCE"`
	Port     string `env:"SERVER_PORT" envDefault:"8080"`
	Env      string `env:"ENVIRONMENT" envDefault:"development"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`

	MaxBet         domain.Amount `env:"MAX_BET" envDefault:"1000"`
	InitialBalance domain.Amount `env:"INITIAL_BALANCE" envDefault:"100"`

	JWTSecret string `env:"JWT_SECRET"`

	RedisURL  string `env:"REDIS_URL"`
	RedisPass string `env:"REDIS_PASS"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`
	// SpinRateLimit is the number of spins allowed per account per
	// SpinRateWindow. Zero disables the limit.
	SpinRateLimit  int           `env:"SPIN_RATE_LIMIT" envDefault:"30"`
	SpinRateWindow time.Duration `env:"SPIN_RATE_WINDOW" envDefault:"1m"`
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	return load(env.Options{})
}

func load(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.MaxBet <= 0 {
		return errors.New("MAX_BET must be positive")
	}
	if c.InitialBalance < 0 {
		return errors.New("INITIAL_BALANCE must not be negative")
	}
	if c.SpinRateLimit < 0 {
		return errors.New("SPIN_RATE_LIMIT must not be negative")
	}
	if c.SpinRateLimit > 0 && c.SpinRateWindow <= 0 {
		return errors.New("SPIN_RATE_WINDOW must be positive")
	}

	if c.JWTSecret == "" {
		if c.IsProduction() {
			return errors.New("JWT_SECRET environment variable is required in production")
		}
		c.JWTSecret = devJWTSecret
	}
	return nil
}
