// Package appconfig loads daemon configuration from env and an optional .env
// file using Viper. The engine library itself never reads the environment;
// only cmd binaries go through this package.
package appconfig

import (
	"errors"

	"github.com/spf13/viper"
)

// Config holds daemon configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN backing identities (and sessions when
	// no Redis is configured). Required.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// RedisAddr is the Redis address for the session store (e.g.
	// localhost:6379). When empty, sessions fall back to Postgres.
	RedisAddr string `mapstructure:"REDIS_ADDR"`
	// RedisPrefix namespaces session keys.
	RedisPrefix string `mapstructure:"REDIS_PREFIX"`

	// AccessSecret and RefreshSecret sign the two token classes and must
	// differ.
	AccessSecret  string `mapstructure:"ACCESS_TOKEN_SECRET"`
	RefreshSecret string `mapstructure:"REFRESH_TOKEN_SECRET"`
	// AccessTTL and RefreshTTL accept raw seconds ("900") or shorthand
	// ("15m", "7d").
	AccessTTL  string `mapstructure:"ACCESS_TOKEN_TTL"`
	RefreshTTL string `mapstructure:"REFRESH_TOKEN_TTL"`

	// MinPasswordLength is the registration floor.
	MinPasswordLength int `mapstructure:"MIN_PASSWORD_LENGTH"`

	// MetricsEnabled mounts the Prometheus scrape endpoint at /metrics.
	MetricsEnabled bool `mapstructure:"METRICS_ENABLED"`
}

// Load reads .env (if present), then builds and validates Config from the
// environment. Env vars override .env; a missing .env is ignored.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	// Every key needs a default: AutomaticEnv only resolves keys Viper has
	// seen, and Unmarshal never asks about unknown ones.
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PREFIX", "rotauth")
	v.SetDefault("ACCESS_TOKEN_SECRET", "")
	v.SetDefault("REFRESH_TOKEN_SECRET", "")
	v.SetDefault("ACCESS_TOKEN_TTL", "15m")
	v.SetDefault("REFRESH_TOKEN_TTL", "7d")
	v.SetDefault("MIN_PASSWORD_LENGTH", 8)
	v.SetDefault("METRICS_ENABLED", true)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("appconfig: HTTP_ADDR must be set")
	}
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("appconfig: ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must be set")
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("appconfig: DATABASE_URL must be set (identities live in Postgres)")
	}

	return &cfg, nil
}
