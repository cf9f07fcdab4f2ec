package rotauth

import (
	"crypto/subtle"
	"errors"
	"log"
	"time"

	"github.com/fenrirsec/rotauth/password"
	"github.com/fenrirsec/rotauth/session"
	"github.com/fenrirsec/rotauth/token"
)

// Config is the full engine configuration. Zero fields are filled from
// defaults during Build; secrets have no default and must be supplied.
type Config struct {
	Token    TokenConfig
	Password PasswordConfig
	Session  SessionConfig
	Register RegisterConfig
	Audit    AuditConfig
	Metrics  MetricsConfig

	// Logger receives best-effort warnings (sweep failures, audit drops,
	// translated internal errors). Defaults to the standard logger.
	Logger *log.Logger
}

// TokenConfig configures the token codec. Access and refresh secrets must
// differ: possession of one token kind must never forge the other.
type TokenConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	// AccessTTL and RefreshTTL accept raw seconds ("900") or shorthand
	// ("15m", "7d"). Unparsable values fall back to the defaults.
	AccessTTL  string
	RefreshTTL string
	Leeway     time.Duration
}

// PasswordConfig carries the argon2id cost parameters for new digests.
type PasswordConfig struct {
	Memory      uint32 // in KiB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	// UpgradeOnLogin rehashes digests created under weaker parameters after
	// the next successful login.
	UpgradeOnLogin bool
}

// SessionConfig configures session-record persistence.
type SessionConfig struct {
	RedisPrefix string
	// Retention is how long revoked or expired records are kept past expiry
	// before the sweep may delete them.
	Retention time.Duration
}

// RegisterConfig configures registration validation.
type RegisterConfig struct {
	MinPasswordLength int
}

// AuditConfig configures the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops events instead of blocking the request path when the
	// buffer is saturated; drops are counted and observable.
	DropIfFull bool
}

// MetricsConfig configures the engine's lock-free counters.
type MetricsConfig struct {
	Enabled bool
}

const (
	minSecretLength          = 16
	defaultMinPasswordLength = 8
	defaultAuditBuffer       = 256
)

// DefaultConfig returns the configuration a [Builder] starts from. Secrets
// are left empty and must be filled before Build.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	params := password.DefaultParams()
	return Config{
		Token: TokenConfig{
			AccessTTL:  "15m",
			RefreshTTL: "7d",
		},
		Password: PasswordConfig{
			Memory:         params.Memory,
			Time:           params.Time,
			Parallelism:    params.Parallelism,
			SaltLength:     params.SaltLength,
			KeyLength:      params.KeyLength,
			UpgradeOnLogin: true,
		},
		Session: SessionConfig{
			RedisPrefix: "rotauth",
			Retention:   session.DefaultRetention,
		},
		Register: RegisterConfig{
			MinPasswordLength: defaultMinPasswordLength,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: defaultAuditBuffer,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// Validate checks secrets and fills remaining zero fields with defaults.
func (c *Config) Validate() error {
	if len(c.Token.AccessSecret) < minSecretLength {
		return errors.New("access secret missing or too short")
	}
	if len(c.Token.RefreshSecret) < minSecretLength {
		return errors.New("refresh secret missing or too short")
	}
	if len(c.Token.AccessSecret) == len(c.Token.RefreshSecret) &&
		subtle.ConstantTimeCompare(c.Token.AccessSecret, c.Token.RefreshSecret) == 1 {
		return errors.New("access and refresh secrets must differ")
	}
	if c.Token.Leeway < 0 || c.Token.Leeway > 2*time.Minute {
		return errors.New("invalid leeway configuration")
	}

	if c.Session.RedisPrefix == "" {
		c.Session.RedisPrefix = "rotauth"
	}
	if c.Session.Retention <= 0 {
		c.Session.Retention = session.DefaultRetention
	}
	if c.Register.MinPasswordLength <= 0 {
		c.Register.MinPasswordLength = defaultMinPasswordLength
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		c.Audit.BufferSize = defaultAuditBuffer
	}
	if c.Logger == nil {
		c.Logger = log.Default()
	}
	return nil
}

// accessTTL resolves the configured access-token lifetime.
func (c *Config) accessTTL() time.Duration {
	return token.ParseTTL(c.Token.AccessTTL, token.DefaultAccessTTL)
}

// refreshTTL resolves the configured refresh-token lifetime.
func (c *Config) refreshTTL() time.Duration {
	return token.ParseTTL(c.Token.RefreshTTL, token.DefaultRefreshTTL)
}

func (c *Config) passwordParams() password.Params {
	return password.Params{
		Memory:      c.Password.Memory,
		Time:        c.Password.Time,
		Parallelism: c.Password.Parallelism,
		SaltLength:  c.Password.SaltLength,
		KeyLength:   c.Password.KeyLength,
	}
}
