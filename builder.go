package rotauth

import (
	"context"
	"errors"
	"time"

	"github.com/fenrirsec/rotauth/internal/flows"
	"github.com/fenrirsec/rotauth/password"
	"github.com/fenrirsec/rotauth/session"
	"github.com/fenrirsec/rotauth/token"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine]. Construction is allocation-only; no I/O
// happens until the first Engine method call.
type Builder struct {
	config   Config
	redis    *redis.Client
	sessions SessionStore
	provider IdentityProvider
	sink     AuditSink

	built bool
}

// New returns a Builder seeded with the default configuration.
func New() *Builder {
	return &Builder{config: defaultConfig()}
}

// WithConfig replaces the entire configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithSecrets sets the access and refresh signing secrets.
func (b *Builder) WithSecrets(access, refresh []byte) *Builder {
	b.config.Token.AccessSecret = access
	b.config.Token.RefreshSecret = refresh
	return b
}

// WithRedis supplies the Redis client backing the default session store.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithSessionStore overrides the session store, e.g. with pgstore.Sessions.
// Takes precedence over WithRedis.
func (b *Builder) WithSessionStore(store SessionStore) *Builder {
	b.sessions = store
	return b
}

// WithIdentityProvider supplies the account database integration.
func (b *Builder) WithIdentityProvider(p IdentityProvider) *Builder {
	b.provider = p
	return b
}

// WithAuditSink supplies the audit event receiver.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.sink = sink
	return b
}

// WithMetricsEnabled toggles the engine counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and returns a ready Engine. A Builder is
// single-use.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.provider == nil {
		return nil, errors.New("identity provider required")
	}

	sessions := b.sessions
	if sessions == nil {
		if b.redis == nil {
			return nil, errors.New("redis client or session store required")
		}
		sessions = session.NewStore(b.redis, cfg.Session.RedisPrefix, cfg.Session.Retention)
	}

	hasher, err := password.NewHasher(cfg.passwordParams())
	if err != nil {
		return nil, err
	}

	e := &Engine{
		config:     cfg,
		provider:   b.provider,
		sessions:   sessions,
		hasher:     hasher,
		codec:      token.Codec{Leeway: cfg.Token.Leeway},
		metrics:    newMetrics(cfg.Metrics),
		audit:      newAuditDispatcher(cfg.Audit, b.sink),
		logger:     cfg.Logger,
		accessTTL:  cfg.accessTTL(),
		refreshTTL: cfg.refreshTTL(),
	}
	e.flows = flows.New(e.flowDeps())

	b.built = true
	return e, nil
}

func (e *Engine) flowDeps() flows.Deps {
	issue := flows.IssueDeps{
		IssueAccess: func(ident flows.IdentityRecord) (string, error) {
			return e.codec.Issue(ident.SubjectID, ident.Email, e.config.Token.AccessSecret, e.accessTTL)
		},
		IssueRefresh: func(ident flows.IdentityRecord) (string, error) {
			return e.codec.Issue(ident.SubjectID, ident.Email, e.config.Token.RefreshSecret, e.refreshTTL)
		},
		AccessTTL:   e.accessTTL,
		RefreshTTL:  e.refreshTTL,
		Retention:   e.config.Session.Retention,
		Fingerprint: session.Fingerprint,
		Now:         time.Now,
		CreateRecord: func(ctx context.Context, rec session.Record) error {
			if err := e.sessions.Create(ctx, rec); err != nil {
				return err
			}
			e.metrics.inc(MetricSessionCreated)
			return nil
		},
		PurgeExpiredBefore: e.sessions.PurgeExpiredBefore,
		Warn:               e.warnf,
	}

	issuePair := func(ctx context.Context, ident flows.IdentityRecord) (flows.TokenPair, error) {
		return flows.RunIssueTokenPair(ctx, ident, issue)
	}

	return flows.Deps{
		Register: flows.RegisterDeps{
			MinPasswordLength: e.config.Register.MinPasswordLength,
			HashPassword:      e.hasher.Hash,
			CreateIdentity: func(ctx context.Context, input flows.CreateIdentityInput) (flows.IdentityRecord, error) {
				rec, err := e.provider.Create(ctx, NewIdentity{
					Email:          input.Email,
					Name:           input.Name,
					PasswordDigest: input.PasswordDigest,
				})
				if err != nil {
					return flows.IdentityRecord{}, err
				}
				return toFlowIdentity(rec), nil
			},
			DuplicateEmail: ErrEmailTaken,
		},
		Login: flows.LoginDeps{
			GetByEmail: func(ctx context.Context, email string) (flows.IdentityRecord, error) {
				rec, err := e.provider.GetByEmail(ctx, email)
				if err != nil {
					return flows.IdentityRecord{}, err
				}
				return toFlowIdentity(rec), nil
			},
			IdentityNotFound: ErrIdentityNotFound,
			VerifyPassword:   e.hasher.Verify,
			NeedsRehash:      e.needsRehash(),
			HashPassword:     e.hasher.Hash,
			UpdateDigest: func(ctx context.Context, subjectID, digest string) error {
				if err := e.provider.UpdatePasswordDigest(ctx, subjectID, digest); err != nil {
					return err
				}
				e.metrics.inc(MetricDigestUpgraded)
				return nil
			},
			IssuePair: issuePair,
			Warn:      e.warnf,
		},
		Refresh: flows.RefreshDeps{
			VerifyRefresh: func(tokenStr string) (string, error) {
				claims, err := e.codec.Verify(tokenStr, e.config.Token.RefreshSecret)
				if err != nil {
					return "", err
				}
				return claims.SubjectID, nil
			},
			TokenExpired: token.ErrExpired,
			GetByID: func(ctx context.Context, subjectID string) (flows.IdentityRecord, error) {
				rec, err := e.provider.GetByID(ctx, subjectID)
				if err != nil {
					return flows.IdentityRecord{}, err
				}
				return toFlowIdentity(rec), nil
			},
			IdentityNotFound: ErrIdentityNotFound,
			Fingerprint:      session.Fingerprint,
			Revoke:           e.sessions.Revoke,
			RevokeAll:        e.sessions.RevokeAllForSubject,
			IssuePair:        issuePair,
			Warn:             e.warnf,
		},
		Logout: flows.LogoutDeps{
			Fingerprint: session.Fingerprint,
			Revoke:      e.sessions.Revoke,
			RevokeAll:   e.sessions.RevokeAllForSubject,
		},
		Identity: flows.IdentityDeps{
			GetByID: func(ctx context.Context, subjectID string) (flows.IdentityRecord, error) {
				rec, err := e.provider.GetByID(ctx, subjectID)
				if err != nil {
					return flows.IdentityRecord{}, err
				}
				return toFlowIdentity(rec), nil
			},
		},
		Issue: issue,
	}
}

func (e *Engine) needsRehash() func(string) bool {
	if !e.config.Password.UpgradeOnLogin {
		return nil
	}
	return e.hasher.NeedsRehash
}

func toFlowIdentity(rec IdentityRecord) flows.IdentityRecord {
	return flows.IdentityRecord{
		SubjectID:      rec.SubjectID,
		Email:          rec.Email,
		Name:           rec.Name,
		PasswordDigest: rec.PasswordDigest,
		CreatedAt:      rec.CreatedAt,
	}
}
