package rotauth

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/fenrirsec/rotauth/internal/flows"
	"github.com/fenrirsec/rotauth/password"
	"github.com/fenrirsec/rotauth/token"
)

// Engine is the auth core facade. All methods are safe for concurrent use.
// Zero-value Engines and nil Engines reject every call with
// [ErrEngineNotReady]; build one through [Builder.Build].
type Engine struct {
	config   Config
	provider IdentityProvider
	sessions SessionStore
	hasher   *password.Hasher
	codec    token.Codec
	flows    flows.Service
	metrics  *Metrics
	audit    *auditDispatcher
	logger   *log.Logger

	accessTTL  time.Duration
	refreshTTL time.Duration
}

func (e *Engine) ready() error {
	if e == nil || !e.flows.Initialized() {
		return ErrEngineNotReady
	}
	return nil
}

// Register creates an account and returns its outward projection. No tokens
// are issued; callers log in separately.
//
// Returns [ErrInvalidEmail], [ErrWeakPassword], [ErrEmailTaken], or
// [ErrUnavailable].
func (e *Engine) Register(ctx context.Context, email, name, plaintext string) (*Identity, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	res := e.flows.Register(ctx, email, name, plaintext)
	switch res.Failure {
	case flows.RegisterFailureNone:
		e.metrics.inc(MetricRegisterSuccess)
		e.emitAudit(ctx, AuditEvent{Kind: AuditRegister, SubjectID: res.Identity.SubjectID, Email: res.Identity.Email})
		return identityOf(res.Identity), nil
	case flows.RegisterFailureInvalidEmail:
		return nil, ErrInvalidEmail
	case flows.RegisterFailureWeakPassword:
		return nil, ErrWeakPassword
	case flows.RegisterFailureDuplicate:
		e.metrics.inc(MetricRegisterDuplicate)
		return nil, ErrEmailTaken
	default:
		e.warnf("rotauth: register failed: %v", res.Err)
		return nil, ErrUnavailable
	}
}

// Login verifies credentials and issues a token pair. Unknown email and wrong
// password both surface as [ErrInvalidCredentials]; only the audit stream and
// metrics distinguish them.
func (e *Engine) Login(ctx context.Context, email, plaintext string) (*TokenPair, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	res := e.flows.Login(ctx, email, plaintext)
	switch res.Failure {
	case flows.LoginFailureNone:
		e.metrics.inc(MetricLoginSuccess)
		e.emitAudit(ctx, AuditEvent{Kind: AuditLoginSuccess, SubjectID: res.Identity.SubjectID, Email: res.Identity.Email})
		return pairOf(res.Pair), nil
	case flows.LoginFailureUnknownIdentity, flows.LoginFailureBadPassword:
		e.metrics.inc(MetricLoginFailure)
		e.emitAudit(ctx, AuditEvent{Kind: AuditLoginFailure, Email: flows.NormalizeEmail(email)})
		return nil, ErrInvalidCredentials
	default:
		e.warnf("rotauth: login failed: %v", res.Err)
		return nil, ErrUnavailable
	}
}

// Refresh rotates a refresh token: the presented token is atomically consumed
// and a fresh pair issued. Presenting an already-consumed, revoked, or
// unknown token is treated as theft evidence: every live session for the
// subject is revoked and [ErrInvalidToken] returned. A token whose session
// record sat expired in the store yields [ErrTokenExpired] without the mass
// revoke.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	res := e.flows.Refresh(ctx, refreshToken)
	switch res.Failure {
	case flows.RefreshFailureNone:
		e.metrics.inc(MetricRefreshSuccess)
		e.emitAudit(ctx, AuditEvent{Kind: AuditRefresh, SubjectID: res.SubjectID})
		return pairOf(res.Pair), nil
	case flows.RefreshFailureVerify, flows.RefreshFailureSubjectGone:
		e.metrics.inc(MetricRefreshFailure)
		return nil, ErrInvalidToken
	case flows.RefreshFailureExpired:
		e.metrics.inc(MetricRefreshExpired)
		return nil, ErrTokenExpired
	case flows.RefreshFailureReuse:
		e.metrics.inc(MetricReuseDetected)
		e.metrics.add(MetricSessionsMassRevoked, uint64(res.RevokedSessions))
		e.emitAudit(ctx, AuditEvent{Kind: AuditReuseDetected, SubjectID: res.SubjectID, Sessions: res.RevokedSessions})
		e.warnf("rotauth: refresh token reuse detected for subject %s, revoked %d sessions", res.SubjectID, res.RevokedSessions)
		return nil, ErrInvalidToken
	default:
		e.warnf("rotauth: refresh failed: %v", res.Err)
		return nil, ErrUnavailable
	}
}

// Logout revokes the session behind refreshToken, or every session for the
// subject when refreshToken is empty. Tokens already revoked or unknown are
// a no-op; logout is idempotent and only store failures return an error.
func (e *Engine) Logout(ctx context.Context, subjectID, refreshToken string) error {
	if err := e.ready(); err != nil {
		return err
	}

	n, err := e.flows.Logout(ctx, subjectID, refreshToken)
	if err != nil {
		e.warnf("rotauth: logout failed for subject %s: %v", subjectID, err)
		return ErrUnavailable
	}
	if refreshToken == "" {
		e.metrics.inc(MetricLogoutAll)
	} else {
		e.metrics.inc(MetricLogout)
	}
	e.emitAudit(ctx, AuditEvent{Kind: AuditLogout, SubjectID: subjectID, Sessions: n})
	return nil
}

// CurrentUser resolves a verified subject ID to its outward identity.
// A subject deleted since its token was issued yields [ErrInvalidToken].
func (e *Engine) CurrentUser(ctx context.Context, subjectID string) (*Identity, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	ident, err := e.flows.CurrentIdentity(ctx, subjectID)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return nil, ErrInvalidToken
		}
		e.warnf("rotauth: identity lookup failed for subject %s: %v", subjectID, err)
		return nil, ErrUnavailable
	}
	return identityOf(ident), nil
}

// VerifyAccess checks an access token offline, with no store round-trip.
// Every failure mode collapses to [ErrInvalidToken]; access tokens carry no
// distinct expired signal.
func (e *Engine) VerifyAccess(tokenStr string) (*AccessClaims, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	claims, err := e.codec.Verify(tokenStr, e.config.Token.AccessSecret)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return &AccessClaims{
		SubjectID: claims.SubjectID,
		Email:     claims.Email,
		ExpiresAt: claims.ExpiresAt,
	}, nil
}

// MetricsSnapshot returns a point-in-time copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{}
	}
	return e.metrics.Snapshot()
}

// AuditDropped reports how many audit events were discarded because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.droppedCount()
}

// Close flushes and stops the audit dispatcher. The engine itself holds no
// connections; callers own the Redis client and provider lifecycles.
func (e *Engine) Close() {
	if e == nil || e.audit == nil {
		return
	}
	e.audit.close()
}

func (e *Engine) emitAudit(ctx context.Context, ev AuditEvent) {
	if e.audit == nil {
		return
	}
	ev.At = time.Now()
	e.audit.emit(ctx, ev)
}

func (e *Engine) warnf(format string, args ...any) {
	if e == nil || e.logger == nil {
		return
	}
	e.logger.Printf(format, args...)
}

func identityOf(rec flows.IdentityRecord) *Identity {
	return &Identity{
		SubjectID: rec.SubjectID,
		Email:     rec.Email,
		Name:      rec.Name,
		CreatedAt: rec.CreatedAt,
	}
}

func pairOf(p flows.TokenPair) *TokenPair {
	return &TokenPair{
		AccessToken:      p.AccessToken,
		RefreshToken:     p.RefreshToken,
		AccessExpiresIn:  p.AccessExpiresIn,
		RefreshExpiresIn: p.RefreshExpiresIn,
	}
}
