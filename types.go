package rotauth

import (
	"context"
	"time"

	"github.com/fenrirsec/rotauth/session"
)

// IdentityRecord is the full account record returned by [IdentityProvider].
// It carries the password digest and must never be handed to transports;
// [Identity] is the outward projection.
type IdentityRecord struct {
	SubjectID      string
	Email          string
	Name           string
	PasswordDigest string
	CreatedAt      time.Time
}

// NewIdentity is the input to [IdentityProvider.Create]. The password arrives
// already hashed; providers never see plaintext.
type NewIdentity struct {
	Email          string
	Name           string
	PasswordDigest string
}

// IdentityProvider is the interface callers implement to integrate rotauth
// with their account database. Emails handed to GetByEmail and carried in
// NewIdentity are already case-normalized. Create must enforce email
// uniqueness atomically and return [ErrEmailTaken] on a duplicate; lookups
// return [ErrIdentityNotFound] for missing accounts.
type IdentityProvider interface {
	GetByEmail(ctx context.Context, email string) (IdentityRecord, error)
	GetByID(ctx context.Context, subjectID string) (IdentityRecord, error)
	Create(ctx context.Context, input NewIdentity) (IdentityRecord, error)
	UpdatePasswordDigest(ctx context.Context, subjectID, digest string) error
}

// SessionStore is the durable record of issued refresh-token fingerprints.
// [session.Store] (Redis) and pgstore.Sessions (Postgres) both satisfy it.
// Revoke must be a single atomic compare-and-update: across concurrent calls
// for one fingerprint, at most one may observe [session.RevokeRotated].
type SessionStore interface {
	Create(ctx context.Context, rec session.Record) error
	Revoke(ctx context.Context, subjectID, fingerprint string) (session.RevokeStatus, error)
	RevokeAllForSubject(ctx context.Context, subjectID string) (int, error)
	PurgeExpiredBefore(ctx context.Context, subjectID string, cutoff time.Time) (int, error)
}

// Identity is the outward identity projection: everything a transport may
// show, nothing it must not.
type Identity struct {
	SubjectID string
	Email     string
	Name      string
	CreatedAt time.Time
}

// TokenPair is a freshly issued access/refresh pair with lifetimes in
// seconds.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresIn  int64
	RefreshExpiresIn int64
}

// AccessClaims is the verified payload of an access token, as returned by
// [Engine.VerifyAccess].
type AccessClaims struct {
	SubjectID string
	Email     string
	ExpiresAt time.Time
}
