package flows

import (
	"context"
	"errors"
)

// LoginFailureKind classifies login failures for root-level mapping. The
// engine reports UnknownIdentity and BadPassword identically to callers; the
// distinction exists only for metrics and audit.
type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	LoginFailureUnknownIdentity
	LoginFailureBadPassword
	LoginFailureLookup
	LoginFailureIssue
)

// LoginResult carries either the issued token pair or failure metadata.
type LoginResult struct {
	Failure  LoginFailureKind
	Err      error
	Identity IdentityRecord
	Pair     TokenPair
}

// LoginDeps captures login flow dependencies.
type LoginDeps struct {
	GetByEmail       func(context.Context, string) (IdentityRecord, error)
	IdentityNotFound error

	VerifyPassword func(plaintext, digest string) bool
	NeedsRehash    func(digest string) bool
	HashPassword   func(string) (string, error)
	UpdateDigest   func(ctx context.Context, subjectID, digest string) error

	IssuePair func(context.Context, IdentityRecord) (TokenPair, error)

	Warn func(string, ...any)
}

// RunLogin verifies credentials and mints a token pair. A missing identity and
// a digest mismatch produce distinct failure kinds here, but both must surface
// as the same undifferentiated invalid-credentials signal upstream.
func RunLogin(ctx context.Context, email, plaintext string, deps LoginDeps) LoginResult {
	ident, err := deps.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if deps.IdentityNotFound != nil && errors.Is(err, deps.IdentityNotFound) {
			return LoginResult{Failure: LoginFailureUnknownIdentity, Err: err}
		}
		return LoginResult{Failure: LoginFailureLookup, Err: err}
	}

	if !deps.VerifyPassword(plaintext, ident.PasswordDigest) {
		return LoginResult{Failure: LoginFailureBadPassword, Identity: ident}
	}

	// Lazy digest upgrade: rehash under current parameters after a successful
	// verification. Failure here never fails the login.
	if deps.NeedsRehash != nil && deps.NeedsRehash(ident.PasswordDigest) {
		if upgraded, err := deps.HashPassword(plaintext); err == nil {
			if err := deps.UpdateDigest(ctx, ident.SubjectID, upgraded); err != nil && deps.Warn != nil {
				deps.Warn("rotauth: digest upgrade failed for subject %s: %v", ident.SubjectID, err)
			}
		}
	}

	pair, err := deps.IssuePair(ctx, ident)
	if err != nil {
		return LoginResult{Failure: LoginFailureIssue, Err: err, Identity: ident}
	}

	return LoginResult{Identity: ident, Pair: pair}
}
