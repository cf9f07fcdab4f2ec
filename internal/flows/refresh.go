package flows

import (
	"context"
	"errors"

	"github.com/fenrirsec/rotauth/session"
)

// RefreshFailureKind classifies refresh flow failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureVerify
	RefreshFailureExpired
	RefreshFailureSubjectGone
	RefreshFailureReuse
	RefreshFailureStore
	RefreshFailureIssue
)

// RefreshResult carries either the new token pair or failure metadata.
// RevokedSessions is non-zero only on the reuse-detected path.
type RefreshResult struct {
	Failure         RefreshFailureKind
	Err             error
	SubjectID       string
	Pair            TokenPair
	RevokedSessions int
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	VerifyRefresh func(tokenStr string) (subjectID string, err error)
	TokenExpired  error

	GetByID          func(context.Context, string) (IdentityRecord, error)
	IdentityNotFound error

	Fingerprint func(string) string
	Revoke      func(ctx context.Context, subjectID, fingerprint string) (session.RevokeStatus, error)
	RevokeAll   func(ctx context.Context, subjectID string) (int, error)

	IssuePair func(context.Context, IdentityRecord) (TokenPair, error)

	Warn func(string, ...any)
}

// RunRefresh executes the rotation state machine for one presented refresh
// token. Exactly one of three things happens: the conditional revoke matches
// and a new pair is minted; the revoke finds nothing to consume and every live
// session for the subject is revoked (reuse containment); or signature/expiry
// verification fails and the store is never touched.
func RunRefresh(ctx context.Context, refreshToken string, deps RefreshDeps) RefreshResult {
	subjectID, err := deps.VerifyRefresh(refreshToken)
	if err != nil {
		if deps.TokenExpired != nil && errors.Is(err, deps.TokenExpired) {
			return RefreshResult{Failure: RefreshFailureExpired, Err: err}
		}
		return RefreshResult{Failure: RefreshFailureVerify, Err: err}
	}

	ident, err := deps.GetByID(ctx, subjectID)
	if err != nil {
		if deps.IdentityNotFound != nil && errors.Is(err, deps.IdentityNotFound) {
			return RefreshResult{Failure: RefreshFailureSubjectGone, Err: err, SubjectID: subjectID}
		}
		return RefreshResult{Failure: RefreshFailureStore, Err: err, SubjectID: subjectID}
	}

	status, err := deps.Revoke(ctx, subjectID, deps.Fingerprint(refreshToken))
	if err != nil {
		return RefreshResult{Failure: RefreshFailureStore, Err: err, SubjectID: subjectID}
	}

	switch status {
	case session.RevokeRotated:
		// Sole legitimate redeemer.
	case session.RevokeExpired:
		return RefreshResult{Failure: RefreshFailureExpired, SubjectID: subjectID}
	default:
		// Already rotated, unknown fingerprint, or wrong subject: replay
		// signal. Contain by revoking the whole session family.
		revoked, revokeErr := deps.RevokeAll(ctx, subjectID)
		if revokeErr != nil && deps.Warn != nil {
			deps.Warn("rotauth: reuse containment failed for subject %s: %v", subjectID, revokeErr)
		}
		return RefreshResult{
			Failure:         RefreshFailureReuse,
			SubjectID:       subjectID,
			RevokedSessions: revoked,
		}
	}

	pair, err := deps.IssuePair(ctx, ident)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureIssue, Err: err, SubjectID: subjectID}
	}

	return RefreshResult{SubjectID: subjectID, Pair: pair}
}
