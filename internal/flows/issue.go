package flows

import (
	"context"
	"time"

	"github.com/fenrirsec/rotauth/session"
)

// IssueDeps captures token-pair minting dependencies shared by the login and
// refresh flows.
type IssueDeps struct {
	IssueAccess  func(IdentityRecord) (string, error)
	IssueRefresh func(IdentityRecord) (string, error)
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	Retention    time.Duration
	Fingerprint  func(string) string
	Now          func() time.Time

	CreateRecord       func(context.Context, session.Record) error
	PurgeExpiredBefore func(ctx context.Context, subjectID string, cutoff time.Time) (int, error)

	Warn func(string, ...any)
}

// RunIssueTokenPair mints an access/refresh pair for the identity, persists
// the new refresh fingerprint as an active session record, and opportunistically
// sweeps the subject's records past the retention window. The sweep is
// best-effort: its failure never fails the issuance.
func RunIssueTokenPair(ctx context.Context, ident IdentityRecord, deps IssueDeps) (TokenPair, error) {
	access, err := deps.IssueAccess(ident)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := deps.IssueRefresh(ident)
	if err != nil {
		return TokenPair{}, err
	}

	now := deps.Now()
	rec := session.Record{
		SubjectID:   ident.SubjectID,
		Fingerprint: deps.Fingerprint(refresh),
		ExpiresAt:   now.Add(deps.RefreshTTL),
		CreatedAt:   now,
	}
	if err := deps.CreateRecord(ctx, rec); err != nil {
		return TokenPair{}, err
	}

	if deps.PurgeExpiredBefore != nil {
		cutoff := now.Add(-deps.Retention)
		if _, err := deps.PurgeExpiredBefore(ctx, ident.SubjectID, cutoff); err != nil && deps.Warn != nil {
			deps.Warn("rotauth: retention sweep failed for subject %s: %v", ident.SubjectID, err)
		}
	}

	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresIn:  int64(deps.AccessTTL / time.Second),
		RefreshExpiresIn: int64(deps.RefreshTTL / time.Second),
	}, nil
}
