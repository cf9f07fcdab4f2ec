package flows

import (
	"context"

	"github.com/fenrirsec/rotauth/session"
)

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	Fingerprint func(string) string
	Revoke      func(ctx context.Context, subjectID, fingerprint string) (session.RevokeStatus, error)
	RevokeAll   func(ctx context.Context, subjectID string) (int, error)
}

// RunLogout revokes the record for the supplied refresh token, or every live
// record for the subject when no token is given. Idempotent: unknown,
// already-revoked, or mismatched records are a no-op, never an error. Returns
// how many records transitioned to revoked.
func RunLogout(ctx context.Context, subjectID, refreshToken string, deps LogoutDeps) (int, error) {
	if refreshToken == "" {
		return deps.RevokeAll(ctx, subjectID)
	}

	status, err := deps.Revoke(ctx, subjectID, deps.Fingerprint(refreshToken))
	if err != nil {
		return 0, err
	}
	switch status {
	case session.RevokeRotated, session.RevokeExpired:
		return 1, nil
	default:
		return 0, nil
	}
}
