package session

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Record is the at-rest representation of one issued refresh token.
type Record struct {
	SubjectID   string
	Fingerprint string
	ExpiresAt   time.Time
	Revoked     bool
	RevokedAt   time.Time
	CreatedAt   time.Time
}

// Active reports whether the record can still redeem a refresh at instant now.
func (r Record) Active(now time.Time) bool {
	return !r.Revoked && now.Before(r.ExpiresAt)
}

// Fingerprint returns the lowercase hex sha256 digest of a refresh-token
// string. It is the only representation of the token kept at rest.
func Fingerprint(tokenStr string) string {
	sum := sha256.Sum256([]byte(tokenStr))
	return hex.EncodeToString(sum[:])
}
