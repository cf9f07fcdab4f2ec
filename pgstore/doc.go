// Package pgstore provides Postgres-backed implementations of the rotauth
// storage interfaces: [Identities] for rotauth.IdentityProvider and
// [Sessions] for rotauth.SessionStore.
//
// Both types share one pgxpool.Pool owned by the caller. Schema lives in
// internal/db/migrations and is applied with cmd/rotauth-migrate.
//
// The session store keeps the same semantics as the Redis store: Revoke is a
// single conditional UPDATE, so concurrent redemptions of one fingerprint
// race on the row and at most one observes session.RevokeRotated.
package pgstore
