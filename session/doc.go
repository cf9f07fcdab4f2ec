// Package session is the durable store of issued refresh-token fingerprints.
//
// One record exists per issued refresh token, keyed by the sha256 fingerprint
// of the token string; the token itself is never stored. The store's
// revoke-if-active Lua script is the single point where two racing refresh
// attempts against the same token are arbitrated: Redis script atomicity, not
// application locking, decides the winner. Revocation is monotonic — a record
// never returns to the active state.
//
// Records expire from Redis declaratively (EXPIREAT at expiry plus the
// retention window); [Store.PurgeExpiredBefore] is the best-effort sweep that
// additionally prunes the per-subject index.
package session
