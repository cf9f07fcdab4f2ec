// Package rotauth issues, rotates, and revokes short-lived credential pairs
// (JWT access + refresh tokens) for authenticated sessions.
//
// The core is the refresh-token rotation state machine: a refresh token is
// redeemable exactly once, redemption is arbitrated atomically by the session
// store under concurrent requests, token material is stored only as a one-way
// fingerprint, and redemption of an already-consumed token is treated as theft
// and contained by revoking the subject's entire session family.
//
// Single redemption is strict: a client that retries a refresh call after a
// network timeout presents a consumed token and is contained like an attacker.
// Clients must persist the new pair before considering a refresh complete and
// must never retry one.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// rotauth is the public surface. It exposes [Engine], [Builder], [Config],
// the [IdentityProvider] integration interface, and value types (TokenPair,
// Identity, MetricsSnapshot). Flow orchestration lives under internal/ and is
// never exported; token signing, password hashing, and session persistence
// live in the token, password, and session sub-packages.
//
// # What this package must NOT do
//
//   - Store a refresh token in recoverable form; only sha256 fingerprints
//     reach the session store.
//   - Leak raw persistence or crypto errors past Engine methods.
//   - Reveal whether a login failure was an unknown email or a bad password,
//     or whether a rejected refresh triggered mass revocation.
//   - Hold any in-process lock across store or hashing calls; the store's
//     conditional update is the only concurrency control.
package rotauth
