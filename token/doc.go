// Package token signs and verifies the compact bearer tokens issued by the
// rotation engine.
//
// Access and refresh tokens are structurally identical HS256 JWTs carrying the
// subject id, email, issued-at, and expiry. They differ only in the signing
// secret and TTL, so possession of one kind can never forge the other. The
// codec is stateless: secrets are passed explicitly on every call, never read
// from hidden configuration.
//
// Verification fails closed. An expired token surfaces as [ErrExpired] so the
// engine can report refresh-token expiry distinctly; every other failure
// (malformed, mis-signed, wrong algorithm) collapses into [ErrInvalid] with no
// oracle for which check failed.
package token
