// Package middleware exposes HTTP middleware adapters that guard routes with
// access-token verification built on top of rotauth.Engine.
//
// # Guards
//
//   - [RequireAccess] — verifies the bearer access token offline and injects
//     the claims into the request context.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself — all decisions are delegated to
// Engine.VerifyAccess.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Touch the session store (access checks are offline).
//   - Read refresh tokens (those belong to the /refresh and /logout
//     transports, never to route guards).
package middleware
