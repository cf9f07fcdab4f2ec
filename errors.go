package rotauth

import "errors"

var (
	// ErrInvalidCredentials is returned by Login for both an unknown email and
	// a password mismatch; the factor that failed is never revealed.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned for malformed, mis-signed, replayed, or
	// unknown tokens. The reuse-detection path reports this same error so an
	// attacker gets no signal that mass revocation occurred.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned when a refresh token's signature is valid
	// but its expiry has elapsed.
	ErrTokenExpired = errors.New("refresh token expired")
	// ErrEmailTaken is returned by Register when the normalized email is
	// already claimed. Identity providers return this from Create.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidEmail is returned by Register for an unparsable address.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrWeakPassword is returned by Register when the password is below the
	// configured minimum length.
	ErrWeakPassword = errors.New("password below minimum length")
	// ErrIdentityNotFound is the sentinel identity providers return when no
	// account exists. The engine translates it before it reaches callers.
	ErrIdentityNotFound = errors.New("identity not found")
	// ErrEngineNotReady is returned when an Engine method is called before
	// Build completed.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrUnavailable is the translation of any store, hashing, or signing
	// failure. The underlying cause is logged, never surfaced.
	ErrUnavailable = errors.New("auth backend unavailable")
)

// Stable machine-readable codes for every failure kind the engine can return.
const (
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeTokenExpired       = "REFRESH_TOKEN_EXPIRED"
	CodeConflict           = "CONFLICT"
	CodeBadRequest         = "BAD_REQUEST"
	CodeNotFound           = "NOT_FOUND"
	CodeInternal           = "INTERNAL_SERVER_ERROR"
)

// CodeOf maps an engine error to its stable machine-readable code. Unknown
// errors map to CodeInternal.
func CodeOf(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return CodeInvalidCredentials
	case errors.Is(err, ErrInvalidToken):
		return CodeInvalidToken
	case errors.Is(err, ErrTokenExpired):
		return CodeTokenExpired
	case errors.Is(err, ErrEmailTaken):
		return CodeConflict
	case errors.Is(err, ErrInvalidEmail), errors.Is(err, ErrWeakPassword):
		return CodeBadRequest
	case errors.Is(err, ErrIdentityNotFound):
		return CodeNotFound
	default:
		return CodeInternal
	}
}
