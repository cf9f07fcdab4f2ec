package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalid is returned for any token that fails verification for a reason
// other than expiry: malformed, mis-signed, wrong algorithm, bad claims.
var ErrInvalid = errors.New("invalid token")

// ErrExpired is returned when the signature is valid but the expiry instant
// has passed.
var ErrExpired = errors.New("token expired")

// Claims is the verified payload of an issued token.
type Claims struct {
	SubjectID string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type wireClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Codec issues and verifies signed bearer tokens. The zero value is usable;
// Leeway, when set, is applied to expiry checks during verification.
type Codec struct {
	Leeway time.Duration
}

// Issue signs a token for the subject with the given secret and TTL. A
// non-positive ttl falls back to [DefaultAccessTTL].
func (c Codec) Issue(subjectID, email string, secret []byte, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("empty signing secret")
	}
	if ttl <= 0 {
		ttl = DefaultAccessTTL
	}

	// A random jti keeps two tokens minted within the same second from
	// colliding; rotation fingerprints the raw token string.
	now := time.Now()
	claims := wireClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Verify checks the signature and expiry of tokenStr against secret and
// returns the embedded claims. Expiry is reported as [ErrExpired]; every other
// failure is [ErrInvalid].
func (c Codec) Verify(tokenStr string, secret []byte) (*Claims, error) {
	if len(secret) == 0 {
		return nil, ErrInvalid
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if c.Leeway > 0 {
		options = append(options, jwt.WithLeeway(c.Leeway))
	}

	parser := jwt.NewParser(options...)
	parsed, err := parser.ParseWithClaims(tokenStr, &wireClaims{}, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}

	claims, ok := parsed.Claims.(*wireClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalid
	}

	out := &Claims{
		SubjectID: claims.Subject,
		Email:     claims.Email,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
