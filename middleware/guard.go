package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/fenrirsec/rotauth"
)

type claimsContextKey struct{}

// ClaimsFromContext returns the verified access claims injected by
// [RequireAccess], if the request passed the guard.
func ClaimsFromContext(ctx context.Context) (*rotauth.AccessClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*rotauth.AccessClaims)
	return claims, ok
}

// RequireAccess rejects requests without a valid bearer access token. Claims
// of accepted requests are available via [ClaimsFromContext].
func RequireAccess(engine *rotauth.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := engine.VerifyAccess(token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
