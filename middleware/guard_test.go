package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/fenrirsec/rotauth"
	"github.com/redis/go-redis/v9"
)

type staticProvider struct {
	rec rotauth.IdentityRecord
}

func (p *staticProvider) GetByEmail(_ context.Context, email string) (rotauth.IdentityRecord, error) {
	if email != p.rec.Email {
		return rotauth.IdentityRecord{}, rotauth.ErrIdentityNotFound
	}
	return p.rec, nil
}

func (p *staticProvider) GetByID(_ context.Context, subjectID string) (rotauth.IdentityRecord, error) {
	if subjectID != p.rec.SubjectID {
		return rotauth.IdentityRecord{}, rotauth.ErrIdentityNotFound
	}
	return p.rec, nil
}

func (p *staticProvider) Create(_ context.Context, input rotauth.NewIdentity) (rotauth.IdentityRecord, error) {
	p.rec = rotauth.IdentityRecord{
		SubjectID:      "sub-1",
		Email:          input.Email,
		Name:           input.Name,
		PasswordDigest: input.PasswordDigest,
	}
	return p.rec, nil
}

func (p *staticProvider) UpdatePasswordDigest(_ context.Context, _, digest string) error {
	p.rec.PasswordDigest = digest
	return nil
}

func newGuardedEngine(t *testing.T) (*rotauth.Engine, string, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	engine, err := rotauth.New().
		WithSecrets([]byte("guard-access-secret-1"), []byte("guard-refresh-secret-1")).
		WithRedis(rdb).
		WithIdentityProvider(&staticProvider{}).
		Build()
	if err != nil {
		mr.Close()
		t.Fatalf("Build failed: %v", err)
	}

	ctx := context.Background()
	if _, err := engine.Register(ctx, "alice@example.com", "Alice", "a-long-password"); err != nil {
		mr.Close()
		t.Fatalf("Register failed: %v", err)
	}
	pair, err := engine.Login(ctx, "alice@example.com", "a-long-password")
	if err != nil {
		mr.Close()
		t.Fatalf("Login failed: %v", err)
	}

	return engine, pair.AccessToken, func() {
		engine.Close()
		mr.Close()
	}
}

func TestRequireAccessInjectsClaims(t *testing.T) {
	engine, accessToken, done := newGuardedEngine(t)
	defer done()

	var seen *rotauth.AccessClaims
	handler := RequireAccess(engine)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			t.Fatal("expected claims in context")
		}
		seen = claims
	}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if seen == nil || seen.Email != "alice@example.com" {
		t.Fatalf("unexpected claims: %+v", seen)
	}
}

func TestRequireAccessRejections(t *testing.T) {
	engine, _, done := newGuardedEngine(t)
	defer done()

	handler := RequireAccess(engine)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"empty token", "Bearer "},
		{"garbage token", "Bearer not-a-jwt"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestRequireAccessNilEngine(t *testing.T) {
	handler := RequireAccess(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer whatever")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
