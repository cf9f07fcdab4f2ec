package rotauth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/fenrirsec/rotauth/password"
)

func TestLoginIssuesVerifiablePair(t *testing.T) {
	provider := newMemProvider()
	engine, _, done := newTestEngine(t, testConfig(), provider)
	defer done()

	ctx := context.Background()
	if _, err := engine.Register(ctx, "carol@example.com", "Carol", "a-long-password"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	pair, err := engine.Login(ctx, "carol@example.com", "a-long-password")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens")
	}
	if pair.AccessToken == pair.RefreshToken {
		t.Fatal("access and refresh tokens must differ")
	}
	if pair.AccessExpiresIn != 900 {
		t.Fatalf("expected access lifetime 900s, got %d", pair.AccessExpiresIn)
	}
	if pair.RefreshExpiresIn != 604800 {
		t.Fatalf("expected refresh lifetime 604800s, got %d", pair.RefreshExpiresIn)
	}

	claims, err := engine.VerifyAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccess failed: %v", err)
	}
	if claims.Email != "carol@example.com" {
		t.Fatalf("unexpected claims email %q", claims.Email)
	}
	if claims.SubjectID == "" {
		t.Fatal("expected subject id in claims")
	}

	// A refresh token must never pass as an access token.
	if _, err := engine.VerifyAccess(pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("refresh token accepted as access token: %v", err)
	}
}

func TestLoginFailureIsUndifferentiated(t *testing.T) {
	provider := newMemProvider()
	engine, _, done := newTestEngine(t, testConfig(), provider)
	defer done()

	ctx := context.Background()
	if _, err := engine.Register(ctx, "dave@example.com", "Dave", "a-long-password"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	wrongPass, err1 := engine.Login(ctx, "dave@example.com", "not-the-password")
	unknown, err2 := engine.Login(ctx, "nobody@example.com", "a-long-password")

	if wrongPass != nil || unknown != nil {
		t.Fatal("expected no tokens on failed login")
	}
	if !errors.Is(err1, ErrInvalidCredentials) || !errors.Is(err2, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for both, got %v and %v", err1, err2)
	}
	if err1.Error() != err2.Error() {
		t.Fatal("wrong-password and unknown-email must be indistinguishable")
	}
}

func TestLoginUpgradesWeakDigest(t *testing.T) {
	provider := newMemProvider()

	// Seed an identity whose digest was created under weaker costs than the
	// engine is configured with.
	weak, err := password.NewHasher(password.Params{
		Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32,
	})
	if err != nil {
		t.Fatalf("NewHasher failed: %v", err)
	}
	oldDigest, err := weak.Hash("a-long-password")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	rec, err := provider.Create(context.Background(), NewIdentity{
		Email: "erin@example.com", Name: "Erin", PasswordDigest: oldDigest,
	})
	if err != nil {
		t.Fatalf("seed Create failed: %v", err)
	}

	cfg := testConfig()
	cfg.Password.Time = 2
	engine, _, done := newTestEngine(t, cfg, provider)
	defer done()

	if _, err := engine.Login(context.Background(), "erin@example.com", "a-long-password"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	upgraded := provider.digestOf(rec.SubjectID)
	if upgraded == oldDigest {
		t.Fatal("expected digest rehash after login")
	}
	if !strings.Contains(upgraded, "t=2") {
		t.Fatalf("expected upgraded cost parameters, got %q", upgraded)
	}

	// The upgraded digest still verifies.
	if _, err := engine.Login(context.Background(), "erin@example.com", "a-long-password"); err != nil {
		t.Fatalf("Login after upgrade failed: %v", err)
	}

	snap := engine.MetricsSnapshot()
	if got := snap.Value(MetricDigestUpgraded); got != 1 {
		t.Fatalf("expected one digest upgrade, got %d", got)
	}
}

func TestLoginSkipsUpgradeWhenDisabled(t *testing.T) {
	provider := newMemProvider()

	weak, err := password.NewHasher(password.Params{
		Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32,
	})
	if err != nil {
		t.Fatalf("NewHasher failed: %v", err)
	}
	oldDigest, err := weak.Hash("a-long-password")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	rec, err := provider.Create(context.Background(), NewIdentity{
		Email: "frank@example.com", PasswordDigest: oldDigest,
	})
	if err != nil {
		t.Fatalf("seed Create failed: %v", err)
	}

	cfg := testConfig()
	cfg.Password.Time = 2
	cfg.Password.UpgradeOnLogin = false
	engine, _, done := newTestEngine(t, cfg, provider)
	defer done()

	if _, err := engine.Login(context.Background(), "frank@example.com", "a-long-password"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if provider.digestOf(rec.SubjectID) != oldDigest {
		t.Fatal("digest must not change when upgrades are disabled")
	}
}
