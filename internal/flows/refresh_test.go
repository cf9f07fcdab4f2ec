package flows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fenrirsec/rotauth/session"
)

var (
	errStubExpired  = errors.New("token expired")
	errStubBadSig   = errors.New("bad signature")
	errStubNotFound = errors.New("identity not found")
)

// refreshHarness wires RefreshDeps with stubs and records every store call so
// tests can assert which arms of the state machine ran.
type refreshHarness struct {
	revokeCalls    int
	revokeAllCalls int
	issueCalls     int

	revokeStatus session.RevokeStatus
	revokeErr    error
	revokeAllN   int
	revokeAllErr error
	issueErr     error

	warnings []string
}

func (h *refreshHarness) deps() RefreshDeps {
	return RefreshDeps{
		VerifyRefresh: func(tokenStr string) (string, error) {
			switch tokenStr {
			case "expired-token":
				return "", errStubExpired
			case "garbage":
				return "", errStubBadSig
			default:
				return "subject-1", nil
			}
		},
		TokenExpired: errStubExpired,
		GetByID: func(_ context.Context, id string) (IdentityRecord, error) {
			if id != "subject-1" {
				return IdentityRecord{}, errStubNotFound
			}
			return IdentityRecord{SubjectID: id, Email: "a@example.com"}, nil
		},
		IdentityNotFound: errStubNotFound,
		Fingerprint:      func(s string) string { return "fp:" + s },
		Revoke: func(_ context.Context, _, _ string) (session.RevokeStatus, error) {
			h.revokeCalls++
			return h.revokeStatus, h.revokeErr
		},
		RevokeAll: func(_ context.Context, _ string) (int, error) {
			h.revokeAllCalls++
			return h.revokeAllN, h.revokeAllErr
		},
		IssuePair: func(_ context.Context, ident IdentityRecord) (TokenPair, error) {
			h.issueCalls++
			if h.issueErr != nil {
				return TokenPair{}, h.issueErr
			}
			return TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh"}, nil
		},
		Warn: func(format string, _ ...any) { h.warnings = append(h.warnings, format) },
	}
}

func TestRunRefreshRotates(t *testing.T) {
	h := &refreshHarness{revokeStatus: session.RevokeRotated}

	res := RunRefresh(context.Background(), "live-token", h.deps())
	if res.Failure != RefreshFailureNone {
		t.Fatalf("failure = %d, want none (err: %v)", res.Failure, res.Err)
	}
	if res.Pair.AccessToken != "new-access" || res.Pair.RefreshToken != "new-refresh" {
		t.Fatalf("unexpected pair: %+v", res.Pair)
	}
	if res.SubjectID != "subject-1" {
		t.Fatalf("subject = %q", res.SubjectID)
	}
	if h.revokeCalls != 1 || h.revokeAllCalls != 0 || h.issueCalls != 1 {
		t.Fatalf("calls revoke=%d revokeAll=%d issue=%d", h.revokeCalls, h.revokeAllCalls, h.issueCalls)
	}
}

func TestRunRefreshVerifyFailureSkipsStore(t *testing.T) {
	h := &refreshHarness{revokeStatus: session.RevokeRotated}

	res := RunRefresh(context.Background(), "garbage", h.deps())
	if res.Failure != RefreshFailureVerify {
		t.Fatalf("failure = %d, want verify", res.Failure)
	}
	if !errors.Is(res.Err, errStubBadSig) {
		t.Fatalf("err = %v", res.Err)
	}
	// An unverifiable token says nothing about the session family.
	if h.revokeCalls != 0 || h.revokeAllCalls != 0 || h.issueCalls != 0 {
		t.Fatalf("store touched: revoke=%d revokeAll=%d issue=%d", h.revokeCalls, h.revokeAllCalls, h.issueCalls)
	}
}

func TestRunRefreshExpiredSignature(t *testing.T) {
	h := &refreshHarness{}

	res := RunRefresh(context.Background(), "expired-token", h.deps())
	if res.Failure != RefreshFailureExpired {
		t.Fatalf("failure = %d, want expired", res.Failure)
	}
	if h.revokeCalls != 0 || h.revokeAllCalls != 0 {
		t.Fatal("expired token must not reach the store")
	}
}

func TestRunRefreshExpiredRecord(t *testing.T) {
	h := &refreshHarness{revokeStatus: session.RevokeExpired}

	res := RunRefresh(context.Background(), "live-token", h.deps())
	if res.Failure != RefreshFailureExpired {
		t.Fatalf("failure = %d, want expired", res.Failure)
	}
	// A stale-but-honest token is not a replay; no containment.
	if h.revokeAllCalls != 0 {
		t.Fatal("expired record triggered containment")
	}
	if h.issueCalls != 0 {
		t.Fatal("expired record minted a pair")
	}
}

func TestRunRefreshReuseContainment(t *testing.T) {
	for _, status := range []session.RevokeStatus{
		session.RevokeAlreadyRevoked,
		session.RevokeNotFound,
		session.RevokeSubjectMismatch,
	} {
		h := &refreshHarness{revokeStatus: status, revokeAllN: 3}

		res := RunRefresh(context.Background(), "live-token", h.deps())
		if res.Failure != RefreshFailureReuse {
			t.Fatalf("status %d: failure = %d, want reuse", status, res.Failure)
		}
		if res.RevokedSessions != 3 {
			t.Fatalf("status %d: revoked = %d, want 3", status, res.RevokedSessions)
		}
		if h.revokeAllCalls != 1 {
			t.Fatalf("status %d: revokeAll calls = %d", status, h.revokeAllCalls)
		}
		if h.issueCalls != 0 {
			t.Fatalf("status %d: minted a pair on the reuse path", status)
		}
	}
}

func TestRunRefreshContainmentFailureStillReuse(t *testing.T) {
	h := &refreshHarness{
		revokeStatus: session.RevokeAlreadyRevoked,
		revokeAllErr: errors.New("redis down"),
	}

	res := RunRefresh(context.Background(), "live-token", h.deps())
	if res.Failure != RefreshFailureReuse {
		t.Fatalf("failure = %d, want reuse", res.Failure)
	}
	if len(h.warnings) != 1 {
		t.Fatalf("warnings = %d, want 1", len(h.warnings))
	}
}

func TestRunRefreshSubjectGone(t *testing.T) {
	h := &refreshHarness{}
	deps := h.deps()
	deps.VerifyRefresh = func(string) (string, error) { return "deleted-subject", nil }

	res := RunRefresh(context.Background(), "live-token", deps)
	if res.Failure != RefreshFailureSubjectGone {
		t.Fatalf("failure = %d, want subject gone", res.Failure)
	}
	if h.revokeCalls != 0 {
		t.Fatal("revoke ran for a deleted subject")
	}
}

func TestRunRefreshStoreAndIssueErrors(t *testing.T) {
	h := &refreshHarness{revokeErr: errors.New("redis down")}
	res := RunRefresh(context.Background(), "live-token", h.deps())
	if res.Failure != RefreshFailureStore {
		t.Fatalf("failure = %d, want store", res.Failure)
	}

	h = &refreshHarness{revokeStatus: session.RevokeRotated, issueErr: errors.New("sign failed")}
	res = RunRefresh(context.Background(), "live-token", h.deps())
	if res.Failure != RefreshFailureIssue {
		t.Fatalf("failure = %d, want issue", res.Failure)
	}
	if h.revokeAllCalls != 0 {
		t.Fatal("issue failure triggered containment")
	}
}

func TestRunLogoutSemantics(t *testing.T) {
	var revokeAllCalls int
	status := session.RevokeRotated
	deps := LogoutDeps{
		Fingerprint: func(s string) string { return "fp:" + s },
		Revoke: func(_ context.Context, _, _ string) (session.RevokeStatus, error) {
			return status, nil
		},
		RevokeAll: func(_ context.Context, _ string) (int, error) {
			revokeAllCalls++
			return 2, nil
		},
	}

	n, err := RunLogout(context.Background(), "subject-1", "live-token", deps)
	if err != nil || n != 1 {
		t.Fatalf("rotated: n=%d err=%v", n, err)
	}

	// Revoking an already-expired record still counts as consumed.
	status = session.RevokeExpired
	if n, _ = RunLogout(context.Background(), "subject-1", "live-token", deps); n != 1 {
		t.Fatalf("expired: n=%d, want 1", n)
	}

	// Repeat logout is a no-op, never an error.
	for _, s := range []session.RevokeStatus{session.RevokeAlreadyRevoked, session.RevokeNotFound, session.RevokeSubjectMismatch} {
		status = s
		n, err = RunLogout(context.Background(), "subject-1", "live-token", deps)
		if err != nil || n != 0 {
			t.Fatalf("status %d: n=%d err=%v", s, n, err)
		}
	}

	// Empty token means revoke the whole family.
	n, err = RunLogout(context.Background(), "subject-1", "", deps)
	if err != nil || n != 2 || revokeAllCalls != 1 {
		t.Fatalf("logout-all: n=%d err=%v calls=%d", n, err, revokeAllCalls)
	}
}

func TestRunIssueTokenPairSweepIsBestEffort(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var created session.Record
	var cutoff time.Time
	var warned bool

	deps := IssueDeps{
		IssueAccess:  func(IdentityRecord) (string, error) { return "access", nil },
		IssueRefresh: func(IdentityRecord) (string, error) { return "refresh", nil },
		AccessTTL:    15 * time.Minute,
		RefreshTTL:   7 * 24 * time.Hour,
		Retention:    30 * 24 * time.Hour,
		Fingerprint:  func(s string) string { return "fp:" + s },
		Now:          func() time.Time { return now },
		CreateRecord: func(_ context.Context, rec session.Record) error {
			created = rec
			return nil
		},
		PurgeExpiredBefore: func(_ context.Context, _ string, c time.Time) (int, error) {
			cutoff = c
			return 0, errors.New("sweep failed")
		},
		Warn: func(string, ...any) { warned = true },
	}

	pair, err := RunIssueTokenPair(context.Background(), IdentityRecord{SubjectID: "subject-1"}, deps)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if pair.AccessExpiresIn != 900 || pair.RefreshExpiresIn != 604800 {
		t.Fatalf("lifetimes: %d/%d", pair.AccessExpiresIn, pair.RefreshExpiresIn)
	}
	if created.Fingerprint != "fp:refresh" || !created.ExpiresAt.Equal(now.Add(deps.RefreshTTL)) {
		t.Fatalf("record: %+v", created)
	}
	if want := now.Add(-deps.Retention); !cutoff.Equal(want) {
		t.Fatalf("cutoff = %v, want %v", cutoff, want)
	}
	if !warned {
		t.Fatal("sweep failure was not logged")
	}
}
