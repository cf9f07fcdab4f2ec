package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrDuplicateFingerprint is returned when Create sees a record already stored
// under the same fingerprint. Fingerprints are unique by invariant.
var ErrDuplicateFingerprint = errors.New("session: duplicate fingerprint")

// ErrNotFound is returned by Get when no record exists for the fingerprint.
var ErrNotFound = errors.New("session: record not found")

// DefaultRetention is how long revoked or expired records are kept past their
// expiry before becoming eligible for deletion.
const DefaultRetention = 30 * 24 * time.Hour

// RevokeStatus is the outcome of the conditional revoke-if-active script.
type RevokeStatus int

const (
	// RevokeNotFound means no record exists under the fingerprint.
	RevokeNotFound RevokeStatus = iota
	// RevokeSubjectMismatch means the record belongs to a different subject.
	RevokeSubjectMismatch
	// RevokeAlreadyRevoked means the record was consumed or revoked earlier.
	RevokeAlreadyRevoked
	// RevokeExpired means the record was active but past its expiry; it has
	// been revoked as a side effect.
	RevokeExpired
	// RevokeRotated means this call won the race: the record transitioned
	// from active to revoked exactly once, here.
	RevokeRotated
)

const (
	revokeStatusNotFound        int64 = 0
	revokeStatusSubjectMismatch int64 = 1
	revokeStatusAlreadyRevoked  int64 = 2
	revokeStatusExpired         int64 = 3
	revokeStatusRotated         int64 = 4
)

const createScript = `
if redis.call("EXISTS", KEYS[1]) == 1 then
  return 0
end
redis.call("HSET", KEYS[1], "sub", ARGV[1])
redis.call("HSET", KEYS[1], "exp", ARGV[2])
redis.call("HSET", KEYS[1], "crt", ARGV[3])
redis.call("HSET", KEYS[1], "rev", "0")
redis.call("EXPIREAT", KEYS[1], ARGV[5])
redis.call("SADD", KEYS[2], ARGV[4])
local ttl = redis.call("TTL", KEYS[2])
if ttl < 0 or tonumber(ARGV[6]) + ttl < tonumber(ARGV[5]) then
  redis.call("EXPIREAT", KEYS[2], ARGV[5])
end
return 1
`

var createLua = redis.NewScript(createScript)

const revokeScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
if redis.call("HGET", KEYS[1], "sub") ~= ARGV[1] then
  return 1
end
if redis.call("HGET", KEYS[1], "rev") == "1" then
  return 2
end
redis.call("HSET", KEYS[1], "rev", "1")
redis.call("HSET", KEYS[1], "rva", ARGV[2])
local exp = tonumber(redis.call("HGET", KEYS[1], "exp") or "0")
if exp <= tonumber(ARGV[2]) then
  return 3
end
return 4
`

var revokeLua = redis.NewScript(revokeScript)

const revokeAllScript = `
local fps = redis.call("SMEMBERS", KEYS[1])
local n = 0
for _, fp in ipairs(fps) do
  local key = ARGV[1] .. fp
  if redis.call("EXISTS", key) == 1 then
    if redis.call("HGET", key, "rev") ~= "1" then
      redis.call("HSET", key, "rev", "1")
      redis.call("HSET", key, "rva", ARGV[2])
      n = n + 1
    end
  else
    redis.call("SREM", KEYS[1], fp)
  end
end
return n
`

var revokeAllLua = redis.NewScript(revokeAllScript)

const purgeScript = `
local fps = redis.call("SMEMBERS", KEYS[1])
local n = 0
for _, fp in ipairs(fps) do
  local key = ARGV[1] .. fp
  if redis.call("EXISTS", key) == 0 then
    redis.call("SREM", KEYS[1], fp)
  else
    local exp = tonumber(redis.call("HGET", key, "exp") or "0")
    if exp < tonumber(ARGV[2]) then
      redis.call("DEL", key)
      redis.call("SREM", KEYS[1], fp)
      n = n + 1
    end
  end
end
return n
`

var purgeLua = redis.NewScript(purgeScript)

// Store persists session records in Redis. All mutating operations run as Lua
// scripts so state transitions stay atomic under concurrent callers.
type Store struct {
	rdb       *redis.Client
	prefix    string
	retention time.Duration
}

// NewStore returns a Store using the given client. prefix namespaces every
// key; retention <= 0 falls back to [DefaultRetention].
func NewStore(rdb *redis.Client, prefix string, retention time.Duration) *Store {
	if prefix == "" {
		prefix = "rotauth"
	}
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Store{rdb: rdb, prefix: prefix, retention: retention}
}

func (s *Store) recordKey(fingerprint string) string {
	return s.prefix + ":rec:" + fingerprint
}

func (s *Store) subjectKey(subjectID string) string {
	return s.prefix + ":sub:" + subjectID
}

// Create persists a new active record and indexes it under its subject. The
// record carries its own deletion deadline: expiry plus the retention window.
// The subject index expiry only ever extends, so a record with a shorter TTL
// can never strand a longer-lived sibling outside the index.
func (s *Store) Create(ctx context.Context, rec Record) error {
	if rec.SubjectID == "" || rec.Fingerprint == "" {
		return errors.New("session: record missing subject or fingerprint")
	}
	now := time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}

	dropAt := rec.ExpiresAt.Add(s.retention).Unix()
	created, err := createLua.Run(ctx, s.rdb,
		[]string{s.recordKey(rec.Fingerprint), s.subjectKey(rec.SubjectID)},
		rec.SubjectID,
		rec.ExpiresAt.Unix(),
		rec.CreatedAt.Unix(),
		rec.Fingerprint,
		dropAt,
		now.Unix(),
	).Int64()
	if err != nil {
		return fmt.Errorf("session: create: %w", err)
	}
	if created == 0 {
		return ErrDuplicateFingerprint
	}
	return nil
}

// Revoke atomically transitions the record for fingerprint from active to
// revoked, conditional on it belonging to subjectID and not being revoked
// already. This is the concurrency arbiter for refresh rotation: across any
// number of concurrent calls for one fingerprint, exactly one observes
// [RevokeRotated].
func (s *Store) Revoke(ctx context.Context, subjectID, fingerprint string) (RevokeStatus, error) {
	status, err := revokeLua.Run(ctx, s.rdb,
		[]string{s.recordKey(fingerprint)},
		subjectID,
		time.Now().Unix(),
	).Int64()
	if err != nil {
		return RevokeNotFound, fmt.Errorf("session: revoke: %w", err)
	}

	switch status {
	case revokeStatusNotFound:
		return RevokeNotFound, nil
	case revokeStatusSubjectMismatch:
		return RevokeSubjectMismatch, nil
	case revokeStatusAlreadyRevoked:
		return RevokeAlreadyRevoked, nil
	case revokeStatusExpired:
		return RevokeExpired, nil
	case revokeStatusRotated:
		return RevokeRotated, nil
	default:
		return RevokeNotFound, fmt.Errorf("session: revoke: unexpected status %d", status)
	}
}

// RevokeAllForSubject revokes every non-revoked record indexed under the
// subject and returns how many transitioned. Already-revoked and missing
// records are left untouched, so the call is idempotent.
func (s *Store) RevokeAllForSubject(ctx context.Context, subjectID string) (int, error) {
	n, err := revokeAllLua.Run(ctx, s.rdb,
		[]string{s.subjectKey(subjectID)},
		s.prefix+":rec:",
		time.Now().Unix(),
	).Int64()
	if err != nil {
		return 0, fmt.Errorf("session: revoke all: %w", err)
	}
	return int(n), nil
}

// PurgeExpiredBefore deletes the subject's records whose expiry predates
// cutoff and prunes dangling index entries. Best-effort housekeeping; the
// per-record EXPIREAT remains the hard deletion bound.
func (s *Store) PurgeExpiredBefore(ctx context.Context, subjectID string, cutoff time.Time) (int, error) {
	n, err := purgeLua.Run(ctx, s.rdb,
		[]string{s.subjectKey(subjectID)},
		s.prefix+":rec:",
		cutoff.Unix(),
	).Int64()
	if err != nil {
		return 0, fmt.Errorf("session: purge: %w", err)
	}
	return int(n), nil
}

// Get loads the record stored under fingerprint.
func (s *Store) Get(ctx context.Context, fingerprint string) (*Record, error) {
	fields, err := s.rdb.HGetAll(ctx, s.recordKey(fingerprint)).Result()
	if err != nil {
		return nil, fmt.Errorf("session: get: %w", err)
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	return decodeRecord(fingerprint, fields)
}

// ListForSubject returns every record still indexed under the subject,
// including revoked ones that are inside the retention window.
func (s *Store) ListForSubject(ctx context.Context, subjectID string) ([]Record, error) {
	fps, err := s.rdb.SMembers(ctx, s.subjectKey(subjectID)).Result()
	if err != nil {
		return nil, fmt.Errorf("session: list: %w", err)
	}

	out := make([]Record, 0, len(fps))
	for _, fp := range fps {
		rec, err := s.Get(ctx, fp)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, nil
}

func decodeRecord(fingerprint string, fields map[string]string) (*Record, error) {
	rec := &Record{
		Fingerprint: fingerprint,
		SubjectID:   fields["sub"],
		Revoked:     fields["rev"] == "1",
	}
	if rec.SubjectID == "" {
		return nil, errors.New("session: record missing subject")
	}

	exp, err := strconv.ParseInt(fields["exp"], 10, 64)
	if err != nil {
		return nil, errors.New("session: record has invalid expiry")
	}
	rec.ExpiresAt = time.Unix(exp, 0)

	if crt := fields["crt"]; crt != "" {
		n, err := strconv.ParseInt(crt, 10, 64)
		if err != nil {
			return nil, errors.New("session: record has invalid creation time")
		}
		rec.CreatedAt = time.Unix(n, 0)
	}
	if rva := fields["rva"]; rva != "" {
		n, err := strconv.ParseInt(rva, 10, 64)
		if err != nil {
			return nil, errors.New("session: record has invalid revocation time")
		}
		rec.RevokedAt = time.Unix(n, 0)
	}
	return rec, nil
}
