package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fenrirsec/rotauth"
	"github.com/fenrirsec/rotauth/session"
)

// Sessions is a Postgres-backed rotauth.SessionStore. The fingerprint column
// is the primary key and the conditional UPDATE in Revoke is the rotation
// arbiter.
type Sessions struct {
	pool *pgxpool.Pool
}

var _ rotauth.SessionStore = (*Sessions)(nil)

// NewSessions returns a session store backed by pool.
func NewSessions(pool *pgxpool.Pool) *Sessions {
	return &Sessions{pool: pool}
}

func (s *Sessions) Create(ctx context.Context, rec session.Record) error {
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO session_records (fingerprint, subject_id, expires_at, created_at, revoked)
		 VALUES ($1, $2, $3, $4, FALSE)`,
		rec.Fingerprint, rec.SubjectID, rec.ExpiresAt, created,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return session.ErrDuplicateFingerprint
		}
		return fmt.Errorf("pgstore: session insert: %w", err)
	}
	return nil
}

// Revoke consumes the record if it is live and owned by subjectID. The UPDATE
// matches at most once across concurrent callers; everyone else falls through
// to the classification query.
func (s *Sessions) Revoke(ctx context.Context, subjectID, fingerprint string) (session.RevokeStatus, error) {
	var expiresAt time.Time
	err := s.pool.QueryRow(ctx,
		`UPDATE session_records
		    SET revoked = TRUE, revoked_at = now()
		  WHERE fingerprint = $1 AND subject_id = $2 AND revoked = FALSE
		 RETURNING expires_at`,
		fingerprint, subjectID,
	).Scan(&expiresAt)
	if err == nil {
		if !expiresAt.After(time.Now()) {
			return session.RevokeExpired, nil
		}
		return session.RevokeRotated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return session.RevokeNotFound, fmt.Errorf("pgstore: session revoke: %w", err)
	}

	// Nothing was consumed; classify why.
	var owner string
	err = s.pool.QueryRow(ctx,
		`SELECT subject_id FROM session_records WHERE fingerprint = $1`,
		fingerprint,
	).Scan(&owner)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return session.RevokeNotFound, nil
	case err != nil:
		return session.RevokeNotFound, fmt.Errorf("pgstore: session classify: %w", err)
	case owner != subjectID:
		return session.RevokeSubjectMismatch, nil
	default:
		return session.RevokeAlreadyRevoked, nil
	}
}

func (s *Sessions) RevokeAllForSubject(ctx context.Context, subjectID string) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE session_records
		    SET revoked = TRUE, revoked_at = now()
		  WHERE subject_id = $1 AND revoked = FALSE`,
		subjectID,
	)
	if err != nil {
		return 0, fmt.Errorf("pgstore: revoke all: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *Sessions) PurgeExpiredBefore(ctx context.Context, subjectID string, cutoff time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM session_records WHERE subject_id = $1 AND expires_at < $2`,
		subjectID, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("pgstore: purge: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
