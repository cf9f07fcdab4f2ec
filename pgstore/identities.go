package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fenrirsec/rotauth"
)

const uniqueViolation = "23505"

// Identities is a Postgres-backed rotauth.IdentityProvider. Subject IDs are
// random UUIDs assigned at creation.
type Identities struct {
	pool *pgxpool.Pool
}

var _ rotauth.IdentityProvider = (*Identities)(nil)

// NewIdentities returns an identity provider backed by pool.
func NewIdentities(pool *pgxpool.Pool) *Identities {
	return &Identities{pool: pool}
}

func (s *Identities) GetByEmail(ctx context.Context, email string) (rotauth.IdentityRecord, error) {
	return s.getBy(ctx,
		`SELECT subject_id, email, name, password_digest, created_at
		   FROM identities WHERE email = $1`, email)
}

func (s *Identities) GetByID(ctx context.Context, subjectID string) (rotauth.IdentityRecord, error) {
	return s.getBy(ctx,
		`SELECT subject_id, email, name, password_digest, created_at
		   FROM identities WHERE subject_id = $1`, subjectID)
}

func (s *Identities) getBy(ctx context.Context, query, arg string) (rotauth.IdentityRecord, error) {
	var rec rotauth.IdentityRecord
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&rec.SubjectID, &rec.Email, &rec.Name, &rec.PasswordDigest, &rec.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return rotauth.IdentityRecord{}, rotauth.ErrIdentityNotFound
	}
	if err != nil {
		return rotauth.IdentityRecord{}, fmt.Errorf("pgstore: identity lookup: %w", err)
	}
	return rec, nil
}

// Create inserts the identity; the email unique index is the atomic
// uniqueness claim.
func (s *Identities) Create(ctx context.Context, input rotauth.NewIdentity) (rotauth.IdentityRecord, error) {
	rec := rotauth.IdentityRecord{
		SubjectID:      uuid.NewString(),
		Email:          input.Email,
		Name:           input.Name,
		PasswordDigest: input.PasswordDigest,
		CreatedAt:      time.Now().UTC(),
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO identities (subject_id, email, name, password_digest, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		rec.SubjectID, rec.Email, rec.Name, rec.PasswordDigest, rec.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return rotauth.IdentityRecord{}, rotauth.ErrEmailTaken
		}
		return rotauth.IdentityRecord{}, fmt.Errorf("pgstore: identity insert: %w", err)
	}
	return rec, nil
}

func (s *Identities) UpdatePasswordDigest(ctx context.Context, subjectID, digest string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE identities SET password_digest = $2 WHERE subject_id = $1`,
		subjectID, digest,
	)
	if err != nil {
		return fmt.Errorf("pgstore: digest update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return rotauth.ErrIdentityNotFound
	}
	return nil
}
