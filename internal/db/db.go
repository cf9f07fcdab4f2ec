// Package db owns the embedded schema and Postgres pool construction for the
// rotauth daemon.
package db

import (
	"context"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MigrationFS embeds the SQL migration files applied by the migrate runner.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS

// Open connects a pgx pool and verifies the connection. The caller owns the
// pool and must Close it.
func Open(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("db: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db: ping: %w", err)
	}
	return pool, nil
}
