package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Bootstrap creates the cache tables if they do not exist.
// Four collections: watchlist, metrics, news, scores.
func Bootstrap(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS watchlist (
			symbol   text PRIMARY KEY,
			added_at timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS metrics (
			symbol     text PRIMARY KEY,
			payload    jsonb NOT NULL,
			updated_at timestamptz NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS news (
			symbol     text PRIMARY KEY,
			articles   jsonb NOT NULL,
			updated_at timestamptz NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS scores (
			symbol         text PRIMARY KEY,
			quantitative   double precision NOT NULL,
			qualitative    double precision NOT NULL,
			overall        double precision NOT NULL,
			recommendation text NOT NULL,
			justification  text NOT NULL DEFAULT '',
			updated_at     timestamptz NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema bootstrap: %w", err)
		}
	}

	return nil
}
