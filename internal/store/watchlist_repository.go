package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/duallens/analytics/internal/contracts"
)

// WatchlistRepository implements contracts.WatchlistRepository on Postgres
type WatchlistRepository struct {
	pool *pgxpool.Pool
}

// NewWatchlistRepository creates a new watchlist repository
func NewWatchlistRepository(pool *pgxpool.Pool) *WatchlistRepository {
	return &WatchlistRepository{pool: pool}
}

// List returns all watchlist entries ordered by symbol
func (r *WatchlistRepository) List(ctx context.Context) ([]contracts.WatchlistEntry, error) {
	query := `
		SELECT symbol, added_at
		FROM watchlist
		ORDER BY symbol ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []contracts.WatchlistEntry
	for rows.Next() {
		var e contracts.WatchlistEntry
		if err := rows.Scan(&e.Symbol, &e.AddedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Add inserts a symbol. Adding an already-tracked symbol is a no-op.
func (r *WatchlistRepository) Add(ctx context.Context, symbol string) error {
	query := `
		INSERT INTO watchlist (symbol, added_at)
		VALUES ($1, now())
		ON CONFLICT (symbol) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query, symbol)
	return err
}

// Remove deletes a symbol and cascades to its cached metrics, news and
// score rows so no orphaned cache entries survive removal.
func (r *WatchlistRepository) Remove(ctx context.Context, symbol string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin remove: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, query := range []string{
		`DELETE FROM watchlist WHERE symbol = $1`,
		`DELETE FROM metrics WHERE symbol = $1`,
		`DELETE FROM news WHERE symbol = $1`,
		`DELETE FROM scores WHERE symbol = $1`,
	} {
		if _, err := tx.Exec(ctx, query, symbol); err != nil {
			return fmt.Errorf("remove %s: %w", symbol, err)
		}
	}

	return tx.Commit(ctx)
}
