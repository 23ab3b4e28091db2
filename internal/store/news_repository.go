package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/duallens/analytics/internal/contracts"
)

// NewsRepository implements contracts.NewsRepository on Postgres
type NewsRepository struct {
	pool *pgxpool.Pool
}

// NewNewsRepository creates a new news repository
func NewNewsRepository(pool *pgxpool.Pool) *NewsRepository {
	return &NewsRepository{pool: pool}
}

// Get retrieves the news record for a symbol, (nil, nil) when absent
func (r *NewsRepository) Get(ctx context.Context, symbol string) (*contracts.NewsRecord, error) {
	query := `
		SELECT symbol, articles, updated_at
		FROM news
		WHERE symbol = $1
	`

	var rec contracts.NewsRecord
	var articles []byte
	err := r.pool.QueryRow(ctx, query, symbol).Scan(&rec.Symbol, &articles, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(articles, &rec.Articles); err != nil {
		return nil, fmt.Errorf("decode news articles for %s: %w", symbol, err)
	}
	return &rec, nil
}

// Save upserts the news record, replacing the article set wholesale
func (r *NewsRepository) Save(ctx context.Context, record *contracts.NewsRecord) error {
	articles, err := json.Marshal(record.Articles)
	if err != nil {
		return fmt.Errorf("encode news articles for %s: %w", record.Symbol, err)
	}

	query := `
		INSERT INTO news (symbol, articles, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (symbol) DO UPDATE SET
			articles = EXCLUDED.articles,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.pool.Exec(ctx, query, record.Symbol, articles, record.UpdatedAt)
	return err
}

// Delete removes the news record for a symbol
func (r *NewsRepository) Delete(ctx context.Context, symbol string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM news WHERE symbol = $1`, symbol)
	return err
}
