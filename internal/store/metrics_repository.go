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

// MetricsRepository implements contracts.MetricsRepository on Postgres
type MetricsRepository struct {
	pool *pgxpool.Pool
}

// NewMetricsRepository creates a new metrics repository
func NewMetricsRepository(pool *pgxpool.Pool) *MetricsRepository {
	return &MetricsRepository{pool: pool}
}

// Get retrieves the metrics record for a symbol, (nil, nil) when absent
func (r *MetricsRepository) Get(ctx context.Context, symbol string) (*contracts.MetricsRecord, error) {
	query := `
		SELECT symbol, payload, updated_at
		FROM metrics
		WHERE symbol = $1
	`

	var rec contracts.MetricsRecord
	var payload []byte
	err := r.pool.QueryRow(ctx, query, symbol).Scan(&rec.Symbol, &payload, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(payload, &rec.Payload); err != nil {
		return nil, fmt.Errorf("decode metrics payload for %s: %w", symbol, err)
	}
	return &rec, nil
}

// Save upserts the metrics record. The single-statement upsert keeps
// the write atomic at the record level: readers see the previous or
// the next complete record, never a partial one.
func (r *MetricsRepository) Save(ctx context.Context, record *contracts.MetricsRecord) error {
	payload, err := json.Marshal(record.Payload)
	if err != nil {
		return fmt.Errorf("encode metrics payload for %s: %w", record.Symbol, err)
	}

	query := `
		INSERT INTO metrics (symbol, payload, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (symbol) DO UPDATE SET
			payload = EXCLUDED.payload,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.pool.Exec(ctx, query, record.Symbol, payload, record.UpdatedAt)
	return err
}

// Delete removes the metrics record for a symbol
func (r *MetricsRepository) Delete(ctx context.Context, symbol string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM metrics WHERE symbol = $1`, symbol)
	return err
}
