package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/duallens/analytics/internal/contracts"
)

// ScoreRepository implements contracts.ScoreRepository on Postgres
type ScoreRepository struct {
	pool *pgxpool.Pool
}

// NewScoreRepository creates a new score repository
func NewScoreRepository(pool *pgxpool.Pool) *ScoreRepository {
	return &ScoreRepository{pool: pool}
}

// Get retrieves the score record for a symbol, (nil, nil) when absent
func (r *ScoreRepository) Get(ctx context.Context, symbol string) (*contracts.ScoreRecord, error) {
	query := `
		SELECT symbol, quantitative, qualitative, overall, recommendation, justification, updated_at
		FROM scores
		WHERE symbol = $1
	`

	var rec contracts.ScoreRecord
	err := r.pool.QueryRow(ctx, query, symbol).Scan(
		&rec.Symbol, &rec.Quantitative, &rec.Qualitative, &rec.Overall,
		&rec.Recommendation, &rec.Justification, &rec.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Save upserts the score record
func (r *ScoreRepository) Save(ctx context.Context, record *contracts.ScoreRecord) error {
	query := `
		INSERT INTO scores (symbol, quantitative, qualitative, overall, recommendation, justification, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (symbol) DO UPDATE SET
			quantitative = EXCLUDED.quantitative,
			qualitative = EXCLUDED.qualitative,
			overall = EXCLUDED.overall,
			recommendation = EXCLUDED.recommendation,
			justification = EXCLUDED.justification,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.pool.Exec(ctx, query,
		record.Symbol, record.Quantitative, record.Qualitative, record.Overall,
		record.Recommendation, record.Justification, record.UpdatedAt,
	)
	return err
}

// Delete removes the score record for a symbol
func (r *ScoreRepository) Delete(ctx context.Context, symbol string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM scores WHERE symbol = $1`, symbol)
	return err
}

// ListAll returns every score record ordered by overall score descending
func (r *ScoreRepository) ListAll(ctx context.Context) ([]contracts.ScoreRecord, error) {
	query := `
		SELECT symbol, quantitative, qualitative, overall, recommendation, justification, updated_at
		FROM scores
		ORDER BY overall DESC, symbol ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []contracts.ScoreRecord
	for rows.Next() {
		var rec contracts.ScoreRecord
		if err := rows.Scan(
			&rec.Symbol, &rec.Quantitative, &rec.Qualitative, &rec.Overall,
			&rec.Recommendation, &rec.Justification, &rec.UpdatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
