package contracts

import "context"

// Repository interfaces for the four cache collections. The Get
// methods return (nil, nil) when no record exists: absence is a
// normal cache state, not an error.

// WatchlistRepository manages the set of tracked symbols
type WatchlistRepository interface {
	List(ctx context.Context) ([]WatchlistEntry, error)
	Add(ctx context.Context, symbol string) error
	Remove(ctx context.Context, symbol string) error
}

// MetricsRepository manages cached metrics snapshots
type MetricsRepository interface {
	Get(ctx context.Context, symbol string) (*MetricsRecord, error)
	Save(ctx context.Context, record *MetricsRecord) error
	Delete(ctx context.Context, symbol string) error
}

// NewsRepository manages cached article sets
type NewsRepository interface {
	Get(ctx context.Context, symbol string) (*NewsRecord, error)
	Save(ctx context.Context, record *NewsRecord) error
	Delete(ctx context.Context, symbol string) error
}

// ScoreRepository manages cached score records
type ScoreRepository interface {
	Get(ctx context.Context, symbol string) (*ScoreRecord, error)
	Save(ctx context.Context, record *ScoreRecord) error
	Delete(ctx context.Context, symbol string) error
	ListAll(ctx context.Context) ([]ScoreRecord, error)
}
