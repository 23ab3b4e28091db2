package contracts

import "context"

// External collaborators the core depends on. Implementations live in
// internal/external and internal/ai; tests substitute fakes.

// MetricsProvider fetches the financial snapshot for one symbol
type MetricsProvider interface {
	FetchMetrics(ctx context.Context, symbol string) (*MetricsPayload, error)
}

// NewsProvider fetches recent articles for one symbol. Implementations
// may aggregate multiple sources; the result is deduplicated by title.
type NewsProvider interface {
	FetchNews(ctx context.Context, symbol string) ([]NewsItem, error)
}

// FilingsProvider fetches recent regulatory filings for one symbol
type FilingsProvider interface {
	FetchFilings(ctx context.Context, symbol string) ([]Filing, error)
}

// Generator is a text-completion service
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Retriever returns ranked context chunks for a query
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]string, error)
}
