package ranking

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/duallens/analytics/internal/contracts"
	"github.com/duallens/analytics/pkg/logger"
)

// ErrInvalidTopN is returned when a caller asks for fewer than one result
var ErrInvalidTopN = errors.New("topN must be >= 1")

// DefaultPrefilterSize bounds how many symbols reach the scoring engine
// in one batch. Generation is the expensive step, so the pool is cut by
// market cap before any prompt is built.
const DefaultPrefilterSize = 30

// Source supplies cache-aware reads for ranking. Satisfied by
// cache.Accessor.
type Source interface {
	Metrics(ctx context.Context, symbol string, maxAge time.Duration) (*contracts.MetricsRecord, error)
	Score(ctx context.Context, symbol string, maxAge time.Duration) (*contracts.ScoreRecord, error)
}

// Ranker scores a pool of symbols and returns the best of them.
type Ranker struct {
	source        Source
	prefilterSize int
	maxAge        time.Duration
	logger        *logger.Logger
}

// New creates a Ranker. prefilterSize < 1 falls back to the default.
func New(source Source, prefilterSize int, maxAge time.Duration, log *logger.Logger) *Ranker {
	if prefilterSize < 1 {
		prefilterSize = DefaultPrefilterSize
	}
	return &Ranker{
		source:        source,
		prefilterSize: prefilterSize,
		maxAge:        maxAge,
		logger:        log.WithField("module", "ranking"),
	}
}

type candidate struct {
	symbol    string
	marketCap float64
}

// RankTop resolves metrics for each symbol, keeps the largest
// prefilterSize candidates by market cap, scores them, and returns up
// to topN records ordered by overall score descending. Symbols whose
// metrics cannot be resolved are skipped, never fatal.
func (r *Ranker) RankTop(ctx context.Context, symbols []string, topN int) ([]contracts.ScoreRecord, error) {
	if topN < 1 {
		return nil, ErrInvalidTopN
	}

	candidates := make([]candidate, 0, len(symbols))
	seen := make(map[string]struct{}, len(symbols))
	for _, symbol := range symbols {
		if symbol == "" {
			continue
		}
		if _, dup := seen[symbol]; dup {
			continue
		}
		seen[symbol] = struct{}{}

		rec, err := r.source.Metrics(ctx, symbol, r.maxAge)
		if err != nil || rec == nil {
			r.logger.WithError(err).WithField("symbol", symbol).Warn("Excluding symbol from ranking, metrics unavailable")
			continue
		}
		candidates = append(candidates, candidate{symbol: symbol, marketCap: rec.Payload.MarketCap})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].marketCap > candidates[j].marketCap
	})
	if len(candidates) > r.prefilterSize {
		candidates = candidates[:r.prefilterSize]
	}

	ranked := make([]contracts.ScoreRecord, 0, len(candidates))
	for _, c := range candidates {
		score, err := r.source.Score(ctx, c.symbol, r.maxAge)
		if err != nil || score == nil {
			r.logger.WithError(err).WithField("symbol", c.symbol).Warn("Excluding symbol from ranking, scoring unavailable")
			continue
		}
		ranked = append(ranked, *score)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Overall > ranked[j].Overall
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked, nil
}
