package ranking

import (
	"context"
	"time"

	"github.com/duallens/analytics/pkg/logger"
)

// Criteria is the quality filter applied before ranking a universe.
// Zero-valued fields are not enforced.
type Criteria struct {
	MinMarketCap float64 // billions USD
	MaxPE        float64
	MinPrice     float64
}

// DefaultCriteria keeps large, sanely-priced companies: cap above $10B
// and trailing P/E under 40.
func DefaultCriteria() Criteria {
	return Criteria{
		MinMarketCap: 10,
		MaxPE:        40,
		MinPrice:     5,
	}
}

// Screener narrows a ticker universe to symbols passing a fundamentals
// filter, feeding the ranker a pool worth scoring.
type Screener struct {
	source Source
	maxAge time.Duration
	logger *logger.Logger
}

// NewScreener creates a Screener over the given cache-aware source
func NewScreener(source Source, maxAge time.Duration, log *logger.Logger) *Screener {
	return &Screener{
		source: source,
		maxAge: maxAge,
		logger: log.WithField("module", "screener"),
	}
}

// Screen returns the subset of universe passing the criteria, in the
// universe's original order. Symbols with unfetchable metrics are
// dropped silently.
func (s *Screener) Screen(ctx context.Context, universe []string, criteria Criteria) []string {
	passed := make([]string, 0, len(universe))
	for _, symbol := range universe {
		if symbol == "" {
			continue
		}

		rec, err := s.source.Metrics(ctx, symbol, s.maxAge)
		if err != nil || rec == nil {
			s.logger.WithError(err).WithField("symbol", symbol).Debug("Screen skipping symbol, metrics unavailable")
			continue
		}

		p := rec.Payload
		if criteria.MinMarketCap > 0 && p.MarketCap < criteria.MinMarketCap {
			continue
		}
		if criteria.MaxPE > 0 && (p.PERatio <= 0 || p.PERatio > criteria.MaxPE) {
			continue
		}
		if criteria.MinPrice > 0 && p.Price < criteria.MinPrice {
			continue
		}
		passed = append(passed, symbol)
	}
	return passed
}
