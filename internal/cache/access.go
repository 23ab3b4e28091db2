package cache

import (
	"context"
	"errors"
	"time"

	"github.com/duallens/analytics/internal/contracts"
	"github.com/duallens/analytics/internal/telemetry"
	"github.com/duallens/analytics/pkg/logger"
)

// ErrEmptySymbol is returned for reads with a blank symbol
var ErrEmptySymbol = errors.New("symbol must not be empty")

// Scorer produces a score record for a symbol with valid metrics.
// Satisfied by scoring.Engine; tests substitute a stub.
type Scorer interface {
	Score(ctx context.Context, symbol string, metrics *contracts.MetricsPayload) *contracts.ScoreRecord
}

// Accessor is the read-through cache layer. A fresh record is served
// as-is; a miss or stale record triggers a synchronous provider call
// whose result is written back. On provider failure the last-known
// record is served if one exists.
//
// The accessor does not deduplicate concurrent misses for the same
// key; the refresh scheduler owns at-most-one-in-flight per symbol.
type Accessor struct {
	metricsRepo contracts.MetricsRepository
	newsRepo    contracts.NewsRepository
	scoreRepo   contracts.ScoreRepository

	metricsProvider contracts.MetricsProvider
	newsProvider    contracts.NewsProvider
	scorer          Scorer

	maxAge time.Duration
	logger *logger.Logger
}

// New creates an Accessor with the given default staleness window
func New(
	metricsRepo contracts.MetricsRepository,
	newsRepo contracts.NewsRepository,
	scoreRepo contracts.ScoreRepository,
	metricsProvider contracts.MetricsProvider,
	newsProvider contracts.NewsProvider,
	scorer Scorer,
	maxAge time.Duration,
	log *logger.Logger,
) *Accessor {
	return &Accessor{
		metricsRepo:     metricsRepo,
		newsRepo:        newsRepo,
		scoreRepo:       scoreRepo,
		metricsProvider: metricsProvider,
		newsProvider:    newsProvider,
		scorer:          scorer,
		maxAge:          maxAge,
		logger:          log.WithField("module", "cache"),
	}
}

// window normalizes a caller-supplied max age; <= 0 means the default
func (a *Accessor) window(maxAge time.Duration) time.Duration {
	if maxAge <= 0 {
		return a.maxAge
	}
	return maxAge
}

// Metrics returns the metrics record for a symbol, refreshing it from
// the provider when missing or stale.
func (a *Accessor) Metrics(ctx context.Context, symbol string, maxAge time.Duration) (*contracts.MetricsRecord, error) {
	if symbol == "" {
		return nil, ErrEmptySymbol
	}

	cached, err := a.metricsRepo.Get(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if cached != nil && cached.Fresh(a.window(maxAge)) {
		telemetry.CacheHits.WithLabelValues("metrics").Inc()
		return cached, nil
	}
	telemetry.CacheMisses.WithLabelValues("metrics").Inc()

	payload, err := a.metricsProvider.FetchMetrics(ctx, symbol)
	if err != nil {
		telemetry.ProviderErrors.WithLabelValues("metrics").Inc()
		if cached != nil {
			a.logger.WithError(err).WithField("symbol", symbol).Warn("Metrics fetch failed, serving stale record")
			return cached, nil
		}
		return nil, err
	}

	record := &contracts.MetricsRecord{
		Symbol:    symbol,
		Payload:   *payload,
		UpdatedAt: time.Now(),
	}
	if err := a.metricsRepo.Save(ctx, record); err != nil {
		a.logger.WithError(err).WithField("symbol", symbol).Error("Failed to write metrics record")
	}
	return record, nil
}

// News returns the news record for a symbol, refreshing it from the
// provider when missing or stale.
func (a *Accessor) News(ctx context.Context, symbol string, maxAge time.Duration) (*contracts.NewsRecord, error) {
	if symbol == "" {
		return nil, ErrEmptySymbol
	}

	cached, err := a.newsRepo.Get(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if cached != nil && cached.Fresh(a.window(maxAge)) {
		telemetry.CacheHits.WithLabelValues("news").Inc()
		return cached, nil
	}
	telemetry.CacheMisses.WithLabelValues("news").Inc()

	articles, err := a.newsProvider.FetchNews(ctx, symbol)
	if err != nil {
		telemetry.ProviderErrors.WithLabelValues("news").Inc()
		if cached != nil {
			a.logger.WithError(err).WithField("symbol", symbol).Warn("News fetch failed, serving stale record")
			return cached, nil
		}
		return nil, err
	}

	record := &contracts.NewsRecord{
		Symbol:    symbol,
		Articles:  articles,
		UpdatedAt: time.Now(),
	}
	if err := a.newsRepo.Save(ctx, record); err != nil {
		a.logger.WithError(err).WithField("symbol", symbol).Error("Failed to write news record")
	}
	return record, nil
}

// Score returns the score record for a symbol, rescoring when missing
// or stale. Scoring needs valid metrics, which are resolved through
// this same read-through layer first.
func (a *Accessor) Score(ctx context.Context, symbol string, maxAge time.Duration) (*contracts.ScoreRecord, error) {
	if symbol == "" {
		return nil, ErrEmptySymbol
	}

	cached, err := a.scoreRepo.Get(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if cached != nil && cached.Fresh(a.window(maxAge)) {
		telemetry.CacheHits.WithLabelValues("score").Inc()
		return cached, nil
	}
	telemetry.CacheMisses.WithLabelValues("score").Inc()

	metrics, err := a.Metrics(ctx, symbol, maxAge)
	if err != nil {
		if cached != nil {
			a.logger.WithError(err).WithField("symbol", symbol).Warn("Metrics unavailable, serving stale score")
			return cached, nil
		}
		return nil, err
	}

	record := a.scorer.Score(ctx, symbol, &metrics.Payload)
	if err := a.scoreRepo.Save(ctx, record); err != nil {
		a.logger.WithError(err).WithField("symbol", symbol).Error("Failed to write score record")
	}
	return record, nil
}

// CachedMetrics returns the cached record without triggering a
// refresh. maxAge <= 0 returns the record at any age so callers can
// present stale-but-shown data; otherwise stale records read as absent.
func (a *Accessor) CachedMetrics(ctx context.Context, symbol string, maxAge time.Duration) (*contracts.MetricsRecord, error) {
	if symbol == "" {
		return nil, ErrEmptySymbol
	}

	cached, err := a.metricsRepo.Get(ctx, symbol)
	if err != nil || cached == nil {
		return nil, err
	}
	if maxAge > 0 && !cached.Fresh(maxAge) {
		return nil, nil
	}
	return cached, nil
}

// CachedNews returns the cached record without triggering a refresh
func (a *Accessor) CachedNews(ctx context.Context, symbol string, maxAge time.Duration) (*contracts.NewsRecord, error) {
	if symbol == "" {
		return nil, ErrEmptySymbol
	}

	cached, err := a.newsRepo.Get(ctx, symbol)
	if err != nil || cached == nil {
		return nil, err
	}
	if maxAge > 0 && !cached.Fresh(maxAge) {
		return nil, nil
	}
	return cached, nil
}

// CachedScore returns the cached record without triggering a refresh
func (a *Accessor) CachedScore(ctx context.Context, symbol string, maxAge time.Duration) (*contracts.ScoreRecord, error) {
	if symbol == "" {
		return nil, ErrEmptySymbol
	}

	cached, err := a.scoreRepo.Get(ctx, symbol)
	if err != nil || cached == nil {
		return nil, err
	}
	if maxAge > 0 && !cached.Fresh(maxAge) {
		return nil, nil
	}
	return cached, nil
}
