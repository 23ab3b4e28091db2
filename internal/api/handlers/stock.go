package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/duallens/analytics/internal/contracts"
	"github.com/duallens/analytics/pkg/logger"
)

// CacheReader is the read side of the cache access layer. Satisfied by
// cache.Accessor.
type CacheReader interface {
	Metrics(ctx context.Context, symbol string, maxAge time.Duration) (*contracts.MetricsRecord, error)
	News(ctx context.Context, symbol string, maxAge time.Duration) (*contracts.NewsRecord, error)
	Score(ctx context.Context, symbol string, maxAge time.Duration) (*contracts.ScoreRecord, error)
	CachedMetrics(ctx context.Context, symbol string, maxAge time.Duration) (*contracts.MetricsRecord, error)
	CachedNews(ctx context.Context, symbol string, maxAge time.Duration) (*contracts.NewsRecord, error)
	CachedScore(ctx context.Context, symbol string, maxAge time.Duration) (*contracts.ScoreRecord, error)
}

// Summarizer generates plain-text digests. Satisfied by
// scoring.Summarizer.
type Summarizer interface {
	SummarizeStock(ctx context.Context, symbol string, metrics *contracts.MetricsPayload, news []contracts.NewsItem) string
	SummarizeNews(ctx context.Context, news []contracts.NewsItem) string
	SummarizeFilings(ctx context.Context, symbol string, filings []contracts.Filing) string
}

// StockHandler handles per-symbol read endpoints
type StockHandler struct {
	cache      CacheReader
	filings    contracts.FilingsProvider
	summarizer Summarizer
	trigger    RefreshTrigger
	logger     *logger.Logger
}

// NewStockHandler creates a new stock handler
func NewStockHandler(cache CacheReader, filings contracts.FilingsProvider, summarizer Summarizer, trigger RefreshTrigger, log *logger.Logger) *StockHandler {
	return &StockHandler{
		cache:      cache,
		filings:    filings,
		summarizer: summarizer,
		trigger:    trigger,
		logger:     log,
	}
}

// requestParams extracts the symbol and read options from a request.
// cached=true means serve only what is already stored, never fetch.
// max_age overrides the staleness window (Go duration, e.g. "6h").
func requestParams(r *http.Request) (symbol string, cached bool, maxAge time.Duration) {
	symbol = normalizeSymbol(mux.Vars(r)["symbol"])
	cached = r.URL.Query().Get("cached") == "true"
	if raw := r.URL.Query().Get("max_age"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			maxAge = parsed
		}
	}
	return symbol, cached, maxAge
}

// GetMetrics returns the financial snapshot for a symbol
// GET /api/stocks/{symbol}/metrics
func (h *StockHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	symbol, cached, maxAge := requestParams(r)
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "Symbol is required")
		return
	}

	var record *contracts.MetricsRecord
	var err error
	if cached {
		record, err = h.cache.CachedMetrics(r.Context(), symbol, maxAge)
	} else {
		record, err = h.cache.Metrics(r.Context(), symbol, maxAge)
	}
	if err != nil {
		h.logger.WithError(err).WithField("symbol", symbol).Error("Failed to read metrics")
		respondError(w, http.StatusBadGateway, "Metrics unavailable")
		return
	}
	if record == nil {
		respondError(w, http.StatusNotFound, "No metrics cached for symbol")
		return
	}

	respondJSON(w, http.StatusOK, record)
}

// GetNews returns recent articles for a symbol
// GET /api/stocks/{symbol}/news
func (h *StockHandler) GetNews(w http.ResponseWriter, r *http.Request) {
	symbol, cached, maxAge := requestParams(r)
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "Symbol is required")
		return
	}

	var record *contracts.NewsRecord
	var err error
	if cached {
		record, err = h.cache.CachedNews(r.Context(), symbol, maxAge)
	} else {
		record, err = h.cache.News(r.Context(), symbol, maxAge)
	}
	if err != nil {
		h.logger.WithError(err).WithField("symbol", symbol).Error("Failed to read news")
		respondError(w, http.StatusBadGateway, "News unavailable")
		return
	}
	if record == nil {
		respondError(w, http.StatusNotFound, "No news cached for symbol")
		return
	}

	respondJSON(w, http.StatusOK, record)
}

// GetScore returns the composite recommendation for a symbol
// GET /api/stocks/{symbol}/score
func (h *StockHandler) GetScore(w http.ResponseWriter, r *http.Request) {
	symbol, cached, maxAge := requestParams(r)
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "Symbol is required")
		return
	}

	var record *contracts.ScoreRecord
	var err error
	if cached {
		record, err = h.cache.CachedScore(r.Context(), symbol, maxAge)
	} else {
		record, err = h.cache.Score(r.Context(), symbol, maxAge)
	}
	if err != nil {
		h.logger.WithError(err).WithField("symbol", symbol).Error("Failed to read score")
		respondError(w, http.StatusBadGateway, "Score unavailable")
		return
	}
	if record == nil {
		respondError(w, http.StatusNotFound, "No score cached for symbol")
		return
	}

	respondJSON(w, http.StatusOK, record)
}

// GetFilings returns recent SEC filings for a symbol
// GET /api/stocks/{symbol}/filings
func (h *StockHandler) GetFilings(w http.ResponseWriter, r *http.Request) {
	symbol := normalizeSymbol(mux.Vars(r)["symbol"])
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "Symbol is required")
		return
	}

	filings, err := h.filings.FetchFilings(r.Context(), symbol)
	if err != nil {
		h.logger.WithError(err).WithField("symbol", symbol).Error("Failed to fetch filings")
		respondError(w, http.StatusBadGateway, "Filings unavailable")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":  symbol,
		"filings": filings,
	})
}

// GetSummary returns a generated investment summary for a symbol
// GET /api/stocks/{symbol}/summary
func (h *StockHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	symbol, _, maxAge := requestParams(r)
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "Symbol is required")
		return
	}

	metrics, err := h.cache.Metrics(r.Context(), symbol, maxAge)
	if err != nil || metrics == nil {
		h.logger.WithError(err).WithField("symbol", symbol).Error("Failed to resolve metrics for summary")
		respondError(w, http.StatusBadGateway, "Metrics unavailable")
		return
	}

	var articles []contracts.NewsItem
	if news, err := h.cache.News(r.Context(), symbol, maxAge); err == nil && news != nil {
		articles = news.Articles
	}

	summary := h.summarizer.SummarizeStock(r.Context(), symbol, &metrics.Payload, articles)
	respondJSON(w, http.StatusOK, map[string]string{
		"symbol":  symbol,
		"summary": summary,
	})
}

// GetNewsSummary returns a generated digest of recent headlines
// GET /api/stocks/{symbol}/news/summary
func (h *StockHandler) GetNewsSummary(w http.ResponseWriter, r *http.Request) {
	symbol, _, maxAge := requestParams(r)
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "Symbol is required")
		return
	}

	news, err := h.cache.News(r.Context(), symbol, maxAge)
	if err != nil || news == nil {
		h.logger.WithError(err).WithField("symbol", symbol).Error("Failed to resolve news for digest")
		respondError(w, http.StatusBadGateway, "News unavailable")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"symbol":  symbol,
		"summary": h.summarizer.SummarizeNews(r.Context(), news.Articles),
	})
}

// GetFilingsSummary returns generated takeaways from recent filings
// GET /api/stocks/{symbol}/filings/summary
func (h *StockHandler) GetFilingsSummary(w http.ResponseWriter, r *http.Request) {
	symbol := normalizeSymbol(mux.Vars(r)["symbol"])
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "Symbol is required")
		return
	}

	filings, err := h.filings.FetchFilings(r.Context(), symbol)
	if err != nil {
		h.logger.WithError(err).WithField("symbol", symbol).Error("Failed to fetch filings for summary")
		respondError(w, http.StatusBadGateway, "Filings unavailable")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"symbol":  symbol,
		"summary": h.summarizer.SummarizeFilings(r.Context(), symbol, filings),
	})
}

// Refresh starts an on-demand refresh and returns immediately
// POST /api/stocks/{symbol}/refresh
func (h *StockHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	symbol := normalizeSymbol(mux.Vars(r)["symbol"])
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "Symbol is required")
		return
	}

	triggered := h.trigger.TriggerSymbol(symbol)
	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"symbol":    symbol,
		"triggered": triggered,
	})
}
