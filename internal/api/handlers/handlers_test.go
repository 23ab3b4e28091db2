package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/duallens/analytics/internal/contracts"
	"github.com/duallens/analytics/internal/ranking"
	"github.com/duallens/analytics/pkg/logger"
)

// Fakes

type fakeWatchlist struct {
	symbols []string
	addErr  error
}

func (f *fakeWatchlist) List(ctx context.Context) ([]contracts.WatchlistEntry, error) {
	out := make([]contracts.WatchlistEntry, 0, len(f.symbols))
	for _, s := range f.symbols {
		out = append(out, contracts.WatchlistEntry{Symbol: s})
	}
	return out, nil
}

func (f *fakeWatchlist) Add(ctx context.Context, symbol string) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.symbols = append(f.symbols, symbol)
	return nil
}

func (f *fakeWatchlist) Remove(ctx context.Context, symbol string) error {
	for i, s := range f.symbols {
		if s == symbol {
			f.symbols = append(f.symbols[:i], f.symbols[i+1:]...)
			break
		}
	}
	return nil
}

type fakeTrigger struct {
	triggered []string
}

func (f *fakeTrigger) TriggerSymbol(symbol string) bool {
	f.triggered = append(f.triggered, symbol)
	return true
}

func (f *fakeTrigger) RefreshAll(ctx context.Context) {}

type fakeCache struct {
	metrics map[string]*contracts.MetricsRecord
	news    map[string]*contracts.NewsRecord
	scores  map[string]*contracts.ScoreRecord
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		metrics: make(map[string]*contracts.MetricsRecord),
		news:    make(map[string]*contracts.NewsRecord),
		scores:  make(map[string]*contracts.ScoreRecord),
	}
}

func (f *fakeCache) Metrics(ctx context.Context, symbol string, maxAge time.Duration) (*contracts.MetricsRecord, error) {
	if rec, ok := f.metrics[symbol]; ok {
		return rec, nil
	}
	return nil, errors.New("provider down")
}

func (f *fakeCache) News(ctx context.Context, symbol string, maxAge time.Duration) (*contracts.NewsRecord, error) {
	if rec, ok := f.news[symbol]; ok {
		return rec, nil
	}
	return nil, errors.New("provider down")
}

func (f *fakeCache) Score(ctx context.Context, symbol string, maxAge time.Duration) (*contracts.ScoreRecord, error) {
	if rec, ok := f.scores[symbol]; ok {
		return rec, nil
	}
	return nil, errors.New("provider down")
}

func (f *fakeCache) CachedMetrics(ctx context.Context, symbol string, maxAge time.Duration) (*contracts.MetricsRecord, error) {
	return f.metrics[symbol], nil
}

func (f *fakeCache) CachedNews(ctx context.Context, symbol string, maxAge time.Duration) (*contracts.NewsRecord, error) {
	return f.news[symbol], nil
}

func (f *fakeCache) CachedScore(ctx context.Context, symbol string, maxAge time.Duration) (*contracts.ScoreRecord, error) {
	return f.scores[symbol], nil
}

type fakeFilings struct {
	filings []contracts.Filing
	err     error
}

func (f *fakeFilings) FetchFilings(ctx context.Context, symbol string) ([]contracts.Filing, error) {
	return f.filings, f.err
}

type fakeSummarizer struct{}

func (fakeSummarizer) SummarizeStock(ctx context.Context, symbol string, metrics *contracts.MetricsPayload, news []contracts.NewsItem) string {
	return "stock summary"
}

func (fakeSummarizer) SummarizeNews(ctx context.Context, news []contracts.NewsItem) string {
	return "news digest"
}

func (fakeSummarizer) SummarizeFilings(ctx context.Context, symbol string, filings []contracts.Filing) string {
	return "filings takeaways"
}

type fakeRanker struct {
	got     []string
	gotTopN int
	result  []contracts.ScoreRecord
}

func (f *fakeRanker) RankTop(ctx context.Context, symbols []string, topN int) ([]contracts.ScoreRecord, error) {
	if topN < 1 {
		return nil, ranking.ErrInvalidTopN
	}
	f.got = symbols
	f.gotTopN = topN
	return f.result, nil
}

type fakeScreener struct {
	result []string
}

func (f *fakeScreener) Screen(ctx context.Context, universe []string, criteria ranking.Criteria) []string {
	return f.result
}

func discard() *logger.Logger {
	return logger.NewWriter(io.Discard)
}

// Watchlist handler

func TestWatchlistAddTriggersRefresh(t *testing.T) {
	wl := &fakeWatchlist{}
	trigger := &fakeTrigger{}
	h := NewWatchlistHandler(wl, trigger, discard())

	req := httptest.NewRequest(http.MethodPost, "/api/watchlist/googl", nil)
	req = mux.SetURLVars(req, map[string]string{"symbol": "googl"})
	rec := httptest.NewRecorder()

	h.Add(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if len(wl.symbols) != 1 || wl.symbols[0] != "GOOGL" {
		t.Errorf("expected symbol uppercased and stored, got %v", wl.symbols)
	}
	if len(trigger.triggered) != 1 || trigger.triggered[0] != "GOOGL" {
		t.Errorf("expected a cache-warming trigger, got %v", trigger.triggered)
	}
}

func TestWatchlistAddRejectsBlank(t *testing.T) {
	h := NewWatchlistHandler(&fakeWatchlist{}, &fakeTrigger{}, discard())

	req := httptest.NewRequest(http.MethodPost, "/api/watchlist/%20", nil)
	req = mux.SetURLVars(req, map[string]string{"symbol": "  "})
	rec := httptest.NewRecorder()

	h.Add(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestWatchlistList(t *testing.T) {
	wl := &fakeWatchlist{symbols: []string{"GOOGL", "MSFT"}}
	h := NewWatchlistHandler(wl, &fakeTrigger{}, discard())

	req := httptest.NewRequest(http.MethodGet, "/api/watchlist", nil)
	rec := httptest.NewRecorder()

	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Count != 2 {
		t.Errorf("expected count 2, got %d", body.Count)
	}
}

// Stock handler

func newStockHandler(cache *fakeCache) *StockHandler {
	return NewStockHandler(cache, &fakeFilings{}, fakeSummarizer{}, &fakeTrigger{}, discard())
}

func TestGetMetricsCachedAbsentIs404(t *testing.T) {
	h := newStockHandler(newFakeCache())

	req := httptest.NewRequest(http.MethodGet, "/api/stocks/GOOGL/metrics?cached=true", nil)
	req = mux.SetURLVars(req, map[string]string{"symbol": "GOOGL"})
	rec := httptest.NewRecorder()

	h.GetMetrics(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for absent cached record, got %d", rec.Code)
	}
}

func TestGetMetricsReadThrough(t *testing.T) {
	cache := newFakeCache()
	cache.metrics["GOOGL"] = &contracts.MetricsRecord{
		Symbol:    "GOOGL",
		Payload:   contracts.MetricsPayload{Symbol: "GOOGL", Price: 187.5},
		UpdatedAt: time.Now(),
	}
	h := newStockHandler(cache)

	req := httptest.NewRequest(http.MethodGet, "/api/stocks/GOOGL/metrics", nil)
	req = mux.SetURLVars(req, map[string]string{"symbol": "GOOGL"})
	rec := httptest.NewRecorder()

	h.GetMetrics(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var record contracts.MetricsRecord
	if err := json.NewDecoder(rec.Body).Decode(&record); err != nil {
		t.Fatal(err)
	}
	if record.Payload.Price != 187.5 {
		t.Errorf("unexpected payload %+v", record.Payload)
	}
}

func TestGetScoreProviderFailureIs502(t *testing.T) {
	h := newStockHandler(newFakeCache())

	req := httptest.NewRequest(http.MethodGet, "/api/stocks/GOOGL/score", nil)
	req = mux.SetURLVars(req, map[string]string{"symbol": "GOOGL"})
	rec := httptest.NewRecorder()

	h.GetScore(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", rec.Code)
	}
}

func TestRefreshReturnsAccepted(t *testing.T) {
	trigger := &fakeTrigger{}
	h := NewStockHandler(newFakeCache(), &fakeFilings{}, fakeSummarizer{}, trigger, discard())

	req := httptest.NewRequest(http.MethodPost, "/api/stocks/GOOGL/refresh", nil)
	req = mux.SetURLVars(req, map[string]string{"symbol": "GOOGL"})
	rec := httptest.NewRecorder()

	h.Refresh(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Errorf("expected 202, got %d", rec.Code)
	}
	if len(trigger.triggered) != 1 {
		t.Errorf("expected one trigger, got %v", trigger.triggered)
	}
}

// Rank handler

func TestRankDefaultsToWatchlist(t *testing.T) {
	ranker := &fakeRanker{result: []contracts.ScoreRecord{{Symbol: "MSFT", Overall: 8.8}}}
	wl := &fakeWatchlist{symbols: []string{"GOOGL", "MSFT"}}
	h := NewRankHandler(ranker, &fakeScreener{}, wl, discard())

	body := bytes.NewBufferString(`{"top_n": 3}`)
	req := httptest.NewRequest(http.MethodPost, "/api/rank", body)
	rec := httptest.NewRecorder()

	h.Rank(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(ranker.got) != 2 {
		t.Errorf("expected the watchlist as the pool, got %v", ranker.got)
	}
	if ranker.gotTopN != 3 {
		t.Errorf("expected topN=3, got %d", ranker.gotTopN)
	}
}

func TestRankScreensUniverse(t *testing.T) {
	ranker := &fakeRanker{}
	screener := &fakeScreener{result: []string{"AAPL", "MSFT"}}
	h := NewRankHandler(ranker, screener, &fakeWatchlist{}, discard())

	body := bytes.NewBufferString(`{"screen": true, "top_n": 2}`)
	req := httptest.NewRequest(http.MethodPost, "/api/rank", body)
	rec := httptest.NewRecorder()

	h.Rank(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(ranker.got) != 2 || ranker.got[0] != "AAPL" {
		t.Errorf("expected the screened pool, got %v", ranker.got)
	}
}

func TestRankRejectsBadTopN(t *testing.T) {
	h := NewRankHandler(&fakeRanker{}, &fakeScreener{}, &fakeWatchlist{symbols: []string{"GOOGL"}}, discard())

	body := bytes.NewBufferString(`{"top_n": -1}`)
	req := httptest.NewRequest(http.MethodPost, "/api/rank", body)
	rec := httptest.NewRecorder()

	h.Rank(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}
