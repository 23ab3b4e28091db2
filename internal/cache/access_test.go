package cache

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/duallens/analytics/internal/contracts"
	"github.com/duallens/analytics/pkg/logger"
)

// In-memory repositories and counting providers

type memMetricsRepo struct {
	records map[string]contracts.MetricsRecord
	saves   int
}

func newMemMetricsRepo() *memMetricsRepo {
	return &memMetricsRepo{records: make(map[string]contracts.MetricsRecord)}
}

func (m *memMetricsRepo) Get(ctx context.Context, symbol string) (*contracts.MetricsRecord, error) {
	if rec, ok := m.records[symbol]; ok {
		copied := rec
		return &copied, nil
	}
	return nil, nil
}

func (m *memMetricsRepo) Save(ctx context.Context, record *contracts.MetricsRecord) error {
	m.saves++
	m.records[record.Symbol] = *record
	return nil
}

func (m *memMetricsRepo) Delete(ctx context.Context, symbol string) error {
	delete(m.records, symbol)
	return nil
}

type memNewsRepo struct {
	records map[string]contracts.NewsRecord
}

func newMemNewsRepo() *memNewsRepo {
	return &memNewsRepo{records: make(map[string]contracts.NewsRecord)}
}

func (m *memNewsRepo) Get(ctx context.Context, symbol string) (*contracts.NewsRecord, error) {
	if rec, ok := m.records[symbol]; ok {
		copied := rec
		return &copied, nil
	}
	return nil, nil
}

func (m *memNewsRepo) Save(ctx context.Context, record *contracts.NewsRecord) error {
	m.records[record.Symbol] = *record
	return nil
}

func (m *memNewsRepo) Delete(ctx context.Context, symbol string) error {
	delete(m.records, symbol)
	return nil
}

type memScoreRepo struct {
	records map[string]contracts.ScoreRecord
}

func newMemScoreRepo() *memScoreRepo {
	return &memScoreRepo{records: make(map[string]contracts.ScoreRecord)}
}

func (m *memScoreRepo) Get(ctx context.Context, symbol string) (*contracts.ScoreRecord, error) {
	if rec, ok := m.records[symbol]; ok {
		copied := rec
		return &copied, nil
	}
	return nil, nil
}

func (m *memScoreRepo) Save(ctx context.Context, record *contracts.ScoreRecord) error {
	m.records[record.Symbol] = *record
	return nil
}

func (m *memScoreRepo) Delete(ctx context.Context, symbol string) error {
	delete(m.records, symbol)
	return nil
}

func (m *memScoreRepo) ListAll(ctx context.Context) ([]contracts.ScoreRecord, error) {
	out := make([]contracts.ScoreRecord, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec)
	}
	return out, nil
}

type countingMetricsProvider struct {
	calls int
	err   error
}

func (p *countingMetricsProvider) FetchMetrics(ctx context.Context, symbol string) (*contracts.MetricsPayload, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return &contracts.MetricsPayload{Symbol: symbol, Name: symbol + " Inc.", Price: 100}, nil
}

type countingNewsProvider struct {
	calls int
	err   error
}

func (p *countingNewsProvider) FetchNews(ctx context.Context, symbol string) ([]contracts.NewsItem, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return []contracts.NewsItem{{Title: symbol + " headline", Source: "Test Wire"}}, nil
}

type stubScorer struct {
	calls int
}

func (s *stubScorer) Score(ctx context.Context, symbol string, metrics *contracts.MetricsPayload) *contracts.ScoreRecord {
	s.calls++
	return &contracts.ScoreRecord{
		Symbol:         symbol,
		Quantitative:   7,
		Qualitative:    7,
		Overall:        7,
		Recommendation: contracts.Buy,
		UpdatedAt:      time.Now(),
	}
}

type fixture struct {
	accessor    *Accessor
	metricsRepo *memMetricsRepo
	newsRepo    *memNewsRepo
	scoreRepo   *memScoreRepo
	metrics     *countingMetricsProvider
	news        *countingNewsProvider
	scorer      *stubScorer
}

func newFixture() *fixture {
	f := &fixture{
		metricsRepo: newMemMetricsRepo(),
		newsRepo:    newMemNewsRepo(),
		scoreRepo:   newMemScoreRepo(),
		metrics:     &countingMetricsProvider{},
		news:        &countingNewsProvider{},
		scorer:      &stubScorer{},
	}
	f.accessor = New(
		f.metricsRepo, f.newsRepo, f.scoreRepo,
		f.metrics, f.news, f.scorer,
		12*time.Hour, logger.NewWriter(io.Discard),
	)
	return f
}

func TestMetricsSecondReadIsCacheHit(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := f.accessor.Metrics(ctx, "GOOGL", 12*time.Hour)
	if err != nil {
		t.Fatalf("first read failed: %v", err)
	}

	second, err := f.accessor.Metrics(ctx, "GOOGL", 12*time.Hour)
	if err != nil {
		t.Fatalf("second read failed: %v", err)
	}

	if f.metrics.calls != 1 {
		t.Errorf("expected 1 provider call for two reads within the window, got %d", f.metrics.calls)
	}
	if !first.UpdatedAt.Equal(second.UpdatedAt) {
		t.Error("expected the cached record to be returned unchanged")
	}
}

func TestMetricsFreshRecordServedWithoutProviderCall(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// GOOGL metrics cached 1 hour ago, window 12h
	f.metricsRepo.records["GOOGL"] = contracts.MetricsRecord{
		Symbol:    "GOOGL",
		Payload:   contracts.MetricsPayload{Symbol: "GOOGL", Price: 187.5},
		UpdatedAt: time.Now().Add(-1 * time.Hour),
	}

	rec, err := f.accessor.Metrics(ctx, "GOOGL", 12*time.Hour)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	if f.metrics.calls != 0 {
		t.Errorf("expected zero provider calls, got %d", f.metrics.calls)
	}
	if rec.Payload.Price != 187.5 {
		t.Errorf("expected cached payload, got %+v", rec.Payload)
	}
}

func TestMetricsStaleRecordTriggersRefresh(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.metricsRepo.records["MSFT"] = contracts.MetricsRecord{
		Symbol:    "MSFT",
		Payload:   contracts.MetricsPayload{Symbol: "MSFT", Price: 1},
		UpdatedAt: time.Now().Add(-13 * time.Hour),
	}

	rec, err := f.accessor.Metrics(ctx, "MSFT", 12*time.Hour)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	if f.metrics.calls != 1 {
		t.Errorf("expected 1 provider call for stale record, got %d", f.metrics.calls)
	}
	if rec.Payload.Price != 100 {
		t.Errorf("expected refreshed payload, got %+v", rec.Payload)
	}
}

func TestMetricsProviderFailureServesStale(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	stale := contracts.MetricsRecord{
		Symbol:    "IBM",
		Payload:   contracts.MetricsPayload{Symbol: "IBM", Price: 42},
		UpdatedAt: time.Now().Add(-24 * time.Hour),
	}
	f.metricsRepo.records["IBM"] = stale
	f.metrics.err = errors.New("upstream down")

	rec, err := f.accessor.Metrics(ctx, "IBM", 12*time.Hour)
	if err != nil {
		t.Fatalf("expected stale fallback, got error: %v", err)
	}
	if rec.Payload.Price != 42 {
		t.Errorf("expected stale payload, got %+v", rec.Payload)
	}
}

func TestMetricsProviderFailureWithoutRecordPropagates(t *testing.T) {
	f := newFixture()
	f.metrics.err = errors.New("upstream down")

	_, err := f.accessor.Metrics(context.Background(), "NVDA", 12*time.Hour)
	if err == nil {
		t.Fatal("expected error when no prior record exists")
	}
}

func TestEmptySymbolRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.accessor.Metrics(ctx, "", time.Hour); !errors.Is(err, ErrEmptySymbol) {
		t.Errorf("expected ErrEmptySymbol, got %v", err)
	}
	if _, err := f.accessor.News(ctx, "", time.Hour); !errors.Is(err, ErrEmptySymbol) {
		t.Errorf("expected ErrEmptySymbol, got %v", err)
	}
	if _, err := f.accessor.Score(ctx, "", time.Hour); !errors.Is(err, ErrEmptySymbol) {
		t.Errorf("expected ErrEmptySymbol, got %v", err)
	}
}

func TestScoreMissRunsEngineAndPersists(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	rec, err := f.accessor.Score(ctx, "AMZN", 12*time.Hour)
	if err != nil {
		t.Fatalf("score read failed: %v", err)
	}

	if f.scorer.calls != 1 {
		t.Errorf("expected 1 scorer call, got %d", f.scorer.calls)
	}
	if f.metrics.calls != 1 {
		t.Errorf("expected metrics to be resolved once, got %d calls", f.metrics.calls)
	}
	if rec.Recommendation != contracts.Buy {
		t.Errorf("unexpected record: %+v", rec)
	}

	if saved, _ := f.scoreRepo.Get(ctx, "AMZN"); saved == nil {
		t.Error("expected score record to be persisted")
	}
}

func TestScoreFreshRecordSkipsEngine(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.scoreRepo.records["AMZN"] = contracts.ScoreRecord{
		Symbol:         "AMZN",
		Overall:        8,
		Recommendation: contracts.Buy,
		UpdatedAt:      time.Now().Add(-30 * time.Minute),
	}

	if _, err := f.accessor.Score(ctx, "AMZN", 12*time.Hour); err != nil {
		t.Fatalf("score read failed: %v", err)
	}

	if f.scorer.calls != 0 {
		t.Errorf("expected scorer to be skipped on fresh record, got %d calls", f.scorer.calls)
	}
}

func TestCachedReadsDoNotRefresh(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	rec, err := f.accessor.CachedMetrics(ctx, "GOOGL", time.Hour)
	if err != nil {
		t.Fatalf("cached read failed: %v", err)
	}
	if rec != nil {
		t.Errorf("expected absent record, got %+v", rec)
	}
	if f.metrics.calls != 0 {
		t.Errorf("cached read must never call the provider, got %d calls", f.metrics.calls)
	}

	// Stale record reads as absent under a positive window, but is
	// still reachable with maxAge <= 0 for stale-but-shown display.
	f.metricsRepo.records["GOOGL"] = contracts.MetricsRecord{
		Symbol:    "GOOGL",
		UpdatedAt: time.Now().Add(-48 * time.Hour),
	}

	rec, _ = f.accessor.CachedMetrics(ctx, "GOOGL", time.Hour)
	if rec != nil {
		t.Error("expected stale record to read as absent")
	}

	rec, _ = f.accessor.CachedMetrics(ctx, "GOOGL", 0)
	if rec == nil {
		t.Error("expected stale record with no age limit")
	}
}

func TestNewsRefreshOverwritesWholesale(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.newsRepo.records["TSLA"] = contracts.NewsRecord{
		Symbol: "TSLA",
		Articles: []contracts.NewsItem{
			{Title: "old headline one"},
			{Title: "old headline two"},
		},
		UpdatedAt: time.Now().Add(-20 * time.Hour),
	}

	rec, err := f.accessor.News(ctx, "TSLA", 12*time.Hour)
	if err != nil {
		t.Fatalf("news read failed: %v", err)
	}

	if len(rec.Articles) != 1 || rec.Articles[0].Title != "TSLA headline" {
		t.Errorf("expected stale articles to be discarded, got %+v", rec.Articles)
	}
}
