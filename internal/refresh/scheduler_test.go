package refresh

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/duallens/analytics/internal/contracts"
	"github.com/duallens/analytics/pkg/config"
	"github.com/duallens/analytics/pkg/logger"
)

// gatedSource counts fetches and can hold them open on a gate channel
type gatedSource struct {
	metricsCalls atomic.Int64
	newsCalls    atomic.Int64
	gate         chan struct{} // nil means do not block
	metricsErr   error
}

func (g *gatedSource) Metrics(ctx context.Context, symbol string, maxAge time.Duration) (*contracts.MetricsRecord, error) {
	g.metricsCalls.Add(1)
	if g.gate != nil {
		<-g.gate
	}
	if g.metricsErr != nil {
		return nil, g.metricsErr
	}
	return &contracts.MetricsRecord{Symbol: symbol, UpdatedAt: time.Now()}, nil
}

func (g *gatedSource) News(ctx context.Context, symbol string, maxAge time.Duration) (*contracts.NewsRecord, error) {
	g.newsCalls.Add(1)
	return &contracts.NewsRecord{Symbol: symbol, UpdatedAt: time.Now()}, nil
}

// memWatchlist is an in-memory contracts.WatchlistRepository
type memWatchlist struct {
	mu      sync.Mutex
	symbols []string
}

func (m *memWatchlist) List(ctx context.Context) ([]contracts.WatchlistEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]contracts.WatchlistEntry, 0, len(m.symbols))
	for _, s := range m.symbols {
		out = append(out, contracts.WatchlistEntry{Symbol: s})
	}
	return out, nil
}

func (m *memWatchlist) Add(ctx context.Context, symbol string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.symbols {
		if s == symbol {
			return nil
		}
	}
	m.symbols = append(m.symbols, symbol)
	return nil
}

func (m *memWatchlist) Remove(ctx context.Context, symbol string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.symbols {
		if s == symbol {
			m.symbols = append(m.symbols[:i], m.symbols[i+1:]...)
			return nil
		}
	}
	return nil
}

func testConfig() config.RefreshConfig {
	return config.RefreshConfig{
		Times:           []string{"09:00", "15:00"},
		StalenessWindow: 12 * time.Hour,
		Workers:         3,
	}
}

func newTestScheduler(source Source, wl contracts.WatchlistRepository) *Scheduler {
	return New(source, wl, NewHub(), testConfig(), logger.NewWriter(io.Discard))
}

func TestTriggerSymbolAtMostOneInFlight(t *testing.T) {
	src := &gatedSource{gate: make(chan struct{})}
	s := newTestScheduler(src, &memWatchlist{})

	accepted := 0
	for i := 0; i < 10; i++ {
		if s.TriggerSymbol("GOOGL") {
			accepted++
		}
	}

	if accepted != 1 {
		t.Errorf("expected exactly one accepted trigger, got %d", accepted)
	}
	if !s.InFlight("GOOGL") {
		t.Error("expected GOOGL to be refreshing")
	}

	close(src.gate)
	s.wg.Wait()

	if got := src.metricsCalls.Load(); got != 1 {
		t.Errorf("expected one metrics fetch, got %d", got)
	}
	if s.InFlight("GOOGL") {
		t.Error("expected GOOGL to return to idle")
	}
}

func TestTriggerSymbolReturnsToIdleOnFailure(t *testing.T) {
	src := &gatedSource{metricsErr: errors.New("provider down")}
	s := newTestScheduler(src, &memWatchlist{})
	events := s.hub.Subscribe()

	if !s.TriggerSymbol("MSFT") {
		t.Fatal("expected trigger to be accepted")
	}
	s.wg.Wait()

	if s.InFlight("MSFT") {
		t.Error("expected MSFT to return to idle after failure")
	}

	var last Event
	for done := false; !done; {
		select {
		case ev := <-events:
			last = ev
		default:
			done = true
		}
	}
	if last.Status != EventFailed || last.Error == "" {
		t.Errorf("expected a failed event with an error, got %+v", last)
	}
}

func TestTriggerSymbolRejectsEmpty(t *testing.T) {
	s := newTestScheduler(&gatedSource{}, &memWatchlist{})

	if s.TriggerSymbol("") {
		t.Error("expected empty symbol to be dropped")
	}
}

func TestTriggerSymbolCanRunAgainAfterCompletion(t *testing.T) {
	src := &gatedSource{}
	s := newTestScheduler(src, &memWatchlist{})

	if !s.TriggerSymbol("NVDA") {
		t.Fatal("first trigger rejected")
	}
	s.wg.Wait()

	if !s.TriggerSymbol("NVDA") {
		t.Error("expected trigger to be accepted once idle again")
	}
	s.wg.Wait()

	if got := src.metricsCalls.Load(); got != 2 {
		t.Errorf("expected two fetches across two triggers, got %d", got)
	}
}

func TestRefreshAllCoversWatchlist(t *testing.T) {
	src := &gatedSource{}
	wl := &memWatchlist{symbols: []string{"GOOGL", "MSFT", "IBM", "NVDA", "AMZN"}}
	s := newTestScheduler(src, wl)

	s.RefreshAll(context.Background())

	if got := src.metricsCalls.Load(); got != 5 {
		t.Errorf("expected 5 metrics fetches, got %d", got)
	}
	if got := src.newsCalls.Load(); got != 5 {
		t.Errorf("expected 5 news fetches, got %d", got)
	}
}

func TestRefreshAllSkipsSymbolsAlreadyRefreshing(t *testing.T) {
	src := &gatedSource{}
	wl := &memWatchlist{symbols: []string{"GOOGL", "MSFT"}}
	s := newTestScheduler(src, wl)

	// Hold GOOGL in the REFRESHING state manually
	if !s.acquire("GOOGL") {
		t.Fatal("acquire failed")
	}

	s.RefreshAll(context.Background())
	s.release("GOOGL")

	if got := src.metricsCalls.Load(); got != 1 {
		t.Errorf("expected only MSFT to refresh, got %d fetches", got)
	}
}

func TestStartSeedsWatchlistAndRunsInitialPass(t *testing.T) {
	src := &gatedSource{}
	wl := &memWatchlist{}
	cfg := testConfig()
	cfg.SeedSymbols = []string{"GOOGL", "MSFT"}
	s := New(src, wl, NewHub(), cfg, logger.NewWriter(io.Discard))

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	s.Stop()

	entries, _ := wl.List(context.Background())
	if len(entries) != 2 {
		t.Errorf("expected 2 seeded symbols, got %d", len(entries))
	}
	if got := src.metricsCalls.Load(); got != 2 {
		t.Errorf("expected initial pass to fetch both symbols, got %d", got)
	}
}

func TestStartRejectsBadRefreshTime(t *testing.T) {
	cfg := testConfig()
	cfg.Times = []string{"25:99"}
	s := New(&gatedSource{}, &memWatchlist{}, NewHub(), cfg, logger.NewWriter(io.Discard))

	if err := s.Start(context.Background()); err == nil {
		t.Error("expected error for invalid refresh time")
	}
}

func TestHubDropsSlowSubscribers(t *testing.T) {
	hub := NewHub()
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	// More events than the subscriber buffer holds; Publish must not block
	for i := 0; i < 100; i++ {
		hub.Publish(Event{Symbol: "GOOGL", Status: EventStarted, At: time.Now()})
	}

	if len(ch) != cap(ch) {
		t.Errorf("expected the buffer to be full, got %d/%d", len(ch), cap(ch))
	}
}
