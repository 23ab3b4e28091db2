package refresh

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/duallens/analytics/internal/contracts"
	"github.com/duallens/analytics/internal/telemetry"
	"github.com/duallens/analytics/pkg/config"
	"github.com/duallens/analytics/pkg/logger"
)

// forceMaxAge makes any existing record read as stale, so an on-demand
// trigger always refetches.
const forceMaxAge = time.Nanosecond

// Source is the read-through layer a refresh drives. Satisfied by
// cache.Accessor. Scores are refreshed lazily on the next read, so the
// scheduler only touches metrics and news.
type Source interface {
	Metrics(ctx context.Context, symbol string, maxAge time.Duration) (*contracts.MetricsRecord, error)
	News(ctx context.Context, symbol string, maxAge time.Duration) (*contracts.NewsRecord, error)
}

// Scheduler refreshes the watchlist at fixed clock times and on demand.
// Each symbol is IDLE or REFRESHING; a trigger for a symbol already
// REFRESHING is dropped, not queued.
type Scheduler struct {
	cron      *cron.Cron
	source    Source
	watchlist contracts.WatchlistRepository
	hub       *Hub
	logger    *logger.Logger

	times   []string
	window  time.Duration
	workers int
	seeds   []string

	mu       sync.Mutex
	inFlight map[string]struct{}
	wg       sync.WaitGroup
	started  bool
}

// New creates a Scheduler from refresh configuration
func New(source Source, watchlist contracts.WatchlistRepository, hub *Hub, cfg config.RefreshConfig, log *logger.Logger) *Scheduler {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Scheduler{
		cron:      cron.New(cron.WithSeconds()),
		source:    source,
		watchlist: watchlist,
		hub:       hub,
		logger:    log.WithField("module", "refresh"),
		times:     cfg.Times,
		window:    cfg.StalenessWindow,
		workers:   workers,
		seeds:     cfg.SeedSymbols,
		inFlight:  make(map[string]struct{}),
	}
}

// Start seeds the watchlist, registers the cron entries, kicks off an
// initial pass, and starts the timer. It is not safe to call twice.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.started {
		return fmt.Errorf("scheduler already started")
	}

	for _, symbol := range s.seeds {
		if err := s.watchlist.Add(ctx, symbol); err != nil {
			s.logger.WithError(err).WithField("symbol", symbol).Warn("Failed to seed watchlist entry")
		}
	}

	for _, clock := range s.times {
		hour, minute, err := config.ParseClock(clock)
		if err != nil {
			return fmt.Errorf("refresh time %q: %w", clock, err)
		}
		spec := fmt.Sprintf("0 %d %d * * *", minute, hour)
		if _, err := s.cron.AddFunc(spec, func() {
			s.RefreshAll(context.Background())
		}); err != nil {
			return fmt.Errorf("schedule refresh at %s: %w", clock, err)
		}
		s.logger.WithField("at", clock).Info("Refresh scheduled")
	}

	s.started = true
	s.cron.Start()

	// Initial pass so a fresh deployment is not empty until the first
	// cron tick.
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.RefreshAll(ctx)
	}()

	s.logger.Info("Refresh scheduler started")
	return nil
}

// Stop halts the timer and waits for in-flight refreshes to drain
func (s *Scheduler) Stop() {
	if s.started {
		<-s.cron.Stop().Done()
		s.started = false
	}
	s.wg.Wait()
	s.logger.Info("Refresh scheduler stopped")
}

// RefreshAll fans refresh work for the current watchlist out across
// the worker pool and blocks until the pass completes. Symbols already
// REFRESHING are skipped.
func (s *Scheduler) RefreshAll(ctx context.Context) {
	entries, err := s.watchlist.List(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list watchlist for refresh")
		return
	}

	s.logger.WithFields(map[string]interface{}{
		"symbols": len(entries),
		"workers": s.workers,
	}).Info("Starting refresh pass")

	symbolCh := make(chan string, len(entries))
	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range symbolCh {
				select {
				case <-ctx.Done():
					return
				default:
				}
				if !s.acquire(symbol) {
					telemetry.RefreshDropped.Inc()
					continue
				}
				s.refresh(ctx, symbol, s.window)
			}
		}()
	}

	for _, entry := range entries {
		symbolCh <- entry.Symbol
	}
	close(symbolCh)
	wg.Wait()

	s.logger.Info("Refresh pass completed")
}

// TriggerSymbol starts an on-demand refresh for one symbol and returns
// immediately. Returns false when the trigger was dropped because the
// symbol is empty or already REFRESHING.
func (s *Scheduler) TriggerSymbol(symbol string) bool {
	if symbol == "" {
		return false
	}
	if !s.acquire(symbol) {
		telemetry.RefreshDropped.Inc()
		s.logger.WithField("symbol", symbol).Debug("Refresh trigger dropped, already in flight")
		return false
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.refresh(context.Background(), symbol, forceMaxAge)
	}()
	return true
}

// acquire marks a symbol REFRESHING; false when it already is
func (s *Scheduler) acquire(symbol string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[symbol]; busy {
		return false
	}
	s.inFlight[symbol] = struct{}{}
	return true
}

// release returns a symbol to IDLE
func (s *Scheduler) release(symbol string) {
	s.mu.Lock()
	delete(s.inFlight, symbol)
	s.mu.Unlock()
}

// refresh transitions the metrics and news records for one symbol.
// The caller must have acquired the symbol; it is released here.
func (s *Scheduler) refresh(ctx context.Context, symbol string, maxAge time.Duration) {
	defer s.release(symbol)

	telemetry.RefreshInFlight.Inc()
	defer telemetry.RefreshInFlight.Dec()

	s.hub.Publish(Event{Symbol: symbol, Status: EventStarted, At: time.Now()})

	var firstErr error
	if _, err := s.source.Metrics(ctx, symbol, maxAge); err != nil {
		firstErr = err
		s.logger.WithError(err).WithField("symbol", symbol).Warn("Metrics refresh failed")
	}
	if _, err := s.source.News(ctx, symbol, maxAge); err != nil {
		if firstErr == nil {
			firstErr = err
		}
		s.logger.WithError(err).WithField("symbol", symbol).Warn("News refresh failed")
	}

	if firstErr != nil {
		telemetry.RefreshRuns.WithLabelValues("failed").Inc()
		s.hub.Publish(Event{Symbol: symbol, Status: EventFailed, Error: firstErr.Error(), At: time.Now()})
		return
	}
	telemetry.RefreshRuns.WithLabelValues("success").Inc()
	s.hub.Publish(Event{Symbol: symbol, Status: EventCompleted, At: time.Now()})
}

// InFlight reports whether a symbol is currently REFRESHING
func (s *Scheduler) InFlight(symbol string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, busy := s.inFlight[symbol]
	return busy
}
