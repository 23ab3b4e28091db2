package commands

import (
	"context"
	"fmt"
	"net/http"

	"github.com/duallens/analytics/internal/ai"
	"github.com/duallens/analytics/internal/cache"
	"github.com/duallens/analytics/internal/contracts"
	"github.com/duallens/analytics/internal/external/newswire"
	"github.com/duallens/analytics/internal/external/sec"
	"github.com/duallens/analytics/internal/external/yahoo"
	"github.com/duallens/analytics/internal/ranking"
	"github.com/duallens/analytics/internal/refresh"
	"github.com/duallens/analytics/internal/scoring"
	"github.com/duallens/analytics/internal/store"
	"github.com/duallens/analytics/internal/telemetry"
	"github.com/duallens/analytics/pkg/config"
	"github.com/duallens/analytics/pkg/database"
	"github.com/duallens/analytics/pkg/logger"
	"github.com/duallens/analytics/pkg/redis"
)

// app is the assembled object graph shared by the commands
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	db    *database.DB
	redis *redis.Client

	watchlist contracts.WatchlistRepository
	accessor  *cache.Accessor
	engine    *scoring.Engine
	summary   *scoring.Summarizer
	filings   contracts.FilingsProvider

	hub       *refresh.Hub
	scheduler *refresh.Scheduler
	ranker    *ranking.Ranker
	screener  *ranking.Screener
}

// setup loads configuration and wires the full pipeline
func setup(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := store.Bootstrap(ctx, db.Pool); err != nil {
		db.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}

	redisClient, err := redis.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, hot cache and rate limits degraded")
		redisClient = redis.Disabled()
	}

	// Repositories
	watchlistRepo := store.NewWatchlistRepository(db.Pool)
	metricsRepo := store.NewMetricsRepository(db.Pool)
	newsRepo := store.NewNewsRepository(db.Pool)
	scoreRepo := store.NewScoreRepository(db.Pool)

	// External providers
	metricsProvider := yahoo.NewClient(redisClient, log)
	newsProvider := newswire.NewClient(cfg.News, log)
	filingsProvider := sec.NewClient(cfg.SEC, redisClient, log)

	// Generation stack
	generator := ai.NewOllamaClient(cfg.Ollama, log)
	retriever := ai.NewRetrieverClient(cfg.Retriever, log)

	scoringCfg := scoring.DefaultConfig()
	if cfg.Scoring.ConfigFile != "" {
		scoringCfg, err = scoring.LoadConfig(cfg.Scoring.ConfigFile)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("load scoring config: %w", err)
		}
	}

	engine := scoring.NewEngine(generator, retriever, scoreRepo, scoringCfg, log)
	summarizer := scoring.NewSummarizer(generator)

	accessor := cache.New(
		metricsRepo, newsRepo, scoreRepo,
		metricsProvider, newsProvider, engine,
		cfg.Refresh.StalenessWindow, log,
	)

	hub := refresh.NewHub()
	scheduler := refresh.New(accessor, watchlistRepo, hub, cfg.Refresh, log)

	ranker := ranking.New(accessor, cfg.Scoring.BatchPrefilterSize, cfg.Refresh.StalenessWindow, log)
	screener := ranking.NewScreener(accessor, cfg.Refresh.StalenessWindow, log)

	return &app{
		cfg:       cfg,
		log:       log,
		db:        db,
		redis:     redisClient,
		watchlist: watchlistRepo,
		accessor:  accessor,
		engine:    engine,
		summary:   summarizer,
		filings:   filingsProvider,
		hub:       hub,
		scheduler: scheduler,
		ranker:    ranker,
		screener:  screener,
	}, nil
}

// close releases the app's connections
func (a *app) close() {
	if a.redis != nil {
		a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}

// serveMetrics exposes the prometheus endpoint on its own port
func (a *app) serveMetrics() {
	if !a.cfg.MetricsEnabled {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", telemetry.Handler())

	go func() {
		addr := ":" + a.cfg.MetricsPort
		a.log.WithField("addr", addr).Info("Metrics listener started")
		if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
			a.log.WithError(err).Error("Metrics listener failed")
		}
	}()
}
