package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/duallens/analytics/internal/api"
	"github.com/duallens/analytics/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server and refresh scheduler",
	Long: `Starts the REST API server with the background refresh scheduler.

Endpoints:
  GET    /health                            - Health check
  GET    /ws/events                         - Refresh event stream (websocket)
  GET    /api/watchlist                     - List watchlist
  POST   /api/watchlist/{symbol}            - Add symbol
  DELETE /api/watchlist/{symbol}            - Remove symbol and cached records
  GET    /api/stocks/{symbol}/metrics       - Financial snapshot
  GET    /api/stocks/{symbol}/news          - Recent articles
  GET    /api/stocks/{symbol}/score         - Composite recommendation
  GET    /api/stocks/{symbol}/filings       - Recent SEC filings
  GET    /api/stocks/{symbol}/summary       - Generated investment summary
  POST   /api/stocks/{symbol}/refresh       - Trigger on-demand refresh
  POST   /api/rank                          - Batch ranking

Example:
  go run ./cmd/duallens api
  go run ./cmd/duallens api --port 8089`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (overrides PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	a.serveMetrics()

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer a.scheduler.Stop()

	watchlistHandler := handlers.NewWatchlistHandler(a.watchlist, a.scheduler, a.log)
	stockHandler := handlers.NewStockHandler(a.accessor, a.filings, a.summary, a.scheduler, a.log)
	rankHandler := handlers.NewRankHandler(a.ranker, a.screener, a.watchlist, a.log)
	eventsHandler := handlers.NewEventsHandler(a.hub, a.log)

	router := api.NewRouter(watchlistHandler, stockHandler, rankHandler, eventsHandler, a.log)
	server := api.New(a.cfg, a.log, router)

	go func() {
		if err := server.Start(); err != nil {
			a.log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	return nil
}
