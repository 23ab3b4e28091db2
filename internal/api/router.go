package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/duallens/analytics/internal/api/handlers"
	"github.com/duallens/analytics/pkg/logger"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	watchlistHandler *handlers.WatchlistHandler,
	stockHandler *handlers.StockHandler,
	rankHandler *handlers.RankHandler,
	eventsHandler *handlers.EventsHandler,
	log *logger.Logger,
) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	// Refresh event stream
	r.HandleFunc("/ws/events", eventsHandler.Stream).Methods("GET")

	// API v1
	api := r.PathPrefix("/api").Subrouter()

	// Watchlist
	api.HandleFunc("/watchlist", watchlistHandler.List).Methods("GET")
	api.HandleFunc("/watchlist/{symbol}", watchlistHandler.Add).Methods("POST")
	api.HandleFunc("/watchlist/{symbol}", watchlistHandler.Remove).Methods("DELETE")

	// Per-symbol reads
	api.HandleFunc("/stocks/{symbol}/metrics", stockHandler.GetMetrics).Methods("GET")
	api.HandleFunc("/stocks/{symbol}/news", stockHandler.GetNews).Methods("GET")
	api.HandleFunc("/stocks/{symbol}/news/summary", stockHandler.GetNewsSummary).Methods("GET")
	api.HandleFunc("/stocks/{symbol}/score", stockHandler.GetScore).Methods("GET")
	api.HandleFunc("/stocks/{symbol}/filings", stockHandler.GetFilings).Methods("GET")
	api.HandleFunc("/stocks/{symbol}/filings/summary", stockHandler.GetFilingsSummary).Methods("GET")
	api.HandleFunc("/stocks/{symbol}/summary", stockHandler.GetSummary).Methods("GET")
	api.HandleFunc("/stocks/{symbol}/refresh", stockHandler.Refresh).Methods("POST")

	// Ranking
	api.HandleFunc("/rank", rankHandler.Rank).Methods("POST")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "duallens-api",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
