package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/duallens/analytics/internal/contracts"
	"github.com/duallens/analytics/pkg/logger"
)

// RefreshTrigger starts background refresh work. Satisfied by
// refresh.Scheduler.
type RefreshTrigger interface {
	TriggerSymbol(symbol string) bool
	RefreshAll(ctx context.Context)
}

// WatchlistHandler handles watchlist API endpoints
type WatchlistHandler struct {
	watchlist contracts.WatchlistRepository
	trigger   RefreshTrigger
	logger    *logger.Logger
}

// NewWatchlistHandler creates a new watchlist handler
func NewWatchlistHandler(watchlist contracts.WatchlistRepository, trigger RefreshTrigger, log *logger.Logger) *WatchlistHandler {
	return &WatchlistHandler{
		watchlist: watchlist,
		trigger:   trigger,
		logger:    log,
	}
}

// List returns all watchlist entries
// GET /api/watchlist
func (h *WatchlistHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.watchlist.List(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list watchlist")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve watchlist")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"symbols": entries,
		"count":   len(entries),
	})
}

// Add puts a symbol on the watchlist and warms its cache
// POST /api/watchlist/{symbol}
func (h *WatchlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	symbol := normalizeSymbol(mux.Vars(r)["symbol"])
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "Symbol is required")
		return
	}

	if err := h.watchlist.Add(r.Context(), symbol); err != nil {
		h.logger.WithError(err).WithField("symbol", symbol).Error("Failed to add watchlist entry")
		respondError(w, http.StatusInternalServerError, "Failed to add symbol")
		return
	}

	// Warm the cache so the first read does not block on providers
	h.trigger.TriggerSymbol(symbol)

	respondJSON(w, http.StatusCreated, map[string]string{
		"symbol": symbol,
		"status": "added",
	})
}

// Remove deletes a symbol and its cached records
// DELETE /api/watchlist/{symbol}
func (h *WatchlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	symbol := normalizeSymbol(mux.Vars(r)["symbol"])
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "Symbol is required")
		return
	}

	if err := h.watchlist.Remove(r.Context(), symbol); err != nil {
		h.logger.WithError(err).WithField("symbol", symbol).Error("Failed to remove watchlist entry")
		respondError(w, http.StatusInternalServerError, "Failed to remove symbol")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"symbol": symbol,
		"status": "removed",
	})
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
