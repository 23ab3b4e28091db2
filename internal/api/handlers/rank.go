package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/duallens/analytics/internal/contracts"
	"github.com/duallens/analytics/internal/ranking"
	"github.com/duallens/analytics/pkg/logger"
)

// Ranker produces an ordered top-N for a symbol pool. Satisfied by
// ranking.Ranker.
type Ranker interface {
	RankTop(ctx context.Context, symbols []string, topN int) ([]contracts.ScoreRecord, error)
}

// Screener narrows a universe before ranking. Satisfied by
// ranking.Screener.
type Screener interface {
	Screen(ctx context.Context, universe []string, criteria ranking.Criteria) []string
}

// RankHandler handles batch ranking endpoints
type RankHandler struct {
	ranker    Ranker
	screener  Screener
	watchlist contracts.WatchlistRepository
	logger    *logger.Logger
}

// NewRankHandler creates a new rank handler
func NewRankHandler(ranker Ranker, screener Screener, watchlist contracts.WatchlistRepository, log *logger.Logger) *RankHandler {
	return &RankHandler{
		ranker:    ranker,
		screener:  screener,
		watchlist: watchlist,
		logger:    log,
	}
}

// RankRequest selects the symbol pool and result size. An empty symbol
// list means the current watchlist; screen=true instead runs the
// quality screen over the default universe.
type RankRequest struct {
	Symbols []string `json:"symbols"`
	TopN    int      `json:"top_n"`
	Screen  bool     `json:"screen"`
}

// Rank scores a pool of symbols and returns the top of the table
// POST /api/rank
func (h *RankHandler) Rank(w http.ResponseWriter, r *http.Request) {
	var req RankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.TopN == 0 {
		req.TopN = 5
	}

	ctx := r.Context()
	symbols := req.Symbols

	switch {
	case req.Screen:
		symbols = h.screener.Screen(ctx, ranking.Nasdaq100, ranking.DefaultCriteria())
	case len(symbols) == 0:
		entries, err := h.watchlist.List(ctx)
		if err != nil {
			h.logger.WithError(err).Error("Failed to list watchlist for ranking")
			respondError(w, http.StatusInternalServerError, "Failed to resolve symbol pool")
			return
		}
		for _, entry := range entries {
			symbols = append(symbols, entry.Symbol)
		}
	}

	ranked, err := h.ranker.RankTop(ctx, symbols, req.TopN)
	if err != nil {
		if errors.Is(err, ranking.ErrInvalidTopN) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.WithError(err).Error("Ranking failed")
		respondError(w, http.StatusInternalServerError, "Ranking failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(ranked),
		"results": ranked,
	})
}
