package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/duallens/analytics/pkg/config"
	"github.com/duallens/analytics/pkg/httputil"
	"github.com/duallens/analytics/pkg/logger"
)

// RetrieverClient queries the vector-retrieval sidecar for ranked
// context chunks. Implements contracts.Retriever.
type RetrieverClient struct {
	http    *httputil.Client
	baseURL string
	topK    int
	logger  *logger.Logger
}

// NewRetrieverClient creates a retriever backed by the sidecar
func NewRetrieverClient(cfg config.RetrieverConfig, log *logger.Logger) *RetrieverClient {
	topK := cfg.TopK
	if topK < 1 {
		topK = 8
	}

	return &RetrieverClient{
		http:    httputil.NewWithTimeout(log, cfg.Timeout),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		topK:    topK,
		logger:  log.WithField("module", "retriever"),
	}
}

type retrieveRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type retrieveResponse struct {
	Chunks []string `json:"chunks"`
}

// Retrieve returns ranked context chunks for a query
func (c *RetrieverClient) Retrieve(ctx context.Context, query string) ([]string, error) {
	resp, err := c.http.PostJSON(ctx, c.baseURL+"/api/retrieve", retrieveRequest{
		Query: query,
		TopK:  c.topK,
	})
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("retrieve: unexpected status %d", resp.StatusCode)
	}

	var out retrieveResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("retrieve: decode response: %w", err)
	}
	return out.Chunks, nil
}
