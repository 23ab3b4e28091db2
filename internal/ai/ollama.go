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

// OllamaClient generates text through a local Ollama server.
// Implements contracts.Generator.
type OllamaClient struct {
	http    *httputil.Client
	baseURL string
	model   string
	logger  *logger.Logger
}

// NewOllamaClient creates a generator backed by Ollama
func NewOllamaClient(cfg config.OllamaConfig, log *logger.Logger) *OllamaClient {
	// Generation is slow and not idempotent in cost; one attempt only
	httpClient := httputil.NewWithTimeout(log, cfg.Timeout).DisableRetry()

	return &OllamaClient{
		http:    httpClient,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		logger:  log.WithField("module", "ollama"),
	}
}

type generateRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Generate returns the model's completion for a prompt. Temperature is
// pinned to zero so identical inputs score identically.
func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	req := generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
		Options: map[string]interface{}{
			"temperature": 0,
		},
	}

	resp, err := c.http.PostJSON(ctx, c.baseURL+"/api/generate", req)
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama generate: unexpected status %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("ollama generate: decode response: %w", err)
	}
	if out.Response == "" {
		return "", fmt.Errorf("ollama generate: empty response")
	}
	return out.Response, nil
}
