package scoring

import (
	"context"
	"time"

	"github.com/duallens/analytics/internal/contracts"
	"github.com/duallens/analytics/pkg/logger"
)

// Engine turns metrics plus retrieved context into a validated score
// record. It never returns an error: every external failure degrades
// to a deterministic default so the ranking step downstream always
// has a complete set of records.
type Engine struct {
	generator contracts.Generator
	retriever contracts.Retriever
	scores    contracts.ScoreRepository
	cfg       Config
	logger    *logger.Logger
}

// NewEngine creates a scoring engine. The generator and retriever are
// injected so tests can substitute deterministic stubs.
func NewEngine(
	gen contracts.Generator,
	retr contracts.Retriever,
	scores contracts.ScoreRepository,
	cfg Config,
	log *logger.Logger,
) *Engine {
	return &Engine{
		generator: gen,
		retriever: retr,
		scores:    scores,
		cfg:       cfg,
		logger:    log.WithField("module", "scoring"),
	}
}

// Config returns the engine's scoring configuration
func (e *Engine) Config() Config {
	return e.cfg
}

// Score produces a score record for a symbol without persisting it.
// The caller must pass metrics from a successful fetch.
func (e *Engine) Score(ctx context.Context, symbol string, metrics *contracts.MetricsPayload) *contracts.ScoreRecord {
	// Qualitative context; retriever failure is degraded, not fatal
	qualContext := ""
	chunks, err := e.retriever.Retrieve(ctx, retrieverQuery(symbol))
	if err != nil {
		e.logger.WithError(err).WithField("symbol", symbol).Warn("Retriever unavailable, scoring without context")
	} else {
		qualContext = joinChunks(chunks)
	}

	prompt := buildPrompt(symbol, metrics, qualContext)

	response, err := e.generator.Generate(ctx, prompt)
	if err != nil {
		e.logger.WithError(err).WithField("symbol", symbol).Warn("Generation failed, using degraded response")
		response = degradedResponse(err)
	}

	return e.parseResponse(symbol, response)
}

// ScoreAndSave scores a symbol and persists the record. A save
// failure is logged but does not invalidate the computed record.
func (e *Engine) ScoreAndSave(ctx context.Context, symbol string, metrics *contracts.MetricsPayload) *contracts.ScoreRecord {
	record := e.Score(ctx, symbol, metrics)

	if err := e.scores.Save(ctx, record); err != nil {
		e.logger.WithError(err).WithField("symbol", symbol).Error("Failed to persist score record")
	}

	return record
}

// parseResponse extracts and validates the five labeled fields from
// generated text, repairing the overall score when its parse failed.
func (e *Engine) parseResponse(symbol, response string) *contracts.ScoreRecord {
	quant := ExtractScore(response, labelQuantitative)
	qual := ExtractScore(response, labelQualitative)
	overall := ExtractScore(response, labelOverall)

	// An overall stuck at the parse-failure default next to parsed
	// component scores is misleading; recompute the composite instead.
	if overall == DefaultScore && (quant != DefaultScore || qual != DefaultScore) {
		overall = roundTo2(e.cfg.Weights.Quantitative*quant + e.cfg.Weights.Qualitative*qual)
	}

	// Recommendation derives from the overall value stored in the
	// record, keeping the two consistent under the thresholds.
	return &contracts.ScoreRecord{
		Symbol:         symbol,
		Quantitative:   quant,
		Qualitative:    qual,
		Overall:        overall,
		Recommendation: e.cfg.Recommendation(overall),
		Justification:  ExtractJustification(response),
		UpdatedAt:      time.Now(),
	}
}

// joinChunks flattens retrieved context chunks into one prompt section
func joinChunks(chunks []string) string {
	out := ""
	for i, c := range chunks {
		if i > 0 {
			out += ". "
		}
		out += c
	}
	return out
}
