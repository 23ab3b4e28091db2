package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pipeline metrics. Label "kind" is one of metrics|news|score.
var (
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "duallens",
		Name:      "cache_hits_total",
		Help:      "Read-through cache hits served without a provider call",
	}, []string{"kind"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "duallens",
		Name:      "cache_misses_total",
		Help:      "Read-through cache misses or stale reads that invoked a provider",
	}, []string{"kind"})

	ProviderErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "duallens",
		Name:      "provider_errors_total",
		Help:      "Failed provider calls by provider name",
	}, []string{"provider"})

	RefreshRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "duallens",
		Name:      "refresh_runs_total",
		Help:      "Per-symbol refresh executions by result",
	}, []string{"result"})

	RefreshDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "duallens",
		Name:      "refresh_dropped_total",
		Help:      "Refresh triggers dropped because the symbol was already refreshing",
	})

	RefreshInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "duallens",
		Name:      "refresh_in_flight",
		Help:      "Symbols currently being refreshed",
	})
)

// Handler returns the /metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
