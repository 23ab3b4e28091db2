package ranking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/duallens/analytics/internal/contracts"
)

func TestScreenFiltersOnCriteria(t *testing.T) {
	src := newFakeSource()
	src.metrics["BIG"] = contracts.MetricsPayload{Symbol: "BIG", Price: 120, MarketCap: 800, PERatio: 25}
	src.metrics["PRICEY"] = contracts.MetricsPayload{Symbol: "PRICEY", Price: 300, MarketCap: 400, PERatio: 95}
	src.metrics["TINY"] = contracts.MetricsPayload{Symbol: "TINY", Price: 12, MarketCap: 2, PERatio: 15}
	src.metrics["NOLOSS"] = contracts.MetricsPayload{Symbol: "NOLOSS", Price: 40, MarketCap: 60, PERatio: -3}

	s := NewScreener(src, 12*time.Hour, discard())

	passed := s.Screen(context.Background(), []string{"BIG", "PRICEY", "TINY", "NOLOSS"}, DefaultCriteria())

	if len(passed) != 1 || passed[0] != "BIG" {
		t.Errorf("expected only BIG to pass, got %v", passed)
	}
}

func TestScreenZeroCriteriaPassesEverythingFetchable(t *testing.T) {
	src := newFakeSource()
	src.metrics["A"] = contracts.MetricsPayload{Symbol: "A", Price: 1, MarketCap: 0.1}
	src.metricsErr["B"] = errors.New("provider down")

	s := NewScreener(src, 12*time.Hour, discard())

	passed := s.Screen(context.Background(), []string{"A", "B"}, Criteria{})

	if len(passed) != 1 || passed[0] != "A" {
		t.Errorf("expected unfetchable symbols dropped and the rest kept, got %v", passed)
	}
}

func TestScreenPreservesUniverseOrder(t *testing.T) {
	src := newFakeSource()
	for _, sym := range []string{"C", "A", "B"} {
		src.metrics[sym] = contracts.MetricsPayload{Symbol: sym, Price: 50, MarketCap: 100, PERatio: 20}
	}

	s := NewScreener(src, 12*time.Hour, discard())

	passed := s.Screen(context.Background(), []string{"C", "A", "B"}, DefaultCriteria())

	want := []string{"C", "A", "B"}
	for i, sym := range want {
		if passed[i] != sym {
			t.Fatalf("expected universe order preserved, got %v", passed)
		}
	}
}
