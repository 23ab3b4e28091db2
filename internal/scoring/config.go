package scoring

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/duallens/analytics/internal/contracts"
)

// Thresholds map an overall score to a recommendation. They must be
// strictly descending; everything below Hold is a SELL.
type Thresholds struct {
	StrongBuy float64 `yaml:"strong_buy" json:"strong_buy"`
	Buy       float64 `yaml:"buy" json:"buy"`
	Hold      float64 `yaml:"hold" json:"hold"`
}

// Weights define the composite score used when the generator's own
// overall score cannot be parsed.
type Weights struct {
	Quantitative float64 `yaml:"quantitative" json:"quantitative"`
	Qualitative  float64 `yaml:"qualitative" json:"qualitative"`
}

// Config holds scoring engine tunables
type Config struct {
	Thresholds Thresholds `yaml:"thresholds" json:"thresholds"`
	Weights    Weights    `yaml:"weights" json:"weights"`
}

// DefaultConfig returns the standard thresholds and composite weights
func DefaultConfig() Config {
	return Config{
		Thresholds: Thresholds{
			StrongBuy: 8.5,
			Buy:       7.0,
			Hold:      5.5,
		},
		Weights: Weights{
			Quantitative: 0.4,
			Qualitative:  0.6,
		},
	}
}

// LoadConfig reads a YAML scoring config. Unknown fields fail the
// decode so typos surface immediately.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode scoring config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks threshold ordering and weight normalization
func (c Config) Validate() error {
	t := c.Thresholds
	if !(t.StrongBuy > t.Buy && t.Buy > t.Hold) {
		return fmt.Errorf("thresholds must be strictly descending: strong_buy=%v buy=%v hold=%v",
			t.StrongBuy, t.Buy, t.Hold)
	}
	if t.StrongBuy > 10 || t.Hold < 0 {
		return fmt.Errorf("thresholds must lie within [0,10]")
	}

	sum := c.Weights.Quantitative + c.Weights.Qualitative
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("weights must sum to 1.0, got %v", sum)
	}
	if c.Weights.Quantitative < 0 || c.Weights.Qualitative < 0 {
		return fmt.Errorf("weights must be non-negative")
	}

	return nil
}

// Recommendation maps an overall score to a recommendation label
func (c Config) Recommendation(overall float64) contracts.Recommendation {
	switch {
	case overall >= c.Thresholds.StrongBuy:
		return contracts.StrongBuy
	case overall >= c.Thresholds.Buy:
		return contracts.Buy
	case overall >= c.Thresholds.Hold:
		return contracts.Hold
	default:
		return contracts.Sell
	}
}
