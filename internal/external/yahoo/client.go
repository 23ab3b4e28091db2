package yahoo

import (
	"context"
	"fmt"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/equity"
	"github.com/sony/gobreaker"

	"github.com/duallens/analytics/internal/contracts"
	"github.com/duallens/analytics/pkg/logger"
	"github.com/duallens/analytics/pkg/redis"
)

// Client fetches financial snapshots from Yahoo Finance. The endpoint
// is unofficial, so calls go through a circuit breaker and a sliding
// window rate limit, with a short-TTL hot cache in front.
type Client struct {
	cache   *redis.Cache
	limiter *redis.RateLimiter
	breaker *gobreaker.CircuitBreaker
	logger  *logger.Logger
}

// NewClient creates a Yahoo Finance client
func NewClient(redisClient *redis.Client, log *logger.Logger) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "yahoo",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		cache:   redis.NewCache(redisClient, "duallens"),
		limiter: redis.NewRateLimiter(redisClient, "duallens"),
		breaker: breaker,
		logger:  log.WithField("module", "yahoo"),
	}
}

// FetchMetrics returns the financial snapshot for one symbol.
// Implements contracts.MetricsProvider.
func (c *Client) FetchMetrics(ctx context.Context, symbol string) (*contracts.MetricsPayload, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol must not be empty")
	}

	var cached contracts.MetricsPayload
	if hit, err := c.cache.Get(ctx, redis.QuoteKey(symbol), &cached); err == nil && hit {
		return &cached, nil
	}

	if err := c.limiter.Wait(ctx, redis.YahooRateLimit); err != nil {
		return nil, fmt.Errorf("yahoo rate limit: %w", err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return equity.Get(symbol)
	})
	if err != nil {
		return nil, fmt.Errorf("yahoo quote for %s: %w", symbol, err)
	}

	eq, ok := result.(*finance.Equity)
	if !ok || eq == nil {
		return nil, fmt.Errorf("yahoo returned no quote for %s", symbol)
	}

	payload := normalize(symbol, eq)
	if err := c.cache.Set(ctx, redis.QuoteKey(symbol), payload, redis.TTLQuote); err != nil {
		c.logger.WithError(err).WithField("symbol", symbol).Warn("Failed to hot-cache quote")
	}
	return payload, nil
}

// normalize maps a raw quote onto the snapshot schema: market cap in
// billions, dividend yield in percent.
func normalize(symbol string, eq *finance.Equity) *contracts.MetricsPayload {
	name := eq.LongName
	if name == "" {
		name = eq.ShortName
	}

	return &contracts.MetricsPayload{
		Symbol:        symbol,
		Name:          name,
		Price:         eq.RegularMarketPrice,
		PrevClose:     eq.RegularMarketPreviousClose,
		MarketCap:     float64(eq.MarketCap) / 1e9,
		PERatio:       eq.TrailingPE,
		ForwardPE:     eq.ForwardPE,
		DividendYield: eq.TrailingAnnualDividendYield * 100,
		EPS:           eq.EpsTrailingTwelveMonths,
		PriceToBook:   eq.PriceToBook,
		Week52High:    eq.FiftyTwoWeekHigh,
		Week52Low:     eq.FiftyTwoWeekLow,
		AvgVolume:     int64(eq.AverageDailyVolume3Month),
	}
}
