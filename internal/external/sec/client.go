package sec

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/duallens/analytics/internal/contracts"
	"github.com/duallens/analytics/pkg/config"
	"github.com/duallens/analytics/pkg/httputil"
	"github.com/duallens/analytics/pkg/logger"
	"github.com/duallens/analytics/pkg/redis"
)

const (
	tickersURL = "https://www.sec.gov/files/company_tickers.json"
	maxFilings = 5
)

// wantedForms are the filing types worth surfacing
var wantedForms = map[string]struct{}{
	"10-K": {},
	"10-Q": {},
	"8-K":  {},
}

// Client fetches filings from SEC EDGAR. Ticker-to-CIK mappings are
// memoized in process (the universe of listed companies bounds the
// map) and mirrored into the Redis hot cache.
type Client struct {
	http    *httputil.Client
	cache   *redis.Cache
	baseURL string
	logger  *logger.Logger

	mu   sync.RWMutex
	ciks map[string]string
}

// NewClient creates an EDGAR client. The SEC fair-access policy
// requires a descriptive User-Agent and a request-rate ceiling.
func NewClient(cfg config.SECConfig, redisClient *redis.Client, log *logger.Logger) *Client {
	limiter := redis.NewRateLimiter(redisClient, "duallens")
	httpClient := httputil.New(log).
		WithUserAgent(cfg.UserAgent).
		WithRateLimiter(limiter, redis.SECRateLimit)

	return &Client{
		http:    httpClient,
		cache:   redis.NewCache(redisClient, "duallens"),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		logger:  log.WithField("module", "sec"),
		ciks:    make(map[string]string),
	}
}

// submissionsEnvelope mirrors the EDGAR submissions JSON shape
type submissionsEnvelope struct {
	CIK     string `json:"cik"`
	Filings struct {
		Recent struct {
			AccessionNumber []string `json:"accessionNumber"`
			FilingDate      []string `json:"filingDate"`
			Form            []string `json:"form"`
			PrimaryDocument []string `json:"primaryDocument"`
			PrimaryDocDesc  []string `json:"primaryDocDescription"`
		} `json:"recent"`
	} `json:"filings"`
}

// FetchFilings returns up to five recent annual, quarterly, and
// current-report filings for one symbol. Implements
// contracts.FilingsProvider.
func (c *Client) FetchFilings(ctx context.Context, symbol string) ([]contracts.Filing, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol must not be empty")
	}

	cik, err := c.lookupCIK(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("cik lookup for %s: %w", symbol, err)
	}

	var envelope submissionsEnvelope
	url := fmt.Sprintf("%s/submissions/CIK%s.json", c.baseURL, cik)
	if err := c.http.GetJSON(ctx, url, &envelope); err != nil {
		return nil, fmt.Errorf("edgar submissions for %s: %w", symbol, err)
	}

	recent := envelope.Filings.Recent
	filings := make([]contracts.Filing, 0, maxFilings)
	for i := range recent.Form {
		if _, wanted := wantedForms[recent.Form[i]]; !wanted {
			continue
		}

		filing := contracts.Filing{
			Form:      recent.Form[i],
			Accession: recent.AccessionNumber[i],
		}
		if i < len(recent.FilingDate) {
			filing.Date = recent.FilingDate[i]
		}
		if i < len(recent.PrimaryDocDesc) {
			filing.Description = recent.PrimaryDocDesc[i]
		}
		if i < len(recent.PrimaryDocument) {
			filing.URL = documentURL(cik, recent.AccessionNumber[i], recent.PrimaryDocument[i])
		}

		filings = append(filings, filing)
		if len(filings) == maxFilings {
			break
		}
	}
	return filings, nil
}

// lookupCIK resolves a ticker to its zero-padded 10-digit CIK
func (c *Client) lookupCIK(ctx context.Context, symbol string) (string, error) {
	upper := strings.ToUpper(symbol)

	c.mu.RLock()
	cik, ok := c.ciks[upper]
	c.mu.RUnlock()
	if ok {
		return cik, nil
	}

	if hit, err := c.cache.Get(ctx, redis.CIKKey(upper), &cik); err == nil && hit && cik != "" {
		c.remember(upper, cik)
		return cik, nil
	}

	var listing map[string]struct {
		CIK    int64  `json:"cik_str"`
		Ticker string `json:"ticker"`
		Title  string `json:"title"`
	}
	if err := c.http.GetJSON(ctx, tickersURL, &listing); err != nil {
		return "", err
	}

	for _, entry := range listing {
		if strings.EqualFold(entry.Ticker, upper) {
			cik = fmt.Sprintf("%010d", entry.CIK)
			c.remember(upper, cik)
			if err := c.cache.Set(ctx, redis.CIKKey(upper), cik, redis.TTLCIK); err != nil {
				c.logger.WithError(err).WithField("symbol", upper).Warn("Failed to hot-cache CIK")
			}
			return cik, nil
		}
	}
	return "", fmt.Errorf("no CIK listed for %s", upper)
}

func (c *Client) remember(symbol, cik string) {
	c.mu.Lock()
	c.ciks[symbol] = cik
	c.mu.Unlock()
}

// documentURL builds the archive link for a filing's primary document
func documentURL(cik, accession, document string) string {
	return fmt.Sprintf(
		"https://www.sec.gov/Archives/edgar/data/%s/%s/%s",
		strings.TrimLeft(cik, "0"),
		strings.ReplaceAll(accession, "-", ""),
		document,
	)
}
