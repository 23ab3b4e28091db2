package newswire

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/duallens/analytics/internal/contracts"
	"github.com/duallens/analytics/pkg/config"
	"github.com/duallens/analytics/pkg/httputil"
	"github.com/duallens/analytics/pkg/logger"
)

const (
	yahooNewsURL  = "https://finance.yahoo.com/quote/%s/news"
	finvizURL     = "https://finviz.com/quote.ashx?t=%s"
	sourceYahoo   = "Yahoo Finance"
	sourceFinviz  = "Finviz"
	defaultMaxArt = 8
)

// Client scrapes recent articles for a symbol from public finance
// pages. Results from all sources are merged, deduplicated by title,
// and capped.
type Client struct {
	http        *httputil.Client
	pacer       *rate.Limiter
	maxArticles int
	logger      *logger.Logger
}

// NewClient creates a news scraping client
func NewClient(cfg config.NewsConfig, log *logger.Logger) *Client {
	maxArticles := cfg.MaxArticles
	if maxArticles < 1 {
		maxArticles = defaultMaxArt
	}

	httpClient := httputil.NewWithTimeout(log, cfg.RequestTimeout).
		WithUserAgent(cfg.UserAgent).
		WithRetry(2, 500*time.Millisecond)

	return &Client{
		http: httpClient,
		// One page fetch per second; scraping is best-effort and the
		// sites ban aggressive crawlers.
		pacer:       rate.NewLimiter(rate.Limit(1), 1),
		maxArticles: maxArticles,
		logger:      log.WithField("module", "newswire"),
	}
}

// FetchNews returns recent articles for one symbol. A source that
// fails to parse is skipped; the fetch fails only when every source
// does. Implements contracts.NewsProvider.
func (c *Client) FetchNews(ctx context.Context, symbol string) ([]contracts.NewsItem, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol must not be empty")
	}

	var articles []contracts.NewsItem
	var lastErr error

	if items, err := c.fetchYahoo(ctx, symbol); err != nil {
		lastErr = err
		c.logger.WithError(err).WithField("symbol", symbol).Warn("Yahoo news scrape failed")
	} else {
		articles = append(articles, items...)
	}

	if items, err := c.fetchFinviz(ctx, symbol); err != nil {
		lastErr = err
		c.logger.WithError(err).WithField("symbol", symbol).Warn("Finviz news scrape failed")
	} else {
		articles = append(articles, items...)
	}

	if len(articles) == 0 && lastErr != nil {
		return nil, fmt.Errorf("news fetch for %s: %w", symbol, lastErr)
	}

	return dedupeByTitle(articles, c.maxArticles), nil
}

// fetchDocument performs one paced GET and parses the body
func (c *Client) fetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	if err := c.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := c.http.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	return goquery.NewDocumentFromReader(resp.Body)
}

func (c *Client) fetchYahoo(ctx context.Context, symbol string) ([]contracts.NewsItem, error) {
	doc, err := c.fetchDocument(ctx, fmt.Sprintf(yahooNewsURL, symbol))
	if err != nil {
		return nil, err
	}

	var items []contracts.NewsItem
	doc.Find("li.stream-item").Each(func(_ int, s *goquery.Selection) {
		link := s.Find("a").First()
		title := strings.TrimSpace(s.Find("h3").First().Text())
		if title == "" {
			return
		}

		href, _ := link.Attr("href")
		if strings.HasPrefix(href, "/") {
			href = "https://finance.yahoo.com" + href
		}

		items = append(items, contracts.NewsItem{
			Title:   title,
			URL:     href,
			Summary: strings.TrimSpace(s.Find("p").First().Text()),
			Source:  sourceYahoo,
		})
	})
	return items, nil
}

func (c *Client) fetchFinviz(ctx context.Context, symbol string) ([]contracts.NewsItem, error) {
	doc, err := c.fetchDocument(ctx, fmt.Sprintf(finvizURL, symbol))
	if err != nil {
		return nil, err
	}

	var items []contracts.NewsItem
	doc.Find("table.fullview-news-outer tr, table#news-table tr").Each(func(_ int, s *goquery.Selection) {
		link := s.Find("a.tab-link-news").First()
		title := strings.TrimSpace(link.Text())
		if title == "" {
			return
		}

		href, _ := link.Attr("href")
		date := strings.TrimSpace(s.Find("td").First().Text())

		items = append(items, contracts.NewsItem{
			Title:  title,
			URL:    href,
			Source: sourceFinviz,
			Date:   date,
		})
	})
	return items, nil
}

// dedupeByTitle keeps the first occurrence of each title (case and
// whitespace insensitive) and caps the result
func dedupeByTitle(items []contracts.NewsItem, limit int) []contracts.NewsItem {
	seen := make(map[string]struct{}, len(items))
	out := make([]contracts.NewsItem, 0, limit)
	for _, item := range items {
		key := strings.ToLower(strings.Join(strings.Fields(item.Title), " "))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
		if len(out) == limit {
			break
		}
	}
	return out
}
