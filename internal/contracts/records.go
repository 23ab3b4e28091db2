package contracts

import "time"

// Recommendation is the investment stance derived from the overall score
type Recommendation string

const (
	StrongBuy Recommendation = "STRONG_BUY"
	Buy       Recommendation = "BUY"
	Hold      Recommendation = "HOLD"
	Sell      Recommendation = "SELL"
)

// WatchlistEntry is a symbol the refresh scheduler keeps fresh
type WatchlistEntry struct {
	Symbol  string    `json:"symbol"`
	AddedAt time.Time `json:"added_at"`
}

// MetricsPayload is the financial snapshot fetched for a symbol.
// Monetary aggregates are normalized (market cap in billions,
// dividend yield in percent) the way the dashboard expects them.
type MetricsPayload struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	PrevClose     float64 `json:"prev_close"`
	MarketCap     float64 `json:"market_cap"` // billions
	PERatio       float64 `json:"pe_ratio"`
	ForwardPE     float64 `json:"forward_pe"`
	DividendYield float64 `json:"dividend_yield"` // percent
	EPS           float64 `json:"eps"`
	PriceToBook   float64 `json:"price_to_book"`
	Week52High    float64 `json:"52w_high"`
	Week52Low     float64 `json:"52w_low"`
	AvgVolume     int64   `json:"avg_volume"`
}

// MetricsRecord is a cached metrics snapshot, overwritten on refresh
type MetricsRecord struct {
	Symbol    string         `json:"symbol"`
	Payload   MetricsPayload `json:"payload"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Fresh reports whether the record is within the staleness window
func (r *MetricsRecord) Fresh(maxAge time.Duration) bool {
	return time.Since(r.UpdatedAt) <= maxAge
}

// NewsItem is a single scraped article
type NewsItem struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Summary string `json:"summary"`
	Source  string `json:"source"`
	Date    string `json:"date"`
}

// NewsRecord is the cached article set for a symbol, overwritten
// wholesale on refresh (stale articles are discarded, not merged)
type NewsRecord struct {
	Symbol    string     `json:"symbol"`
	Articles  []NewsItem `json:"articles"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Fresh reports whether the record is within the staleness window
func (r *NewsRecord) Fresh(maxAge time.Duration) bool {
	return time.Since(r.UpdatedAt) <= maxAge
}

// Filing is a regulatory filing reference
type Filing struct {
	Form        string `json:"form"`
	Date        string `json:"date"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Accession   string `json:"accession"`
}

// ScoreRecord is the composite recommendation for a symbol.
// All three scores are bounded to [0,10] and the recommendation is a
// pure function of the overall score.
type ScoreRecord struct {
	Symbol         string         `json:"symbol"`
	Quantitative   float64        `json:"quantitative"`
	Qualitative    float64        `json:"qualitative"`
	Overall        float64        `json:"overall"`
	Recommendation Recommendation `json:"recommendation"`
	Justification  string         `json:"justification"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Fresh reports whether the record is within the staleness window
func (r *ScoreRecord) Fresh(maxAge time.Duration) bool {
	return time.Since(r.UpdatedAt) <= maxAge
}
