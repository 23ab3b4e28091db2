package scoring

import (
	"context"
	"fmt"
	"strings"

	"github.com/duallens/analytics/internal/contracts"
)

// Summarizer generates plain-text investment digests. Like the
// scoring engine it degrades to an explanatory string instead of
// surfacing generation errors.
type Summarizer struct {
	generator contracts.Generator
}

// NewSummarizer creates a summarizer on the given generator
func NewSummarizer(gen contracts.Generator) *Summarizer {
	return &Summarizer{generator: gen}
}

// SummarizeStock writes a 3-4 sentence investment summary combining
// the financial snapshot with recent headlines.
func (s *Summarizer) SummarizeStock(ctx context.Context, symbol string, metrics *contracts.MetricsPayload, news []contracts.NewsItem) string {
	var b strings.Builder

	name := metrics.Name
	if name == "" {
		name = symbol
	}

	fmt.Fprintf(&b, "You are a concise financial analyst. Write a 3-4 sentence summary\nof %s (%s) for an investor.\n\n", symbol, name)
	b.WriteString("Financial snapshot:\n")
	fmt.Fprintf(&b, "- Price: $%.2f\n", metrics.Price)
	fmt.Fprintf(&b, "- Market Cap: $%.2fB\n", metrics.MarketCap)
	fmt.Fprintf(&b, "- P/E Ratio: %.2f\n", metrics.PERatio)
	fmt.Fprintf(&b, "- EPS: %.2f\n", metrics.EPS)
	fmt.Fprintf(&b, "- Dividend Yield: %.2f%%\n", metrics.DividendYield)

	if len(news) > 0 {
		b.WriteString("\nRecent news:\n")
		for i, a := range news {
			if i >= 5 {
				break
			}
			fmt.Fprintf(&b, "- %s\n", a.Title)
		}
	}

	b.WriteString("\nWrite a factual, neutral summary. Focus on key investment considerations.")

	out, err := s.generator.Generate(ctx, b.String())
	if err != nil {
		return fmt.Sprintf("Summary unavailable: %v", err)
	}
	return strings.TrimSpace(out)
}

// SummarizeNews writes a short digest of multiple headlines
func (s *Summarizer) SummarizeNews(ctx context.Context, news []contracts.NewsItem) string {
	if len(news) == 0 {
		return "No recent news available."
	}

	var b strings.Builder
	b.WriteString("Summarize the following financial news headlines in 2-3 sentences.\n")
	b.WriteString("Focus on the key themes and their potential market impact.\n\nHeadlines:\n")
	for i, a := range news {
		if i >= 6 {
			break
		}
		fmt.Fprintf(&b, "- %s: %s\n", a.Title, a.Summary)
	}
	b.WriteString("\nSummary:")

	out, err := s.generator.Generate(ctx, b.String())
	if err != nil {
		return fmt.Sprintf("News digest unavailable: %v", err)
	}
	return strings.TrimSpace(out)
}

// SummarizeFilings writes investor takeaways from recent filings
func (s *Summarizer) SummarizeFilings(ctx context.Context, symbol string, filings []contracts.Filing) string {
	if len(filings) == 0 {
		return fmt.Sprintf("No SEC filings found for %s.", symbol)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Based on the following recent SEC filings for %s, provide 3-4 bullet points\n", symbol)
	b.WriteString("summarizing what an investor should know. Focus on risk factors, revenue trends, and strategic updates.\n\nFilings:\n")
	for _, f := range filings {
		fmt.Fprintf(&b, "- %s (%s): %s\n", f.Form, f.Date, f.Description)
	}
	b.WriteString("\nKey investor takeaways (bullet points):")

	out, err := s.generator.Generate(ctx, b.String())
	if err != nil {
		return fmt.Sprintf("SEC summary unavailable: %v", err)
	}
	return strings.TrimSpace(out)
}
