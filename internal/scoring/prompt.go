package scoring

import (
	"fmt"
	"strings"

	"github.com/duallens/analytics/internal/contracts"
)

// Labels the generator is instructed to emit and the parser searches for
const (
	labelQuantitative = "Quantitative Score"
	labelQualitative  = "Qualitative Score"
	labelOverall      = "Overall Score"
)

// retrieverQuery is the fixed templated question used to pull
// qualitative context about a company from the document store.
func retrieverQuery(symbol string) string {
	return fmt.Sprintf(
		"What are the key AI initiatives, strategic projects, and competitive advantages of %s? "+
			"What risks or challenges does the company face in its AI strategy?",
		symbol,
	)
}

// metricsSnapshot renders the financial snapshot section of the prompt
func metricsSnapshot(symbol string, m *contracts.MetricsPayload) string {
	name := m.Name
	if name == "" {
		name = symbol
	}

	return fmt.Sprintf(`Symbol: %s | Name: %s
Market Cap: $%.2fB | P/E Ratio: %.2f
EPS: %.2f | Price/Book: %.2f
Dividend Yield: %.2f%% | Forward P/E: %.2f
52W High: $%.2f | 52W Low: $%.2f`,
		symbol, name,
		m.MarketCap, m.PERatio,
		m.EPS, m.PriceToBook,
		m.DividendYield, m.ForwardPE,
		m.Week52High, m.Week52Low,
	)
}

// buildPrompt assembles the dual-lens scoring prompt from the metrics
// snapshot and the retrieved qualitative context.
func buildPrompt(symbol string, metrics *contracts.MetricsPayload, context string) string {
	var b strings.Builder

	b.WriteString("You are DualLens Analytics, a dual-lens investment analyst.\n")
	fmt.Fprintf(&b, "Evaluate %s using quantitative (financial) and qualitative (AI strategy) analysis.\n\n", symbol)

	b.WriteString("=== FINANCIAL DATA ===\n")
	b.WriteString(metricsSnapshot(symbol, metrics))
	b.WriteString("\n\n")

	b.WriteString("=== AI STRATEGY CONTEXT (from company documents) ===\n")
	b.WriteString(context)
	b.WriteString("\n\n")

	b.WriteString(`=== SCORING FRAMEWORK ===
Quantitative Score (0-10): Based on valuation (P/E), profitability (EPS), and price positioning (52W range).
Qualitative Score (0-10): Based on AI initiative strength, innovation leadership, and strategic positioning.
Overall Score: 60% qualitative + 40% quantitative.

=== OUTPUT FORMAT (use exactly these labels) ===
Quantitative Score: X.X/10
Qualitative Score: X.X/10
Overall Score: X.X/10
Recommendation: [STRONG_BUY / BUY / HOLD / SELL]
Justification: [2-3 sentences explaining the recommendation]
Key Risks: [1-2 sentences on main risks]`)

	return b.String()
}

// degradedResponse is the deterministic fallback substituted when the
// generator itself fails; it parses into a valid HOLD record.
func degradedResponse(err error) string {
	return fmt.Sprintf(
		"Quantitative Score: 5.0/10\nQualitative Score: 5.0/10\nOverall Score: 5.0/10\n"+
			"Recommendation: HOLD\nJustification: generation failed: %v\nKey Risks: N/A",
		err,
	)
}
