package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/duallens/analytics/internal/ranking"
)

// rankCmd represents the rank command
var rankCmd = &cobra.Command{
	Use:   "rank [symbol...]",
	Short: "Rank a symbol pool by composite score",
	Long: `Scores a pool of symbols and prints the top of the table.

Without arguments the pool is the current watchlist. With --screen the
pool is the default universe narrowed by the quality screen.

Example:
  go run ./cmd/duallens rank --top 5
  go run ./cmd/duallens rank GOOGL MSFT NVDA
  go run ./cmd/duallens rank --screen --top 10`,
	RunE: runRank,
}

var (
	rankTop    int
	rankScreen bool
)

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().IntVar(&rankTop, "top", 5, "number of results")
	rankCmd.Flags().BoolVar(&rankScreen, "screen", false, "screen the default universe instead of the watchlist")
}

func runRank(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	symbols := args
	switch {
	case rankScreen:
		symbols = a.screener.Screen(ctx, ranking.Nasdaq100, ranking.DefaultCriteria())
		fmt.Printf("Screen passed %d of %d symbols\n", len(symbols), len(ranking.Nasdaq100))
	case len(symbols) == 0:
		entries, err := a.watchlist.List(ctx)
		if err != nil {
			return fmt.Errorf("list watchlist: %w", err)
		}
		for _, entry := range entries {
			symbols = append(symbols, entry.Symbol)
		}
	}

	ranked, err := a.ranker.RankTop(ctx, symbols, rankTop)
	if err != nil {
		return err
	}

	fmt.Printf("%-4s %-8s %-8s %-8s %-8s %s\n", "#", "SYMBOL", "QUANT", "QUAL", "OVERALL", "RECOMMENDATION")
	for i, rec := range ranked {
		fmt.Printf("%-4d %-8s %-8.1f %-8.1f %-8.1f %s\n",
			i+1, rec.Symbol, rec.Quantitative, rec.Qualitative, rec.Overall, rec.Recommendation)
	}
	return nil
}
