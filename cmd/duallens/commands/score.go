package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// scoreCmd represents the score command
var scoreCmd = &cobra.Command{
	Use:   "score <symbol>",
	Short: "Score one symbol and print the recommendation",
	Long: `Resolves the symbol's metrics through the cache, runs the scoring
engine, persists the result, and prints it.

Example:
  go run ./cmd/duallens score GOOGL`,
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	symbol := args[0]

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	metrics, err := a.accessor.Metrics(ctx, symbol, 0)
	if err != nil {
		return fmt.Errorf("resolve metrics for %s: %w", symbol, err)
	}

	record := a.engine.ScoreAndSave(ctx, symbol, &metrics.Payload)

	fmt.Printf("Symbol:         %s\n", record.Symbol)
	fmt.Printf("Quantitative:   %.1f\n", record.Quantitative)
	fmt.Printf("Qualitative:    %.1f\n", record.Qualitative)
	fmt.Printf("Overall:        %.1f\n", record.Overall)
	fmt.Printf("Recommendation: %s\n", record.Recommendation)
	fmt.Printf("Justification:  %s\n", record.Justification)
	return nil
}
