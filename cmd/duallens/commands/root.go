package commands

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "duallens",
	Short: "DualLens Analytics - watchlist scoring and refresh pipeline",
	Long: `DualLens Analytics CLI

Combines quantitative metrics with retrieval-augmented qualitative
analysis into a composite recommendation per symbol.

Usage:
  go run ./cmd/duallens [command]

Examples:
  go run ./cmd/duallens api
  go run ./cmd/duallens refresh
  go run ./cmd/duallens score GOOGL
  go run ./cmd/duallens rank --top 5
  go run ./cmd/duallens watchlist add NVDA`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}
