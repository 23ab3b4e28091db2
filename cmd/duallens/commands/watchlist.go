package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// watchlistCmd represents the watchlist command
var watchlistCmd = &cobra.Command{
	Use:   "watchlist",
	Short: "Manage the watchlist",
	Long: `Lists, adds, or removes watchlist symbols.

Example:
  go run ./cmd/duallens watchlist list
  go run ./cmd/duallens watchlist add NVDA
  go run ./cmd/duallens watchlist remove IBM`,
}

var watchlistListCmd = &cobra.Command{
	Use:   "list",
	Short: "List watchlist symbols",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		a, err := setup(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		entries, err := a.watchlist.List(ctx)
		if err != nil {
			return fmt.Errorf("list watchlist: %w", err)
		}

		if len(entries) == 0 {
			fmt.Println("Watchlist is empty")
			return nil
		}
		for _, entry := range entries {
			fmt.Printf("%-8s added %s\n", entry.Symbol, entry.AddedAt.Format("2006-01-02"))
		}
		return nil
	},
}

var watchlistAddCmd = &cobra.Command{
	Use:   "add <symbol>",
	Short: "Add a symbol and warm its cache",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		symbol := strings.ToUpper(args[0])

		a, err := setup(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.watchlist.Add(ctx, symbol); err != nil {
			return fmt.Errorf("add %s: %w", symbol, err)
		}
		a.scheduler.TriggerSymbol(symbol)
		a.scheduler.Stop() // wait for the warm-up fetch

		fmt.Printf("added %s\n", symbol)
		return nil
	},
}

var watchlistRemoveCmd = &cobra.Command{
	Use:   "remove <symbol>",
	Short: "Remove a symbol and its cached records",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		symbol := strings.ToUpper(args[0])

		a, err := setup(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.watchlist.Remove(ctx, symbol); err != nil {
			return fmt.Errorf("remove %s: %w", symbol, err)
		}

		fmt.Printf("removed %s\n", symbol)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchlistCmd)
	watchlistCmd.AddCommand(watchlistListCmd)
	watchlistCmd.AddCommand(watchlistAddCmd)
	watchlistCmd.AddCommand(watchlistRemoveCmd)
}
