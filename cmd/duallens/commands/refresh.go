package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// refreshCmd represents the refresh command
var refreshCmd = &cobra.Command{
	Use:   "refresh [symbol...]",
	Short: "Refresh cached metrics and news",
	Long: `Refreshes cached metrics and news records.

Without arguments, runs one refresh pass over the whole watchlist.
With symbols, forces a refresh of just those symbols.
With --daemon, stays up and refreshes on the configured schedule.

Example:
  go run ./cmd/duallens refresh
  go run ./cmd/duallens refresh GOOGL NVDA
  go run ./cmd/duallens refresh --daemon`,
	RunE: runRefresh,
}

var refreshDaemon bool

func init() {
	rootCmd.AddCommand(refreshCmd)

	refreshCmd.Flags().BoolVar(&refreshDaemon, "daemon", false, "keep running on the configured schedule")
}

func runRefresh(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	a.serveMetrics()

	if refreshDaemon {
		if err := a.scheduler.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		defer a.scheduler.Stop()

		fmt.Printf("Refresh scheduler running (times: %v)\n", a.cfg.Refresh.Times)
		fmt.Println("Press Ctrl+C to stop")

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		return nil
	}

	if len(args) > 0 {
		for _, symbol := range args {
			if a.scheduler.TriggerSymbol(symbol) {
				fmt.Printf("refresh triggered: %s\n", symbol)
			} else {
				fmt.Printf("refresh dropped (already in flight): %s\n", symbol)
			}
		}
		a.scheduler.Stop() // waits for the triggered work to drain
		return nil
	}

	a.scheduler.RefreshAll(ctx)
	fmt.Println("Refresh pass completed")
	return nil
}
