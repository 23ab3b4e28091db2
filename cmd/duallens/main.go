package main

import (
	"os"

	"github.com/duallens/analytics/cmd/duallens/commands"
)

// main is the entry point for the DualLens CLI
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
