package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "arbitrage-bot",
	Short: "Cross-venue sports betting arbitrage bot",
	Long: `Arbitrage bot that aggregates live odds for the same sporting events
across multiple betting venues, detects risk-free combinations where the
best available odds imply a total probability below one, and places the
full set of bets concurrently with stake sizes that lock in the profit
regardless of outcome.

Partial executions are hedged with compensating orders at other venues,
and a risk guard caps open exposure and cools the bot down after a run
of failures.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	// Flags can be added here if needed
}
