package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/alex77palex/arbitrage-bot/internal/app"
	"github.com/alex77palex/arbitrage-bot/pkg/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the arbitrage bot",
	Long: `Starts the arbitrage bot, which will:
1. Stream live odds from every configured venue
2. Keep the freshest quote per (venue, market, outcome)
3. Detect combinations whose best-odds implied probabilities sum below one
4. Allocate stakes that equalize the payout and place all legs concurrently

In paper mode (the default) the bot runs against built-in simulated
venues; MODE=live connects the venues configured in VENUE_FEEDS.

Use --markets to point at a tracked-markets JSON file.`,
	RunE: runBot,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("markets", "m", "", "Path to the tracked-markets JSON file (overrides MARKETS_FILE)")
}

func runBot(cmd *cobra.Command, args []string) error {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	// Load config
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Create logger
	logger, err := config.NewLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Get flags
	marketsFile, _ := cmd.Flags().GetString("markets")

	// Create app with options
	opts := &app.Options{
		MarketsFile: marketsFile,
	}

	application, err := app.New(cfg, logger, opts)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	// Run app
	err = application.Run()
	if err != nil {
		return fmt.Errorf("run app: %w", err)
	}

	return nil
}
