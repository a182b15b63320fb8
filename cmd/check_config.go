package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/alex77palex/arbitrage-bot/pkg/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var checkConfigCmd = &cobra.Command{
	Use:   "check-config",
	Short: "Load and validate configuration, then print the effective values",
	RunE:  checkConfig,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(checkConfigCmd)
}

func checkConfig(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fmt.Println("Configuration OK")
	fmt.Printf("  mode:                  %s\n", cfg.Mode)
	fmt.Printf("  http port:             %s\n", cfg.HTTPPort)
	fmt.Printf("  min profit margin:     %s\n", cfg.MinProfitMargin)
	fmt.Printf("  max quote age:         %s\n", cfg.MaxQuoteAge)
	fmt.Printf("  rescan interval:       %s\n", cfg.RescanInterval)
	fmt.Printf("  max total stake:       %s\n", cfg.MaxTotalStake)
	fmt.Printf("  max per-leg stake:     %s\n", cfg.MaxPerLegStake)
	fmt.Printf("  leg timeout:           %s\n", cfg.LegTimeout)
	fmt.Printf("  exposure ceiling:      %s\n", cfg.ExposureCeiling)
	fmt.Printf("  cooldown threshold:    %d\n", cfg.FailureCooldownThreshold)
	fmt.Printf("  cooldown duration:     %s\n", cfg.FailureCooldownDuration)
	fmt.Printf("  venue ranking:         %v\n", cfg.VenueReliabilityRanking)
	fmt.Printf("  storage mode:          %s\n", cfg.StorageMode)
	if cfg.Mode == "live" {
		for name, feed := range cfg.VenueFeeds {
			fmt.Printf("  venue %-16s stream=%s place=%s\n", name+":", feed.StreamURL, feed.PlaceURL)
		}
	}

	return nil
}
