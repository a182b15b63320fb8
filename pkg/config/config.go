package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds all application configuration. Loaded once at startup,
// validated, and injected into components; never read as ambient state
// after that.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// Execution mode: "paper" runs against the built-in paper venues,
	// "live" connects the configured venue feeds.
	Mode string

	// Odds and detection
	MinProfitMargin decimal.Decimal // fraction, e.g. 0.01 = 1%
	MaxQuoteAge     time.Duration
	RescanInterval  time.Duration // 0 disables the periodic full rescan
	// VenueReliabilityRanking orders venues best-first for the
	// detector's tie-break. Venues not listed rank after all listed ones.
	VenueReliabilityRanking []string

	// Staking
	MaxTotalStake decimal.Decimal
	MaxPerLegStake decimal.Decimal

	// Execution
	LegTimeout time.Duration

	// Risk guard
	ExposureCeiling          decimal.Decimal
	FailureCooldownThreshold int
	FailureCooldownDuration  time.Duration

	// Venue feeds for live mode: venue name -> endpoints.
	VenueFeeds map[string]VenueFeed

	// Feed websocket behaviour
	WSDialTimeout           time.Duration
	WSReconnectInitialDelay time.Duration
	WSReconnectMaxDelay     time.Duration
	WSReconnectBackoffMult  float64

	// Markets file (JSON list of tracked markets), loaded by the app.
	MarketsFile string

	// Alerting
	WebhookURL string

	// Storage
	StorageMode  string // "postgres" or "console"
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string
}

// VenueFeed holds the endpoints for one live venue.
type VenueFeed struct {
	StreamURL string // websocket odds stream
	PlaceURL  string // HTTP bet placement endpoint
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		Mode: getEnvOrDefault("MODE", "paper"),

		MinProfitMargin:         getDecimalOrDefault("MIN_PROFIT_MARGIN", "0.01"),
		MaxQuoteAge:             getDurationOrDefault("MAX_QUOTE_AGE", 10*time.Second),
		RescanInterval:          getDurationOrDefault("RESCAN_INTERVAL", 30*time.Second),
		VenueReliabilityRanking: getListOrDefault("VENUE_RELIABILITY_RANKING", "pinnacle,betfair,bet365,draftkings,fanduel,williamhill"),

		MaxTotalStake:  getDecimalOrDefault("MAX_TOTAL_STAKE", "1000"),
		MaxPerLegStake: getDecimalOrDefault("MAX_PER_LEG_STAKE", "750"),

		LegTimeout: getDurationOrDefault("LEG_TIMEOUT", 5*time.Second),

		ExposureCeiling:          getDecimalOrDefault("EXPOSURE_CEILING", "5000"),
		FailureCooldownThreshold: getIntOrDefault("FAILURE_COOLDOWN_THRESHOLD", 3),
		FailureCooldownDuration:  getDurationOrDefault("FAILURE_COOLDOWN_DURATION", 2*time.Minute),

		VenueFeeds: parseVenueFeeds(os.Getenv("VENUE_FEEDS")),

		WSDialTimeout:           getDurationOrDefault("WS_DIAL_TIMEOUT", 10*time.Second),
		WSReconnectInitialDelay: getDurationOrDefault("WS_RECONNECT_INITIAL_DELAY", time.Second),
		WSReconnectMaxDelay:     getDurationOrDefault("WS_RECONNECT_MAX_DELAY", 30*time.Second),
		WSReconnectBackoffMult:  getFloat64OrDefault("WS_RECONNECT_BACKOFF_MULTIPLIER", 2.0),

		MarketsFile: os.Getenv("MARKETS_FILE"),

		WebhookURL: os.Getenv("WEBHOOK_URL"),

		StorageMode:  getEnvOrDefault("STORAGE_MODE", "console"),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "arbbot"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "arbbot"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "arbbot"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}

	if c.Mode != "paper" && c.Mode != "live" {
		return fmt.Errorf("MODE must be 'paper' or 'live', got %q", c.Mode)
	}

	one := decimal.NewFromInt(1)
	if c.MinProfitMargin.IsNegative() || c.MinProfitMargin.GreaterThanOrEqual(one) {
		return fmt.Errorf("MIN_PROFIT_MARGIN must be in [0, 1), got %s", c.MinProfitMargin)
	}

	if !c.MaxTotalStake.IsPositive() {
		return fmt.Errorf("MAX_TOTAL_STAKE must be positive, got %s", c.MaxTotalStake)
	}

	if !c.MaxPerLegStake.IsPositive() {
		return fmt.Errorf("MAX_PER_LEG_STAKE must be positive, got %s", c.MaxPerLegStake)
	}

	if !c.ExposureCeiling.IsPositive() {
		return fmt.Errorf("EXPOSURE_CEILING must be positive, got %s", c.ExposureCeiling)
	}

	if c.MaxQuoteAge <= 0 {
		return fmt.Errorf("MAX_QUOTE_AGE must be positive, got %s", c.MaxQuoteAge)
	}

	if c.LegTimeout <= 0 {
		return fmt.Errorf("LEG_TIMEOUT must be positive, got %s", c.LegTimeout)
	}

	if c.FailureCooldownThreshold < 1 {
		return fmt.Errorf("FAILURE_COOLDOWN_THRESHOLD must be >= 1, got %d", c.FailureCooldownThreshold)
	}

	if c.StorageMode != "postgres" && c.StorageMode != "console" {
		return fmt.Errorf("STORAGE_MODE must be 'postgres' or 'console', got %q", c.StorageMode)
	}

	if c.Mode == "live" && len(c.VenueFeeds) == 0 {
		return fmt.Errorf("MODE=live requires VENUE_FEEDS")
	}

	return nil
}

// VenueRank returns the reliability rank of a venue, lower is better.
// Unlisted venues share the rank after the last listed one.
func (c *Config) VenueRank(venue string) int {
	for i, v := range c.VenueReliabilityRanking {
		if v == venue {
			return i
		}
	}
	return len(c.VenueReliabilityRanking)
}

// parseVenueFeeds parses "name=streamURL|placeURL;name2=..." pairs.
func parseVenueFeeds(raw string) map[string]VenueFeed {
	feeds := make(map[string]VenueFeed)
	if raw == "" {
		return feeds
	}

	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, urls, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		stream, place, _ := strings.Cut(urls, "|")
		feeds[strings.TrimSpace(name)] = VenueFeed{
			StreamURL: strings.TrimSpace(stream),
			PlaceURL:  strings.TrimSpace(place),
		}
	}

	return feeds
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatVal
}

func getDecimalOrDefault(key string, defaultValue string) decimal.Decimal {
	fallback := decimal.RequireFromString(defaultValue)

	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	dec, err := decimal.NewFromString(value)
	if err != nil {
		return fallback
	}

	return dec
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}

func getListOrDefault(key string, defaultValue string) []string {
	value := os.Getenv(key)
	if value == "" {
		value = defaultValue
	}

	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
