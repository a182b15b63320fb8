package app

import (
	"fmt"
	"os"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/alex77palex/arbitrage-bot/internal/feed"
	"github.com/alex77palex/arbitrage-bot/pkg/types"
)

// marketsFile is the JSON format of the tracked-markets file.
type marketsFile struct {
	Events []eventEntry `json:"events"`
}

type eventEntry struct {
	ID        string        `json:"id"`
	Sport     string        `json:"sport"`
	Name      string        `json:"name"`
	StartTime time.Time     `json:"start_time"`
	Markets   []marketEntry `json:"markets"`
}

type marketEntry struct {
	ID       string   `json:"id"`
	Kind     string   `json:"kind"`
	Outcomes []string `json:"outcomes"`
}

// loadMarkets populates the registry from the tracked-markets file.
// Paper mode without a file falls back to a built-in fixture so the
// pipeline has something to run against.
func loadMarkets(registry *feed.Registry, path string, mode string, logger *zap.Logger) error {
	if path == "" {
		if mode != "paper" {
			return fmt.Errorf("MARKETS_FILE is required in live mode")
		}
		seedPaperFixture(registry)
		logger.Info("markets-loaded", zap.String("source", "paper-fixture"))
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read markets file: %w", err)
	}

	var file marketsFile
	err = json.Unmarshal(data, &file)
	if err != nil {
		return fmt.Errorf("parse markets file: %w", err)
	}

	events := 0
	markets := 0
	for _, entry := range file.Events {
		if entry.ID == "" || len(entry.Markets) == 0 {
			logger.Warn("skipping-invalid-event", zap.String("event-id", entry.ID))
			continue
		}

		registry.AddEvent(types.Event{
			ID:        entry.ID,
			Sport:     entry.Sport,
			Name:      entry.Name,
			StartTime: entry.StartTime,
			Status:    types.EventScheduled,
		})
		events++

		for _, m := range entry.Markets {
			if m.ID == "" || len(m.Outcomes) < 2 {
				logger.Warn("skipping-invalid-market",
					zap.String("event-id", entry.ID),
					zap.String("market-id", m.ID))
				continue
			}
			registry.AddMarket(types.Market{
				ID:       m.ID,
				EventID:  entry.ID,
				Kind:     m.Kind,
				Outcomes: m.Outcomes,
			})
			markets++
		}
	}

	logger.Info("markets-loaded",
		zap.String("source", path),
		zap.Int("events", events),
		zap.Int("markets", markets))

	return nil
}

// seedPaperFixture registers a small set of demo events and markets.
func seedPaperFixture(registry *feed.Registry) {
	now := time.Now()

	registry.AddEvent(types.Event{
		ID:        "evt-paper-1",
		Sport:     "tennis",
		Name:      "Demo Open Final",
		StartTime: now.Add(time.Hour),
		Status:    types.EventScheduled,
	})
	registry.AddMarket(types.Market{
		ID:       "mkt-paper-1",
		EventID:  "evt-paper-1",
		Kind:     "match_winner",
		Outcomes: []string{"player_a", "player_b"},
	})

	registry.AddEvent(types.Event{
		ID:        "evt-paper-2",
		Sport:     "football",
		Name:      "Demo Derby",
		StartTime: now.Add(2 * time.Hour),
		Status:    types.EventScheduled,
	})
	registry.AddMarket(types.Market{
		ID:       "mkt-paper-2",
		EventID:  "evt-paper-2",
		Kind:     "match_result",
		Outcomes: []string{"home", "draw", "away"},
	})
}
