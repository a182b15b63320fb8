package httpserver

import (
	"encoding/json"
	"net/http"
	"sort"

	"go.uber.org/zap"

	"github.com/alex77palex/arbitrage-bot/internal/feed"
	"github.com/alex77palex/arbitrage-bot/internal/snapshot"
)

// OddsHandler handles HTTP requests for live odds data.
type OddsHandler struct {
	store    *snapshot.Store
	registry *feed.Registry
	logger   *zap.Logger
}

// NewOddsHandler creates a new odds handler.
func NewOddsHandler(store *snapshot.Store, registry *feed.Registry, logger *zap.Logger) *OddsHandler {
	return &OddsHandler{
		store:    store,
		registry: registry,
		logger:   logger,
	}
}

// VenueOdds represents the latest quote from one venue for one outcome.
type VenueOdds struct {
	Venue     string `json:"venue"`
	Odds      string `json:"odds"`
	MaxStake  string `json:"max_stake,omitempty"`
	Timestamp string `json:"timestamp"`
}

// OutcomeOdds represents all live quotes for a single outcome.
type OutcomeOdds struct {
	Outcome string      `json:"outcome"`
	Quotes  []VenueOdds `json:"quotes"`
}

// OddsResponse represents the HTTP response for market odds data.
type OddsResponse struct {
	MarketID string        `json:"market_id"`
	EventID  string        `json:"event_id"`
	Kind     string        `json:"kind"`
	Outcomes []OutcomeOdds `json:"outcomes"`
}

// ErrorResponse represents an HTTP error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HandleOdds handles GET /api/odds?market=<market-id> requests.
func (h *OddsHandler) HandleOdds(w http.ResponseWriter, r *http.Request) {
	marketID := r.URL.Query().Get("market")
	if marketID == "" {
		h.writeError(w, "missing required query parameter: market", http.StatusBadRequest)
		return
	}

	h.logger.Debug("odds-request-received", zap.String("market-id", marketID))

	market, exists := h.registry.Market(marketID)
	if !exists {
		h.writeError(w, "market not found", http.StatusNotFound)
		return
	}

	quotes := h.store.Market(marketID)

	outcomes := make([]OutcomeOdds, 0, len(market.Outcomes))
	for _, outcome := range market.Outcomes {
		entry := OutcomeOdds{Outcome: outcome, Quotes: []VenueOdds{}}

		for key, quote := range quotes {
			if key.Outcome != outcome {
				continue
			}
			venueEntry := VenueOdds{
				Venue:     key.Venue,
				Odds:      quote.Odds.String(),
				Timestamp: quote.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"),
			}
			if quote.MaxStake.IsPositive() {
				venueEntry.MaxStake = quote.MaxStake.String()
			}
			entry.Quotes = append(entry.Quotes, venueEntry)
		}

		sort.Slice(entry.Quotes, func(i, j int) bool {
			return entry.Quotes[i].Venue < entry.Quotes[j].Venue
		})

		outcomes = append(outcomes, entry)
	}

	response := OddsResponse{
		MarketID: market.ID,
		EventID:  market.EventID,
		Kind:     market.Kind,
		Outcomes: outcomes,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		h.logger.Error("failed-to-encode-response", zap.Error(err))
	}
}

// writeError writes a JSON error response.
func (h *OddsHandler) writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{Error: message}
	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		h.logger.Error("failed-to-encode-error-response", zap.Error(err))
	}
}
