package httpserver

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/alex77palex/arbitrage-bot/internal/feed"
	"github.com/alex77palex/arbitrage-bot/internal/riskguard"
	"github.com/alex77palex/arbitrage-bot/pkg/types"
)

// SettleHandler handles operator requests marking an event as settled.
// Settlement is the point where stakes held against the event stop
// being at risk, so the handler also frees the event's open exposure.
type SettleHandler struct {
	registry *feed.Registry
	guard    *riskguard.Guard
	logger   *zap.Logger
}

// NewSettleHandler creates a new settlement handler.
func NewSettleHandler(registry *feed.Registry, guard *riskguard.Guard, logger *zap.Logger) *SettleHandler {
	return &SettleHandler{
		registry: registry,
		guard:    guard,
		logger:   logger,
	}
}

// SettleResponse represents the HTTP response for a settlement request.
type SettleResponse struct {
	EventID          string `json:"event_id"`
	Status           string `json:"status"`
	ReleasedExposure string `json:"released_exposure"`
}

// HandleSettle handles POST /api/events/settle?event=<event-id> requests.
func (h *SettleHandler) HandleSettle(w http.ResponseWriter, r *http.Request) {
	eventID := r.URL.Query().Get("event")
	if eventID == "" {
		h.writeError(w, "missing required query parameter: event", http.StatusBadRequest)
		return
	}

	if !h.registry.SetEventStatus(eventID, types.EventSettled) {
		h.writeError(w, "event not found", http.StatusNotFound)
		return
	}

	released := h.guard.ReleaseEvent(eventID)

	h.logger.Info("event-settled",
		zap.String("event-id", eventID),
		zap.String("released-exposure", released.StringFixed(2)))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	err := json.NewEncoder(w).Encode(SettleResponse{
		EventID:          eventID,
		Status:           string(types.EventSettled),
		ReleasedExposure: released.StringFixed(2),
	})
	if err != nil {
		h.logger.Error("failed-to-encode-response", zap.Error(err))
	}
}

// writeError writes a JSON error response.
func (h *SettleHandler) writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{Error: message}
	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		h.logger.Error("failed-to-encode-error-response", zap.Error(err))
	}
}
