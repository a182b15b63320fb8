package feed

import (
	"sync"

	"github.com/alex77palex/arbitrage-bot/pkg/types"
)

// Registry holds the events and markets the engine tracks. Events,
// markets and outcomes are created here from venue data; detection and
// allocation only ever read them.
type Registry struct {
	mu      sync.RWMutex
	events  map[string]types.Event
	markets map[string]types.Market
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		events:  make(map[string]types.Event),
		markets: make(map[string]types.Market),
	}
}

// AddEvent registers or replaces an event.
func (r *Registry) AddEvent(event types.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[event.ID] = event
}

// AddMarket registers or replaces a market.
func (r *Registry) AddMarket(market types.Market) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markets[market.ID] = market
}

// SetEventStatus updates an event's status, the only mutation an event
// sees after creation.
func (r *Registry) SetEventStatus(eventID string, status types.EventStatus) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	event, ok := r.events[eventID]
	if !ok {
		return false
	}
	event.Status = status
	r.events[eventID] = event
	return true
}

// Event returns the event with the given ID.
func (r *Registry) Event(id string) (types.Event, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	event, ok := r.events[id]
	return event, ok
}

// Market returns the market with the given ID.
func (r *Registry) Market(id string) (types.Market, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	market, ok := r.markets[id]
	return market, ok
}

// MarketIDs returns the IDs of all registered markets.
func (r *Registry) MarketIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.markets))
	for id := range r.markets {
		ids = append(ids, id)
	}
	return ids
}
