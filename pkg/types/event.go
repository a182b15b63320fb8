package types

import "time"

// EventStatus describes the lifecycle of a real-world contest.
type EventStatus string

const (
	EventScheduled EventStatus = "scheduled"
	EventLive      EventStatus = "live"
	EventSettled   EventStatus = "settled"
	EventCancelled EventStatus = "cancelled"
)

// Event identifies a real-world contest. Immutable after creation
// except for Status.
type Event struct {
	ID        string      `json:"id"`
	Sport     string      `json:"sport"` // e.g. "football", "tennis", "basketball"
	Name      string      `json:"name"`
	StartTime time.Time   `json:"start_time"`
	Status    EventStatus `json:"status"`
}

// Market is a specific bet type on an Event. Its outcomes are mutually
// exclusive and exhaustive: exactly one of them pays out.
type Market struct {
	ID       string   `json:"id"`
	EventID  string   `json:"event_id"`
	Kind     string   `json:"kind"` // e.g. "match_winner"
	Outcomes []string `json:"outcomes"`
}
