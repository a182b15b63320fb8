package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// AttemptState is the per-leg placement state machine:
// pending -> confirmed | rejected | timed_out.
type AttemptState string

const (
	AttemptPending   AttemptState = "pending"
	AttemptRejected  AttemptState = "rejected"
	AttemptTimedOut  AttemptState = "timed_out"
	AttemptConfirmed AttemptState = "confirmed"
)

// Terminal reports whether the state is terminal for aggregation.
func (s AttemptState) Terminal() bool {
	switch s {
	case AttemptConfirmed, AttemptRejected, AttemptTimedOut:
		return true
	}
	return false
}

// Failed reports whether the leg counts as failed for aggregation.
func (s AttemptState) Failed() bool {
	return s == AttemptRejected || s == AttemptTimedOut
}

// ExecutionAttempt tracks one leg of a stake plan in flight.
type ExecutionAttempt struct {
	Leg   PlanLeg
	State AttemptState
	// RealizedStake is the stake the venue actually accepted. It can
	// be lower than the planned stake on a partial fill.
	RealizedStake decimal.Decimal
	BetID         string
	Err           error
	PlacedAt      time.Time
	SettledAt     time.Time
	// Compensation marks a leg placed by the partial-failure recovery
	// policy rather than the original plan.
	Compensation bool
}

// ExecutionOutcome is the aggregate result of a stake plan.
type ExecutionOutcome string

const (
	OutcomeFullSuccess    ExecutionOutcome = "full_success"
	OutcomePartialSuccess ExecutionOutcome = "partial_success"
	OutcomeFullFailure    ExecutionOutcome = "full_failure"
)

// LegRecord is the persisted form of one execution attempt.
type LegRecord struct {
	Venue         string          `json:"venue"`
	Outcome       string          `json:"outcome"`
	PlannedStake  decimal.Decimal `json:"planned_stake"`
	RealizedStake decimal.Decimal `json:"realized_stake"`
	Odds          decimal.Decimal `json:"odds"`
	State         AttemptState    `json:"state"`
	ErrorCode     string          `json:"error_code,omitempty"`
	Compensation  bool            `json:"compensation,omitempty"`
}

// ExecutionRecord is the terminal audit record of a stake plan,
// handed to the persistence and alerting collaborators.
type ExecutionRecord struct {
	ID       string `json:"id"`
	PlanID   string `json:"plan_id"`
	EventID  string `json:"event_id"`
	MarketID string `json:"market_id"`

	Legs    []LegRecord      `json:"legs"`
	Outcome ExecutionOutcome `json:"outcome"`
	// Reason is set for full_failure short-circuits, e.g. "risk_blocked".
	Reason string `json:"reason,omitempty"`

	GuaranteedProfit decimal.Decimal `json:"guaranteed_profit"`
	// RealizedProfit is the worst-case net result given the legs that
	// actually confirmed. Negative when the position is exposed.
	RealizedProfit decimal.Decimal `json:"realized_profit"`
	TotalStake     decimal.Decimal `json:"total_stake"`
	RealizedStake  decimal.Decimal `json:"realized_stake"`
	// Exposed is true when the settled position is not risk-free.
	Exposed bool `json:"exposed,omitempty"`

	StartedAt time.Time `json:"started_at"`
	SettledAt time.Time `json:"settled_at"`
}
