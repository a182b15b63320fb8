package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OpportunityLeg pins one outcome of a market to the venue currently
// offering the best odds for it.
type OpportunityLeg struct {
	Venue   string
	Outcome string
	Quote   OddsQuote
	// QuoteVersion is the snapshot store's version counter for the
	// quote's key at detection time. The opportunity is stale the
	// moment the store holds a higher version for any leg.
	QuoteVersion uint64
}

// ArbitrageOpportunity is a set of legs, exactly one per outcome of a
// market, whose combined implied probability is below one. Ephemeral:
// built fresh per detection cycle and discarded once acted on.
type ArbitrageOpportunity struct {
	ID         string
	EventID    string
	MarketID   string
	Legs       []OpportunityLeg
	Overround  decimal.Decimal // sum of 1/odds across legs
	Margin     decimal.Decimal // 1 - Overround
	DetectedAt time.Time
}

// NewOpportunity builds an opportunity from the chosen legs.
func NewOpportunity(eventID, marketID string, legs []OpportunityLeg) *ArbitrageOpportunity {
	overround := decimal.Zero
	for _, leg := range legs {
		overround = overround.Add(leg.Quote.ImpliedProbability())
	}

	return &ArbitrageOpportunity{
		ID:         uuid.New().String(),
		EventID:    eventID,
		MarketID:   marketID,
		Legs:       legs,
		Overround:  overround,
		Margin:     decimal.NewFromInt(1).Sub(overround),
		DetectedAt: time.Now(),
	}
}

// MarginBPS returns the raw margin in basis points for logging.
func (o *ArbitrageOpportunity) MarginBPS() int {
	return int(o.Margin.Mul(decimal.NewFromInt(10000)).IntPart())
}

func (o *ArbitrageOpportunity) String() string {
	return fmt.Sprintf("Opportunity[%s] market=%s legs=%d overround=%s margin=%dbps",
		o.ID[:8], o.MarketID, len(o.Legs), o.Overround.StringFixed(4), o.MarginBPS())
}

// PlanLeg is one leg of a stake plan: an opportunity leg plus the stake
// committed to it.
type PlanLeg struct {
	OpportunityLeg
	Stake  decimal.Decimal
	Payout decimal.Decimal // Stake * Odds, identical across legs by construction
}

// StakePlan assigns a stake to every leg of an opportunity such that
// the net payoff is the same whichever outcome wins.
type StakePlan struct {
	ID               string
	Opportunity      *ArbitrageOpportunity
	Legs             []PlanLeg
	TotalStake       decimal.Decimal
	GuaranteedProfit decimal.Decimal
	// Margin is the achievable profit margin after venue caps were
	// applied, which can be lower than the opportunity's raw margin.
	Margin    decimal.Decimal
	CreatedAt time.Time
}

// NewStakePlan builds a plan for the given opportunity and legs.
func NewStakePlan(opp *ArbitrageOpportunity, legs []PlanLeg) *StakePlan {
	total := decimal.Zero
	for _, leg := range legs {
		total = total.Add(leg.Stake)
	}

	// Worst-case payout across outcomes is the guaranteed return.
	minPayout := legs[0].Payout
	for _, leg := range legs[1:] {
		if leg.Payout.LessThan(minPayout) {
			minPayout = leg.Payout
		}
	}
	profit := minPayout.Sub(total)

	margin := decimal.Zero
	if total.IsPositive() {
		margin = profit.Div(total)
	}

	return &StakePlan{
		ID:               uuid.New().String(),
		Opportunity:      opp,
		Legs:             legs,
		TotalStake:       total,
		GuaranteedProfit: profit,
		Margin:           margin,
		CreatedAt:        time.Now(),
	}
}
