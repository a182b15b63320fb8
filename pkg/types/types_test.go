package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
)

func TestNewOpportunityComputesOverround(t *testing.T) {
	legs := []OpportunityLeg{
		{Venue: "betfair", Outcome: "home", Quote: OddsQuote{Odds: decimal.RequireFromString("2.10")}},
		{Venue: "pinnacle", Outcome: "away", Quote: OddsQuote{Odds: decimal.RequireFromString("2.05")}},
	}

	opp := NewOpportunity("e1", "m1", legs)

	want := decimal.NewFromInt(1).Div(decimal.RequireFromString("2.10")).
		Add(decimal.NewFromInt(1).Div(decimal.RequireFromString("2.05")))
	if !opp.Overround.Equal(want) {
		t.Errorf("overround = %s, want %s", opp.Overround, want)
	}
	if !opp.Margin.Equal(decimal.NewFromInt(1).Sub(want)) {
		t.Errorf("margin = %s", opp.Margin)
	}
	if opp.MarginBPS() < 350 || opp.MarginBPS() > 370 {
		t.Errorf("margin bps = %d, want ~360", opp.MarginBPS())
	}
}

func TestNewStakePlanWorstCaseProfit(t *testing.T) {
	opp := NewOpportunity("e1", "m1", []OpportunityLeg{
		{Outcome: "home", Quote: OddsQuote{Odds: decimal.RequireFromString("2.10")}},
		{Outcome: "away", Quote: OddsQuote{Odds: decimal.RequireFromString("2.05")}},
	})

	legs := []PlanLeg{
		{
			OpportunityLeg: opp.Legs[0],
			Stake:          decimal.RequireFromString("493.97"),
			Payout:         decimal.RequireFromString("493.97").Mul(decimal.RequireFromString("2.10")),
		},
		{
			OpportunityLeg: opp.Legs[1],
			Stake:          decimal.RequireFromString("506.02"),
			Payout:         decimal.RequireFromString("506.02").Mul(decimal.RequireFromString("2.05")),
		},
	}

	plan := NewStakePlan(opp, legs)

	if !plan.TotalStake.Equal(decimal.RequireFromString("999.99")) {
		t.Errorf("total = %s, want 999.99", plan.TotalStake)
	}

	minPayout := legs[0].Payout
	if legs[1].Payout.LessThan(minPayout) {
		minPayout = legs[1].Payout
	}
	if !plan.GuaranteedProfit.Equal(minPayout.Sub(plan.TotalStake)) {
		t.Errorf("profit = %s", plan.GuaranteedProfit)
	}
	if !plan.Margin.Equal(plan.GuaranteedProfit.Div(plan.TotalStake)) {
		t.Errorf("margin = %s", plan.Margin)
	}
}

func TestAttemptStateClassification(t *testing.T) {
	tests := []struct {
		state    AttemptState
		terminal bool
		failed   bool
	}{
		{AttemptPending, false, false},
		{AttemptConfirmed, true, false},
		{AttemptRejected, true, true},
		{AttemptTimedOut, true, true},
	}

	for _, tt := range tests {
		if got := tt.state.Terminal(); got != tt.terminal {
			t.Errorf("%s.Terminal() = %v, want %v", tt.state, got, tt.terminal)
		}
		if got := tt.state.Failed(); got != tt.failed {
			t.Errorf("%s.Failed() = %v, want %v", tt.state, got, tt.failed)
		}
	}
}

func TestLegErrorCode(t *testing.T) {
	legErr := &LegError{Venue: "betfair", Outcome: "home", Code: ErrRejectedLimit}

	if got := LegErrorCode(legErr); got != ErrRejectedLimit {
		t.Errorf("code = %s, want %s", got, ErrRejectedLimit)
	}

	wrapped := fmt.Errorf("placing leg: %w", legErr)
	if got := LegErrorCode(wrapped); got != ErrRejectedLimit {
		t.Errorf("wrapped code = %s, want %s", got, ErrRejectedLimit)
	}

	if got := LegErrorCode(errors.New("boom")); got != ErrRejectedOther {
		t.Errorf("unclassified code = %s, want %s", got, ErrRejectedOther)
	}
}
