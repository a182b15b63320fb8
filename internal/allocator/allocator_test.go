package allocator

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/alex77palex/arbitrage-bot/pkg/cache"
	"github.com/alex77palex/arbitrage-bot/pkg/types"
)

func newTestAllocator(t *testing.T, minMargin, maxTotal, maxPerLeg string) (*Allocator, *cache.LimitCache) {
	t.Helper()

	limits, err := cache.NewLimitCache(cache.LimitCacheConfig{
		NumCounters: 1000,
		MaxItems:    100,
		TTL:         time.Minute,
		Logger:      zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("create limit cache: %v", err)
	}
	t.Cleanup(limits.Close)

	a := New(Config{
		MinProfitMargin: decimal.RequireFromString(minMargin),
		MaxTotalStake:   decimal.RequireFromString(maxTotal),
		MaxPerLegStake:  decimal.RequireFromString(maxPerLeg),
		Logger:          zap.NewNop(),
	}, limits)

	return a, limits
}

func twoLegOpportunity(homeOdds, awayOdds string, homeLimit, awayLimit string) *types.ArbitrageOpportunity {
	home := types.OddsQuote{
		Venue:     "betfair",
		MarketID:  "m1",
		Outcome:   "home",
		Odds:      decimal.RequireFromString(homeOdds),
		Timestamp: time.Now(),
	}
	if homeLimit != "" {
		home.MaxStake = decimal.RequireFromString(homeLimit)
	}
	away := types.OddsQuote{
		Venue:     "pinnacle",
		MarketID:  "m1",
		Outcome:   "away",
		Odds:      decimal.RequireFromString(awayOdds),
		Timestamp: time.Now(),
	}
	if awayLimit != "" {
		away.MaxStake = decimal.RequireFromString(awayLimit)
	}

	return types.NewOpportunity("e1", "m1", []types.OpportunityLeg{
		{Venue: "betfair", Outcome: "home", Quote: home, QuoteVersion: 1},
		{Venue: "pinnacle", Outcome: "away", Quote: away, QuoteVersion: 1},
	})
}

func TestBuildEqualizesPayouts(t *testing.T) {
	a, _ := newTestAllocator(t, "0.01", "1000", "750")
	opp := twoLegOpportunity("2.10", "2.05", "", "")

	plan, err := a.Build(opp)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	// Stakes proportional to implied probability at the full bankroll.
	wantHome := decimal.RequireFromString("493.97")
	wantAway := decimal.RequireFromString("506.02")
	if !plan.Legs[0].Stake.Equal(wantHome) {
		t.Errorf("home stake = %s, want %s", plan.Legs[0].Stake, wantHome)
	}
	if !plan.Legs[1].Stake.Equal(wantAway) {
		t.Errorf("away stake = %s, want %s", plan.Legs[1].Stake, wantAway)
	}

	// Payouts must agree to within the rounding granularity of 0.01
	// stake on the larger odds.
	diff := plan.Legs[0].Payout.Sub(plan.Legs[1].Payout).Abs()
	if diff.GreaterThan(decimal.RequireFromString("0.05")) {
		t.Errorf("payout spread = %s, want near zero", diff)
	}

	// Guaranteed profit is worst-case payout minus the full outlay.
	minPayout := plan.Legs[0].Payout
	if plan.Legs[1].Payout.LessThan(minPayout) {
		minPayout = plan.Legs[1].Payout
	}
	if !plan.GuaranteedProfit.Equal(minPayout.Sub(plan.TotalStake)) {
		t.Errorf("profit = %s, want %s", plan.GuaranteedProfit, minPayout.Sub(plan.TotalStake))
	}
	if !plan.GuaranteedProfit.IsPositive() {
		t.Errorf("profit = %s, want positive", plan.GuaranteedProfit)
	}
	if plan.Margin.LessThan(decimal.RequireFromString("0.01")) {
		t.Errorf("margin = %s, want >= 0.01", plan.Margin)
	}
}

func TestBuildRespectsVenueLimit(t *testing.T) {
	a, _ := newTestAllocator(t, "0.01", "1000", "750")
	opp := twoLegOpportunity("2.10", "2.05", "100", "")

	plan, err := a.Build(opp)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	limit := decimal.NewFromInt(100)
	if plan.Legs[0].Stake.GreaterThan(limit) {
		t.Errorf("home stake = %s, exceeds venue limit %s", plan.Legs[0].Stake, limit)
	}
	// The whole plan scales down with the binding leg, proportions kept.
	if plan.TotalStake.GreaterThan(decimal.RequireFromString("210")) {
		t.Errorf("total stake = %s, expected the venue cap to bind", plan.TotalStake)
	}
	if !plan.GuaranteedProfit.IsPositive() {
		t.Errorf("profit = %s, want positive after capping", plan.GuaranteedProfit)
	}
}

func TestBuildRespectsPerLegCeiling(t *testing.T) {
	a, _ := newTestAllocator(t, "0.01", "1000", "200")
	opp := twoLegOpportunity("2.10", "2.05", "", "")

	plan, err := a.Build(opp)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	ceiling := decimal.NewFromInt(200)
	for i, leg := range plan.Legs {
		if leg.Stake.GreaterThan(ceiling) {
			t.Errorf("leg %d stake = %s, exceeds per-leg ceiling", i, leg.Stake)
		}
	}
}

func TestBuildUsesCachedLimitWhenQuoteHasNone(t *testing.T) {
	a, limits := newTestAllocator(t, "0.01", "1000", "750")
	limits.SetLimit("betfair", "m1", "home", decimal.NewFromInt(50))
	limits.Wait()

	opp := twoLegOpportunity("2.10", "2.05", "", "")

	plan, err := a.Build(opp)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if plan.Legs[0].Stake.GreaterThan(decimal.NewFromInt(50)) {
		t.Errorf("home stake = %s, exceeds cached limit 50", plan.Legs[0].Stake)
	}
}

func TestBuildRejectsMarginBelowMinimum(t *testing.T) {
	// A 3.6% book cannot satisfy a 5% minimum margin.
	a, _ := newTestAllocator(t, "0.05", "1000", "750")
	opp := twoLegOpportunity("2.10", "2.05", "", "")

	_, err := a.Build(opp)
	if err == nil {
		t.Fatal("expected rejection")
	}

	var rejected *types.AllocationRejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("error type = %T, want *AllocationRejectedError", err)
	}
	if rejected.MarketID != "m1" {
		t.Errorf("market = %s, want m1", rejected.MarketID)
	}
}

func TestBuildThreeOutcomeMarket(t *testing.T) {
	a, _ := newTestAllocator(t, "0.01", "1000", "750")

	legs := make([]types.OpportunityLeg, 0, 3)
	for _, l := range []struct {
		venue, outcome, odds string
	}{
		{"betfair", "home", "3.40"},
		{"pinnacle", "draw", "3.60"},
		{"bet365", "away", "3.50"},
	} {
		q := types.OddsQuote{
			Venue:     l.venue,
			MarketID:  "m2",
			Outcome:   l.outcome,
			Odds:      decimal.RequireFromString(l.odds),
			Timestamp: time.Now(),
		}
		legs = append(legs, types.OpportunityLeg{Venue: l.venue, Outcome: l.outcome, Quote: q, QuoteVersion: 1})
	}
	opp := types.NewOpportunity("e2", "m2", legs)

	plan, err := a.Build(opp)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if len(plan.Legs) != 3 {
		t.Fatalf("legs = %d, want 3", len(plan.Legs))
	}

	// All three payouts within rounding distance of each other.
	for i := 1; i < 3; i++ {
		diff := plan.Legs[i].Payout.Sub(plan.Legs[0].Payout).Abs()
		if diff.GreaterThan(decimal.RequireFromString("0.05")) {
			t.Errorf("payout %d diverges by %s", i, diff)
		}
	}
	if !plan.GuaranteedProfit.IsPositive() {
		t.Errorf("profit = %s, want positive", plan.GuaranteedProfit)
	}
}
