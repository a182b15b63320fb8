package riskguard

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/alex77palex/arbitrage-bot/pkg/types"
)

func newTestGuard(ceiling string, threshold int, cooldown time.Duration) *Guard {
	return New(Config{
		ExposureCeiling:   decimal.RequireFromString(ceiling),
		CooldownThreshold: threshold,
		CooldownDuration:  cooldown,
		Logger:            zap.NewNop(),
	})
}

func planOf(total string) *types.StakePlan {
	return &types.StakePlan{
		ID:          "plan-1",
		Opportunity: &types.ArbitrageOpportunity{EventID: "e1", MarketID: "m1"},
		TotalStake:  decimal.RequireFromString(total),
	}
}

func recordOf(outcome types.ExecutionOutcome, realized string) *types.ExecutionRecord {
	return &types.ExecutionRecord{
		EventID:       "e1",
		Outcome:       outcome,
		RealizedStake: decimal.RequireFromString(realized),
	}
}

func TestAllowUnderCeiling(t *testing.T) {
	g := newTestGuard("5000", 3, time.Minute)

	if err := g.Allow(planOf("1000")); err != nil {
		t.Fatalf("expected plan to be allowed, got %v", err)
	}
}

func TestAllowBlocksAboveCeiling(t *testing.T) {
	g := newTestGuard("5000", 3, time.Minute)

	g.Enter(planOf("4500"))

	err := g.Allow(planOf("1000"))
	if err == nil {
		t.Fatal("expected exposure block")
	}

	var blocked *types.RiskBlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("error type = %T, want *RiskBlockedError", err)
	}
	if blocked.Reason != "exposure_ceiling" {
		t.Errorf("reason = %s, want exposure_ceiling", blocked.Reason)
	}
}

func TestSettleReplacesPlannedWithRealized(t *testing.T) {
	g := newTestGuard("5000", 3, time.Minute)

	plan := planOf("1000")
	g.Enter(plan)

	if got := g.OpenExposureValue(); !got.Equal(decimal.RequireFromString("1000")) {
		t.Fatalf("exposure after enter = %s, want 1000", got)
	}

	// Only 400 reached a venue.
	g.Settle(plan, recordOf(types.OutcomePartialSuccess, "400"))

	if got := g.OpenExposureValue(); !got.Equal(decimal.RequireFromString("400")) {
		t.Fatalf("exposure after settle = %s, want 400", got)
	}
}

func TestReleaseEventFreesSettledExposure(t *testing.T) {
	g := newTestGuard("5000", 3, time.Minute)

	plan := planOf("1000")
	g.Enter(plan)
	g.Settle(plan, recordOf(types.OutcomeFullSuccess, "1000"))

	freed := g.ReleaseEvent("e1")
	if !freed.Equal(decimal.RequireFromString("1000")) {
		t.Fatalf("freed = %s, want 1000", freed)
	}
	if got := g.OpenExposureValue(); !got.IsZero() {
		t.Fatalf("exposure after release = %s, want 0", got)
	}

	// Releasing again, or an unknown event, frees nothing.
	if freed := g.ReleaseEvent("e1"); !freed.IsZero() {
		t.Fatalf("second release freed %s, want 0", freed)
	}
	if freed := g.ReleaseEvent("nope"); !freed.IsZero() {
		t.Fatalf("unknown event freed %s, want 0", freed)
	}
}

func TestReleaseEventOnlyFreesThatEvent(t *testing.T) {
	g := newTestGuard("5000", 3, time.Minute)

	p1 := planOf("1000")
	g.Enter(p1)
	g.Settle(p1, recordOf(types.OutcomeFullSuccess, "1000"))

	p2 := &types.StakePlan{
		ID:          "plan-2",
		Opportunity: &types.ArbitrageOpportunity{EventID: "e2", MarketID: "m2"},
		TotalStake:  decimal.RequireFromString("600"),
	}
	g.Enter(p2)
	g.Settle(p2, &types.ExecutionRecord{
		EventID:       "e2",
		Outcome:       types.OutcomeFullSuccess,
		RealizedStake: decimal.RequireFromString("600"),
	})

	g.ReleaseEvent("e1")

	if got := g.OpenExposureValue(); !got.Equal(decimal.RequireFromString("600")) {
		t.Fatalf("exposure = %s, want the other event's 600 still open", got)
	}
}

func TestCooldownEngagesAfterFailureRun(t *testing.T) {
	g := newTestGuard("100000", 3, 2*time.Minute)

	now := time.Now()
	g.now = func() time.Time { return now }

	// Three bad outcomes inside the window trip the cool-down.
	for i := 0; i < 3; i++ {
		plan := planOf("100")
		g.Enter(plan)
		g.Settle(plan, recordOf(types.OutcomeFullFailure, "0"))
	}

	err := g.Allow(planOf("100"))
	if err == nil {
		t.Fatal("expected cooldown block")
	}
	var blocked *types.RiskBlockedError
	if !errors.As(err, &blocked) || blocked.Reason != "cooldown" {
		t.Fatalf("err = %v, want cooldown block", err)
	}

	// After the cool-down elapses new plans pass again.
	now = now.Add(2*time.Minute + time.Second)
	if err := g.Allow(planOf("100")); err != nil {
		t.Fatalf("expected plan to pass after cooldown, got %v", err)
	}
}

func TestFullSuccessDoesNotCountTowardCooldown(t *testing.T) {
	g := newTestGuard("100000", 2, time.Minute)

	for i := 0; i < 5; i++ {
		plan := planOf("100")
		g.Enter(plan)
		g.Settle(plan, recordOf(types.OutcomeFullSuccess, "100"))
	}

	if err := g.Allow(planOf("100")); err != nil {
		t.Fatalf("expected successes not to trip the cooldown, got %v", err)
	}
}

func TestStaleFailuresAgeOutOfWindow(t *testing.T) {
	g := newTestGuard("100000", 3, time.Minute)

	now := time.Now()
	g.now = func() time.Time { return now }

	fail := func() {
		plan := planOf("100")
		g.Enter(plan)
		g.Settle(plan, recordOf(types.OutcomePartialSuccess, "50"))
	}

	fail()
	fail()

	// The first two failures fall out of the rolling window before the
	// third arrives.
	now = now.Add(2 * time.Minute)
	fail()

	if err := g.Allow(planOf("100")); err != nil {
		t.Fatalf("expected no cooldown after failures aged out, got %v", err)
	}
}
