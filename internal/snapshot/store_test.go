package snapshot

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/alex77palex/arbitrage-bot/pkg/types"
)

func newTestStore(maxAge time.Duration) *Store {
	return New(Config{
		MaxQuoteAge: maxAge,
		Logger:      zap.NewNop(),
	})
}

func quoteAt(venue, market, outcome string, odds string, ts time.Time) types.OddsQuote {
	return types.OddsQuote{
		Venue:     venue,
		MarketID:  market,
		Outcome:   outcome,
		Odds:      decimal.RequireFromString(odds),
		Timestamp: ts,
	}
}

func TestUpsertStoresNewQuote(t *testing.T) {
	store := newTestStore(10 * time.Second)

	q := quoteAt("betfair", "m1", "home", "2.10", time.Now())
	if !store.Upsert(q) {
		t.Fatal("expected first upsert to be accepted")
	}

	quotes := store.Market("m1")
	if len(quotes) != 1 {
		t.Fatalf("expected 1 quote, got %d", len(quotes))
	}

	got, ok := quotes[q.Key()]
	if !ok {
		t.Fatal("quote not found under its key")
	}
	if !got.Odds.Equal(q.Odds) {
		t.Errorf("odds = %s, want %s", got.Odds, q.Odds)
	}
}

func TestUpsertSupersedesByTimestamp(t *testing.T) {
	base := time.Now()

	tests := []struct {
		name     string
		firstTS  time.Time
		secondTS time.Time
		accepted bool
	}{
		{"newer replaces", base, base.Add(time.Second), true},
		{"older dropped", base, base.Add(-time.Second), false},
		{"equal dropped", base, base, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(time.Hour)

			first := quoteAt("betfair", "m1", "home", "2.00", tt.firstTS)
			second := quoteAt("betfair", "m1", "home", "2.50", tt.secondTS)

			store.Upsert(first)
			accepted := store.Upsert(second)

			if accepted != tt.accepted {
				t.Fatalf("accepted = %v, want %v", accepted, tt.accepted)
			}

			got := store.Market("m1")[first.Key()]
			wantOdds := first.Odds
			if tt.accepted {
				wantOdds = second.Odds
			}
			if !got.Odds.Equal(wantOdds) {
				t.Errorf("stored odds = %s, want %s", got.Odds, wantOdds)
			}
		})
	}
}

func TestUpsertRejectsInvalidOdds(t *testing.T) {
	store := newTestStore(time.Hour)

	tests := []struct {
		name string
		odds string
	}{
		{"zero", "0"},
		{"negative", "-1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := quoteAt("betfair", "m1", "home", tt.odds, time.Now())
			if store.Upsert(q) {
				t.Error("expected invalid odds to be rejected")
			}
		})
	}

	if len(store.Market("m1")) != 0 {
		t.Error("expected no quotes stored")
	}
}

func TestVersionIncrementsPerSupersedingUpsert(t *testing.T) {
	store := newTestStore(time.Hour)
	base := time.Now()

	q := quoteAt("betfair", "m1", "home", "2.00", base)
	store.Upsert(q)

	v1, ok := store.Version(q.Key())
	if !ok || v1 != 1 {
		t.Fatalf("version after first upsert = %d (ok=%v), want 1", v1, ok)
	}

	// Dropped update must not bump the version.
	store.Upsert(quoteAt("betfair", "m1", "home", "2.10", base))
	v2, _ := store.Version(q.Key())
	if v2 != 1 {
		t.Fatalf("version after dropped upsert = %d, want 1", v2)
	}

	store.Upsert(quoteAt("betfair", "m1", "home", "2.10", base.Add(time.Second)))
	v3, _ := store.Version(q.Key())
	if v3 != 2 {
		t.Fatalf("version after superseding upsert = %d, want 2", v3)
	}
}

func TestMarketFiltersStaleQuotes(t *testing.T) {
	store := newTestStore(10 * time.Second)
	now := time.Now()
	store.now = func() time.Time { return now }

	fresh := quoteAt("betfair", "m1", "home", "2.00", now.Add(-time.Second))
	stale := quoteAt("pinnacle", "m1", "home", "2.10", now.Add(-time.Minute))
	store.Upsert(fresh)
	store.Upsert(stale)

	quotes := store.Market("m1")
	if len(quotes) != 1 {
		t.Fatalf("expected 1 fresh quote, got %d", len(quotes))
	}
	if _, ok := quotes[fresh.Key()]; !ok {
		t.Error("fresh quote missing from market view")
	}
}

func TestMarketUnknownReturnsNil(t *testing.T) {
	store := newTestStore(time.Hour)
	if quotes := store.Market("nope"); quotes != nil {
		t.Errorf("expected nil for unknown market, got %v", quotes)
	}
}

func TestFreshDetectsSupersededLeg(t *testing.T) {
	store := newTestStore(time.Hour)
	base := time.Now()

	home := quoteAt("betfair", "m1", "home", "2.10", base)
	away := quoteAt("pinnacle", "m1", "away", "2.05", base)
	store.Upsert(home)
	store.Upsert(away)

	vHome, _ := store.Version(home.Key())
	vAway, _ := store.Version(away.Key())

	opp := types.NewOpportunity("e1", "m1", []types.OpportunityLeg{
		{Venue: "betfair", Outcome: "home", Quote: home, QuoteVersion: vHome},
		{Venue: "pinnacle", Outcome: "away", Quote: away, QuoteVersion: vAway},
	})

	if !store.Fresh(opp) {
		t.Fatal("opportunity should be fresh before any update")
	}

	// Superseding one leg's quote invalidates the whole opportunity.
	store.Upsert(quoteAt("betfair", "m1", "home", "1.95", base.Add(time.Second)))

	if store.Fresh(opp) {
		t.Fatal("opportunity should be stale after a leg was superseded")
	}
}
