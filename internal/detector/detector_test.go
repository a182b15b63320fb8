package detector

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/alex77palex/arbitrage-bot/internal/feed"
	"github.com/alex77palex/arbitrage-bot/internal/snapshot"
	"github.com/alex77palex/arbitrage-bot/pkg/types"
)

var venueOrder = []string{"pinnacle", "betfair", "bet365"}

func rankOf(venue string) int {
	for i, v := range venueOrder {
		if v == venue {
			return i
		}
	}
	return len(venueOrder)
}

func newTestDetector(t *testing.T) (*Detector, *snapshot.Store, *feed.Registry) {
	t.Helper()

	store := snapshot.New(snapshot.Config{
		MaxQuoteAge: time.Hour,
		Logger:      zap.NewNop(),
	})
	registry := feed.NewRegistry()
	registry.AddEvent(types.Event{ID: "e1", Sport: "tennis", Name: "Final", Status: types.EventScheduled})
	registry.AddMarket(types.Market{
		ID:       "m1",
		EventID:  "e1",
		Kind:     "match_winner",
		Outcomes: []string{"home", "away"},
	})

	d := New(Config{
		MinProfitMargin: decimal.RequireFromString("0.01"),
		VenueRank:       rankOf,
		Logger:          zap.NewNop(),
	}, store, registry, nil)

	return d, store, registry
}

func publish(store *snapshot.Store, venue, outcome, odds string, ts time.Time) {
	store.Upsert(types.OddsQuote{
		Venue:     venue,
		MarketID:  "m1",
		Outcome:   outcome,
		Odds:      decimal.RequireFromString(odds),
		Timestamp: ts,
	})
}

func TestEvaluateDetectsTwoLegArbitrage(t *testing.T) {
	d, store, _ := newTestDetector(t)
	now := time.Now()

	// 1/2.10 + 1/2.05 = 0.9640, comfortably under 0.99.
	publish(store, "betfair", "home", "2.10", now)
	publish(store, "pinnacle", "away", "2.05", now)

	opp, found := d.Evaluate("m1")
	if !found {
		t.Fatal("expected an opportunity")
	}

	if len(opp.Legs) != 2 {
		t.Fatalf("legs = %d, want 2", len(opp.Legs))
	}
	if opp.Legs[0].Venue != "betfair" || opp.Legs[0].Outcome != "home" {
		t.Errorf("leg 0 = %s/%s, want betfair/home", opp.Legs[0].Venue, opp.Legs[0].Outcome)
	}
	if opp.Legs[1].Venue != "pinnacle" || opp.Legs[1].Outcome != "away" {
		t.Errorf("leg 1 = %s/%s, want pinnacle/away", opp.Legs[1].Venue, opp.Legs[1].Outcome)
	}

	one := decimal.NewFromInt(1)
	if !opp.Overround.LessThan(one) {
		t.Errorf("overround = %s, want < 1", opp.Overround)
	}
	if !opp.Margin.Equal(one.Sub(opp.Overround)) {
		t.Errorf("margin = %s, want 1 - overround", opp.Margin)
	}
}

func TestEvaluatePicksBestOddsPerOutcome(t *testing.T) {
	d, store, _ := newTestDetector(t)
	now := time.Now()

	publish(store, "betfair", "home", "2.10", now)
	publish(store, "bet365", "home", "2.20", now) // best
	publish(store, "pinnacle", "away", "2.05", now)

	opp, found := d.Evaluate("m1")
	if !found {
		t.Fatal("expected an opportunity")
	}
	if opp.Legs[0].Venue != "bet365" {
		t.Errorf("home venue = %s, want bet365", opp.Legs[0].Venue)
	}
	if !opp.Legs[0].Quote.Odds.Equal(decimal.RequireFromString("2.20")) {
		t.Errorf("home odds = %s, want 2.20", opp.Legs[0].Quote.Odds)
	}
}

func TestEvaluateNoOpportunityAboveThreshold(t *testing.T) {
	d, store, _ := newTestDetector(t)
	now := time.Now()

	// 1/1.95 + 1/1.95 = 1.0256: a normal book with margin.
	publish(store, "betfair", "home", "1.95", now)
	publish(store, "pinnacle", "away", "1.95", now)

	if _, found := d.Evaluate("m1"); found {
		t.Fatal("expected no opportunity for an over-unity book")
	}
}

func TestEvaluateMarginMustExceedMinimum(t *testing.T) {
	d, store, _ := newTestDetector(t)
	now := time.Now()

	// 1/2.02 + 1/2.02 = 0.99010: under unity but inside the 1% edge.
	publish(store, "betfair", "home", "2.02", now)
	publish(store, "pinnacle", "away", "2.02", now)

	if _, found := d.Evaluate("m1"); found {
		t.Fatal("expected sub-threshold book to be rejected")
	}
}

func TestEvaluateMissingOutcomeIsSilent(t *testing.T) {
	d, store, _ := newTestDetector(t)

	publish(store, "betfair", "home", "2.10", time.Now())
	// No quote for "away" from any venue.

	if _, found := d.Evaluate("m1"); found {
		t.Fatal("expected no opportunity when an outcome has no quote")
	}
}

func TestEvaluateUnknownMarket(t *testing.T) {
	d, _, _ := newTestDetector(t)
	if _, found := d.Evaluate("nope"); found {
		t.Fatal("expected no opportunity for an unknown market")
	}
}

func TestEvaluateIdempotentForFixedSnapshot(t *testing.T) {
	d, store, _ := newTestDetector(t)
	now := time.Now()

	publish(store, "betfair", "home", "2.10", now)
	publish(store, "pinnacle", "away", "2.05", now)

	first, ok1 := d.Evaluate("m1")
	second, ok2 := d.Evaluate("m1")
	if !ok1 || !ok2 {
		t.Fatal("expected both evaluations to find the opportunity")
	}

	if !first.Overround.Equal(second.Overround) {
		t.Errorf("overround differs: %s vs %s", first.Overround, second.Overround)
	}
	for i := range first.Legs {
		if first.Legs[i].Venue != second.Legs[i].Venue ||
			first.Legs[i].QuoteVersion != second.Legs[i].QuoteVersion {
			t.Errorf("leg %d differs between evaluations", i)
		}
	}
}

func TestBestQuoteTieBreaks(t *testing.T) {
	tests := []struct {
		name   string
		quotes []types.OddsQuote
		want   string // winning venue
	}{
		{
			name: "higher odds wins",
			quotes: []types.OddsQuote{
				{Venue: "bet365", Odds: decimal.RequireFromString("2.10")},
				{Venue: "pinnacle", Odds: decimal.RequireFromString("2.00")},
			},
			want: "bet365",
		},
		{
			name: "equal odds goes to more reliable venue",
			quotes: []types.OddsQuote{
				{Venue: "bet365", Odds: decimal.RequireFromString("2.10")},
				{Venue: "pinnacle", Odds: decimal.RequireFromString("2.10")},
			},
			want: "pinnacle",
		},
		{
			name: "unranked venues fall back to larger limit",
			quotes: []types.OddsQuote{
				{Venue: "zeta", Odds: decimal.RequireFromString("2.10"), MaxStake: decimal.NewFromInt(100)},
				{Venue: "alpha", Odds: decimal.RequireFromString("2.10"), MaxStake: decimal.NewFromInt(500)},
			},
			want: "alpha",
		},
		{
			name: "final tie-break is lexicographic",
			quotes: []types.OddsQuote{
				{Venue: "zeta", Odds: decimal.RequireFromString("2.10")},
				{Venue: "alpha", Odds: decimal.RequireFromString("2.10")},
			},
			want: "alpha",
		},
	}

	d, _, _ := newTestDetector(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quotes := make(map[types.QuoteKey]types.OddsQuote, len(tt.quotes))
			for _, q := range tt.quotes {
				q.MarketID = "m1"
				q.Outcome = "home"
				quotes[q.Key()] = q
			}

			best, found := d.bestQuote(quotes, "home")
			if !found {
				t.Fatal("expected a best quote")
			}
			if best.Venue != tt.want {
				t.Errorf("best venue = %s, want %s", best.Venue, tt.want)
			}
		})
	}
}
