package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuoteKey identifies the single slot a quote occupies in the snapshot
// store: one per (venue, market, outcome).
type QuoteKey struct {
	Venue    string
	MarketID string
	Outcome  string
}

// OddsQuote is one venue's current decimal odds for one outcome.
// Quotes are superseded, never mutated: a newer quote for the same key
// replaces the old one wholesale.
type OddsQuote struct {
	Venue    string          `json:"venue"`
	MarketID string          `json:"market_id"`
	Outcome  string          `json:"outcome"`
	Odds     decimal.Decimal `json:"odds"`
	// MaxStake is the venue-imposed stake limit for this quote.
	// Zero means the venue did not report one.
	MaxStake  decimal.Decimal `json:"max_stake"`
	Timestamp time.Time       `json:"timestamp"`
}

// Key returns the snapshot-store key for this quote.
func (q OddsQuote) Key() QuoteKey {
	return QuoteKey{Venue: q.Venue, MarketID: q.MarketID, Outcome: q.Outcome}
}

// ImpliedProbability returns 1/odds. Odds must be positive.
func (q OddsQuote) ImpliedProbability() decimal.Decimal {
	return decimal.NewFromInt(1).Div(q.Odds)
}
