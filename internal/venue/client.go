// Package venue defines the contract the core needs from per-bookmaker
// clients, plus a websocket-backed implementation and a paper venue.
// Authentication, request translation and rate limiting live outside
// the core; only this contract crosses the boundary.
package venue

import (
	"context"

	"github.com/alex77palex/arbitrage-bot/pkg/types"
	"github.com/shopspring/decimal"
)

// PlaceBetRequest asks a venue to place one leg at the expected odds.
type PlaceBetRequest struct {
	MarketID     string
	Outcome      string
	Stake        decimal.Decimal
	ExpectedOdds decimal.Decimal
}

// PlaceBetResult is a venue's acceptance of a bet. RealizedStake can be
// lower than the requested stake on a partial fill.
type PlaceBetResult struct {
	BetID         string
	RealizedStake decimal.Decimal
	Odds          decimal.Decimal
}

// Client is the per-bookmaker collaborator contract.
//
// StreamOdds returns an infinite stream of quote updates for the given
// markets; the client restarts it on disconnect, the core does not.
// PlaceBet fails fast with a *types.LegError carrying a classified code
// (rejected_price_changed, rejected_limit, rejected_other,
// network_error) rather than blocking indefinitely.
type Client interface {
	Name() string
	StreamOdds(ctx context.Context, marketIDs []string) (<-chan types.OddsQuote, error)
	PlaceBet(ctx context.Context, req PlaceBetRequest) (PlaceBetResult, error)
}
