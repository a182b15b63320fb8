package types

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Classified venue placement error codes. Venue clients must fail fast
// with one of these rather than blocking indefinitely.
const (
	ErrRejectedPriceChanged = "rejected_price_changed"
	ErrRejectedLimit        = "rejected_limit"
	ErrRejectedOther        = "rejected_other"
	ErrNetworkError         = "network_error"
)

// DataError signals stale or missing quote data for a market. Non-fatal:
// the detection cycle for that market is skipped.
type DataError struct {
	MarketID string
	Reason   string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("market %s: %s", e.MarketID, e.Reason)
}

// AllocationRejectedError means no stake plan could be produced because
// the achievable margin after capping fell below the configured minimum.
type AllocationRejectedError struct {
	MarketID  string
	Margin    decimal.Decimal
	MinMargin decimal.Decimal
}

func (e *AllocationRejectedError) Error() string {
	return fmt.Sprintf("allocation rejected for market %s: margin %s below minimum %s",
		e.MarketID, e.Margin.StringFixed(4), e.MinMargin.StringFixed(4))
}

// RiskBlockedError means the risk guard refused a plan before any leg
// was submitted.
type RiskBlockedError struct {
	Reason string // "exposure_ceiling" or "cooldown"
}

func (e *RiskBlockedError) Error() string {
	return fmt.Sprintf("risk blocked: %s", e.Reason)
}

// LegError is a classified per-leg placement failure.
type LegError struct {
	Venue   string
	Outcome string
	Code    string // one of the classified codes above
	Message string
}

func (e *LegError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s/%s leg failed: %s (%s)", e.Venue, e.Outcome, e.Message, e.Code)
	}
	return fmt.Sprintf("%s/%s leg failed (%s)", e.Venue, e.Outcome, e.Code)
}

// LegErrorCode extracts the classified code from an error chain,
// defaulting to rejected_other.
func LegErrorCode(err error) string {
	var legErr *LegError
	if errors.As(err, &legErr) {
		return legErr.Code
	}
	return ErrRejectedOther
}

// RecoveryUnavailableError means a compensating order could not be
// placed after a partial execution; the position carries directional
// exposure. Highest severity short of a crash.
type RecoveryUnavailableError struct {
	MarketID string
	Outcome  string
	Reason   string
}

func (e *RecoveryUnavailableError) Error() string {
	return fmt.Sprintf("no compensating order for %s outcome %s: %s", e.MarketID, e.Outcome, e.Reason)
}
