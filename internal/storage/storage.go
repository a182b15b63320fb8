// Package storage is the audit sink for detected opportunities and
// settled execution records. The core hands records off here and owns
// no long-term storage itself.
package storage

import (
	"context"

	"github.com/alex77palex/arbitrage-bot/pkg/types"
)

// Storage is the persistence collaborator contract.
type Storage interface {
	// StoreOpportunity records a detected opportunity.
	StoreOpportunity(ctx context.Context, opp *types.ArbitrageOpportunity) error

	// StoreExecution records a settled execution.
	StoreExecution(ctx context.Context, record *types.ExecutionRecord) error

	// Close closes the storage connection.
	Close() error
}
