package storage

import (
	"context"

	"go.uber.org/zap"

	"github.com/alex77palex/arbitrage-bot/pkg/types"
)

// ConsoleStorage implements Storage by logging records. Used when no
// Postgres instance is configured.
type ConsoleStorage struct {
	logger *zap.Logger
}

// NewConsoleStorage creates a new console storage.
func NewConsoleStorage(logger *zap.Logger) *ConsoleStorage {
	logger.Info("console-storage-initialized")
	return &ConsoleStorage{
		logger: logger,
	}
}

// StoreOpportunity logs a detected opportunity.
func (c *ConsoleStorage) StoreOpportunity(_ context.Context, opp *types.ArbitrageOpportunity) error {
	fields := []zap.Field{
		zap.String("opportunity-id", opp.ID),
		zap.String("event-id", opp.EventID),
		zap.String("market-id", opp.MarketID),
		zap.String("overround", opp.Overround.StringFixed(4)),
		zap.Int("margin-bps", opp.MarginBPS()),
	}
	for _, leg := range opp.Legs {
		fields = append(fields, zap.String("leg-"+leg.Outcome,
			leg.Venue+"@"+leg.Quote.Odds.StringFixed(2)))
	}

	c.logger.Info("opportunity-record", fields...)
	return nil
}

// StoreExecution logs a settled execution record.
func (c *ConsoleStorage) StoreExecution(_ context.Context, record *types.ExecutionRecord) error {
	c.logger.Info("execution-record",
		zap.String("record-id", record.ID),
		zap.String("plan-id", record.PlanID),
		zap.String("market-id", record.MarketID),
		zap.String("outcome", string(record.Outcome)),
		zap.String("reason", record.Reason),
		zap.String("guaranteed-profit", record.GuaranteedProfit.StringFixed(2)),
		zap.String("realized-profit", record.RealizedProfit.StringFixed(2)),
		zap.Bool("exposed", record.Exposed),
		zap.Int("legs", len(record.Legs)))
	return nil
}

// Close is a no-op for console storage.
func (c *ConsoleStorage) Close() error {
	c.logger.Info("closing-console-storage")
	return nil
}
