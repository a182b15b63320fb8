package storage

import (
	"context"
	"database/sql"
	"fmt"

	json "github.com/goccy/go-json"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/alex77palex/arbitrage-bot/pkg/types"
)

// PostgresStorage implements Storage using PostgreSQL.
type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresStorage creates a new PostgreSQL storage.
func NewPostgresStorage(cfg *PostgresConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	cfg.Logger.Info("postgres-storage-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return &PostgresStorage{
		db:     db,
		logger: cfg.Logger,
	}, nil
}

// StoreOpportunity stores a detected opportunity with its legs as JSONB.
func (p *PostgresStorage) StoreOpportunity(ctx context.Context, opp *types.ArbitrageOpportunity) error {
	legs := make([]types.LegRecord, len(opp.Legs))
	for i, leg := range opp.Legs {
		legs[i] = types.LegRecord{
			Venue:   leg.Venue,
			Outcome: leg.Outcome,
			Odds:    leg.Quote.Odds,
		}
	}

	legsJSON, err := json.Marshal(legs)
	if err != nil {
		return fmt.Errorf("marshal legs: %w", err)
	}

	query := `
		INSERT INTO opportunities (
			id, event_id, market_id, detected_at, overround, margin, legs
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = p.db.ExecContext(ctx, query,
		opp.ID,
		opp.EventID,
		opp.MarketID,
		opp.DetectedAt,
		opp.Overround.String(),
		opp.Margin.String(),
		legsJSON,
	)
	if err != nil {
		return fmt.Errorf("insert opportunity: %w", err)
	}

	p.logger.Debug("opportunity-stored",
		zap.String("opportunity-id", opp.ID),
		zap.String("market-id", opp.MarketID))

	return nil
}

// StoreExecution stores a settled execution record with its legs as JSONB.
func (p *PostgresStorage) StoreExecution(ctx context.Context, record *types.ExecutionRecord) error {
	legsJSON, err := json.Marshal(record.Legs)
	if err != nil {
		return fmt.Errorf("marshal legs: %w", err)
	}

	query := `
		INSERT INTO executions (
			id, plan_id, event_id, market_id, outcome, reason,
			guaranteed_profit, realized_profit, total_stake, realized_stake,
			exposed, legs, started_at, settled_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err = p.db.ExecContext(ctx, query,
		record.ID,
		record.PlanID,
		record.EventID,
		record.MarketID,
		string(record.Outcome),
		record.Reason,
		record.GuaranteedProfit.String(),
		record.RealizedProfit.String(),
		record.TotalStake.String(),
		record.RealizedStake.String(),
		record.Exposed,
		legsJSON,
		record.StartedAt,
		record.SettledAt,
	)
	if err != nil {
		return fmt.Errorf("insert execution: %w", err)
	}

	p.logger.Debug("execution-stored",
		zap.String("record-id", record.ID),
		zap.String("outcome", string(record.Outcome)))

	return nil
}

// Ping checks the database connection, for readiness probes.
func (p *PostgresStorage) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close closes the database connection.
func (p *PostgresStorage) Close() error {
	p.logger.Info("closing-postgres-storage")
	return p.db.Close()
}
