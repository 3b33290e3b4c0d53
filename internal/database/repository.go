package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gagordon1/mm/internal/model"
)

// Repository defines the standard interface for persisting backtest output.
type Repository interface {
	SaveTrade(ctx context.Context, runID string, trade model.Trade) error
	SaveRun(ctx context.Context, summary model.RunSummary) error
}

// PostgresRepository implements Repository on a pgx connection pool.
type PostgresRepository struct {
	Pool *pgxpool.Pool
}

// Connect opens a pool against url and returns a repository over it.
func Connect(ctx context.Context, url string) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("database: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database: ping: %w", err)
	}
	return &PostgresRepository{Pool: pool}, nil
}

// Migrate creates the backtest tables if they do not exist.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	_, err := r.Pool.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS backtest_trades (
		id SERIAL PRIMARY KEY,
		run_id UUID NOT NULL,
		ts_ns BIGINT NOT NULL,
		pair VARCHAR(20) NOT NULL,
		buy_venue VARCHAR(50) NOT NULL,
		sell_venue VARCHAR(50) NOT NULL,
		buy_price NUMERIC(20, 8) NOT NULL,
		sell_price NUMERIC(20, 8) NOT NULL,
		size NUMERIC(20, 8) NOT NULL,
		buy_fee NUMERIC(20, 8) NOT NULL,
		sell_fee NUMERIC(20, 8) NOT NULL,
		pnl NUMERIC(20, 8) NOT NULL
	);
	CREATE TABLE IF NOT EXISTS backtest_runs (
		run_id UUID PRIMARY KEY,
		pair VARCHAR(20) NOT NULL,
		events BIGINT NOT NULL,
		trade_count BIGINT NOT NULL,
		total_pnl NUMERIC(20, 8) NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`)
	if err != nil {
		return fmt.Errorf("database: migrate: %w", err)
	}
	return nil
}

// SaveTrade inserts one executed trade keyed by its run.
func (r *PostgresRepository) SaveTrade(ctx context.Context, runID string, t model.Trade) error {
	_, err := r.Pool.Exec(ctx, `
	INSERT INTO backtest_trades
		(run_id, ts_ns, pair, buy_venue, sell_venue, buy_price, sell_price, size, buy_fee, sell_fee, pnl)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		runID, t.TsNs, t.Pair, t.BuyVenue, t.SellVenue, t.BuyPrice, t.SellPrice, t.Size, t.BuyFee, t.SellFee, t.PnL)
	if err != nil {
		return fmt.Errorf("database: save trade: %w", err)
	}
	return nil
}

// SaveRun inserts the summary row of a finished run.
func (r *PostgresRepository) SaveRun(ctx context.Context, s model.RunSummary) error {
	_, err := r.Pool.Exec(ctx, `
	INSERT INTO backtest_runs (run_id, pair, events, trade_count, total_pnl)
	VALUES ($1, $2, $3, $4, $5)`,
		s.RunID, s.Pair, s.Events, s.TradeCount, s.TotalPnL)
	if err != nil {
		return fmt.Errorf("database: save run: %w", err)
	}
	return nil
}

// TradeObserver adapts a Repository into a per-trade observer. Insert failures
// are logged, never fatal: persistence is a sink, not part of the simulation.
type TradeObserver struct {
	ctx    context.Context
	repo   Repository
	runID  string
	logger *slog.Logger
}

// NewTradeObserver creates an observer persisting trades under runID.
func NewTradeObserver(ctx context.Context, repo Repository, runID string, logger *slog.Logger) *TradeObserver {
	return &TradeObserver{
		ctx:    ctx,
		repo:   repo,
		runID:  runID,
		logger: logger.With(slog.String("component", "database")),
	}
}

func (o *TradeObserver) OnTrade(t model.Trade) {
	if err := o.repo.SaveTrade(o.ctx, o.runID, t); err != nil {
		o.logger.Error("failed to persist trade", "error", err)
	}
}
