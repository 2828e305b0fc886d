package persistence

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CHANDUsaikumar/NLP-to-DSL-pipeline/pkg/types"
)

// Client provides database persistence operations for backtest results.
type Client struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ Persister = (*Client)(nil)

// NewClient creates a new database client with a connection pool.
func NewClient(ctx context.Context, connStr string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	logger.Info("Database connection pool established", "max_conns", config.MaxConns)
	return &Client{pool: pool, logger: logger}, nil
}

// Close shuts down the connection pool.
func (c *Client) Close() error {
	c.pool.Close()
	c.logger.Info("Database connection pool closed")
	return nil
}

// SaveRun inserts a run row into backtest_runs and returns its ID.
func (c *Client) SaveRun(ctx context.Context, run RunRecord) (int64, error) {
	var id int64
	err := c.pool.QueryRow(ctx,
		`INSERT INTO backtest_runs
			(run_id, symbol, timeframe, strategy_name, dsl,
			 period_start, period_end, bars,
			 initial_equity, final_equity,
			 total_return_pct, max_drawdown_pct, sharpe_ratio,
			 trade_count, open_at_end, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		 RETURNING id`,
		run.RunID, run.Symbol, run.Timeframe, run.StrategyName, run.DSL,
		run.PeriodStart, run.PeriodEnd, run.Bars,
		run.InitialEquity, run.FinalEquity,
		run.TotalReturnPct, run.MaxDrawdownPct, run.SharpeRatio,
		run.TradeCount, run.OpenAtEnd, run.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}

	c.logger.Info("Saved run", "run_id", run.RunID, "db_id", id)
	return id, nil
}

// SaveTrades bulk-inserts trade rows into backtest_trades.
func (c *Client) SaveTrades(ctx context.Context, trades []TradeRecord) (int, error) {
	if len(trades) == 0 {
		return 0, nil
	}

	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// Use COPY for bulk insert performance
	rows := make([][]interface{}, len(trades))
	for i, t := range trades {
		rows[i] = []interface{}{
			t.RunDBID,
			t.EntryIndex, t.EntryTime, t.EntryPrice,
			t.ExitIndex, t.ExitTime, t.ExitPrice,
			t.PnL, t.PnLPct, t.BarsHeld,
		}
	}

	copyCount, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{"backtest_trades"},
		[]string{
			"backtest_run_id",
			"entry_index", "entry_timestamp", "entry_price",
			"exit_index", "exit_timestamp", "exit_price",
			"pnl", "pnl_pct", "bars_held",
		},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, fmt.Errorf("bulk inserting trades: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing trades transaction: %w", err)
	}

	c.logger.Info("Saved trade records", "count", copyCount)
	return int(copyCount), nil
}

// Persist saves the run row and its trades in a single workflow.
//
// Steps:
//  1. Insert the run row (get back its database ID)
//  2. Build trade rows, link via FK
//  3. Bulk-insert trade rows
//
// Returns the run's database ID and the number of trade rows inserted.
func (c *Client) Persist(
	ctx context.Context,
	run RunRecord,
	trades []types.Trade,
	bars []types.Bar,
) (int64, int, error) {
	runDBID, err := c.SaveRun(ctx, run)
	if err != nil {
		return 0, 0, fmt.Errorf("saving run: %w", err)
	}

	recs := TradeRecords(trades, bars)
	for i := range recs {
		recs[i].RunDBID = runDBID
	}

	tradeCount, err := c.SaveTrades(ctx, recs)
	if err != nil {
		return runDBID, 0, fmt.Errorf("saving trades: %w", err)
	}

	return runDBID, tradeCount, nil
}
