package persistence

import (
	"context"
	"io"

	"github.com/CHANDUsaikumar/NLP-to-DSL-pipeline/pkg/types"
)

// Persister defines the interface for backtest result persistence.
// Client implements it with direct pgx; the CLI depends on this
// interface so persistence stays optional.
type Persister interface {
	// SaveRun inserts the run row and returns its database ID.
	SaveRun(ctx context.Context, run RunRecord) (int64, error)

	// SaveTrades bulk-inserts trade rows. RunDBID must already be set.
	SaveTrades(ctx context.Context, trades []TradeRecord) (int, error)

	// Persist saves the run row and its trades in one workflow.
	// Returns the run's database ID and the trade rows inserted.
	Persist(ctx context.Context, run RunRecord, trades []types.Trade, bars []types.Bar) (int64, int, error)

	// Close releases resources.
	io.Closer
}
