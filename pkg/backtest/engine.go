// Package backtest simulates a long-only strategy over entry/exit signal
// series and computes summary metrics.
//
// The engine is a two-state machine (Flat, Long) driven strictly in bar
// order: a signal observed at bar i fills at bar i+1's close, never bar
// i's own close, so the simulation can never look ahead. A trailing
// signal with no next bar is ignored, and a position still open when the
// data ends is reported open rather than force-closed.
package backtest

import (
	"fmt"
	"log/slog"

	"github.com/CHANDUsaikumar/NLP-to-DSL-pipeline/pkg/types"
)

// DefaultInitialEquity is the starting equity when Params leaves it zero.
const DefaultInitialEquity = 10_000.0

// DefaultAnnualization is the periods-per-year constant used to scale the
// Sharpe ratio when Params leaves it zero.
const DefaultAnnualization = 252.0

// ConfigError reports an invalid backtest parameter.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid backtest parameter %s: %s", e.Field, e.Reason)
}

// Params configures one simulation.
type Params struct {
	// SlippageBPS is the execution-price penalty in basis points, applied
	// against the trader on both fills.
	SlippageBPS float64

	// Fee is a flat amount subtracted from cash at every fill.
	Fee float64

	// MarkToMarket revalues an open position at every bar's close. When
	// false, equity moves only at fills (stair-step curve).
	MarkToMarket bool

	// InitialEquity is the starting cash. Zero means DefaultInitialEquity.
	InitialEquity float64

	// Annualization is the periods-per-year constant for the Sharpe
	// ratio. Zero means DefaultAnnualization.
	Annualization float64
}

// Validate checks the parameters, returning a ConfigError on the first
// invalid field.
func (p Params) Validate() error {
	if p.SlippageBPS < 0 {
		return &ConfigError{Field: "slippage_bps", Reason: "must not be negative"}
	}
	if p.Fee < 0 {
		return &ConfigError{Field: "fee", Reason: "must not be negative"}
	}
	if p.InitialEquity < 0 {
		return &ConfigError{Field: "initial_equity", Reason: "must not be negative"}
	}
	if p.Annualization < 0 {
		return &ConfigError{Field: "annualization", Reason: "must not be negative"}
	}
	return nil
}

func (p Params) withDefaults() Params {
	if p.InitialEquity == 0 {
		p.InitialEquity = DefaultInitialEquity
	}
	if p.Annualization == 0 {
		p.Annualization = DefaultAnnualization
	}
	return p
}

// Engine runs long-only simulations with fixed parameters.
type Engine struct {
	params Params
	logger *slog.Logger
}

// NewEngine validates the parameters and creates an engine.
func NewEngine(params Params, logger *slog.Logger) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{params: params.withDefaults(), logger: logger}, nil
}

// pending marks a fill scheduled for the next bar.
type pending int

const (
	pendingNone pending = iota
	pendingBuy
	pendingSell
)

// Run simulates the signals over the frame and returns the result. The
// signal series must be index-aligned with the frame.
func (e *Engine) Run(f *types.Frame, sig *types.Signals) (*types.Result, error) {
	n := f.Len()
	if len(sig.Entry) != n || len(sig.Exit) != n {
		return nil, fmt.Errorf("signal length %d/%d does not match frame length %d",
			len(sig.Entry), len(sig.Exit), n)
	}

	p := e.params
	equity := make([]float64, n)
	trades := make([]types.Trade, 0, 8)

	var (
		long      bool
		next      pending
		cash      = p.InitialEquity
		units     float64
		basis     float64 // equity recorded at entry fill, held while stair-stepping
		entryIdx  int
		entryFill float64
		entryCash float64
	)

	for i := 0; i < n; i++ {
		price := f.Close[i]

		// Execute the fill scheduled by the previous bar's signal.
		switch next {
		case pendingBuy:
			fill := price * (1 + p.SlippageBPS/10_000)
			entryCash = cash
			available := cash - p.Fee
			units = available / fill
			cash = 0
			basis = units * fill
			entryIdx = i
			entryFill = fill
			long = true
			e.logger.Debug("Entered position", "bar", i, "fill", fill, "units", units)

		case pendingSell:
			fill := price * (1 - p.SlippageBPS/10_000)
			cash = units*fill - p.Fee
			trades = append(trades, types.Trade{
				EntryIndex: entryIdx,
				EntryPrice: entryFill,
				ExitIndex:  i,
				ExitPrice:  fill,
				PnL:        cash - entryCash,
			})
			e.logger.Debug("Exited position", "bar", i, "fill", fill, "pnl", cash-entryCash)
			units = 0
			long = false
		}
		next = pendingNone

		// Observe this bar's signal; it fills on the next bar, so a
		// trailing signal with no next bar does nothing.
		if i+1 < n {
			if !long && sig.Entry[i] {
				next = pendingBuy
			} else if long && sig.Exit[i] {
				next = pendingSell
			}
		}

		switch {
		case long && p.MarkToMarket:
			equity[i] = units * price
		case long:
			equity[i] = basis
		default:
			equity[i] = cash
		}
	}

	res := &types.Result{
		EquityCurve:    equity,
		Trades:         trades,
		TotalReturnPct: totalReturnPct(equity, p.InitialEquity),
		MaxDrawdownPct: maxDrawdownPct(equity),
		SharpeRatio:    sharpeRatio(equity, p.Annualization),
		TradeCount:     len(trades),
	}
	if long {
		res.Open = &types.OpenPosition{EntryIndex: entryIdx, EntryPrice: entryFill, Units: units}
		e.logger.Debug("Position still open at end of data", "entry_bar", entryIdx)
	}

	e.logger.Info("Backtest complete",
		"bars", n,
		"trades", res.TradeCount,
		"total_return_pct", res.TotalReturnPct,
		"max_drawdown_pct", res.MaxDrawdownPct,
		"open_at_end", res.Open != nil,
	)
	return res, nil
}
