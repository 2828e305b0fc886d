package persistence

import (
	"time"

	"github.com/CHANDUsaikumar/NLP-to-DSL-pipeline/pkg/types"
)

// RunRecord is one row for the backtest_runs table: the strategy text,
// the data range it ran over, and the summary metrics.
type RunRecord struct {
	RunID          string
	Symbol         string
	Timeframe      string
	StrategyName   string
	DSL            string
	PeriodStart    time.Time
	PeriodEnd      time.Time
	Bars           int
	InitialEquity  float64
	FinalEquity    float64
	TotalReturnPct float64
	MaxDrawdownPct float64
	SharpeRatio    float64
	TradeCount     int
	OpenAtEnd      bool
	CreatedAt      time.Time
}

// TradeRecord is one row for the backtest_trades table. RunDBID is the
// FK to the backtest_runs row, filled in after the run row is inserted.
type TradeRecord struct {
	RunDBID    int64
	EntryIndex int
	EntryTime  time.Time
	EntryPrice float64
	ExitIndex  int
	ExitTime   time.Time
	ExitPrice  float64
	PnL        float64
	PnLPct     float64
	BarsHeld   int
}

// NewRunRecord builds a run row from a backtest result. Pure function,
// no database access, so it is testable without a connection.
func NewRunRecord(
	runID, symbol, timeframe, strategyName, dsl string,
	bars []types.Bar,
	initialEquity float64,
	res *types.Result,
) RunRecord {
	rec := RunRecord{
		RunID:          runID,
		Symbol:         symbol,
		Timeframe:      timeframe,
		StrategyName:   strategyName,
		DSL:            dsl,
		Bars:           len(bars),
		InitialEquity:  initialEquity,
		TotalReturnPct: res.TotalReturnPct,
		MaxDrawdownPct: res.MaxDrawdownPct,
		SharpeRatio:    res.SharpeRatio,
		TradeCount:     res.TradeCount,
		OpenAtEnd:      res.Open != nil,
		CreatedAt:      time.Now().UTC(),
	}
	if len(bars) > 0 {
		rec.PeriodStart = bars[0].Timestamp
		rec.PeriodEnd = bars[len(bars)-1].Timestamp
	}
	if len(res.EquityCurve) > 0 {
		rec.FinalEquity = res.EquityCurve[len(res.EquityCurve)-1]
	}
	return rec
}

// TradeRecords converts engine trades to table rows. The bar slice
// supplies the entry/exit timestamps; RunDBID is left zero for the
// caller to fill after inserting the run row.
func TradeRecords(trades []types.Trade, bars []types.Bar) []TradeRecord {
	recs := make([]TradeRecord, 0, len(trades))
	for _, t := range trades {
		rec := TradeRecord{
			EntryIndex: t.EntryIndex,
			EntryPrice: t.EntryPrice,
			ExitIndex:  t.ExitIndex,
			ExitPrice:  t.ExitPrice,
			PnL:        t.PnL,
			BarsHeld:   t.ExitIndex - t.EntryIndex,
		}
		if t.EntryIndex >= 0 && t.EntryIndex < len(bars) {
			rec.EntryTime = bars[t.EntryIndex].Timestamp
		}
		if t.ExitIndex >= 0 && t.ExitIndex < len(bars) {
			rec.ExitTime = bars[t.ExitIndex].Timestamp
		}
		if t.EntryPrice != 0 {
			rec.PnLPct = (t.ExitPrice - t.EntryPrice) / t.EntryPrice * 100
		}
		recs = append(recs, rec)
	}
	return recs
}
