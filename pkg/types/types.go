// Package types defines the core data structures shared across the DSL
// pipeline:
//   - Bar = one OHLCV row
//   - Frame = a columnar OHLCV table the evaluator runs against
//   - Signals = aligned boolean entry/exit series
//   - Trade / Result = backtest output
package types

import (
	"fmt"
	"time"
)

// Bar represents a single OHLCV bar.
type Bar struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Frame holds an OHLCV table in columnar form, one element per bar,
// rows in chronological order. All columns have equal length. The frame
// is read-only to every pipeline stage once built.
type Frame struct {
	Open   []float64
	High   []float64
	Low    []float64
	Close  []float64
	Volume []float64
}

// NewFrame builds a columnar Frame from a slice of bars.
func NewFrame(bars []Bar) *Frame {
	f := &Frame{
		Open:   make([]float64, len(bars)),
		High:   make([]float64, len(bars)),
		Low:    make([]float64, len(bars)),
		Close:  make([]float64, len(bars)),
		Volume: make([]float64, len(bars)),
	}
	for i, b := range bars {
		f.Open[i] = b.Open
		f.High[i] = b.High
		f.Low[i] = b.Low
		f.Close[i] = b.Close
		f.Volume[i] = b.Volume
	}
	return f
}

// Len returns the number of bars in the frame.
func (f *Frame) Len() int {
	return len(f.Close)
}

// Column returns the named series and true, or nil and false if the name
// is not an OHLCV column. Names match the DSL's series identifiers.
func (f *Frame) Column(name string) ([]float64, bool) {
	switch name {
	case "open":
		return f.Open, true
	case "high":
		return f.High, true
	case "low":
		return f.Low, true
	case "close":
		return f.Close, true
	case "volume":
		return f.Volume, true
	}
	return nil, false
}

// Signals holds the boolean entry and exit series produced by evaluating a
// strategy AST. Both slices are index-aligned with the source frame and are
// never mutated after creation.
type Signals struct {
	Entry []bool
	Exit  []bool
}

// Trade represents a completed (closed) simulated trade.
type Trade struct {
	EntryIndex int
	EntryPrice float64
	ExitIndex  int
	ExitPrice  float64
	PnL        float64
}

// String returns a human-readable representation of the trade.
func (t Trade) String() string {
	return fmt.Sprintf(
		"entry[%d]=%.4f exit[%d]=%.4f pnl=%+.4f",
		t.EntryIndex, t.EntryPrice, t.ExitIndex, t.ExitPrice, t.PnL,
	)
}

// OpenPosition describes a position still open when the data ends.
// It is reported, never force-closed: no exit fill is synthesized and no
// realized PnL is booked for it.
type OpenPosition struct {
	EntryIndex int
	EntryPrice float64
	Units      float64
}

// Result is the immutable outcome of one backtest run.
type Result struct {
	EquityCurve    []float64
	Trades         []Trade
	Open           *OpenPosition
	TotalReturnPct float64
	MaxDrawdownPct float64
	SharpeRatio    float64
	TradeCount     int
}
