// Package runtracker provides in-memory tracking of backtest run progress
// and outcomes. It is queried by the monitoring API endpoints so
// dashboards can display live and historical runs.
package runtracker

import "time"

// RunStatus represents the overall status of a backtest run.
type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// Summary holds the headline metrics of a completed run.
type Summary struct {
	TotalReturnPct float64 `json:"total_return_pct"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	TradeCount     int     `json:"trade_count"`
	OpenAtEnd      bool    `json:"open_at_end"`
}

// Run tracks the state of one backtest (one strategy over one
// symbol + timeframe window).
type Run struct {
	RunID        string     `json:"run_id"`
	Symbol       string     `json:"symbol"`
	Timeframe    string     `json:"timeframe"`
	StrategyName string     `json:"strategy_name"`
	DSL          string     `json:"dsl"`
	Bars         int        `json:"bars"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      *time.Time `json:"end_time"`
	Status       RunStatus  `json:"status"`
	Summary      *Summary   `json:"summary,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

// ElapsedSeconds returns the run duration so far, or the final duration
// once the run has ended.
func (r *Run) ElapsedSeconds() float64 {
	if r.EndTime != nil {
		return r.EndTime.Sub(r.StartTime).Seconds()
	}
	return time.Since(r.StartTime).Seconds()
}
