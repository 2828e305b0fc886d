package runtracker

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Tracker provides thread-safe management of backtest run state.
// It is the central store queried by the monitoring API endpoints.
type Tracker struct {
	mu     sync.RWMutex
	runs   map[string]*Run
	logger *slog.Logger

	// startedAt is used by the health endpoint to report uptime.
	startedAt time.Time
	version   string
}

// NewTracker creates a new run tracker.
func NewTracker(logger *slog.Logger, version string) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	if version == "" {
		version = "dev"
	}
	return &Tracker{
		runs:      make(map[string]*Run),
		logger:    logger,
		startedAt: time.Now(),
		version:   version,
	}
}

// StartedAt returns the time the tracker was created.
func (t *Tracker) StartedAt() time.Time {
	return t.startedAt
}

// Version returns the version string.
func (t *Tracker) Version() string {
	return t.version
}

// UptimeSeconds returns seconds since the tracker was created.
func (t *Tracker) UptimeSeconds() float64 {
	return time.Since(t.startedAt).Seconds()
}

// generateRunID produces a short random hex run identifier.
func generateRunID() string {
	b := make([]byte, 5)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%x", b)
}

// StartRun registers a new running backtest and returns its run_id.
func (t *Tracker) StartRun(symbol, timeframe, strategyName, dsl string, bars int) string {
	runID := generateRunID()
	run := &Run{
		RunID:        runID,
		Symbol:       symbol,
		Timeframe:    timeframe,
		StrategyName: strategyName,
		DSL:          dsl,
		Bars:         bars,
		StartTime:    time.Now(),
		Status:       StatusRunning,
	}

	t.mu.Lock()
	t.runs[runID] = run
	t.mu.Unlock()

	t.logger.Info("Run started",
		"run_id", runID,
		"symbol", symbol,
		"timeframe", timeframe,
		"strategy", strategyName,
		"bars", bars,
	)
	return runID
}

// Complete marks a run as completed and records its summary metrics.
func (t *Tracker) Complete(runID string, summary Summary) {
	t.mu.Lock()
	defer t.mu.Unlock()

	run, ok := t.runs[runID]
	if !ok {
		t.logger.Warn("Complete: run not found", "run_id", runID)
		return
	}

	now := time.Now()
	run.EndTime = &now
	run.Status = StatusCompleted
	run.Summary = &summary

	t.logger.Info("Run completed",
		"run_id", runID,
		"trades", summary.TradeCount,
		"total_return_pct", summary.TotalReturnPct,
		"elapsed_secs", run.ElapsedSeconds(),
	)
}

// Fail marks a run as failed with an error message.
func (t *Tracker) Fail(runID string, errMsg string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	run, ok := t.runs[runID]
	if !ok {
		t.logger.Warn("Fail: run not found", "run_id", runID)
		return
	}

	now := time.Now()
	run.EndTime = &now
	run.Status = StatusFailed
	run.ErrorMessage = errMsg

	t.logger.Warn("Run failed", "run_id", runID, "error", errMsg)
}

// GetRun returns a snapshot of the run with the given ID, or nil if not
// found.
func (t *Tracker) GetRun(runID string) *Run {
	t.mu.RLock()
	defer t.mu.RUnlock()
	run, ok := t.runs[runID]
	if !ok {
		return nil
	}
	// Return a copy to avoid data races on the caller side.
	cp := *run
	if run.Summary != nil {
		s := *run.Summary
		cp.Summary = &s
	}
	return &cp
}

// ListRuns returns a snapshot of all runs, newest first. Optional filters
// narrow the results by status and/or symbol; limit > 0 caps the count.
func (t *Tracker) ListRuns(statusFilter, symbolFilter string, limit int) []*Run {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]*Run, 0, len(t.runs))
	for _, run := range t.runs {
		if statusFilter != "" && string(run.Status) != statusFilter {
			continue
		}
		if symbolFilter != "" && run.Symbol != symbolFilter {
			continue
		}
		cp := *run
		if run.Summary != nil {
			s := *run.Summary
			cp.Summary = &s
		}
		result = append(result, &cp)
	}

	// Sort by start time descending (newest first).
	for i := 0; i < len(result); i++ {
		for j := i + 1; j < len(result); j++ {
			if result[j].StartTime.After(result[i].StartTime) {
				result[i], result[j] = result[j], result[i]
			}
		}
	}

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}
