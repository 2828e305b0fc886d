// Package api provides HTTP handlers for the backtest monitoring API.
//
// Endpoints:
//
//	GET /api/v1/status           - Service health check
//	GET /api/v1/runs             - List runs (with optional filters)
//	GET /api/v1/runs/{run_id}    - Detailed run status
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/CHANDUsaikumar/NLP-to-DSL-pipeline/pkg/runtracker"
)

// Server holds dependencies for the API handlers.
type Server struct {
	Tracker *runtracker.Tracker
	Logger  *slog.Logger
}

// NewServer creates a new API server.
func NewServer(tracker *runtracker.Tracker, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		Tracker: tracker,
		Logger:  logger,
	}
}

// RegisterRoutes registers all API routes on the provided mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/status", s.HandleStatus)
	mux.HandleFunc("GET /api/v1/runs", s.HandleListRuns)
	// Go 1.22+ pattern matching with path parameters
	mux.HandleFunc("GET /api/v1/runs/{run_id}", s.HandleGetRun)
}

// ---------------------------------------------------------------------------
// Response types
// ---------------------------------------------------------------------------

type statusResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Version       string  `json:"version"`
}

type runListItem struct {
	RunID              string              `json:"run_id"`
	Symbol             string              `json:"symbol"`
	Timeframe          string              `json:"timeframe"`
	StrategyName       string              `json:"strategy_name"`
	StartTime          string              `json:"start_time"`
	EndTime            *string             `json:"end_time"`
	Status             string              `json:"status"`
	Bars               int                 `json:"bars"`
	ElapsedTimeSeconds float64             `json:"elapsed_time_seconds"`
	Summary            *runtracker.Summary `json:"summary,omitempty"`
}

type runListResponse struct {
	Runs      []runListItem `json:"runs"`
	TotalRuns int           `json:"total_runs"`
}

type runDetailResponse struct {
	runListItem
	DSL          string `json:"dsl"`
	ErrorMessage string `json:"error_message,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

// HandleStatus returns overall service health and readiness.
func (s *Server) HandleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Status:        "healthy",
		UptimeSeconds: s.Tracker.UptimeSeconds(),
		Version:       s.Tracker.Version(),
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleListRuns returns a list of backtest runs with summary metrics.
func (s *Server) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	statusFilter := q.Get("status")
	symbolFilter := q.Get("symbol")
	limit := 100
	if l := q.Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	runs := s.Tracker.ListRuns(statusFilter, symbolFilter, limit)
	items := make([]runListItem, len(runs))
	for i, run := range runs {
		items[i] = buildRunListItem(run)
	}

	writeJSON(w, http.StatusOK, runListResponse{
		Runs:      items,
		TotalRuns: len(items),
	})
}

// HandleGetRun returns detailed status of a specific run, including the
// DSL source it was built from.
func (s *Server) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("run_id")
	if runID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "run_id is required"})
		return
	}

	run := s.Tracker.GetRun(runID)
	if run == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "run not found"})
		return
	}

	resp := runDetailResponse{
		runListItem:  buildRunListItem(run),
		DSL:          run.DSL,
		ErrorMessage: run.ErrorMessage,
	}
	writeJSON(w, http.StatusOK, resp)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func buildRunListItem(run *runtracker.Run) runListItem {
	item := runListItem{
		RunID:              run.RunID,
		Symbol:             run.Symbol,
		Timeframe:          run.Timeframe,
		StrategyName:       run.StrategyName,
		StartTime:          run.StartTime.Format(time.RFC3339),
		Status:             string(run.Status),
		Bars:               run.Bars,
		ElapsedTimeSeconds: run.ElapsedSeconds(),
		Summary:            run.Summary,
	}
	if run.EndTime != nil {
		end := run.EndTime.Format(time.RFC3339)
		item.EndTime = &end
	}
	return item
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
