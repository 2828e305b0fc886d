// Command backtest compiles a strategy DSL and runs it over OHLCV bars.
//
// Usage (CSV mode):
//
//	go run ./cmd/backtest --preset golden_cross --csv data.csv
//
// Usage (API mode):
//
//	go run ./cmd/backtest --dsl "ENTRY: CROSSOVER(SMA(close, 10), SMA(close, 50)) EXIT: close < SMA(close, 50)" \
//	    --api-url http://localhost:8000 --symbol AAPL --timeframe 1Day \
//	    --start 2024-01-01 --end 2024-06-01
//
// Use --list to see the built-in strategy presets, --check to validate a
// strategy without running it, and --listen to also serve the run
// monitoring API while backtests execute.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/CHANDUsaikumar/NLP-to-DSL-pipeline/pkg/api"
	"github.com/CHANDUsaikumar/NLP-to-DSL-pipeline/pkg/backend"
	"github.com/CHANDUsaikumar/NLP-to-DSL-pipeline/pkg/backtest"
	"github.com/CHANDUsaikumar/NLP-to-DSL-pipeline/pkg/dsl"
	"github.com/CHANDUsaikumar/NLP-to-DSL-pipeline/pkg/eval"
	"github.com/CHANDUsaikumar/NLP-to-DSL-pipeline/pkg/persistence"
	"github.com/CHANDUsaikumar/NLP-to-DSL-pipeline/pkg/runtracker"
	"github.com/CHANDUsaikumar/NLP-to-DSL-pipeline/pkg/strategy"
	"github.com/CHANDUsaikumar/NLP-to-DSL-pipeline/pkg/types"
)

const version = "0.3.0"

func main() {
	// Strategy selection flags
	dslText := flag.String("dsl", "", "Strategy DSL text (ENTRY: ... EXIT: ...)")
	dslFile := flag.String("dsl-file", "", "Path to a file containing strategy DSL")
	presetName := flag.String("preset", "", "Built-in strategy preset name (see --list)")
	listPresets := flag.Bool("list", false, "List built-in strategy presets")
	checkOnly := flag.Bool("check", false, "Parse and validate the strategy, then exit")

	// Data source: CSV file
	csvFile := flag.String("csv", "", "Path to CSV file with OHLCV data")

	// Data source: market-data API
	apiURL := flag.String("api-url", envOrDefault("BACKEND_API_URL", ""), "Market-data API base URL (e.g. http://localhost:8000)")
	symbol := flag.String("symbol", "", "Ticker symbol for API mode (e.g. AAPL)")
	timeframe := flag.String("timeframe", "1Day", "Bar timeframe for API mode (e.g. 1Min, 1Hour, 1Day)")
	startDate := flag.String("start", "", "Start date for API mode (ISO format, e.g. 2024-01-01)")
	endDate := flag.String("end", "", "End date for API mode (ISO format, e.g. 2024-06-01)")
	apiTimeout := flag.Duration("api-timeout", 30*time.Second, "Timeout per API request")

	// Execution parameters
	slippageBPS := flag.Float64("slippage-bps", 0, "Slippage in basis points applied against the trader")
	fee := flag.Float64("fee", 0, "Flat fee per fill in account currency")
	markToMarket := flag.Bool("mark-to-market", false, "Mark open positions to market on the equity curve")
	initialEquity := flag.Float64("initial-equity", backtest.DefaultInitialEquity, "Starting account equity")

	// Persistence and monitoring
	dbURL := flag.String("db-url", envOrDefault("DATABASE_URL", ""), "PostgreSQL connection string for result persistence (optional)")
	listenAddr := flag.String("listen", "", "Serve the run monitoring API on this address (e.g. :8090)")

	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *listPresets {
		listAllPresets()
		return
	}

	// Resolve strategy source
	source, strategyName, err := resolveStrategy(*dslText, *dslFile, *presetName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		flag.Usage()
		os.Exit(1)
	}

	st, err := dsl.Parse(source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Strategy error: %v\n", err)
		os.Exit(1)
	}

	if *checkOnly {
		fmt.Println("Strategy OK")
		fmt.Println(dsl.Format(st))
		return
	}

	// Load data from CSV or API
	var bars []types.Bar

	switch {
	case *csvFile != "" && *apiURL != "":
		fmt.Fprintln(os.Stderr, "Error: specify either --csv or --api-url, not both")
		os.Exit(1)

	case *csvFile != "":
		bars, err = loadCSV(*csvFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading CSV: %v\n", err)
			os.Exit(1)
		}
		logger.Info("Loaded bar data from CSV", "bars", len(bars), "file", *csvFile)

	case *apiURL != "":
		bars, err = loadFromAPI(logger, *apiURL, *symbol, *timeframe, *startDate, *endDate, *apiTimeout)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading data from API: %v\n", err)
			os.Exit(1)
		}
		logger.Info("Loaded bar data from API",
			"bars", len(bars), "symbol", *symbol,
			"timeframe", *timeframe, "api_url", *apiURL,
		)

	default:
		fmt.Fprintln(os.Stderr, "Error: must specify --csv or --api-url for data source")
		flag.Usage()
		os.Exit(1)
	}

	// Run tracker and optional monitoring API
	tracker := runtracker.NewTracker(logger, version)
	if *listenAddr != "" {
		server := api.NewServer(tracker, logger)
		mux := http.NewServeMux()
		server.RegisterRoutes(mux)
		go func() {
			logger.Info("Monitoring API listening", "addr", *listenAddr)
			if err := http.ListenAndServe(*listenAddr, mux); err != nil {
				logger.Error("Monitoring API stopped", "error", err)
			}
		}()
	}

	runID := tracker.StartRun(*symbol, *timeframe, strategyName, source, len(bars))

	frame := types.NewFrame(bars)
	signals, err := eval.Signals(st, frame)
	if err != nil {
		tracker.Fail(runID, err.Error())
		fmt.Fprintf(os.Stderr, "Evaluation error: %v\n", err)
		os.Exit(1)
	}

	engine, err := backtest.NewEngine(backtest.Params{
		SlippageBPS:   *slippageBPS,
		Fee:           *fee,
		MarkToMarket:  *markToMarket,
		InitialEquity: *initialEquity,
	}, logger)
	if err != nil {
		tracker.Fail(runID, err.Error())
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	start := time.Now()
	result, err := engine.Run(frame, signals)
	if err != nil {
		tracker.Fail(runID, err.Error())
		fmt.Fprintf(os.Stderr, "Backtest error: %v\n", err)
		os.Exit(1)
	}
	elapsed := time.Since(start)

	tracker.Complete(runID, runtracker.Summary{
		TotalReturnPct: result.TotalReturnPct,
		MaxDrawdownPct: result.MaxDrawdownPct,
		SharpeRatio:    result.SharpeRatio,
		TradeCount:     result.TradeCount,
		OpenAtEnd:      result.Open != nil,
	})
	logger.Info("Completed backtest", "run_id", runID, "bars", len(bars), "elapsed", elapsed)

	printReport(strategyName, source, bars, *initialEquity, result)

	// Optional persistence
	if *dbURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		db, err := persistence.NewClient(ctx, *dbURL, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error connecting to database: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()

		rec := persistence.NewRunRecord(runID, *symbol, *timeframe, strategyName, source, bars, *initialEquity, result)
		_, tradeCount, err := db.Persist(ctx, rec, result.Trades, bars)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error persisting results: %v\n", err)
			os.Exit(1)
		}
		logger.Info("Persisted run", "run_id", runID, "trades", tradeCount)
	}

	if *listenAddr != "" {
		logger.Info("Serving monitoring API until interrupted", "addr", *listenAddr)
		select {}
	}
}

// resolveStrategy picks the DSL source from the flags, in priority
// order: --dsl, --dsl-file, --preset. Exactly one must be given.
func resolveStrategy(dslText, dslFile, presetName string) (source, name string, err error) {
	given := 0
	for _, s := range []string{dslText, dslFile, presetName} {
		if s != "" {
			given++
		}
	}
	if given == 0 {
		return "", "", fmt.Errorf("must specify --dsl, --dsl-file, or --preset")
	}
	if given > 1 {
		return "", "", fmt.Errorf("specify only one of --dsl, --dsl-file, --preset")
	}

	switch {
	case dslText != "":
		return dslText, "adhoc", nil
	case dslFile != "":
		data, err := os.ReadFile(dslFile)
		if err != nil {
			return "", "", fmt.Errorf("reading --dsl-file: %w", err)
		}
		return string(data), strings.TrimSuffix(dslFile, ".dsl"), nil
	default:
		p := strategy.GetByName(presetName)
		if p == nil {
			return "", "", fmt.Errorf("preset %q not found (see --list)", presetName)
		}
		return p.DSL, p.Name, nil
	}
}

func printReport(name, source string, bars []types.Bar, initialEquity float64, res *types.Result) {
	fmt.Printf("Strategy: %s\n", name)
	fmt.Printf("Bars:     %d\n", len(bars))
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("Total return:  %9.2f%%\n", res.TotalReturnPct)
	fmt.Printf("Max drawdown:  %9.2f%%\n", res.MaxDrawdownPct)
	fmt.Printf("Sharpe ratio:  %9.2f\n", res.SharpeRatio)
	fmt.Printf("Trades:        %9d\n", res.TradeCount)
	if len(res.EquityCurve) > 0 {
		fmt.Printf("Final equity:  %9.2f (from %.2f)\n",
			res.EquityCurve[len(res.EquityCurve)-1], initialEquity)
	}
	if res.Open != nil {
		fmt.Printf("Open position: entered at bar %d @ %.4f (still open at end of data)\n",
			res.Open.EntryIndex, res.Open.EntryPrice)
	}
	if len(res.Trades) > 0 {
		fmt.Println(strings.Repeat("-", 60))
		for i, t := range res.Trades {
			ts := ""
			if t.EntryIndex < len(bars) {
				ts = bars[t.EntryIndex].Timestamp.Format("2006-01-02")
			}
			fmt.Printf("#%-3d %s  entry %.4f @ bar %d  exit %.4f @ bar %d  pnl %+.2f\n",
				i+1, ts, t.EntryPrice, t.EntryIndex, t.ExitPrice, t.ExitIndex, t.PnL)
		}
	}
}

// loadFromAPI fetches bar data from the market-data API.
func loadFromAPI(
	logger *slog.Logger,
	apiURL, symbol, timeframe, startDate, endDate string,
	timeout time.Duration,
) ([]types.Bar, error) {
	if symbol == "" {
		return nil, fmt.Errorf("--symbol is required when using --api-url")
	}
	if timeframe == "" {
		return nil, fmt.Errorf("--timeframe is required when using --api-url")
	}
	if startDate == "" {
		return nil, fmt.Errorf("--start is required when using --api-url")
	}
	if endDate == "" {
		return nil, fmt.Errorf("--end is required when using --api-url")
	}

	start, err := parseTimestamp(startDate)
	if err != nil {
		return nil, fmt.Errorf("invalid --start: %w", err)
	}
	end, err := parseTimestamp(endDate)
	if err != nil {
		return nil, fmt.Errorf("invalid --end: %w", err)
	}

	client := backend.NewClient(apiURL, &backend.Config{
		Timeout:     timeout,
		Logger:      logger,
		EnableCache: true,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	bars, err := client.GetBars(ctx, symbol, timeframe, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetching bar data: %w", err)
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("no data returned from API for %s/%s (%s to %s)",
			symbol, timeframe, startDate, endDate)
	}

	return bars, nil
}

// envOrDefault returns the value of an environment variable,
// or the given default if the variable is unset or empty.
func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func listAllPresets() {
	presets := strategy.GetAll()
	fmt.Printf("%-4s %-18s %-22s %s\n", "ID", "Name", "Display name", "Description")
	fmt.Println(strings.Repeat("-", 100))
	for _, p := range presets {
		fmt.Printf("%-4d %-18s %-22s %s\n", p.ID, p.Name, p.DisplayName, p.Description)
	}
	fmt.Printf("\nTotal: %d presets\n", len(presets))
}

// loadCSV loads bar data from a CSV file.
// Expected columns: timestamp, open, high, low, close, volume.
func loadCSV(path string) ([]types.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("CSV must have header + at least 1 data row")
	}

	headers := records[0]
	colIdx := make(map[string]int)
	for i, h := range headers {
		colIdx[strings.TrimSpace(strings.ToLower(h))] = i
	}

	requiredCols := []string{"timestamp", "open", "high", "low", "close", "volume"}
	for _, col := range requiredCols {
		if _, ok := colIdx[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	bars := make([]types.Bar, 0, len(records)-1)
	for rowNum, row := range records[1:] {
		if len(row) != len(headers) {
			return nil, fmt.Errorf("row %d: expected %d columns, got %d", rowNum+2, len(headers), len(row))
		}

		ts, err := parseTimestamp(row[colIdx["timestamp"]])
		if err != nil {
			return nil, fmt.Errorf("row %d timestamp: %w", rowNum+2, err)
		}

		open, _ := strconv.ParseFloat(row[colIdx["open"]], 64)
		high, _ := strconv.ParseFloat(row[colIdx["high"]], 64)
		low, _ := strconv.ParseFloat(row[colIdx["low"]], 64)
		closePrice, _ := strconv.ParseFloat(row[colIdx["close"]], 64)
		volume, _ := strconv.ParseFloat(row[colIdx["volume"]], 64)

		bars = append(bars, types.Bar{
			Timestamp: ts,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    volume,
		})
	}

	return bars, nil
}

// parseTimestamp tries multiple timestamp formats.
func parseTimestamp(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, f := range formats {
		t, err := time.Parse(f, s)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format: %s", s)
}
