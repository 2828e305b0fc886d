package backtest

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/CHANDUsaikumar/NLP-to-DSL-pipeline/pkg/types"
)

func makeFrame(closes []float64) *types.Frame {
	bars := make([]types.Bar, len(closes))
	for i, c := range closes {
		bars[i] = types.Bar{
			Timestamp: time.Date(2026, 1, 1, 0, i, 0, 0, time.UTC),
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    1000,
		}
	}
	return types.NewFrame(bars)
}

// makeSignals builds entry/exit series with events at the given bars.
func makeSignals(n int, entryBars, exitBars []int) *types.Signals {
	sig := &types.Signals{Entry: make([]bool, n), Exit: make([]bool, n)}
	for _, i := range entryBars {
		sig.Entry[i] = true
	}
	for _, i := range exitBars {
		sig.Exit[i] = true
	}
	return sig
}

func mustRun(t *testing.T, p Params, f *types.Frame, sig *types.Signals) *types.Result {
	t.Helper()
	eng, err := NewEngine(p, nil)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	res, err := eng.Run(f, sig)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return res
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRunSingleTradeNextBarFill(t *testing.T) {
	f := makeFrame([]float64{100, 101, 102, 103, 104})
	// Entry signal at bar 0 fills at bar 1's close; exit signal at bar 2
	// fills at bar 3's close.
	sig := makeSignals(5, []int{0}, []int{2})

	res := mustRun(t, Params{}, f, sig)

	if res.TradeCount != 1 {
		t.Fatalf("expected 1 trade, got %d", res.TradeCount)
	}
	tr := res.Trades[0]
	if tr.EntryIndex != 1 || tr.EntryPrice != 101 {
		t.Errorf("expected entry at bar 1 @ 101, got bar %d @ %v", tr.EntryIndex, tr.EntryPrice)
	}
	if tr.ExitIndex != 3 || tr.ExitPrice != 103 {
		t.Errorf("expected exit at bar 3 @ 103, got bar %d @ %v", tr.ExitIndex, tr.ExitPrice)
	}

	wantFinal := DefaultInitialEquity * 103 / 101
	if !almostEqual(res.EquityCurve[4], wantFinal) {
		t.Errorf("expected final equity %v, got %v", wantFinal, res.EquityCurve[4])
	}
	if !almostEqual(tr.PnL, wantFinal-DefaultInitialEquity) {
		t.Errorf("expected pnl %v, got %v", wantFinal-DefaultInitialEquity, tr.PnL)
	}
	if res.Open != nil {
		t.Error("expected no open position at end")
	}
}

func TestRunStairStepEquity(t *testing.T) {
	f := makeFrame([]float64{100, 101, 102, 103, 104})
	sig := makeSignals(5, []int{0}, []int{2})

	res := mustRun(t, Params{}, f, sig)

	// Equity holds flat while long, moving only at the exit fill.
	want := []float64{
		DefaultInitialEquity,
		DefaultInitialEquity,
		DefaultInitialEquity,
		DefaultInitialEquity * 103 / 101,
		DefaultInitialEquity * 103 / 101,
	}
	if len(res.EquityCurve) != len(want) {
		t.Fatalf("expected one equity point per bar, got %d", len(res.EquityCurve))
	}
	for i := range want {
		if !almostEqual(res.EquityCurve[i], want[i]) {
			t.Errorf("equity[%d]: expected %v, got %v", i, want[i], res.EquityCurve[i])
		}
	}
}

func TestRunMarkToMarketEquity(t *testing.T) {
	f := makeFrame([]float64{100, 101, 102, 103, 104})
	sig := makeSignals(5, []int{0}, []int{2})

	res := mustRun(t, Params{MarkToMarket: true}, f, sig)

	units := DefaultInitialEquity / 101
	want := []float64{
		DefaultInitialEquity,
		units * 101,
		units * 102,
		units * 103,
		units * 103,
	}
	for i := range want {
		if !almostEqual(res.EquityCurve[i], want[i]) {
			t.Errorf("equity[%d]: expected %v, got %v", i, want[i], res.EquityCurve[i])
		}
	}
}

func TestRunNoSignalsNoTrades(t *testing.T) {
	f := makeFrame([]float64{100, 110, 90, 120})
	sig := makeSignals(4, nil, nil)

	res := mustRun(t, Params{}, f, sig)

	if res.TradeCount != 0 {
		t.Errorf("expected 0 trades, got %d", res.TradeCount)
	}
	if res.TotalReturnPct != 0 {
		t.Errorf("expected 0%% return, got %v", res.TotalReturnPct)
	}
	if res.MaxDrawdownPct != 0 {
		t.Errorf("expected 0 drawdown, got %v", res.MaxDrawdownPct)
	}
	for i, v := range res.EquityCurve {
		if v != DefaultInitialEquity {
			t.Errorf("equity[%d]: expected flat %v, got %v", i, DefaultInitialEquity, v)
		}
	}
}

func TestRunOpenPositionReported(t *testing.T) {
	f := makeFrame([]float64{100, 110, 120})
	sig := makeSignals(3, []int{0}, nil)

	res := mustRun(t, Params{}, f, sig)

	if res.TradeCount != 0 {
		t.Errorf("open position must not be force-closed; got %d trades", res.TradeCount)
	}
	if res.Open == nil {
		t.Fatal("expected open position at end of data")
	}
	if res.Open.EntryIndex != 1 || res.Open.EntryPrice != 110 {
		t.Errorf("expected open position from bar 1 @ 110, got bar %d @ %v",
			res.Open.EntryIndex, res.Open.EntryPrice)
	}
}

func TestRunTrailingSignalIgnored(t *testing.T) {
	f := makeFrame([]float64{100, 110, 120})
	sig := makeSignals(3, []int{2}, nil)

	res := mustRun(t, Params{}, f, sig)

	if res.TradeCount != 0 || res.Open != nil {
		t.Error("a signal on the last bar has no next close and must do nothing")
	}
}

func TestRunExitSignalWhileFlatIgnored(t *testing.T) {
	f := makeFrame([]float64{100, 110, 120, 130})
	sig := makeSignals(4, []int{1}, []int{0})

	res := mustRun(t, Params{}, f, sig)

	// The exit at bar 0 happens while flat and changes nothing; the
	// entry at bar 1 fills at bar 2 and stays open.
	if res.TradeCount != 0 {
		t.Errorf("expected 0 closed trades, got %d", res.TradeCount)
	}
	if res.Open == nil || res.Open.EntryIndex != 2 {
		t.Errorf("expected position opened at bar 2, got %+v", res.Open)
	}
}

func TestRunReentryAfterExit(t *testing.T) {
	f := makeFrame([]float64{100, 100, 110, 110, 120, 120, 130})
	sig := makeSignals(7, []int{0, 4}, []int{2})

	res := mustRun(t, Params{}, f, sig)

	if res.TradeCount != 1 {
		t.Fatalf("expected 1 closed trade, got %d", res.TradeCount)
	}
	if res.Trades[0].EntryIndex != 1 || res.Trades[0].ExitIndex != 3 {
		t.Errorf("unexpected first trade: %v", res.Trades[0])
	}
	if res.Open == nil || res.Open.EntryIndex != 5 {
		t.Errorf("expected reentry open at bar 5, got %+v", res.Open)
	}
}

func TestRunSlippageAndFeeReduceReturn(t *testing.T) {
	f := makeFrame([]float64{100, 101, 102, 103, 104})
	sig := makeSignals(5, []int{0}, []int{2})

	base := mustRun(t, Params{}, f, sig)
	withSlippage := mustRun(t, Params{SlippageBPS: 50}, f, sig)
	withFee := mustRun(t, Params{Fee: 25}, f, sig)
	withBoth := mustRun(t, Params{SlippageBPS: 50, Fee: 25}, f, sig)

	if withSlippage.TotalReturnPct >= base.TotalReturnPct {
		t.Errorf("slippage must reduce return: %v >= %v",
			withSlippage.TotalReturnPct, base.TotalReturnPct)
	}
	if withFee.TotalReturnPct >= base.TotalReturnPct {
		t.Errorf("fees must reduce return: %v >= %v",
			withFee.TotalReturnPct, base.TotalReturnPct)
	}
	if withBoth.TotalReturnPct >= withSlippage.TotalReturnPct ||
		withBoth.TotalReturnPct >= withFee.TotalReturnPct {
		t.Error("combined costs must not beat either cost alone")
	}

	// Slippage moves the actual fill prices against the trader.
	tr := withSlippage.Trades[0]
	if !almostEqual(tr.EntryPrice, 101*1.005) {
		t.Errorf("expected buy fill 101*1.005, got %v", tr.EntryPrice)
	}
	if !almostEqual(tr.ExitPrice, 103*0.995) {
		t.Errorf("expected sell fill 103*0.995, got %v", tr.ExitPrice)
	}
}

func TestRunDrawdownAlwaysIn(t *testing.T) {
	// Rise then slide: peak at the bar-2 mark, trough at the last bar.
	f := makeFrame([]float64{100, 110, 120, 115, 105, 90})
	sig := makeSignals(6, []int{0}, nil)

	res := mustRun(t, Params{MarkToMarket: true}, f, sig)

	// Buy fills at 110; equity peaks at 120/110 and bottoms at 90/110,
	// a 25% slide from the peak.
	if !almostEqual(res.MaxDrawdownPct, -25) {
		t.Errorf("expected -25%% drawdown, got %v", res.MaxDrawdownPct)
	}
	if res.MaxDrawdownPct > 0 {
		t.Error("drawdown must be reported as a non-positive percentage")
	}
}

func TestRunSignalLengthMismatch(t *testing.T) {
	f := makeFrame([]float64{100, 110, 120})
	sig := makeSignals(2, nil, nil)

	eng, err := NewEngine(Params{}, nil)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if _, err := eng.Run(f, sig); err == nil {
		t.Fatal("expected error for signal/frame length mismatch")
	}
}

func TestNewEngineValidation(t *testing.T) {
	cases := []Params{
		{SlippageBPS: -1},
		{Fee: -0.01},
		{InitialEquity: -100},
		{Annualization: -252},
	}
	for _, p := range cases {
		_, err := NewEngine(p, nil)
		if err == nil {
			t.Errorf("%+v: expected config error", p)
			continue
		}
		var ce *ConfigError
		if !errors.As(err, &ce) {
			t.Errorf("%+v: expected *ConfigError, got %T", p, err)
		}
	}

	// Zero values fall back to defaults and validate fine.
	eng, err := NewEngine(Params{}, nil)
	if err != nil {
		t.Fatalf("zero params should validate: %v", err)
	}
	if eng.params.InitialEquity != DefaultInitialEquity {
		t.Errorf("expected default initial equity, got %v", eng.params.InitialEquity)
	}
	if eng.params.Annualization != DefaultAnnualization {
		t.Errorf("expected default annualization, got %v", eng.params.Annualization)
	}
}

func TestRunEmptyFrame(t *testing.T) {
	f := makeFrame(nil)
	sig := &types.Signals{}

	res := mustRun(t, Params{}, f, sig)
	if res.TradeCount != 0 || len(res.EquityCurve) != 0 {
		t.Errorf("expected empty result, got %+v", res)
	}
	if res.TotalReturnPct != 0 || res.SharpeRatio != 0 {
		t.Errorf("expected zero metrics on empty input, got %+v", res)
	}
}
