package dsl

import (
	"reflect"
	"testing"
)

func TestFormatRoundTrip(t *testing.T) {
	sources := []string{
		"ENTRY: TRUE\nEXIT: FALSE",
		"ENTRY: close > SMA(close, 20)\nEXIT: close < SMA(close, 20)",
		"ENTRY: CROSSOVER(SMA(close, 10), SMA(close, 50))\nEXIT: CROSSUNDER(close, EMA(close, 20))",
		"ENTRY: (close + volume) * 2 > open - 1\nEXIT: NOT volume > 1M",
		"ENTRY: RSI(close, 14) < 30 AND close > high[1] OR volume > 2K\nEXIT: close < BBLOWER(close, 20, 2.5)",
		"ENTRY: NOT (close > 1 AND volume > 2)\nEXIT: MACD_HIST(close, 12, 26, 9) < 0",
	}

	for _, src := range sources {
		first := mustParse(t, src)
		printed := Format(first)
		second, err := Parse(printed)
		if err != nil {
			t.Errorf("formatted output failed to re-parse: %v\nsource: %s\nprinted: %s", err, src, printed)
			continue
		}
		if !reflect.DeepEqual(first, second) {
			t.Errorf("round trip changed the AST\nsource: %s\nprinted: %s", src, printed)
		}
	}
}

func TestFormatOutput(t *testing.T) {
	st := mustParse(t, "ENTRY: close > SMA(close, 20) AND volume > 1M\nEXIT: CROSSUNDER(close, SMA(close, 20))")
	got := Format(st)
	want := "ENTRY: close > SMA(close, 20) AND volume > 1000000\nEXIT: CROSSUNDER(close, SMA(close, 20))"
	if got != want {
		t.Errorf("Format mismatch:\ngot:  %s\nwant: %s", got, want)
	}
}

func TestFormatParenthesizesOnlyWhereNeeded(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		// Redundant source parens disappear.
		{"ENTRY: (close > 1) AND (volume > 2)\nEXIT: FALSE",
			"ENTRY: close > 1 AND volume > 2\nEXIT: FALSE"},
		// Required parens survive.
		{"ENTRY: (close + 1) * 2 > 0\nEXIT: FALSE",
			"ENTRY: (close + 1) * 2 > 0\nEXIT: FALSE"},
		// Right-side same-precedence grouping must keep its parens.
		{"ENTRY: close - (open - low) > 0\nEXIT: FALSE",
			"ENTRY: close - (open - low) > 0\nEXIT: FALSE"},
		// Infix cross normalizes to call form.
		{"ENTRY: close CROSSOVER open\nEXIT: FALSE",
			"ENTRY: CROSSOVER(close, open)\nEXIT: FALSE"},
	}
	for _, tc := range cases {
		got := Format(mustParse(t, tc.src))
		if got != tc.want {
			t.Errorf("source %q:\ngot:  %s\nwant: %s", tc.src, got, tc.want)
		}
	}
}

func TestFormatLaggedSeries(t *testing.T) {
	st := mustParse(t, "ENTRY: close > high[1]\nEXIT: FALSE")
	got := Format(st)
	want := "ENTRY: close > high[1]\nEXIT: FALSE"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
