package dsl

import (
	"sort"
	"testing"
)

func TestRegistryLookups(t *testing.T) {
	if !IsSeries("close") || !IsSeries("volume") {
		t.Error("expected close and volume to be valid series")
	}
	if IsSeries("CLOSE") {
		t.Error("series lookup is lowercase only")
	}
	if !IsFunc("SMA") || !IsFunc("MACD_SIGNAL") {
		t.Error("expected SMA and MACD_SIGNAL to be registered functions")
	}
	if IsFunc("sma") {
		t.Error("function lookup is uppercase only")
	}
}

func TestArity(t *testing.T) {
	cases := map[string]int{
		"SMA": 2, "EMA": 2, "RSI": 2, "SHIFT": 2,
		"MACD": 4, "MACD_SIGNAL": 4, "MACD_HIST": 4,
		"BBANDS": 3, "BBUPPER": 3, "BBLOWER": 3,
	}
	for name, want := range cases {
		got, ok := Arity(name)
		if !ok {
			t.Errorf("%s: not registered", name)
			continue
		}
		if got != want {
			t.Errorf("%s: expected arity %d, got %d", name, want, got)
		}
	}
	if _, ok := Arity("NOPE"); ok {
		t.Error("expected unknown function to report not registered")
	}
}

func TestNameListsSorted(t *testing.T) {
	series := SeriesNames()
	if !sort.StringsAreSorted(series) {
		t.Errorf("series names not sorted: %v", series)
	}
	if len(series) != 5 {
		t.Errorf("expected 5 series names, got %d", len(series))
	}

	funcs := FuncNames()
	if !sort.StringsAreSorted(funcs) {
		t.Errorf("function names not sorted: %v", funcs)
	}
	if len(funcs) != 10 {
		t.Errorf("expected 10 function names, got %d", len(funcs))
	}
}

func TestSuggest(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"clse", "close"},
		{"cloes", "close"},
		{"SNA", "SMA"},
		{"volum", "volume"},
		{"rsi", "RSI"},
		{"completely_different_name", ""},
	}
	for _, tc := range cases {
		if got := Suggest(tc.name); got != tc.want {
			t.Errorf("Suggest(%q): expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestEditDistance(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "abc", 3},
		{"abc", "", 3},
		{"abc", "abc", 0},
		{"close", "clse", 1},
		{"kitten", "sitting", 3},
	}
	for _, tc := range cases {
		if got := editDistance(tc.a, tc.b); got != tc.want {
			t.Errorf("editDistance(%q, %q): expected %d, got %d", tc.a, tc.b, tc.want, got)
		}
	}
}
