package dsl

import "sort"

// validSeries is the set of legal series identifiers. Series names are
// stored lowercase to match Frame column names.
var validSeries = map[string]bool{
	"open": true, "high": true, "low": true, "close": true, "volume": true,
}

// funcSpec describes the argument shape the parser enforces for a
// registered function. WindowArgs positions must be positive integer
// literals; ScalarArgs positions must be numeric literals.
type funcSpec struct {
	Arity      int
	WindowArgs []int
	ScalarArgs []int
}

// funcSpecs is the registry of legal function names and their arities.
// Adding a new function means adding one entry here plus its dispatch
// case in the evaluator.
var funcSpecs = map[string]funcSpec{
	"SMA":         {Arity: 2, WindowArgs: []int{1}},
	"EMA":         {Arity: 2, WindowArgs: []int{1}},
	"RSI":         {Arity: 2, WindowArgs: []int{1}},
	"SHIFT":       {Arity: 2, WindowArgs: []int{1}},
	"MACD":        {Arity: 4, WindowArgs: []int{1, 2, 3}},
	"MACD_SIGNAL": {Arity: 4, WindowArgs: []int{1, 2, 3}},
	"MACD_HIST":   {Arity: 4, WindowArgs: []int{1, 2, 3}},
	"BBANDS":      {Arity: 3, WindowArgs: []int{1}, ScalarArgs: []int{2}},
	"BBUPPER":     {Arity: 3, WindowArgs: []int{1}, ScalarArgs: []int{2}},
	"BBLOWER":     {Arity: 3, WindowArgs: []int{1}, ScalarArgs: []int{2}},
}

// IsSeries reports whether name (lowercase) is a legal series identifier.
func IsSeries(name string) bool {
	return validSeries[name]
}

// IsFunc reports whether name (uppercase) is a registered function.
func IsFunc(name string) bool {
	_, ok := funcSpecs[name]
	return ok
}

// Arity returns the required argument count for a registered function.
func Arity(name string) (int, bool) {
	spec, ok := funcSpecs[name]
	if !ok {
		return 0, false
	}
	return spec.Arity, true
}

// windowArgPositions returns the argument positions that must be positive
// integer literals (lookback windows and lags).
func windowArgPositions(name string) []int {
	return funcSpecs[name].WindowArgs
}

// scalarArgPositions returns the argument positions that must be numeric
// literals but may be fractional (e.g. a band-width multiplier).
func scalarArgPositions(name string) []int {
	return funcSpecs[name].ScalarArgs
}

// SeriesNames returns the legal series names, sorted.
func SeriesNames() []string {
	names := make([]string, 0, len(validSeries))
	for n := range validSeries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// FuncNames returns the registered function names, sorted.
func FuncNames() []string {
	names := make([]string, 0, len(funcSpecs))
	for n := range funcSpecs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Suggest returns the closest registered series or function name to the
// given unknown identifier, or "" if nothing is close enough to be a
// plausible typo.
func Suggest(name string) string {
	candidates := append(SeriesNames(), FuncNames()...)

	best := ""
	bestDist := -1
	lower := toLower(name)
	for _, c := range candidates {
		d := editDistance(lower, toLower(c))
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}

	// Only suggest when the edit distance is small relative to the name.
	limit := len(name)/3 + 1
	if limit < 2 {
		limit = 2
	}
	if bestDist < 0 || bestDist > limit {
		return ""
	}
	return best
}

func toLower(s string) string {
	b := []byte(s)
	for i := range b {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}

// editDistance computes the Levenshtein distance between two strings.
func editDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
