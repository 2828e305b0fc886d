// Package strategy provides a registry of named preset DSL strategies.
//
// Presets are plain DSL source strings; callers parse them with dsl.Parse
// like any other program. Adding a preset means appending one entry to
// the presets() list.
package strategy

import (
	"sort"
	"sync"
)

// Preset is a named, ready-to-parse DSL strategy.
type Preset struct {
	ID          int
	Name        string
	DisplayName string
	Description string
	DSL         string
}

var (
	mu            sync.RWMutex
	presetsByID   = make(map[int]*Preset)
	presetsByName = make(map[string]*Preset)
)

func init() {
	RegisterAll(presets())
}

func presets() []*Preset {
	return []*Preset{
		{
			ID:          1,
			Name:        "golden_cross",
			DisplayName: "Golden Cross",
			Description: "Fast SMA crossing the slow SMA in either direction",
			DSL: "ENTRY: CROSSOVER(SMA(close, 50), SMA(close, 200))\n" +
				"EXIT: CROSSUNDER(SMA(close, 50), SMA(close, 200))",
		},
		{
			ID:          2,
			Name:        "rsi_reversal",
			DisplayName: "RSI Reversal",
			Description: "Buy oversold, sell overbought",
			DSL: "ENTRY: RSI(close, 14) < 30\n" +
				"EXIT: RSI(close, 14) > 70",
		},
		{
			ID:          3,
			Name:        "macd_momentum",
			DisplayName: "MACD Momentum",
			Description: "MACD line crossing its signal line",
			DSL: "ENTRY: CROSSOVER(MACD(close, 12, 26, 9), MACD_SIGNAL(close, 12, 26, 9))\n" +
				"EXIT: CROSSUNDER(MACD(close, 12, 26, 9), MACD_SIGNAL(close, 12, 26, 9))",
		},
		{
			ID:          4,
			Name:        "bollinger_fade",
			DisplayName: "Bollinger Fade",
			Description: "Buy a close below the lower band, exit at the middle band",
			DSL: "ENTRY: close < BBLOWER(close, 20, 2)\n" +
				"EXIT: close > BBANDS(close, 20, 2)",
		},
		{
			ID:          5,
			Name:        "volume_breakout",
			DisplayName: "Volume Breakout",
			Description: "New high over the prior bar on heavy volume",
			DSL: "ENTRY: close > high[1] AND volume > 1M\n" +
				"EXIT: CROSSUNDER(close, SMA(close, 10))",
		},
		{
			ID:          6,
			Name:        "trend_pullback",
			DisplayName: "Trend Pullback",
			Description: "Short-term dip inside a long-term uptrend",
			DSL: "ENTRY: close > SMA(close, 100) AND RSI(close, 5) < 25\n" +
				"EXIT: CROSSUNDER(close, SMA(close, 20))",
		},
	}
}

// Register adds a preset to the registry.
func Register(p *Preset) {
	mu.Lock()
	defer mu.Unlock()
	presetsByID[p.ID] = p
	presetsByName[p.Name] = p
}

// RegisterAll adds multiple presets to the registry.
func RegisterAll(ps []*Preset) int {
	mu.Lock()
	defer mu.Unlock()
	for _, p := range ps {
		presetsByID[p.ID] = p
		presetsByName[p.Name] = p
	}
	return len(ps)
}

// Get returns a preset by ID, or nil if not found.
func Get(id int) *Preset {
	mu.RLock()
	defer mu.RUnlock()
	return presetsByID[id]
}

// GetByName returns a preset by name, or nil if not found.
func GetByName(name string) *Preset {
	mu.RLock()
	defer mu.RUnlock()
	return presetsByName[name]
}

// GetAll returns all registered presets sorted by ID.
func GetAll() []*Preset {
	mu.RLock()
	defer mu.RUnlock()
	result := make([]*Preset, 0, len(presetsByID))
	for _, p := range presetsByID {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result
}

// Count returns the number of registered presets.
func Count() int {
	mu.RLock()
	defer mu.RUnlock()
	return len(presetsByID)
}
