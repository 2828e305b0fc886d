package strategy

import (
	"testing"

	"github.com/CHANDUsaikumar/NLP-to-DSL-pipeline/pkg/dsl"
)

func TestAllPresetsParse(t *testing.T) {
	presets := GetAll()
	if len(presets) == 0 {
		t.Fatal("no presets registered")
	}
	for _, p := range presets {
		if _, err := dsl.Parse(p.DSL); err != nil {
			t.Errorf("preset %d (%s) failed to parse: %v", p.ID, p.Name, err)
		}
	}
}

func TestGetByIDAndName(t *testing.T) {
	p := Get(1)
	if p == nil {
		t.Fatal("expected preset 1")
	}
	if p.Name != "golden_cross" {
		t.Errorf("expected golden_cross, got %s", p.Name)
	}

	byName := GetByName("golden_cross")
	if byName == nil || byName.ID != p.ID {
		t.Errorf("GetByName should return the same preset, got %+v", byName)
	}

	if Get(9999) != nil {
		t.Error("expected nil for unknown ID")
	}
	if GetByName("nope") != nil {
		t.Error("expected nil for unknown name")
	}
}

func TestGetAllSortedByID(t *testing.T) {
	presets := GetAll()
	for i := 1; i < len(presets); i++ {
		if presets[i-1].ID >= presets[i].ID {
			t.Fatalf("presets not sorted by ID: %d before %d", presets[i-1].ID, presets[i].ID)
		}
	}
}

func TestPresetMetadata(t *testing.T) {
	for _, p := range GetAll() {
		if p.Name == "" || p.DisplayName == "" || p.Description == "" {
			t.Errorf("preset %d has empty metadata: %+v", p.ID, p)
		}
	}
	if Count() != len(GetAll()) {
		t.Errorf("Count %d does not match GetAll length %d", Count(), len(GetAll()))
	}
}

func TestRegisterCustomPreset(t *testing.T) {
	custom := &Preset{
		ID:          1000,
		Name:        "test_custom",
		DisplayName: "Test Custom",
		Description: "registered by a test",
		DSL:         "ENTRY: close > SMA(close, 5)\nEXIT: close < SMA(close, 5)",
	}
	Register(custom)

	if got := Get(1000); got == nil || got.Name != "test_custom" {
		t.Errorf("expected custom preset retrievable by ID, got %+v", got)
	}
	if got := GetByName("test_custom"); got == nil || got.ID != 1000 {
		t.Errorf("expected custom preset retrievable by name, got %+v", got)
	}
}
