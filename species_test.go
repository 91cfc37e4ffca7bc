package automaton3d

import "testing"

func TestSpeciesConfig_ValidateEmpty(t *testing.T) {
	if err := (SpeciesConfig{}).Validate(); err != ErrEmptySpeciesConfig {
		t.Errorf("Expected ErrEmptySpeciesConfig, got %v", err)
	}
}

func TestSpeciesConfig_ValidateNegativeRange(t *testing.T) {
	cfg := SpeciesConfig{Groups: []SpeciesGroup{
		{Promote: Chemical{Range: -0.1}, Demote: Chemical{Range: 1}},
	}}
	if err := cfg.Validate(); err != ErrNegativeRange {
		t.Errorf("Expected ErrNegativeRange, got %v", err)
	}
}

func TestSpeciesConfig_ValidateOK(t *testing.T) {
	cfg := SpeciesConfig{Groups: []SpeciesGroup{
		{Promote: Chemical{Range: 1, Influence: 1}, Demote: Chemical{Range: 2, Influence: -1}},
	}}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected valid config, got error %v", err)
	}
}

func TestNewLegacyTwoBandConfig(t *testing.T) {
	cfg := NewLegacyTwoBandConfig(0.5, 1.0, 0.5, -1.0)
	if cfg.NumSpecies() != 1 {
		t.Errorf("Expected single-species config, got K=%d", cfg.NumSpecies())
	}
	g := cfg.Groups[0]
	if g.Promote.Range != 0.5 || g.Promote.Influence != 1.0 {
		t.Errorf("Unexpected promote chemical: %+v", g.Promote)
	}
	if g.Demote.Range != 0.5 || g.Demote.Influence != -1.0 {
		t.Errorf("Unexpected demote chemical: %+v", g.Demote)
	}
}
