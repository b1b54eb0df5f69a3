package engine

import (
	"errors"
	"strings"
	"testing"
)

func createValidConfig() *GameConfig {
	return &GameConfig{
		Name:        "Test Config",
		Description: "A valid test configuration",
		Width:       6,
		Height:      6,
		SeedLength:  2,
		RandomSeed:  7,
		Messages: &Messages{
			Welcome:   "Welcome to the test game!",
			Ate:       "Ate! Length %d",
			Collision: "Crashed with score %d",
			BoardFull: "Full board, score %d",
		},
	}
}

func TestValidateGameConfig_ValidConfig(t *testing.T) {
	config := createValidConfig()
	err := ValidateGameConfig(config)
	if err != nil {
		t.Errorf("Expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidateGameConfig_Nil(t *testing.T) {
	if err := ValidateGameConfig(nil); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for nil config, got %v", err)
	}
}

func TestValidateGameConfig_MissingName(t *testing.T) {
	config := createValidConfig()
	config.Name = ""

	err := ValidateGameConfig(config)
	if err == nil {
		t.Error("Expected error for missing name")
	}
	if !strings.Contains(err.Error(), "name is required") {
		t.Errorf("Expected 'name is required' error, got: %v", err)
	}
}

func TestValidateGameConfig_InvalidDimensions(t *testing.T) {
	tests := []struct {
		name   string
		width  int
		height int
	}{
		{"width too small", 1, 6},
		{"height too small", 6, 1},
		{"width too large", MaxGridSize + 1, 6},
		{"height too large", 6, MaxGridSize + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := createValidConfig()
			config.Width = tt.width
			config.Height = tt.height
			err := ValidateGameConfig(config)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig for %dx%d, got %v", tt.width, tt.height, err)
			}
		})
	}
}

func TestValidateGameConfig_SeedMustFit(t *testing.T) {
	config := createValidConfig()
	config.Width = 3
	config.SeedLength = 3

	err := ValidateGameConfig(config)
	if !errors.Is(err, ErrGridTooSmall) {
		t.Fatalf("Expected ErrGridTooSmall, got %v", err)
	}
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected error to also match ErrInvalidConfig, got %v", err)
	}

	// Without the seeded food the same row is wide enough
	noFood := false
	config.SeedFood = &noFood
	if err := ValidateGameConfig(config); err != nil {
		t.Errorf("Expected seed without food to fit, got %v", err)
	}
}

func TestValidateGameConfig_SeedLengthTooShort(t *testing.T) {
	config := createValidConfig()
	config.SeedLength = 1

	if err := ValidateGameConfig(config); !errors.Is(err, ErrGridTooSmall) {
		t.Errorf("Expected ErrGridTooSmall for a one cell seed, got %v", err)
	}
}

func TestValidateGameConfig_TickAndEncoding(t *testing.T) {
	config := createValidConfig()
	config.TickMillis = -1
	if err := ValidateGameConfig(config); err == nil {
		t.Error("Expected error for negative tick_ms")
	}

	config = createValidConfig()
	config.Encoding = "bitmap"
	if err := ValidateGameConfig(config); err == nil {
		t.Error("Expected error for unknown encoding")
	}

	config.Encoding = EncodingGrid
	if err := ValidateGameConfig(config); err != nil {
		t.Errorf("Expected grid encoding to be accepted, got %v", err)
	}
}

func TestValidateGameConfig_FormatStrings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *Messages)
		want   string
	}{
		{"collision", func(m *Messages) { m.Collision = "Crashed" }, "messages.collision"},
		{"board full", func(m *Messages) { m.BoardFull = "Full" }, "messages.board_full"},
		{"ate", func(m *Messages) { m.Ate = "Ate" }, "messages.ate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := createValidConfig()
			tt.mutate(config.Messages)
			err := ValidateGameConfig(config)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error mentioning %s, got %v", tt.want, err)
			}
		})
	}
}

func TestGameConfigDefaults(t *testing.T) {
	config := &GameConfig{Name: "bare", Width: 4, Height: 4}

	if config.EffectiveSeedLength() != DefaultSeedLength {
		t.Errorf("Expected default seed length %d, got %d", DefaultSeedLength, config.EffectiveSeedLength())
	}
	if !config.HasSeedFood() {
		t.Error("Expected seed food to default to true")
	}
	if config.EffectiveEncoding() != EncodingExplicit {
		t.Errorf("Expected explicit encoding by default, got %s", config.EffectiveEncoding())
	}
	if config.MaxScore() != 14 {
		t.Errorf("Expected max score 14 on a 4x4 board, got %d", config.MaxScore())
	}
	if got := config.message(func(m Messages) string { return m.Welcome }); got != DefaultMessages.Welcome {
		t.Errorf("Expected default welcome message, got %q", got)
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	if err := ValidateGameConfig(config); err != nil {
		t.Fatalf("Default config should be valid: %v", err)
	}
	if config.Width != 32 || config.Height != 32 {
		t.Errorf("Expected a 32x32 default board, got %dx%d", config.Width, config.Height)
	}
}
