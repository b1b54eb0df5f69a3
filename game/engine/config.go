package engine

import (
	"fmt"
	"strings"
)

// Messages holds the player facing texts of a configuration. Collision and
// BoardFull are format strings that receive the score.
type Messages struct {
	Welcome   string `json:"welcome,omitempty" yaml:"welcome,omitempty" hcl:"welcome,optional"`
	Ate       string `json:"ate,omitempty" yaml:"ate,omitempty" hcl:"ate,optional"`
	Collision string `json:"collision,omitempty" yaml:"collision,omitempty" hcl:"collision,optional"`
	BoardFull string `json:"board_full,omitempty" yaml:"board_full,omitempty" hcl:"board_full,optional"`
}

// DefaultMessages are used for every message a configuration leaves empty.
var DefaultMessages = Messages{
	Welcome:   "Eat the food, avoid the walls and your own tail.",
	Ate:       "Yum! Length %d",
	Collision: "Crash! Game over. Score: %d",
	BoardFull: "The board is full. You win! Score: %d",
}

// GameConfig represents the game configuration loaded from JSON, YAML or HCL
type GameConfig struct {
	Name        string    `json:"name" yaml:"name" hcl:"name"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty" hcl:"description,optional"`
	Width       int       `json:"width" yaml:"width" hcl:"width"`
	Height      int       `json:"height" yaml:"height" hcl:"height"`
	SeedLength  int       `json:"seed_length,omitempty" yaml:"seed_length,omitempty" hcl:"seed_length,optional"`
	SeedFood    *bool     `json:"seed_food,omitempty" yaml:"seed_food,omitempty" hcl:"seed_food,optional"`
	RandomSeed  int64     `json:"random_seed,omitempty" yaml:"random_seed,omitempty" hcl:"random_seed,optional"`
	TickMillis  int       `json:"tick_ms,omitempty" yaml:"tick_ms,omitempty" hcl:"tick_ms,optional"`
	Encoding    string    `json:"encoding,omitempty" yaml:"encoding,omitempty" hcl:"encoding,optional"`
	Messages    *Messages `json:"messages,omitempty" yaml:"messages,omitempty" hcl:"messages,block"`
}

// EffectiveSeedLength returns the configured seed length or the default.
func (c *GameConfig) EffectiveSeedLength() int {
	if c.SeedLength == 0 {
		return DefaultSeedLength
	}
	return c.SeedLength
}

// HasSeedFood reports whether a food cell is seeded in front of the head.
// It defaults to true.
func (c *GameConfig) HasSeedFood() bool {
	return c.SeedFood == nil || *c.SeedFood
}

// EffectiveEncoding returns the configured encoding or EncodingExplicit.
func (c *GameConfig) EffectiveEncoding() string {
	if c.Encoding == "" {
		return EncodingExplicit
	}
	return c.Encoding
}

// message returns the picked message, falling back to DefaultMessages.
func (c *GameConfig) message(pick func(Messages) string) string {
	if c.Messages != nil {
		if m := pick(*c.Messages); m != "" {
			return m
		}
	}
	return pick(DefaultMessages)
}

// MaxScore is the score of a snake that fills the whole board.
func (c *GameConfig) MaxScore() int {
	return c.Width*c.Height - unscoredSegments
}

// ValidateGameConfig validates a game configuration for correctness and playability
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}
	if config.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidConfig)
	}

	if config.Width < MinGridSize || config.Width > MaxGridSize {
		return fmt.Errorf("%w: width must be between %d and %d, got %d", ErrInvalidConfig, MinGridSize, MaxGridSize, config.Width)
	}
	if config.Height < MinGridSize || config.Height > MaxGridSize {
		return fmt.Errorf("%w: height must be between %d and %d, got %d", ErrInvalidConfig, MinGridSize, MaxGridSize, config.Height)
	}

	if config.SeedLength != 0 && config.SeedLength < MinSeedLength {
		return fmt.Errorf("%w: %w: seed_length must be at least %d, got %d",
			ErrInvalidConfig, ErrGridTooSmall, MinSeedLength, config.SeedLength)
	}
	need := config.EffectiveSeedLength()
	if config.HasSeedFood() {
		need++
	}
	if need > config.Width {
		return fmt.Errorf("%w: %w: the seed needs %d cells in row 0 but width is %d",
			ErrInvalidConfig, ErrGridTooSmall, need, config.Width)
	}

	if config.TickMillis < 0 || config.TickMillis > MaxTickMillis {
		return fmt.Errorf("%w: tick_ms must be between 0 and %d, got %d", ErrInvalidConfig, MaxTickMillis, config.TickMillis)
	}

	switch config.Encoding {
	case "", EncodingExplicit, EncodingGrid:
	default:
		return fmt.Errorf("%w: encoding must be %q or %q, got %q", ErrInvalidConfig, EncodingExplicit, EncodingGrid, config.Encoding)
	}

	// Validate format strings
	if m := config.Messages; m != nil {
		if m.Collision != "" && !strings.Contains(m.Collision, "%d") {
			return fmt.Errorf("%w: messages.collision must contain %%d for score", ErrInvalidConfig)
		}
		if m.BoardFull != "" && !strings.Contains(m.BoardFull, "%d") {
			return fmt.Errorf("%w: messages.board_full must contain %%d for score", ErrInvalidConfig)
		}
		if m.Ate != "" && !strings.Contains(m.Ate, "%d") {
			return fmt.Errorf("%w: messages.ate must contain %%d for length", ErrInvalidConfig)
		}
	}

	return nil
}

// DefaultConfig mirrors the 32x32 board of the keyboard front end.
func DefaultConfig() *GameConfig {
	return &GameConfig{
		Name:        "classic",
		Description: "32x32 board, two segment snake with food in front of it",
		Width:       32,
		Height:      32,
		SeedLength:  DefaultSeedLength,
		TickMillis:  100,
	}
}
