package race

import (
	"fmt"
	"sort"
)

// Mode selects the round end condition
type Mode string

const (
	ModeClassic Mode = "classic"
	ModeBattle  Mode = "battle"
	ModeTime    Mode = "time"
	ModeEndless Mode = "endless"
)

// Valid reports whether m is a known mode
func (m Mode) Valid() bool {
	switch m {
	case ModeClassic, ModeBattle, ModeTime, ModeEndless:
		return true
	}
	return false
}

// Validation limits
const (
	MinDistance  = 500.0
	MaxDistance  = 50000.0
	MinLives     = 1
	MaxLives     = 10
	MaxTimeLimit = 3600
)

// MapConfig holds the generation and physics parameters of a race map
type MapConfig struct {
	Name         string     `yaml:"name" json:"name"`
	Description  string     `yaml:"description" json:"description"`
	Difficulty   string     `yaml:"difficulty" json:"difficulty"`
	Seed         int64      `yaml:"seed" json:"seed"`
	Distance     float64    `yaml:"distance" json:"distance"`
	FirstPipeX   float64    `yaml:"first_pipe_x" json:"first_pipe_x"`
	PipeSpacing  float64    `yaml:"pipe_spacing" json:"pipe_spacing"`
	PipeWidth    float64    `yaml:"pipe_width" json:"pipe_width"`
	GapHeight    float64    `yaml:"gap_height" json:"gap_height"`
	GapMargin    float64    `yaml:"gap_margin" json:"gap_margin"`
	ItemEvery    int        `yaml:"item_every" json:"item_every"`
	ItemKinds    []ItemKind `yaml:"item_kinds" json:"item_kinds"`
	Lives        int        `yaml:"lives" json:"lives"`
	Mode         Mode       `yaml:"mode" json:"mode"`
	TimeLimit    int        `yaml:"time_limit_seconds" json:"time_limit_seconds"`
	ForwardSpeed float64    `yaml:"forward_speed" json:"forward_speed"`
	Gravity      float64    `yaml:"gravity" json:"gravity"`
	FlapVelocity float64    `yaml:"flap_velocity" json:"flap_velocity"`
	MaxFallSpeed float64    `yaml:"max_fall_speed" json:"max_fall_speed"`
}

var builtinPresets = map[string]MapConfig{
	"easy": {
		Name:         "easy",
		Description:  "Wide gaps, generous lives and frequent items",
		Difficulty:   "easy",
		Seed:         7,
		Distance:     2400,
		FirstPipeX:   450,
		PipeSpacing:  380,
		PipeWidth:    60,
		GapHeight:    210,
		GapMargin:    60,
		ItemEvery:    2,
		ItemKinds:    AllItemKinds(),
		Lives:        5,
		Mode:         ModeClassic,
		TimeLimit:    120,
		ForwardSpeed: 2.6,
		Gravity:      0.4,
		FlapVelocity: -7,
		MaxFallSpeed: 9,
	},
	"normal": {
		Name:         "normal",
		Description:  "The standard course",
		Difficulty:   "normal",
		Seed:         42,
		Distance:     3000,
		FirstPipeX:   400,
		PipeSpacing:  320,
		PipeWidth:    60,
		GapHeight:    170,
		GapMargin:    60,
		ItemEvery:    3,
		ItemKinds:    AllItemKinds(),
		Lives:        3,
		Mode:         ModeClassic,
		TimeLimit:    120,
		ForwardSpeed: 3,
		Gravity:      0.45,
		FlapVelocity: -7.5,
		MaxFallSpeed: 10,
	},
	"hard": {
		Name:         "hard",
		Description:  "Narrow gaps, a long course and scarce items",
		Difficulty:   "hard",
		Seed:         1337,
		Distance:     4000,
		FirstPipeX:   350,
		PipeSpacing:  280,
		PipeWidth:    70,
		GapHeight:    140,
		GapMargin:    50,
		ItemEvery:    4,
		ItemKinds:    AllItemKinds(),
		Lives:        2,
		Mode:         ModeClassic,
		TimeLimit:    150,
		ForwardSpeed: 3.6,
		Gravity:      0.5,
		FlapVelocity: -8,
		MaxFallSpeed: 11,
	},
}

// DefaultPreset is used when no map is requested
const DefaultPreset = "normal"

// BuiltinPreset returns a copy of a built-in map configuration
func BuiltinPreset(name string) (*MapConfig, bool) {
	cfg, ok := builtinPresets[name]
	if !ok {
		return nil, false
	}
	cfg.ItemKinds = append([]ItemKind(nil), cfg.ItemKinds...)
	return &cfg, true
}

// BuiltinPresetNames lists the built-in presets in name order
func BuiltinPresetNames() []string {
	names := make([]string, 0, len(builtinPresets))
	for name := range builtinPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateMapConfig checks a map configuration for playability
func ValidateMapConfig(cfg *MapConfig) error {
	if cfg == nil {
		return fmt.Errorf("map validation: config is nil")
	}
	if cfg.Name == "" {
		return fmt.Errorf("map validation: name is required")
	}
	if !cfg.Mode.Valid() {
		return fmt.Errorf("map validation: unknown mode %q", cfg.Mode)
	}
	if cfg.Distance < MinDistance || cfg.Distance > MaxDistance {
		return fmt.Errorf("map validation: distance must be between %.0f and %.0f, got %.0f", MinDistance, MaxDistance, cfg.Distance)
	}
	if cfg.PipeWidth <= 0 {
		return fmt.Errorf("map validation: pipe_width must be positive, got %.0f", cfg.PipeWidth)
	}
	if cfg.PipeSpacing < cfg.PipeWidth+4*PlayerRadius {
		return fmt.Errorf("map validation: pipe_spacing must leave room between pipes, got %.0f for width %.0f", cfg.PipeSpacing, cfg.PipeWidth)
	}
	if cfg.FirstPipeX < 0 {
		return fmt.Errorf("map validation: first_pipe_x must not be negative")
	}
	if cfg.GapMargin < 0 {
		return fmt.Errorf("map validation: gap_margin must not be negative")
	}
	if cfg.GapHeight < 4*PlayerRadius || cfg.GapHeight > WorldHeight-2*cfg.GapMargin {
		return fmt.Errorf("map validation: gap_height must be between %.0f and %.0f, got %.0f",
			4*PlayerRadius, WorldHeight-2*cfg.GapMargin, cfg.GapHeight)
	}
	if cfg.ItemEvery < 0 {
		return fmt.Errorf("map validation: item_every must not be negative")
	}
	if cfg.ItemEvery > 0 && len(cfg.ItemKinds) == 0 {
		return fmt.Errorf("map validation: item_kinds required when item_every is set")
	}
	for _, kind := range cfg.ItemKinds {
		if !kind.Valid() {
			return fmt.Errorf("map validation: unknown item kind %q", kind)
		}
	}
	if cfg.Lives < MinLives || cfg.Lives > MaxLives {
		return fmt.Errorf("map validation: lives must be between %d and %d, got %d", MinLives, MaxLives, cfg.Lives)
	}
	if cfg.TimeLimit < 0 || cfg.TimeLimit > MaxTimeLimit {
		return fmt.Errorf("map validation: time_limit_seconds must be between 0 and %d, got %d", MaxTimeLimit, cfg.TimeLimit)
	}
	if cfg.Mode == ModeTime && cfg.TimeLimit == 0 {
		return fmt.Errorf("map validation: time mode requires time_limit_seconds")
	}
	if cfg.ForwardSpeed <= 0 || cfg.Gravity <= 0 || cfg.MaxFallSpeed <= 0 {
		return fmt.Errorf("map validation: forward_speed, gravity and max_fall_speed must be positive")
	}
	if cfg.FlapVelocity >= 0 {
		return fmt.Errorf("map validation: flap_velocity must be negative (upwards), got %.2f", cfg.FlapVelocity)
	}
	return nil
}
