// Package config handles game configuration loading and management.
package config

import (
	"fmt"
	"time"

	"github.com/Faultbox/topdown/internal/engine/movement"
)

// Config holds all game settings.
type Config struct {
	Motion     MotionConfig     `yaml:"motion"`
	Animation  AnimationConfig  `yaml:"animation"`
	Assets     AssetsConfig     `yaml:"assets"`
	Simulation SimulationConfig `yaml:"simulation"`
	Viewer     ViewerConfig     `yaml:"viewer"`
	Audio      AudioConfig      `yaml:"audio"`
	Debug      DebugConfig      `yaml:"debug"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// MotionConfig selects the movement resolver.
type MotionConfig struct {
	Kind       string  `yaml:"kind"`        // no_collision, whole_pixel, ray_test, faceplant
	ScanRadius float32 `yaml:"scan_radius"` // Solid lookup radius around a mover
}

// AnimationConfig names the character animations, relative to Assets.Dir.
type AnimationConfig struct {
	Player    string  `yaml:"player"`
	Enemy     string  `yaml:"enemy"`
	TimeScale float32 `yaml:"time_scale"` // Frame time multiplier; 1 plays as authored
}

// AssetsConfig holds asset loading settings.
type AssetsConfig struct {
	Dir       string        `yaml:"dir"`
	HotReload bool          `yaml:"hot_reload"`
	Debounce  time.Duration `yaml:"debounce"`
}

// SimulationConfig holds tick loop settings.
type SimulationConfig struct {
	TickRate int    `yaml:"tick_rate"` // Ticks per second
	Ticks    int    `yaml:"ticks"`     // Ticks to run headless; 0 runs until interrupted
	Level    string `yaml:"level"`     // Tiled .tmx file
}

// ViewerConfig holds window settings for the animation viewer.
type ViewerConfig struct {
	Width  int  `yaml:"width"`
	Height int  `yaml:"height"`
	Scale  int  `yaml:"scale"` // Pixels per world unit
	VSync  bool `yaml:"vsync"`
}

// AudioConfig holds viewer sound cues, relative to Assets.Dir. A cue whose
// file is missing stays silent.
type AudioConfig struct {
	Enabled bool    `yaml:"enabled"`
	Volume  float64 `yaml:"volume"` // 0.0 to 1.0
	Land    string  `yaml:"land"`
	Bump    string  `yaml:"bump"`
}

// DebugConfig toggles debug overlays.
type DebugConfig struct {
	Walkboxes     bool   `yaml:"walkboxes"`
	Origins       bool   `yaml:"origins"`
	Hitboxes      bool   `yaml:"hitboxes"`
	TUI           bool   `yaml:"tui"` // Terminal view for the sandbox
	ScreenshotDir string `yaml:"screenshot_dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Motion: MotionConfig{
			Kind:       string(movement.KindRayTest),
			ScanRadius: movement.DefaultScanRadius,
		},
		Animation: AnimationConfig{
			Player:    "walker.aseprite",
			Enemy:     "",
			TimeScale: 1,
		},
		Assets: AssetsConfig{
			Dir:       "assets",
			HotReload: false,
			Debounce:  100 * time.Millisecond,
		},
		Simulation: SimulationConfig{
			TickRate: 60,
			Ticks:    0,
			Level:    "",
		},
		Viewer: ViewerConfig{
			Width:  640,
			Height: 480,
			Scale:  4,
			VSync:  true,
		},
		Audio: AudioConfig{
			Enabled: true,
			Volume:  0.8,
			Land:    "sfx/land.wav",
			Bump:    "sfx/bump.wav",
		},
		Debug: DebugConfig{
			ScreenshotDir: "screenshots",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// MotionKind parses the configured resolver name.
func (c *Config) MotionKind() (movement.Kind, error) {
	return movement.ParseKind(c.Motion.Kind)
}

// TickDuration is the fixed timestep for the configured tick rate.
func (c *Config) TickDuration() time.Duration {
	if c.Simulation.TickRate <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(c.Simulation.TickRate)
}

// Validate reports settings that cannot be used.
func (c *Config) Validate() error {
	if _, err := c.MotionKind(); err != nil {
		return fmt.Errorf("motion.kind: %w", err)
	}
	if c.Simulation.TickRate <= 0 {
		return fmt.Errorf("simulation.tick_rate must be positive, got %d", c.Simulation.TickRate)
	}
	if c.Simulation.Ticks < 0 {
		return fmt.Errorf("simulation.ticks must not be negative, got %d", c.Simulation.Ticks)
	}
	if c.Animation.TimeScale <= 0 {
		return fmt.Errorf("animation.time_scale must be positive, got %v", c.Animation.TimeScale)
	}
	if c.Audio.Volume < 0 || c.Audio.Volume > 1 {
		return fmt.Errorf("audio.volume must be between 0 and 1, got %v", c.Audio.Volume)
	}
	return nil
}
