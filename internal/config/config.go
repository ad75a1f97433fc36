package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"

	"tradecraft/internal/world"
)

const (
	MinStreamRadius = 1
	MaxStreamRadius = 16
)

// Config holds the engine configuration.
type Config struct {
	WorldsDir string `yaml:"worlds_dir" toml:"worlds_dir"`
	World     string `yaml:"world" toml:"world"`
	// Seed 0 derives one from the clock when a world is created.
	Seed int64 `yaml:"seed" toml:"seed"`

	ChunkWidth int `yaml:"chunk_width" toml:"chunk_width"`
	// ChunkHeight 0 means ChunkWidth*(ChunkWidth/2).
	ChunkHeight  int `yaml:"chunk_height" toml:"chunk_height"`
	StreamRadius int `yaml:"stream_radius" toml:"stream_radius"`
	Workers      int `yaml:"workers" toml:"workers"`

	LogLevel string `yaml:"log_level" toml:"log_level"`

	Generation Generation `yaml:"generation" toml:"generation"`

	// BlockHealth overrides the built-in health of blocks by name.
	BlockHealth map[string]int32 `yaml:"block_health" toml:"block_health"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		WorldsDir:    "saves",
		World:        "world",
		ChunkWidth:   16,
		StreamRadius: 2,
		LogLevel:     "info",
		Generation:   DefaultGeneration(),
	}
}

// Load reads a YAML or TOML file, chosen by extension, on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
	case ".toml":
		if err := toml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
	default:
		return nil, fmt.Errorf("%s: unsupported config format %q", filepath.Base(path), ext)
	}
	cfg.SetStreamRadius(cfg.StreamRadius)
	return cfg, nil
}

// SetStreamRadius sets the stream radius in chunks
func (c *Config) SetStreamRadius(radius int) {
	// Clamp to reasonable values
	if radius < MinStreamRadius {
		radius = MinStreamRadius
	}
	if radius > MaxStreamRadius {
		radius = MaxStreamRadius
	}
	c.StreamRadius = radius
}

// Dimensions returns the chunk dimensions.
func (c *Config) Dimensions() world.Dimensions {
	h := c.ChunkHeight
	if h == 0 {
		h = c.ChunkWidth * (c.ChunkWidth / 2)
	}
	return world.Dimensions{Width: c.ChunkWidth, Height: h}
}

// Validate reports the first setting that cannot run.
func (c *Config) Validate() error {
	if c.WorldsDir == "" {
		return fmt.Errorf("worlds_dir is empty")
	}
	if c.World == "" || strings.ContainsAny(c.World, `/\`) {
		return fmt.Errorf("invalid world name %q", c.World)
	}
	if err := c.Dimensions().Validate(); err != nil {
		return err
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return c.Generation.Validate(c.Dimensions())
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("log level %q: %w", name, err)
	}
	return l, nil
}

// Merge applies file-loaded config values into cfg, but only for fields
// that were NOT explicitly set via CLI flags. explicitFlags contains the
// flag names that were explicitly provided on the command line.
func Merge(cfg *Config, fromFile *Config, explicitFlags map[string]bool) {
	if !explicitFlags["worlds"] {
		cfg.WorldsDir = fromFile.WorldsDir
	}
	if !explicitFlags["world"] {
		cfg.World = fromFile.World
	}
	if !explicitFlags["seed"] {
		cfg.Seed = fromFile.Seed
	}
	if !explicitFlags["chunk-width"] {
		cfg.ChunkWidth = fromFile.ChunkWidth
	}
	if !explicitFlags["chunk-height"] {
		cfg.ChunkHeight = fromFile.ChunkHeight
	}
	if !explicitFlags["radius"] {
		cfg.StreamRadius = fromFile.StreamRadius
	}
	if !explicitFlags["workers"] {
		cfg.Workers = fromFile.Workers
	}
	if !explicitFlags["log-level"] {
		cfg.LogLevel = fromFile.LogLevel
	}
	if !explicitFlags["generator"] {
		cfg.Generation.Type = fromFile.Generation.Type
	}
	cfg.Generation.SurfaceLevel = fromFile.Generation.SurfaceLevel
	cfg.Generation.SeaLevel = fromFile.Generation.SeaLevel
	cfg.Generation.TreeChance = fromFile.Generation.TreeChance
	cfg.Generation.FlatSurface = fromFile.Generation.FlatSurface
	cfg.BlockHealth = fromFile.BlockHealth
}
