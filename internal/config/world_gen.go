package config

import (
	"fmt"
	"log/slog"

	"tradecraft/internal/world"
)

const (
	GeneratorNoise = "noise"
	GeneratorFlat  = "flat"
)

// Generation holds world generation configuration
type Generation struct {
	// Type is "noise" or "flat".
	Type         string  `yaml:"type" toml:"type"`
	SurfaceLevel int     `yaml:"surface_level" toml:"surface_level"`
	SeaLevel     int     `yaml:"sea_level" toml:"sea_level"`
	TreeChance   float64 `yaml:"tree_chance" toml:"tree_chance"`
	// FlatSurface is the surface z of the flat generator.
	FlatSurface int `yaml:"flat_surface" toml:"flat_surface"`
}

// DefaultGeneration matches world.DefaultGenParams.
func DefaultGeneration() Generation {
	p := world.DefaultGenParams()
	return Generation{
		Type:         GeneratorNoise,
		SurfaceLevel: p.SurfaceLevel,
		SeaLevel:     p.SeaLevel,
		TreeChance:   p.TreeChance,
		FlatSurface:  p.SurfaceLevel,
	}
}

// Validate checks the settings against the chunk dimensions.
func (g Generation) Validate(dims world.Dimensions) error {
	switch g.Type {
	case GeneratorNoise, GeneratorFlat:
	default:
		return fmt.Errorf("unknown generator %q", g.Type)
	}
	if g.SurfaceLevel < 1 || g.SurfaceLevel >= dims.Height {
		return fmt.Errorf("surface level %d outside chunk height %d", g.SurfaceLevel, dims.Height)
	}
	if g.FlatSurface < 0 || g.FlatSurface >= dims.Height {
		return fmt.Errorf("flat surface %d outside chunk height %d", g.FlatSurface, dims.Height)
	}
	if g.TreeChance < 0 || g.TreeChance > 1 {
		return fmt.Errorf("tree chance %v outside [0,1]", g.TreeChance)
	}
	return nil
}

// Params returns the noise generator constants with these settings applied.
func (g Generation) Params() world.GenParams {
	p := world.DefaultGenParams()
	p.SurfaceLevel = g.SurfaceLevel
	p.SeaLevel = g.SeaLevel
	p.TreeChance = g.TreeChance
	return p
}

// NewGenerator builds the configured terrain generator.
func (g Generation) NewGenerator(log *slog.Logger) world.TerrainGenerator {
	if g.Type == GeneratorFlat {
		return world.NewFlatGenerator(g.FlatSurface)
	}
	return world.NewGenerator(g.Params(), log)
}
