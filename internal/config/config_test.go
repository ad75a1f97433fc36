package config

import (
	"os"
	"path/filepath"
	"testing"

	"tradecraft/internal/world"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if d := cfg.Dimensions(); d != world.DefaultDimensions() {
		t.Fatalf("default dimensions: got %+v, want %+v", d, world.DefaultDimensions())
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "tradecraft.yaml", `
world: island
seed: 77
stream_radius: 3
generation:
  type: flat
  flat_surface: 40
block_health:
  stone: 20
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.World != "island" || cfg.Seed != 77 || cfg.StreamRadius != 3 {
		t.Fatalf("yaml values: %+v", cfg)
	}
	if cfg.Generation.Type != GeneratorFlat || cfg.Generation.FlatSurface != 40 {
		t.Fatalf("generation: %+v", cfg.Generation)
	}
	// untouched keys keep their defaults
	if cfg.ChunkWidth != 16 || cfg.Generation.SeaLevel != 24 {
		t.Fatalf("defaults lost: width %d sea %d", cfg.ChunkWidth, cfg.Generation.SeaLevel)
	}
	if cfg.BlockHealth["stone"] != 20 {
		t.Fatalf("block health: %v", cfg.BlockHealth)
	}
	if _, ok := cfg.Generation.NewGenerator(nil).(*world.FlatGenerator); !ok {
		t.Fatalf("flat generator not selected")
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "tradecraft.toml", `
worlds_dir = "/tmp/w"
chunk_width = 8
stream_radius = 100
log_level = "debug"

[generation]
tree_chance = 0.5
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WorldsDir != "/tmp/w" || cfg.ChunkWidth != 8 || cfg.LogLevel != "debug" {
		t.Fatalf("toml values: %+v", cfg)
	}
	if cfg.StreamRadius != MaxStreamRadius {
		t.Fatalf("radius not clamped: got %d, want %d", cfg.StreamRadius, MaxStreamRadius)
	}
	if d := cfg.Dimensions(); d.Height != 32 {
		t.Fatalf("derived height: got %d, want 32", d.Height)
	}
	if got := cfg.Generation.Params().TreeChance; got != 0.5 {
		t.Fatalf("tree chance: got %v, want 0.5", got)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(writeFile(t, "c.json", "{}")); err == nil {
		t.Fatalf("json should be rejected")
	}
	if _, err := Load(writeFile(t, "c.yaml", "seed: [")); err == nil {
		t.Fatalf("broken yaml should fail")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("missing file should fail")
	}
}

func TestSetStreamRadiusClamp(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SetStreamRadius(0)
	if cfg.StreamRadius != MinStreamRadius {
		t.Fatalf("low clamp: got %d", cfg.StreamRadius)
	}
	cfg.SetStreamRadius(5)
	if cfg.StreamRadius != 5 {
		t.Fatalf("in range: got %d", cfg.StreamRadius)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"world name":  func(c *Config) { c.World = "a/b" },
		"width":       func(c *Config) { c.ChunkWidth = 0 },
		"log level":   func(c *Config) { c.LogLevel = "loud" },
		"generator":   func(c *Config) { c.Generation.Type = "caves" },
		"surface":     func(c *Config) { c.Generation.SurfaceLevel = 500 },
		"tree chance": func(c *Config) { c.Generation.TreeChance = 2 },
	}
	for name, mutate := range cases {
		cfg := DefaultConfig()
		mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected a validation error", name)
		}
	}
}

func TestMergeKeepsExplicitFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.World = "from-flag"
	cfg.Seed = 5

	file := DefaultConfig()
	file.World = "from-file"
	file.Seed = 9
	file.StreamRadius = 4

	Merge(cfg, file, map[string]bool{"world": true})
	if cfg.World != "from-flag" {
		t.Fatalf("explicit flag overwritten: %q", cfg.World)
	}
	if cfg.Seed != 9 || cfg.StreamRadius != 4 {
		t.Fatalf("file values not applied: seed %d radius %d", cfg.Seed, cfg.StreamRadius)
	}
}
