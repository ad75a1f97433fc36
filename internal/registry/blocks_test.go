package registry

import (
	"testing"

	"tradecraft/internal/world"
)

func TestDefaultRegistry(t *testing.T) {
	r := Default()
	if got, want := r.Sections(), int(world.BlockTypeWater)+1; got != want {
		t.Fatalf("sections: got %d, want %d", got, want)
	}

	table := r.HealthTable()
	if len(table) != r.Sections() {
		t.Fatalf("health table length: got %d, want %d", len(table), r.Sections())
	}
	if table[world.BlockTypeAir] != 0 {
		t.Fatalf("air health: got %d, want 0", table[world.BlockTypeAir])
	}
	if table[world.BlockTypeStone] != 8 {
		t.Fatalf("stone health: got %d, want 8", table[world.BlockTypeStone])
	}

	for id, def := range r.Blocks {
		if def.SeeThrough != (id == world.BlockTypeSeeThrough) {
			t.Fatalf("block %s see-through flag disagrees with world.BlockTypeSeeThrough", def.Name)
		}
	}
}

func TestRegistryNames(t *testing.T) {
	names := Default().Names()
	if names[0] != "air" || names[len(names)-1] != "water" {
		t.Fatalf("names not ordered by id: %v", names)
	}
}

func TestSetHealth(t *testing.T) {
	r := Default()
	if err := r.SetHealth("dirt", 9); err != nil {
		t.Fatalf("SetHealth: %v", err)
	}
	if got := r.HealthTable()[world.BlockTypeDirt]; got != 9 {
		t.Fatalf("dirt health: got %d, want 9", got)
	}
	if err := r.SetHealth("obsidian", 9); err == nil {
		t.Fatalf("unknown block should fail")
	}
}

func TestTotalHealth(t *testing.T) {
	r := Default()
	if got := r.TotalHealth(world.BlockTypeAir); got != 1 {
		t.Fatalf("air total health: got %d, want 1", got)
	}
	if got := r.TotalHealth(world.BlockTypeWood); got != 5 {
		t.Fatalf("wood total health: got %d, want 5", got)
	}
	if got := r.TotalHealth(world.BlockType(99)); got != 1 {
		t.Fatalf("unknown id total health: got %d, want 1", got)
	}
}

func TestRegisterReplacesName(t *testing.T) {
	r := NewRegistry()
	r.RegisterBlock(&BlockDefinition{ID: 1, Name: "a"})
	r.RegisterBlock(&BlockDefinition{ID: 1, Name: "b"})
	if _, ok := r.Lookup("a"); ok {
		t.Fatalf("stale name survived re-registration")
	}
	if def, ok := r.Lookup("b"); !ok || def.ID != 1 {
		t.Fatalf("lookup b: got %v, %v", def, ok)
	}
}

func TestCanBreak(t *testing.T) {
	r := Default()
	if !r.CanBreak(world.BlockTypeStone, world.BlockTypeDirt) {
		t.Fatalf("stone should break dirt")
	}
	if r.CanBreak(world.BlockTypeDirt, world.BlockTypeStone) {
		t.Fatalf("dirt should not break stone")
	}
}

func TestTintRGB(t *testing.T) {
	def := &BlockDefinition{TintColor: 0xFF8000}
	r, g, b := def.RGB()
	if r != 1 || g != float32(0x80)/255 || b != 0 {
		t.Fatalf("RGB() = %v %v %v", r, g, b)
	}
}
