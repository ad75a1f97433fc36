package registry

import (
	"fmt"
	"slices"

	"tradecraft/internal/world"
)

// BlockDefinition defines the properties of a block type
type BlockDefinition struct {
	ID   world.BlockType
	Name string

	// Health is the hit points a freshly placed block starts with.
	Health int32
	// Damage is dealt by the block's item when used as a tool.
	Damage int32
	// CanBreak lists the block ids the block's item is able to break.
	CanBreak []world.BlockType
	XP       int32

	IsSolid    bool
	SeeThrough bool
	TintColor  uint32
}

// Registry maps block ids to their definitions. The id doubles as the mesh section slot.
type Registry struct {
	Blocks     map[world.BlockType]*BlockDefinition
	BlockNames map[string]world.BlockType
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		Blocks:     make(map[world.BlockType]*BlockDefinition),
		BlockNames: make(map[string]world.BlockType),
	}
}

// RegisterBlock adds or replaces a definition.
func (r *Registry) RegisterBlock(def *BlockDefinition) {
	if old, ok := r.Blocks[def.ID]; ok {
		delete(r.BlockNames, old.Name)
	}
	r.Blocks[def.ID] = def
	r.BlockNames[def.Name] = def.ID
}

// Lookup returns the definition of a block by name.
func (r *Registry) Lookup(name string) (*BlockDefinition, bool) {
	id, ok := r.BlockNames[name]
	if !ok {
		return nil, false
	}
	return r.Blocks[id], true
}

// SetHealth overrides the health of a named block.
func (r *Registry) SetHealth(name string, health int32) error {
	def, ok := r.Lookup(name)
	if !ok {
		return fmt.Errorf("unknown block %q", name)
	}
	def.Health = health
	return nil
}

// Sections returns the number of mesh sections needed to hold every registered id.
func (r *Registry) Sections() int {
	n := 0
	for id := range r.Blocks {
		n = max(n, int(id)+1)
	}
	return n
}

// HealthTable returns the per-id health values chunks refresh from. Unregistered ids get 0.
func (r *Registry) HealthTable() []int32 {
	table := make([]int32, r.Sections())
	for id, def := range r.Blocks {
		table[id] = def.Health
	}
	return table
}

// TotalHealth returns the full health of a block id. Air reports 1 so callers never divide
// by zero when showing break progress.
func (r *Registry) TotalHealth(id world.BlockType) int32 {
	if id == world.BlockTypeAir {
		return 1
	}
	if def, ok := r.Blocks[id]; ok {
		return def.Health
	}
	return 1
}

// CanBreak reports whether the item of tool can break target.
func (r *Registry) CanBreak(tool, target world.BlockType) bool {
	def, ok := r.Blocks[tool]
	if !ok {
		return false
	}
	return slices.Contains(def.CanBreak, target)
}

// Names returns the registered block names ordered by id.
func (r *Registry) Names() []string {
	ids := make([]world.BlockType, 0, len(r.Blocks))
	for id := range r.Blocks {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = r.Blocks[id].Name
	}
	return names
}

// Default returns a registry holding the built-in blocks.
func Default() *Registry {
	r := NewRegistry()

	r.RegisterBlock(&BlockDefinition{
		ID:   world.BlockTypeAir,
		Name: "air",
	})

	r.RegisterBlock(&BlockDefinition{
		ID:        world.BlockTypeGrass,
		Name:      "grass",
		Health:    3,
		IsSolid:   true,
		TintColor: 0x7DFF5C,
	})

	r.RegisterBlock(&BlockDefinition{
		ID:        world.BlockTypeDirt,
		Name:      "dirt",
		Health:    3,
		IsSolid:   true,
		TintColor: 0x866043,
	})

	r.RegisterBlock(&BlockDefinition{
		ID:        world.BlockTypeStone,
		Name:      "stone",
		Health:    8,
		Damage:    2,
		CanBreak:  []world.BlockType{world.BlockTypeGrass, world.BlockTypeDirt, world.BlockTypeStone},
		XP:        1,
		IsSolid:   true,
		TintColor: 0x7F7F7F,
	})

	r.RegisterBlock(&BlockDefinition{
		ID:        world.BlockTypeWood,
		Name:      "wood",
		Health:    5,
		Damage:    1,
		CanBreak:  []world.BlockType{world.BlockTypeGrass, world.BlockTypeDirt, world.BlockTypeLeaves},
		IsSolid:   true,
		TintColor: 0x6B5133,
	})

	// Leaves are the only solid block neighbors can be seen through
	r.RegisterBlock(&BlockDefinition{
		ID:         world.BlockTypeLeaves,
		Name:       "leaves",
		Health:     1,
		IsSolid:    true,
		SeeThrough: true,
		TintColor:  0x48B518,
	})

	r.RegisterBlock(&BlockDefinition{
		ID:        world.BlockTypePlanks,
		Name:      "planks",
		Health:    4,
		Damage:    1,
		CanBreak:  []world.BlockType{world.BlockTypeWood, world.BlockTypeLeaves},
		IsSolid:   true,
		TintColor: 0xB8945F,
	})

	// Water cannot be mined
	r.RegisterBlock(&BlockDefinition{
		ID:        world.BlockTypeWater,
		Name:      "water",
		Health:    1000,
		TintColor: 0x3F76E4,
	})

	return r
}

// RGB splits a 0xRRGGBB tint into components in [0,1].
func (d *BlockDefinition) RGB() (float32, float32, float32) {
	return float32(d.TintColor>>16&0xFF) / 255, float32(d.TintColor>>8&0xFF) / 255, float32(d.TintColor&0xFF) / 255
}
