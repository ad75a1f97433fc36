package world

import (
	"errors"
	"fmt"
)

// ErrOutOfBounds is returned when a grid coordinate does not address a cell of the chunk.
var ErrOutOfBounds = errors.New("grid index out of bounds")

// ErrGridSize is returned when a block id sequence does not match the chunk's grid volume.
var ErrGridSize = errors.New("block id sequence does not match grid size")

// Dimensions describes the core size of a chunk. The stored grid is one block wider on every
// horizontal side.
type Dimensions struct {
	Width  int
	Height int
}

// DefaultDimensions returns 16 wide chunks that are 16*(16/2) blocks tall.
func DefaultDimensions() Dimensions {
	return Dimensions{Width: 16, Height: 16 * (16 / 2)}
}

// ExtendedWidth is the stored grid width including the padding ring.
func (d Dimensions) ExtendedWidth() int {
	return d.Width + 2
}

// Volume is the number of cells in the stored grid.
func (d Dimensions) Volume() int {
	ew := d.ExtendedWidth()
	return ew * ew * d.Height
}

// Validate reports whether the dimensions can hold a chunk.
func (d Dimensions) Validate() error {
	if d.Width < 1 || d.Height < 1 {
		return fmt.Errorf("invalid chunk dimensions %dx%d", d.Width, d.Height)
	}
	return nil
}

// Index converts padded grid coordinates to the flat index. z varies fastest.
func (d Dimensions) Index(x, y, z int) (int, bool) {
	ew := d.ExtendedWidth()
	if x < 0 || x >= ew || y < 0 || y >= ew || z < 0 || z >= d.Height {
		return -1, false
	}
	idx := z + y*d.Height + x*ew*d.Height
	if idx < 0 || idx >= d.Volume() {
		return -1, false
	}
	return idx, true
}

// Chunk owns the padded block grid of one chunk column.
type Chunk struct {
	Coord ChunkCoord

	dims   Dimensions
	seed   int64
	blocks []BlockType

	// runtime only, never persisted
	health      []int32
	healthTable []int32

	trees []Tree
	dirty bool
}

// NewChunk allocates an all-air chunk at the given chunk coordinates.
func NewChunk(coord ChunkCoord, dims Dimensions, seed int64) *Chunk {
	return &Chunk{
		Coord:  coord,
		dims:   dims,
		seed:   seed,
		blocks: make([]BlockType, dims.Volume()),
		health: make([]int32, dims.Volume()),
		dirty:  true,
	}
}

// Dims returns the chunk dimensions.
func (c *Chunk) Dims() Dimensions {
	return c.dims
}

// Seed returns the world seed the chunk was created with.
func (c *Chunk) Seed() int64 {
	return c.seed
}

// Origin returns the world-space block coordinate of core column (1, 1).
func (c *Chunk) Origin() (int, int) {
	return c.Coord.Origin(c.dims.Width)
}

// GetBlock returns the block at padded grid coordinates, or air outside the grid.
func (c *Chunk) GetBlock(x, y, z int) BlockType {
	idx, ok := c.dims.Index(x, y, z)
	if !ok {
		return BlockTypeAir
	}
	return c.blocks[idx]
}

// SetBlock writes a block at padded grid coordinates.
func (c *Chunk) SetBlock(x, y, z int, b BlockType) error {
	idx, ok := c.dims.Index(x, y, z)
	if !ok {
		return fmt.Errorf("set block (%d,%d,%d) in %s: %w", x, y, z, c.Coord, ErrOutOfBounds)
	}
	if c.blocks[idx] != b {
		c.blocks[idx] = b
		c.dirty = true
	}
	return nil
}

// BlockByIndex returns the block at a flat grid index, or air for an invalid index.
func (c *Chunk) BlockByIndex(idx int) BlockType {
	if idx < 0 || idx >= len(c.blocks) {
		return BlockTypeAir
	}
	return c.blocks[idx]
}

// BreakBlock clears a cell and returns the id it held.
func (c *Chunk) BreakBlock(x, y, z int) (BlockType, error) {
	idx, ok := c.dims.Index(x, y, z)
	if !ok {
		return BlockTypeAir, fmt.Errorf("break block (%d,%d,%d) in %s: %w", x, y, z, c.Coord, ErrOutOfBounds)
	}
	old := c.blocks[idx]
	c.blocks[idx] = BlockTypeAir
	c.health[idx] = 0
	c.dirty = true
	return old, nil
}

// AddBlock places a block, replacing whatever was there.
func (c *Chunk) AddBlock(x, y, z int, b BlockType) error {
	idx, ok := c.dims.Index(x, y, z)
	if !ok {
		return fmt.Errorf("add block (%d,%d,%d) in %s: %w", x, y, z, c.Coord, ErrOutOfBounds)
	}
	c.blocks[idx] = b
	c.health[idx] = c.maxHealth(b)
	c.dirty = true
	return nil
}

// DealDamage subtracts damage from a cell's current health and returns what is left.
// The block itself is not removed; callers break it once health drops to zero or below.
func (c *Chunk) DealDamage(x, y, z int, damage int32) (int32, error) {
	idx, ok := c.dims.Index(x, y, z)
	if !ok {
		return 0, fmt.Errorf("damage block (%d,%d,%d) in %s: %w", x, y, z, c.Coord, ErrOutOfBounds)
	}
	c.health[idx] -= damage
	return c.health[idx], nil
}

// Health returns the cached current health of a cell.
func (c *Chunk) Health(x, y, z int) int32 {
	idx, ok := c.dims.Index(x, y, z)
	if !ok {
		return 0
	}
	return c.health[idx]
}

// SetHealthTable sets the per-world health table indexed by block id.
func (c *Chunk) SetHealthTable(table []int32) {
	c.healthTable = append(c.healthTable[:0], table...)
}

// RefreshHealth resets the cached health of the cell at idx from the health table.
// Ids without a table entry keep their current value.
func (c *Chunk) RefreshHealth(idx int) {
	if idx < 0 || idx >= len(c.blocks) {
		return
	}
	id := c.blocks[idx]
	if id >= 0 && int(id) < len(c.healthTable) {
		c.health[idx] = c.healthTable[id]
	}
}

func (c *Chunk) maxHealth(b BlockType) int32 {
	if b >= 0 && int(b) < len(c.healthTable) {
		return c.healthTable[b]
	}
	return 0
}

// BlockIDs returns a copy of the flat grid in storage order.
func (c *Chunk) BlockIDs() []BlockType {
	out := make([]BlockType, len(c.blocks))
	copy(out, c.blocks)
	return out
}

// LoadBlockIDs replaces the grid with a saved id sequence. Loaded data is authoritative, so the
// sequence must cover the grid exactly.
func (c *Chunk) LoadBlockIDs(ids []BlockType) error {
	if len(ids) != len(c.blocks) {
		return fmt.Errorf("load %s: got %d ids, want %d: %w", c.Coord, len(ids), len(c.blocks), ErrGridSize)
	}
	copy(c.blocks, ids)
	clear(c.health)
	c.trees = nil
	c.dirty = true
	return nil
}

// Tree is a tree center found during generation. Positions are padded grid coordinates.
type Tree struct {
	// Base is the lowest trunk cell, one above the surface.
	Base   BlockPos
	Height int
	Radius float64
	// Grown is false when the tree did not fit under the chunk ceiling.
	Grown bool
}

// CanopyCenter returns the center of the leaf ellipsoid.
func (t Tree) CanopyCenter() BlockPos {
	return BlockPos{X: t.Base.X, Y: t.Base.Y, Z: t.Base.Z + t.Height}
}

// Trees returns the trees found by the last generation pass. Generation-time only; loaded
// chunks have none.
func (c *Chunk) Trees() []Tree {
	return c.trees
}

// IsDirty returns whether the chunk has been modified since it was last meshed.
func (c *Chunk) IsDirty() bool {
	return c.dirty
}

// SetClean marks the chunk as meshed.
func (c *Chunk) SetClean() {
	c.dirty = false
}

// CountBlocks returns how many cells hold the given id.
func (c *Chunk) CountBlocks(b BlockType) int {
	n := 0
	for _, id := range c.blocks {
		if id == b {
			n++
		}
	}
	return n
}
