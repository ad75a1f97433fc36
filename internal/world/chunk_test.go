package world

import (
	"errors"
	"testing"
)

func TestDimensionsIndex(t *testing.T) {
	d := DefaultDimensions()
	if d.Width != 16 || d.Height != 128 {
		t.Fatalf("default dimensions: got %dx%d, want 16x128", d.Width, d.Height)
	}
	if got, want := d.Volume(), 18*18*128; got != want {
		t.Fatalf("volume: got %d, want %d", got, want)
	}

	cases := []struct {
		x, y, z int
		want    int
	}{
		{0, 0, 0, 0},
		{0, 0, 5, 5},
		{0, 1, 0, 128},
		{1, 0, 0, 18 * 128},
		{17, 17, 127, 127 + 17*128 + 17*18*128},
	}
	for _, tc := range cases {
		idx, ok := d.Index(tc.x, tc.y, tc.z)
		if !ok || idx != tc.want {
			t.Errorf("Index(%d,%d,%d): got %d,%v want %d", tc.x, tc.y, tc.z, idx, ok, tc.want)
		}
	}

	for _, bad := range [][3]int{{-1, 0, 0}, {18, 0, 0}, {0, 18, 0}, {0, 0, 128}, {0, 0, -1}} {
		if _, ok := d.Index(bad[0], bad[1], bad[2]); ok {
			t.Errorf("Index(%v) should be out of bounds", bad)
		}
	}
}

func TestDimensionsValidate(t *testing.T) {
	if err := DefaultDimensions().Validate(); err != nil {
		t.Fatalf("default dimensions invalid: %v", err)
	}
	if err := (Dimensions{Width: 0, Height: 10}).Validate(); err == nil {
		t.Fatalf("zero width should be rejected")
	}
}

func TestNewChunkAllAir(t *testing.T) {
	c := NewChunk(ChunkCoord{X: 1, Y: 2}, Dimensions{Width: 4, Height: 8}, 7)
	if n := c.CountBlocks(BlockTypeAir); n != 6*6*8 {
		t.Fatalf("air cells: got %d, want %d", n, 6*6*8)
	}
	if !c.IsDirty() {
		t.Fatalf("new chunk should need meshing")
	}
	if ox, oy := c.Origin(); ox != 4 || oy != 8 {
		t.Fatalf("origin: got (%d,%d), want (4,8)", ox, oy)
	}
}

func TestSetAndGetBlock(t *testing.T) {
	c := NewChunk(ChunkCoord{}, Dimensions{Width: 4, Height: 8}, 0)
	if err := c.SetBlock(2, 3, 4, BlockTypeStone); err != nil {
		t.Fatalf("SetBlock: %v", err)
	}
	if got := c.GetBlock(2, 3, 4); got != BlockTypeStone {
		t.Fatalf("GetBlock: got %d, want %d", got, BlockTypeStone)
	}
	if got := c.GetBlock(-1, 0, 0); got != BlockTypeAir {
		t.Fatalf("out of grid read: got %d, want air", got)
	}
	if err := c.SetBlock(0, 0, 8, BlockTypeStone); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("out of grid write: got %v, want ErrOutOfBounds", err)
	}
}

func TestBreakAddDamage(t *testing.T) {
	c := NewChunk(ChunkCoord{}, Dimensions{Width: 4, Height: 8}, 0)
	c.SetHealthTable([]int32{0, 3, 3, 5, 4, 1, 4, 0})

	if err := c.AddBlock(1, 1, 1, BlockTypeStone); err != nil {
		t.Fatalf("AddBlock: %v", err)
	}
	if got := c.Health(1, 1, 1); got != 5 {
		t.Fatalf("health after add: got %d, want 5", got)
	}

	left, err := c.DealDamage(1, 1, 1, 2)
	if err != nil {
		t.Fatalf("DealDamage: %v", err)
	}
	if left != 3 {
		t.Fatalf("health after damage: got %d, want 3", left)
	}
	if got := c.GetBlock(1, 1, 1); got != BlockTypeStone {
		t.Fatalf("damage must not remove the block, got %d", got)
	}

	c.SetClean()
	old, err := c.BreakBlock(1, 1, 1)
	if err != nil {
		t.Fatalf("BreakBlock: %v", err)
	}
	if old != BlockTypeStone {
		t.Fatalf("broken id: got %d, want %d", old, BlockTypeStone)
	}
	if c.GetBlock(1, 1, 1) != BlockTypeAir || c.Health(1, 1, 1) != 0 {
		t.Fatalf("cell not cleared after break")
	}
	if !c.IsDirty() {
		t.Fatalf("break should mark the chunk dirty")
	}

	if _, err := c.BreakBlock(9, 9, 9); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("break out of grid: got %v", err)
	}
	if _, err := c.DealDamage(9, 9, 9, 1); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("damage out of grid: got %v", err)
	}
}

func TestRefreshHealth(t *testing.T) {
	c := NewChunk(ChunkCoord{}, Dimensions{Width: 2, Height: 4}, 0)
	c.SetHealthTable([]int32{0, 7})
	_ = c.SetBlock(1, 1, 1, BlockTypeGrass)
	_ = c.SetBlock(1, 1, 2, BlockTypeWater)

	idx, _ := c.Dims().Index(1, 1, 1)
	c.RefreshHealth(idx)
	if got := c.Health(1, 1, 1); got != 7 {
		t.Fatalf("refreshed health: got %d, want 7", got)
	}

	// water has no table entry and keeps its value
	idx, _ = c.Dims().Index(1, 1, 2)
	c.RefreshHealth(idx)
	if got := c.Health(1, 1, 2); got != 0 {
		t.Fatalf("health without entry: got %d, want 0", got)
	}
}

func TestLoadBlockIDs(t *testing.T) {
	dims := Dimensions{Width: 2, Height: 3}
	src := NewChunk(ChunkCoord{X: 5}, dims, 0)
	NewFlatGenerator(1).Populate(src)

	dst := NewChunk(ChunkCoord{X: 5}, dims, 0)
	if err := dst.LoadBlockIDs(src.BlockIDs()); err != nil {
		t.Fatalf("LoadBlockIDs: %v", err)
	}
	if hashChunkBlocks(src) != hashChunkBlocks(dst) {
		t.Fatalf("loaded grid differs from source")
	}

	if err := dst.LoadBlockIDs(make([]BlockType, 3)); !errors.Is(err, ErrGridSize) {
		t.Fatalf("short sequence: got %v, want ErrGridSize", err)
	}
}

func TestBlockIDsIsCopy(t *testing.T) {
	c := NewChunk(ChunkCoord{}, Dimensions{Width: 2, Height: 2}, 0)
	ids := c.BlockIDs()
	ids[0] = BlockTypeStone
	if c.GetBlock(0, 0, 0) != BlockTypeAir {
		t.Fatalf("BlockIDs must not alias the grid")
	}
}

func TestOccludes(t *testing.T) {
	for _, b := range []BlockType{BlockTypeGrass, BlockTypeDirt, BlockTypeStone, BlockTypeWood, BlockTypePlanks, BlockTypeWater} {
		if !b.Occludes() {
			t.Errorf("block %d should occlude", b)
		}
	}
	if BlockTypeAir.Occludes() || BlockTypeLeaves.Occludes() {
		t.Errorf("air and leaves must not occlude")
	}
}

func TestFaceOffsetsAreUnitAndDistinct(t *testing.T) {
	seen := map[[3]int]bool{}
	for f := BlockFace(0); f < NumFaces; f++ {
		dx, dy, dz := f.Offset()
		if abs(dx)+abs(dy)+abs(dz) != 1 {
			t.Fatalf("face %s offset not unit: %d,%d,%d", f, dx, dy, dz)
		}
		key := [3]int{dx, dy, dz}
		if seen[key] {
			t.Fatalf("face %s duplicates an offset", f)
		}
		seen[key] = true
		if n := f.Normal(); n.Len() != 1 {
			t.Fatalf("face %s normal length %f", f, n.Len())
		}
	}
}
