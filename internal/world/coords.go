package world

import (
	"fmt"
	"math"
)

// ChunkLayer is the vertical chunk index written into chunk names. The world is a single layer of chunks.
const ChunkLayer = 0

// ChunkCoord identifies a chunk in chunk space (horizontal plane only).
type ChunkCoord struct {
	X, Y int
}

// Name returns the canonical chunk key, also used as the chunk's file name.
func (c ChunkCoord) Name() string {
	return fmt.Sprintf("Chunk_%d_%d_%d", c.X, c.Y, ChunkLayer)
}

func (c ChunkCoord) String() string {
	return c.Name()
}

// ParseChunkName is the inverse of ChunkCoord.Name.
func ParseChunkName(name string) (ChunkCoord, error) {
	var c ChunkCoord
	var z int
	if _, err := fmt.Sscanf(name, "Chunk_%d_%d_%d", &c.X, &c.Y, &z); err != nil {
		return ChunkCoord{}, fmt.Errorf("parse chunk name %q: %w", name, err)
	}
	if z != ChunkLayer {
		return ChunkCoord{}, fmt.Errorf("parse chunk name %q: unsupported layer %d", name, z)
	}
	return c, nil
}

// BlockPos is an integer block position in world space. Z is vertical.
type BlockPos struct {
	X, Y, Z int
}

// BlockAt converts a world-space position (in block units) to the block containing it.
// Halves round down, so 0.5 belongs to block 0.
func BlockAt(x, y, z float64) BlockPos {
	return BlockPos{
		X: int(math.Ceil(x - 0.5)),
		Y: int(math.Ceil(y - 0.5)),
		Z: int(math.Ceil(z - 0.5)),
	}
}

// ChunkOfBlock returns the chunk column containing a block for the given chunk width.
func ChunkOfBlock(b BlockPos, width int) ChunkCoord {
	return ChunkCoord{X: floorDiv(b.X, width), Y: floorDiv(b.Y, width)}
}

// ChunkAtPosition returns the chunk containing a world-space position.
func ChunkAtPosition(x, y float64, width int) ChunkCoord {
	return ChunkOfBlock(BlockAt(x, y, 0), width)
}

// Origin returns the world-space block coordinate of the chunk's first core column.
func (c ChunkCoord) Origin(width int) (int, int) {
	return c.X * width, c.Y * width
}

// LocalOf resolves a world block to its owning chunk and that chunk's padded grid coordinates.
// The +1 skips the padding ring; vertically, chunks are centered on world z = 0.
func LocalOf(b BlockPos, dims Dimensions) (ChunkCoord, int, int, int) {
	coord := ChunkOfBlock(b, dims.Width)
	ox, oy := coord.Origin(dims.Width)
	return coord, abs(b.X-ox) + 1, abs(b.Y-oy) + 1, b.Z + dims.Height/2
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func abs(a int) int {
	if a < 0 {
		return -a
	}
	return a
}
