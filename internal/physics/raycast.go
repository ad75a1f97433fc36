package physics

import (
	"github.com/go-gl/mathgl/mgl64"

	"tradecraft/internal/profiling"
	"tradecraft/internal/world"
)

const (
	MinReachDistance = 0.1
	MaxReachDistance = 5.0

	stepSize = 0.02
)

// BlockSource answers which block holds a world position.
type BlockSource interface {
	BlockAt(pos mgl64.Vec3) world.BlockType
}

// RaycastResult stores the result of a raycast operation
type RaycastResult struct {
	Hit bool
	// Block is the first targetable block along the ray.
	Block world.BlockPos
	ID    world.BlockType
	// Adjacent is the last block the ray passed through before Block.
	Adjacent world.BlockPos
	Distance float64
}

// Targetable reports whether a ray stops at a block. Air and water are passed through.
func Targetable(id world.BlockType) bool {
	return id != world.BlockTypeAir && id != world.BlockTypeWater
}

// Center returns the world position at the middle of a block.
func Center(b world.BlockPos) mgl64.Vec3 {
	return mgl64.Vec3{float64(b.X), float64(b.Y), float64(b.Z)}
}

// Raycast marches from start along dir (expected normalized) and returns the first targetable
// block between minDist and maxDist.
func Raycast(src BlockSource, start, dir mgl64.Vec3, minDist, maxDist float64) RaycastResult {
	defer profiling.Track("physics.Raycast")()
	steps := int(maxDist / stepSize)

	// the block holding start never counts as a hit
	last := world.BlockAt(start.X(), start.Y(), start.Z())
	for i := 0; i <= steps; i++ {
		dist := float64(i) * stepSize
		if dist < minDist {
			continue
		}
		pos := start.Add(dir.Mul(dist))
		b := world.BlockAt(pos.X(), pos.Y(), pos.Z())
		if b == last {
			continue
		}
		id := src.BlockAt(Center(b))
		if Targetable(id) {
			return RaycastResult{Hit: true, Block: b, ID: id, Adjacent: last, Distance: dist}
		}
		last = b
	}
	return RaycastResult{}
}
