package world

import (
	"github.com/go-gl/mathgl/mgl32"
)

// BlockType is a block id as stored in a chunk grid and in chunk files.
type BlockType int32

const (
	BlockTypeAir BlockType = iota
	BlockTypeGrass
	BlockTypeDirt
	BlockTypeStone
	BlockTypeWood
	BlockTypeLeaves
	BlockTypePlanks
	BlockTypeWater
)

// BlockTypeSeeThrough is the one non-air id that does not occlude its neighbors' faces.
const BlockTypeSeeThrough = BlockTypeLeaves

// Occludes reports whether a block hides the faces of blocks next to it.
func (b BlockType) Occludes() bool {
	return b != BlockTypeAir && b != BlockTypeSeeThrough
}

// BlockFace identifies a face of a block. The order is the emission order used by the mesher.
type BlockFace int

const (
	FaceTop BlockFace = iota
	FaceBottom
	FaceFront // +Y
	FaceBack  // -Y
	FaceRight // +X
	FaceLeft  // -X
)

// NumFaces is the number of axis-aligned faces of a block.
const NumFaces = 6

// Offset returns the (dx, dy, dz) step towards the neighbor sharing this face.
func (f BlockFace) Offset() (int, int, int) {
	switch f {
	case FaceTop:
		return 0, 0, 1
	case FaceBottom:
		return 0, 0, -1
	case FaceFront:
		return 0, 1, 0
	case FaceBack:
		return 0, -1, 0
	case FaceRight:
		return 1, 0, 0
	case FaceLeft:
		return -1, 0, 0
	}
	return 0, 0, 0
}

// Normal returns the outward unit normal of the face.
func (f BlockFace) Normal() mgl32.Vec3 {
	dx, dy, dz := f.Offset()
	return mgl32.Vec3{float32(dx), float32(dy), float32(dz)}
}

func (f BlockFace) String() string {
	switch f {
	case FaceTop:
		return "top"
	case FaceBottom:
		return "bottom"
	case FaceFront:
		return "front"
	case FaceBack:
		return "back"
	case FaceRight:
		return "right"
	case FaceLeft:
		return "left"
	default:
		return "unknown"
	}
}
