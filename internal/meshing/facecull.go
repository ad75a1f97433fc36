package meshing

import (
	"log/slog"

	"tradecraft/internal/profiling"
	"tradecraft/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

// VertexStride is number of float32 per interleaved vertex (pos.xyz + normal.xyz + uv + face)
const VertexStride = 9

// MeshSection holds the geometry of every face drawn with one material.
type MeshSection struct {
	Vertices  []mgl32.Vec3
	Triangles []int32
	Normals   []mgl32.Vec3
	UVs       []mgl32.Vec2
	// Colors tag every vertex with its face index in the alpha channel.
	Colors [][4]uint8
}

// FaceCount returns the number of quads in the section.
func (s *MeshSection) FaceCount() int {
	return len(s.Vertices) / 4
}

// Empty reports whether the section has no geometry.
func (s *MeshSection) Empty() bool {
	return len(s.Vertices) == 0
}

// Interleave flattens the section into an indexed vertex buffer of VertexStride floats per vertex.
func (s *MeshSection) Interleave() []float32 {
	out := make([]float32, 0, len(s.Vertices)*VertexStride)
	for i, v := range s.Vertices {
		n := s.Normals[i]
		uv := s.UVs[i]
		out = append(out, v.X(), v.Y(), v.Z(), n.X(), n.Y(), n.Z(), uv.X(), uv.Y(), float32(s.Colors[i][3]))
	}
	return out
}

var quadTriangles = [6]int32{2, 1, 0, 0, 3, 2}

var quadUVs = [4]mgl32.Vec2{{0, 0}, {0, 1}, {1, 1}, {1, 0}}

// Cube corners around the voxel center. 0-3 are on -Y, 4-7 on +Y.
var cubeCorners = [8]mgl32.Vec3{
	{-0.5, -0.5, 0.5},
	{0.5, -0.5, 0.5},
	{0.5, -0.5, -0.5},
	{-0.5, -0.5, -0.5},
	{-0.5, 0.5, 0.5},
	{0.5, 0.5, 0.5},
	{0.5, 0.5, -0.5},
	{-0.5, 0.5, -0.5},
}

// faceCorners is the winding of each face, indexed by world.BlockFace.
var faceCorners = [world.NumFaces][4]int{
	world.FaceTop:    {4, 0, 1, 5},
	world.FaceBottom: {2, 3, 7, 6},
	world.FaceFront:  {5, 6, 7, 4},
	world.FaceBack:   {0, 3, 2, 1},
	world.FaceRight:  {1, 2, 6, 5},
	world.FaceLeft:   {4, 7, 3, 0},
}

// ExtractMesh builds one section per block id from the core region of c. A face is emitted when
// the neighbor across it does not occlude; padding cells carry the neighbor chunks' border so
// no lookup leaves the chunk. Each visited voxel's cached health is refreshed on the way.
func ExtractMesh(c *world.Chunk, sections int, log *slog.Logger) []MeshSection {
	defer profiling.Track("meshing.ExtractMesh")()
	if log == nil {
		log = slog.Default()
	}

	out := make([]MeshSection, sections)
	dims := c.Dims()
	missing := map[world.BlockType]bool{}

	for x := 1; x <= dims.Width; x++ {
		for y := 1; y <= dims.Width; y++ {
			for z := 0; z < dims.Height; z++ {
				idx, ok := dims.Index(x, y, z)
				if !ok {
					log.Warn("grid index out of bounds", "chunk", c.Coord, "x", x, "y", y, "z", z)
					break
				}
				c.RefreshHealth(idx)

				id := c.BlockByIndex(idx)
				if id == world.BlockTypeAir {
					continue
				}
				if id < 0 || int(id) >= sections {
					if !missing[id] {
						missing[id] = true
						log.Warn("no mesh section for block", "chunk", c.Coord, "block", id, "sections", sections)
					}
					continue
				}

				section := &out[id]
				center := mgl32.Vec3{float32(x - 1), float32(y - 1), float32(z)}
				for f := world.BlockFace(0); f < world.NumFaces; f++ {
					dx, dy, dz := f.Offset()
					// above and below the grid count as open air
					if c.GetBlock(x+dx, y+dy, z+dz).Occludes() {
						continue
					}
					emitFace(section, center, f)
				}
			}
		}
	}
	return out
}

func emitFace(s *MeshSection, center mgl32.Vec3, f world.BlockFace) {
	base := int32(len(s.Vertices))
	for _, t := range quadTriangles {
		s.Triangles = append(s.Triangles, base+t)
	}
	normal := f.Normal()
	color := [4]uint8{255, 255, 255, uint8(f)}
	for i, corner := range faceCorners[f] {
		s.Vertices = append(s.Vertices, center.Add(cubeCorners[corner]))
		s.Normals = append(s.Normals, normal)
		s.UVs = append(s.UVs, quadUVs[i])
		s.Colors = append(s.Colors, color)
	}
}
