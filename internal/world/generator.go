package world

import (
	"encoding/binary"
	"log/slog"
	"math"
	"math/rand/v2"

	"github.com/cespare/xxhash/v2"
)

// TerrainGenerator fills freshly allocated chunks.
type TerrainGenerator interface {
	// Populate generates the full padded grid of c from its coordinate and seed.
	Populate(c *Chunk)
	// SurfaceAt returns the local z of the surface block of a world column.
	SurfaceAt(worldX, worldY int, seed int64) int
}

// GenParams holds the fixed terrain constants.
type GenParams struct {
	// SurfaceLevel is the local z of the surface block where the height offset is zero.
	SurfaceLevel int
	// SeaLevel is the local z below which empty cells are filled with water.
	SeaLevel int

	// Scales and Weights are the low, medium and high frequency terms of the heightmap.
	Scales  [3]float64
	Weights [3]float64
	// The detail term is clamped to [0, DetailMax] before weighting.
	DetailScale  float64
	DetailWeight float64
	DetailMax    float64

	TreeChance   float64
	LeafChance   float64
	TrunkMin     int
	TrunkSpread  int
	CanopyMin    int
	CanopySpread int
	// Trees are only planted this far inside the padded grid on X and Y.
	TreeMarginX int
	TreeMarginY int
}

// DefaultGenParams returns the standard terrain constants.
func DefaultGenParams() GenParams {
	return GenParams{
		SurfaceLevel: 30,
		SeaLevel:     24,
		Scales:       [3]float64{0.01, 0.02, 0.04},
		Weights:      [3]float64{16, 8, 4},
		DetailScale:  0.05,
		DetailWeight: 4,
		DetailMax:    5,
		TreeChance:   0.03,
		LeafChance:   0.8,
		TrunkMin:     4,
		TrunkSpread:  4,
		CanopyMin:    2,
		CanopySpread: 1,
		TreeMarginX:  3,
		TreeMarginY:  2,
	}
}

// Generator is the noise heightmap terrain generator with stochastic trees.
type Generator struct {
	Params GenParams
	Log    *slog.Logger
}

// NewGenerator creates a generator. A nil logger falls back to slog.Default().
func NewGenerator(params GenParams, log *slog.Logger) *Generator {
	if log == nil {
		log = slog.Default()
	}
	return &Generator{Params: params, Log: log}
}

// HeightAt returns the integer height offset of a world column. It depends on nothing but
// the column and the seed, which keeps chunk borders seamless.
func (g *Generator) HeightAt(worldX, worldY int, seed int64) int {
	p := &g.Params
	x, y := float64(worldX), float64(worldY)
	v := 0.0
	for i, s := range p.Scales {
		v += Noise2D(x*s, y*s, seed+int64(i*131)) * p.Weights[i]
	}
	detail := Noise2D(x*p.DetailScale, y*p.DetailScale, seed+int64(len(p.Scales)*131))
	v += math.Max(0, math.Min(p.DetailMax, detail)) * p.DetailWeight
	return int(math.Floor(v))
}

// SurfaceAt returns the local z of the surface block of a world column.
func (g *Generator) SurfaceAt(worldX, worldY int, seed int64) int {
	return g.Params.SurfaceLevel + g.HeightAt(worldX, worldY, seed)
}

// Heightmap samples every column of the padded grid of the chunk at coord, indexed y + x*extendedWidth.
func (g *Generator) Heightmap(coord ChunkCoord, dims Dimensions, seed int64) []int {
	ew := dims.ExtendedWidth()
	ox, oy := coord.Origin(dims.Width)
	hm := make([]int, ew*ew)
	for x := 0; x < ew; x++ {
		for y := 0; y < ew; y++ {
			// padded column 1 is the chunk origin
			hm[y+x*ew] = g.HeightAt(ox+x-1, oy+y-1, seed)
		}
	}
	return hm
}

// Populate generates terrain and trees for c.
func (g *Generator) Populate(c *Chunk) {
	hm := g.Heightmap(c.Coord, c.dims, c.seed)
	g.FillColumns(c, hm)
	g.PlaceTrees(c, hm, RandomFor(c.Coord, c.seed))
	c.dirty = true
}

// FillColumns assigns every cell of the padded grid from the heightmap.
func (g *Generator) FillColumns(c *Chunk, hm []int) {
	d := c.dims
	ew := d.ExtendedWidth()
	for x := 0; x < ew; x++ {
		for y := 0; y < ew; y++ {
			col := y + x*ew
			if col >= len(hm) {
				g.Log.Warn("heightmap index out of bounds", "chunk", c.Coord, "index", col, "len", len(hm))
				continue
			}
			surface := g.Params.SurfaceLevel + hm[col]
			for z := 0; z < d.Height; z++ {
				idx, ok := d.Index(x, y, z)
				if !ok {
					g.Log.Warn("grid index out of bounds", "chunk", c.Coord, "x", x, "y", y, "z", z)
					break
				}
				switch {
				case z == surface:
					c.blocks[idx] = BlockTypeGrass
				case z == surface-1:
					c.blocks[idx] = BlockTypeDirt
				case z < surface-1:
					c.blocks[idx] = BlockTypeStone
				case z < g.Params.SeaLevel && c.blocks[idx] == BlockTypeAir:
					c.blocks[idx] = BlockTypeWater
				default:
					c.blocks[idx] = BlockTypeAir
				}
			}
		}
	}
}

// PlaceTrees plants trees on interior columns whose surface sits right below the planting level,
// drawing every decision from rng in a fixed order.
func (g *Generator) PlaceTrees(c *Chunk, hm []int, rng *rand.Rand) {
	p := &g.Params
	d := c.dims
	ew := d.ExtendedWidth()

	c.trees = c.trees[:0]
	for x := p.TreeMarginX; x < d.Width-p.TreeMarginX; x++ {
		for y := p.TreeMarginY; y < d.Width-p.TreeMarginY; y++ {
			col := y + x*ew
			if col < 0 || col >= len(hm) {
				g.Log.Warn("heightmap index out of bounds", "chunk", c.Coord, "index", col, "len", len(hm))
				continue
			}
			plant := p.SurfaceLevel + 1 + hm[col]
			if plant < 0 || plant >= d.Height {
				continue
			}
			if rng.Float64() < p.TreeChance {
				c.trees = append(c.trees, Tree{Base: BlockPos{X: x, Y: y, Z: plant}})
			}
		}
	}

	for i := range c.trees {
		g.growTree(c, &c.trees[i], rng)
	}
}

func (g *Generator) growTree(c *Chunk, t *Tree, rng *rand.Rand) {
	p := &g.Params
	d := c.dims
	pos := t.Base

	height := int(rng.Float64()*float64(p.TrunkSpread)) + p.TrunkMin
	rx := int(rng.Float64()*float64(p.CanopySpread)) + p.CanopyMin
	ry := int(rng.Float64()*float64(p.CanopySpread)) + p.CanopyMin
	rz := int(rng.Float64()*float64(p.CanopySpread)) + p.CanopyMin
	radius := math.Sqrt(float64(rx*rx + ry*ry + rz*rz))
	reach := int(radius)

	top := pos.Z + height
	t.Height = height
	t.Radius = radius
	if top+reach >= d.Height-1 {
		g.Log.Debug("tree exceeds chunk ceiling", "chunk", c.Coord, "x", pos.X, "y", pos.Y, "top", top+reach)
		return
	}
	t.Grown = true

	for dx := -reach; dx <= reach; dx++ {
		for dy := -reach; dy <= reach; dy++ {
			for dz := -reach; dz <= reach; dz++ {
				if math.Sqrt(float64(dx*dx+dy*dy+dz*dz)) > radius {
					continue
				}
				leaf := rng.Float64() < p.LeafChance
				idx, ok := d.Index(pos.X+dx, pos.Y+dy, top+dz)
				if !ok {
					g.Log.Debug("leaf outside grid", "chunk", c.Coord, "x", pos.X+dx, "y", pos.Y+dy, "z", top+dz)
					continue
				}
				if leaf && c.blocks[idx] == BlockTypeAir {
					c.blocks[idx] = BlockTypeLeaves
				}
			}
		}
	}

	for z := pos.Z; z < top; z++ {
		idx, ok := d.Index(pos.X, pos.Y, z)
		if !ok {
			g.Log.Warn("trunk index out of bounds", "chunk", c.Coord, "x", pos.X, "y", pos.Y, "z", z)
			continue
		}
		c.blocks[idx] = BlockTypeWood
	}
}

// RandomFor returns the deterministic random stream of a chunk.
func RandomFor(coord ChunkCoord, seed int64) *rand.Rand {
	var buf [24]byte
	binary.LittleEndian.PutUint64(buf[0:], uint64(seed))
	binary.LittleEndian.PutUint64(buf[8:], uint64(int64(coord.X)))
	binary.LittleEndian.PutUint64(buf[16:], uint64(int64(coord.Y)))
	return rand.New(rand.NewPCG(xxhash.Sum64(buf[:]), uint64(seed)))
}

// FlatGenerator produces a flat stone/dirt/grass world with the surface at a fixed local z.
type FlatGenerator struct {
	Surface int
}

// NewFlatGenerator creates a flat generator.
func NewFlatGenerator(surface int) *FlatGenerator {
	return &FlatGenerator{Surface: surface}
}

// SurfaceAt returns the fixed surface z.
func (f *FlatGenerator) SurfaceAt(int, int, int64) int {
	return f.Surface
}

// Populate fills every column of c up to the surface.
func (f *FlatGenerator) Populate(c *Chunk) {
	d := c.dims
	ew := d.ExtendedWidth()
	for x := 0; x < ew; x++ {
		for y := 0; y < ew; y++ {
			for z := 0; z <= f.Surface && z < d.Height; z++ {
				idx, _ := d.Index(x, y, z)
				switch {
				case z == f.Surface:
					c.blocks[idx] = BlockTypeGrass
				case z == f.Surface-1:
					c.blocks[idx] = BlockTypeDirt
				default:
					c.blocks[idx] = BlockTypeStone
				}
			}
		}
	}
	c.dirty = true
}
