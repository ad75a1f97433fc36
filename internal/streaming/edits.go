package streaming

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"tradecraft/internal/profiling"
	"tradecraft/internal/world"
)

// ErrNotLive is returned by edits that land in a chunk that is not live.
var ErrNotLive = errors.New("chunk not live")

// target is an edit resolved to its owning chunk and padded grid coordinates.
type target struct {
	coord      world.ChunkCoord
	lx, ly, lz int
}

// Resolve converts a world position in block units to the owning chunk and its local grid cell.
func (s *ChunkStreamer) Resolve(pos mgl64.Vec3) (world.ChunkCoord, int, int, int) {
	t := s.resolve(pos)
	return t.coord, t.lx, t.ly, t.lz
}

func (s *ChunkStreamer) resolve(pos mgl64.Vec3) target {
	b := world.BlockAt(pos.X(), pos.Y(), pos.Z())
	coord, lx, ly, lz := world.LocalOf(b, s.conf.Dims)
	return target{coord: coord, lx: lx, ly: ly, lz: lz}
}

func (s *ChunkStreamer) liveTarget(pos mgl64.Vec3) (target, *world.Chunk, error) {
	t := s.resolve(pos)
	c := s.store.GetChunk(t.coord)
	if c == nil {
		return t, nil, fmt.Errorf("%s: %w", t.coord, ErrNotLive)
	}
	return t, c, nil
}

// BlockAt returns the block at a world position, or air when its chunk is not live.
func (s *ChunkStreamer) BlockAt(pos mgl64.Vec3) world.BlockType {
	t, c, err := s.liveTarget(pos)
	if err != nil {
		return world.BlockTypeAir
	}
	return c.GetBlock(t.lx, t.ly, t.lz)
}

// TotalHealth returns the full health of the block at a world position.
func (s *ChunkStreamer) TotalHealth(pos mgl64.Vec3) int32 {
	return s.conf.Blocks.TotalHealth(s.BlockAt(pos))
}

// BreakBlock clears the block at a world position and returns the id it held.
func (s *ChunkStreamer) BreakBlock(pos mgl64.Vec3) (world.BlockType, error) {
	defer profiling.Track("streaming.BreakBlock")()
	t, c, err := s.liveTarget(pos)
	if err != nil {
		return world.BlockTypeAir, err
	}
	old, err := c.BreakBlock(t.lx, t.ly, t.lz)
	if err != nil {
		return world.BlockTypeAir, err
	}
	s.afterEdit(c, t, world.BlockTypeAir)
	return old, nil
}

// AddBlock places a block at a world position.
func (s *ChunkStreamer) AddBlock(pos mgl64.Vec3, id world.BlockType) error {
	defer profiling.Track("streaming.AddBlock")()
	t, c, err := s.liveTarget(pos)
	if err != nil {
		return err
	}
	if err := c.AddBlock(t.lx, t.ly, t.lz, id); err != nil {
		return err
	}
	s.afterEdit(c, t, id)
	return nil
}

// DealDamage lowers the health of the block at a world position and returns what is left.
// Damage stays in the owning chunk.
func (s *ChunkStreamer) DealDamage(pos mgl64.Vec3, damage int32) (int32, error) {
	t, c, err := s.liveTarget(pos)
	if err != nil {
		return 0, err
	}
	return c.DealDamage(t.lx, t.ly, t.lz, damage)
}

// afterEdit mirrors a border cell into the neighbors' padding and remeshes every touched chunk.
func (s *ChunkStreamer) afterEdit(c *world.Chunk, t target, id world.BlockType) {
	for _, n := range s.mirror(t, id) {
		s.remesh(n)
	}
	s.remesh(c)
}

// mirror writes id into the padding of each cardinal neighbor that shares the edited cell.
// Neighbors that are not live are skipped; they pick the cell up when they are built.
func (s *ChunkStreamer) mirror(t target, id world.BlockType) []*world.Chunk {
	w := s.conf.Dims.Width
	type side struct {
		hit    bool
		dx, dy int
		px, py int
	}
	sides := []side{
		{t.lx == w, 1, 0, 0, t.ly},
		{t.lx == 1, -1, 0, w + 1, t.ly},
		{t.ly == w, 0, 1, t.lx, 0},
		{t.ly == 1, 0, -1, t.lx, w + 1},
	}

	var touched []*world.Chunk
	for _, sd := range sides {
		if !sd.hit {
			continue
		}
		ncoord := world.ChunkCoord{X: t.coord.X + sd.dx, Y: t.coord.Y + sd.dy}
		n := s.store.GetChunk(ncoord)
		if n == nil {
			continue
		}
		if err := n.SetBlock(sd.px, sd.py, t.lz, id); err != nil {
			s.conf.Log.Warn("mirror edit out of bounds", "chunk", ncoord, "err", err)
			continue
		}
		touched = append(touched, n)
	}
	return touched
}
