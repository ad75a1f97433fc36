package streaming

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"tradecraft/internal/meshing"
	"tradecraft/internal/persistence"
	"tradecraft/internal/profiling"
	"tradecraft/internal/registry"
	"tradecraft/internal/world"
)

// ErrBusy is returned when a recompute is requested while one is running.
var ErrBusy = errors.New("streamer is busy")

// ChunkState is the lifecycle state of one chunk key.
type ChunkState int

const (
	StateAbsent ChunkState = iota
	StateGenerating
	StateLoading
	StateLive
	StatePendingEviction
	StatePersisted
)

func (s ChunkState) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateGenerating:
		return "generating"
	case StateLoading:
		return "loading"
	case StateLive:
		return "live"
	case StatePendingEviction:
		return "pending-eviction"
	case StatePersisted:
		return "persisted"
	default:
		return "unknown"
	}
}

// Config holds the streamer's collaborators and constants.
type Config struct {
	Dims world.Dimensions
	// Radius is the number of chunks kept live on each side of the center chunk.
	Radius int
	Seed   int64

	Generator world.TerrainGenerator
	Storage   persistence.ChunkStorage
	Blocks    *registry.Registry
	// Sink receives finished meshes. Nil disables the hand-off.
	Sink meshing.Sink

	// Workers bounds concurrent chunk preparation. Zero uses the CPU count.
	Workers int
	Log     *slog.Logger
}

// ChunkStreamer keeps the chunks around a moving reference position live and persists the ones
// it leaves behind. It is not safe for concurrent use.
type ChunkStreamer struct {
	conf     Config
	store    *world.ChunkStore
	dispatch *meshing.Dispatcher
	health   []int32
	sections int

	// transient states of keys that are not plainly live or absent
	states map[world.ChunkCoord]ChunkState

	lastBuild mgl64.Vec3
	built     bool
	center    world.ChunkCoord
	busy      bool
}

// New creates a streamer. Nothing is built until the first RecomputeNear or Update.
func New(conf Config) (*ChunkStreamer, error) {
	if err := conf.Dims.Validate(); err != nil {
		return nil, err
	}
	if conf.Radius < 0 {
		return nil, fmt.Errorf("negative stream radius %d", conf.Radius)
	}
	if conf.Generator == nil {
		return nil, fmt.Errorf("no terrain generator")
	}
	if conf.Storage == nil {
		return nil, fmt.Errorf("no chunk storage")
	}
	if conf.Blocks == nil {
		conf.Blocks = registry.Default()
	}
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	if conf.Workers <= 0 {
		conf.Workers = max(runtime.NumCPU(), 1)
	}

	s := &ChunkStreamer{
		conf:     conf,
		store:    world.NewChunkStore(),
		health:   conf.Blocks.HealthTable(),
		sections: conf.Blocks.Sections(),
		states:   make(map[world.ChunkCoord]ChunkState),
	}
	if conf.Sink != nil {
		s.dispatch = meshing.NewDispatcher(conf.Sink, 2, 1024, conf.Log)
	}
	return s, nil
}

// Close waits for queued meshes to reach the sink.
func (s *ChunkStreamer) Close() {
	if s.dispatch != nil {
		s.dispatch.Shutdown()
	}
}

// Dims returns the chunk dimensions.
func (s *ChunkStreamer) Dims() world.Dimensions {
	return s.conf.Dims
}

// Seed returns the world seed.
func (s *ChunkStreamer) Seed() int64 {
	return s.conf.Seed
}

// Radius returns the stream radius in chunks.
func (s *ChunkStreamer) Radius() int {
	return s.conf.Radius
}

// Center returns the chunk the last recompute was centered on.
func (s *ChunkStreamer) Center() world.ChunkCoord {
	return s.center
}

// Chunk returns the live chunk at coord, or nil.
func (s *ChunkStreamer) Chunk(coord world.ChunkCoord) *world.Chunk {
	return s.store.GetChunk(coord)
}

// LiveCoords returns the live chunk coordinates sorted by X, then Y.
func (s *ChunkStreamer) LiveCoords() []world.ChunkCoord {
	return s.store.Coords()
}

// LiveCount returns the number of live chunks.
func (s *ChunkStreamer) LiveCount() int {
	return s.store.Len()
}

// State returns the lifecycle state of a chunk key.
func (s *ChunkStreamer) State(coord world.ChunkCoord) ChunkState {
	if st, ok := s.states[coord]; ok {
		return st
	}
	if s.store.HasChunk(coord) {
		return StateLive
	}
	return StateAbsent
}

// prepared is a chunk that finished loading or generating but is not live yet.
type prepared struct {
	chunk    *world.Chunk
	sections []meshing.MeshSection
	err      error
}

// prepare loads the chunk from storage when a file exists and generates it otherwise, then
// extracts its mesh. It touches nothing but the new chunk.
func (s *ChunkStreamer) prepare(coord world.ChunkCoord, load bool) prepared {
	c := world.NewChunk(coord, s.conf.Dims, s.conf.Seed)
	c.SetHealthTable(s.health)

	if load {
		ids, err := s.conf.Storage.LoadChunk(coord)
		if err != nil {
			return prepared{err: err}
		}
		if err := c.LoadBlockIDs(ids); err != nil {
			return prepared{err: err}
		}
	} else {
		s.conf.Generator.Populate(c)
	}

	sections := meshing.ExtractMesh(c, s.sections, s.conf.Log)
	c.SetClean()
	return prepared{chunk: c, sections: sections}
}

// install makes a prepared chunk live and hands its mesh to the sink.
func (s *ChunkStreamer) install(p prepared) {
	if !s.store.AddChunk(p.chunk) {
		return
	}
	delete(s.states, p.chunk.Coord)
	s.upload(p.chunk.Coord, p.sections)
}

// BuildChunkAt makes the chunk at coord live. A live chunk is left alone. A saved chunk that
// fails to load is reported and not regenerated.
func (s *ChunkStreamer) BuildChunkAt(coord world.ChunkCoord) (*world.Chunk, error) {
	defer profiling.Track("streaming.BuildChunkAt")()
	if c := s.store.GetChunk(coord); c != nil {
		return c, nil
	}
	load := s.conf.Storage.Exists(coord)
	s.states[coord] = startState(load)

	p := s.prepare(coord, load)
	if p.err != nil {
		delete(s.states, coord)
		return nil, fmt.Errorf("build %s: %w", coord, p.err)
	}
	s.install(p)
	return p.chunk, nil
}

func startState(load bool) ChunkState {
	if load {
		return StateLoading
	}
	return StateGenerating
}

// Window returns the chunk coordinates kept live around center, sorted by X, then Y.
func (s *ChunkStreamer) Window(center world.ChunkCoord) []world.ChunkCoord {
	r := s.conf.Radius
	out := make([]world.ChunkCoord, 0, (2*r+1)*(2*r+1))
	for x := center.X - r; x <= center.X+r; x++ {
		for y := center.Y - r; y <= center.Y+r; y++ {
			out = append(out, world.ChunkCoord{X: x, Y: y})
		}
	}
	return out
}

// RecomputeNear makes every chunk in the window around pos live, then evicts every live chunk
// outside it. Per-chunk failures are joined into the returned error; the other chunks still
// build or evict.
func (s *ChunkStreamer) RecomputeNear(pos mgl64.Vec3) error {
	defer profiling.Track("streaming.RecomputeNear")()
	if s.busy {
		return ErrBusy
	}
	s.busy = true
	defer func() { s.busy = false }()

	center := world.ChunkAtPosition(pos.X(), pos.Y(), s.conf.Dims.Width)
	s.center = center
	s.lastBuild = pos
	s.built = true

	buildErr := s.buildWindow(center)
	evictErr := s.evictOutside(center)
	return errors.Join(buildErr, evictErr)
}

func (s *ChunkStreamer) buildWindow(center world.ChunkCoord) error {
	defer profiling.Track("streaming.buildWindow")()

	var missing []world.ChunkCoord
	var load []bool
	for _, coord := range s.Window(center) {
		if s.store.HasChunk(coord) {
			continue
		}
		l := s.conf.Storage.Exists(coord)
		s.states[coord] = startState(l)
		missing = append(missing, coord)
		load = append(load, l)
	}
	if len(missing) == 0 {
		return nil
	}

	results := make([]prepared, len(missing))
	sem := make(chan struct{}, s.conf.Workers)
	var wg sync.WaitGroup
	for i, coord := range missing {
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = s.prepare(coord, load[i])
		}()
	}
	wg.Wait()

	var errs []error
	built := 0
	for i, p := range results {
		if p.err != nil {
			delete(s.states, missing[i])
			s.conf.Log.Error("chunk build failed", "chunk", missing[i], "err", p.err)
			errs = append(errs, fmt.Errorf("build %s: %w", missing[i], p.err))
			continue
		}
		s.install(p)
		built++
	}
	s.conf.Log.Debug("built chunks", "center", center, "built", built, "failed", len(errs))
	return errors.Join(errs...)
}

func (s *ChunkStreamer) evictOutside(center world.ChunkCoord) error {
	defer profiling.Track("streaming.evictOutside")()

	queue := s.store.CoordsOutside(center, s.conf.Radius)
	for _, coord := range queue {
		s.states[coord] = StatePendingEviction
	}

	var errs []error
	for _, coord := range queue {
		if err := s.evict(coord); err != nil {
			errs = append(errs, err)
		}
	}
	if len(queue) > 0 {
		s.conf.Log.Debug("evicted chunks", "center", center, "queued", len(queue), "failed", len(errs))
	}
	return errors.Join(errs...)
}

// evict persists a chunk and destroys it. A chunk that cannot be saved stays live.
func (s *ChunkStreamer) evict(coord world.ChunkCoord) error {
	c := s.store.GetChunk(coord)
	if c == nil {
		delete(s.states, coord)
		return nil
	}
	if err := s.conf.Storage.SaveChunk(coord, c.BlockIDs()); err != nil {
		delete(s.states, coord)
		s.conf.Log.Error("chunk save failed, keeping it live", "chunk", coord, "err", err)
		return fmt.Errorf("evict %s: %w", coord, err)
	}
	s.states[coord] = StatePersisted
	s.store.RemoveChunk(coord)
	delete(s.states, coord)
	if s.dispatch != nil {
		s.dispatch.SubmitRemove(coord)
	}
	return nil
}

// Update recomputes the live window when pos has moved more than one chunk width on the
// horizontal plane since the last recompute. The first call always recomputes. It reports
// whether a recompute ran.
func (s *ChunkStreamer) Update(pos mgl64.Vec3) (bool, error) {
	if s.built {
		dx := pos.X() - s.lastBuild.X()
		dy := pos.Y() - s.lastBuild.Y()
		if math.Sqrt(dx*dx+dy*dy) <= float64(s.conf.Dims.Width) {
			return false, nil
		}
	}
	return true, s.RecomputeNear(pos)
}

// Remesh rebuilds the mesh of a live chunk and hands it to the sink.
func (s *ChunkStreamer) Remesh(coord world.ChunkCoord) {
	c := s.store.GetChunk(coord)
	if c == nil {
		return
	}
	s.remesh(c)
}

func (s *ChunkStreamer) remesh(c *world.Chunk) {
	sections := meshing.ExtractMesh(c, s.sections, s.conf.Log)
	c.SetClean()
	s.upload(c.Coord, sections)
}

func (s *ChunkStreamer) upload(coord world.ChunkCoord, sections []meshing.MeshSection) {
	if s.dispatch == nil {
		return
	}
	s.dispatch.Submit(coord, sections)
}
