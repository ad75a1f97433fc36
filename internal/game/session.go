package game

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"tradecraft/internal/config"
	"tradecraft/internal/meshing"
	"tradecraft/internal/persistence"
	"tradecraft/internal/persistence/worlddb"
	"tradecraft/internal/registry"
	"tradecraft/internal/streaming"
	"tradecraft/internal/world"
)

// Session is one open world: its registry row, its files and the chunk streamer.
type Session struct {
	World    worlddb.World
	Files    *persistence.FileStore
	Streamer *streaming.ChunkStreamer
	Blocks   *registry.Registry
	// Pose is the current observer pose.
	Pose worlddb.Pose
	// Saved is true when the world existed before this session.
	Saved bool

	db  *worlddb.DB
	log *slog.Logger
}

// Options are the collaborators a session is opened with.
type Options struct {
	Config *config.Config
	// Sink receives chunk meshes. Nil runs headless.
	Sink meshing.Sink
	Log  *slog.Logger
	Now  func() time.Time
}

// OpenRegistry opens the saved-world registry under the worlds root.
func OpenRegistry(root string) (*worlddb.DB, error) {
	return worlddb.OpenSQLite(filepath.Join(root, worlddb.FileName))
}

// NewSession opens the configured world, creating it when it is not registered yet.
func NewSession(opts Options) (*Session, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	blocks := registry.Default()
	for name, hp := range cfg.BlockHealth {
		if err := blocks.SetHealth(name, hp); err != nil {
			return nil, fmt.Errorf("block_health: %w", err)
		}
	}

	db, err := OpenRegistry(cfg.WorldsDir)
	if err != nil {
		return nil, err
	}

	w, err := db.Get(cfg.World)
	saved := err == nil
	if errors.Is(err, persistence.ErrNotFound) {
		seed := world.ResolveSeed(cfg.Seed, now())
		w, err = db.Create(cfg.World, seed, cfg.Dimensions(), now())
		if err == nil {
			log.Info("created world", "world", w.Name, "id", w.ID, "seed", w.Seed)
		}
	}
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if saved {
		log.Info("loaded world", "world", w.Name, "id", w.ID, "seed", w.Seed)
		if err := useSavedDimensions(cfg, db, &w, log); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	files, err := persistence.OpenFileStore(filepath.Join(cfg.WorldsDir, w.Name))
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	gen := cfg.Generation.NewGenerator(log)
	streamer, err := streaming.New(streaming.Config{
		Dims:      w.Dims,
		Radius:    cfg.StreamRadius,
		Seed:      w.Seed,
		Generator: gen,
		Storage:   files,
		Blocks:    blocks,
		Sink:      opts.Sink,
		Workers:   cfg.Workers,
		Log:       log,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Session{
		World:    w,
		Files:    files,
		Streamer: streamer,
		Blocks:   blocks,
		Saved:    saved,
		db:       db,
		log:      log,
	}
	if w.HasPose {
		s.Pose = w.Pose
	} else {
		s.Pose = spawnPose(gen, w.Dims, w.Seed)
	}
	return s, nil
}

// useSavedDimensions switches cfg to the chunk size w was created with. Rows registered before
// sizes were recorded take the configured size.
func useSavedDimensions(cfg *config.Config, db *worlddb.DB, w *worlddb.World, log *slog.Logger) error {
	want := cfg.Dimensions()
	if w.Dims == (world.Dimensions{}) {
		if err := db.SaveDimensions(w.Name, want); err != nil {
			return err
		}
		w.Dims = want
		return nil
	}
	if w.Dims == want {
		return nil
	}
	log.Warn("using the world's saved chunk size", "world", w.Name,
		"saved", fmt.Sprintf("%dx%d", w.Dims.Width, w.Dims.Height),
		"configured", fmt.Sprintf("%dx%d", want.Width, want.Height))
	cfg.ChunkWidth, cfg.ChunkHeight = w.Dims.Width, w.Dims.Height
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("world %q chunk size %dx%d: %w", w.Name, w.Dims.Width, w.Dims.Height, err)
	}
	return nil
}

// SavedDimensions applies the chunk size of the configured world to cfg when the world is
// already registered, so a renderer built before the session agrees with it.
func SavedDimensions(cfg *config.Config, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	db, err := OpenRegistry(cfg.WorldsDir)
	if err != nil {
		return err
	}
	defer db.Close()
	w, err := db.Get(cfg.World)
	if errors.Is(err, persistence.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return useSavedDimensions(cfg, db, &w, log)
}

// spawnPose stands the observer on the surface at the middle of chunk (0,0).
func spawnPose(gen world.TerrainGenerator, dims world.Dimensions, seed int64) worlddb.Pose {
	x, y := dims.Width/2, dims.Width/2
	surface := gen.SurfaceAt(x, y, seed) - dims.Height/2
	return worlddb.Pose{X: float64(x), Y: float64(y), Z: float64(surface + 2)}
}

// Position returns the pose position as a vector.
func (s *Session) Position() mgl64.Vec3 {
	return mgl64.Vec3{s.Pose.X, s.Pose.Y, s.Pose.Z}
}

// Start builds the chunks around the current pose.
func (s *Session) Start() error {
	return s.Streamer.RecomputeNear(s.Position())
}

// Move updates the pose and streams chunks when it crossed the rebuild threshold.
func (s *Session) Move(p worlddb.Pose) (bool, error) {
	s.Pose = p
	return s.Streamer.Update(s.Position())
}

// LoadInventory returns the saved inventory, or an empty one for a world that has none.
func (s *Session) LoadInventory() (persistence.Inventory, error) {
	inv, err := s.Files.LoadInventory()
	if errors.Is(err, persistence.ErrNotFound) {
		return persistence.Inventory{}, nil
	}
	return inv, err
}

// ExitAndSave persists every live chunk, the inventory and the observer pose.
func (s *Session) ExitAndSave(inv persistence.Inventory) error {
	var errs []error
	if err := s.Streamer.SaveAll(); err != nil {
		errs = append(errs, err)
	}
	if err := s.Files.SaveInventory(inv); err != nil {
		errs = append(errs, err)
	}
	if err := s.db.SavePose(s.World.Name, s.Pose); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	s.log.Info("world saved", "world", s.World.Name, "chunks", s.Streamer.LiveCount())
	return nil
}

// Close releases the session without saving.
func (s *Session) Close() error {
	s.Streamer.Close()
	return s.db.Close()
}

// ListWorlds returns the registered worlds under root.
func ListWorlds(root string) ([]worlddb.World, error) {
	db, err := OpenRegistry(root)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return db.List()
}

// DeleteWorld removes a world's files and its registry row.
func DeleteWorld(root, name string) error {
	if name == "" || filepath.Base(name) != name {
		return fmt.Errorf("invalid world name %q", name)
	}
	db, err := OpenRegistry(root)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.Get(name); err != nil {
		return err
	}
	if err := os.RemoveAll(filepath.Join(root, name)); err != nil {
		return fmt.Errorf("delete world %q: %w", name, err)
	}
	return db.Delete(name)
}
