package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl64"

	"tradecraft/internal/config"
	"tradecraft/internal/game"
	"tradecraft/internal/graphics"
	"tradecraft/internal/input"
	"tradecraft/internal/inventory"
	"tradecraft/internal/physics"
	"tradecraft/internal/profiling"
	"tradecraft/internal/registry"
	"tradecraft/internal/world"
)

const (
	mouseSensitivity = 0.1 // degrees per pixel
	hitDamage        = 2
)

func init() {
	// GL calls must stay on the main thread
	runtime.LockOSThread()
}

func main() {
	cfg := config.DefaultConfig()

	configPath := flag.String("config", "", "YAML or TOML config file")
	flag.StringVar(&cfg.WorldsDir, "worlds", cfg.WorldsDir, "directory holding saved worlds")
	flag.StringVar(&cfg.World, "world", cfg.World, "world name")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "world seed for new worlds (0 derives one from the clock)")
	flag.IntVar(&cfg.StreamRadius, "radius", cfg.StreamRadius, "chunks kept live on each side of the observer")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	flag.StringVar(&cfg.Generation.Type, "generator", cfg.Generation.Type, "terrain generator: noise or flat")
	fps := flag.Int("fps", 120, "frame rate cap (0 = uncapped)")
	flag.Parse()

	if *configPath != "" {
		fromFile, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(2)
		}
		explicit := map[string]bool{}
		flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
		config.Merge(cfg, fromFile, explicit)
	}
	cfg.SetStreamRadius(cfg.StreamRadius)

	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	if err := run(cfg, log, *fps); err != nil {
		log.Error("viewer failed", "error", err)
		os.Exit(1)
	}
}

type viewer struct {
	session *game.Session
	meshes  *graphics.ChunkMeshes
	camera  *graphics.Camera
	input   *input.InputManager
	inv     *inventory.Inventory
	log     *slog.Logger

	lastX, lastY float64
	hasCursor    bool
	showProfile  bool
}

func run(cfg *config.Config, log *slog.Logger, fps int) error {
	if err := glfw.Init(); err != nil {
		return err
	}
	defer glfw.Terminate()

	window, err := setupWindow(1280, 720, "tradecraft")
	if err != nil {
		return err
	}
	defer window.Destroy()

	if err := game.SavedDimensions(cfg, log); err != nil {
		return err
	}
	meshes := graphics.NewChunkMeshes(cfg.Dimensions(), registry.Default(), log)
	if err := meshes.Init(); err != nil {
		return err
	}
	defer meshes.Dispose()

	s, err := game.NewSession(game.Options{Config: cfg, Sink: meshes, Log: log})
	if err != nil {
		return err
	}
	defer s.Close()

	saved, err := s.LoadInventory()
	if err != nil {
		return err
	}
	inv, err := inventory.FromSaved(saved)
	if err != nil {
		log.Warn("discarding saved inventory", "error", err)
		inv = inventory.New()
	}

	if err := s.Start(); err != nil {
		// failed chunks stay absent; the rest of the window is usable
		log.Warn("initial stream incomplete", "error", err)
	}

	w, h := window.GetFramebufferSize()
	v := &viewer{
		session: s,
		meshes:  meshes,
		camera:  graphics.NewCamera(w, h),
		input:   input.NewInputManager(),
		inv:     inv,
		log:     log,
	}
	v.input.Attach(window)
	window.SetCursorPosCallback(v.onCursor)
	window.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		gl.Viewport(0, 0, int32(width), int32(height))
		v.camera.SetViewport(width, height)
	})

	gl.Enable(gl.DEPTH_TEST)
	gl.ClearColor(0.53, 0.74, 0.92, 1)

	limiter := game.NewFPSLimiter(fps)
	last := time.Now()
	for !window.ShouldClose() {
		now := time.Now()
		dt := now.Sub(last).Seconds()
		last = now

		glfw.PollEvents()
		if v.input.JustPressed(input.ActionQuit) {
			window.SetShouldClose(true)
		}
		v.update(dt)

		v.meshes.Flush()
		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
		v.meshes.Draw(v.camera.GetProjectionMatrix(), v.camera.GetViewMatrix(s.Pose))
		window.SwapBuffers()

		v.input.PostUpdate()
		limiter.Wait()
	}

	return s.ExitAndSave(v.inv.Saved())
}

func (v *viewer) onCursor(_ *glfw.Window, x, y float64) {
	if !v.hasCursor {
		v.lastX, v.lastY, v.hasCursor = x, y, true
		return
	}
	dx, dy := x-v.lastX, y-v.lastY
	v.lastX, v.lastY = x, y
	v.session.Pose = graphics.Look(v.session.Pose, -dx*mouseSensitivity, -dy*mouseSensitivity)
}

func (v *viewer) update(dt float64) {
	im := v.input
	var t game.Thrust
	if im.IsActive(input.ActionMoveForward) {
		t.Forward++
	}
	if im.IsActive(input.ActionMoveBackward) {
		t.Forward--
	}
	if im.IsActive(input.ActionMoveRight) {
		t.Right++
	}
	if im.IsActive(input.ActionMoveLeft) {
		t.Right--
	}
	if im.IsActive(input.ActionMoveUp) {
		t.Up++
	}
	if im.IsActive(input.ActionMoveDown) {
		t.Up--
	}
	t.Sprint = im.IsActive(input.ActionSprint)

	if ran, err := v.session.Move(game.Fly(v.session.Pose, t, dt)); err != nil {
		v.log.Warn("stream update failed", "error", err)
	} else if ran && v.showProfile {
		v.log.Info("recomputed", "center", v.session.Streamer.Center(), "profile", profiling.TopN(5))
	}

	if im.JustPressed(input.ActionBreak) {
		v.hit()
	}
	if im.JustPressed(input.ActionPlace) {
		v.place()
	}
	if im.JustPressed(input.ActionNextBlock) {
		v.inv.NextNonEmpty()
		v.log.Info("selected", "block", v.inv.GetCurrentItem().ID, "count", v.inv.GetCurrentItem().Count)
	}
	if im.JustPressed(input.ActionSave) {
		if err := v.session.ExitAndSave(v.inv.Saved()); err != nil {
			v.log.Error("save failed", "error", err)
		}
	}
	if im.JustPressed(input.ActionToggleProfiling) {
		v.showProfile = !v.showProfile
		profiling.Reset()
	}
}

func (v *viewer) target() physics.RaycastResult {
	p := v.session.Pose
	f := graphics.Facing(p.Yaw, p.Pitch)
	dir := mgl64.Vec3{float64(f.X()), float64(f.Y()), float64(f.Z())}
	return physics.Raycast(v.session.Streamer, v.session.Position(), dir,
		physics.MinReachDistance, physics.MaxReachDistance)
}

// hit damages the targeted block and breaks it once its health runs out.
func (v *viewer) hit() {
	r := v.target()
	if !r.Hit {
		return
	}
	pos := physics.Center(r.Block)
	left, err := v.session.Streamer.DealDamage(pos, hitDamage)
	if err != nil {
		v.log.Debug("hit failed", "block", r.Block, "error", err)
		return
	}
	if left > 0 {
		return
	}
	id, err := v.session.Streamer.BreakBlock(pos)
	if err != nil {
		v.log.Warn("break failed", "block", r.Block, "error", err)
		return
	}
	if over := v.inv.AddItem(id, 1); over > 0 {
		v.log.Debug("inventory full", "block", id)
	}
}

func (v *viewer) place() {
	r := v.target()
	if !r.Hit {
		return
	}
	eye := world.BlockAt(v.session.Pose.X, v.session.Pose.Y, v.session.Pose.Z)
	if r.Adjacent == eye {
		return
	}
	id, ok := v.inv.TakeCurrent()
	if !ok {
		return
	}
	err := v.session.Streamer.AddBlock(physics.Center(r.Adjacent), id)
	if err != nil {
		v.inv.AddItem(id, 1)
		if !errors.Is(err, world.ErrOutOfBounds) {
			v.log.Warn("place failed", "block", r.Adjacent, "error", err)
		}
	}
}
