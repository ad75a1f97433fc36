package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"tradecraft/internal/config"
	"tradecraft/internal/game"
	"tradecraft/internal/persistence/worlddb"
	"tradecraft/internal/profiling"
	"tradecraft/internal/worldmap"
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `usage: tradecraft [flags] <command> [args]

commands:
  walk            open or create the world and walk the observer, then save
  list            list saved worlds
  map <out.png>   stream the chunks around the saved pose and draw them top-down
  delete <name>   delete a saved world

flags:
`)
	flag.PrintDefaults()
}

func main() {
	cfg := config.DefaultConfig()

	configPath := flag.String("config", "", "YAML or TOML config file")
	flag.StringVar(&cfg.WorldsDir, "worlds", cfg.WorldsDir, "directory holding saved worlds")
	flag.StringVar(&cfg.World, "world", cfg.World, "world name")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "world seed for new worlds (0 derives one from the clock)")
	flag.IntVar(&cfg.ChunkWidth, "chunk-width", cfg.ChunkWidth, "chunk width in blocks")
	flag.IntVar(&cfg.ChunkHeight, "chunk-height", cfg.ChunkHeight, "chunk height in blocks (0 = width*width/2)")
	flag.IntVar(&cfg.StreamRadius, "radius", cfg.StreamRadius, "chunks kept live on each side of the observer")
	flag.IntVar(&cfg.Workers, "workers", cfg.Workers, "concurrent chunk builds (0 = CPU count)")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	flag.StringVar(&cfg.Generation.Type, "generator", cfg.Generation.Type, "terrain generator: noise or flat")
	steps := flag.Int("steps", 64, "walk: number of steps")
	stepX := flag.Float64("dx", 4, "walk: blocks moved along X per step")
	stepY := flag.Float64("dy", 0, "walk: blocks moved along Y per step")
	scale := flag.Int("scale", 4, "map: pixels per block column")
	flag.Usage = usage
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

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch cmd := flag.Arg(0); cmd {
	case "walk", "":
		err = walk(ctx, cfg, log, *steps, *stepX, *stepY)
	case "list":
		err = list(cfg.WorldsDir)
	case "map":
		if flag.NArg() < 2 {
			usage()
			os.Exit(2)
		}
		err = drawMap(cfg, log, flag.Arg(1), *scale)
	case "delete":
		if flag.NArg() < 2 {
			usage()
			os.Exit(2)
		}
		err = game.DeleteWorld(cfg.WorldsDir, flag.Arg(1))
		if err == nil {
			log.Info("deleted world", "world", flag.Arg(1))
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func walk(ctx context.Context, cfg *config.Config, log *slog.Logger, steps int, dx, dy float64) error {
	s, err := game.NewSession(game.Options{Config: cfg, Log: log})
	if err != nil {
		return err
	}
	defer s.Close()

	inv, err := s.LoadInventory()
	if err != nil {
		return err
	}

	profiling.Reset()
	if err := s.Start(); err != nil {
		return err
	}
	log.Debug("start", "profile", profiling.TopN(5))

	var walkErr error
	for i := 0; i < steps && ctx.Err() == nil; i++ {
		profiling.Reset()
		p := s.Pose
		p.X += dx
		p.Y += dy
		ran, err := s.Move(p)
		if err != nil {
			// failed chunks are reported and the walk goes on
			walkErr = errors.Join(walkErr, err)
			log.Warn("stream step failed", "step", i, "error", err)
		}
		if ran {
			log.Debug("recomputed", "step", i, "center", s.Streamer.Center(), "live", s.Streamer.LiveCount(),
				"profile", profiling.TopN(5))
		}
	}

	log.Info("walk finished", "world", s.World.Name, "seed", s.World.Seed,
		"x", s.Pose.X, "y", s.Pose.Y, "live", s.Streamer.LiveCount())
	if err := s.ExitAndSave(inv); err != nil {
		return errors.Join(walkErr, err)
	}
	return walkErr
}

func drawMap(cfg *config.Config, log *slog.Logger, out string, scale int) error {
	s, err := game.NewSession(game.Options{Config: cfg, Log: log})
	if err != nil {
		return err
	}
	defer s.Close()

	// chunks that fail to build are left blank
	if err := s.Start(); err != nil {
		log.Warn("stream incomplete", "error", err)
	}
	img := worldmap.Render(s.Streamer, s.Blocks, worldmap.Options{Scale: scale, Grid: true, Labels: true})

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := worldmap.WritePNG(f, img); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.Info("map written", "file", out, "chunks", s.Streamer.LiveCount())
	return nil
}

func list(root string) error {
	worlds, err := game.ListWorlds(root)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSEED\tCHUNK\tCREATED\tPOSITION")
	for _, w := range worlds {
		fmt.Fprintf(tw, "%s\t%d\t%dx%d\t%s\t%s\n", w.Name, w.Seed, w.Dims.Width, w.Dims.Height,
			w.CreatedAt.Format("2006-01-02 15:04"), position(w))
	}
	return tw.Flush()
}

func position(w worlddb.World) string {
	if !w.HasPose {
		return "-"
	}
	return fmt.Sprintf("%.1f,%.1f,%.1f", w.Pose.X, w.Pose.Y, w.Pose.Z)
}
