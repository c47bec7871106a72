package main

import (
	"cmp"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/Carmen-Shannon/oxy-swarm/common"
	"github.com/Carmen-Shannon/oxy-swarm/config"
	"github.com/Carmen-Shannon/oxy-swarm/engine"
	"github.com/Carmen-Shannon/oxy-swarm/engine/behavior"
	"github.com/Carmen-Shannon/oxy-swarm/engine/extract"
	"github.com/Carmen-Shannon/oxy-swarm/engine/job"
	"github.com/Carmen-Shannon/oxy-swarm/engine/pipeline"
	"github.com/Carmen-Shannon/oxy-swarm/engine/population"
	"github.com/Carmen-Shannon/oxy-swarm/engine/profiler"
	"github.com/Carmen-Shannon/oxy-swarm/engine/renderer"
	"github.com/Carmen-Shannon/oxy-swarm/engine/window"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without a window or GPU")
	frames := flag.Uint64("frames", 0, "Stop after N frames (0 = unlimited)")
	logFormat := flag.String("log-format", "text", "Log format: text or json")
	debug := flag.Bool("debug", false, "Enable debug logging")
	ramp := flag.Float64("ramp", 0, "Add a population layer every profiler interval while FPS stays above this value (0 = off)")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	runID := cmp.Or(cfg.Profiler.RunID, uuid.NewString())
	logger := newLogger(*logFormat, *debug).With("run_id", runID)
	slog.SetDefault(logger)

	if err := run(cfg, runID, *headless, *frames, *ramp, logger); err != nil {
		logger.Error("swarm failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(format string, debug bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if debug {
		opts.Level = slog.LevelDebug
	}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func run(cfg *config.Config, runID string, headless bool, frames uint64, rampFloor float64, logger *slog.Logger) error {
	world := population.NewWorld(logger)
	pc := cfg.Population
	spawner := population.NewSpawner(pc.Columns, pc.Rows, pc.Spacing, pc.MinSpeed, pc.MaxSpeed, pc.Seed, logger)
	spawner.Populate(world)

	scheduler := job.NewScheduler(
		job.WithWorkers(cfg.Pipeline.Workers),
		job.WithQueueSize(cfg.Pipeline.QueueSize),
		job.WithIdleTimeout(cfg.Pipeline.IdleTimeout),
		job.WithBatchCount(cfg.Pipeline.BatchCount),
		job.WithLogger(logger),
	)

	var win window.Window
	width, height := cfg.Window.Width, cfg.Window.Height
	backendType := renderer.BackendTypeHeadless
	if !headless {
		win = window.NewWindow(
			window.WithTitle(cfg.Window.Title),
			window.WithSize(width, height),
			window.WithLogger(logger),
		)
		width, height = win.Width(), win.Height()
		backendType = renderer.BackendTypeWGPU
	}
	backend := renderer.NewBackend(backendType, win,
		renderer.WithPresentMode(renderer.ParsePresentMode(cfg.Render.PresentMode)),
		renderer.WithMSAA(renderer.MSAASampleCount(cfg.Render.MSAA)),
		renderer.WithForceSoftwareRenderer(cfg.Render.SoftwareAdapter),
		renderer.WithLogger(logger),
	)
	defer backend.Release()

	cam := cfg.Render.Camera
	pipe := pipeline.NewPipeline(world, scheduler, backend,
		pipeline.WithLogger(logger),
		pipeline.WithCamera(renderer.Camera{
			Eye:        cam.Eye(),
			Center:     cam.Center(),
			FovDegrees: cam.FovDegrees,
			Near:       cam.Near,
			Far:        cam.Far,
		}),
		pipeline.WithViewport(width, height),
		pipeline.WithBehaviorOptions(
			behavior.WithRules(behavior.Rules{
				ApproachScale:    cfg.Behavior.ApproachScale,
				SnapThreshold:    cfg.Behavior.SnapThreshold,
				ReturnMultiplier: cfg.Behavior.ReturnMultiplier,
			}),
			behavior.WithBatchCount(cfg.Pipeline.BatchCount),
		),
		pipeline.WithExtractOptions(
			extract.WithMatrixPolicy(extract.MatrixPolicy{
				InitialCapacity: cfg.MatrixBuffer.InitialCapacity,
				Increment:       cfg.MatrixBuffer.Increment,
				Margin:          cfg.MatrixBuffer.Margin,
			}),
			extract.WithColorPolicy(extract.ColorPolicy{Floor: cfg.ColorBuffer.InitialCapacity}),
			extract.WithBatchCount(cfg.Pipeline.BatchCount),
		),
		pipeline.WithSyncOptions(
			renderer.WithBounds(common.CenteredAABB(mgl32.Vec3{}, cfg.Render.BoundsHalfExtent)),
		),
	)
	defer pipe.Release()

	profOptions := []profiler.ProfilerBuilderOption{
		profiler.WithInterval(cfg.Profiler.Interval),
		profiler.WithRunID(runID),
		profiler.WithLogger(logger),
	}
	if cfg.Profiler.CSVPath != "" {
		f, err := os.Create(cfg.Profiler.CSVPath)
		if err != nil {
			return fmt.Errorf("creating profiler csv: %w", err)
		}
		defer f.Close()
		profOptions = append(profOptions, profiler.WithCSV(f))
	}
	prof := profiler.NewProfiler(profOptions...)

	engineOptions := []engine.EngineBuilderOption{
		engine.WithProfiling(true),
		engine.WithProfiler(prof),
		engine.WithTickRate(60),
		engine.WithMaxFrames(frames),
		engine.WithLogger(logger),
	}
	if win != nil {
		engineOptions = append(engineOptions, engine.WithWindow(win))
	}
	eng := engine.NewEngine(pipe, engineOptions...)

	ramper := &rampController{world: world, spawner: spawner, floor: rampFloor, logger: logger.With("component", "ramp")}
	ctrl := newController(world, pipe, spawner, cfg.Target.Radius, cfg.Target.PlaneHeight, logger)
	if win != nil {
		win.SetMouseButtonCallback(ctrl.onMouseButton)
		win.SetMouseMoveCallback(ctrl.onMouseMove)
		win.SetScrollCallback(ctrl.onScroll)
		win.SetKeyDownCallback(ctrl.onKeyDown)
	} else {
		// Headless runs keep a fixed target at the origin so the approach path is exercised.
		world.SetTarget(population.Target{Position: mgl32.Vec3{0, cfg.Target.PlaneHeight, 0}, Radius: cfg.Target.Radius})
	}
	eng.SetTickCallback(func(float32) {
		ctrl.update()
		ramper.observe(prof.Reports(), prof.Last().FPS)
	})

	logger.Info("starting swarm",
		"headless", headless,
		"population", len(world.Poses()),
		"frames", frames,
		"workers", cfg.Pipeline.Workers,
	)
	eng.Run()
	return nil
}
