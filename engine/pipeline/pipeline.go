package pipeline

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/oxy-swarm/engine/behavior"
	"github.com/Carmen-Shannon/oxy-swarm/engine/extract"
	"github.com/Carmen-Shannon/oxy-swarm/engine/job"
	"github.com/Carmen-Shannon/oxy-swarm/engine/population"
	"github.com/Carmen-Shannon/oxy-swarm/engine/renderer"
	"github.com/go-gl/mathgl/mgl32"
)

// Pipeline runs one frame of the swarm: structural flush, behavior, both extractions and the
// render synchronization, in that dependency order.
type Pipeline interface {
	// Frame runs a full frame and returns once the frame's GPU work has been submitted.
	//
	// Parameters:
	//   - dt: frame delta in seconds
	//
	// Returns:
	//   - error: an upload error from the render stage; a failed surface acquire is logged and skipped
	Frame(dt float32) error

	// Resize reconfigures the backend surface and camera aspect for a new viewport.
	//
	// Parameters:
	//   - width: the viewport width in pixels
	//   - height: the viewport height in pixels
	Resize(width, height int)

	// Orbit rotates the camera around its look target and updates the view projection.
	//
	// Parameters:
	//   - dAzimuth: change in azimuth in radians
	//   - dElevation: change in elevation in radians
	Orbit(dAzimuth, dElevation float32)

	// Camera returns the camera used for the view projection.
	//
	// Returns:
	//   - renderer.Camera: the camera
	Camera() renderer.Camera

	// Viewport returns the current viewport size in pixels.
	//
	// Returns:
	//   - int: the width
	//   - int: the height
	Viewport() (int, int)

	// Behavior returns the transform behavior stage.
	Behavior() behavior.Stage

	// Matrices returns the matrix extraction stage.
	Matrices() extract.Stage[mgl32.Mat4]

	// Colors returns the color extraction stage.
	Colors() extract.Stage[population.Color]

	// Sync returns the render synchronization stage.
	Sync() renderer.InstanceSync

	// Frames returns the number of frames run.
	Frames() uint64

	// Release frees the mesh, material and GPU instance buffers.
	Release()
}

type pipeline struct {
	mu      sync.Mutex
	world   *population.World
	backend renderer.Backend
	logger  *slog.Logger

	camera        renderer.Camera
	width, height int
	cubeHalfSize  float32

	behaviorOptions []behavior.StageBuilderOption
	extractOptions  []extract.StageBuilderOption
	syncOptions     []renderer.InstanceSyncBuilderOption

	behavior behavior.Stage
	matrices extract.Stage[mgl32.Mat4]
	colors   extract.Stage[population.Color]
	sync     renderer.InstanceSync
	mesh     renderer.Mesh
	material renderer.Material

	frames uint64
}

var _ Pipeline = &pipeline{}

// NewPipeline wires the stages over world and scheduler and uploads the instance mesh and material
// to backend. A mesh or material that cannot be created leaves the render stage disabled.
//
// Parameters:
//   - world: the population
//   - scheduler: the job scheduler every stage runs on
//   - backend: the GPU backend
//   - options: optional PipelineBuilderOption functions
//
// Returns:
//   - Pipeline: the pipeline
func NewPipeline(world *population.World, scheduler job.Scheduler, backend renderer.Backend, options ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		world:   world,
		backend: backend,
		logger:  slog.Default(),
		camera: renderer.Camera{
			Eye:        mgl32.Vec3{0, 60, 90},
			FovDegrees: 60,
			Near:       0.1,
			Far:        1000,
		},
		width:        1,
		height:       1,
		cubeHalfSize: 0.5,
	}
	for _, opt := range options {
		opt(p)
	}
	logger := p.logger
	p.logger = logger.With("component", "pipeline")

	p.behavior = behavior.NewStage(world, scheduler, append([]behavior.StageBuilderOption{behavior.WithLogger(logger)}, p.behaviorOptions...)...)
	extractOptions := append([]extract.StageBuilderOption{extract.WithLogger(logger)}, p.extractOptions...)
	p.matrices = extract.NewMatrixStage(world, scheduler, extractOptions...)
	p.colors = extract.NewColorStage(world, scheduler, extractOptions...)

	vertices, indices := renderer.CubeMesh(p.cubeHalfSize)
	mesh, err := backend.CreateMesh("cube", vertices, indices)
	if err != nil {
		p.logger.Error("failed to create instance mesh", "error", err)
		mesh = nil
	}
	material, err := backend.CreateMaterial("instanced")
	if err != nil {
		p.logger.Error("failed to create instance material", "error", err)
		material = nil
	}
	p.mesh, p.material = mesh, material

	p.sync = renderer.NewInstanceSync(p.matrices, p.colors, backend, mesh, material,
		append([]renderer.InstanceSyncBuilderOption{renderer.WithSyncLogger(logger)}, p.syncOptions...)...)

	p.backend.SetViewProjection(p.camera.ViewProjection(p.aspect()))
	return p
}

func (p *pipeline) aspect() float32 {
	if p.height <= 0 {
		return 1
	}
	return float32(p.width) / float32(p.height)
}

func (p *pipeline) Frame(dt float32) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	// The previous frame ended in the render join, so no job holds a view here.
	if p.world.Flush() {
		p.logger.Debug("population changed", "generation", p.world.Generation())
	}

	prev := job.Combine(p.matrices.Pending(), p.colors.Pending())
	moved := p.behavior.Schedule(dt, prev)
	p.matrices.Schedule(moved)
	// Colors are not written by behavior, so the color pass may overlap it.
	p.colors.Schedule(prev)

	frameErr := p.backend.BeginFrame()
	if frameErr != nil {
		p.logger.Warn("skipping frame", "error", frameErr)
	}

	syncErr := p.sync.Sync()

	if frameErr == nil {
		p.backend.EndFrame()
		p.backend.Present()
	}
	p.frames++

	if syncErr != nil {
		return fmt.Errorf("frame %d: %w", p.frames, syncErr)
	}
	return nil
}

func (p *pipeline) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.width, p.height = width, height
	p.backend.Resize(width, height)
	p.backend.SetViewProjection(p.camera.ViewProjection(p.aspect()))
}

func (p *pipeline) Orbit(dAzimuth, dElevation float32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.camera.Orbit(dAzimuth, dElevation)
	p.backend.SetViewProjection(p.camera.ViewProjection(p.aspect()))
}

func (p *pipeline) Camera() renderer.Camera {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.camera
}

func (p *pipeline) Viewport() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.width, p.height
}

func (p *pipeline) Behavior() behavior.Stage { return p.behavior }
func (p *pipeline) Matrices() extract.Stage[mgl32.Mat4] { return p.matrices }
func (p *pipeline) Colors() extract.Stage[population.Color] { return p.colors }
func (p *pipeline) Sync() renderer.InstanceSync { return p.sync }

func (p *pipeline) Frames() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frames
}

func (p *pipeline) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	job.Combine(p.matrices.Pending(), p.colors.Pending()).Complete()
	p.sync.Release()
	if p.material != nil {
		p.material.Release()
	}
	if p.mesh != nil {
		p.mesh.Release()
	}
}
