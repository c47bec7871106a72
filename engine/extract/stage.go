package extract

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-swarm/engine/job"
	"github.com/Carmen-Shannon/oxy-swarm/engine/population"
	"github.com/go-gl/mathgl/mgl32"
)

// Stage packs one component of the live set into a dense, capacity-managed buffer every frame.
// Buffer, Capacity and LiveCount describe the most recent pass and are only valid to read once
// Pending has completed.
type Stage[T any] interface {
	// Schedule queues one extraction pass: a snapshot job that fetches the live set and resizes
	// the buffer if needed, followed by batched conversion jobs that depend on it.
	//
	// Parameters:
	//   - deps: handles that must complete before the live set is read
	//
	// Returns:
	//   - job.Handle: completes once every entry has been written; also returned by Pending
	Schedule(deps ...job.Handle) job.Handle

	// Buffer returns the full backing buffer. Only the first LiveCount entries are meaningful.
	//
	// Returns:
	//   - []T: the buffer, of length Capacity
	Buffer() []T

	// Capacity returns the current buffer capacity.
	//
	// Returns:
	//   - int: the capacity
	Capacity() int

	// LiveCount returns the number of entries written by the most recent pass.
	//
	// Returns:
	//   - int: the live count
	LiveCount() int

	// Pending returns the handle of the most recently scheduled pass.
	//
	// Returns:
	//   - job.Handle: the pending-work handle
	Pending() job.Handle

	// Resizes returns how many times the buffer has been reallocated.
	//
	// Returns:
	//   - int: the resize count
	Resizes() int
}

type stage[S any, T any] struct {
	name      string
	scheduler job.Scheduler
	fetch     func() []S
	convert   func(S) T

	policy     CapacityPolicy
	batchCount int
	logger     *slog.Logger

	data    []T
	live    int
	resizes int
	pending job.Handle
}

// stageConfig collects builder options shared by the matrix and color stages.
type stageConfig struct {
	matrixPolicy MatrixPolicy
	colorPolicy  ColorPolicy
	batchCount   int
	logger       *slog.Logger
}

// NewMatrixStage creates the Stage that packs TRS matrices of every live Pose.
//
// Parameters:
//   - world: the population to read
//   - scheduler: the job scheduler
//   - options: functional options applied during construction
//
// Returns:
//   - Stage[mgl32.Mat4]: the matrix stage
func NewMatrixStage(world *population.World, scheduler job.Scheduler, options ...StageBuilderOption) Stage[mgl32.Mat4] {
	cfg := newStageConfig(scheduler, options)
	return newStage("matrix", scheduler, cfg.matrixPolicy, cfg, world.Poses, func(p *population.Pose) mgl32.Mat4 {
		return p.Matrix()
	})
}

// NewColorStage creates the Stage that copies the Color of every live colored entity.
//
// Parameters:
//   - world: the population to read
//   - scheduler: the job scheduler
//   - options: functional options applied during construction
//
// Returns:
//   - Stage[population.Color]: the color stage
func NewColorStage(world *population.World, scheduler job.Scheduler, options ...StageBuilderOption) Stage[population.Color] {
	cfg := newStageConfig(scheduler, options)
	return newStage("color", scheduler, cfg.colorPolicy, cfg, world.Colors, func(c *population.Color) population.Color {
		return *c
	})
}

func newStageConfig(scheduler job.Scheduler, options []StageBuilderOption) stageConfig {
	cfg := stageConfig{
		matrixPolicy: DefaultMatrixPolicy(),
		colorPolicy:  DefaultColorPolicy(),
		batchCount:   scheduler.BatchCount(),
		logger:       slog.Default(),
	}
	for _, option := range options {
		option(&cfg)
	}
	return cfg
}

func newStage[S any, T any](name string, scheduler job.Scheduler, policy CapacityPolicy, cfg stageConfig, fetch func() []S, convert func(S) T) *stage[S, T] {
	return &stage[S, T]{
		name:       name,
		scheduler:  scheduler,
		fetch:      fetch,
		convert:    convert,
		policy:     policy,
		batchCount: cfg.batchCount,
		logger:     cfg.logger.With("component", "extract", "buffer", name),
		data:       make([]T, policy.Initial()),
	}
}

func (s *stage[S, T]) Buffer() []T {
	return s.data
}

func (s *stage[S, T]) Capacity() int {
	return len(s.data)
}

func (s *stage[S, T]) LiveCount() int {
	return s.live
}

func (s *stage[S, T]) Pending() job.Handle {
	return s.pending
}

func (s *stage[S, T]) Resizes() int {
	return s.resizes
}

func (s *stage[S, T]) Schedule(deps ...job.Handle) job.Handle {
	var items []S
	snapshot := s.scheduler.Schedule(s.name+".snapshot", func() {
		items = s.fetch()
		s.reserve(len(items))
	}, deps...)

	s.pending = s.scheduler.ScheduleBatched(s.name+".copy", func() int {
		return len(items)
	}, s.batchCount, func(start, end int) {
		dst := s.data[start:end]
		for i, item := range items[start:end] {
			dst[i] = s.convert(item)
		}
	}, snapshot)
	return s.pending
}

// reserve applies the capacity policy for live entries, replacing the buffer on any change.
func (s *stage[S, T]) reserve(live int) {
	old := len(s.data)
	next := s.policy.Next(old, live)
	if next != old {
		s.data = make([]T, next)
		s.resizes++
		s.logger.Info("buffer resized", "old_capacity", old, "new_capacity", next, "live", live)
	}
	s.live = live
}
