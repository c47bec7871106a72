package population

import (
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// Spawner places entities on a centered grid in the XZ plane with random speed, heading and color.
type Spawner struct {
	Columns  int
	Rows     int
	Spacing  float32
	MinSpeed float32
	MaxSpeed float32

	// mu guards rng and layer. Input handlers and the tick loop both record layers.
	mu     sync.Mutex
	rng    *rand.Rand
	layer  int
	logger *slog.Logger
}

// NewSpawner creates a Spawner. A zero seed picks a time-based seed.
func NewSpawner(columns, rows int, spacing, minSpeed, maxSpeed float32, seed int64, logger *slog.Logger) *Spawner {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Spawner{
		Columns:  columns,
		Rows:     rows,
		Spacing:  spacing,
		MinSpeed: minSpeed,
		MaxSpeed: maxSpeed,
		rng:      rand.New(rand.NewSource(seed)),
		logger:   logger.With("component", "spawner", "seed", seed),
	}
}

// Count returns the number of entities one Populate call spawns.
func (s *Spawner) Count() int {
	return max(s.Columns, 0) * max(s.Rows, 0)
}

// Record queues one full grid of spawns on w without flushing. Each call stacks its grid one
// Spacing above the previous one. It returns the number queued.
func (s *Spawner) Record(w *World) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.Count()
	for i := 0; i < n; i++ {
		w.Spawn(s.next(i))
	}
	s.logger.Info("population spawned", "count", n, "columns", s.Columns, "rows", s.Rows, "layer", s.layer)
	s.layer++
	return n
}

// Populate records one full grid of spawns on w and flushes them. It returns the number spawned.
func (s *Spawner) Populate(w *World) int {
	n := s.Record(w)
	w.Flush()
	return n
}

// Layers returns how many grids have been recorded.
func (s *Spawner) Layers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layer
}

// next builds the spawn for grid cell i. Caller must hold s.mu.
func (s *Spawner) next(i int) Spawn {
	col := i % s.Columns
	row := i / s.Columns
	offX := float32(s.Columns-1) * s.Spacing / 2
	offZ := float32(s.Rows-1) * s.Spacing / 2

	yaw := s.rng.Float32() * 2 * math.Pi
	return Spawn{
		Pose: Pose{
			Position: mgl32.Vec3{float32(col)*s.Spacing - offX, float32(s.layer) * s.Spacing, float32(row)*s.Spacing - offZ},
			Rotation: mgl32.QuatRotate(yaw, mgl32.Vec3{0, 1, 0}),
			Scale:    1,
		},
		Speed: s.MinSpeed + s.rng.Float32()*(s.MaxSpeed-s.MinSpeed),
		Color: Color{R: s.rng.Float32(), G: s.rng.Float32(), B: s.rng.Float32()},
	}
}
