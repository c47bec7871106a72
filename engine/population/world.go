package population

import (
	"log/slog"
	"sync"

	"github.com/mlange-42/ark/ecs"
)

// Mover is a live view entry over an entity's {Pose, RestPose, Speed} components.
// The pointers stay valid until the next Flush that applies a structural change.
type Mover struct {
	Pose  *Pose
	Rest  *RestPose
	Speed *Speed
}

// Spawn describes an entity to be created on the next Flush.
type Spawn struct {
	Pose  Pose
	Speed float32
	Color Color
}

type command struct {
	spawns  []Spawn
	despawn int
}

// World owns entity storage and hands out generation-cached live views over it.
// Structural changes are recorded with Spawn and Despawn and applied by Flush, which must
// only be called while no stage holds view pointers (between frames).
type World struct {
	mu     sync.Mutex
	logger *slog.Logger

	world  *ecs.World
	mapper *ecs.Map4[Pose, Speed, RestPose, Color]
	movers *ecs.Filter3[Pose, RestPose, Speed]
	poses  *ecs.Filter1[Pose]
	colors *ecs.Filter1[Color]

	pending    command
	generation uint64

	moverView      []Mover
	moverViewGen   uint64
	poseView       []*Pose
	poseViewGen    uint64
	colorView      []*Color
	colorViewGen   uint64
	removalScratch []ecs.Entity

	targetMu  sync.RWMutex
	target    Target
	hasTarget bool
}

// NewWorld creates an empty World.
func NewWorld(logger *slog.Logger) *World {
	if logger == nil {
		logger = slog.Default()
	}
	w := ecs.NewWorld()
	return &World{
		logger:     logger.With("component", "population"),
		world:      w,
		mapper:     ecs.NewMap4[Pose, Speed, RestPose, Color](w),
		movers:     ecs.NewFilter3[Pose, RestPose, Speed](w),
		poses:      ecs.NewFilter1[Pose](w),
		colors:     ecs.NewFilter1[Color](w),
		generation: 1,
	}
}

// Spawn records an entity for creation on the next Flush. Its RestPose is captured from s.Pose.
func (w *World) Spawn(s Spawn) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending.spawns = append(w.pending.spawns, s)
}

// Despawn records the removal of up to n entities on the next Flush.
func (w *World) Despawn(n int) {
	if n <= 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending.despawn += n
}

// Flush applies recorded spawns and despawns. Despawns run first and remove entities in
// enumeration order. It returns true if the live set changed.
func (w *World) Flush() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.pending.spawns) == 0 && w.pending.despawn == 0 {
		return false
	}

	removed := 0
	if w.pending.despawn > 0 {
		w.removalScratch = w.removalScratch[:0]
		query := w.movers.Query()
		for query.Next() {
			if len(w.removalScratch) < w.pending.despawn {
				w.removalScratch = append(w.removalScratch, query.Entity())
			}
		}
		for _, e := range w.removalScratch {
			w.world.RemoveEntity(e)
		}
		removed = len(w.removalScratch)
	}

	for i := range w.pending.spawns {
		s := &w.pending.spawns[i]
		rest := NewRestPose(s.Pose)
		speed := Speed{Value: s.Speed}
		w.mapper.NewEntity(&s.Pose, &speed, &rest, &s.Color)
	}
	spawned := len(w.pending.spawns)

	w.pending.spawns = w.pending.spawns[:0]
	w.pending.despawn = 0
	w.generation++

	w.logger.Debug("population flushed", "spawned", spawned, "removed", removed, "generation", w.generation)
	return spawned > 0 || removed > 0
}

// Generation returns a counter that changes whenever Flush alters the live set.
func (w *World) Generation() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.generation
}

// Movers returns the live {Pose, RestPose, Speed} set in enumeration order.
// The returned slice is owned by the World and reused until the next structural change.
func (w *World) Movers() []Mover {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.moverViewGen == w.generation {
		return w.moverView
	}
	w.moverView = w.moverView[:0]
	query := w.movers.Query()
	for query.Next() {
		pose, rest, speed := query.Get()
		w.moverView = append(w.moverView, Mover{Pose: pose, Rest: rest, Speed: speed})
	}
	w.moverViewGen = w.generation
	return w.moverView
}

// Poses returns the live Pose set in enumeration order.
// The returned slice is owned by the World and reused until the next structural change.
func (w *World) Poses() []*Pose {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.poseViewGen == w.generation {
		return w.poseView
	}
	w.poseView = w.poseView[:0]
	query := w.poses.Query()
	for query.Next() {
		w.poseView = append(w.poseView, query.Get())
	}
	w.poseViewGen = w.generation
	return w.poseView
}

// Colors returns the live Color set in enumeration order.
// The returned slice is owned by the World and reused until the next structural change.
func (w *World) Colors() []*Color {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.colorViewGen == w.generation {
		return w.colorView
	}
	w.colorView = w.colorView[:0]
	query := w.colors.Query()
	for query.Next() {
		w.colorView = append(w.colorView, query.Get())
	}
	w.colorViewGen = w.generation
	return w.colorView
}

// SetTarget creates or overwrites the target singleton.
func (w *World) SetTarget(t Target) {
	w.targetMu.Lock()
	defer w.targetMu.Unlock()
	w.target = t
	w.hasTarget = true
}

// ClearTarget removes the target singleton.
func (w *World) ClearTarget() {
	w.targetMu.Lock()
	defer w.targetMu.Unlock()
	w.target = Target{}
	w.hasTarget = false
}

// Target returns the target singleton and whether it exists.
func (w *World) Target() (Target, bool) {
	w.targetMu.RLock()
	defer w.targetMu.RUnlock()
	return w.target, w.hasTarget
}
