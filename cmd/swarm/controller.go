package main

import (
	"log/slog"
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-swarm/common"
	"github.com/Carmen-Shannon/oxy-swarm/engine/pipeline"
	"github.com/Carmen-Shannon/oxy-swarm/engine/population"
)

const (
	minTargetRadius = 0.5
	maxTargetRadius = 500
	orbitStep       = 0.05
)

// controller turns window input into target and population changes. Input callbacks only record
// state; update applies it from the engine tick.
type controller struct {
	mu      sync.Mutex
	world   *population.World
	pipe    pipeline.Pipeline
	spawner *population.Spawner
	logger  *slog.Logger

	radius float32
	planeY float32

	active  bool
	dirty   bool
	cursorX int32
	cursorY int32
}

func newController(world *population.World, pipe pipeline.Pipeline, spawner *population.Spawner, radius, planeY float32, logger *slog.Logger) *controller {
	return &controller{
		world:   world,
		pipe:    pipe,
		spawner: spawner,
		logger:  logger.With("component", "controller"),
		radius:  radius,
		planeY:  planeY,
	}
}

// onMouseButton toggles the target with the left button.
func (c *controller) onMouseButton(button common.MouseButton, pressed bool, x, y int32) {
	if button != common.MouseButtonLeft || !pressed {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = !c.active
	c.cursorX, c.cursorY = x, y
	c.dirty = true
}

func (c *controller) onMouseMove(x, y int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cursorX, c.cursorY = x, y
	c.dirty = true
}

// onScroll grows or shrinks the target radius by 10% per wheel step.
func (c *controller) onScroll(delta float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := c.radius * float32(math.Pow(1.1, float64(delta)))
	c.radius = min(max(r, minTargetRadius), maxTargetRadius)
	c.dirty = true
}

func (c *controller) onKeyDown(key uint32) {
	switch key {
	case common.KeyEqual:
		c.spawner.Record(c.world)
	case common.KeyMinus:
		c.world.Despawn(c.spawner.Count())
		c.logger.Info("population despawned", "count", c.spawner.Count())
	case common.KeyC:
		c.mu.Lock()
		c.active = false
		c.dirty = true
		c.mu.Unlock()
	case common.KeyLeft:
		c.orbit(-orbitStep, 0)
	case common.KeyRight:
		c.orbit(orbitStep, 0)
	case common.KeyUp:
		c.orbit(0, orbitStep)
	case common.KeyDown:
		c.orbit(0, -orbitStep)
	}
}

// orbit moves the camera and re-aims an active target at the same cursor position.
func (c *controller) orbit(dAzimuth, dElevation float32) {
	c.pipe.Orbit(dAzimuth, dElevation)
	c.mu.Lock()
	c.dirty = true
	c.mu.Unlock()
}

// update publishes the target singleton for the next frame.
func (c *controller) update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return
	}
	c.dirty = false

	if !c.active {
		c.world.ClearTarget()
		return
	}
	width, height := c.pipe.Viewport()
	hit, ok := c.pipe.Camera().GroundRay(float32(c.cursorX), float32(c.cursorY), width, height, c.planeY)
	if !ok {
		c.world.ClearTarget()
		return
	}
	c.world.SetTarget(population.Target{Position: hit, Radius: c.radius})
}

// rampController adds one population layer per profiler report while the frame rate stays at or
// above floor.
type rampController struct {
	world   *population.World
	spawner *population.Spawner
	floor   float64
	logger  *slog.Logger
	seen    int
	stopped bool
}

func (r *rampController) observe(reports int, fps float64) {
	if r.floor <= 0 || r.stopped || reports == r.seen {
		return
	}
	r.seen = reports
	if fps < r.floor {
		r.stopped = true
		r.logger.Info("ramp stopped", "fps", fps, "floor", r.floor, "layers", r.spawner.Layers())
		return
	}
	r.spawner.Record(r.world)
}
