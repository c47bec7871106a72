package main

import (
	"log/slog"
	"testing"

	"github.com/Carmen-Shannon/oxy-swarm/common"
	"github.com/Carmen-Shannon/oxy-swarm/engine/job"
	"github.com/Carmen-Shannon/oxy-swarm/engine/pipeline"
	"github.com/Carmen-Shannon/oxy-swarm/engine/population"
	"github.com/Carmen-Shannon/oxy-swarm/engine/renderer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestController(t *testing.T) (*population.World, pipeline.Pipeline, *controller) {
	t.Helper()
	world := population.NewWorld(nil)
	spawner := population.NewSpawner(4, 4, 2, 1, 2, 1, nil)
	spawner.Populate(world)
	pipe := pipeline.NewPipeline(world, job.NewScheduler(job.WithWorkers(2)), renderer.NewHeadlessBackend(),
		pipeline.WithViewport(1600, 900))
	return world, pipe, newController(world, pipe, spawner, 8, 0, slog.Default())
}

func TestControllerClickTogglesTargetUnderCursor(t *testing.T) {
	world, _, c := newTestController(t)

	c.onMouseButton(common.MouseButtonLeft, true, 800, 450)
	c.update()
	target, ok := world.Target()
	require.True(t, ok)
	assert.InDelta(t, 0, target.Position.X(), 0.5)
	assert.InDelta(t, 0, target.Position.Z(), 0.5)
	assert.Equal(t, float32(8), target.Radius)

	c.onMouseButton(common.MouseButtonLeft, false, 800, 450)
	c.onMouseButton(common.MouseButtonRight, true, 800, 450)
	c.update()
	_, ok = world.Target()
	assert.True(t, ok, "release and other buttons do not toggle")

	c.onMouseButton(common.MouseButtonLeft, true, 800, 450)
	c.update()
	_, ok = world.Target()
	assert.False(t, ok)
}

func TestControllerCursorMovesActiveTarget(t *testing.T) {
	world, _, c := newTestController(t)
	c.onMouseButton(common.MouseButtonLeft, true, 800, 450)
	c.update()

	c.onMouseMove(200, 450)
	c.update()
	target, ok := world.Target()
	require.True(t, ok)
	assert.Less(t, target.Position.X(), float32(0))
}

func TestControllerScrollClampsRadius(t *testing.T) {
	_, _, c := newTestController(t)
	c.onScroll(1)
	assert.InDelta(t, 8.8, c.radius, 1e-4)

	c.onScroll(-200)
	assert.Equal(t, float32(minTargetRadius), c.radius)
	c.onScroll(500)
	assert.Equal(t, float32(maxTargetRadius), c.radius)
}

func TestControllerKeys(t *testing.T) {
	world, pipe, c := newTestController(t)
	c.onMouseButton(common.MouseButtonLeft, true, 800, 450)
	c.update()

	c.onKeyDown(common.KeyC)
	c.update()
	_, ok := world.Target()
	assert.False(t, ok)

	c.onKeyDown(common.KeyEqual)
	require.NoError(t, pipe.Frame(1.0/60))
	assert.Len(t, world.Poses(), 32)

	c.onKeyDown(common.KeyMinus)
	require.NoError(t, pipe.Frame(1.0/60))
	assert.Len(t, world.Poses(), 16)
}

func TestRampAddsLayersUntilFloor(t *testing.T) {
	world := population.NewWorld(nil)
	spawner := population.NewSpawner(2, 2, 1, 1, 2, 1, nil)
	r := &rampController{world: world, spawner: spawner, floor: 30, logger: slog.Default()}

	r.observe(0, 0)
	assert.Equal(t, 0, spawner.Layers())

	r.observe(1, 60)
	r.observe(1, 60)
	assert.Equal(t, 1, spawner.Layers(), "one layer per report")

	r.observe(2, 10)
	r.observe(3, 60)
	assert.Equal(t, 1, spawner.Layers())
	assert.True(t, r.stopped)

	world.Flush()
	assert.Len(t, world.Poses(), 4)
}

func TestControllerArrowKeysOrbitCamera(t *testing.T) {
	_, pipe, c := newTestController(t)
	before := pipe.Camera().Eye

	c.onKeyDown(common.KeyRight)
	assert.False(t, before.ApproxEqual(pipe.Camera().Eye))
	assert.InDelta(t, before.Len(), pipe.Camera().Eye.Len(), 1e-3)
}
