package pipeline

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-swarm/engine/job"
	"github.com/Carmen-Shannon/oxy-swarm/engine/population"
	"github.com/Carmen-Shannon/oxy-swarm/engine/renderer"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type logBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *logBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type noMaterialBackend struct {
	*renderer.HeadlessBackend
}

func (b noMaterialBackend) CreateMaterial(label string) (renderer.Material, error) {
	return nil, errors.New("shader compilation failed")
}

func newTestPipeline(t *testing.T, n int, options ...PipelineBuilderOption) (*population.World, *renderer.HeadlessBackend, Pipeline) {
	t.Helper()
	w := population.NewWorld(nil)
	if n > 0 {
		population.NewSpawner(n, 1, 1, 1, 2, 3, nil).Populate(w)
	}
	backend := renderer.NewHeadlessBackend()
	p := NewPipeline(w, job.NewScheduler(job.WithWorkers(4)), backend, options...)
	return w, backend, p
}

func TestFrame_EmptyPopulationNeverUploadsOrDraws(t *testing.T) {
	_, backend, p := newTestPipeline(t, 0)

	for range 10 {
		require.NoError(t, p.Frame(1.0/60))
	}

	assert.Empty(t, backend.Writes())
	assert.Empty(t, backend.Draws())
	assert.Equal(t, uint64(10), p.Frames())
	assert.Equal(t, 10, backend.Frames())
}

func TestFrame_FirstFrameOverInitialCapacityResizesOnce(t *testing.T) {
	logs := &logBuffer{}
	logger := slog.New(slog.NewTextHandler(logs, nil))
	_, backend, p := newTestPipeline(t, 9000, WithLogger(logger))

	require.NoError(t, p.Frame(1.0/60))

	assert.Equal(t, 1, p.Matrices().Resizes())
	assert.GreaterOrEqual(t, p.Matrices().Capacity(), 9000+1024)
	assert.Equal(t, 9000, p.Matrices().LiveCount())
	assert.Equal(t, 16384, p.Sync().GPUCapacity())
	resized := 0
	for _, line := range strings.Split(logs.String(), "\n") {
		if strings.Contains(line, "buffer resized") && strings.Contains(line, "buffer=matrix") {
			resized++
		}
	}
	assert.Equal(t, 1, resized)

	draws := backend.Draws()
	require.Len(t, draws, 1)
	assert.Equal(t, uint32(9000), draws[0].Args.InstanceCount)
}

func TestFrame_MatricesReflectSameFrameBehavior(t *testing.T) {
	w, _, p := newTestPipeline(t, 64)
	w.SetTarget(population.Target{Position: mgl32.Vec3{0, 0, 0}, Radius: 1000})

	before := make([]mgl32.Vec3, 0, 64)
	for _, pose := range w.Poses() {
		before = append(before, pose.Position)
	}

	for range 3 {
		require.NoError(t, p.Frame(1.0/60))
	}

	poses := w.Poses()
	buf := p.Matrices().Buffer()
	moved := 0
	for i, pose := range poses {
		assert.True(t, buf[i].ApproxEqualThreshold(pose.Matrix(), 1e-5), "index %d", i)
		if !pose.Position.ApproxEqual(before[i]) {
			moved++
		}
	}
	assert.Positive(t, moved)
}

func TestFrame_NoTargetLeavesPosesUntouched(t *testing.T) {
	w, _, p := newTestPipeline(t, 32)
	before := make([]population.Pose, 0, 32)
	for _, pose := range w.Poses() {
		before = append(before, *pose)
	}

	for range 5 {
		require.NoError(t, p.Frame(1.0/60))
	}

	for i, pose := range w.Poses() {
		assert.Equal(t, before[i], *pose)
	}
}

func TestFrame_DespawnBetweenFrames(t *testing.T) {
	w, backend, p := newTestPipeline(t, 100)
	require.NoError(t, p.Frame(1.0/60))

	w.Despawn(40)
	require.NoError(t, p.Frame(1.0/60))

	draws := backend.Draws()
	require.Len(t, draws, 2)
	assert.Equal(t, uint32(100), draws[0].Args.InstanceCount)
	assert.Equal(t, uint32(60), draws[1].Args.InstanceCount)
	assert.Equal(t, 60, p.Colors().LiveCount())
}

func TestFrame_MissingMaterialDisablesRenderOnly(t *testing.T) {
	w := population.NewWorld(nil)
	population.NewSpawner(10, 1, 1, 1, 2, 3, nil).Populate(w)
	headless := renderer.NewHeadlessBackend()
	logs := &logBuffer{}

	p := NewPipeline(w, job.NewScheduler(), noMaterialBackend{headless}, WithLogger(slog.New(slog.NewTextHandler(logs, nil))))
	assert.False(t, p.Sync().Enabled())
	assert.Contains(t, logs.String(), "shader compilation failed")

	for range 3 {
		require.NoError(t, p.Frame(1.0/60))
	}
	assert.Empty(t, headless.Draws())
	assert.Equal(t, 10, p.Matrices().LiveCount(), "extraction keeps running")
	assert.Equal(t, 3, headless.Frames())
}

func TestResize_UpdatesViewProjection(t *testing.T) {
	cam := renderer.Camera{Eye: mgl32.Vec3{0, 10, 10}, FovDegrees: 45, Near: 0.1, Far: 100}
	_, backend, p := newTestPipeline(t, 0, WithCamera(cam), WithViewport(800, 600))
	assert.True(t, backend.ViewProjection().ApproxEqual(cam.ViewProjection(800.0/600.0)))

	p.Resize(1920, 1080)
	w, h := p.Viewport()
	assert.Equal(t, 1920, w)
	assert.Equal(t, 1080, h)
	assert.True(t, backend.ViewProjection().ApproxEqual(cam.ViewProjection(1920.0/1080.0)))

	p.Resize(0, 0)
	w, _ = p.Viewport()
	assert.Equal(t, 1920, w)
}

func TestOrbit_UpdatesCameraAndViewProjection(t *testing.T) {
	_, backend, p := newTestPipeline(t, 0, WithViewport(1600, 900))
	before := p.Camera()

	p.Orbit(0.3, 0)
	after := p.Camera()
	assert.False(t, before.Eye.ApproxEqual(after.Eye))
	assert.True(t, backend.ViewProjection().ApproxEqual(after.ViewProjection(1600.0/900.0)))
}
