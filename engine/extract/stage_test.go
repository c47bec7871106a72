package extract

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-swarm/engine/job"
	"github.com/Carmen-Shannon/oxy-swarm/engine/population"
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

func populate(t *testing.T, n int) *population.World {
	t.Helper()
	w := population.NewWorld(nil)
	population.NewSpawner(n, 1, 0.5, 1, 2, 11, nil).Populate(w)
	return w
}

func TestMatrixRoundTrip(t *testing.T) {
	w := populate(t, 500)
	for i, p := range w.Poses() {
		p.Rotation = mgl32.QuatRotate(float32(i)*0.01, mgl32.Vec3{0, 1, 0})
		p.Scale = 0.5 + float32(i)*0.001
	}

	s := NewMatrixStage(w, job.NewScheduler(job.WithWorkers(4)))
	s.Schedule().Complete()

	poses := w.Poses()
	require.Equal(t, len(poses), s.LiveCount())
	buf := s.Buffer()
	for i, p := range poses {
		expected := mgl32.Translate3D(p.Position.X(), p.Position.Y(), p.Position.Z()).
			Mul4(p.Rotation.Mat4()).
			Mul4(mgl32.Scale3D(p.Scale, p.Scale, p.Scale))
		assert.True(t, buf[i].ApproxEqualThreshold(expected, 1e-5), "index %d", i)
	}
}

func TestColorCopy(t *testing.T) {
	w := populate(t, 100)

	s := NewColorStage(w, job.NewScheduler(), WithBatchCount(7))
	s.Schedule().Complete()

	colors := w.Colors()
	require.Equal(t, 100, s.LiveCount())
	for i, c := range colors {
		assert.Equal(t, *c, s.Buffer()[i])
	}
}

func TestMatrixResizeOnFirstUpdate(t *testing.T) {
	var out logBuffer
	logger := slog.New(slog.NewTextHandler(&out, nil))
	w := populate(t, 9000)

	s := NewMatrixStage(w, job.NewScheduler(), WithLogger(logger))
	assert.Equal(t, 8192, s.Capacity())

	s.Schedule().Complete()
	assert.Equal(t, 1, s.Resizes())
	assert.GreaterOrEqual(t, s.Capacity(), 9000+1024)
	assert.Equal(t, 9000, s.LiveCount())

	logged := out.String()
	assert.Equal(t, 1, strings.Count(logged, "buffer resized"))
	assert.Contains(t, logged, "old_capacity=8192")
	assert.Contains(t, logged, "new_capacity=12288")

	s.Schedule().Complete()
	assert.Equal(t, 1, s.Resizes(), "steady state does not resize again")
}

func TestColorShrinksWithHysteresis(t *testing.T) {
	w := populate(t, 20000)
	s := NewColorStage(w, job.NewScheduler())

	s.Schedule().Complete()
	require.Equal(t, 32768, s.Capacity())

	// 17000 is not below half of 32768
	w.Despawn(3000)
	w.Flush()
	s.Schedule().Complete()
	assert.Equal(t, 32768, s.Capacity())

	w.Despawn(13000)
	w.Flush()
	s.Schedule().Complete()
	assert.Equal(t, 8192, s.Capacity())
	assert.Equal(t, 4000, s.LiveCount())
	assert.Equal(t, 2, s.Resizes())
}

func TestMatrixNeverShrinks(t *testing.T) {
	w := populate(t, 20000)
	s := NewMatrixStage(w, job.NewScheduler())
	s.Schedule().Complete()
	grown := s.Capacity()

	w.Despawn(19000)
	w.Flush()
	s.Schedule().Complete()
	assert.Equal(t, grown, s.Capacity())
	assert.Equal(t, 1000, s.LiveCount())
}

func TestExtractionWaitsForDependency(t *testing.T) {
	w := populate(t, 10)
	sched := job.NewScheduler()

	gate := make(chan struct{})
	dep := sched.Schedule("gate", func() { <-gate })

	m := NewMatrixStage(w, sched)
	c := NewColorStage(w, sched)
	joined := job.Combine(m.Schedule(dep), c.Schedule(dep))
	assert.False(t, joined.IsCompleted())

	close(gate)
	joined.Complete()
	assert.Equal(t, 10, m.LiveCount())
	assert.Equal(t, 10, c.LiveCount())
	assert.True(t, m.Pending().IsCompleted())
}

func TestEmptyPopulation(t *testing.T) {
	w := population.NewWorld(nil)
	s := NewMatrixStage(w, job.NewScheduler())
	s.Schedule().Complete()
	assert.Equal(t, 0, s.LiveCount())
	assert.Equal(t, 8192, s.Capacity())
	assert.Equal(t, 0, s.Resizes())
}
