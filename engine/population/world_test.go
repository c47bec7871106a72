package population

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spawnAt(x float32) Spawn {
	return Spawn{
		Pose:  Pose{Position: mgl32.Vec3{x, 0, 0}, Rotation: mgl32.QuatIdent(), Scale: 1},
		Speed: 1,
		Color: Color{R: x},
	}
}

func TestSpawnIsDeferredUntilFlush(t *testing.T) {
	w := NewWorld(nil)
	w.Spawn(spawnAt(1))

	assert.Empty(t, w.Movers())
	gen := w.Generation()

	require.True(t, w.Flush())
	assert.Greater(t, w.Generation(), gen)
	assert.Len(t, w.Movers(), 1)
	assert.Len(t, w.Poses(), 1)
	assert.Len(t, w.Colors(), 1)

	assert.False(t, w.Flush(), "nothing pending")
}

func TestViewsShareEnumerationOrder(t *testing.T) {
	w := NewWorld(nil)
	for i := 0; i < 50; i++ {
		w.Spawn(spawnAt(float32(i)))
	}
	w.Flush()

	movers := w.Movers()
	poses := w.Poses()
	colors := w.Colors()
	require.Len(t, poses, 50)
	require.Len(t, colors, 50)
	for i := range poses {
		assert.Same(t, movers[i].Pose, poses[i])
		assert.Equal(t, poses[i].Position.X(), colors[i].R, "index %d", i)
	}
}

func TestViewsAreCachedPerGeneration(t *testing.T) {
	w := NewWorld(nil)
	w.Spawn(spawnAt(1))
	w.Flush()

	a := w.Poses()
	b := w.Poses()
	assert.Same(t, a[0], b[0])

	a[0].Scale = 4
	assert.Equal(t, float32(4), w.Poses()[0].Scale, "views expose live storage")
}

func TestDespawn(t *testing.T) {
	w := NewWorld(nil)
	for i := 0; i < 10; i++ {
		w.Spawn(spawnAt(float32(i)))
	}
	w.Flush()

	w.Despawn(4)
	require.True(t, w.Flush())
	assert.Len(t, w.Movers(), 6)
	assert.Len(t, w.Colors(), 6)

	w.Despawn(100)
	w.Flush()
	assert.Empty(t, w.Poses())
}

func TestRestAndSpeedCapturedAtSpawn(t *testing.T) {
	w := NewWorld(nil)
	s := spawnAt(5)
	s.Speed = 2.5
	w.Spawn(s)
	w.Flush()

	m := w.Movers()[0]
	assert.Equal(t, float32(2.5), m.Speed.Value)
	assert.True(t, m.Rest.Translation().ApproxEqual(mgl32.Vec3{5, 0, 0}))
}

func TestTargetSingleton(t *testing.T) {
	w := NewWorld(nil)
	_, ok := w.Target()
	assert.False(t, ok)

	w.SetTarget(Target{Position: mgl32.Vec3{1, 2, 3}, Radius: 4})
	tgt, ok := w.Target()
	assert.True(t, ok)
	assert.Equal(t, float32(4), tgt.Radius)

	w.SetTarget(Target{Radius: 9})
	tgt, _ = w.Target()
	assert.Equal(t, float32(9), tgt.Radius)

	w.ClearTarget()
	_, ok = w.Target()
	assert.False(t, ok)
}
