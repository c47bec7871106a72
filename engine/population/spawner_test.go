package population

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpawnerPopulatesGrid(t *testing.T) {
	w := NewWorld(nil)
	s := NewSpawner(4, 3, 2, 1, 3, 42, nil)

	assert.Equal(t, 12, s.Populate(w))

	movers := w.Movers()
	assert.Len(t, movers, 12)
	for _, m := range movers {
		assert.GreaterOrEqual(t, m.Speed.Value, float32(1))
		assert.LessOrEqual(t, m.Speed.Value, float32(3))
		assert.Equal(t, float32(0), m.Pose.Position.Y())
		assert.InDelta(t, 0, m.Pose.Position.X(), 3.0001, "grid is centered")
		assert.True(t, m.Rest.Translation().ApproxEqual(m.Pose.Position))
	}
}

func TestSpawnerSeedIsDeterministic(t *testing.T) {
	a := NewSpawner(2, 2, 1, 0, 1, 7, nil)
	b := NewSpawner(2, 2, 1, 0, 1, 7, nil)
	for i := 0; i < 4; i++ {
		assert.Equal(t, a.next(i), b.next(i))
	}
}

func TestSpawnerEmptyGrid(t *testing.T) {
	w := NewWorld(nil)
	assert.Equal(t, 0, NewSpawner(0, 10, 1, 0, 1, 1, nil).Populate(w))
	assert.Empty(t, w.Movers())
}

func TestSpawnerRecordStacksLayersUntilFlush(t *testing.T) {
	w := NewWorld(nil)
	s := NewSpawner(3, 3, 2, 1, 2, 5, nil)

	assert.Equal(t, 9, s.Populate(w))
	assert.Equal(t, 9, s.Record(w))
	assert.Len(t, w.Poses(), 9, "recorded spawns wait for Flush")
	assert.Equal(t, 2, s.Layers())

	w.Flush()
	poses := w.Poses()
	assert.Len(t, poses, 18)

	heights := map[float32]int{}
	for _, p := range poses {
		heights[p.Position.Y()]++
	}
	assert.Equal(t, map[float32]int{0: 9, 2: 9}, heights)
}

func TestSpawnerRecordFromConcurrentCallers(t *testing.T) {
	w := NewWorld(nil)
	s := NewSpawner(4, 4, 2, 1, 2, 9, nil)

	const callers = 8
	var wg sync.WaitGroup
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Record(w)
			_ = s.Layers()
		}()
	}
	wg.Wait()
	w.Flush()

	assert.Equal(t, callers, s.Layers())
	heights := map[float32]int{}
	for _, p := range w.Poses() {
		heights[p.Position.Y()]++
	}
	assert.Len(t, heights, callers, "every layer lands at its own height")
	for _, n := range heights {
		assert.Equal(t, 16, n)
	}
}
