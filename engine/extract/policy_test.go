package extract

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatrixPolicyGrowth(t *testing.T) {
	p := DefaultMatrixPolicy()

	assert.Equal(t, 8192, p.Next(8192, 0))
	assert.Equal(t, 8192, p.Next(8192, 7168), "exactly capacity-margin does not grow")
	assert.Equal(t, 12288, p.Next(8192, 7169), "grows by the increment")
	assert.Equal(t, 13288, p.Next(8192, 12264), "grows to live+margin when the increment is not enough")
	assert.Equal(t, 8192+4096, p.Next(8192, 9000))
	assert.GreaterOrEqual(t, p.Next(8192, 9000), 9000+1024)
}

func TestMatrixPolicyNeverShrinks(t *testing.T) {
	p := DefaultMatrixPolicy()
	rng := rand.New(rand.NewSource(1))

	capacity := p.Initial()
	for i := 0; i < 2000; i++ {
		live := rng.Intn(100000)
		next := p.Next(capacity, live)
		require.GreaterOrEqual(t, next, capacity)
		require.GreaterOrEqual(t, next, live)
		capacity = next
	}
}

func TestColorPolicyGrowAndShrink(t *testing.T) {
	p := DefaultColorPolicy()

	assert.Equal(t, 8192, p.Next(8192, 8192))
	assert.Equal(t, 16384, p.Next(8192, 8193))
	assert.Equal(t, 16384, p.Next(16384, 8192), "exactly half does not shrink")
	assert.Equal(t, 8192, p.Next(16384, 8191))
	assert.Equal(t, 8192, p.Next(65536, 10), "never below the floor")
	assert.Equal(t, 16384, p.Next(65536, 9000))
	assert.Equal(t, 8192, p.Next(8192, 0), "floor capacity never shrinks")
}

func TestColorPolicyShrinkOnlyUnderHysteresis(t *testing.T) {
	p := DefaultColorPolicy()
	rng := rand.New(rand.NewSource(2))

	capacity := p.Initial()
	for i := 0; i < 2000; i++ {
		live := rng.Intn(70000)
		next := p.Next(capacity, live)
		require.GreaterOrEqual(t, next, live)
		require.GreaterOrEqual(t, next, p.Floor)
		if next < capacity {
			require.Less(t, 2*live, capacity)
			require.Greater(t, capacity, p.Floor)
		}
		capacity = next
	}
}
