package job

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestZeroHandleIsComplete(t *testing.T) {
	var h Handle
	assert.True(t, h.IsCompleted())
	h.Complete()
}

func TestCombineWaitsForAll(t *testing.T) {
	a, finishA := newPending()
	b, finishB := newPending()

	joined := Combine(a, b, Handle{})
	assert.False(t, joined.IsCompleted())

	finishA()
	assert.Never(t, joined.IsCompleted, 20*time.Millisecond, time.Millisecond)

	finishB()
	assert.Eventually(t, joined.IsCompleted, time.Second, time.Millisecond)
}

func TestCombineOfCompletedHandles(t *testing.T) {
	a, finishA := newPending()
	finishA()

	assert.True(t, Combine().IsCompleted())
	assert.True(t, Combine(a, Handle{}).IsCompleted())
}

func TestCombineSinglePendingReturnsIt(t *testing.T) {
	a, finishA := newPending()
	joined := Combine(Handle{}, a)
	assert.False(t, joined.IsCompleted())
	finishA()
	assert.True(t, joined.IsCompleted())
}
