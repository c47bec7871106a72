package job

import (
	"bytes"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchSize(t *testing.T) {
	assert.Equal(t, 1, BatchSize(0, 30))
	assert.Equal(t, 1, BatchSize(5, 30))
	assert.Equal(t, 300, BatchSize(9000, 30))
	assert.Equal(t, 301, BatchSize(9001, 30))
	assert.Equal(t, 10, BatchSize(10, 0), "batch count clamps to 1")
}

func TestScheduleRunsAfterDependencies(t *testing.T) {
	s := NewScheduler(WithWorkers(4))

	gate, open := newPending()
	var ran atomic.Bool
	h := s.Schedule("after-gate", func() { ran.Store(true) }, gate)

	assert.Never(t, ran.Load, 20*time.Millisecond, time.Millisecond)
	assert.False(t, h.IsCompleted())

	open()
	h.Complete()
	assert.True(t, ran.Load())
}

func TestScheduleBatchedCoversRangeOnce(t *testing.T) {
	s := NewScheduler(WithWorkers(4))

	const n = 9001
	hits := make([]int32, n)
	var batches atomic.Int32

	h := s.ScheduleBatched("cover", func() int { return n }, 30, func(start, end int) {
		batches.Add(1)
		for i := start; i < end; i++ {
			atomic.AddInt32(&hits[i], 1)
		}
	})
	h.Complete()

	for i, c := range hits {
		require.Equal(t, int32(1), c, "index %d", i)
	}
	assert.Equal(t, int32(30), batches.Load())
}

func TestScheduleBatchedReadsCountAfterDependencies(t *testing.T) {
	s := NewScheduler(WithWorkers(2))

	var n int
	snapshot := s.Schedule("snapshot", func() { n = 100 })

	var total atomic.Int64
	h := s.ScheduleBatched("sum", func() int { return n }, 7, func(start, end int) {
		total.Add(int64(end - start))
	}, snapshot)
	h.Complete()

	assert.Equal(t, int64(100), total.Load())
}

func TestScheduleBatchedEmptyCompletes(t *testing.T) {
	s := NewScheduler()
	called := false
	h := s.ScheduleBatched("empty", func() int { return 0 }, 30, func(int, int) { called = true })
	h.Complete()
	assert.False(t, called)
}

func TestScheduleDoesNotBlockCaller(t *testing.T) {
	s := NewScheduler()
	gate, open := newPending()

	done := make(chan struct{})
	go func() {
		s.Schedule("a", func() {}, gate)
		s.ScheduleBatched("b", func() int { return 10 }, 2, func(int, int) {}, gate)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduling blocked on an incomplete dependency")
	}
	open()
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestPanickingJobStillCompletes(t *testing.T) {
	var out syncBuffer
	s := NewScheduler(WithLogger(slog.New(slog.NewTextHandler(&out, nil))))

	h := s.ScheduleBatched("boom", func() int { return 4 }, 4, func(start, _ int) {
		if start == 2 {
			panic("bad batch")
		}
	})

	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("handle never completed after a panic")
	}
	assert.Eventually(t, func() bool { return bytes.Contains([]byte(out.String()), []byte("bad batch")) }, time.Second, time.Millisecond)
}

func TestPanickingCountCompletesWithoutBatches(t *testing.T) {
	var out syncBuffer
	s := NewScheduler(WithLogger(slog.New(slog.NewTextHandler(&out, nil))))

	var ran atomic.Bool
	h := s.ScheduleBatched("count", func() int { panic("no live set") }, 4, func(int, int) {
		ran.Store(true)
	})

	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("handle never completed after a panicking count")
	}
	assert.False(t, ran.Load())
	assert.Contains(t, out.String(), "no live set")
}
