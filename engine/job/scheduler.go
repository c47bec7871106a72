package job

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-swarm/common"
)

// DefaultBatchCount is the target number of batches a data-parallel pass is split into.
const DefaultBatchCount = 30

// Scheduler dispatches work onto an Executor once the work's dependencies have completed.
// Dependencies are awaited by the scheduler itself, never by the goroutine that schedules the work.
type Scheduler interface {
	// Schedule runs fn once after every handle in deps has completed.
	//
	// Parameters:
	//   - name: a label used in diagnostics
	//   - fn: the work to run
	//   - deps: handles that must complete before fn starts
	//
	// Returns:
	//   - Handle: completes once fn has returned
	Schedule(name string, fn func(), deps ...Handle) Handle

	// ScheduleBatched splits the index range [0, count()) into contiguous batches and runs fn
	// once per batch after every handle in deps has completed. count is evaluated only after the
	// dependencies complete, so it may read results produced by them.
	//
	// Parameters:
	//   - name: a label used in diagnostics
	//   - count: returns the number of items to process
	//   - batchCount: target number of batches, values below 1 are treated as 1
	//   - fn: processes the half-open range [start, end)
	//   - deps: handles that must complete before any batch starts
	//
	// Returns:
	//   - Handle: completes once every batch has returned
	ScheduleBatched(name string, count func() int, batchCount int, fn func(start, end int), deps ...Handle) Handle

	// BatchCount returns the configured default batch count for data-parallel passes.
	//
	// Returns:
	//   - int: the batch count, always >= 1
	BatchCount() int
}

type scheduler struct {
	executor   Executor
	logger     *slog.Logger
	batchCount int
	nextID     atomic.Int64

	workers     int
	queueSize   int
	idleTimeout time.Duration
}

var _ Scheduler = &scheduler{}

// NewScheduler creates a Scheduler. Without WithExecutor it runs on a dynamic worker pool
// sized by WithWorkers and WithQueueSize.
//
// Parameters:
//   - options: functional options applied during construction
//
// Returns:
//   - Scheduler: the new scheduler
func NewScheduler(options ...SchedulerBuilderOption) Scheduler {
	s := &scheduler{
		logger:     slog.Default(),
		batchCount: DefaultBatchCount,
		queueSize:  256,
	}
	for _, option := range options {
		option(s)
	}
	if s.executor == nil {
		s.executor = NewPoolExecutor(s.workers, s.queueSize, s.idleTimeout)
	}
	s.logger = s.logger.With("component", "job")
	return s
}

func (s *scheduler) BatchCount() int {
	return s.batchCount
}

func (s *scheduler) Schedule(name string, fn func(), deps ...Handle) Handle {
	h, finish := newPending()
	dep := Combine(deps...)
	go func() {
		dep.Complete()
		s.execute(name, func() {
			defer finish()
			fn()
		})
	}()
	return h
}

func (s *scheduler) ScheduleBatched(name string, count func() int, batchCount int, fn func(start, end int), deps ...Handle) Handle {
	h, finish := newPending()
	dep := Combine(deps...)
	go func() {
		dep.Complete()

		n, ok := s.count(name, count)
		if !ok || n <= 0 {
			finish()
			return
		}

		size := BatchSize(n, batchCount)
		var remaining atomic.Int32
		remaining.Store(int32(common.CeilDiv(n, size)))

		for start := 0; start < n; start += size {
			end := min(start+size, n)
			s.execute(name, func() {
				defer func() {
					if remaining.Add(-1) == 0 {
						finish()
					}
				}()
				fn(start, end)
			})
		}
	}()
	return h
}

// execute hands fn to the executor. A panic inside fn is logged and swallowed so the
// deferred completion inside fn still releases dependents.
func (s *scheduler) execute(name string, fn func()) {
	id := int(s.nextID.Add(1))
	s.executor.Execute(id, func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("job panicked", "job", name, "id", id, "panic", fmt.Sprint(r))
			}
		}()
		fn()
	})
}

// count evaluates a batched job's item count. A panic is logged and reported as !ok so the
// caller can complete the handle without running any batch.
func (s *scheduler) count(name string, count func() int) (n int, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("job count panicked", "job", name, "panic", fmt.Sprint(r))
			n, ok = 0, false
		}
	}()
	return count(), true
}

// BatchSize returns the number of items per batch when n items are split into batchCount
// batches. The result is ceil(n / batchCount) and never less than 1.
//
// Parameters:
//   - n: the number of items
//   - batchCount: the target number of batches, values below 1 are treated as 1
//
// Returns:
//   - int: items per batch
func BatchSize(n, batchCount int) int {
	return max(common.CeilDiv(n, max(batchCount, 1)), 1)
}
