package job

import (
	"log/slog"
	"time"
)

// SchedulerBuilderOption is a functional option applied to a scheduler during construction via NewScheduler.
type SchedulerBuilderOption func(*scheduler)

// WithExecutor sets the executor batches run on. When set, WithWorkers and WithQueueSize are ignored.
//
// Parameters:
//   - e: the Executor to use
//
// Returns:
//   - SchedulerBuilderOption: a function that applies the executor option to a scheduler
func WithExecutor(e Executor) SchedulerBuilderOption {
	return func(s *scheduler) {
		s.executor = e
	}
}

// WithWorkers sets the worker count of the default pool executor. Values below 1 use runtime.NumCPU().
//
// Parameters:
//   - n: the maximum number of worker goroutines
//
// Returns:
//   - SchedulerBuilderOption: a function that applies the workers option to a scheduler
func WithWorkers(n int) SchedulerBuilderOption {
	return func(s *scheduler) {
		s.workers = n
	}
}

// WithQueueSize sets the task queue length of the default pool executor.
//
// Parameters:
//   - n: the queue length
//
// Returns:
//   - SchedulerBuilderOption: a function that applies the queue size option to a scheduler
func WithQueueSize(n int) SchedulerBuilderOption {
	return func(s *scheduler) {
		if n > 0 {
			s.queueSize = n
		}
	}
}

// WithIdleTimeout sets how long an idle worker of the default pool executor waits before exiting.
//
// Parameters:
//   - d: the idle timeout
//
// Returns:
//   - SchedulerBuilderOption: a function that applies the idle timeout option to a scheduler
func WithIdleTimeout(d time.Duration) SchedulerBuilderOption {
	return func(s *scheduler) {
		s.idleTimeout = d
	}
}

// WithBatchCount sets the default batch count reported by BatchCount. Values below 1 are clamped to 1.
//
// Parameters:
//   - n: the target number of batches per data-parallel pass
//
// Returns:
//   - SchedulerBuilderOption: a function that applies the batch count option to a scheduler
func WithBatchCount(n int) SchedulerBuilderOption {
	return func(s *scheduler) {
		s.batchCount = max(n, 1)
	}
}

// WithLogger sets the logger used for diagnostics.
//
// Parameters:
//   - l: the logger
//
// Returns:
//   - SchedulerBuilderOption: a function that applies the logger option to a scheduler
func WithLogger(l *slog.Logger) SchedulerBuilderOption {
	return func(s *scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}
