package job

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// Executor runs submitted functions on some set of goroutines.
type Executor interface {
	// Execute submits fn for asynchronous execution. Execute may block while the
	// executor's queue is full but must never run fn on the calling goroutine.
	//
	// Parameters:
	//   - id: a caller-assigned task identifier used for diagnostics
	//   - fn: the work to run
	Execute(id int, fn func())
}

type poolExecutor struct {
	pool worker.DynamicWorkerPool
}

var _ Executor = &poolExecutor{}

// NewPoolExecutor creates an Executor backed by a reusable dynamic worker pool.
// Workers are kept warm across frames and exit after idle of inactivity.
//
// Parameters:
//   - workers: maximum worker goroutines, values below 1 use runtime.NumCPU()
//   - queue: pending task queue length
//   - idle: how long an idle worker waits before exiting
//
// Returns:
//   - Executor: the pool-backed executor
func NewPoolExecutor(workers, queue int, idle time.Duration) Executor {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	if queue < 1 {
		queue = 256
	}
	if idle <= 0 {
		idle = time.Second
	}
	return &poolExecutor{
		pool: worker.NewDynamicWorkerPool(workers, queue, idle),
	}
}

func (e *poolExecutor) Execute(id int, fn func()) {
	e.pool.SubmitTask(worker.Task{
		ID: id,
		Do: func() (any, error) {
			fn()
			return nil, nil
		},
	})
}
