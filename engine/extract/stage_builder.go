package extract

import (
	"log/slog"
)

// StageBuilderOption is a functional option applied to an extraction stage during construction.
type StageBuilderOption func(*stageConfig)

// WithMatrixPolicy overrides the capacity policy of a matrix stage. Ignored by color stages.
//
// Parameters:
//   - p: the matrix policy
//
// Returns:
//   - StageBuilderOption: a function that applies the policy option
func WithMatrixPolicy(p MatrixPolicy) StageBuilderOption {
	return func(c *stageConfig) {
		c.matrixPolicy = p
	}
}

// WithColorPolicy overrides the capacity policy of a color stage. Ignored by matrix stages.
//
// Parameters:
//   - p: the color policy
//
// Returns:
//   - StageBuilderOption: a function that applies the policy option
func WithColorPolicy(p ColorPolicy) StageBuilderOption {
	return func(c *stageConfig) {
		c.colorPolicy = p
	}
}

// WithBatchCount overrides the scheduler's default batch count for this stage.
//
// Parameters:
//   - n: target number of batches, values below 1 are clamped to 1
//
// Returns:
//   - StageBuilderOption: a function that applies the batch count option
func WithBatchCount(n int) StageBuilderOption {
	return func(c *stageConfig) {
		c.batchCount = max(n, 1)
	}
}

// WithLogger sets the logger resize events are reported to.
//
// Parameters:
//   - l: the logger
//
// Returns:
//   - StageBuilderOption: a function that applies the logger option
func WithLogger(l *slog.Logger) StageBuilderOption {
	return func(c *stageConfig) {
		if l != nil {
			c.logger = l
		}
	}
}
