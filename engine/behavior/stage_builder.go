package behavior

import (
	"log/slog"
)

// StageBuilderOption is a functional option applied to a behavior stage during construction via NewStage.
type StageBuilderOption func(*stage)

// WithRules overrides the rule constants.
//
// Parameters:
//   - r: the rules to use
//
// Returns:
//   - StageBuilderOption: a function that applies the rules option to a stage
func WithRules(r Rules) StageBuilderOption {
	return func(s *stage) {
		s.rules = r
	}
}

// WithBatchCount overrides the scheduler's default batch count for this stage.
//
// Parameters:
//   - n: target number of batches, values below 1 are clamped to 1
//
// Returns:
//   - StageBuilderOption: a function that applies the batch count option to a stage
func WithBatchCount(n int) StageBuilderOption {
	return func(s *stage) {
		s.batchCount = max(n, 1)
	}
}

// WithLogger sets the logger used for diagnostics.
//
// Parameters:
//   - l: the logger
//
// Returns:
//   - StageBuilderOption: a function that applies the logger option to a stage
func WithLogger(l *slog.Logger) StageBuilderOption {
	return func(s *stage) {
		if l != nil {
			s.logger = l
		}
	}
}
