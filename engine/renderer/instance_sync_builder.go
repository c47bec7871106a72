package renderer

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-swarm/common"
)

// InstanceSyncBuilderOption is a functional option applied during construction via NewInstanceSync.
type InstanceSyncBuilderOption func(*instanceSync)

// WithBounds sets the world-space bound every instanced draw is issued with.
//
// Parameters:
//   - bounds: the static bound
//
// Returns:
//   - InstanceSyncBuilderOption: a function that applies the bounds option
func WithBounds(bounds common.AABB) InstanceSyncBuilderOption {
	return func(s *instanceSync) {
		s.bounds = bounds
	}
}

// WithSyncLogger sets the logger used by the render synchronization stage.
//
// Parameters:
//   - logger: the slog.Logger to use
//
// Returns:
//   - InstanceSyncBuilderOption: a function that applies the logger option
func WithSyncLogger(logger *slog.Logger) InstanceSyncBuilderOption {
	return func(s *instanceSync) {
		if logger != nil {
			s.logger = logger
		}
	}
}
