package engine

import (
	"log/slog"
	"time"

	"github.com/Carmen-Shannon/oxy-swarm/engine/profiler"
	"github.com/Carmen-Shannon/oxy-swarm/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled.Store(enabled)
	}
}

// WithProfiler replaces the default profiler.
//
// Parameters:
//   - p: a configured Profiler
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiler(p *profiler.Profiler) EngineBuilderOption {
	return func(e *engine) {
		e.profiler = p
	}
}

// WithTickRate sets the engine tick rate in frames per second.
// The tick callback will be called at this rate.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60.0
		}
		e.engineTickRate = time.Second / time.Duration(fps)
	}
}

// WithWindow sets the window whose message loop Run pumps. Without a window the engine runs headless.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.renderFrameLimit = 0
			return
		}
		e.renderFrameLimit = time.Second / time.Duration(fps)
	}
}

// WithMaxFrames stops the engine after n pipeline frames. 0 runs until Quit.
//
// Parameters:
//   - n: the frame count
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithMaxFrames(n uint64) EngineBuilderOption {
	return func(e *engine) {
		e.maxFrames = n
	}
}

// WithLogger sets the logger used by the engine and its default profiler.
func WithLogger(l *slog.Logger) EngineBuilderOption {
	return func(e *engine) {
		if l != nil {
			e.logger = l
		}
	}
}
