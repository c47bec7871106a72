package renderer

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-swarm/engine/window"
)

// backendConfig is the construction state collected from BackendBuilderOptions.
type backendConfig struct {
	forceFallbackAdapter bool
	presentMode          PresentMode
	msaa                 MSAASampleCount
	logger               *slog.Logger
}

// NewBackend creates a Backend of the given type. The WGPU backend requests an adapter and device
// for the window's surface and configures it to the window size; it panics if no adapter or device
// is available. The headless backend ignores the window, which may be nil.
//
// Parameters:
//   - backendType: the backend implementation to create
//   - win: the window to present to, used by BackendTypeWGPU
//   - options: optional BackendBuilderOption functions
//
// Returns:
//   - Backend: the created backend
func NewBackend(backendType BackendType, win window.Window, options ...BackendBuilderOption) Backend {
	cfg := &backendConfig{
		presentMode: PresentModeUncapped,
		msaa:        MSAA4x,
		logger:      slog.Default(),
	}
	for _, opt := range options {
		opt(cfg)
	}
	logger := cfg.logger.With("component", "renderer")

	switch backendType {
	case BackendTypeHeadless:
		logger.Info("using headless backend")
		return NewHeadlessBackend()
	case BackendTypeWGPU:
		fallthrough
	default:
		b := newWGPUBackend(win.SurfaceDescriptor(), cfg.forceFallbackAdapter, cfg.msaa, cfg.presentMode, logger)
		b.Resize(win.Width(), win.Height())
		logger.Info("using wgpu backend", "msaa", int(cfg.msaa), "software", cfg.forceFallbackAdapter)
		return b
	}
}
