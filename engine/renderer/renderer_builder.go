package renderer

import "log/slog"

// BackendBuilderOption is a functional option applied during construction via NewBackend.
type BackendBuilderOption func(*backendConfig)

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - BackendBuilderOption: a function that applies the present mode option
func WithPresentMode(mode PresentMode) BackendBuilderOption {
	return func(c *backendConfig) {
		c.presentMode = mode
	}
}

// WithMSAA sets the multisample anti-aliasing sample count.
// When not specified, the default is MSAA4x. Use MSAAOff to disable MSAA entirely.
// Higher values (MSAA8x, MSAA16x) are adapter-dependent and may not be supported
// by all hardware.
//
// Parameters:
//   - count: the MSAASampleCount to use
//
// Returns:
//   - BackendBuilderOption: a function that applies the MSAA option
func WithMSAA(count MSAASampleCount) BackendBuilderOption {
	return func(c *backendConfig) {
		c.msaa = count
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - BackendBuilderOption: a function that applies the option
func WithForceSoftwareRenderer(force bool) BackendBuilderOption {
	return func(c *backendConfig) {
		c.forceFallbackAdapter = force
	}
}

// WithLogger sets the logger used by the backend.
//
// Parameters:
//   - logger: the slog.Logger to use
//
// Returns:
//   - BackendBuilderOption: a function that applies the logger option
func WithLogger(logger *slog.Logger) BackendBuilderOption {
	return func(c *backendConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}
