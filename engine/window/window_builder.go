package window

import "log/slog"

// WindowBuilderOption is a functional option for configuring an engineWindow.
type WindowBuilderOption func(w *engineWindow)

// WithTitle sets the window title displayed in the title bar.
//
// Parameters:
//   - title: the window title text
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithTitle(title string) WindowBuilderOption {
	return func(w *engineWindow) {
		w.title = title
	}
}

// WithSize sets the initial client area size. Non-positive values keep the default.
//
// Parameters:
//   - width: initial width in pixels
//   - height: initial height in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSize(width, height int) WindowBuilderOption {
	return func(w *engineWindow) {
		if width > 0 {
			w.width = width
		}
		if height > 0 {
			w.height = height
		}
	}
}

// WithSizeLimits bounds interactive resizing.
//
// Parameters:
//   - minWidth, minHeight: smallest allowed client area in pixels
//   - maxWidth, maxHeight: largest allowed client area in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSizeLimits(minWidth, minHeight, maxWidth, maxHeight int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.minWidth, w.minHeight = minWidth, minHeight
		w.maxWidth, w.maxHeight = maxWidth, maxHeight
	}
}

// WithLogger sets the logger for window lifecycle events.
func WithLogger(logger *slog.Logger) WindowBuilderOption {
	return func(w *engineWindow) {
		if logger != nil {
			w.logger = logger.With("component", "window")
		}
	}
}
