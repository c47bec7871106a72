package common

// Virtual key codes for cross-platform input handling.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeySpace = 32  // Spacebar (ASCII)
	KeyMinus = 45  // - key (ASCII)
	KeyEqual = 61  // = key (ASCII)
	KeyC     = 67  // C key (ASCII)
	KeyEsc   = 256 // Escape key (GLFW)
	KeyRight = 262 // Right arrow (GLFW)
	KeyLeft  = 263 // Left arrow (GLFW)
	KeyDown  = 264 // Down arrow (GLFW)
	KeyUp    = 265 // Up arrow (GLFW)
)

// MouseButton identifies a mouse button. Values match GLFW mouse button codes.
type MouseButton int

const (
	MouseButtonLeft   MouseButton = 0
	MouseButtonRight  MouseButton = 1
	MouseButtonMiddle MouseButton = 2
)
