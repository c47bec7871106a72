package window

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/Carmen-Shannon/oxy-swarm/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// Window is the swarm viewer's OS window. It owns the WebGPU surface and turns platform input into
// the callbacks the target and camera controller listen to. ProcessMessages and Close must run on
// the goroutine that created the window.
type Window interface {
	// SetUpdateCallback sets the function run after each batch of polled events.
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function told about framebuffer size changes, used to
	// reconfigure the surface and the camera aspect.
	//
	// Parameters:
	//   - callback: receives the new framebuffer width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetScrollCallback sets the function receiving vertical wheel steps. Positive is away from the user.
	SetScrollCallback(callback func(delta float32))

	// SetKeyDownCallback sets the function receiving key presses (common.Key* codes). Escape never
	// reaches it; it requests close instead.
	SetKeyDownCallback(callback func(keyCode uint32))

	// SetMouseButtonCallback sets the function receiving button presses and releases with the
	// cursor position at that moment.
	//
	// Parameters:
	//   - callback: receives the button, pressed or released, and the cursor x, y in pixels
	SetMouseButtonCallback(callback func(button common.MouseButton, pressed bool, x, y int32))

	// SetMouseMoveCallback sets the function receiving cursor positions in pixels.
	SetMouseMoveCallback(callback func(x, y int32))

	// SurfaceDescriptor returns the descriptor the wgpu backend creates its surface from, or nil
	// once the window is closed.
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning reports whether the message loop should keep going.
	IsRunning() bool

	// RequestClose asks the message loop to stop at its next iteration. Safe to call from any goroutine.
	RequestClose()

	// Close destroys the window and releases the platform library.
	//
	// Returns:
	//   - error: if the window was already closed
	Close() error

	// ProcessMessages polls events until the window is asked to close.
	ProcessMessages()

	// Width returns the framebuffer width in pixels.
	Width() int

	// Height returns the framebuffer height in pixels.
	Height() int
}

type engineWindow struct {
	title               string
	minWidth, minHeight int
	maxWidth, maxHeight int
	width, height       int

	// internalWindow is the *glfwWindow, nil once closed.
	internalWindow any

	onUpdate      func()
	onResize      func(width, height int)
	onScroll      func(delta float32)
	onKeyDown     func(keyCode uint32)
	onMouseButton func(button common.MouseButton, pressed bool, x, y int32)
	onMouseMove   func(x, y int32)

	logger *slog.Logger
}

var _ Window = &engineWindow{}

// NewWindow opens the viewer window. It panics if the platform window cannot be created.
//
// Parameters:
//   - options: functional options applied over the defaults
//
// Returns:
//   - Window: the open window
func NewWindow(options ...WindowBuilderOption) Window {
	w := newEngineWindow(options...)
	if err := newPlatformWindow(w); err != nil {
		panic(fmt.Sprintf("failed to create platform window: %v", err))
	}
	return w
}

// newEngineWindow applies options over the defaults without touching the platform.
func newEngineWindow(options ...WindowBuilderOption) *engineWindow {
	w := &engineWindow{
		title:     "oxy swarm",
		maxWidth:  3840,
		maxHeight: 2160,
		minWidth:  600,
		minHeight: 200,
		width:     1280,
		height:    720,
		logger:    slog.Default().With("component", "window"),
	}
	for _, opt := range options {
		opt(w)
	}
	return w
}

// keyPressed forwards a key press and reports whether it asked the window to close.
func (w *engineWindow) keyPressed(key uint32) (closeRequested bool) {
	if key == common.KeyEsc {
		return true
	}
	if w.onKeyDown != nil {
		w.onKeyDown(key)
	}
	return false
}

func (w *engineWindow) scrolled(yoff float64) {
	if w.onScroll != nil {
		w.onScroll(float32(yoff))
	}
}

func (w *engineWindow) mouseButton(button common.MouseButton, pressed bool, x, y float64) {
	if w.onMouseButton != nil {
		w.onMouseButton(button, pressed, int32(x), int32(y))
	}
}

func (w *engineWindow) cursorMoved(x, y float64) {
	if w.onMouseMove != nil {
		w.onMouseMove(int32(x), int32(y))
	}
}

// framebufferResized records the new size. Minimized windows report 0x0, which is kept out of
// the resize callback.
func (w *engineWindow) framebufferResized(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	w.width, w.height = width, height
	if w.onResize != nil {
		w.onResize(width, height)
	}
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetScrollCallback(callback func(delta float32)) {
	w.onScroll = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.onKeyDown = callback
}

func (w *engineWindow) SetMouseButtonCallback(callback func(button common.MouseButton, pressed bool, x, y int32)) {
	w.onMouseButton = callback
}

func (w *engineWindow) SetMouseMoveCallback(callback func(x, y int32)) {
	w.onMouseMove = callback
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) RequestClose() {
	platformRequestClose(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() && platformProcessMessages(w) {
		if w.onUpdate != nil {
			w.onUpdate()
		}
		runtime.Gosched()
	}
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}
