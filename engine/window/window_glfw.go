package window

import (
	"fmt"
	"runtime"

	"github.com/Carmen-Shannon/oxy-swarm/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

type glfwWindow struct {
	window  *glfw.Window
	running bool
}

// newPlatformWindow opens a GLFW window without a client API (the surface comes from wgpu) and
// routes its input callbacks into w. The calling goroutine is locked to its OS thread, as GLFW
// requires for every later event and destroy call.
//
// go-gl/glfw: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw
func newPlatformWindow(w *engineWindow) error {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize GLFW: %w", err)
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	win, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return fmt.Errorf("failed to create GLFW window: %w", err)
	}
	win.SetSizeLimits(w.minWidth, w.minHeight, w.maxWidth, w.maxHeight)

	gw := &glfwWindow{window: win, running: true}
	w.internalWindow = gw

	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if action == glfw.Press && w.keyPressed(uint32(key)) {
			gw.running = false
			win.SetShouldClose(true)
		}
	})
	win.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		w.scrolled(yoff)
	})
	win.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		if action == glfw.Repeat {
			return
		}
		x, y := win.GetCursorPos()
		w.mouseButton(common.MouseButton(button), action == glfw.Press, x, y)
	})
	win.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		w.cursorMoved(x, y)
	})
	// Framebuffer size, not window size: the surface and GroundRay work in pixels, which differ on high-DPI displays.
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.framebufferResized(width, height)
	})

	w.width, w.height = win.GetFramebufferSize()
	w.logger.Info("window created", "width", w.width, "height", w.height, "title", w.title)
	return nil
}

// platformGetSurfaceDescriptor builds the wgpu surface descriptor for the native window through wgpuglfw.
func platformGetSurfaceDescriptor(w *engineWindow) *wgpu.SurfaceDescriptor {
	if w.internalWindow == nil {
		return nil
	}
	return wgpuglfw.GetSurfaceDescriptor(w.internalWindow.(*glfwWindow).window)
}

func platformIsRunningCheck(w *engineWindow) bool {
	if w.internalWindow == nil {
		return false
	}
	gw := w.internalWindow.(*glfwWindow)
	return gw.running && !gw.window.ShouldClose()
}

// platformRequestClose only flags the window; glfwSetWindowShouldClose is callable from any thread.
func platformRequestClose(w *engineWindow) {
	if w.internalWindow == nil {
		return
	}
	w.internalWindow.(*glfwWindow).window.SetShouldClose(true)
}

func platformCloseWindow(w *engineWindow) error {
	if w.internalWindow == nil {
		return fmt.Errorf("window is not initialized")
	}
	gw := w.internalWindow.(*glfwWindow)
	gw.running = false
	gw.window.Destroy()
	glfw.Terminate()
	w.internalWindow = nil
	w.logger.Info("window closed")
	return nil
}

// platformProcessMessages drains pending events without blocking and reports whether to keep running.
func platformProcessMessages(w *engineWindow) bool {
	glfw.PollEvents()
	return platformIsRunningCheck(w)
}
