package engine

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-swarm/engine/pipeline"
	"github.com/Carmen-Shannon/oxy-swarm/engine/profiler"
	"github.com/Carmen-Shannon/oxy-swarm/engine/window"
)

// engine implements the Engine interface.
// Coordinates the tick, render, and window threads.
type engine struct {
	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running atomic.Bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	window   window.Window
	pipeline pipeline.Pipeline
	logger   *slog.Logger

	profiler         *profiler.Profiler
	profilingEnabled atomic.Bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32)

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
	maxFrames        uint64        // stop after this many frames; 0 = until quit
}

// Engine is the main entry point. It drives the frame pipeline from a render loop, runs a
// fixed-rate tick loop for input and control logic, and pumps the window's message loop.
type Engine interface {
	// Window returns the underlying window, or nil when running headless.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Pipeline returns the frame pipeline driven by the render loop.
	//
	// Returns:
	//   - pipeline.Pipeline: the pipeline
	Pipeline() pipeline.Pipeline

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in frames per second.
	// The tick callback will be called at this rate.
	//
	// Parameters:
	//   - fps: target frames per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick.
	// Use this for input processing and target control.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called after each pipeline frame.
	//
	// Parameters:
	//   - callback: function to call each render frame, receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Run starts the engine loops. With a window it blocks until the window closes; headless it
	// blocks until Quit is called or the frame limit from WithMaxFrames is reached.
	Run()

	// Quit signals all engine goroutines to stop.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
// Options are applied directly to the engine struct via the option-builder pattern.
//
// Parameters:
//   - p: the frame pipeline the render loop drives
//   - options: functional options for engine configuration (profiling, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(p pipeline.Pipeline, options ...EngineBuilderOption) Engine {
	e := &engine{
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		wg:              sync.WaitGroup{},
		pipeline:        p,
		logger:          slog.Default(),
		engineTickRate:  time.Second / 60,
	}

	for _, opt := range options {
		opt(e)
	}
	e.logger = e.logger.With("component", "engine")
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler(profiler.WithLogger(e.logger))
	}

	if e.window != nil {
		e.window.SetResizeCallback(func(width, height int) {
			e.pipeline.Resize(width, height)
		})
	}

	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Pipeline() pipeline.Pipeline {
	return e.pipeline
}

func (e *engine) Run() {
	e.running.Store(true)
	e.handle()
	if e.window != nil {
		e.window.ProcessMessages()
		e.signalQuit()
	}
	e.wg.Wait()
	e.running.Store(false)
	// The window is destroyed on the thread that pumped it, after the render loop has stopped.
	if e.window != nil {
		if err := e.window.Close(); err != nil {
			e.logger.Warn("failed to close window", "error", err)
		}
	}
	e.logger.Info("engine stopped", "frames", e.pipeline.Frames())
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
		if e.window != nil {
			e.window.RequestClose()
		}
	})
}

// handle launches the tick and render goroutines.
// Each goroutine is tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.wg.Add(2)
	go e.handleEngine()
	go e.handleRender()
}

// handleEngine runs the fixed-rate engine tick loop in its own goroutine.
// Fires the tick callback at the configured tick rate and listens for dynamic rate changes
// via tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// handleRender runs the uncapped (or frame-limited) render loop in its own goroutine.
// Each iteration runs one pipeline frame. Recovers from panics to avoid crashing the process
// and signals quit on recovery.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("render goroutine recovered from panic", "panic", r)
			e.signalQuit()
		}
	}()

	lastRender := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
			now := time.Now()
			dt := float32(now.Sub(lastRender).Seconds())
			lastRender = now

			if err := e.pipeline.Frame(dt); err != nil {
				e.logger.Error("frame failed", "error", err)
			}

			if e.renderCallback != nil {
				e.renderCallback(dt)
			}

			if e.profilingEnabled.Load() && e.profiler != nil {
				e.profiler.Tick(time.Since(now), e.pipeline.Matrices().LiveCount())
			}

			if e.maxFrames > 0 && e.pipeline.Frames() >= e.maxFrames {
				e.signalQuit()
				return
			}

			// Frame rate limiting
			if e.renderFrameLimit > 0 {
				elapsed := time.Since(lastRender)
				if remaining := e.renderFrameLimit - elapsed; remaining > 0 {
					time.Sleep(remaining)
				}
			}
		}
	}
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled.Store(true)
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled.Store(false)
}

// SetTickRate sets the engine tick rate in frames per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Second / time.Duration(fps)

	if e.running.Load() {
		// Non-blocking send - if channel is full, replace the pending value
		select {
		case e.tickRateChannel <- newRate:
		default:
			select {
			case <-e.tickRateChannel:
			default:
			}
			e.tickRateChannel <- newRate
		}
	} else {
		e.engineTickRate = newRate
	}
}

// SetTickCallback registers the function called each engine tick.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

// SetRenderCallback registers the function called each render frame.
func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Second / time.Duration(fps)
}
