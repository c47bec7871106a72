package pipeline

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-swarm/engine/behavior"
	"github.com/Carmen-Shannon/oxy-swarm/engine/extract"
	"github.com/Carmen-Shannon/oxy-swarm/engine/renderer"
)

// PipelineBuilderOption is a functional option applied during construction via NewPipeline.
type PipelineBuilderOption func(*pipeline)

// WithCamera sets the camera the view projection is built from.
//
// Parameters:
//   - c: the camera
//
// Returns:
//   - PipelineBuilderOption: option function to apply
func WithCamera(c renderer.Camera) PipelineBuilderOption {
	return func(p *pipeline) {
		p.camera = c
	}
}

// WithViewport sets the initial viewport size used for the camera aspect ratio.
//
// Parameters:
//   - width: the viewport width in pixels
//   - height: the viewport height in pixels
//
// Returns:
//   - PipelineBuilderOption: option function to apply
func WithViewport(width, height int) PipelineBuilderOption {
	return func(p *pipeline) {
		if width > 0 && height > 0 {
			p.width, p.height = width, height
		}
	}
}

// WithCubeHalfSize sets the half edge length of the instanced cube.
//
// Parameters:
//   - half: half of the edge length
//
// Returns:
//   - PipelineBuilderOption: option function to apply
func WithCubeHalfSize(half float32) PipelineBuilderOption {
	return func(p *pipeline) {
		if half > 0 {
			p.cubeHalfSize = half
		}
	}
}

// WithBehaviorOptions forwards options to the behavior stage.
func WithBehaviorOptions(options ...behavior.StageBuilderOption) PipelineBuilderOption {
	return func(p *pipeline) {
		p.behaviorOptions = append(p.behaviorOptions, options...)
	}
}

// WithExtractOptions forwards options to both extraction stages.
func WithExtractOptions(options ...extract.StageBuilderOption) PipelineBuilderOption {
	return func(p *pipeline) {
		p.extractOptions = append(p.extractOptions, options...)
	}
}

// WithSyncOptions forwards options to the render synchronization stage.
func WithSyncOptions(options ...renderer.InstanceSyncBuilderOption) PipelineBuilderOption {
	return func(p *pipeline) {
		p.syncOptions = append(p.syncOptions, options...)
	}
}

// WithLogger sets the logger handed to every stage.
//
// Parameters:
//   - l: the slog.Logger to use
//
// Returns:
//   - PipelineBuilderOption: option function to apply
func WithLogger(l *slog.Logger) PipelineBuilderOption {
	return func(p *pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}
