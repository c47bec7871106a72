// Package config provides configuration loading and access for the swarm pipeline.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all runtime configuration parameters.
type Config struct {
	Pipeline     PipelineConfig     `yaml:"pipeline"`
	Behavior     BehaviorConfig     `yaml:"behavior"`
	MatrixBuffer MatrixBufferConfig `yaml:"matrix_buffer"`
	ColorBuffer  ColorBufferConfig  `yaml:"color_buffer"`
	Population   PopulationConfig   `yaml:"population"`
	Target       TargetConfig       `yaml:"target"`
	Window       WindowConfig       `yaml:"window"`
	Render       RenderConfig       `yaml:"render"`
	Profiler     ProfilerConfig     `yaml:"profiler"`
}

// PipelineConfig holds job scheduling parameters shared by all stages.
type PipelineConfig struct {
	BatchCount  int           `yaml:"batch_count"`  // Target number of batches per parallel pass
	Workers     int           `yaml:"workers"`      // Worker goroutines, 0 = NumCPU
	QueueSize   int           `yaml:"queue_size"`   // Pending task queue length
	IdleTimeout time.Duration `yaml:"idle_timeout"` // Idle worker exit delay
}

// BehaviorConfig holds the approach/return rule constants.
type BehaviorConfig struct {
	ApproachScale    float32 `yaml:"approach_scale"`
	SnapThreshold    float32 `yaml:"snap_threshold"`
	ReturnMultiplier float32 `yaml:"return_multiplier"`
}

// MatrixBufferConfig holds the grow-only matrix capacity policy.
type MatrixBufferConfig struct {
	InitialCapacity int `yaml:"initial_capacity"`
	Increment       int `yaml:"increment"`
	Margin          int `yaml:"margin"`
}

// ColorBufferConfig holds the color capacity policy. InitialCapacity is also the shrink floor.
type ColorBufferConfig struct {
	InitialCapacity int `yaml:"initial_capacity"`
}

// PopulationConfig holds spawner grid parameters.
type PopulationConfig struct {
	Columns  int     `yaml:"columns"`
	Rows     int     `yaml:"rows"`
	Spacing  float32 `yaml:"spacing"`
	MinSpeed float32 `yaml:"min_speed"`
	MaxSpeed float32 `yaml:"max_speed"`
	Seed     int64   `yaml:"seed"`
}

// TargetConfig holds target controller parameters.
type TargetConfig struct {
	Radius      float32 `yaml:"radius"`
	PlaneHeight float32 `yaml:"plane_height"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// RenderConfig holds GPU backend settings.
type RenderConfig struct {
	PresentMode      string       `yaml:"present_mode"`
	MSAA             int          `yaml:"msaa"`
	SoftwareAdapter  bool         `yaml:"software_adapter"`
	BoundsHalfExtent float32      `yaml:"bounds_half_extent"`
	Camera           CameraConfig `yaml:"camera"`
}

// CameraConfig holds the fixed demo camera.
type CameraConfig struct {
	Position   [3]float32 `yaml:"position"`
	Target     [3]float32 `yaml:"target"`
	FovDegrees float32    `yaml:"fov_degrees"`
	Near       float32    `yaml:"near"`
	Far        float32    `yaml:"far"`
}

// Eye returns the camera position as a vector.
func (c CameraConfig) Eye() mgl32.Vec3 { return mgl32.Vec3(c.Position) }

// Center returns the camera look target as a vector.
func (c CameraConfig) Center() mgl32.Vec3 { return mgl32.Vec3(c.Target) }

// ProfilerConfig holds profiler reporting settings.
type ProfilerConfig struct {
	Interval time.Duration `yaml:"interval"`
	CSVPath  string        `yaml:"csv_path"` // Empty disables CSV export
	RunID    string        `yaml:"run_id"`   // Empty generates a random UUID per run
}

var global *Config

// Init loads the configuration from path (merged over defaults) and stores it globally.
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init has not been called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns a fresh copy of the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load reads the embedded defaults and overlays the file at path, if any.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Pipeline.BatchCount < 1:
		return fmt.Errorf("pipeline.batch_count must be >= 1, got %d", c.Pipeline.BatchCount)
	case c.MatrixBuffer.InitialCapacity < 1:
		return fmt.Errorf("matrix_buffer.initial_capacity must be >= 1, got %d", c.MatrixBuffer.InitialCapacity)
	case c.MatrixBuffer.Increment < 1:
		return fmt.Errorf("matrix_buffer.increment must be >= 1, got %d", c.MatrixBuffer.Increment)
	case c.MatrixBuffer.Margin < 0:
		return fmt.Errorf("matrix_buffer.margin must be >= 0, got %d", c.MatrixBuffer.Margin)
	case c.ColorBuffer.InitialCapacity < 1:
		return fmt.Errorf("color_buffer.initial_capacity must be >= 1, got %d", c.ColorBuffer.InitialCapacity)
	case c.Population.MaxSpeed < c.Population.MinSpeed:
		return fmt.Errorf("population.max_speed (%v) < population.min_speed (%v)", c.Population.MaxSpeed, c.Population.MinSpeed)
	}
	return nil
}

// WriteYAML saves the configuration to path.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
