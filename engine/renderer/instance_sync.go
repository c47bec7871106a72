package renderer

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/oxy-swarm/common"
	"github.com/Carmen-Shannon/oxy-swarm/engine/job"
	"github.com/Carmen-Shannon/oxy-swarm/engine/population"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	matrixStride = 64
	colorStride  = 12

	// DefaultBoundsHalfExtent is the half extent of the static bound every instanced draw is issued with.
	DefaultBoundsHalfExtent float32 = 100000
)

// InstanceSource is a packed per-instance buffer produced by an extraction stage.
type InstanceSource[T any] interface {
	Buffer() []T
	LiveCount() int
	Pending() job.Handle
}

// InstanceSync uploads the packed matrix and color buffers to the GPU once per frame and issues
// a single indirect instanced draw.
type InstanceSync interface {
	// Sync waits for both extraction passes of the current frame, then uploads and draws.
	// Nothing is uploaded or drawn when the stage is disabled or nothing is live.
	//
	// Returns:
	//   - error: an error if a GPU buffer could not be allocated or written
	Sync() error

	// Reinitialize supplies the mesh and material after a failed construction and re-enables the stage.
	//
	// Parameters:
	//   - mesh: the geometry drawn per instance
	//   - material: the instanced material
	//
	// Returns:
	//   - error: ErrMissingMesh or ErrMissingMaterial if either is still nil
	Reinitialize(mesh Mesh, material Material) error

	// Enabled reports whether the stage will draw.
	//
	// Returns:
	//   - bool: false after a construction with a missing mesh or material
	Enabled() bool

	// GPUCapacity returns the instance capacity of the GPU storage buffers.
	//
	// Returns:
	//   - int: a power of two, or 0 before the first upload
	GPUCapacity() int

	// Release frees the GPU buffers owned by the stage.
	Release()
}

type instanceSync struct {
	mu       sync.Mutex
	backend  Backend
	matrices InstanceSource[mgl32.Mat4]
	colors   InstanceSource[population.Color]
	mesh     Mesh
	material Material
	bounds   common.AABB
	logger   *slog.Logger

	enabled     bool
	gpuCapacity int
	prevLive    int
	args        IndirectArgs
	argsBytes   [IndirectArgsSize]byte

	matrixBuffer Buffer
	colorBuffer  Buffer
	argsBuffer   Buffer
}

var _ InstanceSync = &instanceSync{}

// NewInstanceSync creates the render synchronization stage. A nil mesh or material disables the
// stage and logs an error; Reinitialize recovers it.
//
// Parameters:
//   - matrices: the matrix extraction stage
//   - colors: the color extraction stage
//   - backend: the GPU backend to upload to and draw with
//   - mesh: the geometry drawn per instance
//   - material: the instanced material
//   - options: optional InstanceSyncBuilderOption functions
//
// Returns:
//   - InstanceSync: the stage
func NewInstanceSync(matrices InstanceSource[mgl32.Mat4], colors InstanceSource[population.Color], backend Backend, mesh Mesh, material Material, options ...InstanceSyncBuilderOption) InstanceSync {
	s := &instanceSync{
		backend:  backend,
		matrices: matrices,
		colors:   colors,
		bounds:   common.CenteredAABB(mgl32.Vec3{}, DefaultBoundsHalfExtent),
		logger:   slog.Default(),
	}
	for _, opt := range options {
		opt(s)
	}
	s.logger = s.logger.With("component", "instance_sync")

	if err := s.assign(mesh, material); err != nil {
		s.logger.Error("render stage disabled", "error", err)
	}
	return s
}

func (s *instanceSync) assign(mesh Mesh, material Material) error {
	if mesh == nil {
		return ErrMissingMesh
	}
	if material == nil {
		return ErrMissingMaterial
	}
	s.mesh = mesh
	s.material = material
	s.enabled = true
	// Force the argument block to be rewritten for the new mesh's index count.
	s.prevLive = -1
	return nil
}

func (s *instanceSync) Reinitialize(mesh Mesh, material Material) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.assign(mesh, material); err != nil {
		s.logger.Error("render stage still disabled", "error", err)
		return err
	}
	if s.matrixBuffer != nil && s.colorBuffer != nil {
		if err := s.backend.BindInstances(s.material, s.matrixBuffer, s.colorBuffer); err != nil {
			return fmt.Errorf("rebind instances: %w", err)
		}
	}
	s.logger.Info("render stage reinitialized")
	return nil
}

func (s *instanceSync) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

func (s *instanceSync) GPUCapacity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gpuCapacity
}

func (s *instanceSync) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The frame's only blocking wait: uploads must see finished host data.
	// It also runs while disabled so the frame ends with no extraction in flight.
	job.Combine(s.matrices.Pending(), s.colors.Pending()).Complete()

	if !s.enabled {
		return nil
	}

	live := s.matrices.LiveCount()
	if live == 0 {
		return nil
	}

	if err := s.reserve(live); err != nil {
		return err
	}

	if live != s.prevLive {
		s.args = IndirectArgs{IndexCount: s.mesh.IndexCount(), InstanceCount: uint32(live)}
		s.args.MarshalTo(s.argsBytes[:])
		if err := s.backend.WriteBuffer(s.argsBuffer, 0, s.argsBytes[:]); err != nil {
			return fmt.Errorf("upload indirect args: %w", err)
		}
		s.prevLive = live
	}

	if err := s.backend.WriteBuffer(s.matrixBuffer, 0, common.SliceToBytes(s.matrices.Buffer()[:live])); err != nil {
		return fmt.Errorf("upload matrices: %w", err)
	}

	n := live
	if colorLive := s.colors.LiveCount(); colorLive < n {
		s.logger.Warn("color live count differs from matrix live count", "matrix_live", live, "color_live", colorLive)
		n = colorLive
	}
	if n > 0 {
		if err := s.backend.WriteBuffer(s.colorBuffer, 0, common.SliceToBytes(s.colors.Buffer()[:n])); err != nil {
			return fmt.Errorf("upload colors: %w", err)
		}
	}

	s.backend.DrawIndexedIndirect(s.material, s.mesh, s.argsBuffer, s.bounds)
	return nil
}

// reserve grows the GPU storage to the next power of two at or above live. It never shrinks.
func (s *instanceSync) reserve(live int) error {
	if s.argsBuffer == nil {
		buf, err := s.backend.CreateBuffer("Indirect Args", BufferKindIndirect, IndirectArgsSize)
		if err != nil {
			return fmt.Errorf("allocate indirect args: %w", err)
		}
		s.argsBuffer = buf
	}
	if live <= s.gpuCapacity {
		return nil
	}

	// The new pair is bound before the old one is released so a failed allocation
	// leaves the previous buffers and capacity usable.
	capacity := common.NextPowerOfTwo(live)
	mb, err := s.backend.CreateBuffer("Matrix Buffer", BufferKindStorage, uint64(capacity*matrixStride))
	if err != nil {
		return fmt.Errorf("allocate matrix buffer: %w", err)
	}
	cb, err := s.backend.CreateBuffer("Color Buffer", BufferKindStorage, uint64(capacity*colorStride))
	if err != nil {
		mb.Release()
		return fmt.Errorf("allocate color buffer: %w", err)
	}
	if err := s.backend.BindInstances(s.material, mb, cb); err != nil {
		mb.Release()
		cb.Release()
		return fmt.Errorf("bind instances: %w", err)
	}
	if s.matrixBuffer != nil {
		s.matrixBuffer.Release()
	}
	if s.colorBuffer != nil {
		s.colorBuffer.Release()
	}

	s.logger.Info("gpu buffers resized", "old_capacity", s.gpuCapacity, "new_capacity", capacity, "live", live)
	s.matrixBuffer, s.colorBuffer = mb, cb
	s.gpuCapacity = capacity
	return nil
}

func (s *instanceSync) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range []Buffer{s.matrixBuffer, s.colorBuffer, s.argsBuffer} {
		if b != nil {
			b.Release()
		}
	}
	s.matrixBuffer, s.colorBuffer, s.argsBuffer = nil, nil, nil
	s.gpuCapacity = 0
	s.prevLive = -1
}
