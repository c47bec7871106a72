package renderer

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-swarm/common"
	"github.com/go-gl/mathgl/mgl32"
)

// BackendType identifies the backend implementation created by NewBackend.
type BackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU BackendType = iota

	// BackendTypeHeadless selects a backend that records calls without touching a GPU.
	BackendTypeHeadless
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// ParsePresentMode maps a config string ("vsync" or "uncapped") to a PresentMode.
// Unknown values fall back to PresentModeUncapped.
func ParsePresentMode(s string) PresentMode {
	if s == "vsync" {
		return PresentModeVSync
	}
	return PresentModeUncapped
}

// MSAASampleCount controls the number of samples used for multisample anti-aliasing (MSAA).
// Only specific power-of-two values are valid for GPU hardware. WebGPU guarantees support for
// 1 (off) and 4; higher values (8, 16) are adapter-dependent and may not be available.
type MSAASampleCount uint32

const (
	// MSAAOff disables multisample anti-aliasing (sample count 1).
	MSAAOff MSAASampleCount = 1

	// MSAA4x enables 4× multisample anti-aliasing. This is the default.
	MSAA4x MSAASampleCount = 4

	// MSAA8x enables 8× multisample anti-aliasing. Adapter-dependent; not all hardware supports this.
	MSAA8x MSAASampleCount = 8

	// MSAA16x enables 16× multisample anti-aliasing. Adapter-dependent; not all hardware supports this.
	MSAA16x MSAASampleCount = 16
)

// BufferKind selects the usage a GPU buffer is created with.
type BufferKind int

const (
	// BufferKindStorage is a read-only storage buffer written from the CPU.
	BufferKindStorage BufferKind = iota

	// BufferKindIndirect holds DrawIndexedIndirect arguments.
	BufferKindIndirect
)

var (
	// ErrMissingMesh is reported when an instanced draw has no mesh to draw.
	ErrMissingMesh = errors.New("renderer: mesh is missing")

	// ErrMissingMaterial is reported when an instanced draw has no material to draw with.
	ErrMissingMaterial = errors.New("renderer: material is missing")

	// ErrNoFrame is returned when a frame is begun while the previous one is still held.
	ErrNoFrame = errors.New("renderer: previous frame surface not yet presented")

	// ErrForeignHandle is returned when a handle created by a different backend is passed in.
	ErrForeignHandle = errors.New("renderer: handle was not created by this backend")
)

// Buffer is a GPU-resident buffer created by a Backend.
type Buffer interface {
	// Label returns the debug label of the buffer.
	Label() string

	// Size returns the buffer size in bytes.
	Size() uint64

	// Release frees the GPU allocation. The buffer must not be used afterwards.
	Release()
}

// Mesh is indexed geometry uploaded to the GPU.
type Mesh interface {
	// IndexCount returns the number of indices drawn per instance.
	IndexCount() uint32

	// Release frees the vertex and index buffers.
	Release()
}

// Material is the instanced render pipeline together with its camera and instance bindings.
type Material interface {
	// Label returns the debug label of the material.
	Label() string

	// Release frees the pipeline and bind groups.
	Release()
}

// Backend is the GPU surface the render stage talks to.
type Backend interface {
	// CreateBuffer allocates a GPU buffer of the given kind and size.
	//
	// Parameters:
	//   - label: a debug label
	//   - kind: the buffer usage
	//   - size: the size in bytes
	//
	// Returns:
	//   - Buffer: the new buffer
	//   - error: an error if allocation failed
	CreateBuffer(label string, kind BufferKind, size uint64) (Buffer, error)

	// WriteBuffer queues a CPU to GPU copy of data into buf at offset.
	//
	// Parameters:
	//   - buf: the destination buffer
	//   - offset: byte offset into buf
	//   - data: the bytes to copy
	//
	// Returns:
	//   - error: an error if buf is not a buffer of this backend or the write is out of range
	WriteBuffer(buf Buffer, offset uint64, data []byte) error

	// CreateMesh uploads indexed geometry.
	//
	// Parameters:
	//   - label: a debug label
	//   - vertices: interleaved vertex data
	//   - indices: triangle list indices
	//
	// Returns:
	//   - Mesh: the uploaded mesh
	//   - error: an error if upload failed
	CreateMesh(label string, vertices []Vertex, indices []uint32) (Mesh, error)

	// CreateMaterial builds the instanced pipeline that reads matrixBuffer and colorBuffer.
	//
	// Parameters:
	//   - label: a debug label
	//
	// Returns:
	//   - Material: the material
	//   - error: an error if pipeline creation failed
	CreateMaterial(label string) (Material, error)

	// BindInstances binds the per-instance matrix and color storage buffers to a material.
	// Must be called again whenever either buffer is reallocated.
	//
	// Parameters:
	//   - material: the material to bind to
	//   - matrices: the matrixBuffer storage
	//   - colors: the colorBuffer storage
	//
	// Returns:
	//   - error: an error if the bind group could not be created
	BindInstances(material Material, matrices, colors Buffer) error

	// SetViewProjection sets the camera matrix used by subsequent draws.
	//
	// Parameters:
	//   - viewProj: the combined projection * view matrix
	SetViewProjection(viewProj mgl32.Mat4)

	// ViewProjection returns the current camera matrix.
	//
	// Returns:
	//   - mgl32.Mat4: the combined projection * view matrix
	ViewProjection() mgl32.Mat4

	// Resize reconfigures the surface for a new size in pixels.
	//
	// Parameters:
	//   - width: the new width
	//   - height: the new height
	Resize(width, height int)

	// BeginFrame acquires the next surface image and opens the frame's render pass.
	//
	// Returns:
	//   - error: an error if the surface image could not be acquired
	BeginFrame() error

	// DrawIndexedIndirect records one instanced draw whose arguments are read from args.
	// The draw is skipped when bounds lies entirely outside the current view frustum.
	//
	// Parameters:
	//   - material: the material to draw with
	//   - mesh: the geometry to draw
	//   - args: an indirect buffer holding IndirectArgs
	//   - bounds: the world-space bound of every instance drawn
	DrawIndexedIndirect(material Material, mesh Mesh, args Buffer, bounds common.AABB)

	// EndFrame closes the render pass and submits the frame's commands.
	EndFrame()

	// Present presents the frame's surface image.
	Present()

	// Release frees every GPU object owned by the backend.
	Release()
}
