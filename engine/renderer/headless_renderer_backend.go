package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-swarm/common"
	"github.com/go-gl/mathgl/mgl32"
)

// BufferWrite is a single recorded WriteBuffer call.
type BufferWrite struct {
	Label  string
	Offset uint64
	Size   int
}

// DrawRecord is a single recorded DrawIndexedIndirect call.
type DrawRecord struct {
	Material string
	Args     IndirectArgs
	Bounds   common.AABB
	Culled   bool
}

type headlessBuffer struct {
	label    string
	kind     BufferKind
	data     []byte
	released bool
}

func (b *headlessBuffer) Label() string { return b.label }
func (b *headlessBuffer) Size() uint64 { return uint64(len(b.data)) }
func (b *headlessBuffer) Release() { b.released = true }

type headlessMesh struct {
	indexCount uint32
}

func (m *headlessMesh) IndexCount() uint32 { return m.indexCount }
func (m *headlessMesh) Release() {}

type headlessMaterial struct {
	label    string
	matrices *headlessBuffer
	colors   *headlessBuffer
}

func (m *headlessMaterial) Label() string { return m.label }
func (m *headlessMaterial) Release() {}

// HeadlessBackend is a Backend that keeps buffers in host memory and records every upload
// and draw. It backs the -headless mode and render stage tests.
type HeadlessBackend struct {
	mu       sync.Mutex
	viewProj mgl32.Mat4
	inFrame  bool

	writes  []BufferWrite
	draws   []DrawRecord
	allocs  []string
	frames  int
	width   int
	height  int
	buffers []*headlessBuffer
}

var _ Backend = &HeadlessBackend{}

// NewHeadlessBackend creates an empty recording backend with an identity camera.
func NewHeadlessBackend() *HeadlessBackend {
	return &HeadlessBackend{viewProj: mgl32.Ident4()}
}

func (b *HeadlessBackend) CreateBuffer(label string, kind BufferKind, size uint64) (Buffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	buf := &headlessBuffer{label: label, kind: kind, data: make([]byte, size)}
	b.allocs = append(b.allocs, label)
	b.buffers = append(b.buffers, buf)
	return buf, nil
}

func (b *HeadlessBackend) WriteBuffer(buf Buffer, offset uint64, data []byte) error {
	hb, ok := buf.(*headlessBuffer)
	if !ok {
		return ErrForeignHandle
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if hb.released {
		return fmt.Errorf("renderer: write to released buffer %q", hb.label)
	}
	if offset+uint64(len(data)) > uint64(len(hb.data)) {
		return fmt.Errorf("renderer: write of %d bytes at %d overflows buffer %q of %d bytes", len(data), offset, hb.label, len(hb.data))
	}
	copy(hb.data[offset:], data)
	b.writes = append(b.writes, BufferWrite{Label: hb.label, Offset: offset, Size: len(data)})
	return nil
}

func (b *HeadlessBackend) CreateMesh(label string, vertices []Vertex, indices []uint32) (Mesh, error) {
	return &headlessMesh{indexCount: uint32(len(indices))}, nil
}

func (b *HeadlessBackend) CreateMaterial(label string) (Material, error) {
	return &headlessMaterial{label: label}, nil
}

func (b *HeadlessBackend) BindInstances(material Material, matrices, colors Buffer) error {
	m, ok := material.(*headlessMaterial)
	if !ok {
		return ErrForeignHandle
	}
	mb, ok := matrices.(*headlessBuffer)
	if !ok {
		return ErrForeignHandle
	}
	cb, ok := colors.(*headlessBuffer)
	if !ok {
		return ErrForeignHandle
	}
	m.matrices, m.colors = mb, cb
	return nil
}

func (b *HeadlessBackend) SetViewProjection(viewProj mgl32.Mat4) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.viewProj = viewProj
}

func (b *HeadlessBackend) ViewProjection() mgl32.Mat4 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.viewProj
}

func (b *HeadlessBackend) Resize(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.width, b.height = width, height
}

func (b *HeadlessBackend) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.inFrame {
		return ErrNoFrame
	}
	b.inFrame = true
	return nil
}

func (b *HeadlessBackend) DrawIndexedIndirect(material Material, mesh Mesh, args Buffer, bounds common.AABB) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec := DrawRecord{Bounds: bounds}
	if material != nil {
		rec.Material = material.Label()
	}
	if hb, ok := args.(*headlessBuffer); ok && len(hb.data) >= IndirectArgsSize {
		rec.Args = UnmarshalIndirectArgs(hb.data)
	}
	f := common.ExtractFrustumFromMatrix(b.viewProj)
	rec.Culled = !f.IntersectsAABB(bounds)
	b.draws = append(b.draws, rec)
}

func (b *HeadlessBackend) EndFrame() {}

func (b *HeadlessBackend) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.inFrame {
		b.inFrame = false
		b.frames++
	}
}

func (b *HeadlessBackend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, buf := range b.buffers {
		buf.released = true
	}
}

// Writes returns a copy of every recorded buffer write.
func (b *HeadlessBackend) Writes() []BufferWrite {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]BufferWrite(nil), b.writes...)
}

// Draws returns a copy of every recorded draw.
func (b *HeadlessBackend) Draws() []DrawRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]DrawRecord(nil), b.draws...)
}

// Allocations returns the labels of every buffer created, in order.
func (b *HeadlessBackend) Allocations() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.allocs...)
}

// Frames returns the number of presented frames.
func (b *HeadlessBackend) Frames() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frames
}

// Reset clears the recorded writes, draws and allocations.
func (b *HeadlessBackend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writes, b.draws, b.allocs = nil, nil, nil
}

// Contents returns the bytes currently stored in buf, or nil for a foreign buffer.
func (b *HeadlessBackend) Contents(buf Buffer) []byte {
	hb, ok := buf.(*headlessBuffer)
	if !ok {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), hb.data...)
}

// BoundInstances returns the buffers last bound to material.
func (b *HeadlessBackend) BoundInstances(material Material) (matrices, colors Buffer) {
	m, ok := material.(*headlessMaterial)
	if !ok || m.matrices == nil || m.colors == nil {
		return nil, nil
	}
	return m.matrices, m.colors
}
