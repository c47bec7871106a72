package renderer

import (
	_ "embed"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-swarm/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

//go:embed assets/instanced.wgsl
var instancedShaderSource string

type wgpuBuffer struct {
	label  string
	size   uint64
	buffer *wgpu.Buffer
}

func (b *wgpuBuffer) Label() string { return b.label }
func (b *wgpuBuffer) Size() uint64 { return b.size }
func (b *wgpuBuffer) Release() {
	if b.buffer != nil {
		b.buffer.Release()
		b.buffer = nil
	}
}

type wgpuMesh struct {
	vertexBuffer *wgpu.Buffer
	indexBuffer  *wgpu.Buffer
	indexCount   uint32
}

func (m *wgpuMesh) IndexCount() uint32 { return m.indexCount }
func (m *wgpuMesh) Release() {
	if m.vertexBuffer != nil {
		m.vertexBuffer.Release()
		m.vertexBuffer = nil
	}
	if m.indexBuffer != nil {
		m.indexBuffer.Release()
		m.indexBuffer = nil
	}
}

type wgpuMaterial struct {
	label          string
	pipeline       *wgpu.RenderPipeline
	instanceLayout *wgpu.BindGroupLayout
	instanceGroup  *wgpu.BindGroup
}

func (m *wgpuMaterial) Label() string { return m.label }
func (m *wgpuMaterial) Release() {
	if m.instanceGroup != nil {
		m.instanceGroup.Release()
		m.instanceGroup = nil
	}
	if m.pipeline != nil {
		m.pipeline.Release()
		m.pipeline = nil
	}
}

type wgpuBackendImpl struct {
	mu     *sync.Mutex
	logger *slog.Logger

	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat        *wgpu.TextureFormat
	msaaTextureView      *wgpu.TextureView
	depthTextureView     *wgpu.TextureView
	renderPassDescriptor *wgpu.RenderPassDescriptor

	presentMode wgpu.PresentMode
	sampleCount MSAASampleCount

	viewProj     mgl32.Mat4
	cameraBuffer *wgpu.Buffer
	cameraLayout *wgpu.BindGroupLayout
	cameraGroup  *wgpu.BindGroup
	shader       *wgpu.ShaderModule

	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
}

var _ Backend = &wgpuBackendImpl{}

func newWGPUBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool, sampleCount MSAASampleCount, presentMode PresentMode, logger *slog.Logger) *wgpuBackendImpl {
	runtime.LockOSThread()
	w := &wgpuBackendImpl{
		mu:          &sync.Mutex{},
		logger:      logger,
		instance:    wgpu.CreateInstance(nil),
		presentMode: toWGPUPresentMode(presentMode),
		sampleCount: sampleCount,
		viewProj:    mgl32.Ident4(),
	}
	w.surface = w.instance.CreateSurface(surfaceDescriptor)

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    w.surface,
	})
	if err != nil {
		panic(err)
	}
	w.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		panic(err)
	}
	w.device = d
	w.queue = d.GetQueue()

	if err := w.initCamera(); err != nil {
		panic(err)
	}
	return w
}

func toWGPUPresentMode(mode PresentMode) wgpu.PresentMode {
	switch mode {
	case PresentModeVSync:
		return wgpu.PresentModeFifo
	case PresentModeUncapped:
		fallthrough
	default:
		return wgpu.PresentModeImmediate
	}
}

func (b *wgpuBackendImpl) initCamera() error {
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Camera Uniform",
		Size:  64,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return err
	}
	b.cameraBuffer = buf

	layout, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Camera Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex,
				Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return err
	}
	b.cameraLayout = layout

	group, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Camera Bind Group",
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: buf, Offset: 0, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return err
	}
	b.cameraGroup = group
	b.queue.WriteBuffer(b.cameraBuffer, 0, common.StructToBytes(&b.viewProj))
	return nil
}

// configureSurface rebuilds the swapchain, MSAA and depth targets and the cached render pass descriptor.
func (b *wgpuBackendImpl) configureSurface(width, height int) {
	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = &capabilities.Formats[0]

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      *b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	count := uint32(b.sampleCount)
	msaaEnabled := count > 1

	if b.msaaTextureView != nil {
		b.msaaTextureView.Release()
		b.msaaTextureView = nil
	}
	if msaaEnabled {
		msaaTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
			Label: "MSAA Texture",
			Size: wgpu.Extent3D{
				Width:              uint32(width),
				Height:             uint32(height),
				DepthOrArrayLayers: 1,
			},
			MipLevelCount: 1,
			SampleCount:   count,
			Dimension:     wgpu.TextureDimension2D,
			Format:        *b.surfaceFormat,
			Usage:         wgpu.TextureUsageRenderAttachment,
		})
		if err != nil {
			panic(err)
		}
		b.msaaTextureView, err = msaaTexture.CreateView(nil)
		if err != nil {
			panic(err)
		}
	}

	// Depth sample count must match the color attachment.
	depthTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   count,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		panic(err)
	}
	if b.depthTextureView != nil {
		b.depthTextureView.Release()
	}
	b.depthTextureView, err = depthTexture.CreateView(nil)
	if err != nil {
		panic(err)
	}

	// With MSAA the swapchain view becomes the resolve target each frame, otherwise the view itself.
	storeOp := wgpu.StoreOpStore
	if msaaEnabled {
		storeOp = wgpu.StoreOpDiscard
	}
	b.renderPassDescriptor = &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:          b.msaaTextureView,
				ResolveTarget: nil,
				LoadOp:        wgpu.LoadOpClear,
				StoreOp:       storeOp,
				ClearValue: wgpu.Color{
					R: 0.05, G: 0.05, B: 0.08, A: 1.0,
				},
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depthTextureView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	}
}

func (b *wgpuBackendImpl) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.configureSurface(width, height)
}

func (b *wgpuBackendImpl) CreateBuffer(label string, kind BufferKind, size uint64) (Buffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var usage wgpu.BufferUsage
	switch kind {
	case BufferKindStorage:
		usage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst
	case BufferKindIndirect:
		usage = wgpu.BufferUsageIndirect | wgpu.BufferUsageCopyDst
	default:
		return nil, fmt.Errorf("renderer: unknown buffer kind %d", kind)
	}

	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label,
		Size:             size,
		Usage:            usage,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, err
	}
	return &wgpuBuffer{label: label, size: size, buffer: buf}, nil
}

func (b *wgpuBackendImpl) WriteBuffer(buf Buffer, offset uint64, data []byte) error {
	wb, ok := buf.(*wgpuBuffer)
	if !ok || wb.buffer == nil {
		return ErrForeignHandle
	}
	if offset+uint64(len(data)) > wb.size {
		return fmt.Errorf("renderer: write of %d bytes at %d overflows buffer %q of %d bytes", len(data), offset, wb.label, wb.size)
	}
	if len(data) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.queue.WriteBuffer(wb.buffer, offset, data)
	return nil
}

func (b *wgpuBackendImpl) CreateMesh(label string, vertices []Vertex, indices []uint32) (Mesh, error) {
	if len(vertices) == 0 || len(indices) == 0 {
		return nil, fmt.Errorf("renderer: mesh %q has no geometry", label)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	vertexData := common.SliceToBytes(vertices)
	vb, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label + " Vertex Buffer",
		Size:  uint64(len(vertexData)),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	b.queue.WriteBuffer(vb, 0, vertexData)

	indexData := common.SliceToBytes(indices)
	ib, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label + " Index Buffer",
		Size:  uint64(len(indexData)),
		Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		vb.Release()
		return nil, err
	}
	b.queue.WriteBuffer(ib, 0, indexData)

	return &wgpuMesh{vertexBuffer: vb, indexBuffer: ib, indexCount: uint32(len(indices))}, nil
}

func (b *wgpuBackendImpl) CreateMaterial(label string) (Material, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.surfaceFormat == nil {
		return nil, fmt.Errorf("renderer: surface must be configured before creating material %q", label)
	}

	if b.shader == nil {
		module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
			Label: "Instanced Shader",
			WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
				Code: instancedShaderSource,
			},
		})
		if err != nil {
			return nil, err
		}
		b.shader = module
	}

	instanceLayout, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: label + " Instance Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex,
				Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageVertex,
				Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage},
			},
		},
	})
	if err != nil {
		return nil, err
	}

	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            label,
		BindGroupLayouts: []*wgpu.BindGroupLayout{b.cameraLayout, instanceLayout},
	})
	if err != nil {
		return nil, err
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  label + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     b.shader,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: VertexStride,
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
						{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
					},
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     b.shader,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    *b.surfaceFormat,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeBack,
		},
		Multisample: wgpu.MultisampleState{
			Count: uint32(b.sampleCount),
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		return nil, err
	}

	return &wgpuMaterial{label: label, pipeline: created, instanceLayout: instanceLayout}, nil
}

func (b *wgpuBackendImpl) BindInstances(material Material, matrices, colors Buffer) error {
	m, ok := material.(*wgpuMaterial)
	if !ok {
		return ErrForeignHandle
	}
	mb, ok := matrices.(*wgpuBuffer)
	if !ok {
		return ErrForeignHandle
	}
	cb, ok := colors.(*wgpuBuffer)
	if !ok {
		return ErrForeignHandle
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	group, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  m.label + " Instance Bind Group",
		Layout: m.instanceLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: mb.buffer, Offset: 0, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: cb.buffer, Offset: 0, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return err
	}
	if m.instanceGroup != nil {
		m.instanceGroup.Release()
	}
	m.instanceGroup = group
	return nil
}

func (b *wgpuBackendImpl) SetViewProjection(viewProj mgl32.Mat4) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.viewProj = viewProj
	b.queue.WriteBuffer(b.cameraBuffer, 0, common.StructToBytes(&b.viewProj))
}

func (b *wgpuBackendImpl) ViewProjection() mgl32.Mat4 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.viewProj
}

func (b *wgpuBackendImpl) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Acquiring while an image is still held fails in wgpu-native.
	if b.frameSurface != nil {
		return ErrNoFrame
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return err
	}

	if b.sampleCount > 1 {
		b.renderPassDescriptor.ColorAttachments[0].ResolveTarget = view
	} else {
		b.renderPassDescriptor.ColorAttachments[0].View = view
	}
	pass := encoder.BeginRenderPass(b.renderPassDescriptor)

	b.frameEncoder = encoder
	b.framePass = pass
	b.frameSurface = surfaceTexture
	b.frameView = view

	return nil
}

func (b *wgpuBackendImpl) DrawIndexedIndirect(material Material, mesh Mesh, args Buffer, bounds common.AABB) {
	m, ok := material.(*wgpuMaterial)
	if !ok || m.instanceGroup == nil {
		return
	}
	me, ok := mesh.(*wgpuMesh)
	if !ok {
		return
	}
	ab, ok := args.(*wgpuBuffer)
	if !ok {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return
	}
	frustum := common.ExtractFrustumFromMatrix(b.viewProj)
	if !frustum.IntersectsAABB(bounds) {
		return
	}

	b.framePass.SetPipeline(m.pipeline)
	b.framePass.SetBindGroup(0, b.cameraGroup, nil)
	b.framePass.SetBindGroup(1, m.instanceGroup, nil)
	b.framePass.SetVertexBuffer(0, me.vertexBuffer, 0, wgpu.WholeSize)
	b.framePass.SetIndexBuffer(me.indexBuffer, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	b.framePass.DrawIndexedIndirect(ab.buffer, 0)
}

func (b *wgpuBackendImpl) EndFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return
	}
	b.framePass.End()

	commandBuffer, err := b.frameEncoder.Finish(nil)
	if err != nil {
		b.logger.Error("failed to finish frame", "error", err)
		b.frameEncoder.Release()
		b.frameView.Release()
		b.frameSurface.Release()
		b.frameEncoder = nil
		b.framePass = nil
		b.frameSurface = nil
		b.frameView = nil
		return
	}

	b.queue.Submit(commandBuffer)

	commandBuffer.Release()
	b.frameEncoder.Release()
	b.frameEncoder = nil
	b.framePass = nil
}

func (b *wgpuBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface == nil {
		return
	}

	b.surface.Present()

	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	b.frameSurface.Release()
	b.frameSurface = nil
}

func (b *wgpuBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cameraGroup != nil {
		b.cameraGroup.Release()
	}
	if b.cameraBuffer != nil {
		b.cameraBuffer.Release()
	}
	if b.shader != nil {
		b.shader.Release()
	}
	if b.msaaTextureView != nil {
		b.msaaTextureView.Release()
	}
	if b.depthTextureView != nil {
		b.depthTextureView.Release()
	}
	if b.surface != nil {
		b.surface.Release()
	}
	if b.device != nil {
		b.device.Release()
	}
	if b.adapter != nil {
		b.adapter.Release()
	}
	if b.instance != nil {
		b.instance.Release()
	}
}
