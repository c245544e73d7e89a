package gpu

type Format int32

const (
	FormatUndefined          Format = 0
	FormatR8G8B8A8Unorm      Format = 37
	FormatR8G8B8A8Srgb       Format = 43
	FormatB8G8R8A8Unorm      Format = 44
	FormatB8G8R8A8Srgb       Format = 50
	FormatR32G32Sfloat       Format = 103
	FormatR32G32B32Sfloat    Format = 106
	FormatR32G32B32A32Sfloat Format = 109
	FormatD32Sfloat          Format = 126
	FormatD24UnormS8Uint     Format = 129
	FormatD32SfloatS8Uint    Format = 130
)

type ColorSpace int32

const ColorSpaceSrgbNonlinear ColorSpace = 0

type PresentMode int32

const (
	PresentModeImmediate   PresentMode = 0
	PresentModeMailbox     PresentMode = 1
	PresentModeFifo        PresentMode = 2
	PresentModeFifoRelaxed PresentMode = 3
)

func (m PresentMode) String() string {
	switch m {
	case PresentModeImmediate:
		return "immediate"
	case PresentModeMailbox:
		return "mailbox"
	case PresentModeFifo:
		return "fifo"
	case PresentModeFifoRelaxed:
		return "fifo_relaxed"
	}
	return "unknown"
}

// ParsePresentMode maps a configuration name to a present mode. Unknown names
// fall back to FIFO, which every implementation supports.
func ParsePresentMode(name string) PresentMode {
	for _, m := range []PresentMode{PresentModeImmediate, PresentModeMailbox, PresentModeFifo, PresentModeFifoRelaxed} {
		if m.String() == name {
			return m
		}
	}
	return PresentModeFifo
}

type PhysicalDeviceType int32

const (
	PhysicalDeviceTypeOther         PhysicalDeviceType = 0
	PhysicalDeviceTypeIntegratedGpu PhysicalDeviceType = 1
	PhysicalDeviceTypeDiscreteGpu   PhysicalDeviceType = 2
	PhysicalDeviceTypeVirtualGpu    PhysicalDeviceType = 3
	PhysicalDeviceTypeCpu           PhysicalDeviceType = 4
)

func (t PhysicalDeviceType) String() string {
	switch t {
	case PhysicalDeviceTypeIntegratedGpu:
		return "Integrated"
	case PhysicalDeviceTypeDiscreteGpu:
		return "Discrete"
	case PhysicalDeviceTypeVirtualGpu:
		return "Virtual"
	case PhysicalDeviceTypeCpu:
		return "CPU"
	}
	return "Unknown"
}

type QueueFlags uint32

const (
	QueueGraphics QueueFlags = 0x1
	QueueCompute  QueueFlags = 0x2
	QueueTransfer QueueFlags = 0x4
)

type ImageUsageFlags uint32

const (
	ImageUsageTransferSrc            ImageUsageFlags = 0x1
	ImageUsageTransferDst            ImageUsageFlags = 0x2
	ImageUsageSampled                ImageUsageFlags = 0x4
	ImageUsageColorAttachment        ImageUsageFlags = 0x10
	ImageUsageDepthStencilAttachment ImageUsageFlags = 0x20
)

type BufferUsageFlags uint32

const (
	BufferUsageTransferSrc   BufferUsageFlags = 0x1
	BufferUsageTransferDst   BufferUsageFlags = 0x2
	BufferUsageUniformBuffer BufferUsageFlags = 0x10
	BufferUsageIndexBuffer   BufferUsageFlags = 0x40
	BufferUsageVertexBuffer  BufferUsageFlags = 0x80
)

type MemoryPropertyFlags uint32

const (
	MemoryPropertyDeviceLocal  MemoryPropertyFlags = 0x1
	MemoryPropertyHostVisible  MemoryPropertyFlags = 0x2
	MemoryPropertyHostCoherent MemoryPropertyFlags = 0x4
	MemoryPropertyHostCached   MemoryPropertyFlags = 0x8
)

type ImageAspectFlags uint32

const (
	ImageAspectColor   ImageAspectFlags = 0x1
	ImageAspectDepth   ImageAspectFlags = 0x2
	ImageAspectStencil ImageAspectFlags = 0x4
)

type ImageLayout int32

const (
	ImageLayoutUndefined                     ImageLayout = 0
	ImageLayoutColorAttachmentOptimal        ImageLayout = 2
	ImageLayoutDepthStencilAttachmentOptimal ImageLayout = 3
	ImageLayoutPresentSrc                    ImageLayout = 1000001002
)

type AttachmentLoadOp int32

const (
	AttachmentLoadOpLoad     AttachmentLoadOp = 0
	AttachmentLoadOpClear    AttachmentLoadOp = 1
	AttachmentLoadOpDontCare AttachmentLoadOp = 2
)

type AttachmentStoreOp int32

const (
	AttachmentStoreOpStore    AttachmentStoreOp = 0
	AttachmentStoreOpDontCare AttachmentStoreOp = 1
)

type PipelineStageFlags uint32

const (
	PipelineStageTopOfPipe             PipelineStageFlags = 0x1
	PipelineStageEarlyFragmentTests    PipelineStageFlags = 0x100
	PipelineStageLateFragmentTests     PipelineStageFlags = 0x200
	PipelineStageColorAttachmentOutput PipelineStageFlags = 0x400
	PipelineStageBottomOfPipe          PipelineStageFlags = 0x2000
)

type AccessFlags uint32

const (
	AccessColorAttachmentWrite        AccessFlags = 0x100
	AccessDepthStencilAttachmentWrite AccessFlags = 0x400
)

// SubpassExternal refers to commands outside of the render pass.
const SubpassExternal = ^uint32(0)

type ShaderStageFlags uint32

const (
	ShaderStageVertex   ShaderStageFlags = 0x1
	ShaderStageFragment ShaderStageFlags = 0x10
)

func (s ShaderStageFlags) String() string {
	switch s {
	case ShaderStageVertex:
		return "vertex"
	case ShaderStageFragment:
		return "fragment"
	}
	return "unknown"
}

type PrimitiveTopology int32

const (
	PrimitiveTopologyPointList     PrimitiveTopology = 0
	PrimitiveTopologyLineList      PrimitiveTopology = 1
	PrimitiveTopologyLineStrip     PrimitiveTopology = 2
	PrimitiveTopologyTriangleList  PrimitiveTopology = 3
	PrimitiveTopologyTriangleStrip PrimitiveTopology = 4
)

type PolygonMode int32

const (
	PolygonModeFill  PolygonMode = 0
	PolygonModeLine  PolygonMode = 1
	PolygonModePoint PolygonMode = 2
)

type CullModeFlags uint32

const (
	CullModeNone         CullModeFlags = 0
	CullModeFront        CullModeFlags = 1
	CullModeBack         CullModeFlags = 2
	CullModeFrontAndBack CullModeFlags = 3
)

type FrontFace int32

const (
	FrontFaceCounterClockwise FrontFace = 0
	FrontFaceClockwise        FrontFace = 1
)

type CompareOp int32

const (
	CompareOpNever          CompareOp = 0
	CompareOpLess           CompareOp = 1
	CompareOpEqual          CompareOp = 2
	CompareOpLessOrEqual    CompareOp = 3
	CompareOpGreater        CompareOp = 4
	CompareOpNotEqual       CompareOp = 5
	CompareOpGreaterOrEqual CompareOp = 6
	CompareOpAlways         CompareOp = 7
)

type BlendFactor int32

const (
	BlendFactorZero             BlendFactor = 0
	BlendFactorOne              BlendFactor = 1
	BlendFactorSrcAlpha         BlendFactor = 6
	BlendFactorOneMinusSrcAlpha BlendFactor = 7
)

type BlendOp int32

const BlendOpAdd BlendOp = 0

type ColorComponentFlags uint32

const (
	ColorComponentR   ColorComponentFlags = 0x1
	ColorComponentG   ColorComponentFlags = 0x2
	ColorComponentB   ColorComponentFlags = 0x4
	ColorComponentA   ColorComponentFlags = 0x8
	ColorComponentAll                     = ColorComponentR | ColorComponentG | ColorComponentB | ColorComponentA
)

type DynamicState int32

const (
	DynamicStateViewport  DynamicState = 0
	DynamicStateScissor   DynamicState = 1
	DynamicStateLineWidth DynamicState = 2
)

type VertexInputRate int32

const (
	VertexInputRateVertex   VertexInputRate = 0
	VertexInputRateInstance VertexInputRate = 1
)

type SampleCountFlags uint32

const SampleCount1 SampleCountFlags = 0x1

type Extent2D struct {
	Width  uint32
	Height uint32
}

type Extent3D struct {
	Width  uint32
	Height uint32
	Depth  uint32
}

type Offset2D struct {
	X int32
	Y int32
}

type Rect2D struct {
	Offset Offset2D
	Extent Extent2D
}

type Viewport struct {
	X, Y          float32
	Width, Height float32
	MinDepth      float32
	MaxDepth      float32
}
