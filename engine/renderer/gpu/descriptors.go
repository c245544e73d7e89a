package gpu

type InstanceInfo struct {
	ApplicationName string
	EngineName      string
	APIVersion      uint32
	Extensions      []string
	Layers          []string
	// Portability enumerates portability implementations such as MoltenVK.
	Portability bool
}

type QueueFamily struct {
	Flags QueueFlags
	Count uint32
	// PresentSupport reports whether the family can present to the surface the
	// device list was queried for.
	PresentSupport bool
}

type MemoryType struct {
	Properties MemoryPropertyFlags
	HeapIndex  uint32
}

type MemoryHeap struct {
	Size        uint64
	DeviceLocal bool
}

type MemoryProperties struct {
	Types []MemoryType
	Heaps []MemoryHeap
}

type PhysicalDeviceInfo struct {
	Handle            PhysicalDevice
	Name              string
	Type              PhysicalDeviceType
	APIVersion        uint32
	DriverVersion     uint32
	QueueFamilies     []QueueFamily
	Extensions        []string
	Memory            MemoryProperties
	SamplerAnisotropy bool
}

type SurfaceCapabilities struct {
	MinImageCount uint32
	// MaxImageCount is zero when there is no upper limit.
	MaxImageCount uint32
	// CurrentExtent is 0xFFFFFFFF x 0xFFFFFFFF when the surface size is
	// determined by the swapchain extent.
	CurrentExtent    Extent2D
	MinImageExtent   Extent2D
	MaxImageExtent   Extent2D
	CurrentTransform uint32
}

type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

type SurfaceSupport struct {
	Capabilities SurfaceCapabilities
	Formats      []SurfaceFormat
	PresentModes []PresentMode
}

type DeviceInfo struct {
	QueueFamily       uint32
	Extensions        []string
	SamplerAnisotropy bool
}

type SwapchainInfo struct {
	Surface       Surface
	MinImageCount uint32
	Format        SurfaceFormat
	Extent        Extent2D
	Usage         ImageUsageFlags
	PresentMode   PresentMode
	PreTransform  uint32
	OldSwapchain  Swapchain
}

type PresentInfo struct {
	WaitSemaphores []Semaphore
	Swapchain      Swapchain
	ImageIndex     uint32
}

type BufferInfo struct {
	Size  uint64
	Usage BufferUsageFlags
}

type ImageInfo struct {
	Format      Format
	Extent      Extent3D
	Usage       ImageUsageFlags
	MipLevels   uint32
	ArrayLayers uint32
}

type ImageViewInfo struct {
	Image  Image
	Format Format
	Aspect ImageAspectFlags
}

type MemoryRequirements struct {
	Size      uint64
	Alignment uint64
	TypeBits  uint32
}

type MemoryAllocateInfo struct {
	Size      uint64
	TypeIndex uint32
}

type AttachmentDescription struct {
	Format         Format
	Samples        SampleCountFlags
	LoadOp         AttachmentLoadOp
	StoreOp        AttachmentStoreOp
	StencilLoadOp  AttachmentLoadOp
	StencilStoreOp AttachmentStoreOp
	InitialLayout  ImageLayout
	FinalLayout    ImageLayout
}

type AttachmentReference struct {
	Attachment uint32
	Layout     ImageLayout
}

type SubpassDescription struct {
	ColorAttachments       []AttachmentReference
	DepthStencilAttachment *AttachmentReference
}

type SubpassDependency struct {
	SrcSubpass    uint32
	DstSubpass    uint32
	SrcStageMask  PipelineStageFlags
	DstStageMask  PipelineStageFlags
	SrcAccessMask AccessFlags
	DstAccessMask AccessFlags
}

type RenderPassInfo struct {
	Attachments  []AttachmentDescription
	Subpasses    []SubpassDescription
	Dependencies []SubpassDependency
}

type FramebufferInfo struct {
	RenderPass  RenderPass
	Attachments []ImageView
	Width       uint32
	Height      uint32
	Layers      uint32
}

type PushConstantRange struct {
	Stages ShaderStageFlags
	Offset uint32
	Size   uint32
}

type PipelineLayoutInfo struct {
	PushConstantRanges []PushConstantRange
}

type PipelineShaderStage struct {
	Stage      ShaderStageFlags
	Module     ShaderModule
	EntryPoint string
}

type VertexBinding struct {
	Binding   uint32
	Stride    uint32
	InputRate VertexInputRate
}

type VertexAttribute struct {
	Location uint32
	Binding  uint32
	Format   Format
	Offset   uint32
}

type VertexInputState struct {
	Bindings   []VertexBinding
	Attributes []VertexAttribute
}

type InputAssemblyState struct {
	Topology         PrimitiveTopology
	PrimitiveRestart bool
}

type ViewportState struct {
	Viewports []Viewport
	Scissors  []Rect2D
}

type RasterizationState struct {
	DepthClamp        bool
	RasterizerDiscard bool
	PolygonMode       PolygonMode
	CullMode          CullModeFlags
	FrontFace         FrontFace
	DepthBias         bool
	LineWidth         float32
}

type MultisampleState struct {
	Samples          SampleCountFlags
	SampleShading    bool
	MinSampleShading float32
	AlphaToCoverage  bool
	AlphaToOne       bool
}

type ColorBlendAttachment struct {
	BlendEnable bool
	SrcColor    BlendFactor
	DstColor    BlendFactor
	ColorOp     BlendOp
	SrcAlpha    BlendFactor
	DstAlpha    BlendFactor
	AlphaOp     BlendOp
	WriteMask   ColorComponentFlags
}

type ColorBlendState struct {
	LogicOpEnable bool
	Attachments   []ColorBlendAttachment
}

type DepthStencilState struct {
	DepthTest       bool
	DepthWrite      bool
	CompareOp       CompareOp
	DepthBoundsTest bool
	MinDepthBounds  float32
	MaxDepthBounds  float32
	StencilTest     bool
}

// GraphicsPipelineInfo is the complete description of a graphics pipeline.
type GraphicsPipelineInfo struct {
	Stages        []PipelineShaderStage
	VertexInput   VertexInputState
	InputAssembly InputAssemblyState
	Viewport      ViewportState
	Rasterization RasterizationState
	Multisample   MultisampleState
	ColorBlend    ColorBlendState
	DepthStencil  DepthStencilState
	DynamicStates []DynamicState
	Layout        PipelineLayout
	RenderPass    RenderPass
	Subpass       uint32
}

type CommandPoolInfo struct {
	QueueFamily uint32
	// ResetCommandBuffer allows buffers from the pool to be reset individually.
	ResetCommandBuffer bool
}

type ClearValue struct {
	Color   [4]float32
	Depth   float32
	Stencil uint32
	IsDepth bool
}

func ClearColor(r, g, b, a float32) ClearValue {
	return ClearValue{Color: [4]float32{r, g, b, a}}
}

func ClearDepthStencil(depth float32, stencil uint32) ClearValue {
	return ClearValue{Depth: depth, Stencil: stencil, IsDepth: true}
}

type RenderPassBeginInfo struct {
	RenderPass  RenderPass
	Framebuffer Framebuffer
	RenderArea  Rect2D
	ClearValues []ClearValue
}

type SubmitInfo struct {
	WaitSemaphores   []Semaphore
	WaitStages       []PipelineStageFlags
	CommandBuffers   []CommandBuffer
	SignalSemaphores []Semaphore
}
