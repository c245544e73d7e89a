// Package gpu describes the slice of the graphics API the renderer drives:
// opaque handles, creation descriptors and the Substrate interface a backend
// implements. Enumerations share their numeric values with Vulkan.
package gpu

// Handles are issued by a Substrate. The zero value is the null handle.
type (
	Instance       uint64
	DebugMessenger uint64
	Surface        uint64
	PhysicalDevice uint64
	Device         uint64
	Queue          uint64
	Swapchain      uint64
	Image          uint64
	ImageView      uint64
	Buffer         uint64
	DeviceMemory   uint64
	RenderPass     uint64
	Framebuffer    uint64
	ShaderModule   uint64
	PipelineLayout uint64
	Pipeline       uint64
	CommandPool    uint64
	CommandBuffer  uint64
	Fence          uint64
	Semaphore      uint64
)

// WindowHandle is the native window a surface is created for. The backend
// decides which concrete types it accepts.
type WindowHandle any

// MaxTimeout waits forever.
const MaxTimeout = ^uint64(0)
