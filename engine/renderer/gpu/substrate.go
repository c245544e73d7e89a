package gpu

// InstanceAPI covers the instance level objects and physical device queries.
type InstanceAPI interface {
	AvailableLayers() ([]string, error)
	AvailableInstanceExtensions() ([]string, error)
	CreateInstance(info InstanceInfo) (Instance, error)
	DestroyInstance(instance Instance)
	// CreateDebugMessenger routes validation messages into the engine log.
	CreateDebugMessenger(instance Instance) (DebugMessenger, error)
	DestroyDebugMessenger(instance Instance, messenger DebugMessenger)
	CreateSurface(instance Instance, window WindowHandle) (Surface, error)
	DestroySurface(instance Instance, surface Surface)
	// PhysicalDevices lists the devices of the instance. Queue family present
	// support is reported against surface.
	PhysicalDevices(instance Instance, surface Surface) ([]PhysicalDeviceInfo, error)
	SurfaceSupport(device PhysicalDevice, surface Surface) (SurfaceSupport, error)
	SupportsDepthAttachment(device PhysicalDevice, format Format) bool
}

// DeviceAPI covers the logical device, its queues and presentation.
type DeviceAPI interface {
	CreateDevice(physical PhysicalDevice, info DeviceInfo) (Device, error)
	DestroyDevice(device Device)
	GetQueue(device Device, family uint32) Queue
	DeviceWaitIdle(device Device) error

	CreateSwapchain(device Device, info SwapchainInfo) (Swapchain, error)
	DestroySwapchain(device Device, swapchain Swapchain)
	// SwapchainImages returns images owned by the swapchain. They must not be
	// destroyed individually.
	SwapchainImages(device Device, swapchain Swapchain) ([]Image, error)
	// AcquireNextImage signals semaphore once the returned image is ready.
	// It returns ErrOutOfDate when the swapchain no longer matches the surface.
	// A suboptimal swapchain still yields an image and is reported as success.
	AcquireNextImage(device Device, swapchain Swapchain, timeout uint64, semaphore Semaphore) (uint32, error)
	// QueuePresent returns ErrOutOfDate or ErrSuboptimal when the swapchain
	// should be recreated.
	QueuePresent(queue Queue, info PresentInfo) error
}

// ResourceAPI covers buffers, images and device memory.
type ResourceAPI interface {
	CreateBuffer(device Device, info BufferInfo) (Buffer, error)
	DestroyBuffer(device Device, buffer Buffer)
	BufferMemoryRequirements(device Device, buffer Buffer) MemoryRequirements
	BindBufferMemory(device Device, buffer Buffer, memory DeviceMemory, offset uint64) error

	CreateImage(device Device, info ImageInfo) (Image, error)
	DestroyImage(device Device, image Image)
	ImageMemoryRequirements(device Device, image Image) MemoryRequirements
	BindImageMemory(device Device, image Image, memory DeviceMemory, offset uint64) error

	CreateImageView(device Device, info ImageViewInfo) (ImageView, error)
	DestroyImageView(device Device, view ImageView)

	AllocateMemory(device Device, info MemoryAllocateInfo) (DeviceMemory, error)
	FreeMemory(device Device, memory DeviceMemory)
	// MapMemory returns a slice aliasing the mapped range. It is valid until
	// UnmapMemory.
	MapMemory(device Device, memory DeviceMemory, offset, size uint64) ([]byte, error)
	UnmapMemory(device Device, memory DeviceMemory)
}

// PipelineAPI covers render passes, framebuffers, shaders and pipelines.
type PipelineAPI interface {
	CreateRenderPass(device Device, info RenderPassInfo) (RenderPass, error)
	DestroyRenderPass(device Device, pass RenderPass)
	CreateFramebuffer(device Device, info FramebufferInfo) (Framebuffer, error)
	DestroyFramebuffer(device Device, framebuffer Framebuffer)
	CreateShaderModule(device Device, code []uint32) (ShaderModule, error)
	DestroyShaderModule(device Device, module ShaderModule)
	CreatePipelineLayout(device Device, info PipelineLayoutInfo) (PipelineLayout, error)
	DestroyPipelineLayout(device Device, layout PipelineLayout)
	CreateGraphicsPipeline(device Device, info GraphicsPipelineInfo) (Pipeline, error)
	DestroyPipeline(device Device, pipeline Pipeline)
}

// CommandAPI covers command pools, recording and submission.
type CommandAPI interface {
	CreateCommandPool(device Device, info CommandPoolInfo) (CommandPool, error)
	// DestroyCommandPool frees every command buffer allocated from the pool.
	DestroyCommandPool(device Device, pool CommandPool)
	AllocateCommandBuffer(device Device, pool CommandPool) (CommandBuffer, error)

	ResetCommandBuffer(cmd CommandBuffer) error
	BeginCommandBuffer(cmd CommandBuffer, oneTimeSubmit bool) error
	EndCommandBuffer(cmd CommandBuffer) error

	CmdBeginRenderPass(cmd CommandBuffer, info RenderPassBeginInfo)
	CmdEndRenderPass(cmd CommandBuffer)
	CmdSetViewport(cmd CommandBuffer, viewport Viewport)
	CmdSetScissor(cmd CommandBuffer, scissor Rect2D)
	CmdBindPipeline(cmd CommandBuffer, pipeline Pipeline)
	CmdBindVertexBuffer(cmd CommandBuffer, buffer Buffer, offset uint64)
	CmdPushConstants(cmd CommandBuffer, layout PipelineLayout, stages ShaderStageFlags, offset uint32, data []byte)
	CmdDraw(cmd CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32)

	// QueueSubmit signals fence once the submitted work completes.
	QueueSubmit(queue Queue, info SubmitInfo, fence Fence) error
}

// SyncAPI covers fences and semaphores.
type SyncAPI interface {
	CreateFence(device Device, signaled bool) (Fence, error)
	DestroyFence(device Device, fence Fence)
	WaitForFence(device Device, fence Fence, timeout uint64) error
	ResetFence(device Device, fence Fence) error
	CreateSemaphore(device Device) (Semaphore, error)
	DestroySemaphore(device Device, semaphore Semaphore)
}

// Substrate is the graphics API as seen by the renderer.
type Substrate interface {
	InstanceAPI
	DeviceAPI
	ResourceAPI
	PipelineAPI
	CommandAPI
	SyncAPI
}
