// Package vulkan implements gpu.Substrate on top of the Vulkan loader.
package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/forge/engine/core"
	"github.com/spaghettifunk/forge/engine/renderer/gpu"
)

type commandBuffer struct {
	handle vk.CommandBuffer
	pool   uint64
}

type swapchain struct {
	handle vk.Swapchain
	images []uint64
}

// Backend is a gpu.Substrate backed by Vulkan. It is not safe for concurrent
// use.
type Backend struct {
	next uint64

	instances      *registry[vk.Instance]
	messengers     *registry[vk.DebugReportCallback]
	surfaces       *registry[vk.Surface]
	physical       *registry[vk.PhysicalDevice]
	devices        *registry[vk.Device]
	queues         *registry[vk.Queue]
	swapchains     *registry[*swapchain]
	images         *registry[vk.Image]
	views          *registry[vk.ImageView]
	buffers        *registry[vk.Buffer]
	memory         *registry[vk.DeviceMemory]
	passes         *registry[vk.RenderPass]
	framebuffers   *registry[vk.Framebuffer]
	modules        *registry[vk.ShaderModule]
	layouts        *registry[vk.PipelineLayout]
	pipelines      *registry[vk.Pipeline]
	pools          *registry[vk.CommandPool]
	commandBuffers *registry[commandBuffer]
	fences         *registry[vk.Fence]
	semaphores     *registry[vk.Semaphore]

	physicalIDs map[vk.PhysicalDevice]uint64
}

// New loads the Vulkan entry points through procAddr, the loader's
// vkGetInstanceProcAddr as returned by the windowing library.
func New(procAddr unsafe.Pointer) (*Backend, error) {
	if procAddr == nil {
		return nil, errors.New("GetInstanceProcAddress is nil")
	}
	vk.SetGetInstanceProcAddr(procAddr)
	if err := vk.Init(); err != nil {
		return nil, errors.Wrap(err, "failed to initialize vk")
	}

	b := &Backend{physicalIDs: make(map[vk.PhysicalDevice]uint64)}
	b.instances = newRegistry[vk.Instance](&b.next)
	b.messengers = newRegistry[vk.DebugReportCallback](&b.next)
	b.surfaces = newRegistry[vk.Surface](&b.next)
	b.physical = newRegistry[vk.PhysicalDevice](&b.next)
	b.devices = newRegistry[vk.Device](&b.next)
	b.queues = newRegistry[vk.Queue](&b.next)
	b.swapchains = newRegistry[*swapchain](&b.next)
	b.images = newRegistry[vk.Image](&b.next)
	b.views = newRegistry[vk.ImageView](&b.next)
	b.buffers = newRegistry[vk.Buffer](&b.next)
	b.memory = newRegistry[vk.DeviceMemory](&b.next)
	b.passes = newRegistry[vk.RenderPass](&b.next)
	b.framebuffers = newRegistry[vk.Framebuffer](&b.next)
	b.modules = newRegistry[vk.ShaderModule](&b.next)
	b.layouts = newRegistry[vk.PipelineLayout](&b.next)
	b.pipelines = newRegistry[vk.Pipeline](&b.next)
	b.pools = newRegistry[vk.CommandPool](&b.next)
	b.commandBuffers = newRegistry[commandBuffer](&b.next)
	b.fences = newRegistry[vk.Fence](&b.next)
	b.semaphores = newRegistry[vk.Semaphore](&b.next)

	core.LogDebug("Vulkan loader initialized.")
	return b, nil
}

// Leaks reports how many native objects are still registered. Swapchain
// images and physical devices are owned by their parents and not counted.
func (b *Backend) Leaks() int {
	owned := 0
	for _, sc := range b.swapchains.objects {
		owned += len(sc.images)
	}
	return b.images.len() - owned + b.instances.len() + b.messengers.len() + b.surfaces.len() + b.devices.len() +
		b.swapchains.len() + b.views.len() + b.buffers.len() + b.memory.len() +
		b.passes.len() + b.framebuffers.len() + b.modules.len() + b.layouts.len() +
		b.pipelines.len() + b.pools.len() + b.fences.len() + b.semaphores.len()
}

var _ gpu.Substrate = (*Backend)(nil)
