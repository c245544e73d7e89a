package renderer

import (
	"runtime"

	"github.com/pkg/errors"
	"github.com/spaghettifunk/forge/engine/containers"
	"github.com/spaghettifunk/forge/engine/core"
	"github.com/spaghettifunk/forge/engine/renderer/gpu"
)

const (
	ValidationLayerName        = "VK_LAYER_KHRONOS_validation"
	SurfaceExtensionName       = "VK_KHR_surface"
	DebugReportExtensionName   = "VK_EXT_debug_report"
	SwapchainExtensionName     = "VK_KHR_swapchain"
	PortabilityEnumerationName = "VK_KHR_portability_enumeration"
	PhysicalDeviceProperties2  = "VK_KHR_get_physical_device_properties2"
	PortabilitySubsetExtension = "VK_KHR_portability_subset"
	apiVersion13               = 1<<22 | 3<<12
)

// Window is the part of the platform window the renderer needs.
type Window interface {
	Handle() gpu.WindowHandle
	FramebufferExtent() gpu.Extent2D
	RequiredInstanceExtensions() []string
}

type ContextOptions struct {
	ApplicationName   string
	Validation        bool
	PreferDiscreteGPU bool
}

// Context holds the objects every other renderer component is created
// against. It is filled once by InitContext and must not be modified.
type Context struct {
	Sub                 gpu.Substrate
	Instance            gpu.Instance
	DebugMessenger      gpu.DebugMessenger
	Surface             gpu.Surface
	PhysicalDevice      gpu.PhysicalDeviceInfo
	Device              gpu.Device
	GraphicsQueue       gpu.Queue
	GraphicsQueueFamily uint32
	DepthFormat         gpu.Format
	Allocator           *Allocator
}

// InitContext creates the instance, the debug messenger when validation is
// enabled, the window surface, the logical device with its graphics queue and
// the memory allocator. Each object registers its teardown with dq right
// after creation, so flushing dq after a failure releases what was built.
func InitContext(sub gpu.Substrate, window Window, opts ContextOptions, dq *containers.DeletionQueue) (*Context, error) {
	ctx := &Context{Sub: sub}

	extensions := []string{SurfaceExtensionName}
	for _, ext := range window.RequiredInstanceExtensions() {
		if !hasName(extensions, ext) {
			extensions = append(extensions, ext)
		}
	}
	portability := runtime.GOOS == "darwin"
	if portability {
		extensions = append(extensions, PortabilityEnumerationName, PhysicalDeviceProperties2)
	}

	var layers []string
	if opts.Validation {
		extensions = append(extensions, DebugReportExtensionName)

		core.LogInfo("Validation layers enabled. Enumerating...")
		available, err := sub.AvailableLayers()
		if err != nil {
			return nil, errors.Wrap(err, "failed to enumerate instance layers")
		}
		if !hasName(available, ValidationLayerName) {
			return nil, errors.Wrapf(gpu.ErrUnsupported, "required validation layer is missing: %s", ValidationLayerName)
		}
		layers = append(layers, ValidationLayerName)
		core.LogInfo("All required validation layers are present.")
	}

	available, err := sub.AvailableInstanceExtensions()
	if err != nil {
		return nil, errors.Wrap(err, "failed to enumerate instance extensions")
	}
	for _, ext := range extensions {
		if !hasName(available, ext) {
			return nil, errors.Wrapf(gpu.ErrUnsupported, "required instance extension is missing: %s", ext)
		}
	}

	instance, err := sub.CreateInstance(gpu.InstanceInfo{
		ApplicationName: opts.ApplicationName,
		EngineName:      "Forge",
		APIVersion:      apiVersion13,
		Extensions:      extensions,
		Layers:          layers,
		Portability:     portability,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create instance")
	}
	ctx.Instance = instance
	dq.Push(func() { sub.DestroyInstance(instance) })
	core.LogInfo("Vulkan Instance created.")

	if opts.Validation {
		messenger, err := sub.CreateDebugMessenger(instance)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create debug messenger")
		}
		ctx.DebugMessenger = messenger
		dq.Push(func() { sub.DestroyDebugMessenger(instance, messenger) })
		core.LogDebug("Vulkan debugger created.")
	}

	surface, err := sub.CreateSurface(instance, window.Handle())
	if err != nil {
		return nil, errors.Wrap(err, "failed to create window surface")
	}
	ctx.Surface = surface
	dq.Push(func() { sub.DestroySurface(instance, surface) })
	core.LogInfo("Vulkan surface created.")

	physical, family, err := selectPhysicalDevice(sub, instance, surface, PhysicalDeviceRequirements{
		Graphics:             true,
		Present:              true,
		DeviceExtensionNames: []string{SwapchainExtensionName},
		PreferDiscreteGPU:    opts.PreferDiscreteGPU,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to select physical device")
	}
	ctx.PhysicalDevice = physical
	ctx.GraphicsQueueFamily = family

	deviceExtensions := []string{SwapchainExtensionName}
	if hasName(physical.Extensions, PortabilitySubsetExtension) {
		deviceExtensions = append(deviceExtensions, PortabilitySubsetExtension)
	}
	device, err := sub.CreateDevice(physical.Handle, gpu.DeviceInfo{
		QueueFamily:       family,
		Extensions:        deviceExtensions,
		SamplerAnisotropy: physical.SamplerAnisotropy,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create logical device")
	}
	ctx.Device = device
	dq.Push(func() { sub.DestroyDevice(device) })
	core.LogInfo("Logical device created.")

	ctx.GraphicsQueue = sub.GetQueue(device, family)
	core.LogDebug("Graphics queue obtained from family %d.", family)

	depth, err := detectDepthFormat(sub, physical.Handle)
	if err != nil {
		return nil, errors.Wrap(err, "failed to detect depth format")
	}
	ctx.DepthFormat = depth

	alloc := NewAllocator(sub, device, physical.Memory)
	ctx.Allocator = alloc
	dq.Push(alloc.Destroy)

	return ctx, nil
}

// WaitIdle blocks until the device has finished all submitted work.
func (c *Context) WaitIdle() error {
	return c.Sub.DeviceWaitIdle(c.Device)
}
