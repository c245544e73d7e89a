package renderer

import (
	"github.com/pkg/errors"
	"github.com/spaghettifunk/forge/engine/core"
	"github.com/spaghettifunk/forge/engine/renderer/gpu"
)

type PhysicalDeviceRequirements struct {
	Graphics             bool
	Present              bool
	DeviceExtensionNames []string
	SamplerAnisotropy    bool
	// PreferDiscreteGPU ranks discrete GPUs first. Other suitable devices are
	// still accepted.
	PreferDiscreteGPU bool
}

// physicalDeviceMeetsRequirements returns the index of a queue family that
// satisfies the graphics and present requirements, or -1.
func physicalDeviceMeetsRequirements(sub gpu.Substrate, device gpu.PhysicalDeviceInfo, surface gpu.Surface, requirements PhysicalDeviceRequirements) int {
	family := -1
	core.LogDebug("Graphics | Present | Compute | Transfer | Name")
	for i, q := range device.QueueFamilies {
		graphics := q.Flags&gpu.QueueGraphics != 0
		core.LogDebug("%8t | %7t | %7t | %8t | %s",
			graphics,
			q.PresentSupport,
			q.Flags&gpu.QueueCompute != 0,
			q.Flags&gpu.QueueTransfer != 0,
			device.Name)
		if family >= 0 || q.Count == 0 {
			continue
		}
		if (!requirements.Graphics || graphics) && (!requirements.Present || q.PresentSupport) {
			family = i
		}
	}
	if family < 0 {
		core.LogInfo("Device '%s' has no queue family meeting the requirements. Skipping.", device.Name)
		return -1
	}

	for _, ext := range requirements.DeviceExtensionNames {
		if !hasName(device.Extensions, ext) {
			core.LogInfo("Required extension not found: '%s', skipping device '%s'.", ext, device.Name)
			return -1
		}
	}

	if requirements.SamplerAnisotropy && !device.SamplerAnisotropy {
		core.LogInfo("Device '%s' does not support samplerAnisotropy, skipping.", device.Name)
		return -1
	}

	if requirements.Present {
		support, err := sub.SurfaceSupport(device.Handle, surface)
		if err != nil {
			core.LogWarn("Failed to query swapchain support of '%s': %v", device.Name, err)
			return -1
		}
		if len(support.Formats) == 0 || len(support.PresentModes) == 0 {
			core.LogInfo("Required swapchain support not present, skipping device '%s'.", device.Name)
			return -1
		}
	}
	return family
}

// selectPhysicalDevice picks exactly one device. With PreferDiscreteGPU the
// first suitable discrete GPU wins, otherwise the first suitable device.
func selectPhysicalDevice(sub gpu.Substrate, instance gpu.Instance, surface gpu.Surface, requirements PhysicalDeviceRequirements) (gpu.PhysicalDeviceInfo, uint32, error) {
	devices, err := sub.PhysicalDevices(instance, surface)
	if err != nil {
		return gpu.PhysicalDeviceInfo{}, 0, errors.Wrap(err, "failed to enumerate physical devices")
	}
	if len(devices) == 0 {
		return gpu.PhysicalDeviceInfo{}, 0, errors.Wrap(ErrNoSuitableDevice, "no devices which support Vulkan were found")
	}

	selected := -1
	var family uint32
	for i, device := range devices {
		f := physicalDeviceMeetsRequirements(sub, device, surface, requirements)
		if f < 0 {
			continue
		}
		if selected < 0 {
			selected, family = i, uint32(f)
		}
		if requirements.PreferDiscreteGPU && device.Type == gpu.PhysicalDeviceTypeDiscreteGpu {
			selected, family = i, uint32(f)
			break
		}
		if !requirements.PreferDiscreteGPU {
			break
		}
	}
	if selected < 0 {
		return gpu.PhysicalDeviceInfo{}, 0, ErrNoSuitableDevice
	}

	device := devices[selected]
	core.LogInfo("Selected device: '%s'.", device.Name)
	core.LogInfo("GPU type is %s.", device.Type)
	core.LogInfo("GPU Driver version: %d.%d.%d", device.DriverVersion>>22, (device.DriverVersion>>12)&0x3ff, device.DriverVersion&0xfff)
	core.LogInfo("Vulkan API version: %d.%d.%d", device.APIVersion>>22, (device.APIVersion>>12)&0x3ff, device.APIVersion&0xfff)
	for _, heap := range device.Memory.Heaps {
		gib := float64(heap.Size) / 1024.0 / 1024.0 / 1024.0
		if heap.DeviceLocal {
			core.LogInfo("Local GPU memory: %.2f GiB", gib)
		} else {
			core.LogInfo("Shared System memory: %.2f GiB", gib)
		}
	}
	return device, family, nil
}

var depthCandidates = []gpu.Format{
	gpu.FormatD32Sfloat,
	gpu.FormatD32SfloatS8Uint,
	gpu.FormatD24UnormS8Uint,
}

func detectDepthFormat(sub gpu.Substrate, device gpu.PhysicalDevice) (gpu.Format, error) {
	for _, format := range depthCandidates {
		if sub.SupportsDepthAttachment(device, format) {
			return format, nil
		}
	}
	return gpu.FormatUndefined, ErrNoDepthFormat
}

func hasName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
