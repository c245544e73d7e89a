package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/forge/engine/core"
	"github.com/spaghettifunk/forge/engine/renderer/gpu"
)

func (b *Backend) CreateDevice(physical gpu.PhysicalDevice, info gpu.DeviceInfo) (gpu.Device, error) {
	queueCreateInfos := []vk.DeviceQueueCreateInfo{{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: info.QueueFamily,
		QueueCount:       1,
		PQueuePriorities: []float32{1.0},
	}}

	// Request device features.
	deviceFeatures := vk.PhysicalDeviceFeatures{
		SamplerAnisotropy: vkBool(info.SamplerAnisotropy),
	}

	for _, ext := range info.Extensions {
		core.LogDebug("Enabling device extension '%s'.", ext)
	}
	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{deviceFeatures},
		EnabledExtensionCount:   uint32(len(info.Extensions)),
		PpEnabledExtensionNames: VulkanSafeStrings(info.Extensions),
	}

	var device vk.Device
	if res := vk.CreateDevice(b.physical.get(uint64(physical)), &deviceCreateInfo, nil, &device); res != vk.Success {
		return 0, resultError("vkCreateDevice", res)
	}
	return gpu.Device(b.devices.add(device)), nil
}

func (b *Backend) DestroyDevice(device gpu.Device) {
	if d, ok := b.devices.remove(uint64(device)); ok {
		vk.DestroyDevice(d, nil)
	}
}

func (b *Backend) GetQueue(device gpu.Device, family uint32) gpu.Queue {
	var queue vk.Queue
	vk.GetDeviceQueue(b.devices.get(uint64(device)), family, 0, &queue)
	return gpu.Queue(b.queues.add(queue))
}

func (b *Backend) DeviceWaitIdle(device gpu.Device) error {
	return resultError("vkDeviceWaitIdle", vk.DeviceWaitIdle(b.devices.get(uint64(device))))
}
