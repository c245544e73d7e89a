package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/forge/engine/core"
	"github.com/spaghettifunk/forge/engine/renderer/gpu"
)

func (b *Backend) CreateFence(device gpu.Device, signaled bool) (gpu.Fence, error) {
	fenceCreateInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	// Make sure to signal the fence if required.
	if signaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	var fence vk.Fence
	if res := vk.CreateFence(b.devices.get(uint64(device)), &fenceCreateInfo, nil, &fence); res != vk.Success {
		return 0, resultError("vkCreateFence", res)
	}
	return gpu.Fence(b.fences.add(fence)), nil
}

func (b *Backend) DestroyFence(device gpu.Device, fence gpu.Fence) {
	if f, ok := b.fences.remove(uint64(fence)); ok {
		vk.DestroyFence(b.devices.get(uint64(device)), f, nil)
	}
}

func (b *Backend) WaitForFence(device gpu.Device, fence gpu.Fence, timeout uint64) error {
	res := vk.WaitForFences(b.devices.get(uint64(device)), 1, []vk.Fence{b.fences.get(uint64(fence))}, vk.True, timeout)
	if res == vk.Timeout {
		core.LogWarn("vk_fence_wait - Timed out")
	}
	return resultError("vkWaitForFences", res)
}

func (b *Backend) ResetFence(device gpu.Device, fence gpu.Fence) error {
	res := vk.ResetFences(b.devices.get(uint64(device)), 1, []vk.Fence{b.fences.get(uint64(fence))})
	return resultError("vkResetFences", res)
}

func (b *Backend) CreateSemaphore(device gpu.Device) (gpu.Semaphore, error) {
	semaphoreCreateInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var semaphore vk.Semaphore
	if res := vk.CreateSemaphore(b.devices.get(uint64(device)), &semaphoreCreateInfo, nil, &semaphore); res != vk.Success {
		return 0, resultError("vkCreateSemaphore", res)
	}
	return gpu.Semaphore(b.semaphores.add(semaphore)), nil
}

func (b *Backend) DestroySemaphore(device gpu.Device, semaphore gpu.Semaphore) {
	if s, ok := b.semaphores.remove(uint64(semaphore)); ok {
		vk.DestroySemaphore(b.devices.get(uint64(device)), s, nil)
	}
}

func (b *Backend) semaphoreList(handles []gpu.Semaphore) []vk.Semaphore {
	out := make([]vk.Semaphore, len(handles))
	for i, h := range handles {
		out[i] = b.semaphores.get(uint64(h))
	}
	return out
}
