package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/forge/engine/renderer/gpu"
)

func (b *Backend) CreateSwapchain(device gpu.Device, info gpu.SwapchainInfo) (gpu.Swapchain, error) {
	swapchainCreateInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          b.surfaces.get(uint64(info.Surface)),
		MinImageCount:    info.MinImageCount,
		ImageFormat:      vk.Format(info.Format.Format),
		ImageColorSpace:  vk.ColorSpace(info.Format.ColorSpace),
		ImageExtent:      vk.Extent2D{Width: info.Extent.Width, Height: info.Extent.Height},
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(info.Usage),
		// Graphics and present share one queue family.
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     vk.SurfaceTransformFlagBits(info.PreTransform),
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      vk.PresentMode(info.PresentMode),
		Clipped:          vk.True,
	}
	if info.OldSwapchain != 0 {
		swapchainCreateInfo.OldSwapchain = b.swapchains.get(uint64(info.OldSwapchain)).handle
	}

	d := b.devices.get(uint64(device))
	var handle vk.Swapchain
	if res := vk.CreateSwapchain(d, &swapchainCreateInfo, nil, &handle); res != vk.Success {
		return 0, resultError("vkCreateSwapchainKHR", res)
	}

	var imageCount uint32
	if res := vk.GetSwapchainImages(d, handle, &imageCount, nil); res != vk.Success {
		vk.DestroySwapchain(d, handle, nil)
		return 0, resultError("vkGetSwapchainImagesKHR", res)
	}
	images := make([]vk.Image, imageCount)
	if res := vk.GetSwapchainImages(d, handle, &imageCount, images); res != vk.Success {
		vk.DestroySwapchain(d, handle, nil)
		return 0, resultError("vkGetSwapchainImagesKHR", res)
	}

	sc := &swapchain{handle: handle}
	for _, img := range images {
		sc.images = append(sc.images, b.images.add(img))
	}
	return gpu.Swapchain(b.swapchains.add(sc)), nil
}

func (b *Backend) DestroySwapchain(device gpu.Device, swapchain gpu.Swapchain) {
	sc, ok := b.swapchains.remove(uint64(swapchain))
	if !ok {
		return
	}
	for _, img := range sc.images {
		b.images.remove(img)
	}
	vk.DestroySwapchain(b.devices.get(uint64(device)), sc.handle, nil)
}

func (b *Backend) SwapchainImages(device gpu.Device, swapchain gpu.Swapchain) ([]gpu.Image, error) {
	sc, ok := b.swapchains.objects[uint64(swapchain)]
	if !ok {
		return nil, &gpu.ResultError{Op: "vkGetSwapchainImagesKHR", Code: int32(vk.ErrorUnknown), Description: "unknown swapchain", Err: gpu.ErrInvalidUsage}
	}
	images := make([]gpu.Image, len(sc.images))
	for i, img := range sc.images {
		images[i] = gpu.Image(img)
	}
	return images, nil
}

// AcquireNextImage treats a suboptimal swapchain as success; it is reported
// again on present.
func (b *Backend) AcquireNextImage(device gpu.Device, swapchain gpu.Swapchain, timeout uint64, semaphore gpu.Semaphore) (uint32, error) {
	var index uint32
	res := vk.AcquireNextImage(
		b.devices.get(uint64(device)),
		b.swapchains.get(uint64(swapchain)).handle,
		timeout,
		b.semaphores.get(uint64(semaphore)),
		vk.NullFence,
		&index)
	if res != vk.Success && res != vk.Suboptimal {
		return 0, resultError("vkAcquireNextImageKHR", res)
	}
	return index, nil
}

func (b *Backend) QueuePresent(queue gpu.Queue, info gpu.PresentInfo) error {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: uint32(len(info.WaitSemaphores)),
		PWaitSemaphores:    b.semaphoreList(info.WaitSemaphores),
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{b.swapchains.get(uint64(info.Swapchain)).handle},
		PImageIndices:      []uint32{info.ImageIndex},
	}
	return resultError("vkQueuePresentKHR", vk.QueuePresent(b.queues.get(uint64(queue)), &presentInfo))
}
