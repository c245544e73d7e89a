package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/forge/engine/renderer/gpu"
)

func (b *Backend) CreateBuffer(device gpu.Device, info gpu.BufferInfo) (gpu.Buffer, error) {
	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(info.Size),
		Usage:       vk.BufferUsageFlags(info.Usage),
		SharingMode: vk.SharingModeExclusive,
	}
	var buffer vk.Buffer
	if res := vk.CreateBuffer(b.devices.get(uint64(device)), &bufferInfo, nil, &buffer); res != vk.Success {
		return 0, resultError("vkCreateBuffer", res)
	}
	return gpu.Buffer(b.buffers.add(buffer)), nil
}

func (b *Backend) DestroyBuffer(device gpu.Device, buffer gpu.Buffer) {
	if buf, ok := b.buffers.remove(uint64(buffer)); ok {
		vk.DestroyBuffer(b.devices.get(uint64(device)), buf, nil)
	}
}

func (b *Backend) BufferMemoryRequirements(device gpu.Device, buffer gpu.Buffer) gpu.MemoryRequirements {
	var reqs vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(b.devices.get(uint64(device)), b.buffers.get(uint64(buffer)), &reqs)
	reqs.Deref()
	return gpu.MemoryRequirements{
		Size:      uint64(reqs.Size),
		Alignment: uint64(reqs.Alignment),
		TypeBits:  reqs.MemoryTypeBits,
	}
}

func (b *Backend) BindBufferMemory(device gpu.Device, buffer gpu.Buffer, memory gpu.DeviceMemory, offset uint64) error {
	res := vk.BindBufferMemory(
		b.devices.get(uint64(device)),
		b.buffers.get(uint64(buffer)),
		b.memory.get(uint64(memory)),
		vk.DeviceSize(offset))
	return resultError("vkBindBufferMemory", res)
}

func (b *Backend) CreateImage(device gpu.Device, info gpu.ImageInfo) (gpu.Image, error) {
	imageCreateInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    vk.Format(info.Format),
		Extent: vk.Extent3D{
			Width:  info.Extent.Width,
			Height: info.Extent.Height,
			Depth:  info.Extent.Depth,
		},
		MipLevels:     info.MipLevels,
		ArrayLayers:   info.ArrayLayers,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         vk.ImageUsageFlags(info.Usage),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}
	var image vk.Image
	if res := vk.CreateImage(b.devices.get(uint64(device)), &imageCreateInfo, nil, &image); res != vk.Success {
		return 0, resultError("vkCreateImage", res)
	}
	return gpu.Image(b.images.add(image)), nil
}

func (b *Backend) DestroyImage(device gpu.Device, image gpu.Image) {
	if img, ok := b.images.remove(uint64(image)); ok {
		vk.DestroyImage(b.devices.get(uint64(device)), img, nil)
	}
}

func (b *Backend) ImageMemoryRequirements(device gpu.Device, image gpu.Image) gpu.MemoryRequirements {
	var reqs vk.MemoryRequirements
	vk.GetImageMemoryRequirements(b.devices.get(uint64(device)), b.images.get(uint64(image)), &reqs)
	reqs.Deref()
	return gpu.MemoryRequirements{
		Size:      uint64(reqs.Size),
		Alignment: uint64(reqs.Alignment),
		TypeBits:  reqs.MemoryTypeBits,
	}
}

func (b *Backend) BindImageMemory(device gpu.Device, image gpu.Image, memory gpu.DeviceMemory, offset uint64) error {
	res := vk.BindImageMemory(
		b.devices.get(uint64(device)),
		b.images.get(uint64(image)),
		b.memory.get(uint64(memory)),
		vk.DeviceSize(offset))
	return resultError("vkBindImageMemory", res)
}

func (b *Backend) CreateImageView(device gpu.Device, info gpu.ImageViewInfo) (gpu.ImageView, error) {
	viewInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    b.images.get(uint64(info.Image)),
		ViewType: vk.ImageViewType2d,
		Format:   vk.Format(info.Format),
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(info.Aspect),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
	var view vk.ImageView
	if res := vk.CreateImageView(b.devices.get(uint64(device)), &viewInfo, nil, &view); res != vk.Success {
		return 0, resultError("vkCreateImageView", res)
	}
	return gpu.ImageView(b.views.add(view)), nil
}

func (b *Backend) DestroyImageView(device gpu.Device, view gpu.ImageView) {
	if v, ok := b.views.remove(uint64(view)); ok {
		vk.DestroyImageView(b.devices.get(uint64(device)), v, nil)
	}
}

func (b *Backend) AllocateMemory(device gpu.Device, info gpu.MemoryAllocateInfo) (gpu.DeviceMemory, error) {
	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  vk.DeviceSize(info.Size),
		MemoryTypeIndex: info.TypeIndex,
	}
	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(b.devices.get(uint64(device)), &allocateInfo, nil, &memory); res != vk.Success {
		return 0, resultError("vkAllocateMemory", res)
	}
	return gpu.DeviceMemory(b.memory.add(memory)), nil
}

func (b *Backend) FreeMemory(device gpu.Device, memory gpu.DeviceMemory) {
	if mem, ok := b.memory.remove(uint64(memory)); ok {
		vk.FreeMemory(b.devices.get(uint64(device)), mem, nil)
	}
}

func (b *Backend) MapMemory(device gpu.Device, memory gpu.DeviceMemory, offset, size uint64) ([]byte, error) {
	var data unsafe.Pointer
	res := vk.MapMemory(
		b.devices.get(uint64(device)),
		b.memory.get(uint64(memory)),
		vk.DeviceSize(offset),
		vk.DeviceSize(size),
		0,
		&data)
	if res != vk.Success {
		return nil, resultError("vkMapMemory", res)
	}
	return unsafe.Slice((*byte)(data), size), nil
}

func (b *Backend) UnmapMemory(device gpu.Device, memory gpu.DeviceMemory) {
	vk.UnmapMemory(b.devices.get(uint64(device)), b.memory.get(uint64(memory)))
}
