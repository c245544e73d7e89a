package renderer

import (
	"github.com/pkg/errors"
	"github.com/spaghettifunk/forge/engine/core"
	"github.com/spaghettifunk/forge/engine/renderer/gpu"
)

// MemoryUsage selects the memory properties of an allocation.
type MemoryUsage int

const (
	// MemoryGPUOnly is device local and never mapped.
	MemoryGPUOnly MemoryUsage = iota
	// MemoryCPUToGPU is host visible and coherent, preferably device local.
	MemoryCPUToGPU
	// MemoryCPUOnly is host visible and coherent, preferably cached.
	MemoryCPUOnly
)

func (u MemoryUsage) String() string {
	switch u {
	case MemoryGPUOnly:
		return "gpu-only"
	case MemoryCPUToGPU:
		return "cpu-to-gpu"
	case MemoryCPUOnly:
		return "cpu-only"
	}
	return "unknown"
}

func (u MemoryUsage) properties() (required, preferred gpu.MemoryPropertyFlags) {
	switch u {
	case MemoryCPUToGPU:
		required = gpu.MemoryPropertyHostVisible | gpu.MemoryPropertyHostCoherent
		preferred = required | gpu.MemoryPropertyDeviceLocal
	case MemoryCPUOnly:
		required = gpu.MemoryPropertyHostVisible | gpu.MemoryPropertyHostCoherent
		preferred = required | gpu.MemoryPropertyHostCached
	default:
		required = gpu.MemoryPropertyDeviceLocal
		preferred = required
	}
	return required, preferred
}

type Allocation struct {
	Memory    gpu.DeviceMemory
	Size      uint64
	TypeIndex uint32
	Usage     MemoryUsage
}

type AllocatedBuffer struct {
	Buffer     gpu.Buffer
	Size       uint64
	Allocation Allocation
}

type AllocatedImage struct {
	Image      gpu.Image
	Format     gpu.Format
	Extent     gpu.Extent3D
	Allocation Allocation
}

// Allocator binds every buffer and image to its own device memory block.
type Allocator struct {
	sub    gpu.Substrate
	device gpu.Device
	memory gpu.MemoryProperties
	live   int
}

func NewAllocator(sub gpu.Substrate, device gpu.Device, memory gpu.MemoryProperties) *Allocator {
	return &Allocator{
		sub:    sub,
		device: device,
		memory: memory,
	}
}

// FindMemoryIndex returns the first memory type allowed by typeFilter that has
// all of propertyFlags.
func (a *Allocator) FindMemoryIndex(typeFilter uint32, propertyFlags gpu.MemoryPropertyFlags) (uint32, bool) {
	for i, t := range a.memory.Types {
		if typeFilter&(1<<uint(i)) != 0 && t.Properties&propertyFlags == propertyFlags {
			return uint32(i), true
		}
	}
	return 0, false
}

func (a *Allocator) memoryIndex(typeFilter uint32, usage MemoryUsage) (uint32, error) {
	required, preferred := usage.properties()
	if idx, ok := a.FindMemoryIndex(typeFilter, preferred); ok {
		return idx, nil
	}
	if idx, ok := a.FindMemoryIndex(typeFilter, required); ok {
		return idx, nil
	}
	return 0, errors.Wrapf(ErrNoMemoryType, "usage %s, type filter %#x", usage, typeFilter)
}

func (a *Allocator) allocate(reqs gpu.MemoryRequirements, usage MemoryUsage) (Allocation, error) {
	idx, err := a.memoryIndex(reqs.TypeBits, usage)
	if err != nil {
		return Allocation{}, err
	}
	mem, err := a.sub.AllocateMemory(a.device, gpu.MemoryAllocateInfo{Size: reqs.Size, TypeIndex: idx})
	if err != nil {
		return Allocation{}, errors.Wrapf(err, "failed to allocate %d bytes", reqs.Size)
	}
	a.live++
	return Allocation{Memory: mem, Size: reqs.Size, TypeIndex: idx, Usage: usage}, nil
}

func (a *Allocator) free(alloc Allocation) {
	if alloc.Memory == 0 {
		return
	}
	a.sub.FreeMemory(a.device, alloc.Memory)
	a.live--
}

// CreateBuffer creates a buffer and binds fresh memory to it. On failure
// nothing is left behind.
func (a *Allocator) CreateBuffer(size uint64, usage gpu.BufferUsageFlags, memoryUsage MemoryUsage) (*AllocatedBuffer, error) {
	buffer, err := a.sub.CreateBuffer(a.device, gpu.BufferInfo{Size: size, Usage: usage})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create buffer")
	}
	alloc, err := a.allocate(a.sub.BufferMemoryRequirements(a.device, buffer), memoryUsage)
	if err != nil {
		a.sub.DestroyBuffer(a.device, buffer)
		return nil, err
	}
	if err := a.sub.BindBufferMemory(a.device, buffer, alloc.Memory, 0); err != nil {
		a.sub.DestroyBuffer(a.device, buffer)
		a.free(alloc)
		return nil, errors.Wrap(err, "failed to bind buffer memory")
	}
	return &AllocatedBuffer{Buffer: buffer, Size: size, Allocation: alloc}, nil
}

func (a *Allocator) DestroyBuffer(b *AllocatedBuffer) {
	if b == nil {
		return
	}
	a.sub.DestroyBuffer(a.device, b.Buffer)
	a.free(b.Allocation)
}

func (a *Allocator) CreateImage(info gpu.ImageInfo, memoryUsage MemoryUsage) (*AllocatedImage, error) {
	image, err := a.sub.CreateImage(a.device, info)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create image")
	}
	alloc, err := a.allocate(a.sub.ImageMemoryRequirements(a.device, image), memoryUsage)
	if err != nil {
		a.sub.DestroyImage(a.device, image)
		return nil, err
	}
	if err := a.sub.BindImageMemory(a.device, image, alloc.Memory, 0); err != nil {
		a.sub.DestroyImage(a.device, image)
		a.free(alloc)
		return nil, errors.Wrap(err, "failed to bind image memory")
	}
	return &AllocatedImage{Image: image, Format: info.Format, Extent: info.Extent, Allocation: alloc}, nil
}

func (a *Allocator) DestroyImage(img *AllocatedImage) {
	if img == nil {
		return
	}
	a.sub.DestroyImage(a.device, img.Image)
	a.free(img.Allocation)
}

// Map returns the host view of the whole allocation.
func (a *Allocator) Map(alloc Allocation) ([]byte, error) {
	if alloc.Usage == MemoryGPUOnly {
		return nil, ErrNotMappable
	}
	data, err := a.sub.MapMemory(a.device, alloc.Memory, 0, alloc.Size)
	if err != nil {
		return nil, errors.Wrap(err, "failed to map memory")
	}
	return data, nil
}

func (a *Allocator) Unmap(alloc Allocation) {
	a.sub.UnmapMemory(a.device, alloc.Memory)
}

// Live is the number of allocations not yet released.
func (a *Allocator) Live() int {
	return a.live
}

// Destroy reports allocations that outlived the allocator.
func (a *Allocator) Destroy() {
	if a.live > 0 {
		core.LogWarn("Allocator destroyed with %d live allocations.", a.live)
	}
}
