// Package gputest provides an in-memory gpu.Substrate for tests. It keeps an
// ordered log of every call, tracks live handles, simulates fence and
// semaphore signaling, stores device memory contents and records protocol
// misuse as violations instead of crashing.
package gputest

import (
	"fmt"
	"sort"

	"github.com/spaghettifunk/forge/engine/renderer/gpu"
)

const (
	ValidationLayer = "VK_LAYER_KHRONOS_validation"
	SurfaceExt      = "VK_KHR_surface"
	WindowExt       = "VK_KHR_xcb_surface"
	DebugReportExt  = "VK_EXT_debug_report"
	SwapchainExt    = "VK_KHR_swapchain"
)

// UndefinedExtent signals that the surface size follows the swapchain.
var UndefinedExtent = gpu.Extent2D{Width: 0xFFFFFFFF, Height: 0xFFFFFFFF}

type Call struct {
	Op     string
	Handle uint64
	Args   []any
}

type memoryState struct {
	data      []byte
	typeIndex uint32
	mapped    bool
}

type bufferState struct {
	info   gpu.BufferInfo
	memory gpu.DeviceMemory
	offset uint64
}

type fenceState struct {
	signaled bool
	pending  bool
}

type swapchainState struct {
	info   gpu.SwapchainInfo
	images []gpu.Image
	next   uint32
}

const (
	cmdInitial = iota
	cmdRecording
	cmdExecutable
)

type commandBufferState struct {
	pool         gpu.CommandPool
	state        int
	inRenderPass bool
	pipeline     gpu.Pipeline
	fence        gpu.Fence
}

var instanceScoped = map[string]bool{
	"debug_messenger": true,
	"surface":         true,
	"device":          true,
}

// Fake implements gpu.Substrate. The exported fields configure what the fake
// reports and may be changed before or between calls.
type Fake struct {
	Devices            []gpu.PhysicalDeviceInfo
	Support            gpu.SurfaceSupport
	Layers             []string
	InstanceExtensions []string
	DepthFormats       map[gpu.Format]bool

	// AcquireResults and PresentResults are consumed one per call. A nil
	// entry, or an exhausted list, means success.
	AcquireResults []error
	PresentResults []error

	Calls      []Call
	Violations []string

	next           uint64
	live           map[uint64]string
	failures       map[string][]error
	memory         map[gpu.DeviceMemory]*memoryState
	buffers        map[gpu.Buffer]*bufferState
	fences         map[gpu.Fence]*fenceState
	semaphores     map[gpu.Semaphore]bool
	swapchains     map[gpu.Swapchain]*swapchainState
	pipelines      map[gpu.Pipeline]gpu.GraphicsPipelineInfo
	layouts        map[gpu.PipelineLayout]gpu.PipelineLayoutInfo
	commandBuffers map[gpu.CommandBuffer]*commandBufferState
	instanceInfo   gpu.InstanceInfo
	deviceInfo     gpu.DeviceInfo
}

// New returns a fake with one discrete GPU that has a single graphics queue
// family able to present, one device local and one host visible memory type,
// and a surface accepting 2 to 8 images of any size.
func New() *Fake {
	f := &Fake{
		Layers:             []string{ValidationLayer},
		InstanceExtensions: []string{SurfaceExt, WindowExt, DebugReportExt, "VK_KHR_portability_enumeration", "VK_KHR_get_physical_device_properties2"},
		DepthFormats: map[gpu.Format]bool{
			gpu.FormatD32Sfloat:       true,
			gpu.FormatD32SfloatS8Uint: true,
			gpu.FormatD24UnormS8Uint:  true,
		},
		Support: gpu.SurfaceSupport{
			Capabilities: gpu.SurfaceCapabilities{
				MinImageCount:  2,
				MaxImageCount:  8,
				CurrentExtent:  UndefinedExtent,
				MinImageExtent: gpu.Extent2D{Width: 1, Height: 1},
				MaxImageExtent: gpu.Extent2D{Width: 16384, Height: 16384},
			},
			Formats: []gpu.SurfaceFormat{
				{Format: gpu.FormatB8G8R8A8Unorm, ColorSpace: gpu.ColorSpaceSrgbNonlinear},
				{Format: gpu.FormatB8G8R8A8Srgb, ColorSpace: gpu.ColorSpaceSrgbNonlinear},
			},
			PresentModes: []gpu.PresentMode{gpu.PresentModeFifo, gpu.PresentModeMailbox},
		},
		live:           make(map[uint64]string),
		failures:       make(map[string][]error),
		memory:         make(map[gpu.DeviceMemory]*memoryState),
		buffers:        make(map[gpu.Buffer]*bufferState),
		fences:         make(map[gpu.Fence]*fenceState),
		semaphores:     make(map[gpu.Semaphore]bool),
		swapchains:     make(map[gpu.Swapchain]*swapchainState),
		pipelines:      make(map[gpu.Pipeline]gpu.GraphicsPipelineInfo),
		layouts:        make(map[gpu.PipelineLayout]gpu.PipelineLayoutInfo),
		commandBuffers: make(map[gpu.CommandBuffer]*commandBufferState),
	}
	f.Devices = []gpu.PhysicalDeviceInfo{f.NewDevice("Fake Discrete GPU", gpu.PhysicalDeviceTypeDiscreteGpu)}
	return f
}

// NewDevice builds a suitable physical device description with a fresh handle.
func (f *Fake) NewDevice(name string, kind gpu.PhysicalDeviceType) gpu.PhysicalDeviceInfo {
	return gpu.PhysicalDeviceInfo{
		Handle:     gpu.PhysicalDevice(f.handle()),
		Name:       name,
		Type:       kind,
		APIVersion: 1<<22 | 3<<12,
		QueueFamilies: []gpu.QueueFamily{
			{Flags: gpu.QueueGraphics | gpu.QueueCompute | gpu.QueueTransfer, Count: 1, PresentSupport: true},
		},
		Extensions: []string{SwapchainExt},
		Memory: gpu.MemoryProperties{
			Types: []gpu.MemoryType{
				{Properties: gpu.MemoryPropertyDeviceLocal, HeapIndex: 0},
				{Properties: gpu.MemoryPropertyHostVisible | gpu.MemoryPropertyHostCoherent, HeapIndex: 1},
			},
			Heaps: []gpu.MemoryHeap{
				{Size: 1 << 30, DeviceLocal: true},
				{Size: 1 << 30},
			},
		},
		SamplerAnisotropy: true,
	}
}

// FailNext makes the next call to op return err.
func (f *Fake) FailNext(op string, err error) {
	f.failures[op] = append(f.failures[op], err)
}

// Count returns how many times op was called.
func (f *Fake) Count(op string) int {
	n := 0
	for _, c := range f.Calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// CallsTo returns the calls to op in order.
func (f *Fake) CallsTo(op string) []Call {
	var calls []Call
	for _, c := range f.Calls {
		if c.Op == op {
			calls = append(calls, c)
		}
	}
	return calls
}

// Ops returns the name of every recorded call in order.
func (f *Fake) Ops() []string {
	ops := make([]string, len(f.Calls))
	for i, c := range f.Calls {
		ops[i] = c.Op
	}
	return ops
}

// LiveCount is the number of created objects not yet destroyed.
func (f *Fake) LiveCount() int {
	return len(f.live)
}

// Live describes the live objects, sorted, for test failure messages.
func (f *Fake) Live() []string {
	var out []string
	for h, kind := range f.live {
		out = append(out, fmt.Sprintf("%s#%d", kind, h))
	}
	sort.Strings(out)
	return out
}

func (f *Fake) IsLive(handle uint64) bool {
	_, ok := f.live[handle]
	return ok
}

func (f *Fake) InstanceInfo() gpu.InstanceInfo { return f.instanceInfo }

func (f *Fake) DeviceInfo() gpu.DeviceInfo { return f.deviceInfo }

func (f *Fake) PipelineInfo(p gpu.Pipeline) (gpu.GraphicsPipelineInfo, bool) {
	info, ok := f.pipelines[p]
	return info, ok
}

func (f *Fake) SwapchainInfo(s gpu.Swapchain) (gpu.SwapchainInfo, bool) {
	st, ok := f.swapchains[s]
	if !ok {
		return gpu.SwapchainInfo{}, false
	}
	return st.info, true
}

// BufferBytes returns the contents of the memory range bound to buffer.
func (f *Fake) BufferBytes(b gpu.Buffer) []byte {
	st, ok := f.buffers[b]
	if !ok || st.memory == 0 {
		return nil
	}
	mem := f.memory[st.memory]
	return mem.data[st.offset : st.offset+st.info.Size]
}

func (f *Fake) FenceSignaled(fence gpu.Fence) bool {
	st, ok := f.fences[fence]
	return ok && st.signaled
}

func (f *Fake) handle() uint64 {
	f.next++
	return f.next
}

func (f *Fake) create(kind string) uint64 {
	h := f.handle()
	f.live[h] = kind
	return h
}

func (f *Fake) destroy(kind string, h uint64) {
	if h == 0 {
		return
	}
	got, ok := f.live[h]
	switch {
	case !ok:
		f.violate("destroy of dead or unknown %s #%d", kind, h)
		return
	case got != kind:
		f.violate("destroy of %s #%d as %s", got, h, kind)
		return
	}
	delete(f.live, h)
}

func (f *Fake) violate(format string, args ...any) {
	f.Violations = append(f.Violations, fmt.Sprintf(format, args...))
}

func (f *Fake) record(op string, h uint64, args ...any) error {
	f.Calls = append(f.Calls, Call{Op: op, Handle: h, Args: args})
	if q := f.failures[op]; len(q) > 0 {
		err := q[0]
		f.failures[op] = q[1:]
		return err
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (f *Fake) requireLive(kind string, h uint64) bool {
	if f.live[h] != kind {
		f.violate("use of dead or unknown %s #%d", kind, h)
		return false
	}
	return true
}

// instance

func (f *Fake) AvailableLayers() ([]string, error) {
	if err := f.record("AvailableLayers", 0); err != nil {
		return nil, err
	}
	return append([]string(nil), f.Layers...), nil
}

func (f *Fake) AvailableInstanceExtensions() ([]string, error) {
	if err := f.record("AvailableInstanceExtensions", 0); err != nil {
		return nil, err
	}
	return append([]string(nil), f.InstanceExtensions...), nil
}

func (f *Fake) CreateInstance(info gpu.InstanceInfo) (gpu.Instance, error) {
	if err := f.record("CreateInstance", 0, info); err != nil {
		return 0, err
	}
	for _, ext := range info.Extensions {
		if !contains(f.InstanceExtensions, ext) {
			return 0, &gpu.ResultError{Op: "CreateInstance", Code: -7, Description: "extension not present: " + ext, Err: gpu.ErrUnsupported}
		}
	}
	for _, layer := range info.Layers {
		if !contains(f.Layers, layer) {
			return 0, &gpu.ResultError{Op: "CreateInstance", Code: -6, Description: "layer not present: " + layer, Err: gpu.ErrUnsupported}
		}
	}
	f.instanceInfo = info
	return gpu.Instance(f.create("instance")), nil
}

func (f *Fake) DestroyInstance(instance gpu.Instance) {
	f.record("DestroyInstance", uint64(instance))
	for h, kind := range f.live {
		if h != uint64(instance) {
			f.violate("instance destroyed while %s #%d is alive", kind, h)
		}
	}
	f.destroy("instance", uint64(instance))
}

func (f *Fake) CreateDebugMessenger(instance gpu.Instance) (gpu.DebugMessenger, error) {
	if err := f.record("CreateDebugMessenger", uint64(instance)); err != nil {
		return 0, err
	}
	return gpu.DebugMessenger(f.create("debug_messenger")), nil
}

func (f *Fake) DestroyDebugMessenger(instance gpu.Instance, messenger gpu.DebugMessenger) {
	f.record("DestroyDebugMessenger", uint64(messenger))
	f.destroy("debug_messenger", uint64(messenger))
}

func (f *Fake) CreateSurface(instance gpu.Instance, window gpu.WindowHandle) (gpu.Surface, error) {
	if err := f.record("CreateSurface", uint64(instance), window); err != nil {
		return 0, err
	}
	f.requireLive("instance", uint64(instance))
	return gpu.Surface(f.create("surface")), nil
}

func (f *Fake) DestroySurface(instance gpu.Instance, surface gpu.Surface) {
	f.record("DestroySurface", uint64(surface))
	f.destroy("surface", uint64(surface))
}

func (f *Fake) PhysicalDevices(instance gpu.Instance, surface gpu.Surface) ([]gpu.PhysicalDeviceInfo, error) {
	if err := f.record("PhysicalDevices", uint64(instance)); err != nil {
		return nil, err
	}
	return append([]gpu.PhysicalDeviceInfo(nil), f.Devices...), nil
}

func (f *Fake) SurfaceSupport(device gpu.PhysicalDevice, surface gpu.Surface) (gpu.SurfaceSupport, error) {
	if err := f.record("SurfaceSupport", uint64(device)); err != nil {
		return gpu.SurfaceSupport{}, err
	}
	s := f.Support
	s.Formats = append([]gpu.SurfaceFormat(nil), f.Support.Formats...)
	s.PresentModes = append([]gpu.PresentMode(nil), f.Support.PresentModes...)
	return s, nil
}

func (f *Fake) SupportsDepthAttachment(device gpu.PhysicalDevice, format gpu.Format) bool {
	f.record("SupportsDepthAttachment", uint64(device), format)
	return f.DepthFormats[format]
}

// device

func (f *Fake) CreateDevice(physical gpu.PhysicalDevice, info gpu.DeviceInfo) (gpu.Device, error) {
	if err := f.record("CreateDevice", uint64(physical), info); err != nil {
		return 0, err
	}
	f.deviceInfo = info
	return gpu.Device(f.create("device")), nil
}

func (f *Fake) DestroyDevice(device gpu.Device) {
	f.record("DestroyDevice", uint64(device))
	for h, kind := range f.live {
		if kind != "instance" && !instanceScoped[kind] {
			f.violate("device destroyed while %s #%d is alive", kind, h)
		}
	}
	f.destroy("device", uint64(device))
}

func (f *Fake) GetQueue(device gpu.Device, family uint32) gpu.Queue {
	f.record("GetQueue", uint64(device), family)
	return gpu.Queue(f.handle())
}

func (f *Fake) DeviceWaitIdle(device gpu.Device) error {
	if err := f.record("DeviceWaitIdle", uint64(device)); err != nil {
		return err
	}
	for h, st := range f.fences {
		if st.pending {
			st.pending = false
			st.signaled = true
			f.Calls = append(f.Calls, Call{Op: "FenceSignaled", Handle: uint64(h)})
		}
	}
	for _, cb := range f.commandBuffers {
		cb.fence = 0
	}
	return nil
}

func (f *Fake) CreateSwapchain(device gpu.Device, info gpu.SwapchainInfo) (gpu.Swapchain, error) {
	if err := f.record("CreateSwapchain", uint64(device), info); err != nil {
		return 0, err
	}
	caps := f.Support.Capabilities
	if info.Extent.Width == 0 || info.Extent.Height == 0 ||
		info.Extent.Width < caps.MinImageExtent.Width || info.Extent.Width > caps.MaxImageExtent.Width ||
		info.Extent.Height < caps.MinImageExtent.Height || info.Extent.Height > caps.MaxImageExtent.Height {
		return 0, &gpu.ResultError{Op: "CreateSwapchain", Code: -3, Description: fmt.Sprintf("extent %dx%d outside surface limits", info.Extent.Width, info.Extent.Height), Err: gpu.ErrInvalidUsage}
	}
	if info.MinImageCount < caps.MinImageCount || (caps.MaxImageCount > 0 && info.MinImageCount > caps.MaxImageCount) {
		return 0, &gpu.ResultError{Op: "CreateSwapchain", Code: -3, Description: "image count outside surface limits", Err: gpu.ErrInvalidUsage}
	}
	h := gpu.Swapchain(f.create("swapchain"))
	st := &swapchainState{info: info}
	for i := uint32(0); i < info.MinImageCount; i++ {
		st.images = append(st.images, gpu.Image(f.handle()))
	}
	f.swapchains[h] = st
	return h, nil
}

func (f *Fake) DestroySwapchain(device gpu.Device, swapchain gpu.Swapchain) {
	f.record("DestroySwapchain", uint64(swapchain))
	f.destroy("swapchain", uint64(swapchain))
	delete(f.swapchains, swapchain)
}

func (f *Fake) SwapchainImages(device gpu.Device, swapchain gpu.Swapchain) ([]gpu.Image, error) {
	if err := f.record("SwapchainImages", uint64(swapchain)); err != nil {
		return nil, err
	}
	st, ok := f.swapchains[swapchain]
	if !ok {
		return nil, &gpu.ResultError{Op: "SwapchainImages", Code: -3, Err: gpu.ErrInvalidUsage}
	}
	return append([]gpu.Image(nil), st.images...), nil
}

func (f *Fake) AcquireNextImage(device gpu.Device, swapchain gpu.Swapchain, timeout uint64, semaphore gpu.Semaphore) (uint32, error) {
	if err := f.record("AcquireNextImage", uint64(swapchain), semaphore); err != nil {
		return 0, err
	}
	if len(f.AcquireResults) > 0 {
		err := f.AcquireResults[0]
		f.AcquireResults = f.AcquireResults[1:]
		if err != nil {
			return 0, err
		}
	}
	st, ok := f.swapchains[swapchain]
	if !ok {
		f.violate("acquire from dead swapchain #%d", swapchain)
		return 0, &gpu.ResultError{Op: "AcquireNextImage", Code: -3, Err: gpu.ErrInvalidUsage}
	}
	if f.semaphores[semaphore] {
		f.violate("acquire signals already signaled semaphore #%d", semaphore)
	}
	f.semaphores[semaphore] = true
	idx := st.next
	st.next = (st.next + 1) % uint32(len(st.images))
	return idx, nil
}

func (f *Fake) QueuePresent(queue gpu.Queue, info gpu.PresentInfo) error {
	if err := f.record("QueuePresent", uint64(info.Swapchain), info); err != nil {
		return err
	}
	f.waitSemaphores("present", info.WaitSemaphores)
	if len(f.PresentResults) > 0 {
		err := f.PresentResults[0]
		f.PresentResults = f.PresentResults[1:]
		return err
	}
	return nil
}

func (f *Fake) waitSemaphores(op string, sems []gpu.Semaphore) {
	for _, s := range sems {
		if !f.semaphores[s] {
			f.violate("%s waits on unsignaled semaphore #%d", op, s)
		}
		f.semaphores[s] = false
	}
}

// resources

func (f *Fake) CreateBuffer(device gpu.Device, info gpu.BufferInfo) (gpu.Buffer, error) {
	if err := f.record("CreateBuffer", uint64(device), info); err != nil {
		return 0, err
	}
	if info.Size == 0 {
		return 0, &gpu.ResultError{Op: "CreateBuffer", Code: -3, Description: "zero sized buffer", Err: gpu.ErrInvalidUsage}
	}
	h := gpu.Buffer(f.create("buffer"))
	f.buffers[h] = &bufferState{info: info}
	return h, nil
}

func (f *Fake) DestroyBuffer(device gpu.Device, buffer gpu.Buffer) {
	f.record("DestroyBuffer", uint64(buffer))
	f.destroy("buffer", uint64(buffer))
	delete(f.buffers, buffer)
}

func (f *Fake) allTypes() uint32 {
	n := len(f.Devices[0].Memory.Types)
	return uint32(1)<<n - 1
}

func align(size, alignment uint64) uint64 {
	return (size + alignment - 1) &^ (alignment - 1)
}

func (f *Fake) BufferMemoryRequirements(device gpu.Device, buffer gpu.Buffer) gpu.MemoryRequirements {
	f.record("BufferMemoryRequirements", uint64(buffer))
	st, ok := f.buffers[buffer]
	if !ok {
		f.violate("requirements of unknown buffer #%d", buffer)
		return gpu.MemoryRequirements{}
	}
	return gpu.MemoryRequirements{Size: align(st.info.Size, 16), Alignment: 16, TypeBits: f.allTypes()}
}

func (f *Fake) BindBufferMemory(device gpu.Device, buffer gpu.Buffer, memory gpu.DeviceMemory, offset uint64) error {
	if err := f.record("BindBufferMemory", uint64(buffer), memory, offset); err != nil {
		return err
	}
	st, ok := f.buffers[buffer]
	mem, mok := f.memory[memory]
	if !ok || !mok {
		f.violate("bind of unknown buffer #%d or memory #%d", buffer, memory)
		return &gpu.ResultError{Op: "BindBufferMemory", Code: -3, Err: gpu.ErrInvalidUsage}
	}
	if offset+st.info.Size > uint64(len(mem.data)) {
		return &gpu.ResultError{Op: "BindBufferMemory", Code: -3, Description: "memory too small", Err: gpu.ErrInvalidUsage}
	}
	st.memory = memory
	st.offset = offset
	return nil
}

func (f *Fake) CreateImage(device gpu.Device, info gpu.ImageInfo) (gpu.Image, error) {
	if err := f.record("CreateImage", uint64(device), info); err != nil {
		return 0, err
	}
	return gpu.Image(f.create("image")), nil
}

func (f *Fake) DestroyImage(device gpu.Device, image gpu.Image) {
	f.record("DestroyImage", uint64(image))
	f.destroy("image", uint64(image))
}

func (f *Fake) ImageMemoryRequirements(device gpu.Device, image gpu.Image) gpu.MemoryRequirements {
	f.record("ImageMemoryRequirements", uint64(image))
	return gpu.MemoryRequirements{Size: 4096, Alignment: 256, TypeBits: f.allTypes()}
}

func (f *Fake) BindImageMemory(device gpu.Device, image gpu.Image, memory gpu.DeviceMemory, offset uint64) error {
	if err := f.record("BindImageMemory", uint64(image), memory, offset); err != nil {
		return err
	}
	if _, ok := f.memory[memory]; !ok {
		f.violate("bind of unknown memory #%d", memory)
	}
	return nil
}

func (f *Fake) CreateImageView(device gpu.Device, info gpu.ImageViewInfo) (gpu.ImageView, error) {
	if err := f.record("CreateImageView", uint64(info.Image), info); err != nil {
		return 0, err
	}
	return gpu.ImageView(f.create("image_view")), nil
}

func (f *Fake) DestroyImageView(device gpu.Device, view gpu.ImageView) {
	f.record("DestroyImageView", uint64(view))
	f.destroy("image_view", uint64(view))
}

func (f *Fake) AllocateMemory(device gpu.Device, info gpu.MemoryAllocateInfo) (gpu.DeviceMemory, error) {
	if err := f.record("AllocateMemory", uint64(device), info); err != nil {
		return 0, err
	}
	if int(info.TypeIndex) >= len(f.Devices[0].Memory.Types) {
		return 0, &gpu.ResultError{Op: "AllocateMemory", Code: -3, Description: "bad memory type index", Err: gpu.ErrInvalidUsage}
	}
	h := gpu.DeviceMemory(f.create("memory"))
	f.memory[h] = &memoryState{data: make([]byte, info.Size), typeIndex: info.TypeIndex}
	return h, nil
}

func (f *Fake) FreeMemory(device gpu.Device, memory gpu.DeviceMemory) {
	f.record("FreeMemory", uint64(memory))
	if st, ok := f.memory[memory]; ok && st.mapped {
		f.violate("memory #%d freed while mapped", memory)
	}
	f.destroy("memory", uint64(memory))
}

func (f *Fake) MapMemory(device gpu.Device, memory gpu.DeviceMemory, offset, size uint64) ([]byte, error) {
	if err := f.record("MapMemory", uint64(memory), offset, size); err != nil {
		return nil, err
	}
	st, ok := f.memory[memory]
	if !ok {
		f.violate("map of unknown memory #%d", memory)
		return nil, &gpu.ResultError{Op: "MapMemory", Code: -5, Err: gpu.ErrInvalidUsage}
	}
	if f.Devices[0].Memory.Types[st.typeIndex].Properties&gpu.MemoryPropertyHostVisible == 0 {
		return nil, &gpu.ResultError{Op: "MapMemory", Code: -5, Description: "memory is not host visible", Err: gpu.ErrInvalidUsage}
	}
	if st.mapped {
		return nil, &gpu.ResultError{Op: "MapMemory", Code: -5, Description: "memory already mapped", Err: gpu.ErrInvalidUsage}
	}
	if offset+size > uint64(len(st.data)) {
		return nil, &gpu.ResultError{Op: "MapMemory", Code: -5, Description: "range outside allocation", Err: gpu.ErrInvalidUsage}
	}
	st.mapped = true
	return st.data[offset : offset+size], nil
}

func (f *Fake) UnmapMemory(device gpu.Device, memory gpu.DeviceMemory) {
	f.record("UnmapMemory", uint64(memory))
	if st, ok := f.memory[memory]; ok {
		if !st.mapped {
			f.violate("unmap of unmapped memory #%d", memory)
		}
		st.mapped = false
	}
}

// pipelines

func (f *Fake) CreateRenderPass(device gpu.Device, info gpu.RenderPassInfo) (gpu.RenderPass, error) {
	if err := f.record("CreateRenderPass", uint64(device), info); err != nil {
		return 0, err
	}
	return gpu.RenderPass(f.create("render_pass")), nil
}

func (f *Fake) DestroyRenderPass(device gpu.Device, pass gpu.RenderPass) {
	f.record("DestroyRenderPass", uint64(pass))
	f.destroy("render_pass", uint64(pass))
}

func (f *Fake) CreateFramebuffer(device gpu.Device, info gpu.FramebufferInfo) (gpu.Framebuffer, error) {
	if err := f.record("CreateFramebuffer", uint64(info.RenderPass), info); err != nil {
		return 0, err
	}
	f.requireLive("render_pass", uint64(info.RenderPass))
	for _, v := range info.Attachments {
		f.requireLive("image_view", uint64(v))
	}
	return gpu.Framebuffer(f.create("framebuffer")), nil
}

func (f *Fake) DestroyFramebuffer(device gpu.Device, framebuffer gpu.Framebuffer) {
	f.record("DestroyFramebuffer", uint64(framebuffer))
	f.destroy("framebuffer", uint64(framebuffer))
}

func (f *Fake) CreateShaderModule(device gpu.Device, code []uint32) (gpu.ShaderModule, error) {
	if err := f.record("CreateShaderModule", uint64(device), len(code)); err != nil {
		return 0, err
	}
	if len(code) == 0 {
		return 0, &gpu.ResultError{Op: "CreateShaderModule", Code: -1000012000, Description: "empty shader code", Err: gpu.ErrInvalidUsage}
	}
	return gpu.ShaderModule(f.create("shader_module")), nil
}

func (f *Fake) DestroyShaderModule(device gpu.Device, module gpu.ShaderModule) {
	f.record("DestroyShaderModule", uint64(module))
	f.destroy("shader_module", uint64(module))
}

func (f *Fake) CreatePipelineLayout(device gpu.Device, info gpu.PipelineLayoutInfo) (gpu.PipelineLayout, error) {
	if err := f.record("CreatePipelineLayout", uint64(device), info); err != nil {
		return 0, err
	}
	h := gpu.PipelineLayout(f.create("pipeline_layout"))
	f.layouts[h] = info
	return h, nil
}

func (f *Fake) DestroyPipelineLayout(device gpu.Device, layout gpu.PipelineLayout) {
	f.record("DestroyPipelineLayout", uint64(layout))
	f.destroy("pipeline_layout", uint64(layout))
}

func invalidPipeline(reason string) error {
	return &gpu.ResultError{Op: "CreateGraphicsPipelines", Code: -13, Description: reason, Err: gpu.ErrInvalidUsage}
}

func (f *Fake) CreateGraphicsPipeline(device gpu.Device, info gpu.GraphicsPipelineInfo) (gpu.Pipeline, error) {
	if err := f.record("CreateGraphicsPipeline", uint64(device), info); err != nil {
		return 0, err
	}
	hasVertex := false
	for _, s := range info.Stages {
		if !f.requireLive("shader_module", uint64(s.Module)) {
			return 0, invalidPipeline("dead shader module")
		}
		if s.Stage == gpu.ShaderStageVertex {
			hasVertex = true
		}
	}
	if !hasVertex {
		return 0, invalidPipeline("graphics pipeline has no vertex stage")
	}
	if !f.requireLive("pipeline_layout", uint64(info.Layout)) || !f.requireLive("render_pass", uint64(info.RenderPass)) {
		return 0, invalidPipeline("dead layout or render pass")
	}
	dynamic := map[gpu.DynamicState]bool{}
	for _, d := range info.DynamicStates {
		dynamic[d] = true
	}
	if len(info.Viewport.Viewports) == 0 && !dynamic[gpu.DynamicStateViewport] {
		return 0, invalidPipeline("no viewport")
	}
	if info.Rasterization.LineWidth <= 0 && !dynamic[gpu.DynamicStateLineWidth] {
		return 0, invalidPipeline("line width must be positive")
	}
	if len(info.ColorBlend.Attachments) != 1 {
		return 0, invalidPipeline("render pass subpass has one color attachment")
	}
	h := gpu.Pipeline(f.create("pipeline"))
	f.pipelines[h] = info
	return h, nil
}

func (f *Fake) DestroyPipeline(device gpu.Device, pipeline gpu.Pipeline) {
	f.record("DestroyPipeline", uint64(pipeline))
	f.destroy("pipeline", uint64(pipeline))
}

// commands

func (f *Fake) CreateCommandPool(device gpu.Device, info gpu.CommandPoolInfo) (gpu.CommandPool, error) {
	if err := f.record("CreateCommandPool", uint64(device), info); err != nil {
		return 0, err
	}
	return gpu.CommandPool(f.create("command_pool")), nil
}

func (f *Fake) DestroyCommandPool(device gpu.Device, pool gpu.CommandPool) {
	f.record("DestroyCommandPool", uint64(pool))
	for h, cb := range f.commandBuffers {
		if cb.pool == pool {
			if cb.fence != 0 && f.fences[cb.fence] != nil && f.fences[cb.fence].pending {
				f.violate("command pool #%d destroyed while buffer #%d is in flight", pool, h)
			}
			delete(f.commandBuffers, h)
		}
	}
	f.destroy("command_pool", uint64(pool))
}

func (f *Fake) AllocateCommandBuffer(device gpu.Device, pool gpu.CommandPool) (gpu.CommandBuffer, error) {
	if err := f.record("AllocateCommandBuffer", uint64(pool)); err != nil {
		return 0, err
	}
	f.requireLive("command_pool", uint64(pool))
	h := gpu.CommandBuffer(f.handle())
	f.commandBuffers[h] = &commandBufferState{pool: pool}
	return h, nil
}

func (f *Fake) commandBuffer(op string, cmd gpu.CommandBuffer) *commandBufferState {
	cb, ok := f.commandBuffers[cmd]
	if !ok {
		f.violate("%s on unknown command buffer #%d", op, cmd)
		return &commandBufferState{}
	}
	return cb
}

func (f *Fake) checkNotInFlight(op string, cmd gpu.CommandBuffer, cb *commandBufferState) {
	if cb.fence == 0 {
		return
	}
	if st := f.fences[cb.fence]; st != nil && st.pending {
		f.violate("%s on command buffer #%d still in flight", op, cmd)
	}
}

func (f *Fake) ResetCommandBuffer(cmd gpu.CommandBuffer) error {
	if err := f.record("ResetCommandBuffer", uint64(cmd)); err != nil {
		return err
	}
	cb := f.commandBuffer("ResetCommandBuffer", cmd)
	f.checkNotInFlight("ResetCommandBuffer", cmd, cb)
	cb.state = cmdInitial
	cb.inRenderPass = false
	cb.pipeline = 0
	return nil
}

func (f *Fake) BeginCommandBuffer(cmd gpu.CommandBuffer, oneTimeSubmit bool) error {
	if err := f.record("BeginCommandBuffer", uint64(cmd), oneTimeSubmit); err != nil {
		return err
	}
	cb := f.commandBuffer("BeginCommandBuffer", cmd)
	f.checkNotInFlight("BeginCommandBuffer", cmd, cb)
	if cb.state == cmdRecording {
		f.violate("begin on command buffer #%d already recording", cmd)
	}
	cb.state = cmdRecording
	return nil
}

func (f *Fake) EndCommandBuffer(cmd gpu.CommandBuffer) error {
	if err := f.record("EndCommandBuffer", uint64(cmd)); err != nil {
		return err
	}
	cb := f.commandBuffer("EndCommandBuffer", cmd)
	if cb.state != cmdRecording || cb.inRenderPass {
		f.violate("end on command buffer #%d that is not recording outside a render pass", cmd)
	}
	cb.state = cmdExecutable
	return nil
}

func (f *Fake) recording(op string, cmd gpu.CommandBuffer) *commandBufferState {
	cb := f.commandBuffer(op, cmd)
	if cb.state != cmdRecording {
		f.violate("%s on command buffer #%d that is not recording", op, cmd)
	}
	return cb
}

func (f *Fake) CmdBeginRenderPass(cmd gpu.CommandBuffer, info gpu.RenderPassBeginInfo) {
	f.record("CmdBeginRenderPass", uint64(cmd), info)
	cb := f.recording("CmdBeginRenderPass", cmd)
	f.requireLive("framebuffer", uint64(info.Framebuffer))
	cb.inRenderPass = true
}

func (f *Fake) CmdEndRenderPass(cmd gpu.CommandBuffer) {
	f.record("CmdEndRenderPass", uint64(cmd))
	cb := f.recording("CmdEndRenderPass", cmd)
	if !cb.inRenderPass {
		f.violate("end render pass outside a render pass on #%d", cmd)
	}
	cb.inRenderPass = false
}

func (f *Fake) CmdSetViewport(cmd gpu.CommandBuffer, viewport gpu.Viewport) {
	f.record("CmdSetViewport", uint64(cmd), viewport)
	f.recording("CmdSetViewport", cmd)
}

func (f *Fake) CmdSetScissor(cmd gpu.CommandBuffer, scissor gpu.Rect2D) {
	f.record("CmdSetScissor", uint64(cmd), scissor)
	f.recording("CmdSetScissor", cmd)
}

func (f *Fake) CmdBindPipeline(cmd gpu.CommandBuffer, pipeline gpu.Pipeline) {
	f.record("CmdBindPipeline", uint64(cmd), pipeline)
	cb := f.recording("CmdBindPipeline", cmd)
	f.requireLive("pipeline", uint64(pipeline))
	cb.pipeline = pipeline
}

func (f *Fake) CmdBindVertexBuffer(cmd gpu.CommandBuffer, buffer gpu.Buffer, offset uint64) {
	f.record("CmdBindVertexBuffer", uint64(cmd), buffer, offset)
	f.recording("CmdBindVertexBuffer", cmd)
	f.requireLive("buffer", uint64(buffer))
}

func (f *Fake) CmdPushConstants(cmd gpu.CommandBuffer, layout gpu.PipelineLayout, stages gpu.ShaderStageFlags, offset uint32, data []byte) {
	f.record("CmdPushConstants", uint64(cmd), layout, stages, offset, append([]byte(nil), data...))
	f.recording("CmdPushConstants", cmd)
	info, ok := f.layouts[layout]
	if !ok {
		f.violate("push constants with unknown layout #%d", layout)
		return
	}
	for _, r := range info.PushConstantRanges {
		if r.Stages&stages == stages && offset >= r.Offset && offset+uint32(len(data)) <= r.Offset+r.Size {
			return
		}
	}
	f.violate("push constants outside the ranges of layout #%d", layout)
}

func (f *Fake) CmdDraw(cmd gpu.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	f.record("CmdDraw", uint64(cmd), vertexCount, instanceCount, firstVertex, firstInstance)
	cb := f.recording("CmdDraw", cmd)
	if !cb.inRenderPass || cb.pipeline == 0 {
		f.violate("draw on #%d without a render pass and a bound pipeline", cmd)
	}
}

func (f *Fake) QueueSubmit(queue gpu.Queue, info gpu.SubmitInfo, fence gpu.Fence) error {
	if err := f.record("QueueSubmit", uint64(queue), info, fence); err != nil {
		return err
	}
	if len(info.WaitSemaphores) != len(info.WaitStages) {
		f.violate("submit with %d wait semaphores and %d wait stages", len(info.WaitSemaphores), len(info.WaitStages))
	}
	f.waitSemaphores("submit", info.WaitSemaphores)
	for _, s := range info.SignalSemaphores {
		if f.semaphores[s] {
			f.violate("submit signals already signaled semaphore #%d", s)
		}
		f.semaphores[s] = true
	}
	for _, cmd := range info.CommandBuffers {
		cb := f.commandBuffer("QueueSubmit", cmd)
		if cb.state != cmdExecutable {
			f.violate("submit of command buffer #%d that is not executable", cmd)
		}
		cb.fence = fence
	}
	if fence != 0 {
		st, ok := f.fences[fence]
		if !ok {
			f.violate("submit with unknown fence #%d", fence)
			return nil
		}
		if st.signaled || st.pending {
			f.violate("submit with fence #%d that is not unsignaled", fence)
		}
		st.signaled = false
		st.pending = true
	}
	return nil
}

// sync

func (f *Fake) CreateFence(device gpu.Device, signaled bool) (gpu.Fence, error) {
	if err := f.record("CreateFence", uint64(device), signaled); err != nil {
		return 0, err
	}
	h := gpu.Fence(f.create("fence"))
	f.fences[h] = &fenceState{signaled: signaled}
	return h, nil
}

func (f *Fake) DestroyFence(device gpu.Device, fence gpu.Fence) {
	f.record("DestroyFence", uint64(fence))
	if st, ok := f.fences[fence]; ok && st.pending {
		f.violate("fence #%d destroyed while in flight", fence)
	}
	f.destroy("fence", uint64(fence))
	delete(f.fences, fence)
}

// WaitForFence completes the pending work of the fence, recording a
// FenceSignaled call. Waiting on a fence nothing will ever signal is a
// violation and returns a timeout.
func (f *Fake) WaitForFence(device gpu.Device, fence gpu.Fence, timeout uint64) error {
	if err := f.record("WaitForFence", uint64(fence), timeout); err != nil {
		return err
	}
	st, ok := f.fences[fence]
	switch {
	case !ok:
		f.violate("wait on unknown fence #%d", fence)
		return &gpu.ResultError{Op: "WaitForFences", Code: -3, Err: gpu.ErrInvalidUsage}
	case st.signaled:
		return nil
	case st.pending:
		st.pending = false
		st.signaled = true
		f.Calls = append(f.Calls, Call{Op: "FenceSignaled", Handle: uint64(fence)})
		for _, cb := range f.commandBuffers {
			if cb.fence == fence {
				cb.fence = 0
			}
		}
		return nil
	}
	f.violate("wait on fence #%d that nothing will signal", fence)
	return &gpu.ResultError{Op: "WaitForFences", Code: 2, Err: gpu.ErrTimeout}
}

func (f *Fake) ResetFence(device gpu.Device, fence gpu.Fence) error {
	if err := f.record("ResetFence", uint64(fence)); err != nil {
		return err
	}
	st, ok := f.fences[fence]
	if !ok {
		f.violate("reset of unknown fence #%d", fence)
		return nil
	}
	if st.pending {
		f.violate("reset of fence #%d while in flight", fence)
	}
	st.signaled = false
	return nil
}

func (f *Fake) CreateSemaphore(device gpu.Device) (gpu.Semaphore, error) {
	if err := f.record("CreateSemaphore", uint64(device)); err != nil {
		return 0, err
	}
	h := gpu.Semaphore(f.create("semaphore"))
	f.semaphores[h] = false
	return h, nil
}

func (f *Fake) DestroySemaphore(device gpu.Device, semaphore gpu.Semaphore) {
	f.record("DestroySemaphore", uint64(semaphore))
	f.destroy("semaphore", uint64(semaphore))
	delete(f.semaphores, semaphore)
}

var _ gpu.Substrate = (*Fake)(nil)
