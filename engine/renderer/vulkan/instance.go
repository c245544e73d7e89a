package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/forge/engine/core"
	"github.com/spaghettifunk/forge/engine/renderer/gpu"
)

// windowSurfacer is implemented by *glfw.Window.
type windowSurfacer interface {
	CreateWindowSurface(instance interface{}, allocCallbacks unsafe.Pointer) (uintptr, error)
}

func (b *Backend) AvailableLayers() ([]string, error) {
	var count uint32
	if res := vk.EnumerateInstanceLayerProperties(&count, nil); res != vk.Success {
		return nil, resultError("vkEnumerateInstanceLayerProperties", res)
	}
	layers := make([]vk.LayerProperties, count)
	if res := vk.EnumerateInstanceLayerProperties(&count, layers); res != vk.Success {
		return nil, resultError("vkEnumerateInstanceLayerProperties", res)
	}
	names := make([]string, 0, count)
	for i := range layers {
		layers[i].Deref()
		names = append(names, vk.ToString(layers[i].LayerName[:]))
	}
	return names, nil
}

func (b *Backend) AvailableInstanceExtensions() ([]string, error) {
	var count uint32
	if res := vk.EnumerateInstanceExtensionProperties("", &count, nil); res != vk.Success {
		return nil, resultError("vkEnumerateInstanceExtensionProperties", res)
	}
	extensions := make([]vk.ExtensionProperties, count)
	if res := vk.EnumerateInstanceExtensionProperties("", &count, extensions); res != vk.Success {
		return nil, resultError("vkEnumerateInstanceExtensionProperties", res)
	}
	names := make([]string, 0, count)
	for i := range extensions {
		extensions[i].Deref()
		names = append(names, vk.ToString(extensions[i].ExtensionName[:]))
	}
	return names, nil
}

func (b *Backend) CreateInstance(info gpu.InstanceInfo) (gpu.Instance, error) {
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         info.APIVersion,
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(info.ApplicationName),
		EngineVersion:      uint32(vk.MakeVersion(1, 0, 0)),
		PEngineName:        VulkanSafeString(info.EngineName),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        appInfo,
		EnabledExtensionCount:   uint32(len(info.Extensions)),
		PpEnabledExtensionNames: VulkanSafeStrings(info.Extensions),
		EnabledLayerCount:       uint32(len(info.Layers)),
		PpEnabledLayerNames:     VulkanSafeStrings(info.Layers),
	}
	if info.Portability {
		// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
		createInfo.Flags |= 1
	}

	var instance vk.Instance
	if res := vk.CreateInstance(&createInfo, nil, &instance); res != vk.Success {
		return 0, resultError("vkCreateInstance", res)
	}
	if err := vk.InitInstance(instance); err != nil {
		vk.DestroyInstance(instance, nil)
		return 0, errors.Wrap(err, "failed to load instance functions")
	}
	return gpu.Instance(b.instances.add(instance)), nil
}

func (b *Backend) DestroyInstance(instance gpu.Instance) {
	if inst, ok := b.instances.remove(uint64(instance)); ok {
		vk.DestroyInstance(inst, nil)
	}
}

func (b *Backend) CreateDebugMessenger(instance gpu.Instance) (gpu.DebugMessenger, error) {
	debugCreateInfo := vk.DebugReportCallbackCreateInfo{
		SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
		PfnCallback: dbgCallbackFunc,
	}
	var dbg vk.DebugReportCallback
	if res := vk.CreateDebugReportCallback(b.instances.get(uint64(instance)), &debugCreateInfo, nil, &dbg); res != vk.Success {
		return 0, resultError("vkCreateDebugReportCallbackEXT", res)
	}
	return gpu.DebugMessenger(b.messengers.add(dbg)), nil
}

func (b *Backend) DestroyDebugMessenger(instance gpu.Instance, messenger gpu.DebugMessenger) {
	if dbg, ok := b.messengers.remove(uint64(messenger)); ok {
		vk.DestroyDebugReportCallback(b.instances.get(uint64(instance)), dbg, nil)
	}
}

func (b *Backend) CreateSurface(instance gpu.Instance, window gpu.WindowHandle) (gpu.Surface, error) {
	w, ok := window.(windowSurfacer)
	if !ok {
		return 0, errors.Wrapf(gpu.ErrUnsupported, "window %T cannot create a Vulkan surface", window)
	}
	ptr, err := w.CreateWindowSurface(b.instances.get(uint64(instance)), nil)
	if err != nil {
		return 0, errors.Wrap(err, "vulkan surface creation failed")
	}
	surface := vk.SurfaceFromPointer(ptr)
	return gpu.Surface(b.surfaces.add(surface)), nil
}

func (b *Backend) DestroySurface(instance gpu.Instance, surface gpu.Surface) {
	if s, ok := b.surfaces.remove(uint64(surface)); ok {
		vk.DestroySurface(b.instances.get(uint64(instance)), s, nil)
	}
}

func (b *Backend) physicalHandle(pd vk.PhysicalDevice) gpu.PhysicalDevice {
	if id, ok := b.physicalIDs[pd]; ok {
		return gpu.PhysicalDevice(id)
	}
	id := b.physical.add(pd)
	b.physicalIDs[pd] = id
	return gpu.PhysicalDevice(id)
}

func (b *Backend) PhysicalDevices(instance gpu.Instance, surface gpu.Surface) ([]gpu.PhysicalDeviceInfo, error) {
	inst := b.instances.get(uint64(instance))
	s := b.surfaces.get(uint64(surface))

	var count uint32
	if res := vk.EnumeratePhysicalDevices(inst, &count, nil); res != vk.Success {
		return nil, resultError("vkEnumeratePhysicalDevices", res)
	}
	if count == 0 {
		return nil, nil
	}
	devices := make([]vk.PhysicalDevice, count)
	if res := vk.EnumeratePhysicalDevices(inst, &count, devices); res != vk.Success {
		return nil, resultError("vkEnumeratePhysicalDevices", res)
	}

	infos := make([]gpu.PhysicalDeviceInfo, 0, count)
	for _, pd := range devices {
		info, err := describePhysicalDevice(pd, s)
		if err != nil {
			return nil, err
		}
		info.Handle = b.physicalHandle(pd)
		infos = append(infos, info)
	}
	return infos, nil
}

func describePhysicalDevice(pd vk.PhysicalDevice, surface vk.Surface) (gpu.PhysicalDeviceInfo, error) {
	var properties vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(pd, &properties)
	properties.Deref()

	var features vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(pd, &features)
	features.Deref()

	var memory vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(pd, &memory)
	memory.Deref()

	info := gpu.PhysicalDeviceInfo{
		Name:              vk.ToString(properties.DeviceName[:]),
		Type:              gpu.PhysicalDeviceType(properties.DeviceType),
		APIVersion:        properties.ApiVersion,
		DriverVersion:     properties.DriverVersion,
		SamplerAnisotropy: features.SamplerAnisotropy == vk.True,
	}

	for i := uint32(0); i < memory.MemoryTypeCount; i++ {
		memory.MemoryTypes[i].Deref()
		info.Memory.Types = append(info.Memory.Types, gpu.MemoryType{
			Properties: gpu.MemoryPropertyFlags(memory.MemoryTypes[i].PropertyFlags),
			HeapIndex:  memory.MemoryTypes[i].HeapIndex,
		})
	}
	for i := uint32(0); i < memory.MemoryHeapCount; i++ {
		memory.MemoryHeaps[i].Deref()
		info.Memory.Heaps = append(info.Memory.Heaps, gpu.MemoryHeap{
			Size:        uint64(memory.MemoryHeaps[i].Size),
			DeviceLocal: vk.MemoryHeapFlagBits(memory.MemoryHeaps[i].Flags)&vk.MemoryHeapDeviceLocalBit != 0,
		})
	}

	var familyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &familyCount, nil)
	families := make([]vk.QueueFamilyProperties, familyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &familyCount, families)
	for i := range families {
		families[i].Deref()
		var supportsPresent vk.Bool32 = vk.False
		if res := vk.GetPhysicalDeviceSurfaceSupport(pd, uint32(i), surface, &supportsPresent); res != vk.Success {
			return info, resultError("vkGetPhysicalDeviceSurfaceSupportKHR", res)
		}
		info.QueueFamilies = append(info.QueueFamilies, gpu.QueueFamily{
			Flags:          gpu.QueueFlags(families[i].QueueFlags),
			Count:          families[i].QueueCount,
			PresentSupport: supportsPresent == vk.True,
		})
	}

	var extensionCount uint32
	if res := vk.EnumerateDeviceExtensionProperties(pd, "", &extensionCount, nil); res != vk.Success {
		return info, resultError("vkEnumerateDeviceExtensionProperties", res)
	}
	extensions := make([]vk.ExtensionProperties, extensionCount)
	if res := vk.EnumerateDeviceExtensionProperties(pd, "", &extensionCount, extensions); res != vk.Success {
		return info, resultError("vkEnumerateDeviceExtensionProperties", res)
	}
	for i := range extensions {
		extensions[i].Deref()
		info.Extensions = append(info.Extensions, vk.ToString(extensions[i].ExtensionName[:]))
	}
	return info, nil
}

func (b *Backend) SurfaceSupport(device gpu.PhysicalDevice, surface gpu.Surface) (gpu.SurfaceSupport, error) {
	pd := b.physical.get(uint64(device))
	s := b.surfaces.get(uint64(surface))
	var support gpu.SurfaceSupport

	var caps vk.SurfaceCapabilities
	if res := vk.GetPhysicalDeviceSurfaceCapabilities(pd, s, &caps); res != vk.Success {
		return support, resultError("vkGetPhysicalDeviceSurfaceCapabilitiesKHR", res)
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()
	support.Capabilities = gpu.SurfaceCapabilities{
		MinImageCount:    caps.MinImageCount,
		MaxImageCount:    caps.MaxImageCount,
		CurrentExtent:    gpu.Extent2D{Width: caps.CurrentExtent.Width, Height: caps.CurrentExtent.Height},
		MinImageExtent:   gpu.Extent2D{Width: caps.MinImageExtent.Width, Height: caps.MinImageExtent.Height},
		MaxImageExtent:   gpu.Extent2D{Width: caps.MaxImageExtent.Width, Height: caps.MaxImageExtent.Height},
		CurrentTransform: uint32(caps.CurrentTransform),
	}

	var formatCount uint32
	if res := vk.GetPhysicalDeviceSurfaceFormats(pd, s, &formatCount, nil); res != vk.Success {
		return support, resultError("vkGetPhysicalDeviceSurfaceFormatsKHR", res)
	}
	if formatCount != 0 {
		formats := make([]vk.SurfaceFormat, formatCount)
		if res := vk.GetPhysicalDeviceSurfaceFormats(pd, s, &formatCount, formats); res != vk.Success {
			return support, resultError("vkGetPhysicalDeviceSurfaceFormatsKHR", res)
		}
		for i := range formats {
			formats[i].Deref()
			support.Formats = append(support.Formats, gpu.SurfaceFormat{
				Format:     gpu.Format(formats[i].Format),
				ColorSpace: gpu.ColorSpace(formats[i].ColorSpace),
			})
		}
	}

	var modeCount uint32
	if res := vk.GetPhysicalDeviceSurfacePresentModes(pd, s, &modeCount, nil); res != vk.Success {
		return support, resultError("vkGetPhysicalDeviceSurfacePresentModesKHR", res)
	}
	if modeCount != 0 {
		modes := make([]vk.PresentMode, modeCount)
		if res := vk.GetPhysicalDeviceSurfacePresentModes(pd, s, &modeCount, modes); res != vk.Success {
			return support, resultError("vkGetPhysicalDeviceSurfacePresentModesKHR", res)
		}
		for _, m := range modes {
			support.PresentModes = append(support.PresentModes, gpu.PresentMode(m))
		}
	}
	return support, nil
}

func (b *Backend) SupportsDepthAttachment(device gpu.PhysicalDevice, format gpu.Format) bool {
	var properties vk.FormatProperties
	vk.GetPhysicalDeviceFormatProperties(b.physical.get(uint64(device)), vk.Format(format), &properties)
	properties.Deref()
	flags := vk.FormatFeatureDepthStencilAttachmentBit
	return vk.FormatFeatureFlagBits(properties.OptimalTilingFeatures)&flags == flags
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("ERROR: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		core.LogWarn("PERFORMANCE WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportInformationBit) != 0:
		core.LogInfo("INFORMATION: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogDebug("DEBUG: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
