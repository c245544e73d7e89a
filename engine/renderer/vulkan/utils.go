package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/forge/engine/renderer/gpu"
)

type resultInfo struct {
	name        string
	description string
	sentinel    error
}

// From: https://www.khronos.org/registry/vulkan/specs/1.3-extensions/man/html/VkResult.html
var results = map[vk.Result]resultInfo{
	// Success Codes
	vk.Success:    {"VK_SUCCESS", "Command successfully completed", nil},
	vk.NotReady:   {"VK_NOT_READY", "A fence or query has not yet completed", gpu.ErrTimeout},
	vk.Timeout:    {"VK_TIMEOUT", "A wait operation has not completed in the specified time", gpu.ErrTimeout},
	vk.Incomplete: {"VK_INCOMPLETE", "A return array was too small for the result", gpu.ErrFailed},
	vk.Suboptimal: {"VK_SUBOPTIMAL_KHR", "A swapchain no longer matches the surface properties exactly, but can still be used to present to the surface successfully.", gpu.ErrSuboptimal},

	// Error codes
	vk.ErrorOutOfHostMemory:      {"VK_ERROR_OUT_OF_HOST_MEMORY", "A host memory allocation has failed.", gpu.ErrOutOfMemory},
	vk.ErrorOutOfDeviceMemory:    {"VK_ERROR_OUT_OF_DEVICE_MEMORY", "A device memory allocation has failed.", gpu.ErrOutOfMemory},
	vk.ErrorInitializationFailed: {"VK_ERROR_INITIALIZATION_FAILED", "Initialization of an object could not be completed for implementation-specific reasons.", gpu.ErrFailed},
	vk.ErrorDeviceLost:           {"VK_ERROR_DEVICE_LOST", "The logical or physical device has been lost.", gpu.ErrDeviceLost},
	vk.ErrorMemoryMapFailed:      {"VK_ERROR_MEMORY_MAP_FAILED", "Mapping of a memory object has failed.", gpu.ErrFailed},
	vk.ErrorLayerNotPresent:      {"VK_ERROR_LAYER_NOT_PRESENT", "A requested layer is not present or could not be loaded.", gpu.ErrUnsupported},
	vk.ErrorExtensionNotPresent:  {"VK_ERROR_EXTENSION_NOT_PRESENT", "A requested extension is not supported.", gpu.ErrUnsupported},
	vk.ErrorFeatureNotPresent:    {"VK_ERROR_FEATURE_NOT_PRESENT", "A requested feature is not supported.", gpu.ErrUnsupported},
	vk.ErrorIncompatibleDriver:   {"VK_ERROR_INCOMPATIBLE_DRIVER", "The requested version of Vulkan is not supported by the driver or is otherwise incompatible for implementation-specific reasons.", gpu.ErrUnsupported},
	vk.ErrorTooManyObjects:       {"VK_ERROR_TOO_MANY_OBJECTS", "Too many objects of the type have already been created.", gpu.ErrOutOfMemory},
	vk.ErrorFormatNotSupported:   {"VK_ERROR_FORMAT_NOT_SUPPORTED", "A requested format is not supported on this device.", gpu.ErrUnsupported},
	vk.ErrorFragmentedPool:       {"VK_ERROR_FRAGMENTED_POOL", "A pool allocation has failed due to fragmentation of the pool's memory.", gpu.ErrOutOfMemory},
	vk.ErrorOutOfPoolMemory:      {"VK_ERROR_OUT_OF_POOL_MEMORY", "A pool memory allocation has failed.", gpu.ErrOutOfMemory},
	vk.ErrorSurfaceLost:          {"VK_ERROR_SURFACE_LOST_KHR", "A surface is no longer available.", gpu.ErrSurfaceLost},
	vk.ErrorNativeWindowInUse:    {"VK_ERROR_NATIVE_WINDOW_IN_USE_KHR", "The requested window is already in use by Vulkan or another API in a manner which prevents it from being used again.", gpu.ErrFailed},
	vk.ErrorOutOfDate:            {"VK_ERROR_OUT_OF_DATE_KHR", "A surface has changed in such a way that it is no longer compatible with the swapchain.", gpu.ErrOutOfDate},
	vk.ErrorIncompatibleDisplay:  {"VK_ERROR_INCOMPATIBLE_DISPLAY_KHR", "The display used by a swapchain does not use the same presentable image layout, or is incompatible in a way that prevents sharing an image.", gpu.ErrFailed},
	vk.ErrorInvalidShaderNv:      {"VK_ERROR_INVALID_SHADER_NV", "One or more shaders failed to compile or link.", gpu.ErrInvalidUsage},
	vk.ErrorUnknown:              {"VK_ERROR_UNKNOWN", "An unknown error has occurred; either the application has provided invalid input, or an implementation failure has occurred.", gpu.ErrFailed},
}

// VulkanResultString returns the name of result, followed by its description
// when getExtended is set.
func VulkanResultString(result vk.Result, getExtended bool) string {
	info, ok := results[result]
	if !ok {
		return "VK_ERROR_UNKNOWN"
	}
	if getExtended {
		return info.name + " " + info.description
	}
	return info.name
}

// resultError converts a failed call into a *gpu.ResultError. Success maps to
// nil.
func resultError(op string, result vk.Result) error {
	if result == vk.Success {
		return nil
	}
	info, ok := results[result]
	if !ok {
		info = resultInfo{name: "VK_ERROR_UNKNOWN", sentinel: gpu.ErrFailed}
	}
	return &gpu.ResultError{
		Op:          op,
		Code:        int32(result),
		Description: VulkanResultString(result, true),
		Err:         info.sentinel,
	}
}

var end = "\x00"
var endChar byte = '\x00'

func VulkanSafeString(s string) string {
	if len(s) == 0 {
		return end
	}
	if s[len(s)-1] != endChar {
		return s + end
	}
	return s
}

// VulkanSafeStrings returns null terminated copies of list.
func VulkanSafeStrings(list []string) []string {
	out := make([]string, len(list))
	for i := range list {
		out[i] = VulkanSafeString(list[i])
	}
	return out
}

func vkBool(b bool) vk.Bool32 {
	if b {
		return vk.True
	}
	return vk.False
}
