package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/forge/engine/renderer/gpu"
)

func TestResultErrorSentinels(t *testing.T) {
	tests := []struct {
		result vk.Result
		want   error
	}{
		{vk.ErrorOutOfDate, gpu.ErrOutOfDate},
		{vk.Suboptimal, gpu.ErrSuboptimal},
		{vk.ErrorDeviceLost, gpu.ErrDeviceLost},
		{vk.ErrorOutOfDeviceMemory, gpu.ErrOutOfMemory},
		{vk.ErrorLayerNotPresent, gpu.ErrUnsupported},
		{vk.Timeout, gpu.ErrTimeout},
		{vk.Result(-12345), gpu.ErrFailed},
	}
	for _, tt := range tests {
		err := resultError("vkTest", tt.result)
		if !errors.Is(err, tt.want) {
			t.Fatalf("expected %v for result %d; got %v", tt.want, tt.result, err)
		}
		var re *gpu.ResultError
		if !errors.As(err, &re) || re.Code != int32(tt.result) || re.Op != "vkTest" {
			t.Fatalf("expected a ResultError carrying code %d; got %#v", tt.result, err)
		}
	}
	if err := resultError("vkTest", vk.Success); err != nil {
		t.Fatalf("expected nil for success; got %v", err)
	}
}

func TestVulkanResultString(t *testing.T) {
	if got := VulkanResultString(vk.ErrorDeviceLost, false); got != "VK_ERROR_DEVICE_LOST" {
		t.Fatalf("expected VK_ERROR_DEVICE_LOST; got %s", got)
	}
	if got := VulkanResultString(vk.Result(-12345), true); got != "VK_ERROR_UNKNOWN" {
		t.Fatalf("expected VK_ERROR_UNKNOWN; got %s", got)
	}
}

func TestVulkanSafeStrings(t *testing.T) {
	in := []string{"VK_KHR_surface", "done\x00", ""}
	out := VulkanSafeStrings(in)
	want := []string{"VK_KHR_surface\x00", "done\x00", "\x00"}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("expected %q; got %q", want[i], out[i])
		}
	}
	if in[0] != "VK_KHR_surface" {
		t.Fatalf("expected the input to be left untouched; got %q", in[0])
	}
}

func TestRegistryHandlesAreNeverReused(t *testing.T) {
	var next uint64
	fences := newRegistry[int](&next)
	semaphores := newRegistry[string](&next)

	a := fences.add(1)
	b := semaphores.add("b")
	if a == b || a == 0 || b == 0 {
		t.Fatalf("expected distinct non-null handles; got %d and %d", a, b)
	}
	if _, ok := fences.remove(a); !ok {
		t.Fatalf("expected handle %d to be registered", a)
	}
	if _, ok := fences.remove(a); ok {
		t.Fatalf("expected a second remove of %d to fail", a)
	}
	if c := fences.add(3); c == a {
		t.Fatalf("expected a fresh handle; got the released %d again", c)
	}
	if got := semaphores.get(b); got != "b" {
		t.Fatalf("expected b; got %q", got)
	}
	if fences.len() != 1 {
		t.Fatalf("expected 1 live fence; got %d", fences.len())
	}
}
