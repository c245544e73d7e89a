package math

import (
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/exp/constraints"
)

// Clamp returns the value `f` clamped to the range [low, high].
// It works for any numeric type (integers and floats).
func Clamp[T constraints.Ordered](f, low, high T) T {
	if f < low {
		return low
	}
	if f > high {
		return high
	}
	return f
}

// VulkanPerspective is a right handed perspective projection with the Y axis
// flipped for Vulkan clip space.
func VulkanPerspective(fovyDegrees, aspect, near, far float32) mgl32.Mat4 {
	proj := mgl32.Perspective(mgl32.DegToRad(fovyDegrees), aspect, near, far)
	proj.Set(1, 1, -proj.At(1, 1))
	return proj
}
