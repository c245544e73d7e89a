package components

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/forge/engine/math"
)

// Camera holds a position and euler rotation (pitch, yaw, roll in radians)
// and lazily rebuilds its view matrix when either changes.
type Camera struct {
	position      mgl32.Vec3
	eulerRotation mgl32.Vec3
	isDirty       bool
	viewMatrix    mgl32.Mat4

	FovY float32
	Near float32
	Far  float32
}

func NewCamera(position mgl32.Vec3) *Camera {
	return &Camera{
		position: position,
		isDirty:  true,
		FovY:     70,
		Near:     0.1,
		Far:      200,
	}
}

func (c *Camera) Position() mgl32.Vec3 {
	return c.position
}

func (c *Camera) SetPosition(position mgl32.Vec3) {
	c.position = position
	c.isDirty = true
}

func (c *Camera) SetRotation(euler mgl32.Vec3) {
	c.eulerRotation = euler
	c.isDirty = true
}

// View returns the inverse of the camera transform.
func (c *Camera) View() mgl32.Mat4 {
	if c.isDirty {
		rotation := mgl32.AnglesToQuat(c.eulerRotation[0], c.eulerRotation[1], c.eulerRotation[2], mgl32.XYZ).Mat4()
		translation := mgl32.Translate3D(c.position[0], c.position[1], c.position[2])
		c.viewMatrix = translation.Mul4(rotation).Inv()
		c.isDirty = false
	}
	return c.viewMatrix
}

func (c *Camera) Projection(aspect float32) mgl32.Mat4 {
	return math.VulkanPerspective(c.FovY, aspect, c.Near, c.Far)
}

func (c *Camera) ViewProjection(aspect float32) mgl32.Mat4 {
	return c.Projection(aspect).Mul4(c.View())
}
