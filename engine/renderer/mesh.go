package renderer

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/forge/engine/containers"
	"github.com/spaghettifunk/forge/engine/core"
	"github.com/spaghettifunk/forge/engine/renderer/gpu"
)

type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	Color    mgl32.Vec3
}

type VertexInputDescription struct {
	Bindings   []gpu.VertexBinding
	Attributes []gpu.VertexAttribute
}

// VertexDescription describes Vertex as a single per-vertex binding with
// position, normal and color at locations 0, 1 and 2.
func VertexDescription() VertexInputDescription {
	var v Vertex
	return VertexInputDescription{
		Bindings: []gpu.VertexBinding{
			{Binding: 0, Stride: uint32(unsafe.Sizeof(v)), InputRate: gpu.VertexInputRateVertex},
		},
		Attributes: []gpu.VertexAttribute{
			{Location: 0, Binding: 0, Format: gpu.FormatR32G32B32Sfloat, Offset: uint32(unsafe.Offsetof(v.Position))},
			{Location: 1, Binding: 0, Format: gpu.FormatR32G32B32Sfloat, Offset: uint32(unsafe.Offsetof(v.Normal))},
			{Location: 2, Binding: 0, Format: gpu.FormatR32G32B32Sfloat, Offset: uint32(unsafe.Offsetof(v.Color))},
		},
	}
}

type Mesh struct {
	ID           uuid.UUID
	Name         string
	Vertices     []Vertex
	VertexBuffer *AllocatedBuffer
}

// VertexBytes views the vertex slice as raw bytes without copying.
func (m *Mesh) VertexBytes() []byte {
	if len(m.Vertices) == 0 {
		return nil
	}
	size := len(m.Vertices) * int(unsafe.Sizeof(Vertex{}))
	return unsafe.Slice((*byte)(unsafe.Pointer(&m.Vertices[0])), size)
}

func (m *Mesh) VertexCount() uint32 {
	return uint32(len(m.Vertices))
}

// UploadMesh copies the vertices into a new host visible vertex buffer and
// registers the buffer teardown with dq.
func UploadMesh(alloc *Allocator, mesh *Mesh, dq *containers.DeletionQueue) error {
	data := mesh.VertexBytes()
	if len(data) == 0 {
		return errors.Wrapf(ErrEmptyMesh, "mesh %s", mesh.Name)
	}

	buffer, err := alloc.CreateBuffer(uint64(len(data)), gpu.BufferUsageVertexBuffer, MemoryCPUToGPU)
	if err != nil {
		return errors.Wrapf(err, "failed to allocate vertex buffer for mesh %s", mesh.Name)
	}
	dq.Push(func() { alloc.DestroyBuffer(buffer) })

	mapped, err := alloc.Map(buffer.Allocation)
	if err != nil {
		return errors.Wrapf(err, "failed to upload mesh %s", mesh.Name)
	}
	copy(mapped, data)
	alloc.Unmap(buffer.Allocation)

	if mesh.ID == uuid.Nil {
		mesh.ID = uuid.New()
	}
	mesh.VertexBuffer = buffer
	core.LogDebug("Mesh %s (%s) uploaded: %d vertices, %d bytes.", mesh.Name, mesh.ID, len(mesh.Vertices), len(data))
	return nil
}

// MeshPushConstants is pushed to the vertex stage before every draw.
type MeshPushConstants struct {
	Data         mgl32.Vec4
	RenderMatrix mgl32.Mat4
}

// MeshPushConstantsSize is the byte size of MeshPushConstants.
const MeshPushConstantsSize = uint32(unsafe.Sizeof(MeshPushConstants{}))

// Bytes views the constants as raw bytes. The slice aliases pc.
func (pc *MeshPushConstants) Bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(pc)), MeshPushConstantsSize)
}
