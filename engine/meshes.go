package engine

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/forge/engine/assets/loaders"
	"github.com/spaghettifunk/forge/engine/renderer"
)

const (
	TriangleMesh = "triangle"
	MonkeyMesh   = "monkey"
)

// newTriangleMesh is a single green triangle in the XY plane.
func newTriangleMesh() *renderer.Mesh {
	green := mgl32.Vec3{0, 1, 0}
	return &renderer.Mesh{
		Name: TriangleMesh,
		Vertices: []renderer.Vertex{
			{Position: mgl32.Vec3{1, 1, 0}, Color: green},
			{Position: mgl32.Vec3{-1, 1, 0}, Color: green},
			{Position: mgl32.Vec3{0, -1, 0}, Color: green},
		},
	}
}

func meshFromModel(name string, model *loaders.Model) *renderer.Mesh {
	mesh := &renderer.Mesh{
		Name:     name,
		Vertices: make([]renderer.Vertex, len(model.Vertices)),
	}
	for i, v := range model.Vertices {
		mesh.Vertices[i] = renderer.Vertex(v)
	}
	return mesh
}
