package renderer

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/forge/engine/core"
	"github.com/spaghettifunk/forge/engine/renderer/gpu"
)

// Material is a pipeline together with the layout its push constants use.
type Material struct {
	Name     string
	Pipeline gpu.Pipeline
	Layout   gpu.PipelineLayout
	// PushConstantStages is zero when the layout declares no push constants.
	PushConstantStages gpu.ShaderStageFlags
}

type RenderObject struct {
	Mesh      *Mesh
	Material  *Material
	Transform mgl32.Mat4
}

// Scene owns the named materials and meshes and the list of objects drawn
// every frame.
type Scene struct {
	materials   map[string]*Material
	meshes      map[string]*Mesh
	Renderables []RenderObject
}

func NewScene() *Scene {
	return &Scene{
		materials: make(map[string]*Material),
		meshes:    make(map[string]*Mesh),
	}
}

func (s *Scene) CreateMaterial(name string, pipeline gpu.Pipeline, layout gpu.PipelineLayout, pushStages gpu.ShaderStageFlags) *Material {
	if _, ok := s.materials[name]; ok {
		core.LogWarn("Material %s already exists, replacing it.", name)
	}
	mat := &Material{
		Name:               name,
		Pipeline:           pipeline,
		Layout:             layout,
		PushConstantStages: pushStages,
	}
	s.materials[name] = mat
	return mat
}

// Material returns nil when no material has that name.
func (s *Scene) Material(name string) *Material {
	return s.materials[name]
}

func (s *Scene) AddMesh(mesh *Mesh) {
	if _, ok := s.meshes[mesh.Name]; ok {
		core.LogWarn("Mesh %s already exists, replacing it.", mesh.Name)
	}
	s.meshes[mesh.Name] = mesh
}

// Mesh returns nil when no mesh has that name.
func (s *Scene) Mesh(name string) *Mesh {
	return s.meshes[name]
}

func (s *Scene) Add(objects ...RenderObject) {
	s.Renderables = append(s.Renderables, objects...)
}
