package loaders

import "path/filepath"

type ResourceType int

const (
	ResourceTypeNone ResourceType = iota
	// Raw file contents.
	ResourceTypeBinary
	// Compiled SPIR-V module.
	ResourceTypeShader
	// GLSL source compiled by the build tasks.
	ResourceTypeShaderSource
	// Wavefront OBJ mesh.
	ResourceTypeModel
)

func (t ResourceType) String() string {
	switch t {
	case ResourceTypeBinary:
		return "binary"
	case ResourceTypeShader:
		return "shader"
	case ResourceTypeShaderSource:
		return "shader source"
	case ResourceTypeModel:
		return "model"
	}
	return "none"
}

// Resource is what every loader produces. Data holds the loader specific
// payload.
type Resource struct {
	Name     string
	FullPath string
	DataSize uint64
	Type     ResourceType
	Data     interface{}
}

// DetermineResourceType maps a file to the loader handling it.
func DetermineResourceType(path string) ResourceType {
	switch filepath.Ext(path) {
	case ".spv":
		return ResourceTypeShader
	case ".vert", ".frag":
		return ResourceTypeShaderSource
	case ".obj":
		return ResourceTypeModel
	case ".bin":
		return ResourceTypeBinary
	default:
		return ResourceTypeNone
	}
}
