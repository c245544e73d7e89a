package renderer

import (
	"github.com/pkg/errors"
	"github.com/spaghettifunk/forge/engine/containers"
	"github.com/spaghettifunk/forge/engine/core"
	"github.com/spaghettifunk/forge/engine/renderer/gpu"
)

// ShaderLoader resolves a shader name to SPIR-V words.
type ShaderLoader interface {
	LoadShader(name string) ([]uint32, error)
}

type ShaderSource struct {
	Stage gpu.ShaderStageFlags
	Name  string
}

func LoadShaderModule(ctx *Context, loader ShaderLoader, name string) (gpu.ShaderModule, error) {
	code, err := loader.LoadShader(name)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to load shader %s", name)
	}
	module, err := ctx.Sub.CreateShaderModule(ctx.Device, code)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to create shader module %s", name)
	}
	return module, nil
}

// BuildShaderPipeline loads one module per source, builds a pipeline from the
// builder with those stages and destroys the modules again. The pipeline is
// registered with dq only once it exists; a failed shader load never reaches
// pipeline creation.
func BuildShaderPipeline(ctx *Context, loader ShaderLoader, builder PipelineBuilder, pass gpu.RenderPass, sources []ShaderSource, dq *containers.DeletionQueue) (gpu.Pipeline, error) {
	sub, device := ctx.Sub, ctx.Device

	var modules []gpu.ShaderModule
	defer func() {
		for _, m := range modules {
			sub.DestroyShaderModule(device, m)
		}
	}()

	stages := make([]gpu.PipelineShaderStage, 0, len(sources))
	for _, src := range sources {
		module, err := LoadShaderModule(ctx, loader, src.Name)
		if err != nil {
			core.LogError("Error when building the %s shader module %s: %v", src.Stage, src.Name, err)
			return 0, err
		}
		modules = append(modules, module)
		stages = append(stages, ShaderStageCreateInfo(src.Stage, module))
		core.LogDebug("%s shader %s successfully loaded", src.Stage, src.Name)
	}

	builder.SetShaders(stages...)
	pipeline, err := builder.Build(sub, device, pass)
	if err != nil {
		return 0, err
	}
	dq.Push(func() { sub.DestroyPipeline(device, pipeline) })
	return pipeline, nil
}
