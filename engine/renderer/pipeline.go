package renderer

import (
	"slices"

	"github.com/pkg/errors"
	"github.com/spaghettifunk/forge/engine/containers"
	"github.com/spaghettifunk/forge/engine/renderer/gpu"
)

// PipelineBuilder collects the fixed function state of a graphics pipeline.
// It is a plain value: copy it to derive variants, or reassign a fragment and
// Build again. Build never retains the builder's slices.
type PipelineBuilder struct {
	ShaderStages         []gpu.PipelineShaderStage
	VertexInput          gpu.VertexInputState
	InputAssembly        gpu.InputAssemblyState
	Viewport             gpu.Viewport
	Scissor              gpu.Rect2D
	Rasterizer           gpu.RasterizationState
	ColorBlendAttachment gpu.ColorBlendAttachment
	Multisampling        gpu.MultisampleState
	PipelineLayout       gpu.PipelineLayout
	DepthStencil         gpu.DepthStencilState
	DynamicStates        []gpu.DynamicState
}

// NewPipelineBuilder returns a builder for opaque, filled, unculled triangle
// lists with a single sample, depth testing off and dynamic viewport and
// scissor.
func NewPipelineBuilder() PipelineBuilder {
	return PipelineBuilder{
		InputAssembly:        InputAssemblyCreateInfo(gpu.PrimitiveTopologyTriangleList),
		Rasterizer:           RasterizationStateCreateInfo(gpu.PolygonModeFill),
		Multisampling:        MultisamplingStateCreateInfo(),
		ColorBlendAttachment: ColorBlendAttachmentState(),
		DepthStencil:         DepthStencilCreateInfo(false, false, gpu.CompareOpAlways),
		DynamicStates:        []gpu.DynamicState{gpu.DynamicStateViewport, gpu.DynamicStateScissor},
	}
}

func (b *PipelineBuilder) SetShaders(stages ...gpu.PipelineShaderStage) *PipelineBuilder {
	b.ShaderStages = slices.Clone(stages)
	return b
}

func (b *PipelineBuilder) SetVertexInput(description VertexInputDescription) *PipelineBuilder {
	b.VertexInput = gpu.VertexInputState{
		Bindings:   slices.Clone(description.Bindings),
		Attributes: slices.Clone(description.Attributes),
	}
	return b
}

func (b *PipelineBuilder) SetInputTopology(topology gpu.PrimitiveTopology) *PipelineBuilder {
	b.InputAssembly = InputAssemblyCreateInfo(topology)
	return b
}

// SetExtent sets a viewport and scissor covering extent.
func (b *PipelineBuilder) SetExtent(extent gpu.Extent2D) *PipelineBuilder {
	b.Viewport = FullViewport(extent)
	b.Scissor = gpu.Rect2D{Extent: extent}
	return b
}

func (b *PipelineBuilder) SetPolygonMode(mode gpu.PolygonMode) *PipelineBuilder {
	b.Rasterizer.PolygonMode = mode
	return b
}

func (b *PipelineBuilder) SetCullMode(mode gpu.CullModeFlags, face gpu.FrontFace) *PipelineBuilder {
	b.Rasterizer.CullMode = mode
	b.Rasterizer.FrontFace = face
	return b
}

func (b *PipelineBuilder) SetLayout(layout gpu.PipelineLayout) *PipelineBuilder {
	b.PipelineLayout = layout
	return b
}

func (b *PipelineBuilder) EnableDepthTest(depthWrite bool, op gpu.CompareOp) *PipelineBuilder {
	b.DepthStencil = DepthStencilCreateInfo(true, depthWrite, op)
	return b
}

func (b *PipelineBuilder) DisableDepthTest() *PipelineBuilder {
	b.DepthStencil = DepthStencilCreateInfo(false, false, gpu.CompareOpAlways)
	return b
}

func (b *PipelineBuilder) EnableAlphaBlending() *PipelineBuilder {
	b.ColorBlendAttachment.BlendEnable = true
	b.ColorBlendAttachment.SrcColor = gpu.BlendFactorSrcAlpha
	b.ColorBlendAttachment.DstColor = gpu.BlendFactorOneMinusSrcAlpha
	b.ColorBlendAttachment.ColorOp = gpu.BlendOpAdd
	b.ColorBlendAttachment.SrcAlpha = gpu.BlendFactorOne
	b.ColorBlendAttachment.DstAlpha = gpu.BlendFactorZero
	b.ColorBlendAttachment.AlphaOp = gpu.BlendOpAdd
	return b
}

func (b *PipelineBuilder) SetDynamicStates(states ...gpu.DynamicState) *PipelineBuilder {
	b.DynamicStates = slices.Clone(states)
	return b
}

// Descriptor assembles the complete pipeline description from a snapshot of
// the builder.
func (b PipelineBuilder) Descriptor(pass gpu.RenderPass) gpu.GraphicsPipelineInfo {
	return gpu.GraphicsPipelineInfo{
		Stages: slices.Clone(b.ShaderStages),
		VertexInput: gpu.VertexInputState{
			Bindings:   slices.Clone(b.VertexInput.Bindings),
			Attributes: slices.Clone(b.VertexInput.Attributes),
		},
		InputAssembly: b.InputAssembly,
		Viewport: gpu.ViewportState{
			Viewports: []gpu.Viewport{b.Viewport},
			Scissors:  []gpu.Rect2D{b.Scissor},
		},
		Rasterization: b.Rasterizer,
		Multisample:   b.Multisampling,
		// No transparent objects yet, a single attachment without logic ops.
		ColorBlend: gpu.ColorBlendState{
			Attachments: []gpu.ColorBlendAttachment{b.ColorBlendAttachment},
		},
		DepthStencil:  b.DepthStencil,
		DynamicStates: slices.Clone(b.DynamicStates),
		Layout:        b.PipelineLayout,
		RenderPass:    pass,
	}
}

// Build creates a pipeline for subpass 0 of pass. The caller owns the
// returned pipeline and registers its teardown.
func (b PipelineBuilder) Build(sub gpu.Substrate, device gpu.Device, pass gpu.RenderPass) (gpu.Pipeline, error) {
	switch {
	case len(b.ShaderStages) == 0:
		return 0, ErrNoShaderStages
	case b.PipelineLayout == 0:
		return 0, ErrNoPipelineLayout
	case pass == 0:
		return 0, ErrNoRenderPass
	}

	pipeline, err := sub.CreateGraphicsPipeline(device, b.Descriptor(pass))
	if err != nil {
		return 0, errors.Wrap(err, "failed to create graphics pipeline")
	}
	return pipeline, nil
}

// CreatePipelineLayout creates a layout without descriptor sets and registers
// its teardown.
func CreatePipelineLayout(ctx *Context, pushConstants []gpu.PushConstantRange, dq *containers.DeletionQueue) (gpu.PipelineLayout, error) {
	sub, device := ctx.Sub, ctx.Device
	layout, err := sub.CreatePipelineLayout(device, gpu.PipelineLayoutInfo{
		PushConstantRanges: slices.Clone(pushConstants),
	})
	if err != nil {
		return 0, errors.Wrap(err, "failed to create pipeline layout")
	}
	dq.Push(func() { sub.DestroyPipelineLayout(device, layout) })
	return layout, nil
}

func ShaderStageCreateInfo(stage gpu.ShaderStageFlags, module gpu.ShaderModule) gpu.PipelineShaderStage {
	return gpu.PipelineShaderStage{
		Stage:      stage,
		Module:     module,
		EntryPoint: "main",
	}
}

func InputAssemblyCreateInfo(topology gpu.PrimitiveTopology) gpu.InputAssemblyState {
	return gpu.InputAssemblyState{Topology: topology}
}

func RasterizationStateCreateInfo(mode gpu.PolygonMode) gpu.RasterizationState {
	return gpu.RasterizationState{
		PolygonMode: mode,
		LineWidth:   1.0,
		CullMode:    gpu.CullModeNone,
		FrontFace:   gpu.FrontFaceClockwise,
	}
}

func MultisamplingStateCreateInfo() gpu.MultisampleState {
	return gpu.MultisampleState{
		Samples:          gpu.SampleCount1,
		MinSampleShading: 1.0,
	}
}

func ColorBlendAttachmentState() gpu.ColorBlendAttachment {
	return gpu.ColorBlendAttachment{WriteMask: gpu.ColorComponentAll}
}

func DepthStencilCreateInfo(depthTest, depthWrite bool, op gpu.CompareOp) gpu.DepthStencilState {
	if !depthTest {
		op = gpu.CompareOpAlways
	}
	return gpu.DepthStencilState{
		DepthTest:      depthTest,
		DepthWrite:     depthWrite,
		CompareOp:      op,
		MinDepthBounds: 0.0,
		MaxDepthBounds: 1.0,
	}
}

func FullViewport(extent gpu.Extent2D) gpu.Viewport {
	return gpu.Viewport{
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0.0,
		MaxDepth: 1.0,
	}
}
