package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/forge/engine/core"
	"github.com/spaghettifunk/forge/engine/renderer/gpu"
)

func (b *Backend) CreateRenderPass(device gpu.Device, info gpu.RenderPassInfo) (gpu.RenderPass, error) {
	attachments := make([]vk.AttachmentDescription, len(info.Attachments))
	for i, a := range info.Attachments {
		attachments[i] = vk.AttachmentDescription{
			Format:         vk.Format(a.Format),
			Samples:        vk.SampleCountFlagBits(a.Samples),
			LoadOp:         vk.AttachmentLoadOp(a.LoadOp),
			StoreOp:        vk.AttachmentStoreOp(a.StoreOp),
			StencilLoadOp:  vk.AttachmentLoadOp(a.StencilLoadOp),
			StencilStoreOp: vk.AttachmentStoreOp(a.StencilStoreOp),
			InitialLayout:  vk.ImageLayout(a.InitialLayout),
			FinalLayout:    vk.ImageLayout(a.FinalLayout),
		}
	}

	subpasses := make([]vk.SubpassDescription, len(info.Subpasses))
	for i, s := range info.Subpasses {
		colorRefs := make([]vk.AttachmentReference, len(s.ColorAttachments))
		for j, ref := range s.ColorAttachments {
			colorRefs[j] = vk.AttachmentReference{Attachment: ref.Attachment, Layout: vk.ImageLayout(ref.Layout)}
		}
		subpasses[i] = vk.SubpassDescription{
			PipelineBindPoint:    vk.PipelineBindPointGraphics,
			ColorAttachmentCount: uint32(len(colorRefs)),
			PColorAttachments:    colorRefs,
		}
		// Depth stencil data.
		if s.DepthStencilAttachment != nil {
			subpasses[i].PDepthStencilAttachment = &vk.AttachmentReference{
				Attachment: s.DepthStencilAttachment.Attachment,
				Layout:     vk.ImageLayout(s.DepthStencilAttachment.Layout),
			}
		}
	}

	dependencies := make([]vk.SubpassDependency, len(info.Dependencies))
	for i, d := range info.Dependencies {
		dependencies[i] = vk.SubpassDependency{
			SrcSubpass:    d.SrcSubpass,
			DstSubpass:    d.DstSubpass,
			SrcStageMask:  vk.PipelineStageFlags(d.SrcStageMask),
			DstStageMask:  vk.PipelineStageFlags(d.DstStageMask),
			SrcAccessMask: vk.AccessFlags(d.SrcAccessMask),
			DstAccessMask: vk.AccessFlags(d.DstAccessMask),
		}
	}

	renderpassCreateInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    uint32(len(subpasses)),
		PSubpasses:      subpasses,
		DependencyCount: uint32(len(dependencies)),
		PDependencies:   dependencies,
	}

	var pass vk.RenderPass
	if res := vk.CreateRenderPass(b.devices.get(uint64(device)), &renderpassCreateInfo, nil, &pass); res != vk.Success {
		return 0, resultError("vkCreateRenderPass", res)
	}
	return gpu.RenderPass(b.passes.add(pass)), nil
}

func (b *Backend) DestroyRenderPass(device gpu.Device, pass gpu.RenderPass) {
	if p, ok := b.passes.remove(uint64(pass)); ok {
		vk.DestroyRenderPass(b.devices.get(uint64(device)), p, nil)
	}
}

func (b *Backend) CreateFramebuffer(device gpu.Device, info gpu.FramebufferInfo) (gpu.Framebuffer, error) {
	attachments := make([]vk.ImageView, len(info.Attachments))
	for i, v := range info.Attachments {
		attachments[i] = b.views.get(uint64(v))
	}
	framebufferCreateInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      b.passes.get(uint64(info.RenderPass)),
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		Width:           info.Width,
		Height:          info.Height,
		Layers:          info.Layers,
	}
	var framebuffer vk.Framebuffer
	if res := vk.CreateFramebuffer(b.devices.get(uint64(device)), &framebufferCreateInfo, nil, &framebuffer); res != vk.Success {
		return 0, resultError("vkCreateFramebuffer", res)
	}
	return gpu.Framebuffer(b.framebuffers.add(framebuffer)), nil
}

func (b *Backend) DestroyFramebuffer(device gpu.Device, framebuffer gpu.Framebuffer) {
	if fb, ok := b.framebuffers.remove(uint64(framebuffer)); ok {
		vk.DestroyFramebuffer(b.devices.get(uint64(device)), fb, nil)
	}
}

func (b *Backend) CreateShaderModule(device gpu.Device, code []uint32) (gpu.ShaderModule, error) {
	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(code) * 4),
		PCode:    code,
	}
	var module vk.ShaderModule
	if res := vk.CreateShaderModule(b.devices.get(uint64(device)), &createInfo, nil, &module); res != vk.Success {
		return 0, resultError("vkCreateShaderModule", res)
	}
	return gpu.ShaderModule(b.modules.add(module)), nil
}

func (b *Backend) DestroyShaderModule(device gpu.Device, module gpu.ShaderModule) {
	if m, ok := b.modules.remove(uint64(module)); ok {
		vk.DestroyShaderModule(b.devices.get(uint64(device)), m, nil)
	}
}

func (b *Backend) CreatePipelineLayout(device gpu.Device, info gpu.PipelineLayoutInfo) (gpu.PipelineLayout, error) {
	pipelineLayoutCreateInfo := vk.PipelineLayoutCreateInfo{
		SType: vk.StructureTypePipelineLayoutCreateInfo,
	}

	// Push constants
	if len(info.PushConstantRanges) > 0 {
		ranges := make([]vk.PushConstantRange, len(info.PushConstantRanges))
		for i, r := range info.PushConstantRanges {
			ranges[i] = vk.PushConstantRange{
				StageFlags: vk.ShaderStageFlags(r.Stages),
				Offset:     r.Offset,
				Size:       r.Size,
			}
		}
		pipelineLayoutCreateInfo.PushConstantRangeCount = uint32(len(ranges))
		pipelineLayoutCreateInfo.PPushConstantRanges = ranges
	}

	var layout vk.PipelineLayout
	if res := vk.CreatePipelineLayout(b.devices.get(uint64(device)), &pipelineLayoutCreateInfo, nil, &layout); res != vk.Success {
		return 0, resultError("vkCreatePipelineLayout", res)
	}
	return gpu.PipelineLayout(b.layouts.add(layout)), nil
}

func (b *Backend) DestroyPipelineLayout(device gpu.Device, layout gpu.PipelineLayout) {
	if l, ok := b.layouts.remove(uint64(layout)); ok {
		vk.DestroyPipelineLayout(b.devices.get(uint64(device)), l, nil)
	}
}

func (b *Backend) CreateGraphicsPipeline(device gpu.Device, info gpu.GraphicsPipelineInfo) (gpu.Pipeline, error) {
	stages := make([]vk.PipelineShaderStageCreateInfo, len(info.Stages))
	for i, s := range info.Stages {
		stages[i] = vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFlagBits(s.Stage),
			Module: b.modules.get(uint64(s.Module)),
			PName:  VulkanSafeString(s.EntryPoint),
		}
	}

	// Vertex input
	bindings := make([]vk.VertexInputBindingDescription, len(info.VertexInput.Bindings))
	for i, vb := range info.VertexInput.Bindings {
		bindings[i] = vk.VertexInputBindingDescription{
			Binding:   vb.Binding,
			Stride:    vb.Stride,
			InputRate: vk.VertexInputRate(vb.InputRate),
		}
	}
	attributes := make([]vk.VertexInputAttributeDescription, len(info.VertexInput.Attributes))
	for i, a := range info.VertexInput.Attributes {
		attributes[i] = vk.VertexInputAttributeDescription{
			Location: a.Location,
			Binding:  a.Binding,
			Format:   vk.Format(a.Format),
			Offset:   a.Offset,
		}
	}
	vertexInputInfo := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   uint32(len(bindings)),
		PVertexBindingDescriptions:      bindings,
		VertexAttributeDescriptionCount: uint32(len(attributes)),
		PVertexAttributeDescriptions:    attributes,
	}

	// Input assembly
	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               vk.PrimitiveTopology(info.InputAssembly.Topology),
		PrimitiveRestartEnable: vkBool(info.InputAssembly.PrimitiveRestart),
	}

	// Viewport state. Dynamic viewports still count towards the state.
	viewports := make([]vk.Viewport, len(info.Viewport.Viewports))
	for i, v := range info.Viewport.Viewports {
		viewports[i] = toViewport(v)
	}
	scissors := make([]vk.Rect2D, len(info.Viewport.Scissors))
	for i, s := range info.Viewport.Scissors {
		scissors[i] = toRect(s)
	}
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: uint32(max(len(viewports), 1)),
		PViewports:    viewports,
		ScissorCount:  uint32(max(len(scissors), 1)),
		PScissors:     scissors,
	}

	// Rasterizer
	r := info.Rasterization
	rasterizerCreateInfo := vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vkBool(r.DepthClamp),
		RasterizerDiscardEnable: vkBool(r.RasterizerDiscard),
		PolygonMode:             vk.PolygonMode(r.PolygonMode),
		CullMode:                vk.CullModeFlags(r.CullMode),
		FrontFace:               vk.FrontFace(r.FrontFace),
		DepthBiasEnable:         vkBool(r.DepthBias),
		LineWidth:               r.LineWidth,
	}

	// Multisampling.
	m := info.Multisample
	multisamplingCreateInfo := vk.PipelineMultisampleStateCreateInfo{
		SType:                 vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples:  vk.SampleCountFlagBits(m.Samples),
		SampleShadingEnable:   vkBool(m.SampleShading),
		MinSampleShading:      m.MinSampleShading,
		AlphaToCoverageEnable: vkBool(m.AlphaToCoverage),
		AlphaToOneEnable:      vkBool(m.AlphaToOne),
	}

	// Depth and stencil testing.
	ds := info.DepthStencil
	depthStencil := vk.PipelineDepthStencilStateCreateInfo{
		SType:                 vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:       vkBool(ds.DepthTest),
		DepthWriteEnable:      vkBool(ds.DepthWrite),
		DepthCompareOp:        vk.CompareOp(ds.CompareOp),
		DepthBoundsTestEnable: vkBool(ds.DepthBoundsTest),
		StencilTestEnable:     vkBool(ds.StencilTest),
		MinDepthBounds:        ds.MinDepthBounds,
		MaxDepthBounds:        ds.MaxDepthBounds,
	}

	blendAttachments := make([]vk.PipelineColorBlendAttachmentState, len(info.ColorBlend.Attachments))
	for i, a := range info.ColorBlend.Attachments {
		blendAttachments[i] = vk.PipelineColorBlendAttachmentState{
			BlendEnable:         vkBool(a.BlendEnable),
			SrcColorBlendFactor: vk.BlendFactor(a.SrcColor),
			DstColorBlendFactor: vk.BlendFactor(a.DstColor),
			ColorBlendOp:        vk.BlendOp(a.ColorOp),
			SrcAlphaBlendFactor: vk.BlendFactor(a.SrcAlpha),
			DstAlphaBlendFactor: vk.BlendFactor(a.DstAlpha),
			AlphaBlendOp:        vk.BlendOp(a.AlphaOp),
			ColorWriteMask:      vk.ColorComponentFlags(a.WriteMask),
		}
	}
	colorBlendStateCreateInfo := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vkBool(info.ColorBlend.LogicOpEnable),
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: uint32(len(blendAttachments)),
		PAttachments:    blendAttachments,
	}

	pipelineCreateInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &vertexInputInfo,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizerCreateInfo,
		PMultisampleState:   &multisamplingCreateInfo,
		PDepthStencilState:  &depthStencil,
		PColorBlendState:    &colorBlendStateCreateInfo,
		Layout:              b.layouts.get(uint64(info.Layout)),
		RenderPass:          b.passes.get(uint64(info.RenderPass)),
		Subpass:             info.Subpass,
		BasePipelineHandle:  vk.NullPipeline,
		BasePipelineIndex:   -1,
	}

	// Dynamic state
	if len(info.DynamicStates) > 0 {
		dynamicStates := make([]vk.DynamicState, len(info.DynamicStates))
		for i, s := range info.DynamicStates {
			dynamicStates[i] = vk.DynamicState(s)
		}
		pipelineCreateInfo.PDynamicState = &vk.PipelineDynamicStateCreateInfo{
			SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
			DynamicStateCount: uint32(len(dynamicStates)),
			PDynamicStates:    dynamicStates,
		}
	}

	pipelines := make([]vk.Pipeline, 1)
	res := vk.CreateGraphicsPipelines(
		b.devices.get(uint64(device)),
		vk.NullPipelineCache,
		1,
		[]vk.GraphicsPipelineCreateInfo{pipelineCreateInfo},
		nil,
		pipelines)
	if res != vk.Success {
		return 0, resultError("vkCreateGraphicsPipelines", res)
	}

	core.LogDebug("Graphics pipeline created!")
	return gpu.Pipeline(b.pipelines.add(pipelines[0])), nil
}

func (b *Backend) DestroyPipeline(device gpu.Device, pipeline gpu.Pipeline) {
	if p, ok := b.pipelines.remove(uint64(pipeline)); ok {
		vk.DestroyPipeline(b.devices.get(uint64(device)), p, nil)
	}
}

func toViewport(v gpu.Viewport) vk.Viewport {
	return vk.Viewport{
		X:        v.X,
		Y:        v.Y,
		Width:    v.Width,
		Height:   v.Height,
		MinDepth: v.MinDepth,
		MaxDepth: v.MaxDepth,
	}
}

func toRect(r gpu.Rect2D) vk.Rect2D {
	return vk.Rect2D{
		Offset: vk.Offset2D{X: r.Offset.X, Y: r.Offset.Y},
		Extent: vk.Extent2D{Width: r.Extent.Width, Height: r.Extent.Height},
	}
}
