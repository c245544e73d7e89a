package renderer

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/spaghettifunk/forge/engine/containers"
	"github.com/spaghettifunk/forge/engine/renderer/gpu"
	"github.com/spaghettifunk/forge/engine/renderer/gpu/gputest"
)

type pipelineFixture struct {
	fake   *gputest.Fake
	ctx    *Context
	dq     *containers.DeletionQueue
	pass   gpu.RenderPass
	layout gpu.PipelineLayout
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	fx := &pipelineFixture{fake: gputest.New(), dq: &containers.DeletionQueue{}}
	fx.ctx = newTestContext(t, fx.fake, fx.dq)

	var err error
	fx.pass, err = CreateRenderPass(fx.ctx, gpu.FormatB8G8R8A8Srgb, fx.ctx.DepthFormat, fx.dq)
	if err != nil {
		t.Fatalf("expected render pass; got %v", err)
	}
	fx.layout, err = CreatePipelineLayout(fx.ctx, []gpu.PushConstantRange{
		{Stages: gpu.ShaderStageVertex, Size: MeshPushConstantsSize},
	}, fx.dq)
	if err != nil {
		t.Fatalf("expected pipeline layout; got %v", err)
	}
	return fx
}

func (fx *pipelineFixture) module(t *testing.T, name string) gpu.ShaderModule {
	t.Helper()
	m, err := LoadShaderModule(fx.ctx, testShaders(), name)
	if err != nil {
		t.Fatalf("expected shader module %s; got %v", name, err)
	}
	fx.dq.Push(func() { fx.fake.DestroyShaderModule(fx.ctx.Device, m) })
	return m
}

func (fx *pipelineFixture) teardown(t *testing.T) {
	t.Helper()
	fx.dq.Flush()
	checkClean(t, fx.fake)
}

func TestPipelineBuilderVariants(t *testing.T) {
	fx := newPipelineFixture(t)
	vert := fx.module(t, "tri_mesh.vert")
	colored := fx.module(t, "colored_triangle.frag")
	red := fx.module(t, "triangle.frag")

	builder := NewPipelineBuilder()
	builder.SetVertexInput(VertexDescription()).
		SetLayout(fx.layout).
		EnableDepthTest(true, gpu.CompareOpLessOrEqual)

	builder.SetShaders(ShaderStageCreateInfo(gpu.ShaderStageVertex, vert), ShaderStageCreateInfo(gpu.ShaderStageFragment, colored))
	first, err := builder.Build(fx.fake, fx.ctx.Device, fx.pass)
	if err != nil {
		t.Fatalf("expected no error; got %v", err)
	}
	fx.dq.Push(func() { fx.fake.DestroyPipeline(fx.ctx.Device, first) })

	builder.SetShaders(ShaderStageCreateInfo(gpu.ShaderStageVertex, vert), ShaderStageCreateInfo(gpu.ShaderStageFragment, red))
	second, err := builder.Build(fx.fake, fx.ctx.Device, fx.pass)
	if err != nil {
		t.Fatalf("expected no error; got %v", err)
	}
	fx.dq.Push(func() { fx.fake.DestroyPipeline(fx.ctx.Device, second) })

	if first == second {
		t.Fatal("expected two distinct pipelines")
	}
	a, _ := fx.fake.PipelineInfo(first)
	b, _ := fx.fake.PipelineInfo(second)
	if a.Layout != b.Layout || a.RenderPass != b.RenderPass {
		t.Fatalf("expected shared layout and pass; got (%d, %d) and (%d, %d)", a.Layout, a.RenderPass, b.Layout, b.RenderPass)
	}
	if a.Stages[1].Module != colored || b.Stages[1].Module != red {
		t.Fatalf("expected fragment modules %d and %d; got %d and %d", colored, red, a.Stages[1].Module, b.Stages[1].Module)
	}
	if a.Stages[0].EntryPoint != "main" {
		t.Fatalf("expected entry point main; got %q", a.Stages[0].EntryPoint)
	}
	if !a.DepthStencil.DepthTest || !a.DepthStencil.DepthWrite || a.DepthStencil.CompareOp != gpu.CompareOpLessOrEqual {
		t.Fatalf("expected depth test with write and LESS_OR_EQUAL; got %+v", a.DepthStencil)
	}
	if len(a.VertexInput.Attributes) != 3 || a.VertexInput.Bindings[0].Stride != 36 {
		t.Fatalf("expected the vertex layout; got %+v", a.VertexInput)
	}
	fx.teardown(t)
}

func TestPipelineBuilderDescriptorIsSnapshot(t *testing.T) {
	builder := NewPipelineBuilder()
	builder.SetShaders(ShaderStageCreateInfo(gpu.ShaderStageVertex, 1))
	builder.SetLayout(2)

	info := builder.Descriptor(3)
	builder.SetCullMode(gpu.CullModeBack, gpu.FrontFaceCounterClockwise)
	builder.ShaderStages[0].Module = 9
	builder.DynamicStates[0] = gpu.DynamicStateLineWidth

	if info.Rasterization.CullMode != gpu.CullModeNone {
		t.Fatalf("expected cull mode none; got %v", info.Rasterization.CullMode)
	}
	if info.Stages[0].Module != 1 {
		t.Fatalf("expected module 1; got %d", info.Stages[0].Module)
	}
	if info.DynamicStates[0] != gpu.DynamicStateViewport {
		t.Fatalf("expected dynamic viewport; got %v", info.DynamicStates[0])
	}

	variant := builder
	variant.SetShaders(ShaderStageCreateInfo(gpu.ShaderStageFragment, 5))
	if builder.ShaderStages[0].Module != 9 {
		t.Fatalf("expected the original builder to keep its stages; got %+v", builder.ShaderStages)
	}
}

func TestPipelineBuilderDefaults(t *testing.T) {
	info := NewPipelineBuilder().Descriptor(1)
	if info.InputAssembly.Topology != gpu.PrimitiveTopologyTriangleList {
		t.Fatalf("expected triangle list; got %v", info.InputAssembly.Topology)
	}
	if info.Rasterization.PolygonMode != gpu.PolygonModeFill || info.Rasterization.LineWidth != 1 {
		t.Fatalf("expected filled polygons with line width 1; got %+v", info.Rasterization)
	}
	if info.Multisample.Samples != gpu.SampleCount1 {
		t.Fatalf("expected a single sample; got %v", info.Multisample.Samples)
	}
	if len(info.ColorBlend.Attachments) != 1 || info.ColorBlend.Attachments[0].BlendEnable {
		t.Fatalf("expected one opaque blend attachment; got %+v", info.ColorBlend.Attachments)
	}
	if info.ColorBlend.Attachments[0].WriteMask != gpu.ColorComponentAll {
		t.Fatalf("expected RGBA write mask; got %v", info.ColorBlend.Attachments[0].WriteMask)
	}
	if info.DepthStencil.DepthTest {
		t.Fatal("expected depth test disabled")
	}
}

func TestPipelineBuilderValidation(t *testing.T) {
	stage := ShaderStageCreateInfo(gpu.ShaderStageVertex, 1)
	specs := []struct {
		descr  string
		stages []gpu.PipelineShaderStage
		layout gpu.PipelineLayout
		pass   gpu.RenderPass
		exp    error
	}{
		{"no stages", nil, 1, 1, ErrNoShaderStages},
		{"no layout", []gpu.PipelineShaderStage{stage}, 0, 1, ErrNoPipelineLayout},
		{"no pass", []gpu.PipelineShaderStage{stage}, 1, 0, ErrNoRenderPass},
	}
	for specIndex, spec := range specs {
		fake := gputest.New()
		builder := NewPipelineBuilder()
		builder.SetShaders(spec.stages...).SetLayout(spec.layout)
		_, err := builder.Build(fake, 1, spec.pass)
		if err != spec.exp {
			t.Fatalf("[spec %d: %s] expected %v; got %v", specIndex, spec.descr, spec.exp, err)
		}
		if fake.Count("CreateGraphicsPipeline") != 0 {
			t.Fatalf("[spec %d: %s] expected no pipeline creation", specIndex, spec.descr)
		}
	}
}

func TestPipelineWithoutVertexStageFails(t *testing.T) {
	fx := newPipelineFixture(t)
	frag := fx.module(t, "colored_triangle.frag")

	builder := NewPipelineBuilder()
	builder.SetShaders(ShaderStageCreateInfo(gpu.ShaderStageFragment, frag)).SetLayout(fx.layout)
	_, err := builder.Build(fx.fake, fx.ctx.Device, fx.pass)
	if !errors.Is(err, gpu.ErrInvalidUsage) {
		t.Fatalf("expected ErrInvalidUsage; got %v", err)
	}
	fx.teardown(t)
}

func TestBuildShaderPipeline(t *testing.T) {
	fx := newPipelineFixture(t)
	before := fx.dq.Len()

	builder := NewPipelineBuilder()
	builder.SetVertexInput(VertexDescription()).SetLayout(fx.layout)
	pipeline, err := BuildShaderPipeline(fx.ctx, testShaders(), builder, fx.pass, []ShaderSource{
		{Stage: gpu.ShaderStageVertex, Name: "tri_mesh.vert"},
		{Stage: gpu.ShaderStageFragment, Name: "triangle.frag"},
	}, fx.dq)
	if err != nil {
		t.Fatalf("expected no error; got %v", err)
	}
	if !fx.fake.IsLive(uint64(pipeline)) {
		t.Fatal("expected a live pipeline")
	}
	if fx.fake.Count("DestroyShaderModule") != 2 {
		t.Fatalf("expected both shader modules destroyed after the build; got %d", fx.fake.Count("DestroyShaderModule"))
	}
	if fx.dq.Len() != before+1 {
		t.Fatalf("expected one new teardown entry; got %d", fx.dq.Len()-before)
	}
	fx.teardown(t)
}

func TestBuildShaderPipelineMissingShader(t *testing.T) {
	fx := newPipelineFixture(t)
	before := fx.dq.Len()

	loader := testShaders()
	delete(loader, "triangle.frag")
	_, err := BuildShaderPipeline(fx.ctx, loader, NewPipelineBuilder(), fx.pass, []ShaderSource{
		{Stage: gpu.ShaderStageVertex, Name: "tri_mesh.vert"},
		{Stage: gpu.ShaderStageFragment, Name: "triangle.frag"},
	}, fx.dq)
	if err == nil {
		t.Fatal("expected an error for a missing shader")
	}
	if fx.fake.Count("CreateGraphicsPipeline") != 0 {
		t.Fatal("expected no pipeline creation")
	}
	if fx.dq.Len() != before {
		t.Fatalf("expected the deletion queue unchanged; got %d new entries", fx.dq.Len()-before)
	}
	if fx.fake.Count("DestroyShaderModule") != 1 {
		t.Fatalf("expected the loaded vertex module destroyed; got %d destroys", fx.fake.Count("DestroyShaderModule"))
	}
	fx.teardown(t)
}
