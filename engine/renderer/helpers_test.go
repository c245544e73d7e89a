package renderer

import (
	"fmt"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/forge/engine/containers"
	"github.com/spaghettifunk/forge/engine/renderer/gpu"
	"github.com/spaghettifunk/forge/engine/renderer/gpu/gputest"
)

var testExtent = gpu.Extent2D{Width: 1700, Height: 900}

type testWindow struct {
	extent gpu.Extent2D
}

func (w *testWindow) Handle() gpu.WindowHandle { return "test-window" }

func (w *testWindow) FramebufferExtent() gpu.Extent2D { return w.extent }

func (w *testWindow) RequiredInstanceExtensions() []string {
	return []string{gputest.SurfaceExt, gputest.WindowExt}
}

// mapLoader serves fake SPIR-V words by shader name.
type mapLoader map[string][]uint32

func (m mapLoader) LoadShader(name string) ([]uint32, error) {
	code, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("shader %s not found", name)
	}
	return code, nil
}

func testShaders() mapLoader {
	return mapLoader{
		"tri_mesh.vert":         {0x07230203, 1},
		"colored_triangle.frag": {0x07230203, 2},
		"triangle.frag":         {0x07230203, 3},
	}
}

func newTestContext(t *testing.T, fake *gputest.Fake, dq *containers.DeletionQueue) *Context {
	t.Helper()
	ctx, err := InitContext(fake, &testWindow{extent: testExtent}, ContextOptions{ApplicationName: "test", Validation: true}, dq)
	if err != nil {
		t.Fatalf("expected context to initialize; got %v", err)
	}
	return ctx
}

func checkClean(t *testing.T, fake *gputest.Fake) {
	t.Helper()
	if len(fake.Violations) != 0 {
		t.Fatalf("expected no violations; got %v", fake.Violations)
	}
	if fake.LiveCount() != 0 {
		t.Fatalf("expected every object to be destroyed; got %v", fake.Live())
	}
}

func indexOf(ops []string, op string) int {
	for i, o := range ops {
		if o == op {
			return i
		}
	}
	return -1
}

func lastIndexOf(ops []string, op string) int {
	for i := len(ops) - 1; i >= 0; i-- {
		if ops[i] == op {
			return i
		}
	}
	return -1
}

// testRig is a complete renderer on top of the fake: context, render pass,
// render targets, one mesh material and a frame executor.
type testRig struct {
	fake     *gputest.Fake
	ctx      *Context
	main     *containers.DeletionQueue
	scoped   *containers.DeletionQueue
	pass     gpu.RenderPass
	targets  *RenderTargets
	frames   *FrameExecutor
	scene    *Scene
	material *Material
	mesh     *Mesh
}

func newTestRig(t *testing.T, framesInFlight int) *testRig {
	t.Helper()
	r := &testRig{
		fake:   gputest.New(),
		main:   &containers.DeletionQueue{},
		scoped: &containers.DeletionQueue{},
		scene:  NewScene(),
	}
	r.ctx = newTestContext(t, r.fake, r.main)

	pass, err := CreateRenderPass(r.ctx, gpu.FormatB8G8R8A8Srgb, r.ctx.DepthFormat, r.main)
	if err != nil {
		t.Fatalf("expected render pass; got %v", err)
	}
	r.pass = pass
	// render targets go first on shutdown
	r.main.Push(r.scoped.Flush)
	r.recreate(t)

	r.frames, err = NewFrameExecutor(r.ctx, framesInFlight, r.main)
	if err != nil {
		t.Fatalf("expected frame executor; got %v", err)
	}

	layout, err := CreatePipelineLayout(r.ctx, []gpu.PushConstantRange{
		{Stages: gpu.ShaderStageVertex, Offset: 0, Size: MeshPushConstantsSize},
	}, r.main)
	if err != nil {
		t.Fatalf("expected pipeline layout; got %v", err)
	}
	builder := NewPipelineBuilder()
	builder.SetVertexInput(VertexDescription()).SetLayout(layout).EnableDepthTest(true, gpu.CompareOpLessOrEqual)
	pipeline, err := BuildShaderPipeline(r.ctx, testShaders(), builder, pass, []ShaderSource{
		{Stage: gpu.ShaderStageVertex, Name: "tri_mesh.vert"},
		{Stage: gpu.ShaderStageFragment, Name: "colored_triangle.frag"},
	}, r.main)
	if err != nil {
		t.Fatalf("expected pipeline; got %v", err)
	}
	r.material = r.scene.CreateMaterial("defaultmesh", pipeline, layout, gpu.ShaderStageVertex)

	r.mesh = triangleMesh("triangle")
	if err := UploadMesh(r.ctx.Allocator, r.mesh, r.main); err != nil {
		t.Fatalf("expected mesh upload; got %v", err)
	}
	r.scene.AddMesh(r.mesh)
	return r
}

// recreate rebuilds the render targets the way the engine does on resize.
func (r *testRig) recreate(t *testing.T) {
	t.Helper()
	if r.frames != nil {
		if err := r.frames.WaitIdle(); err != nil {
			t.Fatalf("expected frames to drain; got %v", err)
		}
	}
	if err := r.ctx.WaitIdle(); err != nil {
		t.Fatalf("expected device to idle; got %v", err)
	}
	r.scoped.Flush()
	targets, err := CreateRenderTargets(r.ctx, r.pass, testExtent, SwapchainOptions{PresentMode: gpu.PresentModeFifo}, r.scoped)
	if err != nil {
		t.Fatalf("expected render targets; got %v", err)
	}
	r.targets = targets
}

func (r *testRig) input(objects ...RenderObject) FrameInput {
	return FrameInput{
		Targets:        r.targets,
		RenderPass:     r.pass,
		ViewProjection: mgl32.Ident4(),
		Objects:        objects,
	}
}

func (r *testRig) shutdown(t *testing.T) {
	t.Helper()
	if err := r.ctx.WaitIdle(); err != nil {
		t.Fatalf("expected device to idle; got %v", err)
	}
	r.main.Flush()
	checkClean(t, r.fake)
}

func triangleMesh(name string) *Mesh {
	mesh := &Mesh{Name: name, Vertices: make([]Vertex, 3)}
	mesh.Vertices[0].Position = [3]float32{1, 1, 0}
	mesh.Vertices[1].Position = [3]float32{-1, 1, 0}
	mesh.Vertices[2].Position = [3]float32{0, -1, 0}
	for i := range mesh.Vertices {
		mesh.Vertices[i].Color = [3]float32{0, 1, 0}
	}
	return mesh
}
