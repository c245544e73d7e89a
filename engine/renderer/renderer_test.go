package renderer

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/forge/engine/renderer/gpu"
	"github.com/spaghettifunk/forge/engine/renderer/gpu/gputest"
)

func testOptions() Options {
	return Options{
		ApplicationName: "test",
		Validation:      true,
		FramesInFlight:  2,
		PresentMode:     gpu.PresentModeMailbox,
		Shaders: MaterialShaders{
			MeshVertex:    "tri_mesh.vert",
			ColorFragment: "colored_triangle.frag",
			RedFragment:   "triangle.frag",
		},
	}
}

func newTestRenderer(t *testing.T, fake *gputest.Fake, window *testWindow) *Renderer {
	t.Helper()
	r := New(fake, window, testOptions())
	if err := r.Initialize(testShaders()); err != nil {
		t.Fatalf("expected renderer to initialize; got %v", err)
	}
	return r
}

func TestRendererInitializeBuildsMaterials(t *testing.T) {
	fake := gputest.New()
	r := newTestRenderer(t, fake, &testWindow{extent: testExtent})

	def := r.Scene().Material(DefaultMeshMaterial)
	red := r.Scene().Material(RedMeshMaterial)
	if def == nil || red == nil {
		t.Fatalf("expected both built-in materials; got %v and %v", def, red)
	}
	if def.Pipeline == red.Pipeline {
		t.Fatalf("expected distinct pipelines")
	}
	if def.Layout != red.Layout {
		t.Fatalf("expected a shared layout; got %d and %d", def.Layout, red.Layout)
	}
	if r.Extent() != testExtent {
		t.Fatalf("expected extent %v; got %v", testExtent, r.Extent())
	}
	if info, _ := fake.SwapchainInfo(r.Targets().Swapchain.Handle); info.PresentMode != gpu.PresentModeMailbox {
		t.Fatalf("expected the configured present mode; got %v", info.PresentMode)
	}
	if fake.Count("DestroyShaderModule") != 4 {
		t.Fatalf("expected all 4 shader modules to be destroyed after pipeline creation; got %d", fake.Count("DestroyShaderModule"))
	}

	if err := r.Shutdown(); err != nil {
		t.Fatalf("expected no error; got %v", err)
	}
	checkClean(t, fake)
}

func TestRendererInitializeFailureReleasesEverything(t *testing.T) {
	fake := gputest.New()
	shaders := testShaders()
	delete(shaders, "triangle.frag")

	r := New(fake, &testWindow{extent: testExtent}, testOptions())
	err := r.Initialize(shaders)
	if err == nil {
		t.Fatalf("expected an error for a missing shader; got nil")
	}
	if r.Context() != nil {
		t.Fatalf("expected the context to be dropped")
	}
	checkClean(t, fake)
	if err := r.Shutdown(); err != nil {
		t.Fatalf("expected shutdown after a failed init to be a no-op; got %v", err)
	}
}

func TestRendererDrawFrame(t *testing.T) {
	fake := gputest.New()
	r := newTestRenderer(t, fake, &testWindow{extent: testExtent})

	mesh := triangleMesh("triangle")
	if err := r.UploadMesh(mesh); err != nil {
		t.Fatalf("expected no error; got %v", err)
	}
	if r.Scene().Mesh("triangle") != mesh {
		t.Fatalf("expected the mesh to be registered")
	}
	r.Scene().Add(RenderObject{Mesh: mesh, Material: r.Scene().Material(DefaultMeshMaterial), Transform: mgl32.Ident4()})

	for i := 0; i < 3; i++ {
		if err := r.DrawFrame(mgl32.Ident4()); err != nil {
			t.Fatalf("expected frame %d to draw; got %v", i, err)
		}
	}
	if r.FrameNumber() != 3 {
		t.Fatalf("expected 3 frames; got %d", r.FrameNumber())
	}
	if fake.Count("CmdDraw") != 3 {
		t.Fatalf("expected 3 draws; got %d", fake.Count("CmdDraw"))
	}

	if err := r.Shutdown(); err != nil {
		t.Fatalf("expected no error; got %v", err)
	}
	checkClean(t, fake)
}

func TestRendererRecreatesAfterOutOfDate(t *testing.T) {
	fake := gputest.New()
	window := &testWindow{extent: testExtent}
	r := newTestRenderer(t, fake, window)
	first := r.Targets().Swapchain.Handle

	fake.AcquireResults = []error{&gpu.ResultError{Op: "AcquireNextImage", Code: -1000001004, Err: gpu.ErrOutOfDate}}
	if err := r.DrawFrame(mgl32.Ident4()); err != nil {
		t.Fatalf("expected an out of date surface to be handled; got %v", err)
	}
	if r.FrameNumber() != 0 {
		t.Fatalf("expected the frame to be skipped; got frame %d", r.FrameNumber())
	}

	window.extent = gpu.Extent2D{Width: 800, Height: 600}
	if err := r.DrawFrame(mgl32.Ident4()); err != nil {
		t.Fatalf("expected the next frame to draw; got %v", err)
	}
	if r.Targets().Swapchain.Handle == first || fake.IsLive(uint64(first)) {
		t.Fatalf("expected a new swapchain replacing %d", first)
	}
	if r.Extent() != window.extent {
		t.Fatalf("expected extent %v; got %v", window.extent, r.Extent())
	}
	if r.FrameNumber() != 1 {
		t.Fatalf("expected frame 1; got %d", r.FrameNumber())
	}

	if err := r.Shutdown(); err != nil {
		t.Fatalf("expected no error; got %v", err)
	}
	checkClean(t, fake)
}

func TestRendererResizeAndMinimize(t *testing.T) {
	fake := gputest.New()
	window := &testWindow{extent: testExtent}
	r := newTestRenderer(t, fake, window)

	// A minimized window reports a zero sized surface.
	caps := fake.Support.Capabilities
	fake.Support.Capabilities.CurrentExtent = gpu.Extent2D{}
	fake.Support.Capabilities.MinImageExtent = gpu.Extent2D{}
	fake.Support.Capabilities.MaxImageExtent = gpu.Extent2D{}
	window.extent = gpu.Extent2D{}
	r.OnResize(0, 0)
	if err := r.DrawFrame(mgl32.Ident4()); err != nil {
		t.Fatalf("expected a minimized window to skip the frame; got %v", err)
	}
	if fake.Count("QueueSubmit") != 0 {
		t.Fatalf("expected nothing to be submitted while minimized")
	}

	if r.Targets() != nil {
		t.Fatalf("expected no render targets while minimized")
	}

	fake.Support.Capabilities = caps
	window.extent = gpu.Extent2D{Width: 1024, Height: 768}
	r.OnResize(1024, 768)
	if err := r.DrawFrame(mgl32.Ident4()); err != nil {
		t.Fatalf("expected the restored window to draw; got %v", err)
	}
	if r.Extent() != window.extent {
		t.Fatalf("expected extent %v; got %v", window.extent, r.Extent())
	}

	if err := r.Shutdown(); err != nil {
		t.Fatalf("expected no error; got %v", err)
	}
	checkClean(t, fake)
}

func TestRendererDeviceLostIsFatal(t *testing.T) {
	fake := gputest.New()
	r := newTestRenderer(t, fake, &testWindow{extent: testExtent})

	fake.FailNext("QueueSubmit", &gpu.ResultError{Op: "QueueSubmit", Code: -4, Err: gpu.ErrDeviceLost})
	err := r.DrawFrame(mgl32.Ident4())
	if !errors.Is(err, gpu.ErrDeviceLost) {
		t.Fatalf("expected ErrDeviceLost; got %v", err)
	}
	r.Shutdown()
	if fake.LiveCount() != 0 {
		t.Fatalf("expected shutdown to release everything; got %v", fake.Live())
	}
}

func TestRendererDrawBeforeInitialize(t *testing.T) {
	r := New(gputest.New(), &testWindow{extent: testExtent}, testOptions())
	if err := r.DrawFrame(mgl32.Ident4()); err == nil {
		t.Fatalf("expected an error; got nil")
	}
}
