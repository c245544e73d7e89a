package renderer

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/forge/engine/containers"
	"github.com/spaghettifunk/forge/engine/core"
	"github.com/spaghettifunk/forge/engine/renderer/gpu"
)

const (
	DefaultMeshMaterial = "defaultmesh"
	RedMeshMaterial     = "redmesh"
)

// MaterialShaders names the shaders the built-in materials are made of.
type MaterialShaders struct {
	MeshVertex    string
	ColorFragment string
	RedFragment   string
}

type Options struct {
	ApplicationName   string
	Validation        bool
	PreferDiscreteGPU bool
	FramesInFlight    int
	PresentMode       gpu.PresentMode
	Shaders           MaterialShaders
}

// Renderer ties the context, the render targets, the frame executor and the
// scene together. Teardown is split in two ledgers: the main one lives until
// Shutdown, the swapchain one is flushed every time the render targets are
// recreated.
type Renderer struct {
	sub    gpu.Substrate
	window Window
	opts   Options

	ctx     *Context
	pass    gpu.RenderPass
	targets *RenderTargets
	frames  *FrameExecutor
	scene   *Scene
	layout  gpu.PipelineLayout

	mainDeletionQueue      containers.DeletionQueue
	swapchainDeletionQueue containers.DeletionQueue

	resized     bool
	initialized bool
}

func New(sub gpu.Substrate, window Window, opts Options) *Renderer {
	if opts.FramesInFlight < 1 {
		opts.FramesInFlight = 1
	}
	return &Renderer{
		sub:    sub,
		window: window,
		opts:   opts,
		scene:  NewScene(),
	}
}

// Initialize builds everything needed to draw: context, render pass, render
// targets, frame executor and the built-in materials. On failure whatever
// was created is released again.
func (r *Renderer) Initialize(shaders ShaderLoader) error {
	// materials and meshes of an earlier run point at released objects.
	r.scene = NewScene()
	if err := r.initialize(shaders); err != nil {
		r.mainDeletionQueue.Flush()
		r.ctx = nil
		return err
	}
	r.initialized = true
	core.LogInfo("Renderer initialized.")
	return nil
}

func (r *Renderer) initialize(shaders ShaderLoader) error {
	ctx, err := InitContext(r.sub, r.window, ContextOptions{
		ApplicationName:   r.opts.ApplicationName,
		Validation:        r.opts.Validation,
		PreferDiscreteGPU: r.opts.PreferDiscreteGPU,
	}, &r.mainDeletionQueue)
	if err != nil {
		return errors.Wrap(err, "context")
	}
	r.ctx = ctx

	// The render pass only depends on the surface format, which stays the
	// same across swapchain recreation.
	support, err := r.sub.SurfaceSupport(ctx.PhysicalDevice.Handle, ctx.Surface)
	if err != nil {
		return errors.Wrap(err, "surface support")
	}
	if len(support.Formats) == 0 {
		return errors.Wrap(gpu.ErrUnsupported, "surface reports no formats")
	}
	colorFormat := chooseSurfaceFormat(support.Formats).Format
	r.pass, err = CreateRenderPass(ctx, colorFormat, ctx.DepthFormat, &r.mainDeletionQueue)
	if err != nil {
		return errors.Wrap(err, "render pass")
	}

	// render targets go before the render pass on shutdown
	r.mainDeletionQueue.Push(r.swapchainDeletionQueue.Flush)
	r.targets, err = CreateRenderTargets(ctx, r.pass, r.window.FramebufferExtent(), r.swapchainOptions(), &r.swapchainDeletionQueue)
	if err != nil {
		return errors.Wrap(err, "render targets")
	}

	r.frames, err = NewFrameExecutor(ctx, r.opts.FramesInFlight, &r.mainDeletionQueue)
	if err != nil {
		return errors.Wrap(err, "frames")
	}

	if err := r.initPipelines(shaders); err != nil {
		return errors.Wrap(err, "pipelines")
	}
	return nil
}

func (r *Renderer) swapchainOptions() SwapchainOptions {
	return SwapchainOptions{PresentMode: r.opts.PresentMode}
}

// initPipelines creates the mesh layout and the two built-in materials. Both
// share the layout and differ only in their fragment shader.
func (r *Renderer) initPipelines(shaders ShaderLoader) error {
	layout, err := CreatePipelineLayout(r.ctx, []gpu.PushConstantRange{
		{Stages: gpu.ShaderStageVertex, Offset: 0, Size: MeshPushConstantsSize},
	}, &r.mainDeletionQueue)
	if err != nil {
		return err
	}
	r.layout = layout

	builder := NewPipelineBuilder()
	builder.SetVertexInput(VertexDescription()).
		SetExtent(r.targets.Swapchain.Extent).
		SetLayout(layout).
		EnableDepthTest(true, gpu.CompareOpLessOrEqual)

	materials := []struct {
		name     string
		fragment string
	}{
		{DefaultMeshMaterial, r.opts.Shaders.ColorFragment},
		{RedMeshMaterial, r.opts.Shaders.RedFragment},
	}
	for _, m := range materials {
		pipeline, err := BuildShaderPipeline(r.ctx, shaders, builder, r.pass, []ShaderSource{
			{Stage: gpu.ShaderStageVertex, Name: r.opts.Shaders.MeshVertex},
			{Stage: gpu.ShaderStageFragment, Name: m.fragment},
		}, &r.mainDeletionQueue)
		if err != nil {
			return errors.Wrapf(err, "material %s", m.name)
		}
		r.scene.CreateMaterial(m.name, pipeline, layout, gpu.ShaderStageVertex)
	}
	return nil
}

func (r *Renderer) Context() *Context {
	return r.ctx
}

func (r *Renderer) Scene() *Scene {
	return r.scene
}

func (r *Renderer) Targets() *RenderTargets {
	return r.targets
}

func (r *Renderer) FrameNumber() uint64 {
	if r.frames == nil {
		return 0
	}
	return r.frames.FrameNumber()
}

// Extent is the size of the current render targets.
func (r *Renderer) Extent() gpu.Extent2D {
	if r.targets == nil {
		return gpu.Extent2D{}
	}
	return r.targets.Swapchain.Extent
}

// UploadMesh uploads mesh and registers it with the scene.
func (r *Renderer) UploadMesh(mesh *Mesh) error {
	if err := UploadMesh(r.ctx.Allocator, mesh, &r.mainDeletionQueue); err != nil {
		return err
	}
	r.scene.AddMesh(mesh)
	return nil
}

// OnResize schedules the render targets to be recreated before the next
// frame.
func (r *Renderer) OnResize(width, height uint32) {
	core.LogDebug("Renderer resize requested: %dx%d.", width, height)
	r.resized = true
}

// RecreateRenderTargets waits for the GPU, drops the swapchain and its
// framebuffers and builds them again for the current window size.
func (r *Renderer) RecreateRenderTargets() error {
	if err := r.frames.WaitIdle(); err != nil {
		return err
	}
	if err := r.ctx.WaitIdle(); err != nil {
		return err
	}
	r.swapchainDeletionQueue.Flush()
	r.targets = nil

	targets, err := CreateRenderTargets(r.ctx, r.pass, r.window.FramebufferExtent(), r.swapchainOptions(), &r.swapchainDeletionQueue)
	if err != nil {
		return err
	}
	r.targets = targets
	r.resized = false
	core.LogDebug("Render targets recreated at %dx%d.", targets.Swapchain.Extent.Width, targets.Swapchain.Extent.Height)
	return nil
}

// DrawFrame renders the scene. A surface that went out of date is not an
// error: the render targets are recreated and the frame is skipped. While
// the surface has no area nothing is drawn.
func (r *Renderer) DrawFrame(viewProjection mgl32.Mat4) error {
	if !r.initialized {
		return errors.New("renderer is not initialized")
	}
	if r.resized || r.targets == nil {
		if err := r.RecreateRenderTargets(); err != nil {
			if errors.Is(err, ErrUnsupportedExtent) {
				return nil
			}
			return errors.Wrap(err, "failed to recreate render targets")
		}
	}

	err := r.frames.Draw(FrameInput{
		Targets:        r.targets,
		RenderPass:     r.pass,
		ViewProjection: viewProjection,
		Objects:        r.scene.Renderables,
	})
	if IsRecoverable(err) {
		core.LogDebug("Skipping frame: %v", err)
		r.resized = true
		return nil
	}
	return err
}

// Shutdown waits for the GPU and releases everything in reverse creation
// order.
func (r *Renderer) Shutdown() error {
	if r.ctx == nil {
		return nil
	}
	var err error
	if r.frames != nil {
		err = r.frames.WaitIdle()
	}
	if idleErr := r.ctx.WaitIdle(); err == nil {
		err = idleErr
	}
	r.mainDeletionQueue.Flush()
	r.ctx = nil
	r.initialized = false
	core.LogInfo("Renderer shut down.")
	return err
}
