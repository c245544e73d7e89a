package engine

import (
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/forge/engine/assets/loaders"
	"github.com/spaghettifunk/forge/engine/core"
	"github.com/spaghettifunk/forge/engine/renderer"
	"github.com/spaghettifunk/forge/engine/renderer/components"
	"github.com/spaghettifunk/forge/engine/renderer/gpu"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

func (s Stage) String() string {
	switch s {
	case EngineStageUninitialized:
		return "uninitialized"
	case EngineStageInitializing:
		return "initializing"
	case EngineStageInitialized:
		return "initialized"
	case EngineStageRunning:
		return "running"
	case EngineStageShuttingDown:
		return "shutting down"
	}
	return "unknown"
}

// Window is the platform window as seen by the main loop.
type Window interface {
	renderer.Window
	PumpMessages() bool
	WaitEvents()
	// Wake unblocks a pending WaitEvents. Safe to call from any goroutine.
	Wake()
	Minimized() bool
}

// AssetLoader serves shaders to the renderer and models to the engine.
type AssetLoader interface {
	renderer.ShaderLoader
	LoadModel(path string) (*loaders.Model, error)
}

// Systems are the collaborators the engine is built from. They are owned by
// the caller and outlive the engine.
type Systems struct {
	Bus       *core.EventBus
	Input     *core.Input
	Window    Window
	Substrate gpu.Substrate
	Assets    AssetLoader
}

type Engine struct {
	currentStage Stage
	gameInstance *Game
	config       *core.Config

	bus      *core.EventBus
	input    *core.Input
	window   Window
	assets   AssetLoader
	renderer *renderer.Renderer
	camera   *components.Camera

	running            atomic.Bool
	isSuspended        bool
	handlersRegistered bool
	width              uint32
	height             uint32

	clock    *core.Clock
	metrics  *core.Metrics
	lastTime float64
}

func New(cfg *core.Config, sys Systems, g *Game) (*Engine, error) {
	if cfg == nil {
		return nil, errors.Wrap(core.ErrInvalidConfig, "missing configuration")
	}
	if sys.Bus == nil || sys.Input == nil || sys.Window == nil || sys.Substrate == nil || sys.Assets == nil {
		return nil, errors.New("engine requires an event bus, input, window, substrate and asset loader")
	}
	if g == nil {
		g = &Game{}
	}

	r := renderer.New(sys.Substrate, sys.Window, renderer.Options{
		ApplicationName:   cfg.Application.Name,
		Validation:        cfg.Renderer.Validation,
		PreferDiscreteGPU: cfg.Renderer.DiscreteGPU,
		FramesInFlight:    cfg.Renderer.FramesInFlight,
		PresentMode:       gpu.ParsePresentMode(cfg.Renderer.PresentMode),
		Shaders: renderer.MaterialShaders{
			MeshVertex:    cfg.Assets.MeshVertexShader,
			ColorFragment: cfg.Assets.ColorFragment,
			RedFragment:   cfg.Assets.RedFragment,
		},
	})

	return &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		config:       cfg,
		bus:          sys.Bus,
		input:        sys.Input,
		window:       sys.Window,
		assets:       sys.Assets,
		renderer:     r,
		camera:       components.NewCamera(mgl32.Vec3{0, 6, 10}),
		width:        cfg.Application.Width,
		height:       cfg.Application.Height,
		clock:        core.NewClock(),
		metrics:      core.NewMetrics(),
	}, nil
}

// Initialize brings the renderer up, uploads the built-in meshes and hands
// control to the game's initialize hook. A failed Initialize leaves the
// engine uninitialized, so it can be called again.
func (e *Engine) Initialize() error {
	if e.currentStage != EngineStageUninitialized {
		return errors.Errorf("engine cannot initialize while %s", e.currentStage)
	}
	e.currentStage = EngineStageInitializing

	if err := e.initialize(); err != nil {
		e.currentStage = EngineStageUninitialized
		return err
	}

	e.currentStage = EngineStageInitialized
	core.LogInfo("Engine initialized.")
	return nil
}

func (e *Engine) initialize() error {
	if !e.handlersRegistered {
		e.bus.Register(core.EVENT_CODE_APPLICATION_QUIT, e.onEvent)
		e.bus.Register(core.EVENT_CODE_KEY_PRESSED, e.onKey)
		e.bus.Register(core.EVENT_CODE_KEY_RELEASED, e.onKey)
		e.bus.Register(core.EVENT_CODE_RESIZED, e.onResized)
		e.handlersRegistered = true
	}

	if err := e.renderer.Initialize(e.assets); err != nil {
		return errors.Wrap(err, "failed to initialize the renderer")
	}

	if err := e.loadMeshes(); err != nil {
		_ = e.renderer.Shutdown()
		return err
	}

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(e); err != nil {
			_ = e.renderer.Shutdown()
			return errors.Wrap(err, "game initialize failed")
		}
	}
	if e.gameInstance.FnOnResize != nil {
		extent := e.renderer.Extent()
		if err := e.gameInstance.FnOnResize(extent.Width, extent.Height); err != nil {
			_ = e.renderer.Shutdown()
			return err
		}
	}
	return nil
}

// loadMeshes uploads the triangle and, when the model asset is there, the
// monkey.
func (e *Engine) loadMeshes() error {
	if err := e.renderer.UploadMesh(newTriangleMesh()); err != nil {
		return errors.Wrap(err, "failed to upload the triangle mesh")
	}

	if e.config.Assets.Model == "" {
		return nil
	}
	model, err := e.assets.LoadModel(e.config.Assets.Model)
	if err != nil {
		core.LogWarn("Model %s not loaded, the scene will not include it: %v", e.config.Assets.Model, err)
		return nil
	}
	if err := e.renderer.UploadMesh(meshFromModel(MonkeyMesh, model)); err != nil {
		return errors.Wrap(err, "failed to upload the monkey mesh")
	}
	return nil
}

// Run is the main loop. It returns when the window closes, Stop is called or
// a frame fails for a reason recreating the render targets cannot fix.
func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return errors.Errorf("engine cannot run while %s", e.currentStage)
	}
	e.currentStage = EngineStageRunning
	e.running.Store(true)

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	for e.running.Load() {
		if !e.window.PumpMessages() {
			e.running.Store(false)
			break
		}

		if e.isSuspended || e.window.Minimized() {
			// Nothing to present to, block until the window changes.
			e.window.WaitEvents()
			continue
		}

		// Update clock and get delta time.
		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime

		if e.gameInstance.FnUpdate != nil {
			if err := e.gameInstance.FnUpdate(e, delta); err != nil {
				e.running.Store(false)
				return errors.Wrap(err, "game update failed")
			}
		}

		if err := e.renderer.DrawFrame(e.camera.ViewProjection(e.aspect())); err != nil {
			e.running.Store(false)
			return errors.Wrapf(err, "frame %d failed", e.renderer.FrameNumber())
		}

		e.clock.Update()
		if e.metrics.Update(e.clock.Elapsed() - currentTime) {
			fps, frameTime := e.metrics.Frame()
			core.LogDebug("FPS: %5.1f (%4.1fms)", fps, frameTime)
		}

		// NOTE: Input update/state copying should always be handled
		// after any input should be recorded; I.E. before this line.
		e.input.Update()

		e.lastTime = currentTime
	}

	e.currentStage = EngineStageInitialized
	return nil
}

// Stop asks the main loop to return after the current frame. Safe to call
// from any goroutine; a loop parked while the window is minimized is woken.
func (e *Engine) Stop() {
	e.running.Store(false)
	e.window.Wake()
}

// Shutdown releases the game and every renderer resource. The systems passed
// to New are left to the caller.
func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageUninitialized || e.currentStage == EngineStageShuttingDown {
		return nil
	}
	e.currentStage = EngineStageShuttingDown
	e.running.Store(false)

	var err error
	if e.gameInstance.FnShutdown != nil {
		err = e.gameInstance.FnShutdown()
	}
	if rerr := e.renderer.Shutdown(); err == nil {
		err = rerr
	}
	e.bus.Shutdown()
	e.handlersRegistered = false
	e.currentStage = EngineStageUninitialized
	core.LogInfo("Engine shut down.")
	return err
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

func (e *Engine) Config() *core.Config {
	return e.config
}

func (e *Engine) Input() *core.Input {
	return e.input
}

func (e *Engine) Bus() *core.EventBus {
	return e.bus
}

func (e *Engine) Renderer() *renderer.Renderer {
	return e.renderer
}

func (e *Engine) Camera() *components.Camera {
	return e.camera
}

func (e *Engine) Metrics() *core.Metrics {
	return e.metrics
}

// FrameNumber counts the frames submitted so far.
func (e *Engine) FrameNumber() uint64 {
	return e.renderer.FrameNumber()
}

// GetFramebufferSize returns the width and height (in this order) of the
// last size the window reported.
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

func (e *Engine) aspect() float32 {
	extent := e.renderer.Extent()
	if extent.Width == 0 || extent.Height == 0 {
		extent = e.window.FramebufferExtent()
	}
	if extent.Width == 0 || extent.Height == 0 {
		return 1
	}
	return float32(extent.Width) / float32(extent.Height)
}

func (e *Engine) onEvent(context core.EventContext) bool {
	if context.Type == core.EVENT_CODE_APPLICATION_QUIT {
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.Stop()
		return true
	}
	return false
}

func (e *Engine) onKey(context core.EventContext) bool {
	ke, ok := context.Data.(*core.KeyEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return false
	}

	if context.Type == core.EVENT_CODE_KEY_PRESSED && ke.KeyCode == core.KEY_ESCAPE {
		// NOTE: Technically firing an event to itself, but there may be other listeners.
		e.bus.Fire(core.EventContext{Type: core.EVENT_CODE_APPLICATION_QUIT})
		// Block anything else from processing this.
		return true
	}
	return false
}

func (e *Engine) onResized(context core.EventContext) bool {
	se, ok := context.Data.(*core.SystemEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return false
	}

	width, height := se.WindowWidth, se.WindowHeight
	if width == e.width && height == e.height {
		return false
	}
	e.width = width
	e.height = height
	core.LogDebug("Window resize: %d, %d", width, height)

	// Handle minimization
	if width == 0 || height == 0 {
		core.LogInfo("Window minimized, suspending application.")
		e.isSuspended = true
		return false
	}
	if e.isSuspended {
		core.LogInfo("Window restored, resuming application.")
		e.isSuspended = false
	}

	e.renderer.OnResize(width, height)
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(width, height); err != nil {
			core.LogError(err.Error())
		}
	}
	return false
}
