package platform

import (
	"runtime"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/forge/engine/core"
	"github.com/spaghettifunk/forge/engine/renderer/gpu"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

// Platform owns the window. Its callbacks turn OS input into engine events.
type Platform struct {
	Window *glfw.Window

	bus       *core.EventBus
	input     *core.Input
	startTime float64
}

func New(bus *core.EventBus, input *core.Input) (*Platform, error) {
	if bus == nil || input == nil {
		return nil, errors.New("platform needs an event bus and an input state")
	}
	return &Platform{
		bus:   bus,
		input: input,
	}, nil
}

func (p *Platform) Startup(applicationName string, x uint32, y uint32, width uint32, height uint32) error {
	if err := glfw.Init(); err != nil {
		core.LogError("failed to initialize glfw: %s", err)
		return errors.Wrap(err, "failed to initialize glfw")
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return errors.Wrap(gpu.ErrUnsupported, "no Vulkan loader found")
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Required for Vulkan.

	window, err := glfw.CreateWindow(int(width), int(height), applicationName, nil, nil)
	if err != nil {
		core.LogError("failed to create window: %s", err)
		glfw.Terminate()
		return errors.Wrap(err, "failed to create window")
	}
	p.Window = window

	p.Window.SetKeyCallback(p.keyCallback)
	p.Window.SetFramebufferSizeCallback(p.framebufferSizeCallback)
	p.Window.SetCloseCallback(p.closeCallback)
	p.Window.SetPos(int(x), int(y))
	p.Window.Show()

	p.startTime = glfw.GetTime()
	return nil
}

func (p *Platform) Shutdown() error {
	if p.Window != nil {
		p.Window.Destroy()
		p.Window = nil
	}
	glfw.Terminate()
	return nil
}

// PumpMessages processes pending OS events. It returns false once the window
// was asked to close.
func (p *Platform) PumpMessages() bool {
	glfw.PollEvents()
	return !p.Window.ShouldClose()
}

// WaitEvents blocks until an OS event arrives. Used while minimized.
func (p *Platform) WaitEvents() {
	glfw.WaitEvents()
}

// Wake posts an empty event so a pending WaitEvents returns.
func (p *Platform) Wake() {
	glfw.PostEmptyEvent()
}

func (p *Platform) Minimized() bool {
	if p.Window.GetAttrib(glfw.Iconified) == glfw.True {
		return true
	}
	e := p.FramebufferExtent()
	return e.Width == 0 || e.Height == 0
}

func (p *Platform) Handle() gpu.WindowHandle {
	return p.Window
}

func (p *Platform) FramebufferExtent() gpu.Extent2D {
	w, h := p.Window.GetFramebufferSize()
	return gpu.Extent2D{Width: uint32(w), Height: uint32(h)}
}

func (p *Platform) RequiredInstanceExtensions() []string {
	return p.Window.GetRequiredInstanceExtensions()
}

// ProcAddr is the loader entry point the Vulkan backend initializes from.
func (p *Platform) ProcAddr() unsafe.Pointer {
	return glfw.GetVulkanGetInstanceProcAddress()
}

// GetAbsoluteTime returns seconds since the window was created.
func (p *Platform) GetAbsoluteTime() float64 {
	return glfw.GetTime() - p.startTime
}

func (p *Platform) keyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if action == glfw.Repeat {
		return
	}
	code := translateKeyCode(key)
	if code == core.KEY_UNKNOWN {
		return
	}
	p.input.ProcessKey(code, action == glfw.Press)
}

func (p *Platform) framebufferSizeCallback(w *glfw.Window, width, height int) {
	p.bus.Fire(core.EventContext{
		Type: core.EVENT_CODE_RESIZED,
		Data: &core.SystemEvent{WindowWidth: uint32(width), WindowHeight: uint32(height)},
	})
}

func (p *Platform) closeCallback(w *glfw.Window) {
	p.bus.Fire(core.EventContext{Type: core.EVENT_CODE_APPLICATION_QUIT})
}

func translateKeyCode(key glfw.Key) core.KeyCode {
	switch {
	case key >= glfw.KeyA && key <= glfw.KeyZ:
		// GLFW letters share their ASCII codes.
		return core.KeyCode(key)
	case key >= glfw.Key0 && key <= glfw.Key9:
		return core.KeyCode(key)
	}
	switch key {
	case glfw.KeySpace:
		return core.KEY_SPACE
	case glfw.KeyEscape:
		return core.KEY_ESCAPE
	case glfw.KeyEnter:
		return core.KEY_ENTER
	case glfw.KeyTab:
		return core.KEY_TAB
	case glfw.KeyBackspace:
		return core.KEY_BACKSPACE
	case glfw.KeyLeft:
		return core.KEY_LEFT
	case glfw.KeyRight:
		return core.KEY_RIGHT
	case glfw.KeyUp:
		return core.KEY_UP
	case glfw.KeyDown:
		return core.KEY_DOWN
	case glfw.KeyF1:
		return core.KEY_F1
	}
	return core.KEY_UNKNOWN
}
