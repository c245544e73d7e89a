package platform

import (
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/spaghettifunk/forge/engine/core"
)

func TestTranslateKeyCode(t *testing.T) {
	tests := []struct {
		key  glfw.Key
		want core.KeyCode
	}{
		{glfw.KeySpace, core.KEY_SPACE},
		{glfw.KeyEscape, core.KEY_ESCAPE},
		{glfw.KeyA, core.KEY_A},
		{glfw.KeyW, core.KEY_W},
		{glfw.KeyLeft, core.KEY_LEFT},
		{glfw.KeyDown, core.KEY_DOWN},
		{glfw.KeyF1, core.KEY_F1},
		{glfw.Key5, core.KeyCode('5')},
		{glfw.KeyF12, core.KEY_UNKNOWN},
	}
	for _, tt := range tests {
		if got := translateKeyCode(tt.key); got != tt.want {
			t.Fatalf("expected %#x for glfw key %d; got %#x", tt.want, tt.key, got)
		}
	}
}

func TestNewNeedsBusAndInput(t *testing.T) {
	if _, err := New(nil, nil); err == nil {
		t.Fatalf("expected an error without a bus; got nil")
	}
	bus := core.NewEventBus()
	if _, err := New(bus, core.NewInput(bus)); err != nil {
		t.Fatalf("expected no error; got %v", err)
	}
}

func TestKeyCallbackUpdatesInput(t *testing.T) {
	bus := core.NewEventBus()
	input := core.NewInput(bus)
	p, _ := New(bus, input)

	var pressed []core.KeyCode
	bus.Register(core.EVENT_CODE_KEY_PRESSED, func(ctx core.EventContext) bool {
		pressed = append(pressed, ctx.Data.(*core.KeyEvent).KeyCode)
		return true
	})

	p.keyCallback(nil, glfw.KeySpace, 0, glfw.Press, 0)
	p.keyCallback(nil, glfw.KeySpace, 0, glfw.Repeat, 0)
	if !input.IsKeyDown(core.KEY_SPACE) {
		t.Fatalf("expected space to be down")
	}
	p.keyCallback(nil, glfw.KeySpace, 0, glfw.Release, 0)
	if input.IsKeyDown(core.KEY_SPACE) {
		t.Fatalf("expected space to be up")
	}
	if len(pressed) != 1 {
		t.Fatalf("expected 1 press event; got %d", len(pressed))
	}
}

func TestResizeCallbackFiresEvent(t *testing.T) {
	bus := core.NewEventBus()
	p, _ := New(bus, core.NewInput(bus))

	var got *core.SystemEvent
	bus.Register(core.EVENT_CODE_RESIZED, func(ctx core.EventContext) bool {
		got = ctx.Data.(*core.SystemEvent)
		return true
	})
	p.framebufferSizeCallback(nil, 800, 600)
	if got == nil || got.WindowWidth != 800 || got.WindowHeight != 600 {
		t.Fatalf("expected a 800x600 resize event; got %+v", got)
	}
}
