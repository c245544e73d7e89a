package core

import "testing"

func TestEventBusStopsAtFirstHandler(t *testing.T) {
	bus := NewEventBus()

	var calls []string
	bus.Register(EVENT_CODE_KEY_PRESSED, func(ctx EventContext) bool {
		calls = append(calls, "first")
		return false
	})
	bus.Register(EVENT_CODE_KEY_PRESSED, func(ctx EventContext) bool {
		calls = append(calls, "second")
		return true
	})
	bus.Register(EVENT_CODE_KEY_PRESSED, func(ctx EventContext) bool {
		calls = append(calls, "third")
		return true
	})

	if !bus.Fire(EventContext{Type: EVENT_CODE_KEY_PRESSED}) {
		t.Fatalf("expected event to be handled")
	}
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Fatalf("expected [first second]; got %v", calls)
	}

	if bus.Fire(EventContext{Type: EVENT_CODE_RESIZED}) {
		t.Fatalf("expected unregistered code to be unhandled")
	}
}

func TestInputFiresOnlyOnChange(t *testing.T) {
	bus := NewEventBus()
	in := NewInput(bus)

	var pressed, released int
	bus.Register(EVENT_CODE_KEY_PRESSED, func(ctx EventContext) bool {
		if ev := ctx.Data.(*KeyEvent); ev.KeyCode != KEY_SPACE {
			t.Fatalf("expected KEY_SPACE; got %v", ev.KeyCode)
		}
		pressed++
		return true
	})
	bus.Register(EVENT_CODE_KEY_RELEASED, func(ctx EventContext) bool {
		released++
		return true
	})

	in.ProcessKey(KEY_SPACE, true)
	in.ProcessKey(KEY_SPACE, true)
	if !in.IsKeyDown(KEY_SPACE) {
		t.Fatalf("expected space to be down")
	}
	in.Update()
	in.ProcessKey(KEY_SPACE, false)

	if pressed != 1 || released != 1 {
		t.Fatalf("expected 1 press and 1 release; got %d and %d", pressed, released)
	}
	if !in.WasKeyDown(KEY_SPACE) {
		t.Fatalf("expected space to have been down in the previous frame")
	}
}
