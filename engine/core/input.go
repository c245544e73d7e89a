package core

// Key code definitions
type KeyCode uint16

const (
	KEY_BACKSPACE KeyCode = 0x08
	KEY_TAB       KeyCode = 0x09
	KEY_ENTER     KeyCode = 0x0D
	KEY_ESCAPE    KeyCode = 0x1B
	KEY_SPACE     KeyCode = 0x20
	KEY_LEFT      KeyCode = 0x25
	KEY_UP        KeyCode = 0x26
	KEY_RIGHT     KeyCode = 0x27
	KEY_DOWN      KeyCode = 0x28
	KEY_A         KeyCode = 0x41
	KEY_D         KeyCode = 0x44
	KEY_S         KeyCode = 0x53
	KEY_W         KeyCode = 0x57
	KEY_F1        KeyCode = 0x70
	KEY_UNKNOWN   KeyCode = 0xFF
	KEYS_MAX_KEYS         = 256
)

// Input keeps the current and previous keyboard state and fires key events
// on state changes.
type Input struct {
	bus      *EventBus
	current  [KEYS_MAX_KEYS]bool
	previous [KEYS_MAX_KEYS]bool
}

func NewInput(bus *EventBus) *Input {
	return &Input{bus: bus}
}

// Update copies the current state into the previous one. Call once per frame.
func (in *Input) Update() {
	in.previous = in.current
}

func (in *Input) IsKeyDown(key KeyCode) bool {
	return in.current[key]
}

func (in *Input) WasKeyDown(key KeyCode) bool {
	return in.previous[key]
}

func (in *Input) ProcessKey(key KeyCode, pressed bool) {
	// Only handle this if the state actually changed.
	if in.current[key] == pressed {
		return
	}
	in.current[key] = pressed

	code := EVENT_CODE_KEY_RELEASED
	if pressed {
		code = EVENT_CODE_KEY_PRESSED
	}
	in.bus.Fire(EventContext{
		Type: code,
		Data: &KeyEvent{KeyCode: key},
	})
}
