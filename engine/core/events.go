package core

type EventCode uint16

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT EventCode = 0x01
	// Keyboard key pressed. Data is *KeyEvent.
	EVENT_CODE_KEY_PRESSED EventCode = 0x02
	// Keyboard key released. Data is *KeyEvent.
	EVENT_CODE_KEY_RELEASED EventCode = 0x03
	// Framebuffer resized by the OS. Data is *SystemEvent.
	EVENT_CODE_RESIZED EventCode = 0x08

	MAX_EVENT_CODE EventCode = 0xFF
)

type EventContext struct {
	Type EventCode
	Data interface{}
}

type KeyEvent struct {
	KeyCode KeyCode
}

type SystemEvent struct {
	WindowWidth  uint32
	WindowHeight uint32
}

// Should return true if handled.
type FnOnEvent func(ctx EventContext) bool

// EventBus dispatches events to the listeners registered for their code, in
// registration order, until one of them reports the event as handled.
type EventBus struct {
	registered map[EventCode][]FnOnEvent
}

func NewEventBus() *EventBus {
	return &EventBus{
		registered: make(map[EventCode][]FnOnEvent),
	}
}

func (b *EventBus) Register(code EventCode, onEvent FnOnEvent) {
	b.registered[code] = append(b.registered[code], onEvent)
}

// Fire returns true if a listener handled the event.
func (b *EventBus) Fire(ctx EventContext) bool {
	for _, fn := range b.registered[ctx.Type] {
		if fn(ctx) {
			return true
		}
	}
	return false
}

// Shutdown drops every registration.
func (b *EventBus) Shutdown() {
	clear(b.registered)
}
