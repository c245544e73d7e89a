package engine

// Game is the application hooked into the engine. Every callback is
// optional.
type Game struct {
	State        interface{}
	FnInitialize Initialize
	FnUpdate     Update
	FnOnResize   OnResize
	FnShutdown   Shutdown
}

type Initialize func(e *Engine) error
type Update func(e *Engine, deltaTime float64) error
type OnResize func(width uint32, height uint32) error
type Shutdown func() error
