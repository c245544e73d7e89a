package testbed

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/forge/engine"
	"github.com/spaghettifunk/forge/engine/core"
	"github.com/spaghettifunk/forge/engine/renderer"
)

// GridHalfSize is how many triangles the grid extends on each side of the
// origin.
const GridHalfSize = 20

type TestGame struct {
	*engine.Game
}

type gameState struct {
	material string
	// first grid object in the renderables, the grid runs to the end.
	gridStart int
	monkey    int

	width  uint32
	height uint32
}

// NewTestGame builds the demo scene: the monkey at the origin surrounded by
// a grid of small triangles drawn with material.
func NewTestGame(material string) (*TestGame, error) {
	switch material {
	case "":
		material = renderer.DefaultMeshMaterial
	case renderer.DefaultMeshMaterial, renderer.RedMeshMaterial:
	default:
		return nil, errors.Errorf("unknown material %q, expected %s or %s", material, renderer.DefaultMeshMaterial, renderer.RedMeshMaterial)
	}

	tg := &TestGame{
		Game: &engine.Game{
			State: &gameState{
				material: material,
				monkey:   -1,
			},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnOnResize = tg.OnResize
	tg.FnShutdown = tg.Shutdown

	return tg, nil
}

func (g *TestGame) state() *gameState {
	return g.State.(*gameState)
}

func (g *TestGame) Initialize(e *engine.Engine) error {
	core.LogDebug("TestGame Initialize fn....")

	state := g.state()
	scene := e.Renderer().Scene()

	defaultMaterial := scene.Material(renderer.DefaultMeshMaterial)
	gridMaterial := scene.Material(state.material)
	if defaultMaterial == nil || gridMaterial == nil {
		return errors.Errorf("the renderer did not create the %s and %s materials", renderer.DefaultMeshMaterial, state.material)
	}

	if monkey := scene.Mesh(engine.MonkeyMesh); monkey != nil {
		state.monkey = len(scene.Renderables)
		scene.Add(renderer.RenderObject{
			Mesh:      monkey,
			Material:  defaultMaterial,
			Transform: mgl32.Ident4(),
		})
	}

	triangle := scene.Mesh(engine.TriangleMesh)
	if triangle == nil {
		return errors.Errorf("mesh %s is not loaded", engine.TriangleMesh)
	}
	state.gridStart = len(scene.Renderables)
	scene.Add(gridObjects(triangle, gridMaterial)...)

	// The view is translate(0,-6,-10), the inverse of the camera transform.
	e.Camera().SetPosition(mgl32.Vec3{0, 6, 10})
	e.Camera().SetRotation(mgl32.Vec3{})
	e.Camera().FovY = 70

	e.Bus().Register(core.EVENT_CODE_KEY_PRESSED, g.gameOnKey(e))

	core.LogInfo("Scene ready: %d render objects, grid uses %s.", len(scene.Renderables), state.material)
	return nil
}

// gridObjects lays triangles out every unit on the XZ plane, scaled down to
// a fifth.
func gridObjects(mesh *renderer.Mesh, material *renderer.Material) []renderer.RenderObject {
	side := 2*GridHalfSize + 1
	objects := make([]renderer.RenderObject, 0, side*side)
	scale := mgl32.Scale3D(0.2, 0.2, 0.2)
	for x := -GridHalfSize; x <= GridHalfSize; x++ {
		for y := -GridHalfSize; y <= GridHalfSize; y++ {
			translation := mgl32.Translate3D(float32(x), 0, float32(y))
			objects = append(objects, renderer.RenderObject{
				Mesh:      mesh,
				Material:  material,
				Transform: translation.Mul4(scale),
			})
		}
	}
	return objects
}

func (g *TestGame) Update(e *engine.Engine, deltaTime float64) error {
	state := g.state()
	scene := e.Renderer().Scene()

	// Perform a small rotation on the monkey, 0.4 degrees per frame.
	if state.monkey >= 0 {
		angle := mgl32.DegToRad(float32(e.FrameNumber()) * 0.4)
		scene.Renderables[state.monkey].Transform = mgl32.HomogRotate3DY(angle)
	}
	return nil
}

// ToggleMaterial switches the grid between the two built-in materials.
func (g *TestGame) ToggleMaterial(e *engine.Engine) {
	state := g.state()
	next := renderer.RedMeshMaterial
	if state.material == renderer.RedMeshMaterial {
		next = renderer.DefaultMeshMaterial
	}
	scene := e.Renderer().Scene()
	material := scene.Material(next)
	if material == nil {
		core.LogWarn("Material %s not found, keeping %s.", next, state.material)
		return
	}
	for i := state.gridStart; i < len(scene.Renderables); i++ {
		scene.Renderables[i].Material = material
	}
	state.material = next
	core.LogInfo("Grid material switched to %s.", next)
}

// Material is the material the grid is drawn with.
func (g *TestGame) Material() string {
	return g.state().material
}

func (g *TestGame) OnResize(width uint32, height uint32) error {
	state := g.state()
	state.width = width
	state.height = height
	return nil
}

func (g *TestGame) Shutdown() error {
	core.LogDebug("TestGame Shutdown fn....")
	return nil
}

func (g *TestGame) gameOnKey(e *engine.Engine) core.FnOnEvent {
	return func(context core.EventContext) bool {
		ke, ok := context.Data.(*core.KeyEvent)
		if !ok {
			return false
		}
		switch ke.KeyCode {
		case core.KEY_SPACE:
			g.ToggleMaterial(e)
			return true
		case core.KEY_F1:
			fps, frameTime := e.Metrics().Frame()
			pos := e.Camera().Position()
			core.LogInfo("FPS: %5.1f(%4.1fms) Pos=[%7.3f %7.3f %7.3f] Frame=%d", fps, frameTime, pos.X(), pos.Y(), pos.Z(), e.FrameNumber())
			return true
		}
		return false
	}
}
