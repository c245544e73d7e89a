package components

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestCameraViewIsInverseTranslation(t *testing.T) {
	cam := NewCamera(mgl32.Vec3{0, 6, 10})
	exp := mgl32.Translate3D(0, -6, -10)
	if !cam.View().ApproxEqualThreshold(exp, 1e-5) {
		t.Fatalf("expected view %v; got %v", exp, cam.View())
	}

	cam.SetPosition(mgl32.Vec3{1, 0, 0})
	exp = mgl32.Translate3D(-1, 0, 0)
	if !cam.View().ApproxEqualThreshold(exp, 1e-5) {
		t.Fatalf("expected view to be rebuilt after a move; got %v", cam.View())
	}
}
