package loaders

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

const quadOBJ = `# a unit quad
o quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vn 0 0 1
s off
f 1/1/1 2/1/1 3/1/1 4/1/1
`

func TestParseOBJFanTriangulation(t *testing.T) {
	model, err := ParseOBJ("quad.obj", strings.NewReader(quadOBJ))
	if err != nil {
		t.Fatalf("expected no error; got %v", err)
	}
	if len(model.Vertices) != 6 {
		t.Fatalf("expected 6 vertices; got %d", len(model.Vertices))
	}
	want := []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 0, 0}, {1, 1, 0}, {0, 1, 0}}
	for i, w := range want {
		if model.Vertices[i].Position != w {
			t.Fatalf("expected vertex %d at %v; got %v", i, w, model.Vertices[i].Position)
		}
		if model.Vertices[i].Color != (mgl32.Vec3{0, 0, 1}) {
			t.Fatalf("expected the color to be the normal; got %v", model.Vertices[i].Color)
		}
	}
}

func TestParseOBJNegativeIndices(t *testing.T) {
	src := "v 0 0 0\nv 2 0 0\nv 0 2 0\nvn 1 0 0\nf -3//-1 -2//-1 -1//-1\n"
	model, err := ParseOBJ("neg.obj", strings.NewReader(src))
	if err != nil {
		t.Fatalf("expected no error; got %v", err)
	}
	if len(model.Vertices) != 3 {
		t.Fatalf("expected 3 vertices; got %d", len(model.Vertices))
	}
	if model.Vertices[1].Position != (mgl32.Vec3{2, 0, 0}) {
		t.Fatalf("expected the second vertex at (2,0,0); got %v", model.Vertices[1].Position)
	}
	if model.Vertices[2].Normal != (mgl32.Vec3{1, 0, 0}) {
		t.Fatalf("expected normal (1,0,0); got %v", model.Vertices[2].Normal)
	}
}

func TestParseOBJWithoutNormals(t *testing.T) {
	model, err := ParseOBJ("flat.obj", strings.NewReader("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"))
	if err != nil {
		t.Fatalf("expected no error; got %v", err)
	}
	for _, v := range model.Vertices {
		if v.Normal != (mgl32.Vec3{}) || v.Color != (mgl32.Vec3{}) {
			t.Fatalf("expected zero normal and color; got %v and %v", v.Normal, v.Color)
		}
	}
}

func TestParseOBJErrorsCarryLine(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line string
	}{
		{"bad float", "v 0 0 0\nv 1 x 0\n", "bad.obj:2"},
		{"short vertex", "v 0 0\n", "bad.obj:1"},
		{"index out of range", "v 0 0 0\nv 1 0 0\nv 0 1 0\n\nf 1 2 4\n", "bad.obj:5"},
		{"degenerate face", "v 0 0 0\nv 1 0 0\nf 1 2\n", "bad.obj:3"},
		{"missing normal", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1//1 2//1 3//1\n", "bad.obj:4"},
	}
	for _, tt := range tests {
		_, err := ParseOBJ("bad.obj", strings.NewReader(tt.src))
		if err == nil {
			t.Fatalf("%s: expected an error; got nil", tt.name)
		}
		if !strings.Contains(err.Error(), tt.line) {
			t.Fatalf("%s: expected the error to name %s; got %v", tt.name, tt.line, err)
		}
	}
}

func TestModelLoaderLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quad.obj")
	if err := os.WriteFile(path, []byte(quadOBJ), 0o644); err != nil {
		t.Fatal(err)
	}
	res, err := (&ModelLoader{}).Load(path, nil)
	if err != nil {
		t.Fatalf("expected no error; got %v", err)
	}
	model := res.Data.(*Model)
	if res.Type != ResourceTypeModel || model.Name != "quad.obj" || len(model.Vertices) != 6 {
		t.Fatalf("expected a quad model resource; got %+v", res)
	}
}
