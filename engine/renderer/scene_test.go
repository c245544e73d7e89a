package renderer

import (
	"testing"
)

func TestSceneMaterials(t *testing.T) {
	scene := NewScene()
	if scene.Material("defaultmesh") != nil {
		t.Fatal("expected no material in an empty scene")
	}

	mat := scene.CreateMaterial("defaultmesh", 1, 2, 0)
	if got := scene.Material("defaultmesh"); got != mat || got.Pipeline != 1 || got.Layout != 2 {
		t.Fatalf("expected the created material; got %+v", got)
	}

	replaced := scene.CreateMaterial("defaultmesh", 3, 2, 0)
	if scene.Material("defaultmesh") != replaced {
		t.Fatal("expected the material to be replaced")
	}
}

func TestSceneMeshes(t *testing.T) {
	scene := NewScene()
	mesh := triangleMesh("triangle")
	scene.AddMesh(mesh)
	if scene.Mesh("triangle") != mesh {
		t.Fatal("expected the mesh to be found by name")
	}
	if scene.Mesh("monkey") != nil {
		t.Fatal("expected nil for an unknown mesh")
	}
}

func TestBatchByMaterial(t *testing.T) {
	a := &Material{Name: "a"}
	b := &Material{Name: "b"}
	m1, m2, m3 := &Mesh{Name: "1"}, &Mesh{Name: "2"}, &Mesh{Name: "3"}

	got := batchByMaterial([]RenderObject{
		{Mesh: m1, Material: a},
		{Mesh: m2, Material: b},
		{Mesh: m3, Material: a},
	})
	exp := []*Mesh{m1, m3, m2}
	for i, obj := range got {
		if obj.Mesh != exp[i] {
			t.Fatalf("expected mesh %s at %d; got %s", exp[i].Name, i, obj.Mesh.Name)
		}
	}
}
