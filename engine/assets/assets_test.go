package assets

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/forge/engine/assets/loaders"
)

func spirv(words ...uint32) []byte {
	b := make([]byte, 0, len(words)*4)
	for _, w := range words {
		b = append(b, byte(w), byte(w>>8), byte(w>>16), byte(w>>24))
	}
	return b
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func newAssetRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "shaders", "tri_mesh.vert.spv"), spirv(loaders.SPIRVMagic, 1))
	writeFile(t, filepath.Join(root, "shaders", "tri_mesh.vert"), []byte("#version 450\n"))
	writeFile(t, filepath.Join(root, "models", "tri.obj"), []byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"))
	writeFile(t, filepath.Join(root, "README.md"), []byte("not an asset"))
	return root
}

func newManager(t *testing.T, root string, watch bool) *AssetManager {
	t.Helper()
	am, err := NewAssetManager()
	if err != nil {
		t.Fatalf("expected no error; got %v", err)
	}
	if err := am.Initialize(root, watch); err != nil {
		t.Fatalf("expected no error; got %v", err)
	}
	t.Cleanup(func() { am.Shutdown() })
	return am
}

func TestInitializeIndexesKnownFiles(t *testing.T) {
	am := newManager(t, newAssetRoot(t), false)

	if am.Count() != 3 {
		t.Fatalf("expected 3 indexed files; got %d", am.Count())
	}
	info, ok := am.Lookup("shaders/tri_mesh.vert.spv")
	if !ok || info.Type != loaders.ResourceTypeShader {
		t.Fatalf("expected the compiled shader to be indexed; got %+v, %v", info, ok)
	}
	if _, ok := am.Lookup("README.md"); ok {
		t.Fatalf("expected README.md to be ignored")
	}
}

func TestInitializeMissingRoot(t *testing.T) {
	am, err := NewAssetManager()
	if err != nil {
		t.Fatal(err)
	}
	defer am.Shutdown()
	if err := am.Initialize(filepath.Join(t.TempDir(), "missing"), false); err == nil {
		t.Fatalf("expected an error for a missing root; got nil")
	}
}

func TestLoadShader(t *testing.T) {
	am := newManager(t, newAssetRoot(t), false)

	code, err := am.LoadShader("tri_mesh.vert")
	if err != nil {
		t.Fatalf("expected no error; got %v", err)
	}
	if len(code) != 2 || code[0] != loaders.SPIRVMagic {
		t.Fatalf("expected 2 SPIR-V words; got %#v", code)
	}
	info, _ := am.Lookup("shaders/tri_mesh.vert.spv")
	if info.LastLoaded.IsZero() {
		t.Fatalf("expected LastLoaded to be set")
	}

	if _, err := am.LoadShader("missing.frag"); !errors.Is(err, ErrAssetNotFound) {
		t.Fatalf("expected ErrAssetNotFound; got %v", err)
	}
}

func TestLoadModel(t *testing.T) {
	am := newManager(t, newAssetRoot(t), false)

	model, err := am.LoadModel("models/tri.obj")
	if err != nil {
		t.Fatalf("expected no error; got %v", err)
	}
	if len(model.Vertices) != 3 {
		t.Fatalf("expected 3 vertices; got %d", len(model.Vertices))
	}
}

func TestWatcherTracksChanges(t *testing.T) {
	root := newAssetRoot(t)
	am := newManager(t, root, true)

	changed := make(chan AssetInfo, 16)
	am.OnChange(func(info AssetInfo, op fsnotify.Op) {
		select {
		case changed <- info:
		default:
		}
	})

	writeFile(t, filepath.Join(root, "shaders", "triangle.frag.spv"), spirv(loaders.SPIRVMagic, 2))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case info := <-changed:
			if info.Path == filepath.Join("shaders", "triangle.frag.spv") {
				if _, err := am.LoadShader("triangle.frag"); err != nil {
					t.Fatalf("expected the new shader to load; got %v", err)
				}
				return
			}
		case <-deadline:
			t.Fatalf("expected a change notification for the new shader")
		}
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	am := newManager(t, newAssetRoot(t), true)
	if err := am.Shutdown(); err != nil {
		t.Fatalf("expected no error; got %v", err)
	}
	if err := am.Shutdown(); err != nil {
		t.Fatalf("expected no error on the second call; got %v", err)
	}
	if err := am.Initialize(t.TempDir(), false); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed; got %v", err)
	}
}
