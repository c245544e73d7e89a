package loaders

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
)

func spirv(words ...uint32) []byte {
	b := make([]byte, 0, len(words)*4)
	for _, w := range words {
		b = append(b, byte(w), byte(w>>8), byte(w>>16), byte(w>>24))
	}
	return b
}

func TestBytesToBytecode(t *testing.T) {
	code, err := BytesToBytecode(spirv(SPIRVMagic, 0x00010000, 42))
	if err != nil {
		t.Fatalf("expected no error; got %v", err)
	}
	if len(code) != 3 || code[0] != SPIRVMagic || code[2] != 42 {
		t.Fatalf("expected the words back; got %#v", code)
	}
}

func TestBytesToBytecodeRejects(t *testing.T) {
	tests := map[string][]byte{
		"empty":       nil,
		"unaligned":   append(spirv(SPIRVMagic), 0),
		"wrong magic": spirv(0xdeadbeef, 1),
	}
	for name, in := range tests {
		if _, err := BytesToBytecode(in); !errors.Is(err, ErrInvalidSPIRV) {
			t.Fatalf("%s: expected ErrInvalidSPIRV; got %v", name, err)
		}
	}
}

func TestShaderLoaderLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "triangle.frag.spv")
	if err := os.WriteFile(path, spirv(SPIRVMagic, 7), 0o644); err != nil {
		t.Fatal(err)
	}
	loader := &ShaderLoader{}
	res, err := loader.Load(path, map[string]string{"name": "triangle.frag"})
	if err != nil {
		t.Fatalf("expected no error; got %v", err)
	}
	if res.Name != "triangle.frag" || res.DataSize != 8 || res.Type != ResourceTypeShader {
		t.Fatalf("expected an 8 byte shader named triangle.frag; got %+v", res)
	}
	if code := res.Data.([]uint32); code[1] != 7 {
		t.Fatalf("expected second word 7; got %d", code[1])
	}
	if err := loader.Unload(res); err != nil || res.Data != nil {
		t.Fatalf("expected unload to drop the data; got %v, %v", err, res.Data)
	}
}

func TestShaderLoaderMissingFile(t *testing.T) {
	_, err := (&ShaderLoader{}).Load(filepath.Join(t.TempDir(), "nope.spv"), nil)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected a not-exist error; got %v", err)
	}
}

func TestDetermineResourceType(t *testing.T) {
	tests := map[string]ResourceType{
		"shaders/tri_mesh.vert.spv": ResourceTypeShader,
		"shaders/tri_mesh.vert":     ResourceTypeShaderSource,
		"models/monkey.obj":         ResourceTypeModel,
		"data/blob.bin":             ResourceTypeBinary,
		"README.md":                 ResourceTypeNone,
	}
	for path, want := range tests {
		if got := DetermineResourceType(path); got != want {
			t.Fatalf("expected %s for %s; got %s", want, path, got)
		}
	}
}
