package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Application.Width != 1700 || cfg.Application.Height != 900 {
		t.Fatalf("expected 1700x900 window; got %dx%d", cfg.Application.Width, cfg.Application.Height)
	}
	if cfg.Renderer.FramesInFlight != 1 {
		t.Fatalf("expected 1 frame in flight; got %d", cfg.Renderer.FramesInFlight)
	}
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forge.toml")
	doc := `
[application]
name = "test"
width = 800

[renderer]
validation = true
frames_in_flight = 2
present_mode = "Mailbox"

[log]
level = "debug"
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}

	specs := []struct {
		descr string
		got   interface{}
		exp   interface{}
	}{
		{"name", cfg.Application.Name, "test"},
		{"width", cfg.Application.Width, uint32(800)},
		{"height keeps default", cfg.Application.Height, uint32(900)},
		{"validation", cfg.Renderer.Validation, true},
		{"frames in flight", cfg.Renderer.FramesInFlight, 2},
		{"present mode is normalized", cfg.Renderer.PresentMode, "mailbox"},
		{"log level", cfg.Log.Level, "debug"},
		{"asset root keeps default", cfg.Assets.Root, "assets"},
	}
	for specIndex, spec := range specs {
		if spec.got != spec.exp {
			t.Fatalf("[spec %d: %s] expected %v; got %v", specIndex, spec.descr, spec.exp, spec.got)
		}
	}
}

func TestConfigValidation(t *testing.T) {
	specs := []struct {
		descr string
		doc   string
	}{
		{"zero frames in flight", "[renderer]\nframes_in_flight = 0\n"},
		{"unknown present mode", "[renderer]\npresent_mode = \"vsync\"\n"},
		{"zero width", "[application]\nwidth = 0\n"},
	}
	for specIndex, spec := range specs {
		cfg := DefaultConfig()
		err := cfg.Decode([]byte(spec.doc))
		if !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("[spec %d: %s] expected ErrInvalidConfig; got %v", specIndex, spec.descr, err)
		}
	}
}

func TestConfigRejectsUnknownKeys(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Decode([]byte("[renderer]\nmsaa = 4\n")); err == nil {
		t.Fatalf("expected unknown key to be rejected")
	}
}
