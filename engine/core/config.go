package core

import (
	"bytes"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

type Config struct {
	Application ApplicationConfig `toml:"application"`
	Renderer    RendererConfig    `toml:"renderer"`
	Assets      AssetsConfig      `toml:"assets"`
	Log         LogConfig         `toml:"log"`
}

type ApplicationConfig struct {
	Name      string `toml:"name"`
	StartPosX uint32 `toml:"pos_x"`
	StartPosY uint32 `toml:"pos_y"`
	Width     uint32 `toml:"width"`
	Height    uint32 `toml:"height"`
}

type RendererConfig struct {
	// Validation enables the validation layers and the debug messenger.
	Validation     bool   `toml:"validation"`
	FramesInFlight int    `toml:"frames_in_flight"`
	PresentMode    string `toml:"present_mode"`
	DiscreteGPU    bool   `toml:"discrete_gpu"`
	// Material used by the grid when the engine starts.
	Material string `toml:"material"`
}

type AssetsConfig struct {
	Root             string `toml:"root"`
	MeshVertexShader string `toml:"mesh_vertex_shader"`
	ColorFragment    string `toml:"color_fragment_shader"`
	RedFragment      string `toml:"red_fragment_shader"`
	Model            string `toml:"model"`
	Watch            bool   `toml:"watch"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

var presentModes = []string{"immediate", "mailbox", "fifo", "fifo_relaxed"}

func DefaultConfig() *Config {
	return &Config{
		Application: ApplicationConfig{
			Name:      "Forge",
			StartPosX: 100,
			StartPosY: 100,
			Width:     1700,
			Height:    900,
		},
		Renderer: RendererConfig{
			FramesInFlight: 1,
			PresentMode:    "fifo",
			Material:       "defaultmesh",
		},
		Assets: AssetsConfig{
			Root:             "assets",
			MeshVertexShader: "tri_mesh.vert",
			ColorFragment:    "colored_triangle.frag",
			RedFragment:      "triangle.frag",
			Model:            "models/monkey_smooth.obj",
			Watch:            true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig decodes the TOML file at path over the defaults. An empty path
// returns the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}
	if err := cfg.Decode(data); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config file %s", path)
	}
	return cfg, nil
}

// Decode applies a TOML document on top of the current values and validates
// the result. Unknown keys are rejected.
func (c *Config) Decode(data []byte) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		return err
	}
	return c.Validate()
}

func (c *Config) Validate() error {
	if c.Application.Width == 0 || c.Application.Height == 0 {
		return errors.Wrapf(ErrInvalidConfig, "window size %dx%d", c.Application.Width, c.Application.Height)
	}
	if c.Renderer.FramesInFlight < 1 {
		return errors.Wrapf(ErrInvalidConfig, "frames_in_flight must be at least 1, got %d", c.Renderer.FramesInFlight)
	}
	mode := strings.ToLower(c.Renderer.PresentMode)
	valid := false
	for _, m := range presentModes {
		if m == mode {
			valid = true
			break
		}
	}
	if !valid {
		return errors.Wrapf(ErrInvalidConfig, "unknown present_mode %q", c.Renderer.PresentMode)
	}
	c.Renderer.PresentMode = mode
	return nil
}
