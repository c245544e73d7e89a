package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spaghettifunk/forge/engine"
	"github.com/spaghettifunk/forge/engine/assets"
	"github.com/spaghettifunk/forge/engine/core"
	"github.com/spaghettifunk/forge/engine/platform"
	"github.com/spaghettifunk/forge/engine/renderer/vulkan"
	"github.com/spaghettifunk/forge/testbed"
	"github.com/urfave/cli"
)

// Flags is the subset of command line options that override the
// configuration file.
type Flags interface {
	IsSet(name string) bool
	Int(name string) int
	String(name string) string
	Bool(name string) bool
}

// LoadConfig reads the configuration file named by --config and applies the
// command line overrides on top of it.
func LoadConfig(flags Flags) (*core.Config, error) {
	cfg, err := core.LoadConfig(flags.String("config"))
	if err != nil {
		return nil, err
	}
	if flags.IsSet("width") {
		cfg.Application.Width = uint32(flags.Int("width"))
	}
	if flags.IsSet("height") {
		cfg.Application.Height = uint32(flags.Int("height"))
	}
	if flags.IsSet("shader") {
		cfg.Renderer.Material = flags.String("shader")
	}
	if flags.IsSet("validation") {
		cfg.Renderer.Validation = flags.Bool("validation")
	}
	if flags.IsSet("log-level") {
		cfg.Log.Level = flags.String("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Run wires the platform, the vulkan backend and the asset manager into the
// engine and runs the testbed until the window closes or a signal arrives.
func Run(ctx *cli.Context) error {
	cfg, err := LoadConfig(ctx)
	if err != nil {
		return err
	}
	if err := core.SetLogLevel(cfg.Log.Level); err != nil {
		return errors.Wrapf(err, "invalid log level %q", cfg.Log.Level)
	}

	game, err := testbed.NewTestGame(cfg.Renderer.Material)
	if err != nil {
		return err
	}

	bus := core.NewEventBus()
	input := core.NewInput(bus)

	p, err := platform.New(bus, input)
	if err != nil {
		return err
	}
	app := cfg.Application
	if err := p.Startup(app.Name, app.StartPosX, app.StartPosY, app.Width, app.Height); err != nil {
		return err
	}
	defer p.Shutdown()

	backend, err := vulkan.New(p.ProcAddr())
	if err != nil {
		return err
	}

	am, err := assets.NewAssetManager()
	if err != nil {
		return err
	}
	defer am.Shutdown()
	if err := am.Initialize(cfg.Assets.Root, cfg.Assets.Watch); err != nil {
		return err
	}

	e, err := engine.New(cfg, engine.Systems{
		Bus:       bus,
		Input:     input,
		Window:    p,
		Substrate: backend,
		Assets:    am,
	}, game.Game)
	if err != nil {
		return err
	}

	if err := e.Initialize(); err != nil {
		return err
	}
	defer e.Shutdown()

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer signal.Stop(sigCh)

	// start shutdown goroutine
	go func() {
		// capture sigterm and other system call here
		if _, ok := <-sigCh; ok {
			core.LogInfo("Signal received, stopping.")
			e.Stop()
		}
	}()

	return e.Run()
}
