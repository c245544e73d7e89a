/*
forge opens a window and renders the demo scene: a rotating monkey over a
grid of triangles. Press space to switch the grid material.
*/
package main

import (
	"os"

	"github.com/spaghettifunk/forge/cmd"
	"github.com/spaghettifunk/forge/engine/core"
	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "forge"
	app.Usage = "render the forge demo scene with vulkan"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Value: "",
			Usage: "TOML configuration file",
		},
		cli.IntFlag{
			Name:  "width",
			Usage: "window width, overrides the configuration",
		},
		cli.IntFlag{
			Name:  "height",
			Usage: "window height, overrides the configuration",
		},
		cli.StringFlag{
			Name:  "shader",
			Usage: "initial grid material, defaultmesh or redmesh",
		},
		cli.BoolFlag{
			Name:  "validation",
			Usage: "enable the vulkan validation layers",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "debug, info, warn or error",
		},
	}
	app.Action = cmd.Run

	if err := app.Run(os.Args); err != nil {
		core.LogFatal("%v", err)
	}
}
