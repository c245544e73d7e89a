//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

type Run mg.Namespace

// Compiles the shaders and runs the engine with forge.toml.
func (Run) Engine() error {
	if err := buildShaders(); err != nil {
		return err
	}
	fmt.Println("Run engine...")
	return sh.RunV("go", "run", ".", "--config", "forge.toml")
}

// Runs the engine with the validation layers and debug logging.
func (Run) Debug() error {
	if err := buildShaders(); err != nil {
		return err
	}
	return sh.RunV("go", "run", ".", "--config", "forge.toml", "--validation", "--log-level", "debug")
}

// Runs the unit tests. None of them need a GPU.
func (Run) Tests() error {
	return sh.RunV("go", "test", "./...")
}
