//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
	"github.com/magefile/mage/target"
)

type Build mg.Namespace

const shaderDir = "assets/shaders"

var shaderExtensions = []string{".vert", ".frag"}

// Compiles every GLSL source under assets/shaders to SPIR-V with glslc.
func (Build) Shaders() error {
	return buildShaders()
}

// Builds the forge binary.
func (Build) Engine() error {
	mg.Deps(Build.Shaders)
	return sh.RunV("go", "build", "-o", "bin/forge", ".")
}

func buildShaders() error {
	sources, err := shaderSources(shaderDir)
	if err != nil {
		return err
	}
	for _, src := range sources {
		out := src + ".spv"
		// Skip shaders whose module is newer than the source.
		changed, err := target.Path(out, src)
		if err != nil {
			return err
		}
		if !changed {
			continue
		}
		if err := sh.RunV("glslc", src, "-o", out); err != nil {
			return fmt.Errorf("failed to compile %s: %w", src, err)
		}
	}
	return nil
}

func shaderSources(dir string) ([]string, error) {
	var sources []string
	for _, ext := range shaderExtensions {
		matches, err := filepath.Glob(filepath.Join(dir, "*"+ext))
		if err != nil {
			return nil, err
		}
		sources = append(sources, matches...)
	}
	if len(sources) == 0 {
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("shader directory: %w", err)
		}
	}
	return sources, nil
}
