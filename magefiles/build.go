//go:build mage

package main

import (
	"fmt"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

type Build mg.Namespace

var shaderDir = filepath.Join("assets", "shaders")

// Compiles the GLSL shaders in assets/shaders to SPIR-V with glslc.
func (Build) Shaders() error {
	for _, stage := range []string{"vert", "frag"} {
		src := filepath.Join(shaderDir, fmt.Sprintf("shader.%s", stage))
		dst := filepath.Join(shaderDir, fmt.Sprintf("%s.spv", stage))
		if err := sh.RunV("glslc", src, "-o", dst); err != nil {
			return fmt.Errorf("compiling %s: %w", src, err)
		}
	}
	return nil
}

// Runs go mod tidy and builds the binary.
func (Build) Engine() error {
	if err := sh.Run("go", "mod", "tidy"); err != nil {
		return fmt.Errorf("failed to run go mod tidy: %w", err)
	}
	return sh.RunV("go", "build", "-o", "triangle", ".")
}
