//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

type Run mg.Namespace

// Compiles the shaders and runs the engine.
func (Run) Engine() error {
	mg.Deps(Build.Shaders)
	return sh.RunV("go", "run", ".")
}

// Runs the unit tests. None of them need a GPU.
func (Run) Tests() error {
	return sh.RunV("go", "test", "./...")
}
