//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

const shaderDir = "internal/assets/shaders"

type Build mg.Namespace

// Compiles the GLSL shaders to SPIR-V with glslc.
func (Build) Shaders() error {
	if _, err := executeCmd("glslc", withArgs(shaderDir+"/shader.vert", "-o", shaderDir+"/vert.spv"), withStream()); err != nil {
		return err
	}
	if _, err := executeCmd("glslc", withArgs(shaderDir+"/shader.frag", "-o", shaderDir+"/frag.spv"), withStream()); err != nil {
		return err
	}
	return nil
}

// Builds the sandbox binary. Shaders are compiled first since they are
// embedded into the binary.
func (Build) Sandbox() error {
	mg.Deps(Build.Shaders)
	_, err := executeCmd("go", withArgs("build", "./cmd/sandbox"), withStream())
	return err
}
