// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package core brings up the GPU connection: instance, validation,
// surface, device selection, logical device and its queues.
package core

import (
	"github.com/devblok/trinvk/gfx"
)

// Well known layer and extension names.
const (
	KhronosValidationLayer = "VK_LAYER_KHRONOS_validation"

	PortabilityEnumerationExtension = "VK_KHR_portability_enumeration"
	PhysicalDeviceProperties2       = "VK_KHR_get_physical_device_properties2"
	PortabilitySubsetExtension      = "VK_KHR_portability_subset"
)

// SurfaceProvider owns the native window that is rendered into.
type SurfaceProvider interface {
	// RequiredInstanceExtensions returns the extensions the window system
	// needs to create surfaces
	RequiredInstanceExtensions() []string

	// CreateSurface creates a native surface for the window
	CreateSurface(instance gfx.Instance) (uintptr, error)

	// WindowSize returns the drawable size in pixels,
	// a minimized window reports 0 in both dimensions
	WindowSize() (int, int)

	// PollEvents processes pending window events
	PollEvents()

	// ShouldClose reports if the user asked to close the window
	ShouldClose() bool
}

// ShaderType represents the type of shader thats loaded
type ShaderType int

// Identifies shader objects with their types
const (
	VertexShaderType ShaderType = iota
	FragmentShaderType
	ComputeShaderType
	UnknownShaderType
)

func (s ShaderType) String() string {
	switch s {
	case VertexShaderType:
		return "vert"
	case FragmentShaderType:
		return "frag"
	case ComputeShaderType:
		return "comp"
	default:
		return "unknown"
	}
}
