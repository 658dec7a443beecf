// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package platform opens the native window the engine renders into,
// backed by SDL2 or GLFW.
package platform

import (
	"unsafe"

	"github.com/devblok/trinvk/core"
	"github.com/pkg/errors"
)

// Window backends
const (
	BackendSDL  = "sdl"
	BackendGLFW = "glfw"
)

// ErrorReporter shows fatal errors to the user
type ErrorReporter interface {
	ShowError(title, message string) error
}

// ReporterFunc adapts a function to ErrorReporter
type ReporterFunc func(title, message string) error

// ShowError implements ErrorReporter
func (f ReporterFunc) ShowError(title, message string) error {
	return f(title, message)
}

// Window is a native window that can be rendered into
type Window interface {
	core.SurfaceProvider
	ErrorReporter

	// ProcAddr returns vkGetInstanceProcAddr of the loader the window system uses
	ProcAddr() unsafe.Pointer

	// Resized reports if the drawable size changed since the last call
	Resized() bool

	// Destroy closes the window and shuts the backend down
	Destroy()
}

// Open opens a window with the configured backend
func Open(cfg core.WindowConfiguration) (Window, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, errors.Errorf("platform.Open(): window size %dx%d", cfg.Width, cfg.Height)
	}
	switch cfg.Backend {
	case BackendSDL, "":
		w, err := NewSDLWindow(cfg)
		if err != nil {
			return nil, err
		}
		return w, nil
	case BackendGLFW:
		w, err := NewGLFWWindow(cfg)
		if err != nil {
			return nil, err
		}
		return w, nil
	}
	return nil, errors.Errorf("platform.Open(): unknown backend %q", cfg.Backend)
}
