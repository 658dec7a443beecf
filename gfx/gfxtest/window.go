// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfxtest

import "github.com/devblok/trinvk/gfx"

// NewWindow creates a window of the given size that requires
// the surface extension.
func NewWindow(width, height int) *Window {
	return &Window{
		Width:      width,
		Height:     height,
		Extensions: []string{"VK_KHR_surface", "VK_KHR_xlib_surface"},
		Handle:     0xbeef,
	}
}

// Window is a scripted surface provider.
type Window struct {
	Width, Height int
	Extensions    []string
	Handle        uintptr
	SurfaceErr    error

	// Pending sizes are applied one per PollEvents call.
	Pending [][2]int

	// CloseAfter closes the window after that many polls, 0 never closes it.
	CloseAfter int

	Polls  int
	closed bool
}

// RequiredInstanceExtensions returns the platform extensions.
func (w *Window) RequiredInstanceExtensions() []string {
	return w.Extensions
}

// CreateSurface returns the configured handle.
func (w *Window) CreateSurface(instance gfx.Instance) (uintptr, error) {
	if w.SurfaceErr != nil {
		return 0, w.SurfaceErr
	}
	return w.Handle, nil
}

// WindowSize returns the current size.
func (w *Window) WindowSize() (int, int) {
	return w.Width, w.Height
}

// PollEvents applies the next pending size.
func (w *Window) PollEvents() {
	w.Polls++
	if len(w.Pending) > 0 {
		w.Width, w.Height = w.Pending[0][0], w.Pending[0][1]
		w.Pending = w.Pending[1:]
	}
	if w.CloseAfter > 0 && w.Polls >= w.CloseAfter {
		w.closed = true
	}
}

// ShouldClose reports if the window was closed.
func (w *Window) ShouldClose() bool {
	return w.closed
}

// Close closes the window.
func (w *Window) Close() {
	w.closed = true
}
