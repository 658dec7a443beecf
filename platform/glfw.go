// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package platform

import (
	"unsafe"

	"github.com/devblok/trinvk/core"
	"github.com/devblok/trinvk/gfx"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"
	"github.com/veandco/go-sdl2/sdl"
)

// NewGLFWWindow initialises GLFW and opens a window without a client API
func NewGLFWWindow(cfg core.WindowConfiguration) (*GLFWWindow, error) {
	if err := glfw.Init(); err != nil {
		return nil, errors.Wrap(err, "glfw.Init()")
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return nil, errors.New("glfw.VulkanSupported(): no Vulkan loader")
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	if cfg.Hidden {
		glfw.WindowHint(glfw.Visible, glfw.False)
	}
	window, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, errors.Wrap(err, "glfw.CreateWindow()")
	}

	g := &GLFWWindow{window: window}
	window.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		g.resized = true
	})
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
		}
	})
	return g, nil
}

// GLFWWindow is a Window backed by GLFW
type GLFWWindow struct {
	window  *glfw.Window
	resized bool
}

// ProcAddr implements Window
func (g *GLFWWindow) ProcAddr() unsafe.Pointer {
	return glfw.GetVulkanGetInstanceProcAddress()
}

// RequiredInstanceExtensions implements core.SurfaceProvider
func (g *GLFWWindow) RequiredInstanceExtensions() []string {
	return g.window.GetRequiredInstanceExtensions()
}

// CreateSurface implements core.SurfaceProvider
func (g *GLFWWindow) CreateSurface(instance gfx.Instance) (uintptr, error) {
	surface, err := g.window.CreateWindowSurface(instance.Inner(), nil)
	if err != nil {
		return 0, errors.Wrap(err, "glfw.CreateWindowSurface()")
	}
	return surface, nil
}

// WindowSize implements core.SurfaceProvider, the framebuffer of
// a minimized window is 0x0
func (g *GLFWWindow) WindowSize() (int, int) {
	return g.window.GetFramebufferSize()
}

// PollEvents implements core.SurfaceProvider
func (g *GLFWWindow) PollEvents() {
	glfw.PollEvents()
}

// ShouldClose implements core.SurfaceProvider
func (g *GLFWWindow) ShouldClose() bool {
	return g.window.ShouldClose()
}

// Resized implements Window
func (g *GLFWWindow) Resized() bool {
	r := g.resized
	g.resized = false
	return r
}

// ShowError implements ErrorReporter, GLFW has no dialogs so SDL shows
// a message box without a parent
func (g *GLFWWindow) ShowError(title, message string) error {
	return sdl.ShowSimpleMessageBox(sdl.MESSAGEBOX_ERROR, title, message, nil)
}

// Destroy implements Window
func (g *GLFWWindow) Destroy() {
	if g.window == nil {
		return
	}
	g.window.Destroy()
	g.window = nil
	glfw.Terminate()
}
