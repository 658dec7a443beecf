// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package platform

import (
	"unsafe"

	"github.com/devblok/trinvk/core"
	"github.com/devblok/trinvk/gfx"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"
)

// NewSDLWindow initialises SDL with its Vulkan loader and opens a resizable window
func NewSDLWindow(cfg core.WindowConfiguration) (*SDLWindow, error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, errors.Wrap(err, "sdl.Init()")
	}

	if err := sdl.VulkanLoadLibrary(""); err != nil {
		sdl.Quit()
		return nil, errors.Wrap(err, "sdl.VulkanLoadLibrary()")
	}

	var flags uint32 = sdl.WINDOW_VULKAN | sdl.WINDOW_RESIZABLE
	if cfg.Hidden {
		flags |= sdl.WINDOW_HIDDEN
	}

	window, err := sdl.CreateWindow(cfg.Title,
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		int32(cfg.Width),
		int32(cfg.Height),
		flags)
	if err != nil {
		sdl.VulkanUnloadLibrary()
		sdl.Quit()
		return nil, errors.Wrap(err, "sdl.CreateWindow()")
	}

	return &SDLWindow{window: window}, nil
}

// SDLWindow is a Window backed by SDL2
type SDLWindow struct {
	window  *sdl.Window
	closing bool
	resized bool
}

// ProcAddr implements Window
func (s *SDLWindow) ProcAddr() unsafe.Pointer {
	return sdl.VulkanGetVkGetInstanceProcAddr()
}

// RequiredInstanceExtensions implements core.SurfaceProvider
func (s *SDLWindow) RequiredInstanceExtensions() []string {
	return s.window.VulkanGetInstanceExtensions()
}

// CreateSurface implements core.SurfaceProvider
func (s *SDLWindow) CreateSurface(instance gfx.Instance) (uintptr, error) {
	surface, err := s.window.VulkanCreateSurface(instance.Inner())
	if err != nil {
		return 0, errors.Wrap(err, "sdl.VulkanCreateSurface()")
	}
	return uintptr(surface), nil
}

// WindowSize implements core.SurfaceProvider, a minimized window is 0x0
func (s *SDLWindow) WindowSize() (int, int) {
	if s.window.GetFlags()&sdl.WINDOW_MINIMIZED != 0 {
		return 0, 0
	}
	w, h := s.window.VulkanGetDrawableSize()
	return int(w), int(h)
}

// PollEvents implements core.SurfaceProvider
func (s *SDLWindow) PollEvents() {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch et := event.(type) {
		case *sdl.KeyboardEvent:
			if et.Keysym.Sym == sdl.K_ESCAPE {
				s.closing = true
			}
		case *sdl.WindowEvent:
			switch et.Event {
			case sdl.WINDOWEVENT_SIZE_CHANGED, sdl.WINDOWEVENT_MINIMIZED, sdl.WINDOWEVENT_RESTORED:
				s.resized = true
			}
		case *sdl.QuitEvent:
			s.closing = true
		}
	}
}

// ShouldClose implements core.SurfaceProvider
func (s *SDLWindow) ShouldClose() bool {
	return s.closing
}

// Resized implements Window
func (s *SDLWindow) Resized() bool {
	r := s.resized
	s.resized = false
	return r
}

// ShowError implements ErrorReporter with a message box on top of the window
func (s *SDLWindow) ShowError(title, message string) error {
	return sdl.ShowSimpleMessageBox(sdl.MESSAGEBOX_ERROR, title, message, s.window)
}

// Destroy implements Window
func (s *SDLWindow) Destroy() {
	if s.window == nil {
		return
	}
	if err := s.window.Destroy(); err != nil {
		log.WithError(err).Warn("sdl window destroy")
	}
	s.window = nil
	sdl.VulkanUnloadLibrary()
	sdl.Quit()
}
