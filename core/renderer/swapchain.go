// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"fmt"
	"time"

	"github.com/devblok/trinvk/device"
	"github.com/devblok/trinvk/gfx"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// MinimizedPollDelay is the pause between event polls while
// the window is minimized.
var MinimizedPollDelay = 10 * time.Millisecond

// ErrWindowClosed is returned when the window closes while
// waiting for it to be restored.
var ErrWindowClosed = errors.New("window closed")

// ChooseSurfaceFormat prefers 8 bit BGRA sRGB with the sRGB nonlinear
// color space and falls back to the first format offered.
func ChooseSurfaceFormat(formats []gfx.SurfaceFormat) gfx.SurfaceFormat {
	for _, f := range formats {
		if f.Format == gfx.FormatB8G8R8A8SRGB && f.ColorSpace == gfx.ColorSpaceSRGBNonlinear {
			return f
		}
	}
	if len(formats) == 0 {
		return gfx.SurfaceFormat{}
	}
	return formats[0]
}

// ChoosePresentMode prefers mailbox, FIFO is always available.
func ChoosePresentMode(modes []gfx.PresentMode) gfx.PresentMode {
	for _, m := range modes {
		if m == gfx.PresentModeMailbox {
			return m
		}
	}
	return gfx.PresentModeFIFO
}

// ChooseExtent uses the current extent of the surface, unless the surface
// leaves it to the swapchain, then the window size is clamped to the limits.
func ChooseExtent(caps gfx.SurfaceCapabilities, width, height int) gfx.Extent {
	if caps.CurrentExtent.Width != gfx.UndefinedExtent {
		return caps.CurrentExtent
	}
	return gfx.Extent{
		Width:  clamp(width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

func clamp(v int, min, max uint32) uint32 {
	if v < 0 {
		v = 0
	}
	u := uint32(v)
	if u < min {
		return min
	}
	if u > max {
		return max
	}
	return u
}

// ChooseImageCount asks for one image more than the minimum,
// a maximum of 0 means unbounded.
func ChooseImageCount(caps gfx.SurfaceCapabilities) uint32 {
	count := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

// NewSwapchain creates a swapchain manager, nothing is created
// until Create is called.
func NewSwapchain(host Host, window Window) *Swapchain {
	return &Swapchain{
		host:   host,
		window: window,
	}
}

// Swapchain manages the presentable images and everything sized to them:
// image views, the render pass and framebuffers. It is always replaced
// as a whole, never partially.
type Swapchain struct {
	host   Host
	window Window

	handle       gfx.Swapchain
	format       gfx.SurfaceFormat
	presentMode  gfx.PresentMode
	extent       gfx.Extent
	images       []gfx.Image
	views        []gfx.ImageView
	renderPass   gfx.RenderPass
	framebuffers []gfx.Framebuffer

	generation int
}

// Create builds the swapchain for the current surface. If any step fails
// everything built by this call is destroyed.
func (s *Swapchain) Create() (err error) {
	if s.handle != nil {
		return gfx.Fail(gfx.ErrSwapchainCreationFailed, "renderer.Swapchain.Create()", errors.New("already created"))
	}

	defer func() {
		if err != nil {
			s.Destroy()
		}
	}()

	dev := s.host.Device()

	support, err := device.QuerySwapchainSupport(s.host.PhysicalDevice(), s.host.Surface())
	if err != nil {
		return gfx.Fail(gfx.ErrSwapchainCreationFailed, "renderer.Swapchain.Create()", err)
	}
	if !support.IsAdequate() {
		return gfx.Fail(gfx.ErrSwapchainCreationFailed, "renderer.Swapchain.Create()",
			errors.New("surface offers no formats or present modes"))
	}

	width, height := s.window.WindowSize()
	s.format = ChooseSurfaceFormat(support.Formats)
	s.presentMode = ChoosePresentMode(support.PresentModes)
	s.extent = ChooseExtent(support.Capabilities, width, height)

	info := gfx.SwapchainInfo{
		Surface:      s.host.Surface(),
		Format:       s.format,
		PresentMode:  s.presentMode,
		Extent:       s.extent,
		ImageCount:   ChooseImageCount(support.Capabilities),
		PreTransform: support.Capabilities.CurrentTransform,
	}
	if families := s.host.QueueFamilies(); families.Graphics.Index != families.Present.Index {
		info.SharingFamilies = []uint32{families.Graphics.Index, families.Present.Index}
	}

	handle, err := dev.CreateSwapchain(info)
	if err != nil {
		return gfx.Fail(gfx.ErrSwapchainCreationFailed, "vk.CreateSwapchain()", err)
	}
	s.handle = handle

	if s.images, err = handle.Images(); err != nil {
		return gfx.Fail(gfx.ErrSwapchainCreationFailed, "vk.GetSwapchainImages()", err)
	}

	for i, image := range s.images {
		view, err := dev.CreateImageView(image, s.format.Format)
		if err != nil {
			return gfx.Fail(gfx.ErrResourceCreationFailed, fmt.Sprintf("vk.CreateImageView(%d)", i), err)
		}
		s.views = append(s.views, view)
	}

	if s.renderPass, err = dev.CreateRenderPass(s.format.Format); err != nil {
		return gfx.Fail(gfx.ErrResourceCreationFailed, "vk.CreateRenderPass()", err)
	}

	for i, view := range s.views {
		fb, err := dev.CreateFramebuffer(s.renderPass, view, s.extent)
		if err != nil {
			return gfx.Fail(gfx.ErrResourceCreationFailed, fmt.Sprintf("vk.CreateFramebuffer(%d)", i), err)
		}
		s.framebuffers = append(s.framebuffers, fb)
	}

	s.generation++
	log.WithFields(log.Fields{
		"extent":      fmt.Sprintf("%dx%d", s.extent.Width, s.extent.Height),
		"images":      len(s.images),
		"format":      s.format.Format,
		"presentMode": s.presentMode,
		"generation":  s.generation,
	}).Info("swapchain created")
	return nil
}

// Recreate rebuilds the swapchain after the surface changed. While the
// window is minimized it keeps polling events, returns ErrWindowClosed
// when the window is closed in the meantime.
func (s *Swapchain) Recreate() error {
	for {
		width, height := s.window.WindowSize()
		if width > 0 && height > 0 {
			break
		}
		if s.window.ShouldClose() {
			return ErrWindowClosed
		}
		s.window.PollEvents()
		if MinimizedPollDelay > 0 {
			time.Sleep(MinimizedPollDelay)
		}
	}

	if err := s.host.Device().WaitIdle(); err != nil {
		return errors.Wrap(err, "vk.DeviceWaitIdle()")
	}

	s.Destroy()
	return s.Create()
}

// Destroy releases the framebuffers, image views, render pass and the
// swapchain. Safe to call when nothing or only a part was created.
func (s *Swapchain) Destroy() {
	for _, fb := range s.framebuffers {
		fb.Release()
	}
	s.framebuffers = nil

	for _, view := range s.views {
		view.Release()
	}
	s.views = nil

	if s.renderPass != nil {
		s.renderPass.Release()
		s.renderPass = nil
	}

	if s.handle != nil {
		s.handle.Release()
		s.handle = nil
	}
	s.images = nil
}

// Handle returns the swapchain, nil when not created.
func (s *Swapchain) Handle() gfx.Swapchain {
	return s.handle
}

// Format returns the chosen surface format.
func (s *Swapchain) Format() gfx.SurfaceFormat {
	return s.format
}

// PresentMode returns the chosen present mode.
func (s *Swapchain) PresentMode() gfx.PresentMode {
	return s.presentMode
}

// Extent returns the size of the images.
func (s *Swapchain) Extent() gfx.Extent {
	return s.extent
}

// ImageCount returns the number of images in the chain.
func (s *Swapchain) ImageCount() int {
	return len(s.images)
}

// ImageView returns the view of an image.
func (s *Swapchain) ImageView(index uint32) gfx.ImageView {
	return s.views[index]
}

// Framebuffer returns the framebuffer of an image.
func (s *Swapchain) Framebuffer(index uint32) gfx.Framebuffer {
	return s.framebuffers[index]
}

// RenderPass returns the render pass drawing into the images.
func (s *Swapchain) RenderPass() gfx.RenderPass {
	return s.renderPass
}

// Generation counts successful creations.
func (s *Swapchain) Generation() int {
	return s.generation
}
