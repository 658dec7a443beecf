// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer_test

import (
	"testing"

	"github.com/devblok/trinvk/core"
	"github.com/devblok/trinvk/core/renderer"
	"github.com/devblok/trinvk/device"
	"github.com/devblok/trinvk/gfx"
	"github.com/devblok/trinvk/gfx/gfxtest"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	driver *gfxtest.Driver
	pd     *gfxtest.PhysicalDevice
	window *gfxtest.Window
	ctx    *core.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		driver: gfxtest.NewDriver(),
		window: gfxtest.NewWindow(800, 600),
	}
	f.pd = f.driver.AddDevice(gfxtest.NewPhysicalDevice("gpu", gfx.DeviceTypeDiscreteGPU))
	f.ctx = core.NewContext(f.driver)
	require.NoError(t, f.ctx.Init(core.Options{
		ApplicationName: "renderer test",
		SurfaceProvider: f.window,
	}))
	t.Cleanup(f.ctx.Cleanup)
	f.driver.ResetEvents()
	return f
}

func (f *fixture) device() *gfxtest.Device {
	return f.ctx.Device().(*gfxtest.Device)
}

func (f *fixture) lastSwapchain() *gfxtest.Swapchain {
	chains := f.device().Swapchains
	return chains[len(chains)-1]
}

// splitHost reports different graphics and present families.
type splitHost struct {
	*core.Context
}

func (h splitHost) QueueFamilies() device.QueueFamilyIndices {
	return device.QueueFamilyIndices{
		Graphics: device.Family(0),
		Present:  device.Family(1),
	}
}

func TestChooseSurfaceFormat(t *testing.T) {
	srgb := gfx.SurfaceFormat{Format: gfx.FormatB8G8R8A8SRGB, ColorSpace: gfx.ColorSpaceSRGBNonlinear}
	unorm := gfx.SurfaceFormat{Format: gfx.FormatB8G8R8A8Unorm, ColorSpace: gfx.ColorSpaceSRGBNonlinear}
	rgba := gfx.SurfaceFormat{Format: gfx.FormatR8G8B8A8Unorm, ColorSpace: gfx.ColorSpaceSRGBNonlinear}
	otherSpace := gfx.SurfaceFormat{Format: gfx.FormatB8G8R8A8SRGB, ColorSpace: 1000104001}

	assert.Equal(t, srgb, renderer.ChooseSurfaceFormat([]gfx.SurfaceFormat{unorm, srgb}))
	assert.Equal(t, rgba, renderer.ChooseSurfaceFormat([]gfx.SurfaceFormat{rgba, unorm}))
	assert.Equal(t, otherSpace, renderer.ChooseSurfaceFormat([]gfx.SurfaceFormat{otherSpace}))
	assert.Equal(t, gfx.SurfaceFormat{}, renderer.ChooseSurfaceFormat(nil))
}

func TestChoosePresentMode(t *testing.T) {
	assert.Equal(t, gfx.PresentModeMailbox, renderer.ChoosePresentMode([]gfx.PresentMode{gfx.PresentModeFIFO, gfx.PresentModeMailbox}))
	assert.Equal(t, gfx.PresentModeFIFO, renderer.ChoosePresentMode([]gfx.PresentMode{gfx.PresentModeImmediate, gfx.PresentModeFIFO}))
	assert.Equal(t, gfx.PresentModeFIFO, renderer.ChoosePresentMode(nil))
}

func TestChooseExtent(t *testing.T) {
	caps := gfx.SurfaceCapabilities{
		CurrentExtent:  gfx.Extent{Width: 1280, Height: 720},
		MinImageExtent: gfx.Extent{Width: 16, Height: 16},
		MaxImageExtent: gfx.Extent{Width: 2048, Height: 2048},
	}
	assert.Equal(t, gfx.Extent{Width: 1280, Height: 720}, renderer.ChooseExtent(caps, 300, 200))

	caps.CurrentExtent = gfx.Extent{Width: gfx.UndefinedExtent, Height: gfx.UndefinedExtent}
	for _, tc := range []struct {
		name          string
		width, height int
		want          gfx.Extent
	}{
		{"window size", 300, 200, gfx.Extent{Width: 300, Height: 200}},
		{"clamped up", 4, -1, gfx.Extent{Width: 16, Height: 16}},
		{"clamped down", 4000, 3000, gfx.Extent{Width: 2048, Height: 2048}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, renderer.ChooseExtent(caps, tc.width, tc.height))
		})
	}
}

func TestChooseImageCount(t *testing.T) {
	assert.Equal(t, uint32(3), renderer.ChooseImageCount(gfx.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 8}))
	assert.Equal(t, uint32(3), renderer.ChooseImageCount(gfx.SurfaceCapabilities{MinImageCount: 3, MaxImageCount: 3}))
	assert.Equal(t, uint32(5), renderer.ChooseImageCount(gfx.SurfaceCapabilities{MinImageCount: 4, MaxImageCount: 0}))
}

func TestSwapchainCreate(t *testing.T) {
	f := newFixture(t)
	sc := renderer.NewSwapchain(f.ctx, f.window)
	require.NoError(t, sc.Create())
	defer sc.Destroy()

	info := f.lastSwapchain().Info
	assert.Equal(t, gfx.FormatB8G8R8A8SRGB, info.Format.Format)
	assert.Equal(t, gfx.PresentModeMailbox, info.PresentMode)
	assert.Equal(t, gfx.Extent{Width: 800, Height: 600}, info.Extent)
	assert.Equal(t, uint32(3), info.ImageCount)
	assert.Nil(t, info.SharingFamilies)
	assert.Equal(t, f.ctx.Surface(), info.Surface)

	assert.Equal(t, 3, sc.ImageCount())
	assert.Equal(t, 3, f.driver.Live("ImageView"))
	assert.Equal(t, 3, f.driver.Live("Framebuffer"))
	assert.Equal(t, 1, f.driver.Live("RenderPass"))
	assert.Equal(t, 1, sc.Generation())
	assert.Equal(t, gfx.FormatB8G8R8A8SRGB, sc.ImageView(2).(*gfxtest.ImageView).Format)

	assert.Error(t, sc.Create(), "creating twice")
}

func TestSwapchainConcurrentSharing(t *testing.T) {
	f := newFixture(t)
	sc := renderer.NewSwapchain(splitHost{f.ctx}, f.window)
	require.NoError(t, sc.Create())
	defer sc.Destroy()

	assert.Equal(t, []uint32{0, 1}, f.lastSwapchain().Info.SharingFamilies)
}

func TestSwapchainUsesWindowSizeWhenSurfaceLeavesIt(t *testing.T) {
	f := newFixture(t)
	f.pd.Capabilities.CurrentExtent = gfx.Extent{Width: gfx.UndefinedExtent, Height: gfx.UndefinedExtent}
	f.window.Width, f.window.Height = 1024, 768

	sc := renderer.NewSwapchain(f.ctx, f.window)
	require.NoError(t, sc.Create())
	defer sc.Destroy()

	assert.Equal(t, gfx.Extent{Width: 1024, Height: 768}, sc.Extent())
}

func TestSwapchainCreateFailureReleasesEverything(t *testing.T) {
	for _, tc := range []struct {
		op   string
		kind error
	}{
		{"SurfaceCapabilities", gfx.ErrSwapchainCreationFailed},
		{"CreateSwapchain", gfx.ErrSwapchainCreationFailed},
		{"Images", gfx.ErrSwapchainCreationFailed},
		{"CreateImageView", gfx.ErrResourceCreationFailed},
		{"CreateRenderPass", gfx.ErrResourceCreationFailed},
		{"CreateFramebuffer", gfx.ErrResourceCreationFailed},
	} {
		t.Run(tc.op, func(t *testing.T) {
			f := newFixture(t)
			f.driver.FailOn(tc.op, errors.New("injected"))

			sc := renderer.NewSwapchain(f.ctx, f.window)
			err := sc.Create()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.kind), err.Error())

			for _, kind := range []string{"Swapchain", "ImageView", "RenderPass", "Framebuffer"} {
				assert.Zero(t, f.driver.Live(kind), kind)
			}
			assert.Empty(t, f.driver.DoubleReleases())
			assert.Nil(t, sc.Handle())
		})
	}
}

func TestSwapchainInadequateSurface(t *testing.T) {
	f := newFixture(t)
	f.pd.Modes = nil

	err := renderer.NewSwapchain(f.ctx, f.window).Create()
	assert.True(t, errors.Is(err, gfx.ErrSwapchainCreationFailed))
	assert.Zero(t, f.driver.Live("Swapchain"))
}

func TestSwapchainRecreate(t *testing.T) {
	f := newFixture(t)
	sc := renderer.NewSwapchain(f.ctx, f.window)
	require.NoError(t, sc.Create())
	defer sc.Destroy()
	old := f.lastSwapchain()

	f.pd.Capabilities.CurrentExtent = gfx.Extent{Width: 1920, Height: 1080}
	f.driver.ResetEvents()
	require.NoError(t, sc.Recreate())

	assert.True(t, old.Released())
	assert.Equal(t, gfx.Extent{Width: 1920, Height: 1080}, sc.Extent())
	assert.Equal(t, 2, sc.Generation())
	assert.Equal(t, 3, f.driver.Live("Framebuffer"))
	assert.Equal(t, 1, f.driver.Live("Swapchain"))

	assert.Equal(t, 0, f.driver.Index("WaitIdle"))
	assert.True(t, f.driver.LastIndex("DestroySwapchain") < f.driver.Index("CreateSwapchain"))
	assert.True(t, f.driver.LastIndex("DestroyFramebuffer") < f.driver.Index("DestroySwapchain"))
}

func TestSwapchainRecreateWaitsWhileMinimized(t *testing.T) {
	renderer.MinimizedPollDelay = 0
	f := newFixture(t)
	f.pd.Capabilities.CurrentExtent = gfx.Extent{Width: gfx.UndefinedExtent, Height: gfx.UndefinedExtent}

	sc := renderer.NewSwapchain(f.ctx, f.window)
	require.NoError(t, sc.Create())
	defer sc.Destroy()

	f.window.Width, f.window.Height = 0, 0
	f.window.Pending = [][2]int{{0, 0}, {640, 0}, {640, 480}}
	require.NoError(t, sc.Recreate())

	assert.Equal(t, 3, f.window.Polls)
	assert.Equal(t, gfx.Extent{Width: 640, Height: 480}, sc.Extent())
}

func TestSwapchainRecreateWindowClosed(t *testing.T) {
	renderer.MinimizedPollDelay = 0
	f := newFixture(t)
	sc := renderer.NewSwapchain(f.ctx, f.window)
	require.NoError(t, sc.Create())
	defer sc.Destroy()

	f.window.Width = 0
	f.window.CloseAfter = 2

	err := sc.Recreate()
	assert.True(t, errors.Is(err, renderer.ErrWindowClosed))
	assert.Equal(t, 2, f.window.Polls)
	assert.Equal(t, 1, sc.Generation(), "the old swapchain is kept")
	assert.NotNil(t, sc.Handle())
}
