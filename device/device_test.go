// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device_test

import (
	"testing"

	"github.com/devblok/trinvk/device"
	"github.com/devblok/trinvk/gfx"
	"github.com/devblok/trinvk/gfx/gfxtest"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInstance(t *testing.T, driver *gfxtest.Driver) (gfx.Instance, gfx.Surface) {
	t.Helper()
	instance, err := driver.CreateInstance(gfx.InstanceInfo{ApplicationName: "test"})
	require.NoError(t, err)
	return instance, instance.WrapSurface(1)
}

func TestCombinedFamilyIsComplete(t *testing.T) {
	driver := gfxtest.NewDriver()
	pd := driver.AddDevice(gfxtest.NewPhysicalDevice("gpu", gfx.DeviceTypeDiscreteGPU))
	_, surface := newInstance(t, driver)

	indices, err := device.FindQueueFamilies(pd, surface)
	require.NoError(t, err)

	assert.Equal(t, device.Family(0), indices.Graphics)
	assert.Equal(t, device.Family(0), indices.Present)
	assert.Equal(t, device.Family(0), indices.Transfer)
	assert.True(t, indices.IsComplete())
	assert.Equal(t, []uint32{0}, indices.Unique())
	assert.Empty(t, pd.SupportQueries, "present fallback must not query the surface")
}

func TestDedicatedTransferFamilyPreferred(t *testing.T) {
	driver := gfxtest.NewDriver()
	pd := driver.AddDevice(gfxtest.NewPhysicalDevice("gpu", gfx.DeviceTypeDiscreteGPU))
	pd.Families = []gfx.QueueFamily{
		{Flags: gfx.QueueGraphics | gfx.QueueCompute | gfx.QueueTransfer, Count: 16},
		{Flags: gfx.QueueCompute | gfx.QueueTransfer, Count: 8},
		{Flags: gfx.QueueTransfer, Count: 2},
	}
	_, surface := newInstance(t, driver)

	indices, err := device.FindQueueFamilies(pd, surface)
	require.NoError(t, err)

	assert.Equal(t, device.Family(0), indices.Graphics)
	assert.Equal(t, device.Family(1), indices.Transfer, "first dedicated transfer family wins")
	assert.Equal(t, []uint32{0, 1}, indices.Unique())
}

func TestPresentSearchedOnSurfaceWithoutGraphics(t *testing.T) {
	driver := gfxtest.NewDriver()
	pd := driver.AddDevice(gfxtest.NewPhysicalDevice("compute only", gfx.DeviceTypeDiscreteGPU))
	pd.Families = []gfx.QueueFamily{
		{Flags: gfx.QueueCompute, Count: 4},
		{Flags: gfx.QueueTransfer, Count: 1},
	}
	pd.PresentFamilies = []uint32{1}
	_, surface := newInstance(t, driver)

	indices, err := device.FindQueueFamilies(pd, surface)
	require.NoError(t, err)

	assert.False(t, indices.Graphics.Valid)
	assert.Equal(t, device.Family(1), indices.Present)
	assert.Equal(t, []uint32{0, 1}, pd.SupportQueries)
	assert.False(t, indices.IsComplete())
}

func TestIsComplete(t *testing.T) {
	for _, tc := range []struct {
		name     string
		indices  device.QueueFamilyIndices
		complete bool
	}{
		{"empty", device.QueueFamilyIndices{}, false},
		{"graphics only", device.QueueFamilyIndices{Graphics: device.Family(0)}, false},
		{"present only", device.QueueFamilyIndices{Present: device.Family(0)}, false},
		{"transfer only", device.QueueFamilyIndices{Transfer: device.Family(0)}, false},
		{"graphics and present", device.QueueFamilyIndices{Graphics: device.Family(0), Present: device.Family(1)}, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.complete, tc.indices.IsComplete())
		})
	}
}

func TestMissingExtensions(t *testing.T) {
	assert.Empty(t, device.MissingExtensions(
		[]string{"VK_KHR_swapchain"},
		[]string{"VK_KHR_maintenance1", "VK_KHR_swapchain"}))
	assert.Equal(t, []string{"VK_KHR_a", "VK_KHR_b"}, device.MissingExtensions(
		[]string{"VK_KHR_b", "VK_KHR_swapchain", "VK_KHR_a"},
		[]string{"VK_KHR_swapchain"}))
	assert.Empty(t, device.MissingExtensions(nil, nil))
}

func TestScore(t *testing.T) {
	c := device.Candidate{
		Suitable: true,
		Properties: gfx.DeviceProperties{
			Type:                gfx.DeviceTypeDiscreteGPU,
			MaxImageDimension2D: 16384,
		},
		Features: gfx.DeviceFeatures{
			GeometryShader:     true,
			TessellationShader: true,
			MultiViewport:      true,
		},
	}
	assert.Equal(t, uint64(1000+16384+100+50+50), device.Score(c))

	c.Properties.Type = gfx.DeviceTypeIntegratedGPU
	c.Features = gfx.DeviceFeatures{}
	assert.Equal(t, uint64(500+16384), device.Score(c))

	c.Properties.Type = gfx.DeviceTypeCPU
	assert.Equal(t, uint64(16384), device.Score(c))

	c.Suitable = false
	assert.Zero(t, device.Score(c))
}

func TestSelectPicksHighestScore(t *testing.T) {
	driver := gfxtest.NewDriver()
	integrated := driver.AddDevice(gfxtest.NewPhysicalDevice("integrated", gfx.DeviceTypeIntegratedGPU))
	integrated.Feats.GeometryShader = true
	driver.AddDevice(gfxtest.NewPhysicalDevice("discrete", gfx.DeviceTypeDiscreteGPU))
	instance, surface := newInstance(t, driver)

	best, err := device.Select(instance, surface, nil)
	require.NoError(t, err)
	assert.Equal(t, "discrete", best.Properties.Name)
	assert.Equal(t, uint64(1000+4096), best.Score)
	assert.True(t, best.Suitable)
}

func TestSelectNeverPicksUnsuitable(t *testing.T) {
	driver := gfxtest.NewDriver()

	noSwapchain := driver.AddDevice(gfxtest.NewPhysicalDevice("no swapchain", gfx.DeviceTypeDiscreteGPU))
	noSwapchain.DeviceExtensions = nil
	noSwapchain.Props.MaxImageDimension2D = 32768

	noFormats := driver.AddDevice(gfxtest.NewPhysicalDevice("no formats", gfx.DeviceTypeDiscreteGPU))
	noFormats.Formats = nil
	noFormats.Props.MaxImageDimension2D = 32768

	noModes := driver.AddDevice(gfxtest.NewPhysicalDevice("no present modes", gfx.DeviceTypeDiscreteGPU))
	noModes.Modes = nil

	noGraphics := driver.AddDevice(gfxtest.NewPhysicalDevice("no graphics", gfx.DeviceTypeDiscreteGPU))
	noGraphics.Families = []gfx.QueueFamily{{Flags: gfx.QueueCompute, Count: 1}}

	driver.AddDevice(gfxtest.NewPhysicalDevice("modest", gfx.DeviceTypeCPU))

	instance, surface := newInstance(t, driver)

	candidates, err := device.Candidates(instance, surface, []string{device.SwapchainExtension})
	require.NoError(t, err)
	require.Len(t, candidates, 5)
	for _, c := range candidates[:4] {
		assert.False(t, c.Suitable, c.Properties.Name)
		assert.Zero(t, c.Score, c.Properties.Name)
		assert.NotEmpty(t, c.Reason, c.Properties.Name)
	}
	assert.Contains(t, candidates[0].Reason, "VK_KHR_swapchain")

	ranked := device.Rank(candidates)
	require.Len(t, ranked, 1)

	best, err := device.Select(instance, surface, nil)
	require.NoError(t, err)
	assert.Equal(t, "modest", best.Properties.Name)
}

func TestRankIsStable(t *testing.T) {
	ranked := device.Rank([]device.Candidate{
		{Properties: gfx.DeviceProperties{Name: "a"}, Suitable: true, Score: 10},
		{Properties: gfx.DeviceProperties{Name: "b"}, Suitable: true, Score: 20},
		{Properties: gfx.DeviceProperties{Name: "c"}, Suitable: true, Score: 10},
		{Properties: gfx.DeviceProperties{Name: "d"}, Suitable: false},
	})
	names := make([]string, len(ranked))
	for i, c := range ranked {
		names[i] = c.Properties.Name
	}
	assert.Equal(t, []string{"b", "a", "c"}, names)
}

func TestSelectErrors(t *testing.T) {
	t.Run("no devices", func(t *testing.T) {
		driver := gfxtest.NewDriver()
		instance, surface := newInstance(t, driver)
		_, err := device.Select(instance, surface, nil)
		assert.True(t, errors.Is(err, gfx.ErrNoDevicesFound))
	})

	t.Run("no suitable device", func(t *testing.T) {
		driver := gfxtest.NewDriver()
		pd := driver.AddDevice(gfxtest.NewPhysicalDevice("gpu", gfx.DeviceTypeDiscreteGPU))
		pd.Modes = nil
		instance, surface := newInstance(t, driver)
		_, err := device.Select(instance, surface, nil)
		assert.True(t, errors.Is(err, gfx.ErrNoSuitableDevice))
	})

	t.Run("query failure only rejects", func(t *testing.T) {
		driver := gfxtest.NewDriver()
		driver.AddDevice(gfxtest.NewPhysicalDevice("gpu", gfx.DeviceTypeDiscreteGPU))
		driver.FailOn("SurfaceCapabilities", errors.New("VK_ERROR_SURFACE_LOST_KHR"))
		instance, surface := newInstance(t, driver)

		candidates, err := device.Candidates(instance, surface, nil)
		require.NoError(t, err)
		assert.False(t, candidates[0].Suitable)
		assert.Contains(t, candidates[0].Reason, "VK_ERROR_SURFACE_LOST_KHR")
	})
}

func TestSelectCreatesNothing(t *testing.T) {
	driver := gfxtest.NewDriver()
	driver.AddDevice(gfxtest.NewPhysicalDevice("gpu", gfx.DeviceTypeDiscreteGPU))
	instance, surface := newInstance(t, driver)
	before := driver.Live("")

	_, err := device.Select(instance, surface, []string{"VK_KHR_swapchain"})
	require.NoError(t, err)
	assert.Equal(t, before, driver.Live(""))
}
