// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/devblok/trinvk/core"
	"github.com/devblok/trinvk/core/renderer"
	"github.com/devblok/trinvk/gfx"
	"github.com/devblok/trinvk/gfx/gfxtest"
	"github.com/devblok/trinvk/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resizingWindow reports one resize
type resizingWindow struct {
	*gfxtest.Window
	resized bool
}

func (w *resizingWindow) Resized() bool {
	r := w.resized
	w.resized = false
	return r
}

func TestLoopRunsUntilClosed(t *testing.T) {
	driver := gfxtest.NewDriver()
	driver.AddDevice(gfxtest.NewPhysicalDevice("gpu", gfx.DeviceTypeDiscreteGPU))
	window := &resizingWindow{Window: gfxtest.NewWindow(800, 600), resized: true}
	window.CloseAfter = 20

	ctx := core.NewContext(driver)
	require.NoError(t, ctx.Init(core.Options{ApplicationName: "loop", SurfaceProvider: window}))
	defer ctx.Cleanup()

	r, err := renderer.NewRenderer(ctx, window, renderer.Configuration{})
	require.NoError(t, err)
	defer r.Destroy()

	require.NoError(t, loop(r, window, core.NewTime(core.TimeConfiguration{FramesPerSecond: 1000, EventPollDelay: 1})))
	assert.Equal(t, 20, window.Polls)
	assert.False(t, window.resized)
}

func TestLoadConfigurationFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trin.toml")
	require.NoError(t, ioutil.WriteFile(path, []byte("[window]\nbackend = \"sdl\"\n"), 0644))

	*configPath = path
	*backend = "glfw"
	*noValidate = true
	*logLevel = "debug"
	defer func() {
		*configPath, *backend, *noValidate, *logLevel = "", "", false, ""
	}()

	cfg, err := loadConfiguration()
	require.NoError(t, err)
	assert.Equal(t, "glfw", cfg.Window.Backend)
	assert.False(t, cfg.Application.EnableValidationLayers)
	assert.Equal(t, "debug", cfg.LogLevel)

	*backend = "vulkan"
	_, err = loadConfiguration()
	assert.Error(t, err)
}

func TestShaderTargetFromDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "tri.vert.spv"), []byte{3, 2, 35, 7}, 0644))

	cfg := core.DefaultConfiguration().Renderer
	cfg.ShaderDirectory = dir
	cfg.ShaderWatch = true

	st, err := newShaderTarget(cfg)
	require.NoError(t, err)
	defer st.Close()
	assert.Len(t, st.closers, 1, "the watcher is closed with the target")
	assert.Equal(t, "shaders", st.target.Name())

	cfg.ShaderArchive = filepath.Join(dir, "missing.kar")
	_, err = newShaderTarget(cfg)
	assert.Error(t, err)
}

func TestStaticShaders(t *testing.T) {
	src := shader.NewBoxSource(StaticShaders)
	names, err := src.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"triangle.frag.spv", "triangle.vert.spv"}, names)

	for _, name := range names {
		code, err := shader.Load(src, name)
		require.NoError(t, err, name)
		assert.True(t, len(code) > 5, "%s has more than a header", name)
	}
}

func TestShaderTargetEmbedded(t *testing.T) {
	*embedded = true
	defer func() { *embedded = false }()

	st, err := newShaderTarget(core.DefaultConfiguration().Renderer)
	require.NoError(t, err)
	defer st.Close()

	driver := gfxtest.NewDriver()
	driver.AddDevice(gfxtest.NewPhysicalDevice("gpu", gfx.DeviceTypeDiscreteGPU))
	window := gfxtest.NewWindow(800, 600)
	ctx := core.NewContext(driver)
	require.NoError(t, ctx.Init(core.Options{ApplicationName: "embedded", SurfaceProvider: window}))
	defer ctx.Cleanup()

	r, err := renderer.NewRenderer(ctx, window, renderer.Configuration{}, st.target)
	require.NoError(t, err)
	defer r.Destroy()

	assert.Equal(t, 2, driver.Live("ShaderModule"))
	_, ok := st.target.Module("triangle.vert.spv")
	assert.True(t, ok)
}
