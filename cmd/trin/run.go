// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"github.com/devblok/trinvk/core"
	"github.com/devblok/trinvk/core/renderer"
	"github.com/devblok/trinvk/gfx"
	"github.com/devblok/trinvk/gfx/vkr"
	"github.com/devblok/trinvk/platform"
	"github.com/devblok/trinvk/shader"
	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Window is what the frame loop needs from a window
type Window interface {
	core.SurfaceProvider
	Resized() bool
}

func run(cfg core.Configuration, window platform.Window) error {
	driver, err := vkr.NewDriver(window.ProcAddr())
	if err != nil {
		return gfx.Fail(gfx.ErrInitializationFailure, "vkr.NewDriver()", err)
	}

	options, err := core.NewOptions(cfg, window)
	if err != nil {
		return err
	}

	ctx := core.NewContext(driver)
	if err := ctx.Init(options); err != nil {
		return err
	}
	defer ctx.Cleanup()

	shaders, err := newShaderTarget(cfg.Renderer)
	if err != nil {
		return err
	}
	defer shaders.Close()

	background := renderer.NewClearTarget("clear", glm.Vec4(cfg.Renderer.ClearColor))
	r, err := renderer.NewRenderer(ctx, window, renderer.NewConfiguration(cfg.Renderer), background, shaders.target)
	if err != nil {
		return err
	}
	defer r.Destroy()

	return loop(r, window, core.NewTime(cfg.Time))
}

// loop polls events and draws frames until the window is closed
func loop(r *renderer.Renderer, window Window, t *core.Time) error {
	defer t.Stop()

	for {
		select {
		case <-t.EventTicker().C:
			window.PollEvents()
			if window.ShouldClose() {
				log.WithFields(log.Fields{
					"frames":  r.Frames(),
					"elapsed": t.Elapsed(),
				}).Info("event loop exited")
				return nil
			}
			if window.Resized() {
				r.NotifyResized()
			}
		case <-t.FpsTicker().C:
			if err := r.DrawFrame(); err != nil {
				if errors.Is(err, renderer.ErrWindowClosed) {
					return nil
				}
				return err
			}
		}
	}
}

type shaderTarget struct {
	target  *renderer.ShaderTarget
	closers []func() error
}

// newShaderTarget picks the shader source: an archive when configured,
// the embedded box on request, the shader directory otherwise
func newShaderTarget(cfg core.RendererConfiguration) (*shaderTarget, error) {
	st := &shaderTarget{}

	var source shader.Source
	var changes <-chan string
	switch {
	case cfg.ShaderArchive != "":
		archive, err := shader.OpenArchive(cfg.ShaderArchive)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, archive.Close)
		source = archive
	case *embedded:
		source = shader.NewBoxSource(StaticShaders)
	default:
		source = shader.NewDirSource(cfg.ShaderDirectory)
		if cfg.ShaderWatch {
			w, err := shader.Watch(cfg.ShaderDirectory)
			if err != nil {
				log.WithError(err).Warn("shader hot reload disabled")
			} else {
				st.closers = append(st.closers, w.Close)
				changes = w.Changes()
			}
		}
	}

	names, err := source.List()
	if err != nil {
		log.WithError(err).Warn("no shaders listed")
	}
	log.WithField("shaders", names).Debug("shader source")

	st.target = renderer.NewShaderTarget("shaders", source, names, changes)
	return st, nil
}

func (s *shaderTarget) Close() {
	for _, c := range s.closers {
		if err := c(); err != nil {
			log.WithError(err).Warn("closing shader source")
		}
	}
}
