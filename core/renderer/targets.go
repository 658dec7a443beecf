// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"math"

	"github.com/devblok/trinvk/gfx"
	"github.com/devblok/trinvk/shader"
	glm "github.com/go-gl/mathgl/mgl32"
	log "github.com/sirupsen/logrus"
)

// NewClearTarget creates a target that clears the frame to color.
func NewClearTarget(name string, color glm.Vec4) *ClearTarget {
	return &ClearTarget{
		name:  name,
		base:  color,
		color: color,
	}
}

// ClearTarget clears the frame to a color. With a non zero Pulse
// the brightness oscillates with the frame count.
type ClearTarget struct {
	name  string
	base  glm.Vec4
	color glm.Vec4

	// Pulse is the phase step per frame in radians
	Pulse float64
}

// Name implements Target
func (c *ClearTarget) Name() string {
	return c.name
}

// Update implements Updatable
func (c *ClearTarget) Update(ctx TargetContext) error {
	if c.Pulse == 0 {
		c.color = c.base
		return nil
	}
	k := float32(0.75 + 0.25*math.Sin(float64(ctx.Frame)*c.Pulse))
	rgb := c.base.Vec3().Mul(k)
	c.color = glm.Vec4{
		glm.Clamp(rgb.X(), 0, 1),
		glm.Clamp(rgb.Y(), 0, 1),
		glm.Clamp(rgb.Z(), 0, 1),
		c.base.W(),
	}
	return nil
}

// ClearColor implements Clearer
func (c *ClearTarget) ClearColor() glm.Vec4 {
	return c.color
}

// NewShaderTarget creates a target owning the shader modules of names.
// Names received on changes are reloaded on the next update, changes may be nil.
func NewShaderTarget(name string, source shader.Source, names []string, changes <-chan string) *ShaderTarget {
	return &ShaderTarget{
		name:    name,
		source:  source,
		names:   names,
		changes: changes,
		modules: make(map[string]gfx.ShaderModule),
	}
}

// ShaderTarget keeps shader modules loaded and swaps them
// when their source changes.
type ShaderTarget struct {
	name    string
	source  shader.Source
	names   []string
	changes <-chan string
	modules map[string]gfx.ShaderModule
	reloads int
}

// Name implements Target
func (s *ShaderTarget) Name() string {
	return s.name
}

// Prepare implements Preparable
func (s *ShaderTarget) Prepare(ctx TargetContext) error {
	for _, name := range s.names {
		module, err := s.load(ctx.Device, name)
		if err != nil {
			s.Finalize(ctx)
			return err
		}
		s.modules[name] = module
	}
	return nil
}

func (s *ShaderTarget) load(dev gfx.Device, name string) (gfx.ShaderModule, error) {
	code, err := shader.Load(s.source, name)
	if err != nil {
		return nil, err
	}
	module, err := dev.CreateShaderModule(code)
	if err != nil {
		return nil, gfx.Fail(gfx.ErrResourceCreationFailed, "vk.CreateShaderModule("+name+")", err)
	}
	return module, nil
}

// Update implements Updatable. A shader that fails to reload
// keeps its previous module.
func (s *ShaderTarget) Update(ctx TargetContext) error {
	for {
		select {
		case name, ok := <-s.changes:
			if !ok {
				s.changes = nil
				return nil
			}
			s.reload(ctx.Device, name)
		default:
			return nil
		}
	}
}

func (s *ShaderTarget) reload(dev gfx.Device, name string) {
	old, known := s.modules[name]
	if !known {
		return
	}
	module, err := s.load(dev, name)
	if err != nil {
		log.WithError(err).WithField("shader", name).Warn("shader reload failed, keeping previous module")
		return
	}
	old.Release()
	s.modules[name] = module
	s.reloads++
	log.WithField("shader", name).Info("shader reloaded")
}

// Finalize implements Finalizable
func (s *ShaderTarget) Finalize(TargetContext) {
	for name, module := range s.modules {
		module.Release()
		delete(s.modules, name)
	}
}

// Module returns the loaded module of a shader
func (s *ShaderTarget) Module(name string) (gfx.ShaderModule, bool) {
	m, ok := s.modules[name]
	return m, ok
}

// Reloads counts successful reloads
func (s *ShaderTarget) Reloads() int {
	return s.reloads
}
