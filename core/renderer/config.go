// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"time"

	"github.com/devblok/trinvk/core"
	glm "github.com/go-gl/mathgl/mgl32"
)

// DefaultFenceTimeout bounds frame fence waits when none is configured.
const DefaultFenceTimeout = 5 * time.Second

// Configuration describes the renderer configuration
type Configuration struct {
	// FenceTimeout is how long a frame may wait for the GPU
	// before it is reported as a hang
	FenceTimeout time.Duration

	// ClearColor is used when no render target provides one
	ClearColor glm.Vec4
}

// NewConfiguration takes the renderer settings from the engine configuration.
func NewConfiguration(cfg core.RendererConfiguration) Configuration {
	return Configuration{
		FenceTimeout: time.Duration(cfg.FenceTimeout) * time.Millisecond,
		ClearColor:   glm.Vec4(cfg.ClearColor),
	}
}
