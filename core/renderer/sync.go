// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"fmt"

	"github.com/devblok/trinvk/gfx"
)

// MaxFramesInFlight is how many frames the CPU may prepare
// before waiting for the GPU.
const MaxFramesInFlight = 2

type frameSync struct {
	imageAvailable gfx.Semaphore
	renderFinished gfx.Semaphore
	inFlight       gfx.Fence
}

// NewFrameSync creates the semaphores and fences of every frame in flight.
// Fences start signaled so the first wait of each frame returns at once.
func NewFrameSync(dev gfx.Device) (*FrameSync, error) {
	fs := &FrameSync{}
	for i := range fs.frames {
		f := &fs.frames[i]
		var err error
		if f.imageAvailable, err = dev.CreateSemaphore(); err != nil {
			fs.Destroy()
			return nil, gfx.Fail(gfx.ErrResourceCreationFailed, fmt.Sprintf("vk.CreateSemaphore(imageAvailable %d)", i), err)
		}
		if f.renderFinished, err = dev.CreateSemaphore(); err != nil {
			fs.Destroy()
			return nil, gfx.Fail(gfx.ErrResourceCreationFailed, fmt.Sprintf("vk.CreateSemaphore(renderFinished %d)", i), err)
		}
		if f.inFlight, err = dev.CreateFence(true); err != nil {
			fs.Destroy()
			return nil, gfx.Fail(gfx.ErrResourceCreationFailed, fmt.Sprintf("vk.CreateFence(%d)", i), err)
		}
	}
	return fs, nil
}

// FrameSync holds the synchronization objects of the frames in flight
// and which of them is current.
type FrameSync struct {
	frames  [MaxFramesInFlight]frameSync
	current int
}

// Current returns the index of the current frame.
func (fs *FrameSync) Current() int {
	return fs.current
}

// Advance moves to the next frame.
func (fs *FrameSync) Advance() {
	fs.current = (fs.current + 1) % MaxFramesInFlight
}

// ImageAvailable is signaled when the acquired image can be rendered to.
func (fs *FrameSync) ImageAvailable() gfx.Semaphore {
	return fs.frames[fs.current].imageAvailable
}

// RenderFinished is signaled when rendering of the frame is done.
func (fs *FrameSync) RenderFinished() gfx.Semaphore {
	return fs.frames[fs.current].renderFinished
}

// InFlight is signaled when the GPU finished the frame.
func (fs *FrameSync) InFlight() gfx.Fence {
	return fs.frames[fs.current].inFlight
}

// Destroy releases all objects, the device must be idle.
func (fs *FrameSync) Destroy() {
	for i := range fs.frames {
		f := &fs.frames[i]
		if f.imageAvailable != nil {
			f.imageAvailable.Release()
			f.imageAvailable = nil
		}
		if f.renderFinished != nil {
			f.renderFinished.Release()
			f.renderFinished = nil
		}
		if f.inFlight != nil {
			f.inFlight.Release()
			f.inFlight = nil
		}
	}
}
