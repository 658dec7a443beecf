// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"github.com/devblok/trinvk/device"
	"github.com/devblok/trinvk/gfx"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Host owns the device the renderer draws with, core.Context is one.
type Host interface {
	Device() gfx.Device
	PhysicalDevice() gfx.PhysicalDevice
	Surface() gfx.Surface
	QueueFamilies() device.QueueFamilyIndices
	GraphicsQueue() gfx.Queue
	PresentQueue() gfx.Queue
}

// Window is what the renderer needs from the window it presents to
type Window interface {
	WindowSize() (int, int)
	PollEvents()
	ShouldClose() bool
}

// NewRenderer creates the swapchain, frame synchronization and command
// buffers, then prepares the targets. Anything created is destroyed on failure.
func NewRenderer(host Host, window Window, cfg Configuration, targets ...Target) (_ *Renderer, err error) {
	if cfg.FenceTimeout <= 0 {
		cfg.FenceTimeout = DefaultFenceTimeout
	}

	r := &Renderer{
		host:      host,
		cfg:       cfg,
		swapchain: NewSwapchain(host, window),
		targets:   NewTargets(targets...),
	}

	defer func() {
		if err != nil {
			r.Destroy()
		}
	}()

	if err = r.swapchain.Create(); err != nil {
		return nil, err
	}

	if r.sync, err = NewFrameSync(host.Device()); err != nil {
		return nil, err
	}

	if r.pool, err = host.Device().CreateCommandPool(host.QueueFamilies().Graphics.Index); err != nil {
		return nil, gfx.Fail(gfx.ErrResourceCreationFailed, "vk.CreateCommandPool()", err)
	}

	if r.buffers, err = r.pool.Allocate(MaxFramesInFlight); err != nil {
		return nil, gfx.Fail(gfx.ErrResourceCreationFailed, "vk.AllocateCommandBuffers()", err)
	}

	if err = r.targets.Run(StagePrepare, r.targetContext(0), nil); err != nil {
		return nil, gfx.Fail(gfx.ErrResourceCreationFailed, "renderer.NewRenderer()", err)
	}

	return r, nil
}

// Renderer draws frames into the swapchain with up to
// MaxFramesInFlight frames queued on the GPU.
type Renderer struct {
	host Host
	cfg  Configuration

	swapchain *Swapchain
	sync      *FrameSync
	pool      gfx.CommandPool
	buffers   []gfx.CommandBuffer
	targets   *Targets

	resized   bool
	frames    uint64
	destroyed bool
}

// NotifyResized makes the next frame rebuild the swapchain after presenting
func (r *Renderer) NotifyResized() {
	r.resized = true
}

// DrawFrame renders and presents one frame:
// wait for the frame's fence, acquire an image, record, submit and present.
// An out of date swapchain is rebuilt and the frame skipped, as is a
// swapchain a previous recreation failed to build.
func (r *Renderer) DrawFrame() error {
	if r.swapchain.Handle() == nil {
		log.Debug("swapchain missing, recreating")
		return r.recreate()
	}

	dev := r.host.Device()
	fence := r.sync.InFlight()

	if err := dev.WaitForFence(fence, r.cfg.FenceTimeout); err != nil {
		if errors.Is(err, gfx.ErrTimeout) {
			log.WithFields(log.Fields{
				"frame":   r.sync.Current(),
				"timeout": r.cfg.FenceTimeout,
			}).Error("GPU did not finish the frame in time")
		}
		return errors.Wrapf(err, "vk.WaitForFences(frame %d)", r.sync.Current())
	}

	index, suboptimal, err := r.swapchain.Handle().AcquireNextImage(r.sync.ImageAvailable(), r.cfg.FenceTimeout)
	if errors.Is(err, gfx.ErrOutOfDate) {
		log.Debug("swapchain out of date on acquire")
		return r.recreate()
	}
	if errors.Is(err, gfx.ErrTimeout) {
		log.WithField("frame", r.sync.Current()).Warn("no swapchain image ready, frame skipped")
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "vk.AcquireNextImage()")
	}

	// A skipped frame must leave its fence signaled.
	if err := dev.ResetFence(fence); err != nil {
		return errors.Wrap(err, "vk.ResetFences()")
	}

	cmd := r.buffers[r.sync.Current()]
	if err := r.record(cmd, index); err != nil {
		return err
	}

	submit := gfx.SubmitInfo{
		Buffers: []gfx.CommandBuffer{cmd},
		Wait:    []gfx.Semaphore{r.sync.ImageAvailable()},
		Signal:  []gfx.Semaphore{r.sync.RenderFinished()},
	}
	if err := r.host.GraphicsQueue().Submit(submit, fence); err != nil {
		return errors.Wrap(err, "vk.QueueSubmit()")
	}

	presentSuboptimal, err := r.host.PresentQueue().Present(r.swapchain.Handle(), index, []gfx.Semaphore{r.sync.RenderFinished()})
	r.sync.Advance()
	r.frames++

	outOfDate := errors.Is(err, gfx.ErrOutOfDate)
	if err != nil && !outOfDate {
		return errors.Wrap(err, "vk.QueuePresent()")
	}
	if outOfDate || suboptimal || presentSuboptimal || r.resized {
		r.resized = false
		return r.recreate()
	}
	return nil
}

func (r *Renderer) record(cmd gfx.CommandBuffer, index uint32) error {
	ctx := r.targetContext(index)

	if err := r.targets.Run(StageUpdate, ctx, nil); err != nil {
		return err
	}

	if err := cmd.Reset(); err != nil {
		return errors.Wrap(err, "vk.ResetCommandBuffer()")
	}
	if err := cmd.Begin(); err != nil {
		return errors.Wrap(err, "vk.BeginCommandBuffer()")
	}

	cmd.BeginRenderPass(r.swapchain.RenderPass(), r.swapchain.Framebuffer(index), r.swapchain.Extent(), r.targets.ClearColor(r.cfg.ClearColor))
	if err := r.targets.Run(StageDraw, ctx, cmd); err != nil {
		return err
	}
	cmd.EndRenderPass()

	if err := cmd.End(); err != nil {
		return errors.Wrap(err, "vk.EndCommandBuffer()")
	}
	return nil
}

func (r *Renderer) recreate() error {
	if err := r.swapchain.Recreate(); err != nil {
		return err
	}
	log.WithField("generation", r.swapchain.Generation()).Debug("swapchain recreated")
	return nil
}

func (r *Renderer) targetContext(index uint32) TargetContext {
	return TargetContext{
		Device:     r.host.Device(),
		RenderPass: r.swapchain.RenderPass(),
		Extent:     r.swapchain.Extent(),
		Frame:      r.frames,
		Image:      index,
	}
}

// Destroy waits for the device and releases everything the renderer
// created. It can be called more than once.
func (r *Renderer) Destroy() {
	if r.destroyed {
		return
	}
	r.destroyed = true

	if err := r.host.Device().WaitIdle(); err != nil {
		log.WithError(err).Warn("vk.DeviceWaitIdle() failed before renderer teardown")
	}

	r.targets.Run(StageFinalize, r.targetContext(0), nil)

	if r.pool != nil {
		r.pool.Release()
		r.pool = nil
	}
	r.buffers = nil

	if r.sync != nil {
		r.sync.Destroy()
		r.sync = nil
	}

	r.swapchain.Destroy()
}

// Swapchain returns the managed swapchain
func (r *Renderer) Swapchain() *Swapchain {
	return r.swapchain
}

// Targets returns the render targets
func (r *Renderer) Targets() *Targets {
	return r.targets
}

// Frames counts presented frames
func (r *Renderer) Frames() uint64 {
	return r.frames
}

// CurrentFrame returns the index of the frame in flight being prepared
func (r *Renderer) CurrentFrame() int {
	return r.sync.Current()
}
