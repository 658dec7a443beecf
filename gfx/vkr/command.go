// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"github.com/devblok/trinvk/gfx"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Queue is the Vulkan implementation of gfx.Queue
type Queue struct {
	queue vk.Queue
}

// Submit implements gfx.Queue
func (q *Queue) Submit(info gfx.SubmitInfo, fence gfx.Fence) error {
	buffers := make([]vk.CommandBuffer, 0, len(info.Buffers))
	for i, b := range info.Buffers {
		cb, ok := b.(*CommandBuffer)
		if !ok {
			return errors.Errorf("vkr.Submit(): buffer %d: %T is not a command buffer", i, b)
		}
		buffers = append(buffers, cb.handle)
	}
	wait, err := semaphores(info.Wait)
	if err != nil {
		return errors.Wrap(err, "vkr.Submit()")
	}
	signal, err := semaphores(info.Signal)
	if err != nil {
		return errors.Wrap(err, "vkr.Submit()")
	}

	stages := make([]vk.PipelineStageFlags, len(wait))
	for i := range stages {
		stages[i] = vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)
	}

	submit := []vk.SubmitInfo{{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   uint32(len(wait)),
		PWaitSemaphores:      wait,
		PWaitDstStageMask:    stages,
		CommandBufferCount:   uint32(len(buffers)),
		PCommandBuffers:      buffers,
		SignalSemaphoreCount: uint32(len(signal)),
		PSignalSemaphores:    signal,
	}}

	handle := vk.NullFence
	if fence != nil {
		f, ok := fence.(*Fence)
		if !ok {
			return errors.Errorf("vkr.Submit(): %T is not a fence", fence)
		}
		handle = f.handle
	}

	if err := vk.Error(vk.QueueSubmit(q.queue, 1, submit, handle)); err != nil {
		return errors.New("vk.QueueSubmit(): " + err.Error())
	}
	return nil
}

// Present implements gfx.Queue
func (q *Queue) Present(swapchain gfx.Swapchain, index uint32, wait []gfx.Semaphore) (bool, error) {
	sc, ok := swapchain.(*Swapchain)
	if !ok {
		return false, errors.Errorf("vkr.Present(): %T is not a swapchain", swapchain)
	}
	waitHandles, err := semaphores(wait)
	if err != nil {
		return false, errors.Wrap(err, "vkr.Present()")
	}

	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: uint32(len(waitHandles)),
		PWaitSemaphores:    waitHandles,
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{sc.handle},
		PImageIndices:      []uint32{index},
	}
	return presentResult(vk.QueuePresent(q.queue, &presentInfo))
}

// WaitIdle implements gfx.Queue
func (q *Queue) WaitIdle() error {
	return vk.Error(vk.QueueWaitIdle(q.queue))
}

// CreateCommandPool implements gfx.Device, buffers of the pool can be reset
// one by one
func (d *Device) CreateCommandPool(family uint32) (gfx.CommandPool, error) {
	cpci := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: family,
	}

	var pool vk.CommandPool
	if err := vk.Error(vk.CreateCommandPool(d.device, &cpci, nil, &pool)); err != nil {
		return nil, errors.New("vk.CreateCommandPool(): " + err.Error())
	}
	return &CommandPool{device: d.device, handle: pool}, nil
}

// CommandPool is the Vulkan implementation of gfx.CommandPool
type CommandPool struct {
	device vk.Device
	handle vk.CommandPool
}

// Allocate implements gfx.CommandPool
func (p *CommandPool) Allocate(count int) ([]gfx.CommandBuffer, error) {
	cbai := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        p.handle,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: uint32(count),
	}

	handles := make([]vk.CommandBuffer, count)
	if err := vk.Error(vk.AllocateCommandBuffers(p.device, &cbai, handles)); err != nil {
		return nil, errors.New("vk.AllocateCommandBuffers(): " + err.Error())
	}

	buffers := make([]gfx.CommandBuffer, 0, count)
	for _, h := range handles {
		buffers = append(buffers, &CommandBuffer{handle: h})
	}
	return buffers, nil
}

// Release implements gfx.Releasable, buffers allocated from the pool go with it
func (p *CommandPool) Release() {
	vk.DestroyCommandPool(p.device, p.handle, nil)
}

// CommandBuffer is the Vulkan implementation of gfx.CommandBuffer
type CommandBuffer struct {
	handle vk.CommandBuffer
}

// Reset implements gfx.CommandBuffer
func (c *CommandBuffer) Reset() error {
	if err := vk.Error(vk.ResetCommandBuffer(c.handle, 0)); err != nil {
		return errors.New("vk.ResetCommandBuffer(): " + err.Error())
	}
	return nil
}

// Begin implements gfx.CommandBuffer
func (c *CommandBuffer) Begin() error {
	cbbi := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	if err := vk.Error(vk.BeginCommandBuffer(c.handle, &cbbi)); err != nil {
		return errors.New("vk.BeginCommandBuffer(): " + err.Error())
	}
	return nil
}

// BeginRenderPass implements gfx.CommandBuffer
func (c *CommandBuffer) BeginRenderPass(pass gfx.RenderPass, framebuffer gfx.Framebuffer, area gfx.Extent, clear [4]float32) {
	rp, _ := pass.(*RenderPass)
	fb, _ := framebuffer.(*Framebuffer)
	if rp == nil || fb == nil {
		return
	}

	clearValues := make([]vk.ClearValue, 1)
	clearValues[0].SetColor(clear[:])

	rpbi := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  rp.handle,
		Framebuffer: fb.handle,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: vk.Extent2D{Width: area.Width, Height: area.Height},
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}
	vk.CmdBeginRenderPass(c.handle, &rpbi, vk.SubpassContentsInline)
}

// EndRenderPass implements gfx.CommandBuffer
func (c *CommandBuffer) EndRenderPass() {
	vk.CmdEndRenderPass(c.handle)
}

// End implements gfx.CommandBuffer
func (c *CommandBuffer) End() error {
	if err := vk.Error(vk.EndCommandBuffer(c.handle)); err != nil {
		return errors.New("vk.EndCommandBuffer(): " + err.Error())
	}
	return nil
}

// Inner returns the vk.CommandBuffer for recording draw calls
func (c *CommandBuffer) Inner() vk.CommandBuffer {
	return c.handle
}
