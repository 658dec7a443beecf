// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"time"

	"github.com/devblok/trinvk/gfx"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Device is the Vulkan implementation of gfx.Device
type Device struct {
	device   vk.Device
	physical vk.PhysicalDevice
}

// Queue implements gfx.Device
func (d *Device) Queue(family, index uint32) gfx.Queue {
	var queue vk.Queue
	vk.GetDeviceQueue(d.device, family, index, &queue)
	return &Queue{queue: queue}
}

// WaitIdle implements gfx.Device
func (d *Device) WaitIdle() error {
	return vk.Error(vk.DeviceWaitIdle(d.device))
}

// Release implements gfx.Releasable
func (d *Device) Release() {
	vk.DestroyDevice(d.device, nil)
}

// CreateImageView implements gfx.Device
func (d *Device) CreateImageView(image gfx.Image, format gfx.Format) (gfx.ImageView, error) {
	img, ok := image.(vk.Image)
	if !ok {
		return nil, errors.Errorf("vkr.CreateImageView(): %T is not an image", image)
	}
	ivci := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    img,
		ViewType: vk.ImageViewType2d,
		Format:   vk.Format(format),
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LevelCount: 1,
			LayerCount: 1,
		},
	}

	var view vk.ImageView
	if err := vk.Error(vk.CreateImageView(d.device, &ivci, nil, &view)); err != nil {
		return nil, errors.New("vk.CreateImageView(): " + err.Error())
	}
	return &imageView{device: d.device, handle: view}, nil
}

// CreateRenderPass implements gfx.Device, the pass has a single color
// attachment that is cleared and left ready for presentation
func (d *Device) CreateRenderPass(format gfx.Format) (gfx.RenderPass, error) {
	attachments := []vk.AttachmentDescription{{
		Format:         vk.Format(format),
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}}

	colorAttachmentRef := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}

	subpassDependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		SrcAccessMask: 0,
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit),
	}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: uint32(len(colorAttachmentRef)),
		PColorAttachments:    colorAttachmentRef,
	}

	rpci := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{subpassDependency},
	}

	var renderPass vk.RenderPass
	if err := vk.Error(vk.CreateRenderPass(d.device, &rpci, nil, &renderPass)); err != nil {
		return nil, errors.New("vk.CreateRenderPass(): " + err.Error())
	}
	return &RenderPass{device: d.device, handle: renderPass}, nil
}

// CreateFramebuffer implements gfx.Device
func (d *Device) CreateFramebuffer(pass gfx.RenderPass, view gfx.ImageView, size gfx.Extent) (gfx.Framebuffer, error) {
	rp, ok := pass.(*RenderPass)
	if !ok {
		return nil, errors.Errorf("vkr.CreateFramebuffer(): %T is not a render pass", pass)
	}
	iv, ok := view.(*imageView)
	if !ok {
		return nil, errors.Errorf("vkr.CreateFramebuffer(): %T is not an image view", view)
	}

	fbci := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      rp.handle,
		AttachmentCount: 1,
		PAttachments:    []vk.ImageView{iv.handle},
		Width:           size.Width,
		Height:          size.Height,
		Layers:          1,
	}

	var framebuffer vk.Framebuffer
	if err := vk.Error(vk.CreateFramebuffer(d.device, &fbci, nil, &framebuffer)); err != nil {
		return nil, errors.New("vk.CreateFramebuffer(): " + err.Error())
	}
	return &Framebuffer{device: d.device, handle: framebuffer}, nil
}

// CreateSemaphore implements gfx.Device
func (d *Device) CreateSemaphore() (gfx.Semaphore, error) {
	var semaphore vk.Semaphore
	sci := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	if err := vk.Error(vk.CreateSemaphore(d.device, &sci, nil, &semaphore)); err != nil {
		return nil, errors.New("vk.CreateSemaphore(): " + err.Error())
	}
	return &Semaphore{device: d.device, handle: semaphore}, nil
}

// CreateFence implements gfx.Device
func (d *Device) CreateFence(signaled bool) (gfx.Fence, error) {
	fci := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if signaled {
		fci.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var fence vk.Fence
	if err := vk.Error(vk.CreateFence(d.device, &fci, nil, &fence)); err != nil {
		return nil, errors.New("vk.CreateFence(): " + err.Error())
	}
	return &Fence{device: d.device, handle: fence}, nil
}

// WaitForFence implements gfx.Device
func (d *Device) WaitForFence(fence gfx.Fence, timeout time.Duration) error {
	f, ok := fence.(*Fence)
	if !ok {
		return errors.Errorf("vkr.WaitForFence(): %T is not a fence", fence)
	}
	ret := vk.WaitForFences(d.device, 1, []vk.Fence{f.handle}, vk.True, uint64(timeout.Nanoseconds()))
	if ret == vk.Timeout {
		return gfx.ErrTimeout
	}
	return vk.Error(ret)
}

// ResetFence implements gfx.Device
func (d *Device) ResetFence(fence gfx.Fence) error {
	f, ok := fence.(*Fence)
	if !ok {
		return errors.Errorf("vkr.ResetFence(): %T is not a fence", fence)
	}
	return vk.Error(vk.ResetFences(d.device, 1, []vk.Fence{f.handle}))
}

// CreateShaderModule implements gfx.Device
func (d *Device) CreateShaderModule(code []uint32) (gfx.ShaderModule, error) {
	smci := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code) * 4),
		PCode:    code,
	}

	var module vk.ShaderModule
	if err := vk.Error(vk.CreateShaderModule(d.device, &smci, nil, &module)); err != nil {
		return nil, errors.New("vk.CreateShaderModule(): " + err.Error())
	}
	return &ShaderModule{device: d.device, handle: module}, nil
}

type imageView struct {
	device vk.Device
	handle vk.ImageView
}

func (v *imageView) Release() {
	vk.DestroyImageView(v.device, v.handle, nil)
}

// RenderPass is the Vulkan implementation of gfx.RenderPass
type RenderPass struct {
	device vk.Device
	handle vk.RenderPass
}

// Release implements gfx.Releasable
func (r *RenderPass) Release() {
	vk.DestroyRenderPass(r.device, r.handle, nil)
}

// Framebuffer is the Vulkan implementation of gfx.Framebuffer
type Framebuffer struct {
	device vk.Device
	handle vk.Framebuffer
}

// Release implements gfx.Releasable
func (f *Framebuffer) Release() {
	vk.DestroyFramebuffer(f.device, f.handle, nil)
}

// Semaphore is the Vulkan implementation of gfx.Semaphore
type Semaphore struct {
	device vk.Device
	handle vk.Semaphore
}

// Release implements gfx.Releasable
func (s *Semaphore) Release() {
	vk.DestroySemaphore(s.device, s.handle, nil)
}

// Fence is the Vulkan implementation of gfx.Fence
type Fence struct {
	device vk.Device
	handle vk.Fence
}

// Release implements gfx.Releasable
func (f *Fence) Release() {
	vk.DestroyFence(f.device, f.handle, nil)
}

// ShaderModule is the Vulkan implementation of gfx.ShaderModule
type ShaderModule struct {
	device vk.Device
	handle vk.ShaderModule
}

// Inner returns the vk.ShaderModule for pipeline creation
func (s *ShaderModule) Inner() vk.ShaderModule {
	return s.handle
}

// Release implements gfx.Releasable
func (s *ShaderModule) Release() {
	vk.DestroyShaderModule(s.device, s.handle, nil)
}

func semaphores(list []gfx.Semaphore) ([]vk.Semaphore, error) {
	out := make([]vk.Semaphore, 0, len(list))
	for i, s := range list {
		vs, ok := s.(*Semaphore)
		if !ok {
			return nil, errors.Errorf("semaphore %d: %T is not a semaphore", i, s)
		}
		out = append(out, vs.handle)
	}
	return out, nil
}
