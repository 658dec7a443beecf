// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfxtest

import (
	"time"

	"github.com/devblok/trinvk/gfx"
)

// NewPhysicalDevice returns a device that is suitable for presentation:
// one combined graphics, compute and transfer family that can present,
// the swapchain extension and an 800x600 surface.
func NewPhysicalDevice(name string, t gfx.DeviceType) *PhysicalDevice {
	return &PhysicalDevice{
		Props: gfx.DeviceProperties{
			Name:                name,
			Type:                t,
			APIVersion:          gfx.Version{Major: 1, Minor: 1},
			MaxImageDimension2D: 4096,
		},
		Feats: gfx.DeviceFeatures{
			SamplerAnisotropy: true,
			FillModeNonSolid:  true,
		},
		Families: []gfx.QueueFamily{
			{Flags: gfx.QueueGraphics | gfx.QueueCompute | gfx.QueueTransfer, Count: 16},
		},
		PresentFamilies:  []uint32{0},
		DeviceExtensions: []string{"VK_KHR_swapchain"},
		Capabilities: gfx.SurfaceCapabilities{
			MinImageCount:  2,
			MaxImageCount:  8,
			CurrentExtent:  gfx.Extent{Width: 800, Height: 600},
			MinImageExtent: gfx.Extent{Width: 1, Height: 1},
			MaxImageExtent: gfx.Extent{Width: 4096, Height: 4096},
		},
		Formats: []gfx.SurfaceFormat{
			{Format: gfx.FormatB8G8R8A8Unorm, ColorSpace: gfx.ColorSpaceSRGBNonlinear},
			{Format: gfx.FormatB8G8R8A8SRGB, ColorSpace: gfx.ColorSpaceSRGBNonlinear},
		},
		Modes: []gfx.PresentMode{gfx.PresentModeFIFO, gfx.PresentModeMailbox},
	}
}

// PhysicalDevice is an in-memory gfx.PhysicalDevice. Its fields can be
// changed between calls to simulate surface changes.
type PhysicalDevice struct {
	driver *Driver

	Props            gfx.DeviceProperties
	Feats            gfx.DeviceFeatures
	Families         []gfx.QueueFamily
	PresentFamilies  []uint32
	DeviceExtensions []string
	Capabilities     gfx.SurfaceCapabilities
	Formats          []gfx.SurfaceFormat
	Modes            []gfx.PresentMode

	// SupportQueries lists the families SurfaceSupport was asked about.
	SupportQueries []uint32

	// Created is the last logical device created from this one.
	Created *Device
}

// Properties implements gfx.PhysicalDevice.
func (pd *PhysicalDevice) Properties() gfx.DeviceProperties {
	return pd.Props
}

// Features implements gfx.PhysicalDevice.
func (pd *PhysicalDevice) Features() gfx.DeviceFeatures {
	return pd.Feats
}

// QueueFamilies implements gfx.PhysicalDevice.
func (pd *PhysicalDevice) QueueFamilies() []gfx.QueueFamily {
	return pd.Families
}

// Extensions implements gfx.PhysicalDevice.
func (pd *PhysicalDevice) Extensions() ([]string, error) {
	if err := pd.driver.fail("Extensions"); err != nil {
		return nil, err
	}
	return pd.DeviceExtensions, nil
}

// SurfaceSupport implements gfx.PhysicalDevice.
func (pd *PhysicalDevice) SurfaceSupport(family uint32, surface gfx.Surface) (bool, error) {
	pd.SupportQueries = append(pd.SupportQueries, family)
	if err := pd.driver.fail("SurfaceSupport"); err != nil {
		return false, err
	}
	for _, f := range pd.PresentFamilies {
		if f == family {
			return true, nil
		}
	}
	return false, nil
}

// SurfaceCapabilities implements gfx.PhysicalDevice.
func (pd *PhysicalDevice) SurfaceCapabilities(gfx.Surface) (gfx.SurfaceCapabilities, error) {
	if err := pd.driver.fail("SurfaceCapabilities"); err != nil {
		return gfx.SurfaceCapabilities{}, err
	}
	return pd.Capabilities, nil
}

// SurfaceFormats implements gfx.PhysicalDevice.
func (pd *PhysicalDevice) SurfaceFormats(gfx.Surface) ([]gfx.SurfaceFormat, error) {
	if err := pd.driver.fail("SurfaceFormats"); err != nil {
		return nil, err
	}
	return pd.Formats, nil
}

// PresentModes implements gfx.PhysicalDevice.
func (pd *PhysicalDevice) PresentModes(gfx.Surface) ([]gfx.PresentMode, error) {
	if err := pd.driver.fail("PresentModes"); err != nil {
		return nil, err
	}
	return pd.Modes, nil
}

// CreateDevice implements gfx.PhysicalDevice.
func (pd *PhysicalDevice) CreateDevice(info gfx.DeviceInfo) (gfx.Device, error) {
	if err := pd.driver.fail("CreateDevice"); err != nil {
		return nil, err
	}
	pd.Created = &Device{
		object:   pd.driver.created("Device"),
		Physical: pd,
		Info:     info,
		queues:   make(map[[2]uint32]*Queue),
	}
	return pd.Created, nil
}

// Device is an in-memory gfx.Device.
type Device struct {
	object

	Physical *PhysicalDevice
	Info     gfx.DeviceInfo

	// WaitIdleCalls counts calls of WaitIdle.
	WaitIdleCalls int

	// Swapchains lists every swapchain created, oldest first.
	Swapchains []*Swapchain

	queues map[[2]uint32]*Queue
}

// Queue implements gfx.Device.
func (d *Device) Queue(family, index uint32) gfx.Queue {
	return d.FakeQueue(family, index)
}

// FakeQueue returns the queue as its concrete type.
func (d *Device) FakeQueue(family, index uint32) *Queue {
	key := [2]uint32{family, index}
	q, ok := d.queues[key]
	if !ok {
		q = &Queue{driver: d.driver, Family: family, Index: index}
		d.queues[key] = q
	}
	return q
}

// WaitIdle implements gfx.Device.
func (d *Device) WaitIdle() error {
	d.WaitIdleCalls++
	d.driver.record("WaitIdle")
	return d.driver.fail("WaitIdle")
}

// CreateSwapchain implements gfx.Device.
func (d *Device) CreateSwapchain(info gfx.SwapchainInfo) (gfx.Swapchain, error) {
	if err := d.driver.fail("CreateSwapchain"); err != nil {
		return nil, err
	}
	sc := &Swapchain{object: d.driver.created("Swapchain"), Info: info}
	for i := uint32(0); i < info.ImageCount; i++ {
		sc.images = append(sc.images, i)
	}
	d.Swapchains = append(d.Swapchains, sc)
	return sc, nil
}

// CreateImageView implements gfx.Device.
func (d *Device) CreateImageView(image gfx.Image, format gfx.Format) (gfx.ImageView, error) {
	if err := d.driver.fail("CreateImageView"); err != nil {
		return nil, err
	}
	return &ImageView{object: d.driver.created("ImageView"), Image: image, Format: format}, nil
}

// CreateRenderPass implements gfx.Device.
func (d *Device) CreateRenderPass(format gfx.Format) (gfx.RenderPass, error) {
	if err := d.driver.fail("CreateRenderPass"); err != nil {
		return nil, err
	}
	return &RenderPass{object: d.driver.created("RenderPass"), Format: format}, nil
}

// CreateFramebuffer implements gfx.Device.
func (d *Device) CreateFramebuffer(pass gfx.RenderPass, view gfx.ImageView, extent gfx.Extent) (gfx.Framebuffer, error) {
	if err := d.driver.fail("CreateFramebuffer"); err != nil {
		return nil, err
	}
	return &Framebuffer{object: d.driver.created("Framebuffer"), Extent: extent}, nil
}

// CreateSemaphore implements gfx.Device.
func (d *Device) CreateSemaphore() (gfx.Semaphore, error) {
	if err := d.driver.fail("CreateSemaphore"); err != nil {
		return nil, err
	}
	return &Semaphore{object: d.driver.created("Semaphore")}, nil
}

// CreateFence implements gfx.Device.
func (d *Device) CreateFence(signaled bool) (gfx.Fence, error) {
	if err := d.driver.fail("CreateFence"); err != nil {
		return nil, err
	}
	return &Fence{object: d.driver.created("Fence"), Signaled: signaled}, nil
}

// CreateCommandPool implements gfx.Device.
func (d *Device) CreateCommandPool(family uint32) (gfx.CommandPool, error) {
	if err := d.driver.fail("CreateCommandPool"); err != nil {
		return nil, err
	}
	return &CommandPool{object: d.driver.created("CommandPool"), Family: family}, nil
}

// CreateShaderModule implements gfx.Device.
func (d *Device) CreateShaderModule(code []uint32) (gfx.ShaderModule, error) {
	if err := d.driver.fail("CreateShaderModule"); err != nil {
		return nil, err
	}
	return &ShaderModule{object: d.driver.created("ShaderModule"), Code: code}, nil
}

// WaitForFence implements gfx.Device. An unsignaled fence times out
// immediately since nothing would ever signal it.
func (d *Device) WaitForFence(fence gfx.Fence, timeout time.Duration) error {
	if err := d.driver.fail("WaitForFence"); err != nil {
		return err
	}
	if !fence.(*Fence).Signaled {
		return gfx.ErrTimeout
	}
	return nil
}

// ResetFence implements gfx.Device.
func (d *Device) ResetFence(fence gfx.Fence) error {
	if err := d.driver.fail("ResetFence"); err != nil {
		return err
	}
	fence.(*Fence).Signaled = false
	return nil
}

// Submission is a recorded Queue.Submit call.
type Submission struct {
	Info  gfx.SubmitInfo
	Fence gfx.Fence
}

// Presentation is a recorded Queue.Present call.
type Presentation struct {
	Swapchain gfx.Swapchain
	Index     uint32
	Wait      []gfx.Semaphore
}

// Queue is an in-memory gfx.Queue. Submitted work completes instantly.
type Queue struct {
	driver *Driver

	Family uint32
	Index  uint32

	Submissions   []Submission
	Presentations []Presentation
}

// Submit implements gfx.Queue.
func (q *Queue) Submit(info gfx.SubmitInfo, fence gfx.Fence) error {
	if err := q.driver.fail("Submit"); err != nil {
		return err
	}
	q.Submissions = append(q.Submissions, Submission{Info: info, Fence: fence})
	if fence != nil {
		fence.(*Fence).Signaled = true
	}
	return nil
}

// Present implements gfx.Queue.
func (q *Queue) Present(swapchain gfx.Swapchain, index uint32, wait []gfx.Semaphore) (bool, error) {
	q.Presentations = append(q.Presentations, Presentation{Swapchain: swapchain, Index: index, Wait: wait})
	if len(q.driver.PresentResults) > 0 {
		r := q.driver.PresentResults[0]
		q.driver.PresentResults = q.driver.PresentResults[1:]
		return r.Suboptimal, r.Err
	}
	return false, nil
}

// WaitIdle implements gfx.Queue.
func (q *Queue) WaitIdle() error {
	return q.driver.fail("QueueWaitIdle")
}

// Swapchain is an in-memory gfx.Swapchain.
type Swapchain struct {
	object

	Info     gfx.SwapchainInfo
	images   []uint32
	acquired uint32
}

// Images implements gfx.Swapchain. Images are their own indices.
func (s *Swapchain) Images() ([]gfx.Image, error) {
	if err := s.driver.fail("Images"); err != nil {
		return nil, err
	}
	images := make([]gfx.Image, len(s.images))
	for i, img := range s.images {
		images[i] = img
	}
	return images, nil
}

// AcquireNextImage implements gfx.Swapchain. Images are handed out round robin.
func (s *Swapchain) AcquireNextImage(signal gfx.Semaphore, timeout time.Duration) (uint32, bool, error) {
	var suboptimal bool
	if len(s.driver.AcquireResults) > 0 {
		r := s.driver.AcquireResults[0]
		s.driver.AcquireResults = s.driver.AcquireResults[1:]
		if r.Err != nil {
			return 0, false, r.Err
		}
		suboptimal = r.Suboptimal
	}
	index := s.acquired % uint32(len(s.images))
	s.acquired++
	return index, suboptimal, nil
}

// ImageView is an in-memory gfx.ImageView.
type ImageView struct {
	object

	Image  gfx.Image
	Format gfx.Format
}

// RenderPass is an in-memory gfx.RenderPass.
type RenderPass struct {
	object

	Format gfx.Format
}

// Framebuffer is an in-memory gfx.Framebuffer.
type Framebuffer struct {
	object

	Extent gfx.Extent
}

// Semaphore is an in-memory gfx.Semaphore.
type Semaphore struct {
	object
}

// Fence is an in-memory gfx.Fence.
type Fence struct {
	object

	Signaled bool
}

// ShaderModule is an in-memory gfx.ShaderModule.
type ShaderModule struct {
	object

	Code []uint32
}

// CommandPool is an in-memory gfx.CommandPool.
type CommandPool struct {
	object

	Family  uint32
	Buffers []*CommandBuffer
}

// Allocate implements gfx.CommandPool.
func (p *CommandPool) Allocate(count int) ([]gfx.CommandBuffer, error) {
	if err := p.driver.fail("Allocate"); err != nil {
		return nil, err
	}
	buffers := make([]gfx.CommandBuffer, count)
	for i := range buffers {
		cb := &CommandBuffer{}
		p.Buffers = append(p.Buffers, cb)
		buffers[i] = cb
	}
	return buffers, nil
}

// CommandBuffer is an in-memory gfx.CommandBuffer that records
// the names of the commands issued since the last reset.
type CommandBuffer struct {
	Commands   []string
	ClearColor [4]float32
	Area       gfx.Extent
}

// Reset implements gfx.CommandBuffer.
func (c *CommandBuffer) Reset() error {
	c.Commands = c.Commands[:0]
	return nil
}

// Begin implements gfx.CommandBuffer.
func (c *CommandBuffer) Begin() error {
	c.Commands = append(c.Commands, "Begin")
	return nil
}

// BeginRenderPass implements gfx.CommandBuffer.
func (c *CommandBuffer) BeginRenderPass(pass gfx.RenderPass, framebuffer gfx.Framebuffer, area gfx.Extent, clear [4]float32) {
	c.Commands = append(c.Commands, "BeginRenderPass")
	c.ClearColor = clear
	c.Area = area
}

// EndRenderPass implements gfx.CommandBuffer.
func (c *CommandBuffer) EndRenderPass() {
	c.Commands = append(c.Commands, "EndRenderPass")
}

// End implements gfx.CommandBuffer.
func (c *CommandBuffer) End() error {
	c.Commands = append(c.Commands, "End")
	return nil
}
