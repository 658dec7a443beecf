// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package gfx defines the rendering driver features the engine is built upon.
// Everything above this package talks to the GPU only through these interfaces,
// concrete drivers live in subpackages.
package gfx

import "time"

// Releasable defines any memory-occupying item that can be freed.
type Releasable interface {

	// Release releases memory occupied by the implementing structure.
	Release()
}

// Driver is the entry point of a graphics API implementation.
type Driver interface {

	// Layers returns the names of instance layers the driver can load.
	Layers() ([]string, error)

	// InstanceExtensions returns the instance extensions the driver supports.
	InstanceExtensions() ([]string, error)

	// DebugExtension is the instance extension Instance.CreateMessenger needs.
	DebugExtension() string

	// CreateInstance connects the process to the driver.
	CreateInstance(InstanceInfo) (Instance, error)
}

// InstanceInfo describes the instance to be created.
type InstanceInfo struct {
	ApplicationName    string
	ApplicationVersion Version
	EngineName         string
	EngineVersion      Version
	Extensions         []string
	Layers             []string

	// Portability enumerates portability (non-conformant) devices as well.
	Portability bool
}

// Instance is the top level handle of the graphics API.
type Instance interface {
	Releasable

	// Inner returns the inner handle of the underlying API,
	// window systems need it to create surfaces.
	Inner() interface{}

	// PhysicalDevices enumerates all devices visible to the instance.
	PhysicalDevices() ([]PhysicalDevice, error)

	// CreateMessenger installs a debug message callback.
	CreateMessenger(MessengerInfo) (Messenger, error)

	// WrapSurface adopts a native surface handle created by a window system.
	// Releasing the returned Surface destroys the handle.
	WrapSurface(handle uintptr) Surface
}

// Surface is a drawable binding between an instance and a window.
type Surface interface {
	Releasable
}

// Messenger is an installed debug callback.
type Messenger interface {
	Releasable
}

// PhysicalDevice is a GPU as enumerated by the driver.
// All of its methods only query, nothing is created on the GPU.
type PhysicalDevice interface {
	Properties() DeviceProperties
	Features() DeviceFeatures
	QueueFamilies() []QueueFamily
	Extensions() ([]string, error)

	// SurfaceSupport reports if the queue family can present to the surface.
	SurfaceSupport(family uint32, surface Surface) (bool, error)
	SurfaceCapabilities(Surface) (SurfaceCapabilities, error)
	SurfaceFormats(Surface) ([]SurfaceFormat, error)
	PresentModes(Surface) ([]PresentMode, error)

	// CreateDevice creates a logical device on this physical device.
	CreateDevice(DeviceInfo) (Device, error)
}

// DeviceInfo describes a logical device to be created.
type DeviceInfo struct {
	Queues     []QueueInfo
	Extensions []string
	Features   DeviceFeatures
}

// QueueInfo requests len(Priorities) queues from a family.
type QueueInfo struct {
	Family     uint32
	Priorities []float32
}

// Device is a logical device, the factory of every GPU object.
type Device interface {
	Releasable

	// Queue returns the queue with the index within a family.
	Queue(family, index uint32) Queue

	// WaitIdle blocks until all submitted work has finished.
	WaitIdle() error

	CreateSwapchain(SwapchainInfo) (Swapchain, error)
	CreateImageView(image Image, format Format) (ImageView, error)
	CreateRenderPass(format Format) (RenderPass, error)
	CreateFramebuffer(pass RenderPass, view ImageView, extent Extent) (Framebuffer, error)
	CreateSemaphore() (Semaphore, error)
	CreateFence(signaled bool) (Fence, error)
	CreateCommandPool(family uint32) (CommandPool, error)
	CreateShaderModule(code []uint32) (ShaderModule, error)

	// WaitForFence waits for the fence to be signaled,
	// returns ErrTimeout when the timeout passes first.
	WaitForFence(fence Fence, timeout time.Duration) error
	ResetFence(Fence) error
}

// SwapchainInfo describes a swapchain to be created.
type SwapchainInfo struct {
	Surface     Surface
	Format      SurfaceFormat
	PresentMode PresentMode
	Extent      Extent
	ImageCount  uint32

	// SharingFamilies lists queue families that access the images concurrently,
	// when empty the images are owned exclusively.
	SharingFamilies []uint32
	PreTransform    uint32
}

// Image is a driver owned image handle.
type Image interface{}

// Swapchain is the ring of presentable images.
type Swapchain interface {
	Releasable

	Images() ([]Image, error)

	// AcquireNextImage signals the semaphore once the returned image is ready.
	// Returns ErrOutOfDate when the swapchain can no longer be used, suboptimal
	// is set when it can be used but no longer matches the surface.
	AcquireNextImage(signal Semaphore, timeout time.Duration) (index uint32, suboptimal bool, err error)
}

// ImageView is a view into an image.
type ImageView interface {
	Releasable
}

// RenderPass describes attachments and subpasses of rendering.
type RenderPass interface {
	Releasable
}

// Framebuffer binds image views to a render pass.
type Framebuffer interface {
	Releasable
}

// Semaphore orders work between queue operations.
type Semaphore interface {
	Releasable
}

// Fence is a GPU completion signal observable by the CPU.
type Fence interface {
	Releasable
}

// ShaderModule is compiled shader code loaded into a device.
type ShaderModule interface {
	Releasable
}

// CommandPool allocates command buffers for a queue family.
type CommandPool interface {
	Releasable

	Allocate(count int) ([]CommandBuffer, error)
}

// CommandBuffer records GPU commands.
type CommandBuffer interface {
	Reset() error
	Begin() error
	BeginRenderPass(pass RenderPass, framebuffer Framebuffer, area Extent, clear [4]float32)
	EndRenderPass()
	End() error
}

// SubmitInfo describes a queue submission.
type SubmitInfo struct {
	Buffers []CommandBuffer

	// Wait semaphores are waited on at the color attachment output stage.
	Wait   []Semaphore
	Signal []Semaphore
}

// Queue is a hardware queue of a device.
type Queue interface {

	// Submit submits work, the fence is signaled when it completes.
	// Fence can be nil.
	Submit(info SubmitInfo, fence Fence) error

	// Present queues an image for presentation. Returns ErrOutOfDate or
	// sets suboptimal the same way Swapchain.AcquireNextImage does.
	Present(swapchain Swapchain, index uint32, wait []Semaphore) (suboptimal bool, err error)

	WaitIdle() error
}
