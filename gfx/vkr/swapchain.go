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

var compositeAlphaPreference = []vk.CompositeAlphaFlagBits{
	vk.CompositeAlphaOpaqueBit,
	vk.CompositeAlphaPreMultipliedBit,
	vk.CompositeAlphaPostMultipliedBit,
	vk.CompositeAlphaInheritBit,
}

// CreateSwapchain implements gfx.Device
func (d *Device) CreateSwapchain(info gfx.SwapchainInfo) (gfx.Swapchain, error) {
	surface := surfaceHandle(info.Surface)

	var caps vk.SurfaceCapabilities
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceCapabilities(d.physical, surface, &caps)); err != nil {
		return nil, errors.New("vk.GetPhysicalDeviceSurfaceCapabilities(): " + err.Error())
	}
	caps.Deref()

	compositeAlpha := vk.CompositeAlphaOpaqueBit
	for _, flag := range compositeAlphaPreference {
		if vk.CompositeAlphaFlagBits(caps.SupportedCompositeAlpha)&flag != 0 {
			compositeAlpha = flag
			break
		}
	}

	sci := vk.SwapchainCreateInfo{
		SType:           vk.StructureTypeSwapchainCreateInfo,
		Surface:         surface,
		MinImageCount:   info.ImageCount,
		ImageFormat:     vk.Format(info.Format.Format),
		ImageColorSpace: vk.ColorSpace(info.Format.ColorSpace),
		ImageExtent: vk.Extent2D{
			Width:  info.Extent.Width,
			Height: info.Extent.Height,
		},
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     vk.SurfaceTransformFlagBits(info.PreTransform),
		CompositeAlpha:   compositeAlpha,
		PresentMode:      vk.PresentMode(info.PresentMode),
		Clipped:          vk.True,
		OldSwapchain:     vk.NullSwapchain,
	}
	if len(info.SharingFamilies) > 1 {
		sci.ImageSharingMode = vk.SharingModeConcurrent
		sci.QueueFamilyIndexCount = uint32(len(info.SharingFamilies))
		sci.PQueueFamilyIndices = info.SharingFamilies
	}

	var swapchain vk.Swapchain
	if err := vk.Error(vk.CreateSwapchain(d.device, &sci, nil, &swapchain)); err != nil {
		return nil, errors.New("vk.CreateSwapchain(): " + err.Error())
	}
	return &Swapchain{device: d.device, handle: swapchain}, nil
}

// Swapchain is the Vulkan implementation of gfx.Swapchain
type Swapchain struct {
	device vk.Device
	handle vk.Swapchain
}

// Images implements gfx.Swapchain
func (s *Swapchain) Images() ([]gfx.Image, error) {
	var count uint32
	if err := vk.Error(vk.GetSwapchainImages(s.device, s.handle, &count, nil)); err != nil {
		return nil, errors.New("vk.GetSwapchainImages(): " + err.Error())
	}
	images := make([]vk.Image, count)
	if err := vk.Error(vk.GetSwapchainImages(s.device, s.handle, &count, images)); err != nil {
		return nil, errors.New("vk.GetSwapchainImages(): " + err.Error())
	}

	out := make([]gfx.Image, 0, count)
	for _, img := range images[:count] {
		out = append(out, img)
	}
	return out, nil
}

// AcquireNextImage implements gfx.Swapchain
func (s *Swapchain) AcquireNextImage(signal gfx.Semaphore, timeout time.Duration) (uint32, bool, error) {
	sem, ok := signal.(*Semaphore)
	if !ok {
		return 0, false, errors.Errorf("vkr.AcquireNextImage(): %T is not a semaphore", signal)
	}

	var index uint32
	ret := vk.AcquireNextImage(s.device, s.handle, uint64(timeout.Nanoseconds()), sem.handle, vk.NullFence, &index)
	suboptimal, err := presentResult(ret)
	return index, suboptimal, err
}

// Release implements gfx.Releasable
func (s *Swapchain) Release() {
	vk.DestroySwapchain(s.device, s.handle, nil)
}

// presentResult maps the results acquire and present share
func presentResult(ret vk.Result) (bool, error) {
	switch ret {
	case vk.Success:
		return false, nil
	case vk.Suboptimal:
		return true, nil
	case vk.ErrorOutOfDate:
		return false, gfx.ErrOutOfDate
	case vk.Timeout, vk.NotReady:
		return false, gfx.ErrTimeout
	}
	return false, vk.Error(ret)
}
