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

func newPhysicalDevice(h vk.PhysicalDevice) *PhysicalDevice {
	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(h, &props)
	props.Deref()
	props.Limits.Deref()

	var features vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(h, &features)
	features.Deref()

	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(h, &count, nil)
	families := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(h, &count, families)

	pd := &PhysicalDevice{
		handle: h,
		properties: gfx.DeviceProperties{
			Name:                vk.ToString(props.DeviceName[:]),
			Type:                gfx.DeviceType(props.DeviceType),
			VendorID:            props.VendorID,
			DeviceID:            props.DeviceID,
			DriverVersion:       props.DriverVersion,
			APIVersion:          gfx.UnpackVersion(props.ApiVersion),
			MaxImageDimension2D: props.Limits.MaxImageDimension2D,
		},
		features: gfx.DeviceFeatures{
			GeometryShader:     features.GeometryShader == vk.True,
			TessellationShader: features.TessellationShader == vk.True,
			MultiViewport:      features.MultiViewport == vk.True,
			SamplerAnisotropy:  features.SamplerAnisotropy == vk.True,
			FillModeNonSolid:   features.FillModeNonSolid == vk.True,
		},
	}
	for _, f := range families[:count] {
		f.Deref()
		pd.families = append(pd.families, gfx.QueueFamily{
			Flags: gfx.QueueFlags(f.QueueFlags),
			Count: f.QueueCount,
		})
	}
	return pd
}

// PhysicalDevice is the Vulkan implementation of gfx.PhysicalDevice,
// properties, features and queue families are read once
type PhysicalDevice struct {
	handle     vk.PhysicalDevice
	properties gfx.DeviceProperties
	features   gfx.DeviceFeatures
	families   []gfx.QueueFamily
}

// Properties implements gfx.PhysicalDevice
func (p *PhysicalDevice) Properties() gfx.DeviceProperties {
	return p.properties
}

// Features implements gfx.PhysicalDevice
func (p *PhysicalDevice) Features() gfx.DeviceFeatures {
	return p.features
}

// QueueFamilies implements gfx.PhysicalDevice
func (p *PhysicalDevice) QueueFamilies() []gfx.QueueFamily {
	return p.families
}

// Extensions implements gfx.PhysicalDevice
func (p *PhysicalDevice) Extensions() ([]string, error) {
	var count uint32
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(p.handle, "", &count, nil)); err != nil {
		return nil, errors.New("vk.EnumerateDeviceExtensionProperties(): " + err.Error())
	}
	exts := make([]vk.ExtensionProperties, count)
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(p.handle, "", &count, exts)); err != nil {
		return nil, errors.New("vk.EnumerateDeviceExtensionProperties(): " + err.Error())
	}
	return extensionNames(exts[:count]), nil
}

// SurfaceSupport implements gfx.PhysicalDevice
func (p *PhysicalDevice) SurfaceSupport(family uint32, surface gfx.Surface) (bool, error) {
	var supported vk.Bool32
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceSupport(p.handle, family, surfaceHandle(surface), &supported)); err != nil {
		return false, errors.New("vk.GetPhysicalDeviceSurfaceSupport(): " + err.Error())
	}
	return supported == vk.True, nil
}

// SurfaceCapabilities implements gfx.PhysicalDevice
func (p *PhysicalDevice) SurfaceCapabilities(surface gfx.Surface) (gfx.SurfaceCapabilities, error) {
	var caps vk.SurfaceCapabilities
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceCapabilities(p.handle, surfaceHandle(surface), &caps)); err != nil {
		return gfx.SurfaceCapabilities{}, errors.New("vk.GetPhysicalDeviceSurfaceCapabilities(): " + err.Error())
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()

	return gfx.SurfaceCapabilities{
		MinImageCount:       caps.MinImageCount,
		MaxImageCount:       caps.MaxImageCount,
		CurrentExtent:       extent(caps.CurrentExtent),
		MinImageExtent:      extent(caps.MinImageExtent),
		MaxImageExtent:      extent(caps.MaxImageExtent),
		CurrentTransform:    uint32(caps.CurrentTransform),
		SupportedTransforms: uint32(caps.SupportedTransforms),
	}, nil
}

// SurfaceFormats implements gfx.PhysicalDevice
func (p *PhysicalDevice) SurfaceFormats(surface gfx.Surface) ([]gfx.SurfaceFormat, error) {
	var count uint32
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(p.handle, surfaceHandle(surface), &count, nil)); err != nil {
		return nil, errors.New("vk.GetPhysicalDeviceSurfaceFormats(): " + err.Error())
	}
	formats := make([]vk.SurfaceFormat, count)
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(p.handle, surfaceHandle(surface), &count, formats)); err != nil {
		return nil, errors.New("vk.GetPhysicalDeviceSurfaceFormats(): " + err.Error())
	}

	out := make([]gfx.SurfaceFormat, 0, count)
	for _, f := range formats[:count] {
		f.Deref()
		out = append(out, gfx.SurfaceFormat{
			Format:     gfx.Format(f.Format),
			ColorSpace: gfx.ColorSpace(f.ColorSpace),
		})
	}
	return out, nil
}

// PresentModes implements gfx.PhysicalDevice
func (p *PhysicalDevice) PresentModes(surface gfx.Surface) ([]gfx.PresentMode, error) {
	var count uint32
	if err := vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(p.handle, surfaceHandle(surface), &count, nil)); err != nil {
		return nil, errors.New("vk.GetPhysicalDeviceSurfacePresentModes(): " + err.Error())
	}
	modes := make([]vk.PresentMode, count)
	if err := vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(p.handle, surfaceHandle(surface), &count, modes)); err != nil {
		return nil, errors.New("vk.GetPhysicalDeviceSurfacePresentModes(): " + err.Error())
	}

	out := make([]gfx.PresentMode, 0, count)
	for _, m := range modes[:count] {
		out = append(out, gfx.PresentMode(m))
	}
	return out, nil
}

// CreateDevice implements gfx.PhysicalDevice
func (p *PhysicalDevice) CreateDevice(info gfx.DeviceInfo) (gfx.Device, error) {
	queueInfos := make([]vk.DeviceQueueCreateInfo, 0, len(info.Queues))
	for _, q := range info.Queues {
		queueInfos = append(queueInfos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: q.Family,
			QueueCount:       uint32(len(q.Priorities)),
			PQueuePriorities: q.Priorities,
		})
	}

	features := vk.PhysicalDeviceFeatures{
		GeometryShader:     vkBool(info.Features.GeometryShader),
		TessellationShader: vkBool(info.Features.TessellationShader),
		MultiViewport:      vkBool(info.Features.MultiViewport),
		SamplerAnisotropy:  vkBool(info.Features.SamplerAnisotropy),
		FillModeNonSolid:   vkBool(info.Features.FillModeNonSolid),
	}

	deviceInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(info.Extensions)),
		PpEnabledExtensionNames: safeStrings(info.Extensions),
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{features},
	}

	var device vk.Device
	if err := vk.Error(vk.CreateDevice(p.handle, &deviceInfo, nil, &device)); err != nil {
		return nil, errors.New("vk.CreateDevice(): " + err.Error())
	}
	return &Device{device: device, physical: p.handle}, nil
}

func surfaceHandle(s gfx.Surface) vk.Surface {
	if vs, ok := s.(*Surface); ok {
		return vs.surface
	}
	return vk.NullSurface
}

func extent(e vk.Extent2D) gfx.Extent {
	return gfx.Extent{Width: e.Width, Height: e.Height}
}

func vkBool(b bool) vk.Bool32 {
	if b {
		return vk.True
	}
	return vk.False
}
