// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import "fmt"

// DeviceType is the category of a physical device.
type DeviceType int

// Device categories, values follow Vulkan.
const (
	DeviceTypeOther DeviceType = iota
	DeviceTypeIntegratedGPU
	DeviceTypeDiscreteGPU
	DeviceTypeVirtualGPU
	DeviceTypeCPU
)

func (t DeviceType) String() string {
	switch t {
	case DeviceTypeIntegratedGPU:
		return "integrated"
	case DeviceTypeDiscreteGPU:
		return "discrete"
	case DeviceTypeVirtualGPU:
		return "virtual"
	case DeviceTypeCPU:
		return "cpu"
	default:
		return "other"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t DeviceType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// QueueFlags are the capabilities of a queue family.
type QueueFlags uint32

// Queue family capabilities, values follow Vulkan.
const (
	QueueGraphics QueueFlags = 1 << iota
	QueueCompute
	QueueTransfer
	QueueSparseBinding
)

// Has reports if all bits of o are set.
func (f QueueFlags) Has(o QueueFlags) bool {
	return f&o == o
}

// QueueFamily describes one queue family of a physical device.
type QueueFamily struct {
	Flags QueueFlags
	Count uint32
}

// DeviceProperties are the identity and limits of a physical device.
type DeviceProperties struct {
	Name          string
	Type          DeviceType
	VendorID      uint32
	DeviceID      uint32
	DriverVersion uint32
	APIVersion    Version

	MaxImageDimension2D uint32
}

// DeviceFeatures is the subset of device features the engine cares about.
type DeviceFeatures struct {
	GeometryShader     bool
	TessellationShader bool
	MultiViewport      bool
	SamplerAnisotropy  bool
	FillModeNonSolid   bool
}

// Format is an image format, values follow Vulkan.
type Format int32

// Formats that may come up for presentable images.
const (
	FormatUndefined     Format = 0
	FormatR8G8B8A8Unorm Format = 37
	FormatR8G8B8A8SRGB  Format = 43
	FormatB8G8R8A8Unorm Format = 44
	FormatB8G8R8A8SRGB  Format = 50
)

// ColorSpace is the color space of presentable images.
type ColorSpace int32

// ColorSpaceSRGBNonlinear is the only color space every surface supports.
const ColorSpaceSRGBNonlinear ColorSpace = 0

// SurfaceFormat pairs a format with its color space.
type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

// PresentMode selects how images are queued for presentation.
type PresentMode int32

// Present modes, values follow Vulkan.
const (
	PresentModeImmediate PresentMode = iota
	PresentModeMailbox
	PresentModeFIFO
	PresentModeFIFORelaxed
)

func (m PresentMode) String() string {
	switch m {
	case PresentModeImmediate:
		return "immediate"
	case PresentModeMailbox:
		return "mailbox"
	case PresentModeFIFO:
		return "fifo"
	case PresentModeFIFORelaxed:
		return "fifo-relaxed"
	default:
		return fmt.Sprintf("present-mode(%d)", int32(m))
	}
}

// UndefinedExtent is the value a surface reports for its current extent
// when the swapchain decides the size.
const UndefinedExtent = 0xFFFFFFFF

// Extent is a size in pixels.
type Extent struct {
	Width  uint32
	Height uint32
}

// SurfaceCapabilities are the limits a surface puts on a swapchain.
type SurfaceCapabilities struct {
	MinImageCount uint32

	// MaxImageCount of 0 means there is no upper limit.
	MaxImageCount uint32

	CurrentExtent  Extent
	MinImageExtent Extent
	MaxImageExtent Extent

	CurrentTransform    uint32
	SupportedTransforms uint32
}
