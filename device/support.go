// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"sort"

	"github.com/devblok/trinvk/gfx"
	"github.com/pkg/errors"
)

// SwapchainExtension is the device extension needed for presentation.
const SwapchainExtension = "VK_KHR_swapchain"

// SwapchainSupport is what a surface offers to swapchains of a device.
type SwapchainSupport struct {
	Capabilities gfx.SurfaceCapabilities `json:"capabilities"`
	Formats      []gfx.SurfaceFormat     `json:"formats"`
	PresentModes []gfx.PresentMode       `json:"presentModes"`
}

// IsAdequate reports if at least one format and one present mode are offered.
func (s SwapchainSupport) IsAdequate() bool {
	return len(s.Formats) > 0 && len(s.PresentModes) > 0
}

// QuerySwapchainSupport asks the device what it supports on the surface.
func QuerySwapchainSupport(pd gfx.PhysicalDevice, surface gfx.Surface) (SwapchainSupport, error) {
	var (
		support SwapchainSupport
		err     error
	)
	if support.Capabilities, err = pd.SurfaceCapabilities(surface); err != nil {
		return support, errors.Wrap(err, "vk.GetPhysicalDeviceSurfaceCapabilities()")
	}
	if support.Formats, err = pd.SurfaceFormats(surface); err != nil {
		return support, errors.Wrap(err, "vk.GetPhysicalDeviceSurfaceFormats()")
	}
	if support.PresentModes, err = pd.PresentModes(surface); err != nil {
		return support, errors.Wrap(err, "vk.GetPhysicalDeviceSurfacePresentModes()")
	}
	return support, nil
}

// MissingExtensions returns the required extensions that are not available,
// sorted by name. An empty result means everything is supported.
func MissingExtensions(required, available []string) []string {
	missing := make(map[string]struct{}, len(required))
	for _, r := range required {
		missing[r] = struct{}{}
	}
	for _, a := range available {
		delete(missing, a)
	}

	names := make([]string, 0, len(missing))
	for name := range missing {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Contains reports if name is in list.
func Contains(list []string, name string) bool {
	for _, l := range list {
		if l == name {
			return true
		}
	}
	return false
}
