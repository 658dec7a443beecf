// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"unsafe"

	"github.com/devblok/trinvk/gfx"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Instance is the Vulkan implementation of gfx.Instance
type Instance struct {
	instance vk.Instance
}

// Inner implements gfx.Instance, returns vk.Instance
func (i *Instance) Inner() interface{} {
	return i.instance
}

// PhysicalDevices implements gfx.Instance
func (i *Instance) PhysicalDevices() ([]gfx.PhysicalDevice, error) {
	var count uint32
	if err := vk.Error(vk.EnumeratePhysicalDevices(i.instance, &count, nil)); err != nil {
		return nil, errors.New("vk.EnumeratePhysicalDevices(): " + err.Error())
	}
	handles := make([]vk.PhysicalDevice, count)
	if err := vk.Error(vk.EnumeratePhysicalDevices(i.instance, &count, handles)); err != nil {
		return nil, errors.New("vk.EnumeratePhysicalDevices(): " + err.Error())
	}

	devices := make([]gfx.PhysicalDevice, 0, count)
	for _, h := range handles[:count] {
		devices = append(devices, newPhysicalDevice(h))
	}
	return devices, nil
}

// CreateMessenger implements gfx.Instance with a debug report callback
func (i *Instance) CreateMessenger(info gfx.MessengerInfo) (gfx.Messenger, error) {
	if info.Callback == nil {
		return nil, errors.New("vkr.CreateMessenger(): no callback")
	}

	callback := func(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
		object uint64, location uint, messageCode int32, pLayerPrefix string,
		pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
		msg := reportMessage(flags, pLayerPrefix, messageCode, pMessage)
		if msg.Type&info.Types != 0 {
			info.Callback(msg)
		}
		return vk.Bool32(vk.False)
	}

	createInfo := vk.DebugReportCallbackCreateInfo{
		SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags:       reportFlags(info.Severities),
		PfnCallback: callback,
	}

	var handle vk.DebugReportCallback
	if err := vk.Error(vk.CreateDebugReportCallback(i.instance, &createInfo, nil, &handle)); err != nil {
		return nil, errors.New("vk.CreateDebugReportCallback(): " + err.Error())
	}
	return &messenger{instance: i.instance, handle: handle}, nil
}

// WrapSurface implements gfx.Instance
func (i *Instance) WrapSurface(handle uintptr) gfx.Surface {
	return &Surface{
		instance: i.instance,
		surface:  vk.SurfaceFromPointer(handle),
	}
}

// Release implements gfx.Releasable
func (i *Instance) Release() {
	vk.DestroyInstance(i.instance, nil)
}

// Surface is the Vulkan implementation of gfx.Surface
type Surface struct {
	instance vk.Instance
	surface  vk.Surface
}

// Release implements gfx.Releasable
func (s *Surface) Release() {
	vk.DestroySurface(s.instance, s.surface, nil)
}

type messenger struct {
	instance vk.Instance
	handle   vk.DebugReportCallback
}

func (m *messenger) Release() {
	vk.DestroyDebugReportCallback(m.instance, m.handle, nil)
}

func reportFlags(s gfx.Severity) vk.DebugReportFlags {
	var flags vk.DebugReportFlagBits
	if s&gfx.SeverityVerbose != 0 {
		flags |= vk.DebugReportDebugBit
	}
	if s&gfx.SeverityInfo != 0 {
		flags |= vk.DebugReportInformationBit
	}
	if s&gfx.SeverityWarning != 0 {
		flags |= vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit
	}
	if s&gfx.SeverityError != 0 {
		flags |= vk.DebugReportErrorBit
	}
	return vk.DebugReportFlags(flags)
}

func reportMessage(flags vk.DebugReportFlags, layer string, code int32, text string) gfx.Message {
	msg := gfx.Message{
		Type:  gfx.MessageValidation,
		Layer: layer,
		Code:  code,
		Text:  text,
	}
	has := func(bit vk.DebugReportFlagBits) bool {
		return flags&vk.DebugReportFlags(bit) != 0
	}

	switch {
	case has(vk.DebugReportErrorBit):
		msg.Severity = gfx.SeverityError
	case has(vk.DebugReportWarningBit):
		msg.Severity = gfx.SeverityWarning
	case has(vk.DebugReportPerformanceWarningBit):
		msg.Severity = gfx.SeverityWarning
		msg.Type = gfx.MessagePerformance
	case has(vk.DebugReportInformationBit):
		msg.Severity = gfx.SeverityInfo
		msg.Type = gfx.MessageGeneral
	default:
		msg.Severity = gfx.SeverityVerbose
		msg.Type = gfx.MessageGeneral
	}
	return msg
}
