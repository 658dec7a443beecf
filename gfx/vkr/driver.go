// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package vkr implements the gfx driver on top of vulkan-go.
package vkr

import (
	"unsafe"

	"github.com/devblok/trinvk/gfx"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// DebugReportExtension is the extension backing Instance.CreateMessenger.
const DebugReportExtension = "VK_EXT_debug_report"

// instanceCreateEnumeratePortability is VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR.
const instanceCreateEnumeratePortability = 0x00000001

// NewDriver loads the Vulkan loader. procAddr is the vkGetInstanceProcAddr
// a window system hands out, when nil the system loader is used.
func NewDriver(procAddr unsafe.Pointer) (*Driver, error) {
	if procAddr == nil {
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			return nil, errors.New("vk.SetDefaultGetInstanceProcAddr(): " + err.Error())
		}
	} else {
		vk.SetGetInstanceProcAddr(procAddr)
	}

	if err := vk.Init(); err != nil {
		return nil, errors.New("vk.Init(): " + err.Error())
	}
	return &Driver{}, nil
}

// Driver is the Vulkan implementation of gfx.Driver
type Driver struct{}

// Layers implements gfx.Driver
func (d *Driver) Layers() ([]string, error) {
	var count uint32
	if err := vk.Error(vk.EnumerateInstanceLayerProperties(&count, nil)); err != nil {
		return nil, errors.New("vk.EnumerateInstanceLayerProperties(): " + err.Error())
	}
	layers := make([]vk.LayerProperties, count)
	if err := vk.Error(vk.EnumerateInstanceLayerProperties(&count, layers)); err != nil {
		return nil, errors.New("vk.EnumerateInstanceLayerProperties(): " + err.Error())
	}

	names := make([]string, 0, count)
	for _, layer := range layers[:count] {
		layer.Deref()
		names = append(names, vk.ToString(layer.LayerName[:]))
	}
	return names, nil
}

// InstanceExtensions implements gfx.Driver
func (d *Driver) InstanceExtensions() ([]string, error) {
	var count uint32
	if err := vk.Error(vk.EnumerateInstanceExtensionProperties("", &count, nil)); err != nil {
		return nil, errors.New("vk.EnumerateInstanceExtensionProperties(): " + err.Error())
	}
	exts := make([]vk.ExtensionProperties, count)
	if err := vk.Error(vk.EnumerateInstanceExtensionProperties("", &count, exts)); err != nil {
		return nil, errors.New("vk.EnumerateInstanceExtensionProperties(): " + err.Error())
	}
	return extensionNames(exts[:count]), nil
}

// DebugExtension implements gfx.Driver
func (d *Driver) DebugExtension() string {
	return DebugReportExtension
}

// CreateInstance implements gfx.Driver
func (d *Driver) CreateInstance(info gfx.InstanceInfo) (gfx.Instance, error) {
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		PApplicationName:   safeString(info.ApplicationName),
		ApplicationVersion: info.ApplicationVersion.Packed(),
		PEngineName:        safeString(info.EngineName),
		EngineVersion:      info.EngineVersion.Packed(),
		ApiVersion:         vk.MakeVersion(1, 0, 0),
	}

	instanceInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        appInfo,
		EnabledExtensionCount:   uint32(len(info.Extensions)),
		PpEnabledExtensionNames: safeStrings(info.Extensions),
		EnabledLayerCount:       uint32(len(info.Layers)),
		PpEnabledLayerNames:     safeStrings(info.Layers),
	}
	if info.Portability {
		instanceInfo.Flags = vk.InstanceCreateFlags(instanceCreateEnumeratePortability)
	}

	var instance vk.Instance
	if err := vk.Error(vk.CreateInstance(&instanceInfo, nil, &instance)); err != nil {
		return nil, errors.New("vk.CreateInstance(): " + err.Error())
	}
	if err := vk.InitInstance(instance); err != nil {
		vk.DestroyInstance(instance, nil)
		return nil, errors.New("vk.InitInstance(): " + err.Error())
	}
	return &Instance{instance: instance}, nil
}

func extensionNames(exts []vk.ExtensionProperties) []string {
	names := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}
	return names
}
