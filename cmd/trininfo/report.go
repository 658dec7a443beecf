// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"github.com/devblok/trinvk/core"
	"github.com/devblok/trinvk/device"
	"github.com/devblok/trinvk/gfx"
	"github.com/pkg/errors"
)

// Report lists the devices in the order the engine would pick them,
// followed by those it would never pick
type Report struct {
	InstanceExtensions []string           `json:"instanceExtensions"`
	Ranked             []device.Candidate `json:"ranked"`
	Rejected           []device.Candidate `json:"rejected"`
}

// inspect creates an instance and a surface, evaluates every device
// against them and releases both
func inspect(driver gfx.Driver, options core.Options) (Report, error) {
	var rep Report

	available, err := driver.InstanceExtensions()
	if err != nil {
		return rep, errors.Wrap(err, "vk.EnumerateInstanceExtensionProperties()")
	}
	rep.InstanceExtensions = available

	instance, err := driver.CreateInstance(gfx.InstanceInfo{
		ApplicationName:    options.ApplicationName,
		ApplicationVersion: options.ApplicationVersion,
		EngineName:         core.EngineName,
		EngineVersion:      core.EngineVersion,
		Extensions:         core.InstanceExtensions(options, driver.DebugExtension()),
		Portability:        options.Portability,
	})
	if err != nil {
		return rep, errors.Wrap(err, "vk.CreateInstance()")
	}
	defer instance.Release()

	handle, err := options.SurfaceProvider.CreateSurface(instance)
	if err != nil {
		return rep, errors.Wrap(err, "SurfaceProvider.CreateSurface()")
	}
	surface := instance.WrapSurface(handle)
	defer surface.Release()

	required := append([]string{device.SwapchainExtension}, options.DeviceExtensions...)
	candidates, err := device.Candidates(instance, surface, required)
	if err != nil {
		return rep, err
	}

	rep.Ranked = device.Rank(candidates)
	for _, c := range candidates {
		if !c.Suitable {
			rep.Rejected = append(rep.Rejected, c)
		}
	}
	return rep, nil
}
