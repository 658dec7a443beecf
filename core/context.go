// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"runtime"
	"strings"

	"github.com/devblok/trinvk/device"
	"github.com/devblok/trinvk/gfx"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// EngineName is reported to the driver with every instance.
const EngineName = "TrinVK"

// EngineVersion is reported to the driver with every instance.
var EngineVersion = gfx.Version{Major: 0, Minor: 1, Patch: 0}

// Options configure a Context.
type Options struct {
	ApplicationName    string
	ApplicationVersion gfx.Version

	EnableValidationLayers bool

	// ValidationLayers are the layers loaded when validation is enabled,
	// defaults to the Khronos validation layer
	ValidationLayers []string

	// DeviceExtensions are required on top of the swapchain extension
	DeviceExtensions []string

	// Portability enables portability enumeration for drivers layered on
	// other APIs, like MoltenVK
	Portability bool

	SurfaceProvider SurfaceProvider
}

// NewOptions builds Options from the configuration.
func NewOptions(cfg Configuration, provider SurfaceProvider) (Options, error) {
	version, err := ParseVersion(cfg.Application.Version)
	if err != nil {
		return Options{}, err
	}
	return Options{
		ApplicationName:        cfg.Application.Name,
		ApplicationVersion:     version,
		EnableValidationLayers: cfg.Application.EnableValidationLayers,
		ValidationLayers:       cfg.Application.ValidationLayers,
		DeviceExtensions:       cfg.Renderer.DeviceExtensions,
		Portability:            runtime.GOOS == "darwin",
		SurfaceProvider:        provider,
	}, nil
}

// NewContext creates a Context bound to the driver.
// Nothing is created until Init is called.
func NewContext(driver gfx.Driver) *Context {
	return &Context{
		driver: driver,
	}
}

// Context owns the GPU connection. Objects are created by Init in order:
// instance, messenger, surface, device, and destroyed in reverse by Cleanup.
type Context struct {
	driver  gfx.Driver
	options Options

	instance  gfx.Instance
	messenger gfx.Messenger
	surface   gfx.Surface

	candidate device.Candidate
	device    gfx.Device
	families  device.QueueFamilyIndices

	graphicsQueue gfx.Queue
	presentQueue  gfx.Queue
	transferQueue gfx.Queue
}

// Init brings the context up. On failure everything created so far
// is destroyed before the error is returned.
func (c *Context) Init(options Options) (err error) {
	if c.instance != nil {
		return gfx.Fail(gfx.ErrInitializationFailure, "core.Context.Init()", errors.New("already initialised"))
	}
	if options.SurfaceProvider == nil {
		return gfx.Fail(gfx.ErrInitializationFailure, "core.Context.Init()", errors.New("no surface provider"))
	}
	if options.EnableValidationLayers && len(options.ValidationLayers) == 0 {
		options.ValidationLayers = []string{KhronosValidationLayer}
	}
	c.options = options

	defer func() {
		if err != nil {
			c.Cleanup()
		}
	}()

	if err := c.createInstance(); err != nil {
		return err
	}

	if options.EnableValidationLayers {
		if err := c.createMessenger(); err != nil {
			return err
		}
	}

	if err := c.createSurface(); err != nil {
		return err
	}

	candidate, err := device.Select(c.instance, c.surface, options.DeviceExtensions)
	if err != nil {
		return err
	}
	c.candidate = candidate
	c.families = candidate.Queues

	if err := c.createDevice(); err != nil {
		return err
	}

	c.graphicsQueue = c.device.Queue(c.families.Graphics.Index, 0)
	c.presentQueue = c.device.Queue(c.families.Present.Index, 0)
	if c.families.Transfer.Valid {
		c.transferQueue = c.device.Queue(c.families.Transfer.Index, 0)
	}

	log.WithFields(log.Fields{
		"device":   candidate.Properties.Name,
		"graphics": c.families.Graphics.Index,
		"present":  c.families.Present.Index,
		"transfer": c.families.Transfer,
	}).Info("context initialised")
	return nil
}

// InstanceExtensions returns the instance extensions the options require,
// platform ones first.
func InstanceExtensions(options Options, debugExtension string) []string {
	extensions := append([]string{}, options.SurfaceProvider.RequiredInstanceExtensions()...)
	if options.EnableValidationLayers {
		extensions = append(extensions, debugExtension)
	}
	if options.Portability {
		extensions = append(extensions, PortabilityEnumerationExtension, PhysicalDeviceProperties2)
	}
	return Dedup(extensions)
}

func (c *Context) createInstance() error {
	info := gfx.InstanceInfo{
		ApplicationName:    c.options.ApplicationName,
		ApplicationVersion: c.options.ApplicationVersion,
		EngineName:         EngineName,
		EngineVersion:      EngineVersion,
		Extensions:         InstanceExtensions(c.options, c.driver.DebugExtension()),
		Portability:        c.options.Portability,
	}

	if c.options.EnableValidationLayers {
		available, err := c.driver.Layers()
		if err != nil {
			return gfx.Fail(gfx.ErrValidationLayersUnavailable, "vk.EnumerateInstanceLayerProperties()", err)
		}
		if missing := device.MissingExtensions(c.options.ValidationLayers, available); len(missing) > 0 {
			return gfx.Fail(gfx.ErrValidationLayersUnavailable, "core.Context.Init()",
				errors.Errorf("requested layers not present: %s", strings.Join(missing, ", ")))
		}
		info.Layers = c.options.ValidationLayers
	}

	instance, err := c.driver.CreateInstance(info)
	if err != nil {
		return gfx.Fail(gfx.ErrInitializationFailure, "vk.CreateInstance()", err)
	}
	c.instance = instance

	log.WithFields(log.Fields{
		"application": info.ApplicationName,
		"version":     info.ApplicationVersion,
		"extensions":  info.Extensions,
		"layers":      info.Layers,
	}).Debug("instance created")
	return nil
}

func (c *Context) createMessenger() error {
	messenger, err := c.instance.CreateMessenger(gfx.MessengerInfo{
		Severities: gfx.SeverityAll,
		Types:      gfx.MessageAll,
		Callback:   LogMessage,
	})
	if err != nil {
		return gfx.Fail(gfx.ErrInitializationFailure, "vk.CreateDebugReportCallback()", err)
	}
	c.messenger = messenger
	return nil
}

// LogMessage writes a debug message to the log at the level
// matching its severity.
func LogMessage(msg gfx.Message) {
	entry := log.WithFields(log.Fields{
		"layer": msg.Layer,
		"code":  msg.Code,
	})
	if msg.Type&gfx.MessagePerformance != 0 {
		entry = entry.WithField("performance", true)
	}

	text := "Validation layer: " + msg.Text
	switch {
	case msg.Severity&gfx.SeverityError != 0:
		entry.Error(text)
	case msg.Severity&gfx.SeverityWarning != 0:
		entry.Warn(text)
	case msg.Severity&gfx.SeverityInfo != 0:
		entry.Info(text)
	default:
		entry.Debug(text)
	}
}

func (c *Context) createSurface() error {
	handle, err := c.options.SurfaceProvider.CreateSurface(c.instance)
	if err != nil {
		return gfx.Fail(gfx.ErrInitializationFailure, "SurfaceProvider.CreateSurface()", err)
	}
	c.surface = c.instance.WrapSurface(handle)
	return nil
}

func (c *Context) createDevice() error {
	var queues []gfx.QueueInfo
	for _, family := range c.families.Unique() {
		queues = append(queues, gfx.QueueInfo{
			Family:     family,
			Priorities: []float32{1.0},
		})
	}

	extensions := []string{device.SwapchainExtension}
	if device.Contains(c.candidate.Extensions, PortabilitySubsetExtension) {
		extensions = append(extensions, PortabilitySubsetExtension)
	}
	extensions = Dedup(append(extensions, c.options.DeviceExtensions...))

	dev, err := c.candidate.Device.CreateDevice(gfx.DeviceInfo{
		Queues:     queues,
		Extensions: extensions,
		Features: gfx.DeviceFeatures{
			SamplerAnisotropy: c.candidate.Features.SamplerAnisotropy,
			FillModeNonSolid:  c.candidate.Features.FillModeNonSolid,
		},
	})
	if err != nil {
		return gfx.Fail(gfx.ErrDeviceCreationFailed, "vk.CreateDevice()", err)
	}
	c.device = dev
	return nil
}

// Cleanup destroys everything the context owns in reverse creation order.
// Resources that do not exist are skipped, so it is safe to call on
// a partially initialised context and more than once.
func (c *Context) Cleanup() {
	if c.device != nil {
		if err := c.device.WaitIdle(); err != nil {
			log.WithError(err).Warn("vk.DeviceWaitIdle() before destroying device")
		}
		c.device.Release()
		c.device = nil
		c.graphicsQueue = nil
		c.presentQueue = nil
		c.transferQueue = nil
	}

	if c.surface != nil {
		c.surface.Release()
		c.surface = nil
	}

	if c.messenger != nil {
		c.messenger.Release()
		c.messenger = nil
	}

	if c.instance != nil {
		c.instance.Release()
		c.instance = nil
	}

	c.candidate = device.Candidate{}
	c.families = device.QueueFamilyIndices{}
}

// Instance returns the instance, nil before Init.
func (c *Context) Instance() gfx.Instance {
	return c.instance
}

// Device returns the logical device, nil before Init.
func (c *Context) Device() gfx.Device {
	return c.device
}

// PhysicalDevice returns the selected physical device.
func (c *Context) PhysicalDevice() gfx.PhysicalDevice {
	return c.candidate.Device
}

// Candidate returns the selection snapshot of the physical device.
func (c *Context) Candidate() device.Candidate {
	return c.candidate
}

// Surface returns the window surface.
func (c *Context) Surface() gfx.Surface {
	return c.surface
}

// QueueFamilies returns the families the queues were taken from.
func (c *Context) QueueFamilies() device.QueueFamilyIndices {
	return c.families
}

// GraphicsQueue returns the graphics queue.
func (c *Context) GraphicsQueue() gfx.Queue {
	return c.graphicsQueue
}

// PresentQueue returns the present queue.
func (c *Context) PresentQueue() gfx.Queue {
	return c.presentQueue
}

// TransferQueue returns the transfer queue, nil when the device has
// no transfer capable family.
func (c *Context) TransferQueue() gfx.Queue {
	return c.transferQueue
}
