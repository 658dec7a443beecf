// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package gfxtest provides an in-memory gfx driver. It records every object
// creation and destruction in order, and lets tests inject driver failures.
package gfxtest

import (
	"fmt"
	"strings"

	"github.com/devblok/trinvk/gfx"
)

// NewDriver creates a driver with the Khronos validation layer available
// and no physical devices.
func NewDriver() *Driver {
	return &Driver{
		AvailableLayers:     []string{"VK_LAYER_KHRONOS_validation"},
		AvailableExtensions: []string{"VK_KHR_surface", "VK_EXT_debug_report", "VK_EXT_debug_utils"},
		failures:            make(map[string]*failure),
	}
}

type failure struct {
	err  error
	once bool
}

// AcquireResult programs the outcome of one Swapchain.AcquireNextImage call.
type AcquireResult struct {
	Suboptimal bool
	Err        error
}

// PresentResult programs the outcome of one Queue.Present call.
type PresentResult struct {
	Suboptimal bool
	Err        error
}

// Driver is an in-memory gfx.Driver.
type Driver struct {
	AvailableLayers     []string
	AvailableExtensions []string
	Devices             []*PhysicalDevice

	// AcquireResults and PresentResults are consumed front first,
	// when empty the calls succeed.
	AcquireResults []AcquireResult
	PresentResults []PresentResult

	// InstanceInfo holds the info of the last created instance.
	InstanceInfo *gfx.InstanceInfo

	events   []string
	live     map[string]int
	failures map[string]*failure
	nextID   int
}

// AddDevice registers a physical device with the driver.
func (d *Driver) AddDevice(pd *PhysicalDevice) *PhysicalDevice {
	pd.driver = d
	d.Devices = append(d.Devices, pd)
	return pd
}

// FailOn makes every call of op fail with err until cleared with Clear.
// Op names are the method names, e.g. "CreateDevice".
func (d *Driver) FailOn(op string, err error) {
	d.failures[op] = &failure{err: err}
}

// FailOnce makes the next call of op fail with err.
func (d *Driver) FailOnce(op string, err error) {
	d.failures[op] = &failure{err: err, once: true}
}

// Clear removes an injected failure.
func (d *Driver) Clear(op string) {
	delete(d.failures, op)
}

func (d *Driver) fail(op string) error {
	if d == nil {
		return nil
	}
	f, ok := d.failures[op]
	if !ok {
		return nil
	}
	if f.once {
		delete(d.failures, op)
	}
	return f.err
}

// Events returns the ordered log of calls that created or destroyed objects.
func (d *Driver) Events() []string {
	return append([]string(nil), d.events...)
}

// Index returns the position of the first event equal to name, or -1.
func (d *Driver) Index(name string) int {
	for i, e := range d.events {
		if e == name {
			return i
		}
	}
	return -1
}

// LastIndex returns the position of the last event equal to name, or -1.
func (d *Driver) LastIndex(name string) int {
	for i := len(d.events) - 1; i >= 0; i-- {
		if d.events[i] == name {
			return i
		}
	}
	return -1
}

// Count returns the number of events equal to name.
func (d *Driver) Count(name string) int {
	var n int
	for _, e := range d.events {
		if e == name {
			n++
		}
	}
	return n
}

// Live returns the number of objects of a kind that were created
// and not yet released. An empty kind counts all objects.
func (d *Driver) Live(kind string) int {
	if kind != "" {
		return d.live[kind]
	}
	var n int
	for _, c := range d.live {
		n += c
	}
	return n
}

// DoubleReleases returns events of objects that were released twice.
func (d *Driver) DoubleReleases() []string {
	var out []string
	for _, e := range d.events {
		if strings.HasPrefix(e, "DoubleRelease") {
			out = append(out, e)
		}
	}
	return out
}

// ResetEvents clears the event log, live counters are kept.
func (d *Driver) ResetEvents() {
	d.events = d.events[:0]
}

func (d *Driver) record(event string) {
	d.events = append(d.events, event)
}

func (d *Driver) created(kind string) object {
	if d.live == nil {
		d.live = make(map[string]int)
	}
	d.nextID++
	d.live[kind]++
	d.record("Create" + kind)
	return object{driver: d, kind: kind, id: d.nextID}
}

// Layers implements gfx.Driver.
func (d *Driver) Layers() ([]string, error) {
	if err := d.fail("Layers"); err != nil {
		return nil, err
	}
	return d.AvailableLayers, nil
}

// InstanceExtensions implements gfx.Driver.
func (d *Driver) InstanceExtensions() ([]string, error) {
	if err := d.fail("InstanceExtensions"); err != nil {
		return nil, err
	}
	return d.AvailableExtensions, nil
}

// DebugExtension implements gfx.Driver.
func (d *Driver) DebugExtension() string {
	return "VK_EXT_debug_utils"
}

// CreateInstance implements gfx.Driver.
func (d *Driver) CreateInstance(info gfx.InstanceInfo) (gfx.Instance, error) {
	if err := d.fail("CreateInstance"); err != nil {
		return nil, err
	}
	d.InstanceInfo = &info
	return &Instance{object: d.created("Instance")}, nil
}

// object is the common part of every fake GPU object.
type object struct {
	driver   *Driver
	kind     string
	id       int
	released bool
}

// Release implements gfx.Releasable.
func (o *object) Release() {
	if o.released {
		o.driver.record("DoubleRelease" + o.kind)
		return
	}
	o.released = true
	o.driver.live[o.kind]--
	o.driver.record("Destroy" + o.kind)
}

// Released reports if the object was released.
func (o *object) Released() bool {
	return o.released
}

func (o *object) String() string {
	return fmt.Sprintf("%s#%d", o.kind, o.id)
}

// Instance is an in-memory gfx.Instance.
type Instance struct {
	object

	Messenger *Messenger
}

// Inner implements gfx.Instance.
func (i *Instance) Inner() interface{} {
	return i
}

// PhysicalDevices implements gfx.Instance.
func (i *Instance) PhysicalDevices() ([]gfx.PhysicalDevice, error) {
	if err := i.driver.fail("PhysicalDevices"); err != nil {
		return nil, err
	}
	devices := make([]gfx.PhysicalDevice, len(i.driver.Devices))
	for idx, pd := range i.driver.Devices {
		devices[idx] = pd
	}
	return devices, nil
}

// CreateMessenger implements gfx.Instance.
func (i *Instance) CreateMessenger(info gfx.MessengerInfo) (gfx.Messenger, error) {
	if err := i.driver.fail("CreateMessenger"); err != nil {
		return nil, err
	}
	i.Messenger = &Messenger{object: i.driver.created("Messenger"), Info: info}
	return i.Messenger, nil
}

// WrapSurface implements gfx.Instance.
func (i *Instance) WrapSurface(handle uintptr) gfx.Surface {
	return &Surface{object: i.driver.created("Surface"), Handle: handle}
}

// Messenger is an in-memory gfx.Messenger.
type Messenger struct {
	object

	Info gfx.MessengerInfo
}

// Emit delivers the message to the callback when the messenger subscribes to it.
// Returns true if it was delivered.
func (m *Messenger) Emit(msg gfx.Message) bool {
	if m.released || m.Info.Callback == nil {
		return false
	}
	if m.Info.Severities&msg.Severity == 0 || m.Info.Types&msg.Type == 0 {
		return false
	}
	m.Info.Callback(msg)
	return true
}

// Surface is an in-memory gfx.Surface.
type Surface struct {
	object

	Handle uintptr
}
