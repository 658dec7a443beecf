// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx_test

import (
	"testing"

	"github.com/devblok/trinvk/gfx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestFailureMatchesKind(t *testing.T) {
	driverErr := errors.New("VK_ERROR_INITIALIZATION_FAILED")
	err := gfx.Fail(gfx.ErrDeviceCreationFailed, "vk.CreateDevice()", driverErr)

	assert.True(t, errors.Is(err, gfx.ErrDeviceCreationFailed))
	assert.True(t, errors.Is(err, driverErr))
	assert.False(t, errors.Is(err, gfx.ErrSwapchainCreationFailed))
	assert.Equal(t, "vk.CreateDevice(): device creation failed: VK_ERROR_INITIALIZATION_FAILED", err.Error())
}

func TestFailureWithoutCause(t *testing.T) {
	err := gfx.Fail(gfx.ErrNoSuitableDevice, "device.Select()", nil)
	assert.True(t, errors.Is(err, gfx.ErrNoSuitableDevice))
	assert.Equal(t, "device.Select(): no suitable device", err.Error())

	var failure *gfx.Failure
	if assert.True(t, errors.As(err, &failure)) {
		assert.Equal(t, "device.Select()", failure.Op)
	}
}

func TestVersionPacking(t *testing.T) {
	v := gfx.Version{Major: 1, Minor: 2, Patch: 131}
	assert.Equal(t, uint32(1<<22|2<<12|131), v.Packed())
	assert.Equal(t, v, gfx.UnpackVersion(v.Packed()))
	assert.Equal(t, "1.2.131", v.String())
}

func TestQueueFlagsHas(t *testing.T) {
	flags := gfx.QueueGraphics | gfx.QueueTransfer
	assert.True(t, flags.Has(gfx.QueueGraphics))
	assert.True(t, flags.Has(gfx.QueueGraphics|gfx.QueueTransfer))
	assert.False(t, flags.Has(gfx.QueueCompute))
}
