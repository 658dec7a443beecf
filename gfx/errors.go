// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import (
	"fmt"

	"github.com/pkg/errors"
)

// Failure kinds. A failure returned by the engine matches one of these
// with errors.Is.
var (
	ErrInitializationFailure       = errors.New("initialization failure")
	ErrNoDevicesFound              = errors.New("no devices found")
	ErrNoSuitableDevice            = errors.New("no suitable device")
	ErrValidationLayersUnavailable = errors.New("validation layers unavailable")
	ErrDeviceCreationFailed        = errors.New("device creation failed")
	ErrSwapchainCreationFailed     = errors.New("swapchain creation failed")
	ErrResourceCreationFailed      = errors.New("resource creation failed")
)

// Transient driver signals, these are expected during normal operation.
var (
	// ErrOutOfDate means the swapchain no longer matches the surface
	// and has to be recreated.
	ErrOutOfDate = errors.New("swapchain out of date")

	// ErrTimeout means a wait did not finish in the given time.
	ErrTimeout = errors.New("timeout")
)

// Failure attaches a failure kind and the failed operation to an error.
type Failure struct {
	Kind error
	Op   string
	Err  error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s: %s", f.Op, f.Kind)
	}
	return fmt.Sprintf("%s: %s: %s", f.Op, f.Kind, f.Err)
}

// Is matches the failure kind.
func (f *Failure) Is(target error) bool {
	return target == f.Kind
}

// Unwrap returns the underlying error.
func (f *Failure) Unwrap() error {
	return f.Err
}

// Fail builds a Failure of the given kind.
func Fail(kind error, op string, err error) error {
	return errors.WithStack(&Failure{
		Kind: kind,
		Op:   op,
		Err:  err,
	})
}
