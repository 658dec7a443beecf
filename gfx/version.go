// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import "fmt"

// Version is a three part version number.
type Version struct {
	Major uint32
	Minor uint32
	Patch uint32
}

// Packed returns the version in the Vulkan packed form.
func (v Version) Packed() uint32 {
	return v.Major<<22 | v.Minor<<12 | v.Patch
}

// UnpackVersion is the inverse of Version.Packed.
func UnpackVersion(packed uint32) Version {
	return Version{
		Major: packed >> 22,
		Minor: (packed >> 12) & 0x3ff,
		Patch: packed & 0xfff,
	}
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}
