// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package shader loads SPIR-V binaries from a directory, a packr box
// or a kar archive, and watches directories for recompiled shaders.
package shader

import (
	"path"
	"sort"
	"strings"

	"github.com/devblok/trinvk/core"
	"github.com/pkg/errors"
)

// Magic is the first word of every SPIR-V module
const Magic uint32 = 0x07230203

// Extension is the suffix of compiled shaders
const Extension = ".spv"

// ErrInvalidCode is returned for data that is not a SPIR-V module
var ErrInvalidCode = errors.New("invalid SPIR-V code")

// Source provides shader binaries by name
type Source interface {
	Open(name string) ([]byte, error)
	List() ([]string, error)
}

// Load reads a shader from src and checks it is SPIR-V
func Load(src Source, name string) ([]uint32, error) {
	data, err := src.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "loading shader %s", name)
	}
	code, err := Decode(data)
	if err != nil {
		return nil, errors.Wrapf(err, "loading shader %s", name)
	}
	return code, nil
}

// Decode reinterprets data as SPIR-V words
func Decode(data []byte) ([]uint32, error) {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, errors.Wrapf(ErrInvalidCode, "size %d is not a multiple of 4", len(data))
	}
	code := core.SliceUint32(data)
	if code[0] != Magic {
		return nil, errors.Wrapf(ErrInvalidCode, "magic %#08x", code[0])
	}
	return code, nil
}

// IsShader reports if name looks like a compiled shader
func IsShader(name string) bool {
	return strings.HasSuffix(name, Extension)
}

// TypeOf tells the stage of a shader from names like "triangle.vert.spv"
func TypeOf(name string) core.ShaderType {
	stage := path.Ext(strings.TrimSuffix(name, Extension))
	switch stage {
	case ".vert":
		return core.VertexShaderType
	case ".frag":
		return core.FragmentShaderType
	case ".comp":
		return core.ComputeShaderType
	}
	return core.UnknownShaderType
}

func filterShaders(names []string) []string {
	var out []string
	for _, n := range names {
		if IsShader(n) {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}
