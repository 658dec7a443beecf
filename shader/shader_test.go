// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package shader_test

import (
	"bytes"
	"encoding/binary"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/devblok/trinvk/core"
	"github.com/devblok/trinvk/shader"
	"github.com/devblok/trinvk/utility/kar"
	"github.com/gobuffalo/packd"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spirv(words ...uint32) []byte {
	data := make([]byte, 4*(len(words)+1))
	binary.LittleEndian.PutUint32(data, shader.Magic)
	for i, w := range words {
		binary.LittleEndian.PutUint32(data[4*(i+1):], w)
	}
	return data
}

func writeShaders(t *testing.T, files map[string][]byte) string {
	t.Helper()
	dir := t.TempDir()
	for name, data := range files {
		require.NoError(t, ioutil.WriteFile(filepath.Join(dir, name), data, 0644))
	}
	return dir
}

func TestDecode(t *testing.T) {
	code, err := shader.Decode(spirv(0x00010000, 7))
	require.NoError(t, err)
	assert.Equal(t, []uint32{shader.Magic, 0x00010000, 7}, code)

	for name, data := range map[string][]byte{
		"empty":     nil,
		"unaligned": spirv(1)[:7],
		"magic":     {1, 2, 3, 4},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := shader.Decode(data)
			assert.True(t, errors.Is(err, shader.ErrInvalidCode), "%v", err)
		})
	}
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, core.VertexShaderType, shader.TypeOf("triangle.vert.spv"))
	assert.Equal(t, core.FragmentShaderType, shader.TypeOf("dir/triangle.frag.spv"))
	assert.Equal(t, core.ComputeShaderType, shader.TypeOf("cull.comp.spv"))
	assert.Equal(t, core.UnknownShaderType, shader.TypeOf("triangle.spv"))
	assert.Equal(t, "frag", shader.TypeOf("a.frag.spv").String())
}

func TestDirSource(t *testing.T) {
	dir := writeShaders(t, map[string][]byte{
		"b.frag.spv": spirv(2),
		"a.vert.spv": spirv(1),
		"notes.txt":  []byte("not a shader"),
	})
	src := shader.NewDirSource(dir)

	names, err := src.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.vert.spv", "b.frag.spv"}, names)

	code, err := shader.Load(src, "b.frag.spv")
	require.NoError(t, err)
	assert.Equal(t, uint32(2), code[1])

	_, err = shader.Load(src, "missing.vert.spv")
	assert.Error(t, err)

	_, err = shader.Load(src, "notes.txt")
	assert.True(t, errors.Is(err, shader.ErrInvalidCode))

	stamp := time.Now().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "a.vert.spv"), stamp, stamp))
	modified, err := src.ModTime("a.vert.spv")
	require.NoError(t, err)
	assert.True(t, stamp.Equal(modified), "%v != %v", stamp, modified)

	_, err = src.ModTime("../b.frag.spv")
	assert.NoError(t, err, "names can not escape the directory")
}

func TestBoxSource(t *testing.T) {
	box := packd.NewMemoryBox()
	require.NoError(t, box.AddBytes("tri.vert.spv", spirv(3)))
	require.NoError(t, box.AddString("README", "docs"))
	src := shader.NewBoxSource(box)

	names, err := src.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"tri.vert.spv"}, names)

	code, err := shader.Load(src, "tri.vert.spv")
	require.NoError(t, err)
	assert.Equal(t, []uint32{shader.Magic, 3}, code)
}

func TestArchiveSource(t *testing.T) {
	builder, err := kar.NewBuilder(kar.Header{Author: "shaders", Version: 1})
	require.NoError(t, err)
	defer builder.Close()
	require.NoError(t, builder.AddBytes("tri.vert.spv", spirv(4)))
	require.NoError(t, builder.AddBytes("tri.frag.spv", spirv(5)))
	require.NoError(t, builder.AddBytes("manifest.toml", []byte("x = 1")))

	var buf bytes.Buffer
	_, err = builder.WriteTo(&buf)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "shaders.kar")
	require.NoError(t, ioutil.WriteFile(path, buf.Bytes(), 0644))

	src, err := shader.OpenArchive(path)
	require.NoError(t, err)
	defer src.Close()

	names, err := src.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"tri.frag.spv", "tri.vert.spv"}, names)

	code, err := shader.Load(src, "tri.frag.spv")
	require.NoError(t, err)
	assert.Equal(t, uint32(5), code[1])

	_, err = shader.OpenArchive(filepath.Join(t.TempDir(), "missing.kar"))
	assert.Error(t, err)
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	w, err := shader.Watch(dir)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0644))
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "tri.vert.spv"), spirv(1), 0644))

	select {
	case name := <-w.Changes():
		assert.Equal(t, "tri.vert.spv", name)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	for range w.Changes() {
	}
}
