// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"encoding/binary"
	"testing"

	"github.com/devblok/trinvk/core"
	"github.com/stretchr/testify/assert"
)

func TestSliceUint32(t *testing.T) {
	data := make([]byte, 12)
	binary.LittleEndian.PutUint32(data[0:], 0x07230203)
	binary.LittleEndian.PutUint32(data[4:], 0x00010000)
	binary.LittleEndian.PutUint32(data[8:], 42)

	words := core.SliceUint32(data)
	assert.Len(t, words, 3)
	assert.Equal(t, uint32(0x07230203), words[0])
	assert.Equal(t, uint32(42), words[2])

	assert.Len(t, core.SliceUint32(data[:7]), 1)
	assert.Nil(t, core.SliceUint32(nil))
	assert.Nil(t, core.SliceUint32(data[:3]))
}

func TestDedup(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, core.Dedup([]string{"a", "b", "a", "c", "b"}))
	assert.Empty(t, core.Dedup(nil))
}

func BenchmarkSliceUint32Small(b *testing.B) {
	data := make([]byte, 100)
	for idx := 0; idx < b.N; idx++ {
		core.SliceUint32(data)
	}
}

func BenchmarkSliceUint32Medium(b *testing.B) {
	data := make([]byte, 1000)
	for idx := 0; idx < b.N; idx++ {
		core.SliceUint32(data)
	}
}

func BenchmarkSliceUint32Big(b *testing.B) {
	data := make([]byte, 100000)
	for idx := 0; idx < b.N; idx++ {
		core.SliceUint32(data)
	}
}
