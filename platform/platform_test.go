// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package platform_test

import (
	"testing"

	"github.com/devblok/trinvk/core"
	"github.com/devblok/trinvk/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRejectsConfiguration(t *testing.T) {
	cases := map[string]core.WindowConfiguration{
		"size":    {Width: 0, Height: 600, Backend: platform.BackendSDL},
		"backend": {Width: 800, Height: 600, Backend: "wayland"},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			w, err := platform.Open(cfg)
			assert.Error(t, err)
			assert.Nil(t, w)
		})
	}
}

func TestReporterFunc(t *testing.T) {
	var got []string
	var reporter platform.ErrorReporter = platform.ReporterFunc(func(title, message string) error {
		got = append(got, title, message)
		return nil
	})
	require.NoError(t, reporter.ShowError("TrinVK Engine", "no suitable device"))
	assert.Equal(t, []string{"TrinVK Engine", "no suitable device"}, got)
}
