// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer_test

import (
	"encoding/binary"
	"testing"

	"github.com/devblok/trinvk/core/renderer"
	"github.com/devblok/trinvk/gfx"
	"github.com/devblok/trinvk/gfx/gfxtest"
	"github.com/devblok/trinvk/shader"
	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/gobuffalo/packd"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingTarget implements every stage and logs the calls.
type recordingTarget struct {
	name       string
	log        *[]string
	prepareErr error
}

func (r *recordingTarget) Name() string { return r.name }

func (r *recordingTarget) Prepare(renderer.TargetContext) error {
	*r.log = append(*r.log, r.name+":prepare")
	return r.prepareErr
}

func (r *recordingTarget) Update(renderer.TargetContext) error {
	*r.log = append(*r.log, r.name+":update")
	return nil
}

func (r *recordingTarget) Draw(_ renderer.TargetContext, cmd gfx.CommandBuffer) error {
	*r.log = append(*r.log, r.name+":draw")
	return nil
}

func (r *recordingTarget) Finalize(renderer.TargetContext) {
	*r.log = append(*r.log, r.name+":finalize")
}

// nameOnly opts into no stage at all.
type nameOnly string

func (n nameOnly) Name() string { return string(n) }

func TestTargetsLifecycle(t *testing.T) {
	var log []string
	a := &recordingTarget{name: "a", log: &log}
	b := &recordingTarget{name: "b", log: &log}
	targets := renderer.NewTargets(a, nameOnly("plain"), b)
	ctx := renderer.TargetContext{}

	require.NoError(t, targets.Run(renderer.StageUpdate, ctx, nil))
	assert.Empty(t, log, "targets are not updated before they are prepared")

	require.NoError(t, targets.Run(renderer.StagePrepare, ctx, nil))
	require.NoError(t, targets.Run(renderer.StagePrepare, ctx, nil))
	require.NoError(t, targets.Run(renderer.StageUpdate, ctx, nil))
	require.NoError(t, targets.Run(renderer.StageDraw, ctx, nil))
	require.NoError(t, targets.Run(renderer.StageFinalize, ctx, nil))
	require.NoError(t, targets.Run(renderer.StageFinalize, ctx, nil))
	require.NoError(t, targets.Run(renderer.StageDraw, ctx, nil))

	assert.Equal(t, []string{
		"a:prepare", "b:prepare",
		"a:update", "b:update",
		"a:draw", "b:draw",
		"a:finalize", "b:finalize",
	}, log)

	state, ok := targets.State("plain")
	assert.True(t, ok)
	assert.Equal(t, renderer.TargetFinalized, state)
	_, ok = targets.State("missing")
	assert.False(t, ok)
	assert.Equal(t, 3, targets.Len())
}

func TestTargetsPrepareFailure(t *testing.T) {
	var log []string
	a := &recordingTarget{name: "a", log: &log}
	b := &recordingTarget{name: "b", log: &log, prepareErr: errors.New("no memory")}
	c := &recordingTarget{name: "c", log: &log}
	targets := renderer.NewTargets(a, b, c)

	err := targets.Run(renderer.StagePrepare, renderer.TargetContext{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prepare b")

	require.NoError(t, targets.Run(renderer.StageFinalize, renderer.TargetContext{}, nil))
	assert.Equal(t, []string{"a:prepare", "b:prepare", "a:finalize"}, log)

	state, _ := targets.State("b")
	assert.Equal(t, renderer.TargetCreated, state)
}

func TestTargetsUnknownStage(t *testing.T) {
	assert.Error(t, renderer.NewTargets().Run(renderer.Stage(42), renderer.TargetContext{}, nil))
	assert.Equal(t, "unknown", renderer.Stage(42).String())
	assert.Equal(t, "draw", renderer.StageDraw.String())
}

func TestClearTarget(t *testing.T) {
	color := glm.Vec4{0.8, 0.4, 0.2, 1}
	target := renderer.NewClearTarget("clear", color)
	require.NoError(t, target.Update(renderer.TargetContext{Frame: 10}))
	assert.Equal(t, color, target.ClearColor())

	target.Pulse = 0.5
	for frame := uint64(0); frame < 50; frame++ {
		require.NoError(t, target.Update(renderer.TargetContext{Frame: frame}))
		c := target.ClearColor()
		assert.True(t, c.X() >= 0.8*0.5-1e-6 && c.X() <= 0.8+1e-6, "frame %d: %v", frame, c)
		assert.Equal(t, float32(1), c.W())
	}
}

func TestRendererUsesClearTarget(t *testing.T) {
	f := newFixture(t)
	r := newRenderer(t, f, renderer.NewClearTarget("clear", glm.Vec4{1, 0, 0, 1}))
	require.NoError(t, r.DrawFrame())

	subs := f.graphicsQueue().Submissions
	require.Len(t, subs, 1)
	cmd := subs[0].Info.Buffers[0].(*gfxtest.CommandBuffer)
	assert.Equal(t, [4]float32{1, 0, 0, 1}, cmd.ClearColor)
}

func spirv(words ...uint32) []byte {
	data := make([]byte, 4*(len(words)+1))
	binary.LittleEndian.PutUint32(data, shader.Magic)
	for i, w := range words {
		binary.LittleEndian.PutUint32(data[4*(i+1):], w)
	}
	return data
}

func TestShaderTarget(t *testing.T) {
	f := newFixture(t)
	box := packd.NewMemoryBox()
	require.NoError(t, box.AddBytes("tri.vert.spv", spirv(1)))
	require.NoError(t, box.AddBytes("tri.frag.spv", spirv(2)))

	changes := make(chan string, 4)
	target := renderer.NewShaderTarget("shaders", shader.NewBoxSource(box), []string{"tri.vert.spv", "tri.frag.spv"}, changes)
	r := newRenderer(t, f, target)

	assert.Equal(t, 2, f.driver.Live("ShaderModule"))
	vert, ok := target.Module("tri.vert.spv")
	require.True(t, ok)
	assert.Equal(t, []uint32{shader.Magic, 1}, vert.(*gfxtest.ShaderModule).Code)

	require.NoError(t, box.AddBytes("tri.vert.spv", spirv(10)))
	changes <- "tri.vert.spv"
	changes <- "unrelated.vert.spv"
	require.NoError(t, r.DrawFrame())

	assert.Equal(t, 1, target.Reloads())
	assert.True(t, vert.(*gfxtest.ShaderModule).Released())
	reloaded, _ := target.Module("tri.vert.spv")
	assert.Equal(t, []uint32{shader.Magic, 10}, reloaded.(*gfxtest.ShaderModule).Code)
	assert.Equal(t, 2, f.driver.Live("ShaderModule"))

	require.NoError(t, box.AddBytes("tri.frag.spv", []byte("garbage")))
	changes <- "tri.frag.spv"
	require.NoError(t, r.DrawFrame(), "a broken shader keeps the previous module")
	assert.Equal(t, 1, target.Reloads())

	close(changes)
	require.NoError(t, r.DrawFrame())

	r.Destroy()
	assert.Zero(t, f.driver.Live("ShaderModule"))
	state, _ := r.Targets().State("shaders")
	assert.Equal(t, renderer.TargetFinalized, state)
}

func TestShaderTargetPrepareFailure(t *testing.T) {
	f := newFixture(t)
	box := packd.NewMemoryBox()
	require.NoError(t, box.AddBytes("tri.vert.spv", spirv(1)))

	target := renderer.NewShaderTarget("shaders", shader.NewBoxSource(box), []string{"tri.vert.spv", "missing.frag.spv"}, nil)
	_, err := renderer.NewRenderer(f.ctx, f.window, testConfiguration, target)
	require.Error(t, err)
	assert.True(t, errors.Is(err, gfx.ErrResourceCreationFailed))
	assert.Zero(t, f.driver.Live("ShaderModule"))
	assert.Zero(t, f.driver.Live("Swapchain"))
}
