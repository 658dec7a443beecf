// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"github.com/devblok/trinvk/gfx"
	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// Stage is a step of the render target lifecycle
type Stage int

// Lifecycle stages, in the order a target passes through them
const (
	StagePrepare Stage = iota
	StageUpdate
	StageDraw
	StageFinalize
)

func (s Stage) String() string {
	switch s {
	case StagePrepare:
		return "prepare"
	case StageUpdate:
		return "update"
	case StageDraw:
		return "draw"
	case StageFinalize:
		return "finalize"
	}
	return "unknown"
}

// TargetState is where a target is in its lifecycle
type TargetState int

// Target states
const (
	TargetCreated TargetState = iota
	TargetPrepared
	TargetFinalized
)

// TargetContext is handed to targets at every stage
type TargetContext struct {
	Device     gfx.Device
	RenderPass gfx.RenderPass
	Extent     gfx.Extent
	Frame      uint64
	Image      uint32
}

// Target is anything the renderer drives through the stages.
// It opts into stages by implementing the interfaces below.
type Target interface {
	Name() string
}

// Preparable targets create their resources once the device exists
type Preparable interface {
	Prepare(TargetContext) error
}

// Updatable targets change state before the frame is recorded
type Updatable interface {
	Update(TargetContext) error
}

// Drawable targets record commands inside the render pass
type Drawable interface {
	Draw(TargetContext, gfx.CommandBuffer) error
}

// Finalizable targets release their resources, the device is idle
type Finalizable interface {
	Finalize(TargetContext)
}

// Clearer provides the color the frame is cleared to
type Clearer interface {
	ClearColor() glm.Vec4
}

type stageHandler func(Target, TargetContext, gfx.CommandBuffer) error

var stageHandlers = map[Stage]stageHandler{
	StagePrepare: func(t Target, ctx TargetContext, _ gfx.CommandBuffer) error {
		if p, ok := t.(Preparable); ok {
			return p.Prepare(ctx)
		}
		return nil
	},
	StageUpdate: func(t Target, ctx TargetContext, _ gfx.CommandBuffer) error {
		if u, ok := t.(Updatable); ok {
			return u.Update(ctx)
		}
		return nil
	},
	StageDraw: func(t Target, ctx TargetContext, cmd gfx.CommandBuffer) error {
		if d, ok := t.(Drawable); ok {
			return d.Draw(ctx, cmd)
		}
		return nil
	},
	StageFinalize: func(t Target, ctx TargetContext, _ gfx.CommandBuffer) error {
		if f, ok := t.(Finalizable); ok {
			f.Finalize(ctx)
		}
		return nil
	},
}

// stageTransitions holds the state a stage applies to and the state
// it leaves the target in. Targets in any other state are skipped.
var stageTransitions = map[Stage]struct{ from, to TargetState }{
	StagePrepare:  {TargetCreated, TargetPrepared},
	StageUpdate:   {TargetPrepared, TargetPrepared},
	StageDraw:     {TargetPrepared, TargetPrepared},
	StageFinalize: {TargetPrepared, TargetFinalized},
}

type targetEntry struct {
	target Target
	state  TargetState
}

// NewTargets creates a target list
func NewTargets(targets ...Target) *Targets {
	t := &Targets{}
	for _, target := range targets {
		t.Add(target)
	}
	return t
}

// Targets drives render targets through their lifecycle in the
// order they were added.
type Targets struct {
	entries []*targetEntry
}

// Add appends a target in the created state
func (t *Targets) Add(target Target) {
	t.entries = append(t.entries, &targetEntry{target: target})
}

// Len returns the number of targets
func (t *Targets) Len() int {
	return len(t.entries)
}

// Run executes a stage on every target in the right state. It stops at
// the first failure, the failed target keeps its state.
func (t *Targets) Run(stage Stage, ctx TargetContext, cmd gfx.CommandBuffer) error {
	handler, ok := stageHandlers[stage]
	if !ok {
		return errors.Errorf("unknown render target stage %d", stage)
	}
	transition := stageTransitions[stage]

	for _, entry := range t.entries {
		if entry.state != transition.from {
			continue
		}
		if err := handler(entry.target, ctx, cmd); err != nil {
			return errors.Wrapf(err, "%s %s", stage, entry.target.Name())
		}
		entry.state = transition.to
	}
	return nil
}

// State returns the state of the named target, false if unknown
func (t *Targets) State(name string) (TargetState, bool) {
	for _, entry := range t.entries {
		if entry.target.Name() == name {
			return entry.state, true
		}
	}
	return TargetCreated, false
}

// ClearColor returns the color of the first prepared Clearer, or def
func (t *Targets) ClearColor(def glm.Vec4) glm.Vec4 {
	for _, entry := range t.entries {
		if entry.state != TargetPrepared {
			continue
		}
		if c, ok := entry.target.(Clearer); ok {
			return c.ClearColor()
		}
	}
	return def
}
