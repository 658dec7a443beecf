// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package device selects the physical device the engine renders with.
// Selection only queries the driver, it never creates GPU objects.
package device

import (
	"fmt"
	"sort"
	"strings"

	"github.com/devblok/trinvk/gfx"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Score bonuses.
const (
	DiscreteScore      = 1000
	IntegratedScore    = 500
	GeometryScore      = 100
	TessellationScore  = 50
	MultiViewportScore = 50
)

// Candidate describes an enumerated physical device and how it fits the engine.
// It is a snapshot, created on every selection pass.
type Candidate struct {
	Device     gfx.PhysicalDevice  `json:"-"`
	Properties gfx.DeviceProperties `json:"properties"`
	Features   gfx.DeviceFeatures   `json:"features"`
	Queues     QueueFamilyIndices   `json:"queues"`
	Extensions []string             `json:"extensions"`
	Support    SwapchainSupport     `json:"swapchainSupport"`

	Suitable bool   `json:"suitable"`
	Reason   string `json:"reason,omitempty"`
	Score    uint64 `json:"score"`
}

// Evaluate builds a Candidate for pd. Query failures do not fail the
// evaluation, they make the candidate unsuitable with the error as reason.
func Evaluate(pd gfx.PhysicalDevice, surface gfx.Surface, required []string) Candidate {
	c := Candidate{
		Device:     pd,
		Properties: pd.Properties(),
		Features:   pd.Features(),
	}

	var reasons []string

	queues, err := FindQueueFamilies(pd, surface)
	if err != nil {
		reasons = append(reasons, err.Error())
	}
	c.Queues = queues
	if err == nil && !queues.IsComplete() {
		reasons = append(reasons, "no graphics or present queue family")
	}

	extensions, err := pd.Extensions()
	if err != nil {
		reasons = append(reasons, errors.Wrap(err, "vk.EnumerateDeviceExtensionProperties()").Error())
	}
	c.Extensions = extensions

	if missing := MissingExtensions(required, extensions); err == nil && len(missing) > 0 {
		reasons = append(reasons, "missing extensions: "+strings.Join(missing, ", "))
	} else if err == nil {
		// Surface queries need the swapchain extension to mean anything.
		support, err := QuerySwapchainSupport(pd, surface)
		if err != nil {
			reasons = append(reasons, err.Error())
		} else if !support.IsAdequate() {
			reasons = append(reasons, "no surface formats or present modes")
		}
		c.Support = support
	}

	c.Suitable = len(reasons) == 0
	c.Reason = strings.Join(reasons, "; ")
	c.Score = Score(c)
	return c
}

// Score rates a candidate, higher is better. Unsuitable candidates score 0.
// Optional features add to the score, their absence never rejects a device.
func Score(c Candidate) uint64 {
	if !c.Suitable {
		return 0
	}

	var score uint64
	switch c.Properties.Type {
	case gfx.DeviceTypeDiscreteGPU:
		score += DiscreteScore
	case gfx.DeviceTypeIntegratedGPU:
		score += IntegratedScore
	}

	score += uint64(c.Properties.MaxImageDimension2D)

	if c.Features.GeometryShader {
		score += GeometryScore
	}
	if c.Features.TessellationShader {
		score += TessellationScore
	}
	if c.Features.MultiViewport {
		score += MultiViewportScore
	}
	return score
}

// Candidates evaluates every physical device of the instance,
// in enumeration order.
func Candidates(instance gfx.Instance, surface gfx.Surface, required []string) ([]Candidate, error) {
	devices, err := instance.PhysicalDevices()
	if err != nil {
		return nil, gfx.Fail(gfx.ErrInitializationFailure, "vk.EnumeratePhysicalDevices()", err)
	}
	if len(devices) == 0 {
		return nil, gfx.Fail(gfx.ErrNoDevicesFound, "vk.EnumeratePhysicalDevices()", nil)
	}

	candidates := make([]Candidate, 0, len(devices))
	for _, pd := range devices {
		candidates = append(candidates, Evaluate(pd, surface, required))
	}
	return candidates, nil
}

// Rank returns the suitable candidates sorted by descending score.
// Candidates with equal scores keep their enumeration order.
func Rank(candidates []Candidate) []Candidate {
	ranked := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Suitable {
			ranked = append(ranked, c)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// Select picks the best device for rendering to the surface.
// Required are the device extensions that must be available, the swapchain
// extension is always required.
func Select(instance gfx.Instance, surface gfx.Surface, required []string) (Candidate, error) {
	if !Contains(required, SwapchainExtension) {
		required = append([]string{SwapchainExtension}, required...)
	}

	candidates, err := Candidates(instance, surface, required)
	if err != nil {
		return Candidate{}, err
	}

	for _, c := range candidates {
		if !c.Suitable {
			log.WithFields(log.Fields{
				"device": c.Properties.Name,
				"reason": c.Reason,
			}).Debug("device rejected")
		}
	}

	ranked := Rank(candidates)
	if len(ranked) == 0 {
		return Candidate{}, gfx.Fail(gfx.ErrNoSuitableDevice, "device.Select()",
			fmt.Errorf("%d devices checked", len(candidates)))
	}

	for i, c := range ranked {
		log.WithFields(log.Fields{
			"rank":   i + 1,
			"device": c.Properties.Name,
			"type":   c.Properties.Type,
			"score":  c.Score,
		}).Info("ranked device")
	}

	best := ranked[0]
	log.WithFields(log.Fields{
		"device": best.Properties.Name,
		"api":    best.Properties.APIVersion,
	}).Info("selected device")
	return best, nil
}
