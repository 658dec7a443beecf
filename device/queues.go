// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"encoding/json"

	"github.com/devblok/trinvk/gfx"
	"github.com/pkg/errors"
)

// FamilyIndex is an optional queue family index.
type FamilyIndex struct {
	Index uint32
	Valid bool
}

// Family returns a set FamilyIndex.
func Family(index uint32) FamilyIndex {
	return FamilyIndex{Index: index, Valid: true}
}

// MarshalJSON encodes an unset index as null.
func (f FamilyIndex) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Index)
}

// QueueFamilyIndices maps queue roles to families.
type QueueFamilyIndices struct {
	Graphics FamilyIndex `json:"graphics"`
	Present  FamilyIndex `json:"present"`
	Transfer FamilyIndex `json:"transfer"`
}

// IsComplete reports if graphics and present are both set.
// Transfer is optional.
func (q QueueFamilyIndices) IsComplete() bool {
	return q.Graphics.Valid && q.Present.Valid
}

// Unique returns the set families in graphics, present, transfer order,
// a family serving more roles appears once.
func (q QueueFamilyIndices) Unique() []uint32 {
	var unique []uint32
	for _, f := range []FamilyIndex{q.Graphics, q.Present, q.Transfer} {
		if !f.Valid {
			continue
		}
		var seen bool
		for _, u := range unique {
			if u == f.Index {
				seen = true
				break
			}
		}
		if !seen {
			unique = append(unique, f.Index)
		}
	}
	return unique
}

// FindQueueFamilies assigns queue families to roles.
//
// The first graphics family becomes the graphics family and, unless already
// set, the present family too. A transfer family without graphics is preferred,
// any transfer family is taken otherwise. Present support is asked from the
// surface only when no family was assigned to present by then.
func FindQueueFamilies(pd gfx.PhysicalDevice, surface gfx.Surface) (QueueFamilyIndices, error) {
	var indices QueueFamilyIndices
	families := pd.QueueFamilies()

	for i, family := range families {
		if !family.Flags.Has(gfx.QueueGraphics) {
			continue
		}
		indices.Graphics = Family(uint32(i))
		if !indices.Present.Valid {
			indices.Present = Family(uint32(i))
		}
		if indices.IsComplete() {
			break
		}
	}

	for i, family := range families {
		if family.Flags.Has(gfx.QueueTransfer) && !family.Flags.Has(gfx.QueueGraphics) {
			indices.Transfer = Family(uint32(i))
			break
		}
	}

	if !indices.Transfer.Valid {
		for i, family := range families {
			if family.Flags.Has(gfx.QueueTransfer) {
				indices.Transfer = Family(uint32(i))
				break
			}
		}
	}

	if !indices.Present.Valid {
		for i := range families {
			supported, err := pd.SurfaceSupport(uint32(i), surface)
			if err != nil {
				return indices, errors.Wrapf(err, "vk.GetPhysicalDeviceSurfaceSupport(%d)", i)
			}
			if supported {
				indices.Present = Family(uint32(i))
				break
			}
		}
	}

	return indices, nil
}
