/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package export renders a room to PNG or PDF and delivers the result to a
// file or the clipboard.
package export

import (
	"sort"

	"inmyroom/internal/domain"
	"inmyroom/internal/scene"
)

// DefaultScale doubles the canvas resolution.
const DefaultScale = 2

// Frame is everything the renderers need, with styles already resolved to
// literal values.
type Frame struct {
	Bounds     domain.Bounds
	Background domain.Background
	Floor      domain.FloorStyle
	Items      []domain.Item // render order, lowest z first
}

// FrameOf resolves a snapshot for rendering.
func FrameOf(snap scene.Snapshot, b domain.Bounds) Frame {
	items := append([]domain.Item(nil), snap.Items...)
	sortByZ(items)
	return Frame{
		Bounds:     b,
		Background: snap.Background,
		Floor:      snap.Floor.Resolve(),
		Items:      items,
	}
}

func sortByZ(items []domain.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Z != items[j].Z {
			return items[i].Z < items[j].Z
		}
		return items[i].ID < items[j].ID
	})
}

// palette colors items by kind family so the plan stays readable without
// artwork.
var palette = map[string]domain.Color{
	"chair":   {R: 0xc8, G: 0x8b, B: 0x5a, A: 255},
	"table":   {R: 0xa0, G: 0x6b, B: 0x3c, A: 255},
	"bed":     {R: 0x7f, G: 0x9c, B: 0xc9, A: 255},
	"sofa":    {R: 0x9b, G: 0x6f, B: 0xb0, A: 255},
	"window":  {R: 0xa8, G: 0xd8, B: 0xf0, A: 255},
	"door":    {R: 0x8a, G: 0x5a, B: 0x2b, A: 255},
	"picture": {R: 0xf2, G: 0xc1, B: 0x4e, A: 255},
	"plant":   {R: 0x5c, G: 0xa4, B: 0x5c, A: 255},
	"basil":   {R: 0x3f, G: 0x8f, B: 0x3f, A: 255},
	"lamp":    {R: 0xf5, G: 0xe0, B: 0x8a, A: 255},
}

var (
	neutral = domain.Color{R: 0xb0, G: 0xb0, B: 0xb0, A: 255}
	outline = domain.Color{R: 0x33, G: 0x33, B: 0x33, A: 255}
	ink     = domain.Color{R: 0x1a, G: 0x1a, B: 0x1a, A: 255}
	white   = domain.Color{R: 255, G: 255, B: 255, A: 255}
)

// KindColor returns the fill used for a furniture kind. Variants such as
// "chair_2" share the family color.
func KindColor(k domain.Kind) domain.Color {
	s := string(k)
	for i := 0; i < len(s); i++ {
		if s[i] == '_' {
			s = s[:i]
			break
		}
	}
	if c, ok := palette[s]; ok {
		return c
	}
	return neutral
}
