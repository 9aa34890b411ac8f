/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package manip implements the stateless item transforms: move, resize,
// rotate, z-order changes and alignment. Every function leaves the item
// inside the legal region of the canvas.
package manip

import (
	"errors"
	"fmt"

	"inmyroom/internal/domain"
	"inmyroom/internal/vector"
)

// Step sizes used by keyboard and toolbar actions.
const (
	MoveStep     = 1
	FastMoveStep = 10
	RotateStep   = 15
	ResizeStep   = 10
)

// Area returns the padded canvas region an item's footprint must stay in,
// so its top-left lies in [Padding, extent-size-Padding] on each axis.
func Area(b domain.Bounds) vector.Rect {
	return vector.R(b.Padding, b.Padding, b.Width-2*b.Padding, b.Height-2*b.Padding)
}

// MoveTo places the item at (x, y) clamped to the legal region.
func MoveTo(it *domain.Item, x, y float64, b domain.Bounds) {
	r := vector.ClampInto(vector.R(x, y, it.Width, it.Height), Area(b))
	it.X, it.Y = r.X, r.Y
}

// Move shifts the item by (dx, dy). It reports whether the position changed.
func Move(it *domain.Item, dx, dy float64, b domain.Bounds) bool {
	ox, oy := it.X, it.Y
	MoveTo(it, it.X+dx, it.Y+dy, b)
	return it.X != ox || it.Y != oy
}

// Resize grows or shrinks both dimensions by delta within limits and keeps
// the item legal. It reports false when the size did not change.
func Resize(it *domain.Item, delta float64, l domain.SizeLimits, b domain.Bounds) bool {
	w := l.Clamp(it.Width + delta)
	h := l.Clamp(it.Height + delta)
	if w == it.Width && h == it.Height {
		return false
	}
	it.Width, it.Height = w, h
	MoveTo(it, it.X, it.Y, b)
	return true
}

// Rotate adds delta degrees, wrapping into [0, 360).
func Rotate(it *domain.Item, delta float64) {
	it.Rotation = domain.NormalizeDegrees(it.Rotation + delta)
}

// ZOrderer tracks the highest z-order in use.
type ZOrderer interface {
	MaxZOrder() int
	ObserveZOrder(z int)
}

// BringForward lifts the item above everything else.
func BringForward(it *domain.Item, zs ZOrderer) {
	it.Z = max(it.Z, zs.MaxZOrder()) + 1
	zs.ObserveZOrder(it.Z)
}

// SendBackward lowers z by one unless that would drop below the floor
// layer. It reports whether z changed.
func SendBackward(it *domain.Item) bool {
	if it.Z-1 < domain.FloorZOrder {
		return false
	}
	it.Z--
	return true
}

// Edge names an alignment target.
type Edge string

const (
	AlignLeft   Edge = "left"
	AlignCenter Edge = "center"
	AlignRight  Edge = "right"
	AlignTop    Edge = "top"
	AlignMiddle Edge = "middle"
	AlignBottom Edge = "bottom"
)

var ErrUnknownEdge = errors.New("unknown alignment edge")

// ParseEdge validates s as an Edge.
func ParseEdge(s string) (Edge, error) {
	switch e := Edge(s); e {
	case AlignLeft, AlignCenter, AlignRight, AlignTop, AlignMiddle, AlignBottom:
		return e, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEdge, s)
}

// Align repositions the item along one axis. Middle and bottom use the room
// area above the floor zone.
func Align(it *domain.Item, e Edge, b domain.Bounds) error {
	x, y := it.X, it.Y
	room := b.Height - b.FloorHeight
	switch e {
	case AlignLeft:
		x = b.Padding
	case AlignCenter:
		x = (b.Width - it.Width) / 2
	case AlignRight:
		x = b.Width - it.Width - b.Padding
	case AlignTop:
		y = b.Padding
	case AlignMiddle:
		y = b.Padding + (room-2*b.Padding-it.Height)/2
	case AlignBottom:
		y = room - it.Height - b.Padding
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEdge, e)
	}
	MoveTo(it, x, y, b)
	return nil
}
