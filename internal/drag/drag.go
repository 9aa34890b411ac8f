/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package drag turns pointer sequences into item placement and repositioning.
// Only one drag can be active; starting another while one runs is ignored.
package drag

import (
	"fmt"

	"inmyroom/internal/domain"
	"inmyroom/internal/manip"
	"inmyroom/internal/scene"
	"inmyroom/internal/selection"
	"inmyroom/internal/vector"
)

type Mode int

const (
	ModeNone Mode = iota
	ModePlace
	ModeReposition
)

func (m Mode) String() string {
	switch m {
	case ModePlace:
		return "place"
	case ModeReposition:
		return "reposition"
	default:
		return "none"
	}
}

// Action is what a finished drag did to its item.
type Action string

const (
	ActionAdded Action = "added"
	ActionMoved Action = "moved"
)

// Commit describes a finished drag.
type Commit struct {
	ItemID string
	Kind   domain.Kind
	Action Action
}

// Label renders the history label, e.g. "Chair added".
func (c Commit) Label() string {
	return fmt.Sprintf("%s %s", c.Kind.Label(), c.Action)
}

type Options struct {
	Bounds domain.Bounds
	Limits domain.SizeLimits
	// Snap aligns the dragged item to its neighbours; zero threshold disables it.
	Snap vector.SnapOptions
}

type Controller struct {
	sc     *scene.Scene
	sel    *selection.Controller
	opts   Options
	mode   Mode
	itemID string
	offset vector.Pt
	guides []vector.GuideLine
}

func New(sc *scene.Scene, sel *selection.Controller, opts Options) *Controller {
	return &Controller{sc: sc, sel: sel, opts: opts}
}

func (c *Controller) Active() bool   { return c.mode != ModeNone }
func (c *Controller) Mode() Mode     { return c.mode }
func (c *Controller) ItemID() string { return c.itemID }

// Guides returns the smart guides produced by the last Move.
func (c *Controller) Guides() []vector.GuideLine { return c.guides }

// StartPlace creates a kind item centred under p and starts dragging it.
// Zero sizes fall back to the catalog size. It returns false when a drag is
// already active.
func (c *Controller) StartPlace(kind domain.Kind, w, h float64, p vector.Pt) (string, bool) {
	if c.Active() {
		return "", false
	}
	info, _ := domain.Lookup(kind)
	if w <= 0 {
		w = info.Width
	}
	if h <= 0 {
		h = info.Height
	}
	it := domain.Item{
		ID:     c.sc.NextID(),
		Kind:   kind,
		Width:  c.opts.Limits.Clamp(w),
		Height: c.opts.Limits.Clamp(h),
		Z:      c.sc.NextZOrder(),
	}
	manip.MoveTo(&it, p.X-it.Width/2, p.Y-it.Height/2, c.opts.Bounds)
	id := c.sc.AddItem(it)
	_ = c.sel.Select(id)
	c.mode, c.itemID, c.guides = ModePlace, id, nil
	return id, true
}

// StartReposition starts dragging an existing item, keeping the pointer's
// offset from its top-left corner. It returns false when a drag is active.
func (c *Controller) StartReposition(id string, p vector.Pt) (bool, error) {
	if c.Active() {
		return false, nil
	}
	it, ok := c.sc.Item(id)
	if !ok {
		return false, scene.ErrNoItem
	}
	if err := c.sel.Select(id); err != nil {
		return false, err
	}
	c.offset = vector.Pt{X: p.X - it.X, Y: p.Y - it.Y}
	c.mode, c.itemID, c.guides = ModeReposition, id, nil
	return true, nil
}

// Move follows the pointer. It reports whether the item moved.
func (c *Controller) Move(p vector.Pt) bool {
	if !c.Active() {
		return false
	}
	it, ok := c.sc.Item(c.itemID)
	if !ok {
		// the item vanished under us; drop the drag
		c.reset()
		return false
	}
	var x, y float64
	if c.mode == ModePlace {
		x, y = p.X-it.Width/2, p.Y-it.Height/2
	} else {
		x, y = p.X-c.offset.X, p.Y-c.offset.Y
	}
	c.guides = nil
	if c.opts.Snap.Threshold > 0 {
		var snapped vector.Rect
		snapped, c.guides = vector.ComputeSmartGuides(vector.R(x, y, it.Width, it.Height), c.anchors(it.ID), c.opts.Snap)
		x, y = snapped.X, snapped.Y
	}
	ox, oy := it.X, it.Y
	manip.MoveTo(it, x, y, c.opts.Bounds)
	return it.X != ox || it.Y != oy
}

func (c *Controller) anchors(skip string) []vector.Anchor {
	var out []vector.Anchor
	for _, o := range c.sc.Items() {
		if o.ID == skip {
			continue
		}
		out = append(out, vector.Anchor{Rect: vector.R(o.X, o.Y, o.Width, o.Height), Weight: 1})
	}
	return out
}

// End finishes the active drag. There is no cancel: the item stays where it
// was last moved. ok is false when no drag was active.
func (c *Controller) End() (Commit, bool) {
	if !c.Active() {
		return Commit{}, false
	}
	cm := Commit{ItemID: c.itemID, Action: ActionMoved}
	if c.mode == ModePlace {
		cm.Action = ActionAdded
	}
	if it, ok := c.sc.Item(c.itemID); ok {
		cm.Kind = it.Kind
	}
	c.reset()
	return cm, true
}

func (c *Controller) reset() {
	c.mode, c.itemID, c.offset, c.guides = ModeNone, "", vector.Pt{}, nil
}
