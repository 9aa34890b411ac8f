/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package editor

import (
	"errors"
	"fmt"

	"inmyroom/internal/domain"
	"inmyroom/internal/manip"
	"inmyroom/internal/selection"
)

// Select makes id the selected item.
func (e *Editor) Select(id string) error {
	if e.drag.Active() {
		return ErrDragActive
	}
	e.flushNudge()
	return e.sel.Select(id)
}

// Deselect clears the selection.
func (e *Editor) Deselect() {
	e.flushNudge()
	e.sel.Deselect()
}

// ClickEmpty handles a click on bare canvas.
func (e *Editor) ClickEmpty() {
	e.flushNudge()
	e.sel.ClickEmpty()
}

// Selected returns a copy of the selected item.
func (e *Editor) Selected() (domain.Item, bool) {
	id, ok := e.sel.Current()
	if !ok {
		return domain.Item{}, false
	}
	it, ok := e.sc.Item(id)
	if !ok {
		return domain.Item{}, false
	}
	return *it, true
}

// Item returns a copy of the item with id.
func (e *Editor) Item(id string) (domain.Item, bool) {
	it, ok := e.sc.Item(id)
	if !ok {
		return domain.Item{}, false
	}
	return *it, true
}

// Items returns all items in paint order.
func (e *Editor) Items() []domain.Item { return e.sc.Items() }

// withSelected runs fn on the live selected item. fn reports the history
// verb ("rotated", ...) and whether anything changed; unchanged items do not
// produce a history entry.
func (e *Editor) withSelected(fn func(it *domain.Item) (verb string, changed bool, err error)) (domain.Item, error) {
	if err := e.guard(); err != nil {
		return domain.Item{}, err
	}
	id, ok := e.sel.Current()
	if !ok {
		e.notify(NoticeError, NoSelectionMessage)
		return domain.Item{}, ErrNoSelection
	}
	it, ok := e.sc.Item(id)
	if !ok {
		return domain.Item{}, ErrNoSelection
	}
	verb, changed, err := fn(it)
	if err != nil {
		return *it, err
	}
	if changed {
		e.commit(fmt.Sprintf("%s %s", it.Kind.Label(), verb), it.ID)
	}
	return *it, nil
}

// BringForward lifts the selected item above every other item.
func (e *Editor) BringForward() (domain.Item, error) {
	return e.withSelected(func(it *domain.Item) (string, bool, error) {
		manip.BringForward(it, e.sc)
		return "brought forward", true, nil
	})
}

// SendBackward lowers the selected item by one layer, never below the floor
// layer.
func (e *Editor) SendBackward() (domain.Item, error) {
	return e.withSelected(func(it *domain.Item) (string, bool, error) {
		return "sent backward", manip.SendBackward(it), nil
	})
}

// RotateLeft turns the selected item counter-clockwise by one step.
func (e *Editor) RotateLeft() (domain.Item, error) { return e.rotate(-manip.RotateStep) }

// RotateRight turns the selected item clockwise by one step.
func (e *Editor) RotateRight() (domain.Item, error) { return e.rotate(manip.RotateStep) }

func (e *Editor) rotate(delta float64) (domain.Item, error) {
	return e.withSelected(func(it *domain.Item) (string, bool, error) {
		manip.Rotate(it, delta)
		return "rotated", true, nil
	})
}

// ResizeBigger grows the selected item by one step in both dimensions.
func (e *Editor) ResizeBigger() (domain.Item, error) { return e.resize(manip.ResizeStep) }

// ResizeSmaller shrinks the selected item by one step in both dimensions.
func (e *Editor) ResizeSmaller() (domain.Item, error) { return e.resize(-manip.ResizeStep) }

func (e *Editor) resize(delta float64) (domain.Item, error) {
	return e.withSelected(func(it *domain.Item) (string, bool, error) {
		return "resized", manip.Resize(it, delta, e.opts.Limits, e.opts.Bounds), nil
	})
}

var edgeNames = map[manip.Edge]string{
	manip.AlignLeft:   "left",
	manip.AlignCenter: "center",
	manip.AlignRight:  "right",
	manip.AlignTop:    "top",
	manip.AlignMiddle: "middle",
	manip.AlignBottom: "bottom",
}

// Align moves the selected item against a canvas edge or centre line.
func (e *Editor) Align(edge manip.Edge) (domain.Item, error) {
	it, err := e.withSelected(func(it *domain.Item) (string, bool, error) {
		x, y := it.X, it.Y
		if err := manip.Align(it, edge, e.opts.Bounds); err != nil {
			return "", false, err
		}
		return "aligned", it.X != x || it.Y != y, nil
	})
	if err == nil {
		e.notify(NoticeSuccess, "Item aligned "+edgeNames[edge])
	}
	return it, err
}

// DeleteSelected removes the selected item.
func (e *Editor) DeleteSelected() (domain.Item, error) {
	if err := e.guard(); err != nil {
		return domain.Item{}, err
	}
	it, err := e.sel.DeleteSelected()
	if errors.Is(err, selection.ErrNothingSelected) {
		e.notify(NoticeError, NoSelectionMessage)
		return domain.Item{}, ErrNoSelection
	}
	if err != nil {
		return domain.Item{}, err
	}
	e.commit(it.Kind.Label()+" deleted", it.ID)
	e.notify(NoticeSuccess, "Item deleted")
	return it, nil
}

// Nudge moves the selected item by one keyboard step (or a fast step) in
// the direction of dx, dy (each -1, 0 or 1). The history entry is written
// by EndNudge, so a held key produces a single entry.
func (e *Editor) Nudge(dx, dy int, fast bool) (domain.Item, error) {
	if e.drag.Active() {
		return domain.Item{}, ErrDragActive
	}
	id, ok := e.sel.Current()
	if !ok {
		e.notify(NoticeError, NoSelectionMessage)
		return domain.Item{}, ErrNoSelection
	}
	if e.nudged != "" && e.nudged != id {
		e.flushNudge()
	}
	it, _ := e.sc.Item(id)
	step := float64(manip.MoveStep)
	if fast {
		step = manip.FastMoveStep
	}
	if manip.Move(it, float64(sign(dx))*step, float64(sign(dy))*step, e.opts.Bounds) {
		e.nudged = id
		e.emit(Event{Kind: EventDrag, ItemID: id})
	}
	return *it, nil
}

// EndNudge closes a run of nudges (key-up) and records it in history.
// It reports whether an entry was written.
func (e *Editor) EndNudge() bool { return e.flushNudge() }

func (e *Editor) flushNudge() bool {
	if e.nudged == "" {
		return false
	}
	id := e.nudged
	e.nudged = ""
	it, ok := e.sc.Item(id)
	if !ok {
		return false
	}
	e.commit(it.Kind.Label()+" moved", id)
	return true
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}

// Reset removes every item. Background and floor stay as they are.
func (e *Editor) Reset() error {
	if err := e.guard(); err != nil {
		return err
	}
	e.sel.Deselect()
	e.sc.Clear()
	e.commit("Room reset", "")
	e.notify(NoticeSuccess, "Room reset")
	return nil
}

func (e *Editor) sanitize(it *domain.Item) {
	it.Width = e.opts.Limits.Clamp(it.Width)
	it.Height = e.opts.Limits.Clamp(it.Height)
	it.Rotation = domain.NormalizeDegrees(it.Rotation)
	manip.MoveTo(it, it.X, it.Y, e.opts.Bounds)
}
