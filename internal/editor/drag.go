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

	"inmyroom/internal/domain"
	"inmyroom/internal/drag"
	"inmyroom/internal/vector"
)

// DragState describes the active drag for renderers.
type DragState struct {
	Mode   drag.Mode
	ItemID string
	Guides []vector.GuideLine
}

// Drag returns the active drag, if any.
func (e *Editor) Drag() (DragState, bool) {
	if !e.drag.Active() {
		return DragState{}, false
	}
	return DragState{Mode: e.drag.Mode(), ItemID: e.drag.ItemID(), Guides: e.drag.Guides()}, true
}

// BeginPlace drops a new kind item centred under p and starts dragging it.
// Zero sizes use the catalog size.
func (e *Editor) BeginPlace(kind domain.Kind, w, h float64, p vector.Pt) (string, error) {
	if kind == "" {
		return "", errors.New("furniture kind is required")
	}
	e.flushNudge()
	id, ok := e.drag.StartPlace(kind, w, h, p)
	if !ok {
		return "", ErrDragActive
	}
	e.emit(Event{Kind: EventDrag, ItemID: id})
	return id, nil
}

// BeginMove starts repositioning an existing item.
func (e *Editor) BeginMove(id string, p vector.Pt) error {
	e.flushNudge()
	ok, err := e.drag.StartReposition(id, p)
	if err != nil {
		return err
	}
	if !ok {
		return ErrDragActive
	}
	return nil
}

// DragTo follows the pointer. It reports whether the dragged item moved.
func (e *Editor) DragTo(p vector.Pt) bool {
	moved := e.drag.Move(p)
	if moved {
		e.emit(Event{Kind: EventDrag, ItemID: e.drag.ItemID()})
	}
	return moved
}

// EndDrag releases the pointer and records one history entry labelled
// "<Kind> added" or "<Kind> moved".
func (e *Editor) EndDrag() (drag.Commit, bool) {
	cm, ok := e.drag.End()
	if !ok {
		return drag.Commit{}, false
	}
	e.commit(cm.Label(), cm.ItemID)
	return cm, true
}

// Place is a complete place-new gesture in one call: the item is centred on
// p, clamped, selected and recorded as added.
func (e *Editor) Place(kind domain.Kind, w, h float64, p vector.Pt) (domain.Item, error) {
	if e.drag.Active() {
		return domain.Item{}, ErrDragActive
	}
	id, err := e.BeginPlace(kind, w, h, p)
	if err != nil {
		return domain.Item{}, err
	}
	e.EndDrag()
	it, _ := e.Item(id)
	return it, nil
}

// MoveItem is a complete reposition gesture: the item's top-left corner is
// moved to (x, y), clamped, and recorded as moved.
func (e *Editor) MoveItem(id string, x, y float64) (domain.Item, error) {
	it, ok := e.sc.Item(id)
	if !ok {
		return domain.Item{}, errNoItem(id)
	}
	if err := e.BeginMove(id, vector.Pt{X: it.X, Y: it.Y}); err != nil {
		return domain.Item{}, err
	}
	e.DragTo(vector.Pt{X: x, Y: y})
	e.EndDrag()
	return *it, nil
}
