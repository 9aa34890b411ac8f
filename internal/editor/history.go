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
	"fmt"

	"inmyroom/internal/history"
	"inmyroom/internal/scene"
)

// History returns the timeline entries, oldest first, and the cursor.
func (e *Editor) History() ([]history.Entry, int) {
	return e.hist.Entries(), e.hist.Cursor()
}

func (e *Editor) CanUndo() bool { return e.hist.CanUndo() }
func (e *Editor) CanRedo() bool { return e.hist.CanRedo() }

// RestoreHistory replaces the room with entry i and moves the cursor there.
// It does not add an entry of its own, but a pending keyboard nudge is
// recorded first. Indices refer to the list as seen before that flush.
func (e *Editor) RestoreHistory(i int) error {
	if e.drag.Active() {
		return ErrDragActive
	}
	if i < 0 || i >= e.hist.Len() {
		return fmt.Errorf("restore entry %d: %w", i, history.ErrOutOfRange)
	}
	oldest := e.hist.Entries()[0].ID
	if e.flushNudge() && e.hist.Entries()[0].ID != oldest {
		// the flush evicted the oldest entry
		i--
	}
	snap, err := e.hist.Restore(i)
	if err != nil {
		return err
	}
	e.timeTravel(snap)
	return nil
}

// Undo steps back one entry. It reports false at the start of history.
func (e *Editor) Undo() (bool, error) {
	if e.drag.Active() {
		return false, ErrDragActive
	}
	e.flushNudge()
	snap, ok := e.hist.Undo()
	if ok {
		e.timeTravel(snap)
	}
	return ok, nil
}

// Redo steps forward one entry. It reports false at the end of history.
func (e *Editor) Redo() (bool, error) {
	if e.drag.Active() {
		return false, ErrDragActive
	}
	e.flushNudge()
	snap, ok := e.hist.Redo()
	if ok {
		e.timeTravel(snap)
	}
	return ok, nil
}

func (e *Editor) timeTravel(snap scene.Snapshot) {
	e.nudged = ""
	e.sel.Deselect()
	e.sc.Restore(snap)
	e.emit(Event{Kind: EventHistory})
}
