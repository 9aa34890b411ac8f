/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package history

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"inmyroom/internal/scene"
)

// DefaultCapacity is the number of entries kept when Config.Capacity is unset.
const DefaultCapacity = 10

var ErrOutOfRange = errors.New("history index out of range")

// Entry is an immutable labelled snapshot of the room.
type Entry struct {
	ID    string
	Label string
	// Subject is the id of the item the entry changed, empty for room-wide
	// changes.
	Subject  string
	TS       time.Time
	Snapshot scene.Snapshot
}

// Config controls depth and coalescing.
type Config struct {
	// Capacity caps the number of entries; the oldest are evicted first.
	Capacity int
	// CoalesceWindow replaces the newest entry instead of appending when the
	// same label and subject are pushed again within the window. Entries
	// without a subject never coalesce. Zero disables it.
	CoalesceWindow time.Duration
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// Timeline is a bounded undo/redo history with a cursor at the current entry.
// It is safe for concurrent use.
type Timeline struct {
	cfg     Config
	mu      sync.Mutex
	entries []Entry
	cursor  int
}

func New(cfg Config) *Timeline {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Timeline{cfg: cfg, cursor: -1}
}

// Push records snap as the new current entry. Entries after the cursor are
// discarded and the oldest entry is evicted when over capacity.
func (t *Timeline) Push(label string, snap scene.Snapshot) Entry {
	return t.PushFor(label, "", snap)
}

// PushFor is Push for a change to one item, identified by subject.
func (t *Timeline) PushFor(label, subject string, snap scene.Snapshot) Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := Entry{ID: uuid.NewString(), Label: label, Subject: subject, TS: t.cfg.Now(), Snapshot: snap.Clone()}

	if n := len(t.entries); n > 1 && t.cursor == n-1 && t.cfg.CoalesceWindow > 0 && subject != "" {
		last := t.entries[n-1]
		if last.Label == label && last.Subject == subject && e.TS.Sub(last.TS) < t.cfg.CoalesceWindow {
			e.ID = last.ID
			t.entries[n-1] = e
			return e
		}
	}

	t.entries = append(t.entries[:t.cursor+1], e)
	if over := len(t.entries) - t.cfg.Capacity; over > 0 {
		t.entries = append([]Entry(nil), t.entries[over:]...)
	}
	t.cursor = len(t.entries) - 1
	return e
}

// Reset drops all entries and records snap as the only one.
func (t *Timeline) Reset(label string, snap scene.Snapshot) Entry {
	t.mu.Lock()
	t.entries, t.cursor = nil, -1
	t.mu.Unlock()
	return t.Push(label, snap)
}

// Restore moves the cursor to index and returns a copy of that snapshot.
// It never adds an entry.
func (t *Timeline) Restore(index int) (scene.Snapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if index < 0 || index >= len(t.entries) {
		return scene.Snapshot{}, ErrOutOfRange
	}
	t.cursor = index
	return t.entries[index].Snapshot.Clone(), nil
}

// Undo steps the cursor back one entry.
func (t *Timeline) Undo() (scene.Snapshot, bool) {
	s, err := t.Restore(t.Cursor() - 1)
	return s, err == nil
}

// Redo steps the cursor forward one entry.
func (t *Timeline) Redo() (scene.Snapshot, bool) {
	s, err := t.Restore(t.Cursor() + 1)
	return s, err == nil
}

func (t *Timeline) CanUndo() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cursor > 0
}

func (t *Timeline) CanRedo() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cursor < len(t.entries)-1
}

// Entries returns copies of all entries, oldest first.
func (t *Timeline) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Entry, len(t.entries))
	for i, e := range t.entries {
		e.Snapshot = e.Snapshot.Clone()
		out[i] = e
	}
	return out
}

// Cursor returns the index of the current entry, or -1 when empty.
func (t *Timeline) Cursor() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cursor
}

func (t *Timeline) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
