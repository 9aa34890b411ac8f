/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package scene holds the mutable room document: placed items, the selected
// item, id and z-order counters, and the floor and background styling.
//
// A Scene is not safe for concurrent use; callers serialize access.
package scene

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"inmyroom/internal/domain"
)

// IDPrefix prefixes generated item ids ("furniture-1", "furniture-2", ...).
const IDPrefix = "furniture-"

var ErrNoItem = errors.New("no such item")

type Scene struct {
	items      map[string]*domain.Item
	selected   string
	idCounter  int
	maxZ       int
	background domain.Background
	floor      domain.Floor
}

// New returns an empty scene with the default floor and background.
func New() *Scene {
	return &Scene{
		items: make(map[string]*domain.Item),
		maxZ:  domain.BaseZOrder,
		floor: domain.DefaultFloor(),
	}
}

// NextID reserves and returns a fresh item id. The counter never rewinds, so
// ids are unique for the lifetime of the scene.
func (s *Scene) NextID() string {
	s.idCounter++
	return IDPrefix + strconv.Itoa(s.idCounter)
}

// NextZOrder reserves and returns a z-order above every item seen so far.
func (s *Scene) NextZOrder() int {
	s.maxZ++
	return s.maxZ
}

// MaxZOrder returns the highest z-order handed out or observed.
func (s *Scene) MaxZOrder() int { return s.maxZ }

// ObserveZOrder raises the z counter to at least z.
func (s *Scene) ObserveZOrder(z int) {
	if z > s.maxZ {
		s.maxZ = z
	}
}

// observeID keeps the id counter ahead of restored "furniture-N" ids.
func (s *Scene) observeID(id string) {
	n, err := strconv.Atoi(strings.TrimPrefix(id, IDPrefix))
	if err != nil || !strings.HasPrefix(id, IDPrefix) {
		return
	}
	if n > s.idCounter {
		s.idCounter = n
	}
}

// AddItem stores a copy of it and returns its id. Items without an id, or
// with an id already in use, get a fresh one; a zero Z gets the next z-order.
func (s *Scene) AddItem(it domain.Item) string {
	if _, taken := s.items[it.ID]; it.ID == "" || taken {
		it.ID = s.NextID()
	} else {
		s.observeID(it.ID)
	}
	if it.Z == 0 {
		it.Z = s.NextZOrder()
	} else {
		s.ObserveZOrder(it.Z)
	}
	it.Rotation = domain.NormalizeDegrees(it.Rotation)
	cp := it
	s.items[it.ID] = &cp
	return it.ID
}

// RemoveItem deletes id and clears the selection if it pointed at it. Missing
// ids are a no-op.
func (s *Scene) RemoveItem(id string) (domain.Item, bool) {
	it, ok := s.items[id]
	if !ok {
		return domain.Item{}, false
	}
	delete(s.items, id)
	if s.selected == id {
		s.selected = ""
	}
	return *it, true
}

// Item returns the live item for in-place manipulation.
func (s *Scene) Item(id string) (*domain.Item, bool) {
	it, ok := s.items[id]
	return it, ok
}

// Items returns copies of all items in paint order: ascending Z, ties by id.
func (s *Scene) Items() []domain.Item {
	out := make([]domain.Item, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, *it)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Z != out[j].Z {
			return out[i].Z < out[j].Z
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Scene) Len() int { return len(s.items) }

// SetSelected selects id, or clears the selection when id is empty.
func (s *Scene) SetSelected(id string) error {
	if id == "" {
		s.selected = ""
		return nil
	}
	if _, ok := s.items[id]; !ok {
		return ErrNoItem
	}
	s.selected = id
	return nil
}

func (s *Scene) Selected() (string, bool) { return s.selected, s.selected != "" }

func (s *Scene) Background() domain.Background      { return s.background }
func (s *Scene) SetBackground(bg domain.Background) { s.background = bg }
func (s *Scene) Floor() domain.Floor                { return s.floor }
func (s *Scene) SetFloor(f domain.Floor)            { s.floor = f }

// Clear removes every item and the selection and rewinds the z counter to the
// base. The id counter is kept.
func (s *Scene) Clear() {
	clear(s.items)
	s.selected = ""
	s.maxZ = domain.BaseZOrder
}

// Snapshot is a detached copy of the persistent part of a scene.
type Snapshot struct {
	Items      []domain.Item
	Background domain.Background
	Floor      domain.Floor
}

// Clone copies the snapshot. Items are plain values so a slice copy is deep.
func (s Snapshot) Clone() Snapshot {
	cp := s
	cp.Items = append([]domain.Item(nil), s.Items...)
	return cp
}

// Snapshot captures items, background and floor.
func (s *Scene) Snapshot() Snapshot {
	return Snapshot{Items: s.Items(), Background: s.background, Floor: s.floor}
}

// Restore clears the scene and applies snap: background, then floor, then
// items in paint order.
func (s *Scene) Restore(snap Snapshot) {
	s.Clear()
	s.background = snap.Background
	s.floor = snap.Floor
	for _, it := range snap.Items {
		s.AddItem(it)
	}
}
