/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package server

import (
	"time"

	"inmyroom/internal/domain"
	"inmyroom/internal/editor"
	"inmyroom/internal/history"
	"inmyroom/internal/storage"
	"inmyroom/internal/vector"
)

// Wire types of the HTTP API. The remote client decodes the same structs.

type ItemView struct {
	ID       string  `json:"id"`
	Kind     string  `json:"kind"`
	Label    string  `json:"label"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation"`
	Z        int     `json:"z"`
	Selected bool    `json:"selected,omitempty"`
}

type StyleView struct {
	Kind   string `json:"kind"`
	Color  string `json:"color,omitempty"`
	Preset string `json:"preset,omitempty"`
	// HasImage is set instead of echoing the data URL back.
	HasImage bool `json:"hasImage,omitempty"`
}

type BoundsView struct {
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	FloorHeight float64 `json:"floorHeight"`
	Padding     float64 `json:"padding"`
}

type RoomView struct {
	Bounds     BoundsView `json:"bounds"`
	Items      []ItemView `json:"items"`
	Selected   string     `json:"selected,omitempty"`
	Background StyleView  `json:"background"`
	Floor      StyleView  `json:"floor"`
	CanUndo    bool       `json:"canUndo"`
	CanRedo    bool       `json:"canRedo"`
	Drag       *DragView  `json:"drag,omitempty"`
}

type DragView struct {
	Mode   string             `json:"mode"`
	ItemID string             `json:"itemId"`
	Guides []vector.GuideLine `json:"guides,omitempty"`
}

type HistoryEntryView struct {
	Index   int       `json:"index"`
	ID      string    `json:"id"`
	Label   string    `json:"label"`
	TS      time.Time `json:"ts"`
	Items   int       `json:"items"`
	Current bool      `json:"current"`
}

type HistoryView struct {
	Entries []HistoryEntryView `json:"entries"`
	Cursor  int                `json:"cursor"`
}

type BackupView struct {
	Index   int       `json:"index"`
	SavedAt time.Time `json:"savedAt"`
	Bytes   int       `json:"bytes"`
}

type KindView struct {
	Kind   string  `json:"kind"`
	Label  string  `json:"label"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type ErrorView struct {
	Error string `json:"error"`
}

func itemView(it domain.Item, selected string) ItemView {
	return ItemView{
		ID: it.ID, Kind: string(it.Kind), Label: it.Kind.Label(),
		X: it.X, Y: it.Y, Width: it.Width, Height: it.Height,
		Rotation: it.Rotation, Z: it.Z,
		Selected: it.ID == selected,
	}
}

func backgroundView(bg domain.Background) StyleView {
	switch bg.Kind() {
	case domain.BackgroundColor:
		c, _ := bg.Color()
		return StyleView{Kind: "color", Color: c.Hex()}
	case domain.BackgroundImage:
		return StyleView{Kind: "image", HasImage: true}
	default:
		return StyleView{Kind: "none"}
	}
}

func floorView(f domain.Floor) StyleView {
	if _, ok := f.Image(); ok {
		return StyleView{Kind: "image", HasImage: true}
	}
	name, _ := f.Preset()
	return StyleView{Kind: "preset", Preset: name}
}

func roomView(ed *editor.Editor) RoomView {
	b := ed.Bounds()
	var sel string
	if it, ok := ed.Selected(); ok {
		sel = it.ID
	}
	items := ed.Items()
	v := RoomView{
		Bounds:     BoundsView{Width: b.Width, Height: b.Height, FloorHeight: b.FloorHeight, Padding: b.Padding},
		Items:      make([]ItemView, 0, len(items)),
		Selected:   sel,
		Background: backgroundView(ed.Background()),
		Floor:      floorView(ed.Floor()),
		CanUndo:    ed.CanUndo(),
		CanRedo:    ed.CanRedo(),
	}
	for _, it := range items {
		v.Items = append(v.Items, itemView(it, sel))
	}
	if d, ok := ed.Drag(); ok {
		v.Drag = &DragView{Mode: d.Mode.String(), ItemID: d.ItemID, Guides: d.Guides}
	}
	return v
}

func historyView(entries []history.Entry, cursor int) HistoryView {
	v := HistoryView{Entries: make([]HistoryEntryView, 0, len(entries)), Cursor: cursor}
	for i, en := range entries {
		v.Entries = append(v.Entries, HistoryEntryView{
			Index: i, ID: en.ID, Label: en.Label, TS: en.TS,
			Items: len(en.Snapshot.Items), Current: i == cursor,
		})
	}
	return v
}

func backupViews(bs []storage.Backup) []BackupView {
	out := make([]BackupView, 0, len(bs))
	for i, b := range bs {
		out = append(out, BackupView{Index: i, SavedAt: b.SavedAt, Bytes: len(b.Data)})
	}
	return out
}

func catalogView() []KindView {
	cat := domain.Catalog()
	out := make([]KindView, 0, len(cat))
	for _, k := range cat {
		out = append(out, KindView{Kind: string(k.Kind), Label: k.Label, Width: k.Width, Height: k.Height})
	}
	return out
}
