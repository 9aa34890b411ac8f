/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the core data model of a decorated room: placed items,
// the furniture catalog and the canvas geometry they live in.

import (
	"math"
	"sort"
	"strconv"
)

// Kind identifies a furniture type such as "chair" or "window_2".
type Kind string

// KindInfo describes a catalog entry.
type KindInfo struct {
	Kind   Kind
	Label  string
	Width  float64
	Height float64
}

// DefaultItemSize is used when a catalog entry or template does not specify a size.
const DefaultItemSize = 60

var catalog = map[Kind]KindInfo{
	"chair":    {Kind: "chair", Label: "Chair", Width: 60, Height: 60},
	"chair_2":  {Kind: "chair_2", Label: "Chair 2", Width: 60, Height: 60},
	"chair_3":  {Kind: "chair_3", Label: "Chair 3", Width: 60, Height: 60},
	"table":    {Kind: "table", Label: "Table", Width: 100, Height: 70},
	"bed":      {Kind: "bed", Label: "Bed", Width: 160, Height: 110},
	"sofa":     {Kind: "sofa", Label: "Sofa", Width: 140, Height: 80},
	"window":   {Kind: "window", Label: "Window", Width: 90, Height: 90},
	"window_2": {Kind: "window_2", Label: "Window 2", Width: 90, Height: 90},
	"window_3": {Kind: "window_3", Label: "Window 3", Width: 90, Height: 90},
	"window_4": {Kind: "window_4", Label: "Window 4", Width: 90, Height: 90},
	"door":     {Kind: "door", Label: "Door", Width: 70, Height: 140},
	"door_2":   {Kind: "door_2", Label: "Door 2", Width: 70, Height: 140},
	"door_3":   {Kind: "door_3", Label: "Door 3", Width: 70, Height: 140},
	"door_4":   {Kind: "door_4", Label: "Door 4", Width: 70, Height: 140},
	"picture":  {Kind: "picture", Label: "Picture", Width: 60, Height: 50},
	"plant":    {Kind: "plant", Label: "Plant", Width: 50, Height: 80},
	"basil":    {Kind: "basil", Label: "Basil", Width: 40, Height: 50},
	"lamp":     {Kind: "lamp", Label: "Lamp", Width: 40, Height: 90},
}

// Lookup returns the catalog entry for k. Unknown kinds get a default-sized
// entry labelled with the raw kind name, so restored rooms never fail on them.
func Lookup(k Kind) (KindInfo, bool) {
	if info, ok := catalog[k]; ok {
		return info, true
	}
	return KindInfo{Kind: k, Label: string(k), Width: DefaultItemSize, Height: DefaultItemSize}, false
}

// Label returns the human label of k.
func (k Kind) Label() string {
	info, _ := Lookup(k)
	return info.Label
}

// Catalog returns all known kinds sorted by kind name.
func Catalog() []KindInfo {
	out := make([]KindInfo, 0, len(catalog))
	for _, v := range catalog {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

// Item is a placed furniture instance. X/Y is the top-left corner in
// canvas-local pixels; Rotation is in degrees and kept in [0, 360).
type Item struct {
	ID       string  `json:"id"`
	Kind     Kind    `json:"kind"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation"`
	Z        int     `json:"z"`
}

// Rect returns the item's unrotated footprint.
func (it Item) Rect() Rect {
	return Rect{X: it.X, Y: it.Y, Width: it.Width, Height: it.Height}
}

// Center returns the center point of the footprint.
func (it Item) Center() (float64, float64) {
	return it.X + it.Width/2, it.Y + it.Height/2
}

// Transform renders the rotation the way it is persisted, e.g. "rotate(45deg)".
func (it Item) Transform() string {
	return "rotate(" + strconv.FormatFloat(it.Rotation, 'f', -1, 64) + "deg)"
}

// NormalizeDegrees wraps an angle into [0, 360).
func NormalizeDegrees(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0
	}
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	if d >= 360 || d == 0 {
		return 0
	}
	return d
}

type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Bounds describes the canvas an item is clamped against. The floor zone is
// the band of FloorHeight pixels at the bottom of the canvas.
type Bounds struct {
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	FloorHeight float64 `json:"floorHeight"`
	Padding     float64 `json:"padding"`
}

// DefaultBounds matches the stock 800x600 room.
func DefaultBounds() Bounds {
	return Bounds{Width: 800, Height: 600, FloorHeight: 120, Padding: 5}
}

// Valid reports whether b can host at least one item.
func (b Bounds) Valid() bool {
	return b.Width > 0 && b.Height > 0 && b.FloorHeight >= 0 && b.FloorHeight < b.Height && b.Padding >= 0
}

// SizeLimits bounds item width and height.
type SizeLimits struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// DefaultSizeLimits returns the 20..300 pixel range.
func DefaultSizeLimits() SizeLimits { return SizeLimits{Min: 20, Max: 300} }

// Clamp limits v to the range. NaN maps to Min.
func (l SizeLimits) Clamp(v float64) float64 {
	if math.IsNaN(v) || v < l.Min {
		return l.Min
	}
	if v > l.Max {
		return l.Max
	}
	return v
}

// Base and floor z-order values.
const (
	BaseZOrder  = 10000
	FloorZOrder = 10
)
