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

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Errors returned by the style constructors.
var (
	ErrBadColor     = errors.New("invalid hex color")
	ErrUnknownFloor = errors.New("unknown floor preset")
	ErrBadImageData = errors.New("image data must be a data:image/ URL")
)

type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// ParseHexColor parses #rgb or #rrggbb.
func ParseHexColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		return Color{}, fmt.Errorf("%w: %q", ErrBadColor, s)
	}
	h := s[1:]
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return Color{}, fmt.Errorf("%w: %q", ErrBadColor, s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("%w: %q", ErrBadColor, s)
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// Hex formats c as #rrggbb.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func mustHex(s string) Color {
	c, err := ParseHexColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

// BackgroundKind tags the Background variant.
type BackgroundKind int

const (
	BackgroundNone BackgroundKind = iota
	BackgroundColor
	BackgroundImage
)

// Background is the canvas backdrop. The zero value is the default gradient.
type Background struct {
	kind  BackgroundKind
	color Color
	image string
}

func NoBackground() Background { return Background{} }

// ColorBackground validates hex and returns a solid background.
func ColorBackground(hex string) (Background, error) {
	c, err := ParseHexColor(hex)
	if err != nil {
		return Background{}, err
	}
	return Background{kind: BackgroundColor, color: c}, nil
}

// ImageBackground validates a data URL and returns an image background.
func ImageBackground(dataURL string) (Background, error) {
	if !IsImageDataURL(dataURL) {
		return Background{}, ErrBadImageData
	}
	return Background{kind: BackgroundImage, image: dataURL}, nil
}

func (b Background) Kind() BackgroundKind { return b.kind }
func (b Background) Color() (Color, bool) { return b.color, b.kind == BackgroundColor }
func (b Background) Image() (string, bool) {
	return b.image, b.kind == BackgroundImage
}

func (b Background) String() string {
	switch b.kind {
	case BackgroundColor:
		return "color " + b.color.Hex()
	case BackgroundImage:
		return "image"
	default:
		return "default"
	}
}

// Default gradient stops used when no background is chosen.
var (
	GradientFrom = mustHex("#F0F8FF")
	GradientTo   = mustHex("#E6F3FF")
)

// FloorKind tags the Floor variant.
type FloorKind int

const (
	FloorPreset FloorKind = iota
	FloorImage
)

// Floor styles the floor zone. The zero value is the "default" preset.
type Floor struct {
	kind   FloorKind
	preset string
	image  string
}

// FloorStyle is a fully resolved floor look: literal colors only, so renderers
// never need to consult the preset table.
type FloorStyle struct {
	Fill        Color
	BorderTop   Color
	BorderWidth float64
	Image       string
}

var floorPresets = map[string]FloorStyle{
	"default":   {Fill: mustHex("#deb887"), BorderTop: mustHex("#bfa16a"), BorderWidth: 4},
	"dark_wood": {Fill: mustHex("#8b4513"), BorderTop: mustHex("#654321"), BorderWidth: 4},
	"tile":      {Fill: mustHex("#e0e0e0"), BorderTop: mustHex("#b0b0b0"), BorderWidth: 4},
	"carpet":    {Fill: mustHex("#8b0000"), BorderTop: mustHex("#6b0000"), BorderWidth: 4},
	"marble":    {Fill: mustHex("#f8f8f8"), BorderTop: mustHex("#d0d0d0"), BorderWidth: 4},
}

// FloorPresets lists the preset names in sorted order.
func FloorPresets() []string {
	out := make([]string, 0, len(floorPresets))
	for k := range floorPresets {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func DefaultFloor() Floor { return Floor{kind: FloorPreset, preset: "default"} }

// PresetFloor validates name against the preset table.
func PresetFloor(name string) (Floor, error) {
	if _, ok := floorPresets[name]; !ok {
		return Floor{}, fmt.Errorf("%w: %q", ErrUnknownFloor, name)
	}
	return Floor{kind: FloorPreset, preset: name}, nil
}

// ImageFloor validates a data URL and returns an image floor.
func ImageFloor(dataURL string) (Floor, error) {
	if !IsImageDataURL(dataURL) {
		return Floor{}, ErrBadImageData
	}
	return Floor{kind: FloorImage, image: dataURL}, nil
}

func (f Floor) Kind() FloorKind { return f.kind }

// Preset returns the preset name; the zero Floor reports "default".
func (f Floor) Preset() (string, bool) {
	if f.kind != FloorPreset {
		return "", false
	}
	if f.preset == "" {
		return "default", true
	}
	return f.preset, true
}

func (f Floor) Image() (string, bool) { return f.image, f.kind == FloorImage }

// Resolve materializes the floor into literal style values. Image floors keep
// the default colors underneath the picture.
func (f Floor) Resolve() FloorStyle {
	if f.kind == FloorImage {
		st := floorPresets["default"]
		st.Image = f.image
		return st
	}
	name, _ := f.Preset()
	return floorPresets[name]
}

func (f Floor) String() string {
	if f.kind == FloorImage {
		return "image"
	}
	name, _ := f.Preset()
	return name
}

// IsImageDataURL reports whether s looks like a base64 image data URL.
func IsImageDataURL(s string) bool {
	return strings.HasPrefix(s, "data:image/") && strings.Contains(s, ";base64,")
}
